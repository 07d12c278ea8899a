package models

// ComparisonRow is one metric of a side-by-side comparison
type ComparisonRow struct {
	Label  string `json:"label"`
	Value1 string `json:"value1"`
	Value2 string `json:"value2"`
}

// Comparison is the side-by-side table of two cities
type Comparison struct {
	City1 CityAggregate   `json:"city1"`
	City2 CityAggregate   `json:"city2"`
	Rows  []ComparisonRow `json:"rows"`
}

// Stats are the dashboard header counters
type Stats struct {
	TotalCities   int `json:"totalCities"`
	TotalSystems  int `json:"totalSystems"`
	VisibleCities int `json:"visibleCities"`
}

// SystemShare is the number of cities having one system type
type SystemShare struct {
	System string `json:"system"`
	Cities int    `json:"cities"`
}
