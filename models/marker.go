package models

// Marker colors used by the map front-end
const (
	MarkerColorHighlight = "#ffdd00" // search results
	MarkerColorMetro     = "#ff4757"
	MarkerColorTram      = "#2ed573"
	MarkerColorDefault   = "#4a9eff"
)

// Chart colors per ranking metric
var MetricColors = map[Metric]string{
	MetricLength:   "#ff4757",
	MetricStations: "#2ed573",
	MetricLines:    "#ffa502",
	MetricSystems:  "#4a9eff",
}

// MarkerRadius scales the circle marker with the number of systems, clamped to 6-20px
func MarkerRadius(systemCount int) int {
	r := systemCount * 3
	if r < 6 {
		return 6
	}
	if r > 20 {
		return 20
	}
	return r
}

// MarkerColor returns the fill color for a city marker
func MarkerColor(c CityAggregate, highlight bool) string {
	switch {
	case highlight:
		return MarkerColorHighlight
	case c.HasMetro:
		return MarkerColorMetro
	case c.HasTram:
		return MarkerColorTram
	}
	return MarkerColorDefault
}

// GetMetricColor returns the chart color for a metric
func GetMetricColor(m Metric) string {
	if color, ok := MetricColors[m]; ok {
		return color
	}
	return "#888888" // Default gray
}

// MarkerProperties are the GeoJSON feature properties of a city marker
type MarkerProperties struct {
	Name          string  `json:"name"`
	Country       string  `json:"country"`
	SystemCount   int     `json:"systemCount"`
	TotalLength   float64 `json:"totalLength"`
	TotalStations int     `json:"totalStations"`
	TotalLines    int     `json:"totalLines"`
	HasMetro      bool    `json:"hasMetro"`
	HasTram       bool    `json:"hasTram"`
	Radius        int     `json:"radius"`
	Color         string  `json:"color"`
}
