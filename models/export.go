package models

// ExportRow is one line of the flat city export
type ExportRow struct {
	Name     string  `json:"name"`
	Country  string  `json:"country"`
	Systems  int     `json:"systems"`
	Length   float64 `json:"length"`
	Stations int     `json:"stations"`
	Lines    int     `json:"lines"`
}

// ExportRowOf projects a city onto its export line
func ExportRowOf(c CityAggregate) ExportRow {
	return ExportRow{
		Name:     c.Name,
		Country:  c.Country,
		Systems:  c.SystemCount,
		Length:   c.TotalLength,
		Stations: c.TotalStations,
		Lines:    c.TotalLines,
	}
}
