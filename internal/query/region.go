package query

import (
	"fmt"

	"github.com/tidwall/geojson"
	"github.com/tidwall/geojson/geometry"

	"github.com/you/transit-atlas/models"
)

// ParseRegion parses a GeoJSON geometry, feature or collection used as a
// spatial filter (a map viewport or a drawn area).
func ParseRegion(data []byte) (geojson.Object, error) {
	region, err := geojson.Parse(string(data), &geojson.ParseOptions{RequireValid: true})
	if err != nil {
		return nil, fmt.Errorf("parse region: %w", err)
	}
	return region, nil
}

// Within keeps the cities whose coordinates lie inside region
func Within(cities []models.CityAggregate, region geojson.Object) []models.CityAggregate {
	out := make([]models.CityAggregate, 0, len(cities))
	for _, c := range cities {
		point := geojson.NewPoint(geometry.Point{X: c.Lng, Y: c.Lat})
		if region.Contains(point) {
			out = append(out, c)
		}
	}
	return out
}
