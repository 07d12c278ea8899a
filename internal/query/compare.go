package query

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/you/transit-atlas/models"
)

// ErrCityNotFound is returned when an identity does not resolve to exactly one city
var ErrCityNotFound = errors.New("city not found")

// ParseCityID decodes the "Name|Country" selector value
func ParseCityID(s string) (models.CityID, error) {
	parts := strings.Split(s, "|")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return models.CityID{}, fmt.Errorf("city id %q must have the form Name|Country", s)
	}
	return models.CityID{Name: parts[0], Country: parts[1]}, nil
}

// Lookup resolves an identity. Zero or multiple matches are both ErrCityNotFound.
func Lookup(cities []models.CityAggregate, id models.CityID) (models.CityAggregate, error) {
	var found *models.CityAggregate
	for i := range cities {
		if cities[i].Name != id.Name || cities[i].Country != id.Country {
			continue
		}
		if found != nil {
			return models.CityAggregate{}, fmt.Errorf("%w: %s matches more than one city", ErrCityNotFound, id)
		}
		found = &cities[i]
	}
	if found == nil {
		return models.CityAggregate{}, fmt.Errorf("%w: %s", ErrCityNotFound, id)
	}
	return *found, nil
}

// Compare builds the side-by-side metric table of two cities
func Compare(cities []models.CityAggregate, id1, id2 models.CityID) (*models.Comparison, error) {
	c1, err := Lookup(cities, id1)
	if err != nil {
		return nil, err
	}
	c2, err := Lookup(cities, id2)
	if err != nil {
		return nil, err
	}

	return &models.Comparison{
		City1: c1,
		City2: c2,
		Rows: []models.ComparisonRow{
			{Label: "City", Value1: c1.Name, Value2: c2.Name},
			{Label: "Total Systems", Value1: strconv.Itoa(c1.SystemCount), Value2: strconv.Itoa(c2.SystemCount)},
			{Label: "Total Length", Value1: models.FormatFixed1(c1.TotalLength) + " km", Value2: models.FormatFixed1(c2.TotalLength) + " km"},
			{Label: "Total Stations", Value1: strconv.Itoa(c1.TotalStations), Value2: strconv.Itoa(c2.TotalStations)},
			{Label: "Total Lines", Value1: strconv.Itoa(c1.TotalLines), Value2: strconv.Itoa(c2.TotalLines)},
		},
	}, nil
}

// CompareCandidates lists the cities offered in the compare selectors: those with
// at least one system, sorted by name, without the excluded city.
func CompareCandidates(cities []models.CityAggregate, exclude *models.CityID) []models.CityID {
	var ids []models.CityID
	for _, c := range cities {
		if c.SystemCount == 0 {
			continue
		}
		if exclude != nil && c.ID() == *exclude {
			continue
		}
		ids = append(ids, c.ID())
	}
	slices.SortStableFunc(ids, func(a, b models.CityID) int {
		return strings.Compare(a.Name, b.Name)
	})
	return ids
}
