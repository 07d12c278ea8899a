// Package aggregate joins the master city list, the geocoded coordinates and
// the per-system tables into one CityAggregate per resolved city.
package aggregate

import (
	"math"
	"strings"

	"github.com/you/transit-atlas/internal/rows"
	"github.com/you/transit-atlas/models"
)

// identity is the (city, country) join key, compared by exact string equality
type identity struct {
	city    string
	country string
}

// index maps an identity to the first row of a table carrying it
type index map[identity]rows.RawRow

func buildIndex(table []rows.RawRow, cityKeys, countryKeys rows.Keys, accept func(rows.RawRow) bool) index {
	idx := make(index, len(table))
	for _, row := range table {
		if accept != nil && !accept(row) {
			continue
		}
		key := identity{city: cityKeys.String(row), country: countryKeys.String(row)}
		if _, seen := idx[key]; seen {
			// First match wins
			continue
		}
		idx[key] = row
	}
	return idx
}

// SystemTable is the parsed table of one system type. Tables are summed in
// slice order so that floating-point totals are reproducible.
type SystemTable struct {
	Type string
	Rows []rows.RawRow
}

// geocoded accepts coordinate rows whose success flag is "true" in any case
func geocoded(row rows.RawRow) bool {
	return strings.EqualFold(rows.SuccessKeys.String(row), "true")
}

// Aggregate builds the aggregate collection in master-table order.
//
// A master row contributes a city only when a geocoded coordinate row with the
// same city and country exists and its latitude and longitude parse. Each
// system table contributes a SystemRecord when it has a row for the city, even
// if none of that row's numeric fields parse. Totals add known values only.
func Aggregate(master, coordinates []rows.RawRow, systems []SystemTable) []models.CityAggregate {
	coordIdx := buildIndex(coordinates, rows.CoordCityKeys, rows.CoordCountryKeys, geocoded)

	systemIdx := make([]index, len(systems))
	for i, table := range systems {
		systemIdx[i] = buildIndex(table.Rows, rows.CityKeys, rows.CountryKeys, nil)
	}

	cities := make([]models.CityAggregate, 0, len(master))
	seen := make(map[identity]bool, len(master))

	for _, row := range master {
		key := identity{city: rows.CityKeys.String(row), country: rows.CountryKeys.String(row)}
		if key.city == "" || key.country == "" || seen[key] {
			continue
		}

		coord, ok := coordIdx[key]
		if !ok {
			continue
		}
		lat, latOK := rows.LatitudeKeys.Float(coord).Value()
		lng, lngOK := rows.LongitudeKeys.Float(coord).Value()
		if !latOK || !lngOK {
			continue
		}
		seen[key] = true

		city := models.CityAggregate{
			Name:     key.city,
			Country:  key.country,
			Lat:      lat,
			Lng:      lng,
			Systems:  make(map[string]models.SystemRecord),
			HasMetro: rows.HasMetroKeys.String(row) == "True",
			HasTram:  rows.HasTramKeys.String(row) == "True",
		}

		for i, idx := range systemIdx {
			systemRow, found := idx[key]
			if !found {
				continue
			}
			systemType := systems[i].Type
			if city.HasSystem(systemType) {
				continue
			}
			rec := models.SystemRecord{
				Stations: rows.StationsKeys.Int(systemRow),
				LengthKm: rows.LengthKeys.Float(systemRow),
				Lines:    rows.LinesKeys.Int(systemRow),
			}
			city.Systems[systemType] = rec
			addTotals(&city, rec)
		}
		city.SystemCount = len(city.Systems)

		cities = append(cities, city)
	}

	return cities
}

func addTotals(city *models.CityAggregate, rec models.SystemRecord) {
	if v, ok := rec.Stations.Value(); ok {
		city.TotalStations = addCount(city.TotalStations, v)
	}
	if v, ok := rec.LengthKm.Value(); ok {
		city.TotalLength += v
	}
	if v, ok := rec.Lines.Value(); ok {
		city.TotalLines = addCount(city.TotalLines, v)
	}
}

// addCount adds a parsed count to a total, saturating at the int range
func addCount(total int, v float64) int {
	switch sum := float64(total) + v; {
	case sum >= math.MaxInt:
		return math.MaxInt
	case sum <= math.MinInt:
		return math.MinInt
	}
	return total + int(v)
}
