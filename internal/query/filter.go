// Package query holds the read-side operations over a loaded aggregate
// collection: filtering, rankings, distributions, comparisons and exports.
// Every function treats its input slice as immutable.
package query

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/you/transit-atlas/models"
)

// ErrInvalidCriteria is returned when a filter parameter cannot be decoded
var ErrInvalidCriteria = errors.New("invalid filter criteria")

type predicate func(models.CityAggregate) bool

// Filter returns the cities satisfying every active predicate of c, in input order.
func Filter(cities []models.CityAggregate, c models.Criteria) []models.CityAggregate {
	preds := predicates(c)
	out := make([]models.CityAggregate, 0, len(cities))

outer:
	for _, city := range cities {
		for _, p := range preds {
			if !p(city) {
				continue outer
			}
		}
		out = append(out, city)
	}
	return out
}

func predicates(c models.Criteria) []predicate {
	var preds []predicate

	if len(c.SystemTypes) > 0 {
		types := slices.Clone(c.SystemTypes)
		preds = append(preds, func(city models.CityAggregate) bool {
			if city.SystemCount == 0 {
				return false
			}
			for _, t := range types {
				if city.HasSystem(t) {
					return true
				}
			}
			return false
		})
	}

	if c.MultiSystemOnly {
		preds = append(preds, func(city models.CityAggregate) bool {
			return city.SystemCount > 1
		})
	}

	if c.Continent != "" {
		continent := c.Continent
		preds = append(preds, func(city models.CityAggregate) bool {
			return continent.Contains(city.Country)
		})
	}

	if c.Country != "" {
		country := c.Country
		preds = append(preds, func(city models.CityAggregate) bool {
			return city.Country == country
		})
	}

	if c.MinSystems > 0 {
		minSystems := c.MinSystems
		preds = append(preds, func(city models.CityAggregate) bool {
			return city.SystemCount >= minSystems
		})
	}

	if c.MinLines > 0 {
		minLines := c.MinLines
		preds = append(preds, func(city models.CityAggregate) bool {
			return city.TotalLines >= minLines
		})
	}

	lengthRange := models.FullLengthRange
	if c.LengthRange != nil {
		lengthRange = *c.LengthRange
	}
	preds = append(preds, func(city models.CityAggregate) bool {
		return lengthRange.Contains(city.TotalLength)
	})

	if c.LengthPreset != models.LengthAny {
		preset := c.LengthPreset
		preds = append(preds, func(city models.CityAggregate) bool {
			return preset.Matches(city.TotalLength)
		})
	}

	if c.SystemCountPreset != models.SystemCountAny {
		preset := c.SystemCountPreset
		preds = append(preds, func(city models.CityAggregate) bool {
			return preset.Matches(city.SystemCount)
		})
	}

	if search := strings.TrimSpace(c.SearchText); search != "" {
		// A Caser is stateful, so each filter call gets its own
		fold := cases.Fold()
		needle := fold.String(search)
		preds = append(preds, func(city models.CityAggregate) bool {
			return strings.Contains(fold.String(city.Name), needle) ||
				strings.Contains(fold.String(city.Country), needle)
		})
	}

	return preds
}

// ParseCriteria decodes filter criteria from URL query parameters:
//
//	system=Metro&system=Tram  multi=true  continent=europe  country=France
//	min_systems=2  min_lines=5  min_length=0  max_length=500
//	length=short|medium|long  systems=single|few|many  q=par
func ParseCriteria(v url.Values) (models.Criteria, error) {
	var c models.Criteria
	var err error

	for _, s := range v["system"] {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				c.SystemTypes = append(c.SystemTypes, part)
			}
		}
	}

	if s := v.Get("multi"); s != "" {
		if c.MultiSystemOnly, err = strconv.ParseBool(s); err != nil {
			return c, fmt.Errorf("%w: multi: %v", ErrInvalidCriteria, err)
		}
	}

	if c.Continent, err = models.ParseContinent(v.Get("continent")); err != nil {
		return c, fmt.Errorf("%w: %v", ErrInvalidCriteria, err)
	}
	c.Country = v.Get("country")

	if c.MinSystems, err = parseIntParam(v, "min_systems"); err != nil {
		return c, err
	}
	if c.MinLines, err = parseIntParam(v, "min_lines"); err != nil {
		return c, err
	}

	if v.Has("min_length") || v.Has("max_length") {
		r := models.FullLengthRange
		if r.Min, err = parseFloatParam(v, "min_length", math.Inf(-1)); err != nil {
			return c, err
		}
		if r.Max, err = parseFloatParam(v, "max_length", math.Inf(1)); err != nil {
			return c, err
		}
		c.LengthRange = &r
	}

	switch p := models.LengthPreset(v.Get("length")); p {
	case models.LengthAny, models.LengthShort, models.LengthMedium, models.LengthLong:
		c.LengthPreset = p
	default:
		return c, fmt.Errorf("%w: unknown length preset %q", ErrInvalidCriteria, p)
	}

	switch p := models.SystemCountPreset(v.Get("systems")); p {
	case models.SystemCountAny, models.SystemCountSingle, models.SystemCountFew, models.SystemCountMany:
		c.SystemCountPreset = p
	default:
		return c, fmt.Errorf("%w: unknown system count preset %q", ErrInvalidCriteria, p)
	}

	c.SearchText = strings.TrimSpace(v.Get("q"))

	return c, nil
}

func parseIntParam(v url.Values, name string) (int, error) {
	s := v.Get(name)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidCriteria, name, err)
	}
	return n, nil
}

func parseFloatParam(v url.Values, name string, def float64) (float64, error) {
	s := v.Get(name)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0, fmt.Errorf("%w: %s: %q is not a number", ErrInvalidCriteria, name, s)
	}
	return f, nil
}
