package models

import (
	"fmt"
	"slices"
	"strings"
)

// Continent is a region filter value ("europe", "north_america", ...)
type Continent string

const (
	ContinentEurope       Continent = "europe"
	ContinentAsia         Continent = "asia"
	ContinentNorthAmerica Continent = "north_america"
	ContinentSouthAmerica Continent = "south_america"
	ContinentAfrica       Continent = "africa"
	ContinentOceania      Continent = "oceania"
)

// ContinentCountries maps each continent to the countries the dashboard places in it.
// Some countries (Turkey, Georgia, Armenia, Azerbaijan) belong to two continents.
var ContinentCountries = map[Continent][]string{
	ContinentEurope: {
		"Germany", "France", "Italy", "Spain", "United Kingdom", "Netherlands", "Belgium",
		"Switzerland", "Austria", "Sweden", "Norway", "Denmark", "Finland", "Poland",
		"Czech Republic", "Hungary", "Romania", "Greece", "Portugal", "Ireland", "Croatia",
		"Serbia", "Bulgaria", "Slovakia", "Latvia", "Estonia", "Lithuania", "Luxembourg",
		"Bosnia and Herzegovina", "Russia", "Ukraine", "Belarus", "Georgia", "Armenia",
		"Azerbaijan", "Turkey",
	},
	ContinentAsia: {
		"China", "Japan", "South Korea", "India", "Turkey", "Thailand", "Malaysia", "Singapore",
		"Indonesia", "Philippines", "Vietnam", "Taiwan", "Hong Kong", "Iran", "Saudi Arabia",
		"United Arab Emirates", "Qatar", "Kazakhstan", "Uzbekistan", "Georgia", "Armenia",
		"Azerbaijan", "Bangladesh", "Pakistan", "Myanmar", "North Korea", "Israel",
	},
	ContinentNorthAmerica: {
		"United States", "Canada", "Mexico", "Panama", "Costa Rica", "Cuba", "Dominican Republic",
	},
	ContinentSouthAmerica: {
		"Brazil", "Argentina", "Chile", "Colombia", "Peru", "Venezuela", "Ecuador", "Bolivia", "Uruguay",
	},
	ContinentAfrica: {
		"Egypt", "South Africa", "Morocco", "Algeria", "Nigeria", "Kenya", "Ethiopia", "Tanzania", "Tunisia",
	},
	ContinentOceania: {"Australia", "New Zealand"},
}

// AllContinents returns the continents in selector order
func AllContinents() []Continent {
	return []Continent{
		ContinentEurope,
		ContinentAsia,
		ContinentNorthAmerica,
		ContinentSouthAmerica,
		ContinentAfrica,
		ContinentOceania,
	}
}

// ParseContinent validates a continent name; empty means no continent filter
func ParseContinent(s string) (Continent, error) {
	if s == "" {
		return "", nil
	}
	c := Continent(s)
	if _, ok := ContinentCountries[c]; !ok {
		return "", fmt.Errorf("unknown continent %q", s)
	}
	return c, nil
}

// Contains reports whether country is listed under the continent
func (c Continent) Contains(country string) bool {
	return slices.Contains(ContinentCountries[c], country)
}

// Label is the display name used in the country selector ("North america")
func (c Continent) Label() string {
	if c == "" {
		return ""
	}
	s := string(c)
	return strings.ToUpper(s[:1]) + strings.Replace(s[1:], "_", " ", 1)
}
