package models

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
)

// Quantity is a numeric field read from a source table.
// The zero value is Unknown, which is distinct from a known zero.
type Quantity struct {
	value float64
	known bool
}

// Unknown is the Quantity of a missing or unparseable field
var Unknown = Quantity{}

// Known returns a Quantity holding v
func Known(v float64) Quantity {
	return Quantity{value: v, known: true}
}

// Value returns the number and whether it is known
func (q Quantity) Value() (float64, bool) {
	return q.value, q.known
}

// IsKnown reports whether the field was present and parseable
func (q Quantity) IsKnown() bool {
	return q.known
}

// String renders the quantity the way the dashboard displays it ("N/A" when unknown)
func (q Quantity) String() string {
	if !q.known {
		return "N/A"
	}
	return FormatNumber(q.value)
}

// MarshalJSON encodes unknown quantities as null
func (q Quantity) MarshalJSON() ([]byte, error) {
	if !q.known {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, q.value, 'f', -1, 64), nil
}

// UnmarshalJSON accepts a number or null
func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*q = Unknown
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid quantity %q: %w", data, err)
	}
	*q = Known(v)
	return nil
}

// SystemRecord holds the facts of one transit system type in one city
type SystemRecord struct {
	Stations Quantity `json:"stations"`
	LengthKm Quantity `json:"length"`
	Lines    Quantity `json:"lines"`
}

// CityID identifies a city by its exact name and country
type CityID struct {
	Name    string `json:"name"`
	Country string `json:"country"`
}

// String returns the "Name|Country" form used by the compare selectors
func (id CityID) String() string {
	return id.Name + "|" + id.Country
}

// CityAggregate is the joined per-city view: coordinates, the transit systems
// found for the city, and totals over their known numeric fields.
type CityAggregate struct {
	// Identity
	Name    string `json:"name"`
	Country string `json:"country"`

	// Position (from the geocoded coordinate table)
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`

	// Systems present for this city, keyed by system type ("Metro", "Tram", ...)
	Systems     map[string]SystemRecord `json:"systems"`
	SystemCount int                     `json:"systemCount"` // always len(Systems)

	// Totals over known values only
	TotalStations int     `json:"totalStations"`
	TotalLength   float64 `json:"totalLength"` // km
	TotalLines    int     `json:"totalLines"`

	// Flags copied from the master table
	HasMetro bool `json:"hasMetro"`
	HasTram  bool `json:"hasTram"`
}

// ID returns the identity key of the city
func (c CityAggregate) ID() CityID {
	return CityID{Name: c.Name, Country: c.Country}
}

// HasSystem reports whether the city has a record for the given system type
func (c CityAggregate) HasSystem(systemType string) bool {
	_, ok := c.Systems[systemType]
	return ok
}

// Validate checks the invariants of an aggregate record
func (c *CityAggregate) Validate() error {
	if c.Name == "" || c.Country == "" {
		return errors.New("name and country are required")
	}

	// Latitude must be in valid range [-90, 90]
	if c.Lat < -90 || c.Lat > 90 {
		return errors.New("latitude out of range: must be between -90 and 90")
	}

	// Longitude must be in valid range [-180, 180]
	if c.Lng < -180 || c.Lng > 180 {
		return errors.New("longitude out of range: must be between -180 and 180")
	}

	if c.SystemCount != len(c.Systems) {
		return fmt.Errorf("system_count %d does not match %d systems", c.SystemCount, len(c.Systems))
	}

	return nil
}
