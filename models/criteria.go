package models

import (
	"fmt"
	"math"
)

// LengthPreset buckets cities by total network length
type LengthPreset string

const (
	LengthAny    LengthPreset = ""
	LengthShort  LengthPreset = "short"  // <= 50 km
	LengthMedium LengthPreset = "medium" // 50-200 km
	LengthLong   LengthPreset = "long"   // > 200 km
)

// Matches reports whether a total length falls in the bucket
func (p LengthPreset) Matches(totalLength float64) bool {
	switch p {
	case LengthShort:
		return totalLength <= 50
	case LengthMedium:
		return totalLength > 50 && totalLength <= 200
	case LengthLong:
		return totalLength > 200
	}
	return true
}

// SystemCountPreset buckets cities by number of system types
type SystemCountPreset string

const (
	SystemCountAny    SystemCountPreset = ""
	SystemCountSingle SystemCountPreset = "single" // exactly 1
	SystemCountFew    SystemCountPreset = "few"    // 2-4
	SystemCountMany   SystemCountPreset = "many"   // 5+
)

// Matches reports whether a system count falls in the bucket
func (p SystemCountPreset) Matches(systemCount int) bool {
	switch p {
	case SystemCountSingle:
		return systemCount == 1
	case SystemCountFew:
		return systemCount >= 2 && systemCount <= 4
	case SystemCountMany:
		return systemCount >= 5
	}
	return true
}

// LengthRange is an inclusive [Min, Max] bound on total length
type LengthRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// FullLengthRange admits every city
var FullLengthRange = LengthRange{Min: math.Inf(-1), Max: math.Inf(1)}

// Contains reports whether v lies within the range
func (r LengthRange) Contains(v float64) bool {
	return r.Min <= v && v <= r.Max
}

// Criteria configures the filter engine. Every field is an independent
// predicate; zero values are no-ops and active predicates are ANDed.
type Criteria struct {
	SystemTypes       []string          `json:"systemTypes,omitempty"`
	MultiSystemOnly   bool              `json:"multiSystemOnly,omitempty"`
	Continent         Continent         `json:"continent,omitempty"`
	Country           string            `json:"country,omitempty"`
	MinSystems        int               `json:"minSystems,omitempty"`
	MinLines          int               `json:"minLines,omitempty"`
	LengthRange       *LengthRange      `json:"lengthRange,omitempty"` // nil means FullLengthRange
	LengthPreset      LengthPreset      `json:"lengthPreset,omitempty"`
	SystemCountPreset SystemCountPreset `json:"systemCountPreset,omitempty"`
	SearchText        string            `json:"searchText,omitempty"`
}

// Metric selects the numeric field used by rankings and charts
type Metric string

const (
	MetricLength   Metric = "length"
	MetricStations Metric = "stations"
	MetricLines    Metric = "lines"
	MetricSystems  Metric = "systems"
)

// AllMetrics returns the supported ranking metrics
func AllMetrics() []Metric {
	return []Metric{MetricLength, MetricStations, MetricLines, MetricSystems}
}

// ParseMetric validates a metric name; empty defaults to length
func ParseMetric(s string) (Metric, error) {
	if s == "" {
		return MetricLength, nil
	}
	for _, m := range AllMetrics() {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown metric %q", s)
}

// Value returns the metric's numeric field of a city
func (m Metric) Value(c CityAggregate) float64 {
	switch m {
	case MetricStations:
		return float64(c.TotalStations)
	case MetricLines:
		return float64(c.TotalLines)
	case MetricSystems:
		return float64(c.SystemCount)
	}
	return c.TotalLength
}

// Display renders the metric value of a city for ranking lists
func (m Metric) Display(c CityAggregate) string {
	switch m {
	case MetricStations:
		return fmt.Sprintf("%d stations", c.TotalStations)
	case MetricLines:
		return fmt.Sprintf("%d lines", c.TotalLines)
	case MetricSystems:
		return fmt.Sprintf("%d systems", c.SystemCount)
	}
	return FormatFixed1(c.TotalLength) + " km"
}

// Title is the chart heading for a ranking of n cities
func (m Metric) Title(n int) string {
	switch m {
	case MetricStations:
		return fmt.Sprintf("Top %d Cities by Stations", n)
	case MetricLines:
		return fmt.Sprintf("Top %d Cities by Lines", n)
	case MetricSystems:
		return fmt.Sprintf("Top %d Cities by Systems", n)
	}
	return fmt.Sprintf("Top %d Cities by Total Length", n)
}

// RankingEntry is one row of a ranking list
type RankingEntry struct {
	Rank    int     `json:"rank"`
	Name    string  `json:"name"`
	Country string  `json:"country"`
	Value   float64 `json:"value"`
	Display string  `json:"display"`
}
