package models

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatNumber(t *testing.T) {
	cases := map[float64]string{
		0:      "0",
		220.5:  "220.5",
		380:    "380",
		16:     "16",
		0.1:    "0.1",
		1234.0: "1234",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatNumber(in), "FormatNumber(%v)", in)
	}

	// Summed at run time, not folded as an exact constant
	a, b := 0.1, 0.2
	assert.Equal(t, "0.30000000000000004", FormatNumber(a+b))
}

func TestFormatNumberExponentForm(t *testing.T) {
	cases := map[float64]string{
		1e21:     "1e+21",
		1.5e22:   "1.5e+22",
		-1e21:    "-1e+21",
		1e-7:     "1e-7",
		1.25e-10: "1.25e-10",
		1e-6:     "0.000001",
		1e20:     "100000000000000000000",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatNumber(in), "FormatNumber(%v)", in)
	}
	assert.Equal(t, "NaN", FormatNumber(math.NaN()))
	assert.Equal(t, "Infinity", FormatNumber(math.Inf(1)))
}

func TestFormatFixed1(t *testing.T) {
	assert.Equal(t, "220.5", FormatFixed1(220.5))
	assert.Equal(t, "0.0", FormatFixed1(0))
	assert.Equal(t, "12.3", FormatFixed1(12.34))
	// Exact binary ties round away from zero
	assert.Equal(t, "0.3", FormatFixed1(0.25))
	assert.Equal(t, "1.8", FormatFixed1(1.75))
	assert.Equal(t, "-0.3", FormatFixed1(-0.25))
}

func TestQuantityJSON(t *testing.T) {
	rec := SystemRecord{Stations: Known(12), LengthKm: Known(8.5), Lines: Unknown}
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"stations":12,"length":8.5,"lines":null}`, string(data))

	var back SystemRecord
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, rec, back)
	assert.Equal(t, "N/A", back.Lines.String())
	assert.Equal(t, "8.5", back.LengthKm.String())
}

func TestUnknownIsNotZero(t *testing.T) {
	assert.False(t, Unknown.IsKnown())
	assert.True(t, Known(0).IsKnown())
	assert.NotEqual(t, Unknown, Known(0))
}

func TestLengthPreset(t *testing.T) {
	assert.True(t, LengthShort.Matches(50))
	assert.False(t, LengthShort.Matches(50.1))
	assert.False(t, LengthMedium.Matches(50))
	assert.True(t, LengthMedium.Matches(200))
	assert.False(t, LengthLong.Matches(200))
	assert.True(t, LengthLong.Matches(200.1))
	assert.True(t, LengthAny.Matches(-1))
}

func TestSystemCountPreset(t *testing.T) {
	assert.True(t, SystemCountSingle.Matches(1))
	assert.False(t, SystemCountSingle.Matches(2))
	assert.True(t, SystemCountFew.Matches(2))
	assert.True(t, SystemCountFew.Matches(4))
	assert.False(t, SystemCountFew.Matches(5))
	assert.True(t, SystemCountMany.Matches(5))
	assert.True(t, SystemCountAny.Matches(0))
}

func TestParseMetric(t *testing.T) {
	m, err := ParseMetric("")
	require.NoError(t, err)
	assert.Equal(t, MetricLength, m)

	m, err = ParseMetric("stations")
	require.NoError(t, err)
	assert.Equal(t, MetricStations, m)

	_, err = ParseMetric("speed")
	assert.Error(t, err)
}

func TestMetricDisplay(t *testing.T) {
	c := CityAggregate{TotalLength: 220.5, TotalStations: 380, TotalLines: 16, SystemCount: 2}
	assert.Equal(t, "220.5 km", MetricLength.Display(c))
	assert.Equal(t, "380 stations", MetricStations.Display(c))
	assert.Equal(t, "16 lines", MetricLines.Display(c))
	assert.Equal(t, "2 systems", MetricSystems.Display(c))
	assert.Equal(t, "Top 20 Cities by Total Length", MetricLength.Title(20))
}

func TestContinent(t *testing.T) {
	c, err := ParseContinent("north_america")
	require.NoError(t, err)
	assert.Equal(t, "North america", c.Label())
	assert.True(t, c.Contains("Canada"))
	assert.False(t, c.Contains("France"))

	// Turkey is listed under both Europe and Asia
	assert.True(t, ContinentEurope.Contains("Turkey"))
	assert.True(t, ContinentAsia.Contains("Turkey"))

	_, err = ParseContinent("atlantis")
	assert.Error(t, err)
}

func TestMarkerStyle(t *testing.T) {
	assert.Equal(t, 6, MarkerRadius(0))
	assert.Equal(t, 6, MarkerRadius(2))
	assert.Equal(t, 9, MarkerRadius(3))
	assert.Equal(t, 20, MarkerRadius(12))

	metroCity := CityAggregate{HasMetro: true, HasTram: true}
	assert.Equal(t, MarkerColorMetro, MarkerColor(metroCity, false))
	assert.Equal(t, MarkerColorHighlight, MarkerColor(metroCity, true))
	assert.Equal(t, MarkerColorTram, MarkerColor(CityAggregate{HasTram: true}, false))
	assert.Equal(t, MarkerColorDefault, MarkerColor(CityAggregate{}, false))
}

func TestCityValidate(t *testing.T) {
	c := CityAggregate{
		Name: "Paris", Country: "France", Lat: 48.85, Lng: 2.35,
		Systems:     map[string]SystemRecord{"Metro": {}},
		SystemCount: 1,
	}
	require.NoError(t, c.Validate())

	c.SystemCount = 2
	assert.Error(t, c.Validate())

	c.SystemCount = 1
	c.Lat = 91
	assert.Error(t, c.Validate())
}

func TestCalculateFreshnessStatus(t *testing.T) {
	interval := time.Hour
	assert.Equal(t, FreshnessFresh, CalculateFreshnessStatus(10*time.Minute, interval))
	assert.Equal(t, FreshnessStale, CalculateFreshnessStatus(2*time.Hour, interval))
	assert.Equal(t, FreshnessUnavailable, CalculateFreshnessStatus(5*time.Hour, interval))
	assert.Equal(t, FreshnessFresh, CalculateFreshnessStatus(48*time.Hour, 0))
	assert.Equal(t, FreshnessUnavailable, CalculateFreshnessStatus(-1, interval))
}

func TestSnapshotSummary(t *testing.T) {
	snap := &Snapshot{
		Fingerprint: "abc",
		Tables: []TableStatus{
			{File: "metro.csv", System: "Metro", Rows: 3},
			{File: "tram.csv", System: "Tram", Error: "boom"},
		},
		Cities: []CityAggregate{{SystemCount: 2}, {SystemCount: 1}},
	}
	s := snap.Summary()
	assert.Equal(t, 2, s.CityCount)
	assert.Equal(t, 3, s.SystemTotal)
	assert.Equal(t, []string{"tram.csv"}, s.FailedTables)
}
