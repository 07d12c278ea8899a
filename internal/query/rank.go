package query

import (
	"cmp"
	"slices"

	"github.com/you/transit-atlas/models"
)

// RankingLimit is the length of the ranking list
const RankingLimit = 20

// ChartLimit is the default length of the dashboard bar charts
const ChartLimit = 10

// sortByMetric returns a copy of cities stably sorted by m, descending
func sortByMetric(cities []models.CityAggregate, m models.Metric) []models.CityAggregate {
	sorted := slices.Clone(cities)
	slices.SortStableFunc(sorted, func(a, b models.CityAggregate) int {
		return cmp.Compare(m.Value(b), m.Value(a))
	})
	return sorted
}

// Rank sorts by the metric (ties keep input order), keeps the top RankingLimit,
// and only then drops cities whose metric is not positive. It can return fewer
// than RankingLimit cities but never more.
func Rank(cities []models.CityAggregate, m models.Metric) []models.CityAggregate {
	sorted := sortByMetric(cities, m)
	if len(sorted) > RankingLimit {
		sorted = sorted[:RankingLimit]
	}
	return slices.DeleteFunc(sorted, func(c models.CityAggregate) bool {
		return !(m.Value(c) > 0)
	})
}

// Top drops cities whose metric is not positive, then sorts and keeps the first n.
// This is the dashboard chart ordering; note it filters before truncating.
func Top(cities []models.CityAggregate, m models.Metric, n int) []models.CityAggregate {
	positive := slices.DeleteFunc(slices.Clone(cities), func(c models.CityAggregate) bool {
		return !(m.Value(c) > 0)
	})
	sorted := sortByMetric(positive, m)
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// RankingEntries numbers ranked cities and renders their metric value
func RankingEntries(ranked []models.CityAggregate, m models.Metric) []models.RankingEntry {
	entries := make([]models.RankingEntry, len(ranked))
	for i, c := range ranked {
		entries[i] = models.RankingEntry{
			Rank:    i + 1,
			Name:    c.Name,
			Country: c.Country,
			Value:   m.Value(c),
			Display: m.Display(c),
		}
	}
	return entries
}

// GroupCounts counts, per system type, the cities that have it.
// System types with no cities are absent.
func GroupCounts(cities []models.CityAggregate) map[string]int {
	counts := make(map[string]int)
	for _, c := range cities {
		for systemType := range c.Systems {
			counts[systemType]++
		}
	}
	return counts
}

// Distribution returns GroupCounts as a list, most common system first
func Distribution(cities []models.CityAggregate) []models.SystemShare {
	counts := GroupCounts(cities)
	shares := make([]models.SystemShare, 0, len(counts))
	for system, n := range counts {
		shares = append(shares, models.SystemShare{System: system, Cities: n})
	}
	slices.SortFunc(shares, func(a, b models.SystemShare) int {
		if c := cmp.Compare(b.Cities, a.Cities); c != 0 {
			return c
		}
		return cmp.Compare(a.System, b.System)
	})
	return shares
}

// Summarize computes the dashboard counters for the full and visible collections
func Summarize(all, visible []models.CityAggregate) models.Stats {
	stats := models.Stats{
		TotalCities:   len(all),
		VisibleCities: len(visible),
	}
	for _, c := range all {
		stats.TotalSystems += c.SystemCount
	}
	return stats
}

// Countries lists the distinct countries of the collection in sorted order,
// restricted to a continent when one is given.
func Countries(cities []models.CityAggregate, continent models.Continent) []string {
	seen := make(map[string]bool)
	var countries []string
	for _, c := range cities {
		if seen[c.Country] {
			continue
		}
		if continent != "" && !continent.Contains(c.Country) {
			continue
		}
		seen[c.Country] = true
		countries = append(countries, c.Country)
	}
	slices.Sort(countries)
	return countries
}
