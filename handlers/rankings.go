package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/you/transit-atlas/internal/query"
	"github.com/you/transit-atlas/models"
)

// maxChartLimit bounds the limit query parameter of the chart endpoint
const maxChartLimit = 100

// RankingHandler serves rankings, dashboard charts and summary statistics
type RankingHandler struct {
	cities *CityHandler
}

// NewRankingHandler creates a new handler over the published collection
func NewRankingHandler(src CitySource) *RankingHandler {
	return &RankingHandler{cities: NewCityHandler(src)}
}

// RankingResponse is the JSON response structure for GET /api/rankings
type RankingResponse struct {
	Metric  models.Metric         `json:"metric"`
	Entries []models.RankingEntry `json:"entries"`
}

// ChartResponse is the JSON response structure for GET /api/charts/{metric}
type ChartResponse struct {
	Metric  models.Metric         `json:"metric"`
	Title   string                `json:"title"`
	Color   string                `json:"color"`
	Entries []models.RankingEntry `json:"entries"`
}

// StatsResponse is the JSON response structure for GET /api/stats
type StatsResponse struct {
	Stats        models.Stats         `json:"stats"`
	Distribution []models.SystemShare `json:"distribution"`
}

func parseMetric(w http.ResponseWriter, s string) (models.Metric, bool) {
	m, err := models.ParseMetric(s)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid metric", map[string]interface{}{
			"metric":  s,
			"allowed": models.AllMetrics(),
		})
		return "", false
	}
	return m, true
}

// GetRankings handles GET /api/rankings?metric=length
// Returns at most 20 cities, ranked before zero values are dropped
func (h *RankingHandler) GetRankings(w http.ResponseWriter, r *http.Request) {
	m, ok := parseMetric(w, r.URL.Query().Get("metric"))
	if !ok {
		return
	}

	_, visible, _, ok := h.cities.filtered(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, readCacheControl, RankingResponse{
		Metric:  m,
		Entries: query.RankingEntries(query.Rank(visible, m), m),
	})
}

// GetChart handles GET /api/charts/{metric}?limit=10
// Returns the dashboard bar chart data: positive values only, top N
func (h *RankingHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	m, ok := parseMetric(w, chi.URLParam(r, "metric"))
	if !ok {
		return
	}

	limit := query.ChartLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxChartLimit {
			writeError(w, http.StatusBadRequest, "Invalid limit", map[string]interface{}{
				"limit": s,
				"max":   maxChartLimit,
			})
			return
		}
		limit = n
	}

	_, visible, _, ok := h.cities.filtered(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, readCacheControl, ChartResponse{
		Metric:  m,
		Title:   m.Title(limit),
		Color:   models.GetMetricColor(m),
		Entries: query.RankingEntries(query.Top(visible, m, limit), m),
	})
}

// GetStats handles GET /api/stats
// Returns the header counters and the per-system city distribution of the
// filtered view
func (h *RankingHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	all, visible, _, ok := h.cities.filtered(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, readCacheControl, StatsResponse{
		Stats:        query.Summarize(all, visible),
		Distribution: query.Distribution(visible),
	})
}
