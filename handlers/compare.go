package handlers

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/you/transit-atlas/internal/query"
	"github.com/you/transit-atlas/models"
)

// CompareHandler serves the two-city comparison
type CompareHandler struct {
	src CitySource
}

// NewCompareHandler creates a new handler over the published collection
func NewCompareHandler(src CitySource) *CompareHandler {
	return &CompareHandler{src: src}
}

// CandidatesResponse is the JSON response structure for GET /api/compare/candidates
type CandidatesResponse struct {
	Cities []models.CityID `json:"cities"`
}

// compare resolves the city1 and city2 query parameters ("Name|Country")
func (h *CompareHandler) compare(w http.ResponseWriter, r *http.Request) (*models.Comparison, bool) {
	q := r.URL.Query()

	ids := make([]models.CityID, 2)
	for i, key := range []string{"city1", "city2"} {
		id, err := query.ParseCityID(q.Get(key))
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid city selection", map[string]interface{}{
				"param":  key,
				"reason": err.Error(),
			})
			return nil, false
		}
		ids[i] = id
	}

	cities, ok := loadCities(w, h.src)
	if !ok {
		return nil, false
	}

	cmp, err := query.Compare(cities, ids[0], ids[1])
	if errors.Is(err, query.ErrCityNotFound) {
		writeError(w, http.StatusNotFound, "City not found", map[string]interface{}{
			"city1":  ids[0].String(),
			"city2":  ids[1].String(),
			"reason": err.Error(),
		})
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compare cities", map[string]interface{}{
			"internal": err.Error(),
		})
		return nil, false
	}
	return cmp, true
}

// GetCompare handles GET /api/compare?city1=Paris|France&city2=Lyon|France
func (h *CompareHandler) GetCompare(w http.ResponseWriter, r *http.Request) {
	cmp, ok := h.compare(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, readCacheControl, cmp)
}

// GetCompareExport handles GET /api/compare/export
// Downloads the comparison as comparison.csv
func (h *CompareHandler) GetCompareExport(w http.ResponseWriter, r *http.Request) {
	cmp, ok := h.compare(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := query.WriteComparisonExport(&buf, cmp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build export", map[string]interface{}{
			"internal": err.Error(),
		})
		return
	}
	writeCSV(w, "comparison.csv", buf.Bytes())
}

// GetCandidates handles GET /api/compare/candidates?exclude=Paris|France
// Returns the cities selectable for comparison, sorted by name
func (h *CompareHandler) GetCandidates(w http.ResponseWriter, r *http.Request) {
	var exclude *models.CityID
	if s := r.URL.Query().Get("exclude"); s != "" {
		id, err := query.ParseCityID(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid city selection", map[string]interface{}{
				"param":  "exclude",
				"reason": err.Error(),
			})
			return
		}
		exclude = &id
	}

	cities, ok := loadCities(w, h.src)
	if !ok {
		return
	}

	candidates := query.CompareCandidates(cities, exclude)
	if candidates == nil {
		candidates = []models.CityID{}
	}
	writeJSON(w, http.StatusOK, readCacheControl, CandidatesResponse{Cities: candidates})
}
