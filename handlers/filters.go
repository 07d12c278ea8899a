package handlers

import (
	"net/http"

	"github.com/you/transit-atlas/models"
)

// ContinentOption is one entry of the continent selector
type ContinentOption struct {
	Key   models.Continent `json:"key"`
	Label string           `json:"label"`
}

// FiltersResponse is the JSON response structure for GET /api/filters
type FiltersResponse struct {
	Continents  []ContinentOption `json:"continents"`
	SystemTypes []string          `json:"systemTypes"`
}

// FilterHandler serves the static choices of the filter panel
type FilterHandler struct {
	systemTypes []string
}

// NewFilterHandler creates a new FilterHandler
func NewFilterHandler(systemTypes []string) *FilterHandler {
	return &FilterHandler{systemTypes: systemTypes}
}

// GetFilters handles GET /api/filters
// Returns the continent and system type options in selector order
func (h *FilterHandler) GetFilters(w http.ResponseWriter, r *http.Request) {
	continents := models.AllContinents()
	options := make([]ContinentOption, len(continents))
	for i, c := range continents {
		options[i] = ContinentOption{Key: c, Label: c.Label()}
	}

	writeJSON(w, http.StatusOK, readCacheControl, FiltersResponse{
		Continents:  options,
		SystemTypes: h.systemTypes,
	})
}
