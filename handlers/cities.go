package handlers

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/you/transit-atlas/internal/query"
	"github.com/you/transit-atlas/models"
)

// maxRegionBody caps the GeoJSON region accepted by POST /api/cities/within
const maxRegionBody = 1 << 20

// CityHandler serves the filtered city views and the flat export
type CityHandler struct {
	src CitySource
}

// NewCityHandler creates a new handler over the published collection
func NewCityHandler(src CitySource) *CityHandler {
	return &CityHandler{src: src}
}

// CitiesResponse is the JSON response structure for GET /api/cities
type CitiesResponse struct {
	Cities []models.CityAggregate `json:"cities"`
	Count  int                    `json:"count"`
	Stats  models.Stats           `json:"stats"`
}

// CountriesResponse is the JSON response structure for GET /api/countries
type CountriesResponse struct {
	Countries []string `json:"countries"`
	Continent string   `json:"continent,omitempty"`
}

// filtered decodes the query criteria and applies them, writing the error
// response itself when the criteria are invalid
func (h *CityHandler) filtered(w http.ResponseWriter, r *http.Request) (all, visible []models.CityAggregate, criteria models.Criteria, ok bool) {
	criteria, err := query.ParseCriteria(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid filter criteria", map[string]interface{}{
			"reason": err.Error(),
		})
		return nil, nil, criteria, false
	}

	all, ok = loadCities(w, h.src)
	if !ok {
		return nil, nil, criteria, false
	}
	return all, query.Filter(all, criteria), criteria, true
}

// GetCities handles GET /api/cities
// Returns the cities matching the filter criteria in dataset order
func (h *CityHandler) GetCities(w http.ResponseWriter, r *http.Request) {
	all, visible, _, ok := h.filtered(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, readCacheControl, CitiesResponse{
		Cities: visible,
		Count:  len(visible),
		Stats:  query.Summarize(all, visible),
	})
}

// GetMarkers handles GET /api/cities/markers
// Returns the filtered cities as a GeoJSON FeatureCollection; a search query
// switches the markers to the highlight color
func (h *CityHandler) GetMarkers(w http.ResponseWriter, r *http.Request) {
	_, visible, criteria, ok := h.filtered(w, r)
	if !ok {
		return
	}

	body, err := query.Markers(visible, criteria.SearchText != "")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render markers", map[string]interface{}{
			"internal": err.Error(),
		})
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	w.Header().Set("Cache-Control", readCacheControl)
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, body)
}

// PostWithin handles POST /api/cities/within
// The body is a GeoJSON region; query criteria apply as in GET /api/cities
func (h *CityHandler) PostWithin(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRegionBody))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "Region body too large", nil)
		return
	}

	region, err := query.ParseRegion(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid GeoJSON region", map[string]interface{}{
			"reason": err.Error(),
		})
		return
	}

	all, visible, _, ok := h.filtered(w, r)
	if !ok {
		return
	}
	inside := query.Within(visible, region)

	writeJSON(w, http.StatusOK, "", CitiesResponse{
		Cities: inside,
		Count:  len(inside),
		Stats:  query.Summarize(all, inside),
	})
}

// GetCity handles GET /api/cities/{country}/{name}
// Returns the full record of one city (the info card)
func (h *CityHandler) GetCity(w http.ResponseWriter, r *http.Request) {
	id := models.CityID{
		Name:    pathParam(r, "name"),
		Country: pathParam(r, "country"),
	}

	cities, ok := loadCities(w, h.src)
	if !ok {
		return
	}

	city, err := query.Lookup(cities, id)
	if errors.Is(err, query.ErrCityNotFound) {
		writeError(w, http.StatusNotFound, "City not found", map[string]interface{}{
			"name":    id.Name,
			"country": id.Country,
		})
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to retrieve city", map[string]interface{}{
			"internal": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, readCacheControl, city)
}

// GetCountries handles GET /api/countries
// Returns the sorted country list, restricted by the continent query parameter
func (h *CityHandler) GetCountries(w http.ResponseWriter, r *http.Request) {
	continent, err := models.ParseContinent(r.URL.Query().Get("continent"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid continent", map[string]interface{}{
			"reason": err.Error(),
		})
		return
	}

	cities, ok := loadCities(w, h.src)
	if !ok {
		return
	}

	countries := query.Countries(cities, continent)
	if countries == nil {
		countries = []string{}
	}
	writeJSON(w, http.StatusOK, readCacheControl, CountriesResponse{
		Countries: countries,
		Continent: string(continent),
	})
}

// GetExport handles GET /api/export
// Downloads the filtered cities as transit_data.csv
func (h *CityHandler) GetExport(w http.ResponseWriter, r *http.Request) {
	_, visible, _, ok := h.filtered(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := query.WriteExport(&buf, visible); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build export", map[string]interface{}{
			"internal": err.Error(),
		})
		return
	}
	writeCSV(w, "transit_data.csv", buf.Bytes())
}

// pathParam returns an unescaped route parameter; chi hands back the escaped
// form when the request path needed RawPath (e.g. an encoded slash)
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}
