package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/transit-atlas/internal/dataset"
	"github.com/you/transit-atlas/internal/store"
	"github.com/you/transit-atlas/models"
	"github.com/you/transit-atlas/repository"
)

func testCities() []models.CityAggregate {
	return []models.CityAggregate{
		{
			Name: "Paris", Country: "France", Lat: 48.8566, Lng: 2.3522,
			Systems: map[string]models.SystemRecord{
				"Metro": {Stations: models.Known(302), LengthKm: models.Known(220.5), Lines: models.Known(16)},
				"Tram":  {Stations: models.Known(78), LengthKm: models.Unknown, Lines: models.Known(0)},
			},
			SystemCount: 2, TotalStations: 380, TotalLength: 220.5, TotalLines: 16,
			HasMetro: true, HasTram: true,
		},
		{
			Name: "Lyon", Country: "France", Lat: 45.764, Lng: 4.8357,
			Systems:     map[string]models.SystemRecord{"Metro": {Stations: models.Known(40), LengthKm: models.Known(32), Lines: models.Known(4)}},
			SystemCount: 1, TotalStations: 40, TotalLength: 32, TotalLines: 4,
			HasMetro: true,
		},
		{
			Name: "Tokyo", Country: "Japan", Lat: 35.6762, Lng: 139.6503,
			Systems: map[string]models.SystemRecord{
				"Metro":    {Stations: models.Known(285), LengthKm: models.Known(304), Lines: models.Known(13)},
				"Monorail": {},
			},
			SystemCount: 2, TotalStations: 285, TotalLength: 304, TotalLines: 13,
			HasMetro: true,
		},
		{Name: "Smallville", Country: "Nowhere", Systems: map[string]models.SystemRecord{}},
	}
}

func readyStore() *store.Store {
	st := store.New()
	st.Replace(&models.Snapshot{
		ID:          uuid.New(),
		LoadedAt:    time.Now().UTC(),
		Fingerprint: "0123456789abcdef",
		Tables: []models.TableStatus{
			{File: "combined.csv", Rows: 4},
			{File: "tram.csv", System: "Tram", Error: "table not found: tram.csv"},
		},
		Cities: testCities(),
	})
	return st
}

type fakeReloader struct {
	result *dataset.ReloadResult
	err    error
	calls  int
}

func (f *fakeReloader) Reload(ctx context.Context) (*dataset.ReloadResult, error) {
	f.calls++
	return f.result, f.err
}

type fakeHistory struct {
	summaries []models.SnapshotSummary
	exports   map[uuid.UUID][]models.ExportRow
}

func (f *fakeHistory) ListSnapshots(ctx context.Context, limit int) ([]models.SnapshotSummary, error) {
	if len(f.summaries) > limit {
		return f.summaries[:limit], nil
	}
	return f.summaries, nil
}

func (f *fakeHistory) GetSnapshotExport(ctx context.Context, id uuid.UUID) ([]models.ExportRow, error) {
	rows, ok := f.exports[id]
	if !ok {
		return nil, repository.ErrSnapshotNotFound
	}
	return rows, nil
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(ctx context.Context) error { return f.err }

func newTestRouter(st *store.Store) http.Handler {
	return NewRouter(RouterConfig{
		Dataset:         st,
		Reloader:        &fakeReloader{},
		RefreshInterval: time.Hour,
		CORSOrigins:     []string{"http://localhost:5173"},
	})
}

func do(t *testing.T, h http.Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, body))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestGetCities(t *testing.T) {
	router := newTestRouter(readyStore())

	rec := do(t, router, http.MethodGet, "/api/cities?country=France", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Cache-Control"), "max-age")

	resp := decode[CitiesResponse](t, rec)
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "Paris", resp.Cities[0].Name)
	assert.Equal(t, models.Stats{TotalCities: 4, TotalSystems: 5, VisibleCities: 2}, resp.Stats)
	assert.Equal(t, models.Unknown, resp.Cities[0].Systems["Tram"].LengthKm)
}

func TestGetCitiesInvalidCriteria(t *testing.T) {
	router := newTestRouter(readyStore())

	rec := do(t, router, http.MethodGet, "/api/cities?length=enormous", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid filter criteria", decode[ErrorResponse](t, rec).Error)
}

func TestNotReady(t *testing.T) {
	router := newTestRouter(store.New())

	for _, target := range []string{"/api/cities", "/api/rankings", "/api/export", "/api/compare/candidates", "/api/snapshots/current"} {
		rec := do(t, router, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, target)
	}
}

func TestGetCity(t *testing.T) {
	router := newTestRouter(readyStore())

	rec := do(t, router, http.MethodGet, "/api/cities/France/Paris", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 380, decode[models.CityAggregate](t, rec).TotalStations)

	rec = do(t, router, http.MethodGet, "/api/cities/Nowhere/Atlantis", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetMarkers(t *testing.T) {
	router := newTestRouter(readyStore())

	rec := do(t, router, http.MethodGet, "/api/cities/markers?q=tok", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"Tokyo"`)
	assert.Contains(t, rec.Body.String(), models.MarkerColorHighlight)
	assert.NotContains(t, rec.Body.String(), `"Paris"`)
}

func TestPostWithin(t *testing.T) {
	router := newTestRouter(readyStore())

	region := `{"type":"Polygon","coordinates":[[[-10,35],[20,35],[20,62],[-10,62],[-10,35]]]}`
	rec := do(t, router, http.MethodPost, "/api/cities/within?min_systems=2", strings.NewReader(region))
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[CitiesResponse](t, rec)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "Paris", resp.Cities[0].Name)

	rec = do(t, router, http.MethodPost, "/api/cities/within", strings.NewReader(`{"type":`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetCountries(t *testing.T) {
	router := newTestRouter(readyStore())

	rec := do(t, router, http.MethodGet, "/api/countries?continent=europe", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"France"}, decode[CountriesResponse](t, rec).Countries)

	rec = do(t, router, http.MethodGet, "/api/countries?continent=atlantis", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetFilters(t *testing.T) {
	router := newTestRouter(readyStore())

	rec := do(t, router, http.MethodGet, "/api/filters", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[FiltersResponse](t, rec)
	require.Len(t, resp.Continents, 6)
	assert.Equal(t, ContinentOption{Key: models.ContinentEurope, Label: "Europe"}, resp.Continents[0])
	assert.Equal(t, ContinentOption{Key: models.ContinentNorthAmerica, Label: "North america"}, resp.Continents[2])
	assert.Equal(t, dataset.SystemTypes(), resp.SystemTypes)
}

func TestGetExport(t *testing.T) {
	router := newTestRouter(readyStore())

	rec := do(t, router, http.MethodGet, "/api/export?country=France", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "transit_data.csv")
	assert.Equal(t,
		"City,Country,Systems,Length,Stations,Lines\nParis,France,2,220.5,380,16\nLyon,France,1,32,40,4\n",
		rec.Body.String())
}

func TestGetRankings(t *testing.T) {
	router := newTestRouter(readyStore())

	rec := do(t, router, http.MethodGet, "/api/rankings?metric=stations", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[RankingResponse](t, rec)
	assert.Equal(t, models.MetricStations, resp.Metric)
	require.Len(t, resp.Entries, 3)
	assert.Equal(t, models.RankingEntry{Rank: 1, Name: "Paris", Country: "France", Value: 380, Display: "380 stations"}, resp.Entries[0])

	rec = do(t, router, http.MethodGet, "/api/rankings?metric=speed", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetChart(t *testing.T) {
	router := newTestRouter(readyStore())

	rec := do(t, router, http.MethodGet, "/api/charts/length?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[ChartResponse](t, rec)
	assert.Equal(t, "Top 2 Cities by Total Length", resp.Title)
	assert.Equal(t, models.GetMetricColor(models.MetricLength), resp.Color)
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, "Tokyo", resp.Entries[0].Name)

	rec = do(t, router, http.MethodGet, "/api/charts/length?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetStats(t *testing.T) {
	router := newTestRouter(readyStore())

	rec := do(t, router, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[StatsResponse](t, rec)
	assert.Equal(t, 4, resp.Stats.VisibleCities)
	assert.Equal(t, []models.SystemShare{
		{System: "Metro", Cities: 3},
		{System: "Monorail", Cities: 1},
		{System: "Tram", Cities: 1},
	}, resp.Distribution)
}

func TestGetCompare(t *testing.T) {
	router := newTestRouter(readyStore())

	target := "/api/compare?" + url.Values{"city1": {"Paris|France"}, "city2": {"Tokyo|Japan"}}.Encode()
	rec := do(t, router, http.MethodGet, target, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	cmp := decode[models.Comparison](t, rec)
	require.Len(t, cmp.Rows, 5)
	assert.Equal(t, models.ComparisonRow{Label: "Total Length", Value1: "220.5 km", Value2: "304.0 km"}, cmp.Rows[2])
}

func TestGetCompareUnknownCity(t *testing.T) {
	router := newTestRouter(readyStore())

	target := "/api/compare?" + url.Values{"city1": {"Paris|France"}, "city2": {"Atlantis|Nowhere"}}.Encode()
	rec := do(t, router, http.MethodGet, target, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/compare?city1=Paris", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetCompareExport(t *testing.T) {
	router := newTestRouter(readyStore())

	target := "/api/compare/export?" + url.Values{"city1": {"Paris|France"}, "city2": {"Lyon|France"}}.Encode()
	rec := do(t, router, http.MethodGet, target, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "comparison.csv")
	assert.Equal(t, "Metric,Paris,Lyon\nSystems,2,1\nLength,220.5,32\nStations,380,40\nLines,16,4\n", rec.Body.String())
}

func TestGetCandidates(t *testing.T) {
	router := newTestRouter(readyStore())

	target := "/api/compare/candidates?" + url.Values{"exclude": {"Paris|France"}}.Encode()
	rec := do(t, router, http.MethodGet, target, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []models.CityID{
		{Name: "Lyon", Country: "France"},
		{Name: "Tokyo", Country: "Japan"},
	}, decode[CandidatesResponse](t, rec).Cities)
}

func TestSnapshots(t *testing.T) {
	st := readyStore()
	id := uuid.New()
	history := &fakeHistory{
		summaries: []models.SnapshotSummary{{ID: id, CityCount: 1}},
		exports: map[uuid.UUID][]models.ExportRow{
			id: {{Name: "Paris", Country: "France", Systems: 2, Length: 220.5, Stations: 380, Lines: 16}},
		},
	}
	router := NewRouter(RouterConfig{Dataset: st, History: history, Reloader: &fakeReloader{}})

	rec := do(t, router, http.MethodGet, "/api/snapshots", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[SnapshotsResponse](t, rec).Count)

	rec = do(t, router, http.MethodGet, "/api/snapshots/"+id.String()+"/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "City,Country,Systems,Length,Stations,Lines\nParis,France,2,220.5,380,16\n", rec.Body.String())

	rec = do(t, router, http.MethodGet, "/api/snapshots/"+uuid.NewString()+"/export", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/snapshots/not-a-uuid/export", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/snapshots/current", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	current := decode[ReloadResponse](t, rec)
	assert.Equal(t, st.Snapshot().ID, current.Snapshot.ID)
	assert.Equal(t, []string{"tram.csv"}, current.Snapshot.FailedTables)
}

func TestSnapshotsWithoutHistory(t *testing.T) {
	router := newTestRouter(readyStore())
	rec := do(t, router, http.MethodGet, "/api/snapshots", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPostReload(t *testing.T) {
	st := readyStore()
	reloader := &fakeReloader{result: &dataset.ReloadResult{Snapshot: st.Snapshot(), Changed: true}}
	router := NewRouter(RouterConfig{Dataset: st, Reloader: reloader})

	rec := do(t, router, http.MethodPost, "/api/reload", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[ReloadResponse](t, rec)
	assert.True(t, resp.Changed)
	assert.Equal(t, 4, resp.Snapshot.CityCount)
	assert.Equal(t, 1, reloader.calls)

	reloader.err = dataset.ErrMasterUnavailable
	rec = do(t, router, http.MethodPost, "/api/reload", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	reloader.err = errors.New("load canceled")
	rec = do(t, router, http.MethodPost, "/api/reload", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestRouter(readyStore()), http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	health := decode[models.DatasetHealth](t, rec)
	assert.Equal(t, models.StatusOK, health.Status)
	assert.Equal(t, "disabled", health.Database)
	assert.Equal(t, models.FreshnessFresh, health.Freshness)
	assert.Equal(t, 4, health.CityCount)
	assert.Equal(t, []string{"tram.csv"}, health.FailedTables)
}

func TestHealthLoading(t *testing.T) {
	rec := do(t, newTestRouter(store.New()), http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, models.StatusLoading, decode[models.DatasetHealth](t, rec).Status)
}

func TestHealthDatabaseDown(t *testing.T) {
	router := NewRouter(RouterConfig{
		Dataset:  readyStore(),
		DB:       fakePinger{err: errors.New("connection refused")},
		Reloader: &fakeReloader{},
	})

	rec := do(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	health := decode[models.DatasetHealth](t, rec)
	assert.Equal(t, models.StatusError, health.Status)
	assert.Equal(t, "disconnected", health.Database)
}

func TestLiveness(t *testing.T) {
	rec := do(t, newTestRouter(store.New()), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
