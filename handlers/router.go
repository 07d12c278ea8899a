package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/you/transit-atlas/internal/dataset"
)

// Dataset is the published snapshot as seen by the handlers
type Dataset interface {
	CitySource
	SnapshotSource
}

// RouterConfig collects the dependencies of the HTTP API
type RouterConfig struct {
	Dataset         Dataset
	History         SnapshotHistory // optional
	DB              Pinger          // optional
	Reloader        Reloader
	RefreshInterval time.Duration
	CORSOrigins     []string
	Metrics         http.Handler // optional, mounted at /metrics
	StaticDir       string       // optional front-end build
}

// NewRouter builds the chi router with every API route
func NewRouter(cfg RouterConfig) http.Handler {
	cityHandler := NewCityHandler(cfg.Dataset)
	rankingHandler := NewRankingHandler(cfg.Dataset)
	compareHandler := NewCompareHandler(cfg.Dataset)
	snapshotHandler := NewSnapshotHandler(cfg.Dataset, cfg.History, cfg.Reloader)
	filterHandler := NewFilterHandler(dataset.SystemTypes())
	healthHandler := NewHealthHandler(cfg.Dataset, cfg.DB, cfg.RefreshInterval)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	// Health
	r.Get("/health", healthHandler.GetHealth)
	r.Get("/healthz", healthHandler.GetLiveness)

	// Cities
	r.Get("/api/cities", cityHandler.GetCities)
	r.Get("/api/cities/markers", cityHandler.GetMarkers)
	r.Post("/api/cities/within", cityHandler.PostWithin)
	r.Get("/api/cities/{country}/{name}", cityHandler.GetCity)
	r.Get("/api/countries", cityHandler.GetCountries)
	r.Get("/api/filters", filterHandler.GetFilters)
	r.Get("/api/export", cityHandler.GetExport)

	// Rankings and dashboard
	r.Get("/api/rankings", rankingHandler.GetRankings)
	r.Get("/api/charts/{metric}", rankingHandler.GetChart)
	r.Get("/api/stats", rankingHandler.GetStats)

	// Comparison
	r.Get("/api/compare", compareHandler.GetCompare)
	r.Get("/api/compare/export", compareHandler.GetCompareExport)
	r.Get("/api/compare/candidates", compareHandler.GetCandidates)

	// Snapshots
	r.Get("/api/snapshots", snapshotHandler.GetSnapshots)
	r.Get("/api/snapshots/current", snapshotHandler.GetCurrent)
	r.Get("/api/snapshots/{id}/export", snapshotHandler.GetSnapshotExport)
	r.Post("/api/reload", snapshotHandler.PostReload)

	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}

	// Static file serving (if configured)
	if cfg.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))
	}

	return r
}
