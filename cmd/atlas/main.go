package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/you/transit-atlas/handlers"
	"github.com/you/transit-atlas/internal/config"
	"github.com/you/transit-atlas/internal/dataset"
	"github.com/you/transit-atlas/internal/metrics"
	"github.com/you/transit-atlas/internal/source"
	"github.com/you/transit-atlas/internal/store"
	"github.com/you/transit-atlas/repository"
)

func main() {
	// Load base .env first, then .env.local (which overrides for local development)
	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")

	log.Println("Starting Transit Atlas...")

	cfg := config.Load()
	log.Printf("Config loaded: data_dir=%s, base_url=%s, refresh=%v", cfg.DataDir, cfg.DataBaseURL, cfg.RefreshInterval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ═══════════════════════════════════════════════════════
	// PHASE 1: Metrics and snapshot history
	// ═══════════════════════════════════════════════════════
	recorder, err := metrics.NewRecorder()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	repo, err := openRepository(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize snapshot history: %v", err)
	}
	var history dataset.History
	var historyReader handlers.SnapshotHistory
	var pinger handlers.Pinger
	if repo != nil {
		defer repo.Close()
		history, historyReader, pinger = repo, repo, repo
	} else {
		log.Println("No database configured, snapshot history disabled")
	}

	// ═══════════════════════════════════════════════════════
	// PHASE 2: Initial dataset load
	// ═══════════════════════════════════════════════════════
	src, err := source.New(cfg.DataDir, cfg.DataBaseURL, cfg.FetchTimeout, cfg.FetchRetries)
	if err != nil {
		log.Fatalf("Invalid dataset source: %v", err)
	}

	st := store.New()
	refresher := dataset.NewRefresher(dataset.NewLoader(src, recorder), st, history, recorder, cfg.RefreshInterval)

	go func() {
		if _, err := refresher.Reload(ctx); err != nil {
			log.Printf("Warning: initial load failed: %v", err)
		}
		refresher.Run(ctx)
	}()

	// ═══════════════════════════════════════════════════════
	// PHASE 3: HTTP server
	// ═══════════════════════════════════════════════════════
	router := handlers.NewRouter(handlers.RouterConfig{
		Dataset:         st,
		History:         historyReader,
		DB:              pinger,
		Reloader:        refresher,
		RefreshInterval: refresher.Interval(),
		CORSOrigins:     cfg.CORSOrigins,
		Metrics:         recorder.Handler(),
		StaticDir:       cfg.StaticDir,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("API server starting on :%s", cfg.Port)
		log.Println("City endpoints:")
		log.Println("  GET  /api/cities, /api/cities/markers, /api/cities/{country}/{name}")
		log.Println("  POST /api/cities/within")
		log.Println("  GET  /api/countries, /api/export")
		log.Println("Dashboard endpoints:")
		log.Println("  GET  /api/rankings, /api/charts/{metric}, /api/stats")
		log.Println("  GET  /api/compare, /api/compare/export, /api/compare/candidates")
		log.Println("Dataset endpoints:")
		log.Println("  GET  /api/snapshots, /api/snapshots/current, /api/snapshots/{id}/export")
		log.Println("  POST /api/reload")
		log.Println("Health:")
		log.Println("  GET  /health, /healthz, /metrics")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// ═══════════════════════════════════════════════════════
	// PHASE 4: Graceful Shutdown
	// ═══════════════════════════════════════════════════════
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Println("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Warning: server shutdown: %v", err)
	}
	log.Println("Goodbye!")
}

// openRepository connects the snapshot history. Postgres wins when both
// databases are configured; nil means persistence is disabled.
func openRepository(ctx context.Context, cfg *config.Config) (repository.SnapshotRepository, error) {
	switch {
	case cfg.DatabaseURL != "":
		return repository.NewPostgresSnapshotRepository(ctx, cfg.DatabaseURL, cfg.SnapshotRetention)
	case cfg.SQLitePath != "":
		return repository.NewSQLiteSnapshotRepository(ctx, cfg.SQLitePath, cfg.SnapshotRetention)
	}
	return nil, nil
}
