package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"heat_sequencing/internal/archive"
	"heat_sequencing/internal/catalog"
	"heat_sequencing/internal/config"
	"heat_sequencing/internal/handlers"
	"heat_sequencing/internal/logger"
	"heat_sequencing/internal/metrics"
	"heat_sequencing/internal/reconcile"
	"heat_sequencing/internal/repository"
	"heat_sequencing/internal/repository/db"
	"heat_sequencing/internal/server"
	"heat_sequencing/internal/service"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// load configs/config.yml + HEATSEQ_* env
	cfg, err := config.Load()
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	// init logger
	log := logger.Get(cfg.Log.Level)
	defer func() { _ = log.Sync() }()

	cat, err := loadCatalog(cfg.Catalog.Path, log)
	if err != nil {
		log.Fatalw("failed to load unit catalog", "path", cfg.Catalog.Path, "err", err)
	}

	// open DB
	sqlDB, err := openDB(cfg.DB.Path)
	if err != nil {
		log.Fatalw("failed to init sqlite", "path", cfg.DB.Path, "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := archive.Open(ctx, archive.Config{
		Driver:          cfg.Archive.Driver,
		Root:            cfg.Archive.Root,
		Bucket:          cfg.Archive.Bucket,
		Region:          cfg.Archive.Region,
		Endpoint:        cfg.Archive.Endpoint,
		PathStyle:       cfg.Archive.PathStyle,
		AccessKeyID:     cfg.Archive.AccessKeyID,
		SecretAccessKey: cfg.Archive.SecretAccessKey,
	})
	if err != nil {
		log.Fatalw("failed to open upload archive", "driver", cfg.Archive.Driver, "err", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.New(reg)

	// wire dependencies
	repos := repository.NewRepository(sqlDB)
	services := service.NewService(repos, service.Deps{
		Catalog: cat,
		Options: reconcile.Options{
			RolloverThreshold:  cfg.Reconcile.RolloverThreshold,
			ProductionDayStart: cfg.Reconcile.ProductionDayStart,
		},
		Archive:         store,
		Metrics:         recorder,
		Log:             log.Component("pruner"),
		SigningKey:      signingKey(cfg.Auth.SigningKey, log),
		TokenTTL:        cfg.Auth.TokenTTL,
		RetentionMaxAge: cfg.Retention.MaxAge,
	})
	apiHandler := handlers.NewHandler(services, recorder.Handler(), log)

	// start retention pruner (via composed service)
	go services.Pruner.Run(ctx, cfg.Retention.Tick)

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, cfg.Port, apiHandler, log)
	log.Infow("server started",
		"port", cfg.Port,
		"units", cat.Len(),
		"archive", store.Driver(),
		"retention", cfg.Retention.MaxAge.String(),
	)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

// loadCatalog reads the HCL unit catalog, or falls back to the built-in plant table.
func loadCatalog(path string, log *logger.Logger) (catalog.Catalog, error) {
	if path == "" {
		log.Infow("catalog.path not set; using built-in unit table")
		return catalog.Default(), nil
	}
	return catalog.LoadHCL(path)
}

func openDB(path string) (*sql.DB, error) {
	return db.InitDB(path)
}

// signingKey returns the configured JWT key. Without one, tokens are signed with a
// random per-process key and do not survive a restart.
func signingKey(configured string, log *logger.Logger) string {
	if configured != "" {
		return configured
	}
	log.Warnw("auth.signing_key not set; generated an ephemeral key")
	return uuid.NewString()
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if err := srv.Run(port, handler.InitRoutes()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
