package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sami-patel/geoworkflow/internal/dispatcher"
	"github.com/sami-patel/geoworkflow/internal/factory"
	"github.com/sami-patel/geoworkflow/internal/jobs"
	"github.com/sami-patel/geoworkflow/internal/platform/config"
	"github.com/sami-patel/geoworkflow/internal/platform/live"
	"github.com/sami-patel/geoworkflow/internal/platform/logging"
	"github.com/sami-patel/geoworkflow/internal/platform/metrics"
	"github.com/sami-patel/geoworkflow/internal/reconciler"
	"github.com/sami-patel/geoworkflow/internal/registry"
	"github.com/sami-patel/geoworkflow/internal/runner"
	"github.com/sami-patel/geoworkflow/internal/store"
	"github.com/sami-patel/geoworkflow/pkg/httpapi"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(logging.Level(cfg.Logging.Level), cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := openDB(cfg.Database)
	if err != nil {
		log.Errorw("open database", "error", err)
		os.Exit(1)
	}

	st := store.New(db)
	ctx := context.Background()
	if err := st.Migrate(ctx); err != nil {
		log.Errorw("migrate schema", "error", err)
		os.Exit(1)
	}
	log.Infow("schema migrated", "driver", cfg.Database.Driver)

	reportGen := jobs.NewReportGenerator(st)
	jobRegistry := registry.New(map[string]registry.Job{
		jobs.TaskTypePolygonArea:      jobs.PolygonArea{},
		jobs.TaskTypeCountryLookup:    jobs.CountryLookup{},
		jobs.TaskTypeNotification:     jobs.Notification{},
		jobs.TaskTypeReportGeneration: reportGen,
	})

	metrics.Register(prometheus.DefaultRegisterer)

	hub := live.NewHub(log)
	go hub.Run()

	recon := reconciler.New(st, hub, log, true)
	taskRunner := runner.New(st, jobRegistry, recon, log)
	disp := dispatcher.New(st, taskRunner, log, cfg.Dispatcher.PollInterval)

	wfFactory := factory.New(st, jobRegistry)
	loader := factory.NewLoader(cfg.Definitions.Dir)

	server := httpapi.New(st, wfFactory, loader, hub, log)

	dispatchCtx, cancelDispatch := context.WithCancel(context.Background())
	go disp.Run(dispatchCtx)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Infow("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorw("server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Infow("shutdown signal received")

	cancelDispatch()
	hub.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Errorw("http server shutdown error", "error", err)
	}

	log.Infow("shutdown complete")
}

func openDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	switch cfg.Driver {
	case "postgres":
		return gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{})
	case "sqlite", "":
		return gorm.Open(sqlite.Open(cfg.DSN), &gorm.Config{})
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
