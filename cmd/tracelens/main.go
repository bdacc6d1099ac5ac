package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	corecfg "github.com/aevon-lab/tracelens/internal/core/config"
	"github.com/aevon-lab/tracelens/internal/core/storage/memory"
	"github.com/aevon-lab/tracelens/internal/core/storage/pool"
	"github.com/aevon-lab/tracelens/internal/metrics"
	"github.com/aevon-lab/tracelens/internal/schema"
	"github.com/aevon-lab/tracelens/internal/server"
	"github.com/aevon-lab/tracelens/internal/trace"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	configPath := flag.String("config", "tracelens.yaml", "Path to configuration file")
	loadPath := flag.String("load", "", "NDJSON file of documents to append to the default store before serving")
	loadOnly := flag.Bool("load-only", false, "Exit after -load instead of serving")
	flag.Parse()

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded config", "config", cfg)

	// 2. Initialize Store Pool
	opener, err := pool.NewOpener(pool.Settings{
		Kind:           cfg.Store.Kind,
		DSN:            cfg.Store.DSN,
		Path:           cfg.Store.Path,
		Collection:     cfg.Store.Collection,
		MaxOpenConns:   cfg.Store.MaxOpenConns,
		MaxIdleConns:   cfg.Store.MaxIdleConns,
		AutoMigrate:    cfg.Store.AutoMigrate,
		ConnectTimeout: cfg.Store.ConnectTimeout,
	}, memory.New())
	if err != nil {
		slog.Error("Failed to configure store", "error", err)
		os.Exit(1)
	}
	stores, err := pool.New(cfg.Store.PoolSize, opener)
	if err != nil {
		slog.Error("Failed to initialize store pool", "error", err)
		os.Exit(1)
	}
	defer stores.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2.1. Optional document load into the default store
	if *loadPath != "" {
		store, release, err := stores.Get(ctx, pool.Target{})
		if err != nil {
			slog.Error("Failed to open default store", "error", err)
			os.Exit(1)
		}
		n, err := loadDocuments(ctx, store, *loadPath, cfg.Store.Collection)
		release()
		if err != nil {
			slog.Error("Failed to load documents", "path", *loadPath, "error", err)
			os.Exit(1)
		}
		slog.Info("Loaded documents", "path", *loadPath, "collection", cfg.Store.Collection, "documents", n)
		if *loadOnly {
			return
		}
	}

	// 3. Initialize Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := metrics.Register(registry); err != nil {
		slog.Error("Failed to register metrics", "error", err)
		os.Exit(1)
	}

	// 4. Initialize Trace Service
	traceSvc := trace.NewService(
		stores,
		schema.NewIntrospector(cfg.Store.SampleSize),
		cfg.PresetLoading.Repository,
		trace.Options{
			Collection:    cfg.Store.Collection,
			DefaultFCoeff: cfg.Trace.DefaultFCoeff,
		},
	)
	slog.Info("Trace service initialized",
		"store_kind", cfg.Store.Kind,
		"collection", cfg.Store.Collection,
		"presets", cfg.PresetLoading.Repository.Len(),
	)

	// 5. Initialize Server
	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), stores, registry, cfg.Server.Mode, cfg.Server.MaxBodySizeMB)
	trace.NewHandler(traceSvc, cfg.Trace.CookieMaxAge).RegisterRoutes(srv.Engine)

	// Signal handler → triggers the shutdown sequence below.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	// HTTP server blocks until ctx is cancelled.
	if err := srv.Run(ctx); err != nil {
		slog.Error("Server stopped with error", "error", err)
	}

	slog.Info("Shutdown complete")
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
