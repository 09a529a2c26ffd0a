package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/aether-storefront/api/routes"
	"github.com/angelmondragon/aether-storefront/internal/catalog"
	"github.com/angelmondragon/aether-storefront/internal/events"
	"github.com/angelmondragon/aether-storefront/internal/storefront"
	"github.com/angelmondragon/aether-storefront/pkg/config"
	"github.com/angelmondragon/aether-storefront/pkg/env"
	"github.com/angelmondragon/aether-storefront/pkg/logger"
	"github.com/angelmondragon/aether-storefront/pkg/metrics"
)

const serviceName = "aether-api"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if !env.Bool("AETHER_SKIP_DOTENV", false) {
		if err := godotenv.Load(); err != nil {
			logg.Warn(context.Background(), ".env file not found, relying on environment")
		}
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := openStorage(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap storage", err)
		os.Exit(1)
	}
	defer backend.close(ctx, logg)

	eventSink, err := openSink(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap event sink", err)
		os.Exit(1)
	}
	defer eventSink.close(ctx, logg)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	bus := events.NewBus()
	group, groupCtx := errgroup.WithContext(ctx)

	pingers := backend.pingers()
	if eventSink.publisher != nil {
		forwarder, err := events.NewForwarder(eventSink.publisher, logg, cfg.Events.PublishTimeout, 0)
		if err != nil {
			logg.Error(ctx, "failed to create event forwarder", err)
			os.Exit(1)
		}
		bus.Subscribe(forwarder.Handle)
		group.Go(func() error {
			forwarder.Run(groupCtx)
			return nil
		})
		if eventSink.pinger != nil {
			pingers["events"] = eventSink.pinger
		}
	}

	fetcher, err := catalog.NewHTTPFetcher(cfg.Catalog.FeedURL, cfg.Catalog.FetchTimeout, cfg.Catalog.FetchRetries)
	if err != nil {
		logg.Error(ctx, "failed to create catalog fetcher", err)
		os.Exit(1)
	}
	catalogStore, err := catalog.NewStore(catalog.StoreConfig{
		Fetcher: fetcher,
		Events:  bus,
		Metrics: metrics.NewCatalogMetrics(reg),
		Logger:  logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create catalog store", err)
		os.Exit(1)
	}

	svc, err := storefront.New(storefront.Params{
		Store:   backend.store,
		Catalog: catalogStore,
		Bus:     bus,
		Metrics: metrics.NewCheckoutMetrics(reg),
		Logger:  logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to wire storefront services", err)
		os.Exit(1)
	}

	if cfg.Catalog.SyncOnBoot {
		// an empty catalog keeps /health/ready failing until the next successful sync
		if _, err := catalogStore.Sync(ctx); err != nil {
			logg.Error(ctx, "initial catalog sync failed", err)
		}
	}
	group.Go(func() error {
		catalogStore.Run(groupCtx, cfg.Catalog.SyncInterval)
		return nil
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	runCtx := logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"addr":    addr,
		"storage": cfg.Storage.Driver,
		"sink":    cfg.Events.Sink,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, svc, metrics.NewHTTPMetrics(reg), reg, pingers),
		ReadHeaderTimeout: 10 * time.Second,
	}

	group.Go(func() error {
		logg.Info(runCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		logg.Info(runCtx, "shutting down api server")
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logg.Error(runCtx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(runCtx, "api server stopped")
}
