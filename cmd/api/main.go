package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/MrJamesThe3rd/payrecon/internal/config"
	"github.com/MrJamesThe3rd/payrecon/internal/database"
	"github.com/MrJamesThe3rd/payrecon/internal/deadletter"
	deadletterStore "github.com/MrJamesThe3rd/payrecon/internal/deadletter/store"
	payreconHttp "github.com/MrJamesThe3rd/payrecon/internal/http"
	adminHandler "github.com/MrJamesThe3rd/payrecon/internal/http/admin"
	"github.com/MrJamesThe3rd/payrecon/internal/http/auth"
	recordsHandler "github.com/MrJamesThe3rd/payrecon/internal/http/records"
	webhookHandler "github.com/MrJamesThe3rd/payrecon/internal/http/webhook"
	"github.com/MrJamesThe3rd/payrecon/internal/intent"
	intentStore "github.com/MrJamesThe3rd/payrecon/internal/intent/store"
	"github.com/MrJamesThe3rd/payrecon/internal/matching"
	matchingStore "github.com/MrJamesThe3rd/payrecon/internal/matching/store"
	"github.com/MrJamesThe3rd/payrecon/internal/metrics"
	"github.com/MrJamesThe3rd/payrecon/internal/payable"
	payableStore "github.com/MrJamesThe3rd/payrecon/internal/payable/store"
	"github.com/MrJamesThe3rd/payrecon/internal/provider"
	"github.com/MrJamesThe3rd/payrecon/internal/provider/registry"
	"github.com/MrJamesThe3rd/payrecon/internal/reconcile"
)

func main() {
	if err := run(); err != nil {
		slog.Error("api exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(cfg.MigrationURL()); err != nil {
		return fmt.Errorf("migrating: %w", err)
	}

	db, err := database.New(ctx, cfg.ConnectionString(), cfg.Pool())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.MustNewMetrics(reg)

	providers := provider.NewService(registry.FromConfig(cfg))

	var (
		records  = payable.NewService(payableStore.New(db))
		locator  = matching.NewService(matchingStore.New(db), providers)
		letters  = deadletter.NewService(deadletterStore.New(db), deadletter.Policy{BaseDelay: cfg.Sweeper.BaseDelay, MaxDelay: cfg.Sweeper.MaxDelay})
		outbox   = intentStore.New(db)
		reconSvc = reconcile.NewService(providers, locator, records, letters,
			reconcile.WithMetrics(m),
			reconcile.WithDedupCacheSize(cfg.Reconcile.DedupCacheSize),
		)
		sweeper = deadletter.NewSweeper(letters, reconSvc, cfg.Sweeper.Interval, cfg.Sweeper.BatchSize)
		relay   = intent.NewRelay(outbox, intent.NewRedisPublisher(rdb, cfg.Redis.IntentKey), cfg.Sweeper.RelayInterval, 0)
	)

	router := payreconHttp.New(
		webhookHandler.NewHandler(providers, reconSvc, cfg.Server.MaxBodyBytes),
		recordsHandler.NewHandler(records),
		adminHandler.NewHandler(reconSvc, records, letters, sweeper),
		auth.NewAuthenticator(cfg.Admin.JWTSecret),
		payreconHttp.Options{
			AllowedOrigins: cfg.Admin.AllowedOrigins,
			Metrics:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		},
	)

	if cfg.Admin.JWTSecret == "" {
		slog.Warn("ADMIN_JWT_SECRET is empty, admin API will reject every request")
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting server", "addr", server.Addr, "providers", providers.Providers())

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving http: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		slog.Info("shutting down server")

		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error { return sweeper.Run(gctx) })
	g.Go(func() error { return relay.Run(gctx) })

	return g.Wait()
}
