package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/af-corp/googleapi/internal/cache"
	"github.com/af-corp/googleapi/internal/config"
	"github.com/af-corp/googleapi/internal/gateway"
	"github.com/af-corp/googleapi/internal/policy"
	"github.com/af-corp/googleapi/internal/ratelimit"
	"github.com/af-corp/googleapi/internal/service"
	"github.com/af-corp/googleapi/internal/telemetry"
	"github.com/af-corp/googleapi/internal/tenant"
	"github.com/af-corp/googleapi/internal/usage"
	"github.com/af-corp/googleapi/pkg/transport"
)

var version = "dev"

func main() {
	configDir := flag.String("config", "configs", "path to configuration directory")
	flag.Parse()

	// Load configuration
	loader := config.NewLoader(*configDir, slog.Default())
	if err := loader.Load(); err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	cfg := loader.Config()

	logger := telemetry.NewLogger(os.Stdout, cfg.Telemetry.LogLevel, cfg.Telemetry.LogFormat)
	slog.SetDefault(logger)

	done := make(chan struct{})
	defer close(done)
	if err := loader.Watch(done); err != nil {
		logger.Warn("failed to start config watcher", "error", err)
	}

	// Connect to PostgreSQL
	dbPool, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(context.Background()); err != nil {
		logger.Warn("database not reachable (gateway will start but auth will fail)", "error", err)
	} else {
		logger.Info("database connected")
	}

	// Connect to Redis
	var rdb *redis.Client
	if len(cfg.Redis.Addresses) > 0 && cfg.Redis.Addresses[0] != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addresses[0],
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Warn("redis not reachable (cache and quotas disabled)", "error", err)
			rdb = nil
		} else {
			logger.Info("redis connected")
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := telemetry.NewMetrics(reg)

	evaluator := policy.NewEvaluator(func() config.PolicyConfig { return loader.Config().Policy })
	if cfg.Policy.Enabled {
		if err := evaluator.Load(); err != nil {
			logger.Error("failed to load policies", "error", err)
			os.Exit(1)
		}
	}
	loader.OnReload(func() {
		if !loader.Config().Policy.Enabled {
			return
		}
		if err := evaluator.Load(); err != nil {
			logger.Error("failed to reload policies, keeping previous", "error", err)
		}
	})

	health := transport.NewHealthTracker(
		cfg.Transport.CircuitBreaker.FailureThreshold,
		cfg.Transport.CircuitBreaker.RecoveryProbeInterval,
	)
	client := transport.NewClient(
		transport.WithHealthTracker(health),
		transport.WithMaxBodyBytes(cfg.Transport.MaxBodyBytes),
		transport.WithLogger(logger),
	)

	recorder := usage.NewWriter(dbPool, logger)
	defer recorder.Close()

	deps := service.Deps{
		Config:    loader.Config,
		APIs:      loader.APIs,
		Transport: client,
		Policy:    evaluator,
		Usage:     recorder,
		Metrics:   metrics,
		Logger:    logger,
	}
	limiter := ratelimit.NewLimiter(rdb)
	if cfg.RateLimit.Enabled {
		deps.Quota = ratelimit.NewQuota(limiter, cfg.RateLimit.Window)
	}
	if cfg.Cache.Enabled {
		deps.Cache = cache.New(rdb, cfg.Cache.KeyPrefix)
	}
	svc := service.New(deps)

	handler := gateway.NewHandler(svc, loader.Config, health, metrics, version)
	store := tenant.NewCachedStore(dbPool, rdb)

	r := gateway.NewRouter(handler, tenant.Middleware(store), ratelimit.Middleware(limiter, metrics))
	if cfg.Telemetry.MetricsPath != "" {
		r.Handle(cfg.Telemetry.MetricsPath, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		logger.Info("gateway starting", "addr", addr, "version", version)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("gateway stopped")
}
