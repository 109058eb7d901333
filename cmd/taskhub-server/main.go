package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/taskhub/pkg/api"
	"github.com/platinummonkey/taskhub/pkg/audit"
	"github.com/platinummonkey/taskhub/pkg/auth"
	"github.com/platinummonkey/taskhub/pkg/authz"
	"github.com/platinummonkey/taskhub/pkg/config"
	"github.com/platinummonkey/taskhub/pkg/middleware"
	"github.com/platinummonkey/taskhub/pkg/observability"
	"github.com/platinummonkey/taskhub/pkg/store"
)

const shutdownTimeout = 20 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	ctx := context.Background()

	st, err := store.Open(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := store.RunMigrations(ctx, st.DB()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("database ready")

	shutdown := observability.NewShutdownManager(shutdownTimeout, logger)
	shutdown.Register("database", func(ctx context.Context) error {
		return st.Close()
	})

	var redisClient *redis.Client
	var loginLimiter *middleware.RateLimiter
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warn("redis unavailable, login rate limiting will fail open")
		}
		loginLimiter = middleware.NewRateLimiter(redisClient, middleware.LoginRateLimitConfig(), "taskhub")
		shutdown.Register("redis", func(ctx context.Context) error {
			return redisClient.Close()
		})
	}

	if cfg.Observability.OTelEnabled {
		providers, err := observability.InitOTel(ctx, observability.OTelConfig{
			ServiceName:    cfg.Observability.OTelServiceName,
			ServiceVersion: cfg.Observability.OTelServiceVersion,
			Environment:    getEnv("TASKHUB_ENVIRONMENT", "development"),
			Endpoint:       cfg.Observability.OTelEndpoint,
			SampleRatio:    cfg.Observability.OTelSampleRatio,
		})
		if err != nil {
			log.Fatalf("Failed to initialize tracing: %v", err)
		}
		if providers != nil {
			shutdown.Register("otel", providers.ShutdownOTel)
		}
	}

	tokens, err := auth.NewTokenIssuer([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL)
	if err != nil {
		log.Fatalf("Failed to create token issuer: %v", err)
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	server := api.NewServer(api.ServerConfig{
		Store:         st,
		TokenIssuer:   tokens,
		Authenticator: auth.NewAuthenticator(tokens, st),
		Authorizer:    authz.NewAuthorizer(st, st),
		Audit:         audit.NewDBRecorder(st.DB()),
		Metrics:       metrics,
		Logger:        logger,
		LoginLimiter:  loginLimiter,

		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
	})

	apiServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	healthMux := http.NewServeMux()
	health := observability.NewHealthChecker(st.DB(), redisClient)
	health.RegisterHealthRoutes(healthMux)
	if cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(healthMux, registry)
	}
	healthServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler:      healthMux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Keep the DB pool gauges fresh while the server runs.
	statsDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-statsDone:
				return
			case <-ticker.C:
				metrics.UpdateDBStats(st.DB())
			}
		}
	}()

	var group errgroup.Group
	group.Go(func() error {
		logger.WithField("addr", apiServer.Addr).Info("starting API server")
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		logger.WithField("addr", healthServer.Addr).Info("starting health server")
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	shutdown.Register("health-server", healthServer.Shutdown)
	shutdown.Register("api-server", apiServer.Shutdown)
	shutdown.Register("db-stats", func(ctx context.Context) error {
		close(statsDone)
		return nil
	})

	sig := observability.WaitForSignal()
	logger.WithField("signal", sig).Info("shutting down")

	if err := shutdown.Shutdown(); err != nil {
		logger.WithError(err).Error("shutdown finished with errors")
	}
	if err := group.Wait(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	logger.Info("shutdown complete")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
