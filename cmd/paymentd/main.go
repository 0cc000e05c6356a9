package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ledgerpay/internal/api"
	"ledgerpay/internal/common/config"
	"ledgerpay/internal/common/logging"
	"ledgerpay/internal/common/metrics"
	"ledgerpay/internal/common/types"
	"ledgerpay/internal/payment/application"
	"ledgerpay/internal/payment/infrastructure/postgres"
	"ledgerpay/internal/ratelimit"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup structured logging
	logging.Setup(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	// Generate correlation ID for startup
	startupCtx := logging.WithCorrelationID(context.Background(), types.NewCorrelationID())

	logging.InfoContext(startupCtx, "Starting payment authorization service",
		"rpc_port", cfg.RPCPort,
		"environment", cfg.Environment,
		"log_level", cfg.LogLevel,
	)

	// Storage
	pool, err := cfg.NewPostgresPool(startupCtx)
	if err != nil {
		logging.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logging.InfoContext(startupCtx, "Storage pool ready",
		"max_conns", cfg.DBMaxConns)

	// Rate limiter backed by the shared fast store. A dead store must not
	// take authorization down with it, so the limiter fails open; only a
	// failed startup ping is fatal here.
	redisClient, err := cfg.NewRedisClient(startupCtx)
	if err != nil {
		logging.Error("Failed to connect to kv store", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	limiter := ratelimit.NewLimiter(redisClient, ratelimit.Config{
		Enabled: cfg.RateLimitEnabled,
		Limit:   cfg.RateLimitPerWindow,
		Window:  cfg.RateLimitWindow,
	})
	logging.InfoContext(startupCtx, "Rate limiter initialized",
		"enabled", cfg.RateLimitEnabled,
		"limit", cfg.RateLimitPerWindow,
		"window", cfg.RateLimitWindow,
	)

	// Payment context
	dataStore := postgres.NewDataStore(pool)
	paymentService := application.NewPaymentService(dataStore, cfg.IdempotencyTTL)
	handler := api.NewHandler(paymentService)
	server := api.NewServer(handler, limiter, cfg.RPCPort)

	metricsServer := metrics.NewServer(fmt.Sprintf("%s:%d", cfg.MetricsHost, cfg.MetricsPort))
	go func() {
		logging.Info("Metrics server listening", "addr", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("Metrics server error", "error", err)
		}
	}()

	// Start gRPC server in goroutine
	go func() {
		if err := server.ListenAndServe(); err != nil {
			logging.Error("gRPC server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info("Shutting down server")

	server.Shutdown(cfg.ShutdownGrace)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logging.Error("Metrics server forced to shutdown", "error", err)
	}

	logging.Info("Server stopped")
}
