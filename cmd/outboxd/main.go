package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ledgerpay/internal/common/config"
	"ledgerpay/internal/common/logging"
	"ledgerpay/internal/common/metrics"
	"ledgerpay/internal/common/types"
	"ledgerpay/internal/outbox"
	"ledgerpay/internal/payment/infrastructure/postgres"
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

	startupCtx := logging.WithCorrelationID(context.Background(), types.NewCorrelationID())

	logging.InfoContext(startupCtx, "Starting outbox delivery worker",
		"topic_prefix", cfg.TopicPrefix,
		"poll_interval", cfg.OutboxPollInterval,
		"batch_size", cfg.OutboxBatchSize,
		"environment", cfg.Environment,
	)

	// Storage
	pool, err := cfg.NewPostgresPool(startupCtx)
	if err != nil {
		logging.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}

	// Broker
	broker, err := outbox.NewKafkaBroker(cfg.BrokerAddrs, cfg.NewSaramaConfig())
	if err != nil {
		logging.Error("Failed to connect to broker", "error", err, "addrs", cfg.BrokerAddrs)
		os.Exit(1)
	}
	logging.InfoContext(startupCtx, "Broker producer ready", "addrs", cfg.BrokerAddrs)

	worker := outbox.NewWorker(postgres.NewDataStore(pool), broker, outbox.Config{
		TopicPrefix:  cfg.TopicPrefix,
		BatchSize:    cfg.OutboxBatchSize,
		PollInterval: cfg.OutboxPollInterval,
		MaxRetries:   cfg.OutboxMaxRetries,
		BaseDelay:    cfg.OutboxBaseDelay,
		MaxDelay:     cfg.OutboxMaxDelay,
	})

	// Metrics endpoint for the worker process
	metricsServer := metrics.NewServer(fmt.Sprintf("%s:%d", cfg.MetricsHost, cfg.MetricsPort))
	go func() {
		logging.Info("Metrics server listening", "addr", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("Metrics server error", "error", err)
		}
	}()

	// Run the delivery loop until a shutdown signal arrives or the
	// circuit breaker latches.
	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() {
		runErr <- worker.Run(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case <-quit:
		logging.Info("Shutting down worker")
		cancel()
		select {
		case <-runErr:
		case <-time.After(30 * time.Second):
			logging.Warn("Worker did not stop within grace period")
		}
	case err := <-runErr:
		// Breaker latch or another fatal loop error. Exit non-zero so
		// the supervisor restarts the process.
		logging.Error("Worker loop terminated", "error", err)
		cancel()
		exitCode = 1
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logging.Error("Metrics server forced to shutdown", "error", err)
	}

	broker.Close()
	pool.Close()
	logging.Info("Worker stopped")
	os.Exit(exitCode)
}
