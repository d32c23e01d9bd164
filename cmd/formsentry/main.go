package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/formsentry/spam-detector/internal/adapters/sink"
	"github.com/formsentry/spam-detector/internal/config"
	"github.com/formsentry/spam-detector/internal/core"
	"github.com/formsentry/spam-detector/internal/di"
	"github.com/formsentry/spam-detector/internal/ports"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	cfg *config.Config,
	submissionConsumer ports.SubmissionConsumer,
	limiter core.RateLimiter,
	cache core.KeyValueStore,
) error {
	defer logger.Sync()

	// Start the metrics endpoint when enabled
	var metricsServer *http.Server
	sinkCfg := cfg.GetSinks()
	if sinkCfg.MetricsEnabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", sink.Handler())
		metricsServer = &http.Server{
			Addr:    sinkCfg.MetricsAddress,
			Handler: mux,
		}
		go func() {
			logger.Info("Metrics endpoint listening", zap.String("address", sinkCfg.MetricsAddress))
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("Metrics server failed", zap.Error(err))
			}
		}()
	}

	// Start consuming submissions
	if err := submissionConsumer.Start(); err != nil {
		logger.Error("Failed to start submission consumer", zap.Error(err))
		return err
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	if err := submissionConsumer.Stop(); err != nil {
		logger.Error("Failed to stop submission consumer", zap.Error(err))
	}

	if metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(ctx); err != nil {
			logger.Error("Failed to stop metrics server", zap.Error(err))
		}
	}

	// Stop background tasks on the limiter and cache if present
	if stopper, ok := limiter.(interface{ Stop() }); ok {
		stopper.Stop()
	}
	if stopper, ok := cache.(interface{ Stop() }); ok {
		stopper.Stop()
	}

	logger.Info("Shutdown complete")
	return nil
}
