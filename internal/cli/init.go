// Package cli holds the initialization steps shared by the binaries under
// cmd/.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"moneta/internal/backend"
	"moneta/internal/config"
	"moneta/internal/events"
	"moneta/internal/log"
)

// SetupLogger builds the process logger and installs it as the slog default.
func SetupLogger(component string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Component = component
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env for local development. Missing files are fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration from the environment and exits
// the process when it does not validate.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// OpenStore picks the storage backend per configuration and exits the
// process when neither backend can be opened.
func OpenStore(logger *log.Logger, cfg *config.Config) *backend.Result {
	factory := backend.NewFactory(logger.Logger)
	result, err := factory.Open(cfg)
	if err != nil {
		logger.Error("Failed to open storage backend", log.FieldError, err)
		os.Exit(1)
	}
	return result
}

// OpenEvents connects the AMQP client when an URL is configured. A missing
// URL returns a nil client, which disables publishing without error.
func OpenEvents(logger *log.Logger, cfg *config.Config) *events.Client {
	if cfg.AMQPURL == "" {
		return nil
	}
	client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("Failed to connect to AMQP, events disabled", log.FieldError, err)
		return nil
	}
	return client
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()
	return ctx, cancel
}

// ShutdownTimeout bounds how long graceful shutdown may take.
const ShutdownTimeout = 10 * time.Second
