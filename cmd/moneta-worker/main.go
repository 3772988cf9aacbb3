package main

import (
	"context"
	"errors"
	"os"

	"moneta/internal/cli"
	"moneta/internal/events"
	"moneta/internal/ledger"
	"moneta/internal/log"
)

// The worker consumes ledger events and verifies stored account balances
// against the recomputed values, repairing any drift it finds.
func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	result := cli.OpenStore(logger, cfg)
	defer result.Store.Close()

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}
	client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to connect to message broker", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	// The worker never publishes, so the service gets no events client.
	svc := ledger.NewService(result.Store, nil, logger.Logger)
	if err := svc.Init(context.Background()); err != nil {
		logger.Error("Failed to initialize ledger", log.FieldError, err)
		os.Exit(1)
	}

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	logger.Info("Worker started",
		"backend", string(result.Kind),
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)

	err = client.Consume(ctx, func(event *events.LedgerEvent) error {
		logger.Debug("Received ledger event",
			"kind", event.Kind, "entity_id", event.EntityID)

		drifts, err := svc.RepairBalances(ctx)
		if err != nil {
			return err
		}
		for _, d := range drifts {
			logger.Warn("Repaired account balance drift",
				"account_id", d.AccountID,
				"stored", d.Stored,
				"computed", d.Computed)
		}
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Consumer stopped", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
