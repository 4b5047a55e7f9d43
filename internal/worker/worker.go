package worker

import (
	"context"

	"go.uber.org/zap"

	"semisto-service/internal/broker"
	"semisto-service/internal/service"
	"semisto-service/internal/util"
)

// Consumer is implemented by broker.Consumer
type Consumer interface {
	StartConsuming(ctx context.Context, handler broker.MessageHandler) error
	Close() error
}

// ConfirmationWorker consumes domain events and sends confirmations
type ConfirmationWorker struct {
	consumer     Consumer
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewConfirmationWorker creates a new confirmation worker
func NewConfirmationWorker(consumer Consumer, confirmations *service.ConfirmationService) *ConfirmationWorker {
	eventHandler := broker.NewEventHandler()

	eventHandler.OnOrderPlaced(confirmations.HandleOrderPlaced)
	eventHandler.OnDonationRecorded(confirmations.HandleDonationRecorded)
	eventHandler.OnRegistrationConfirmed(confirmations.HandleRegistrationConfirmed)
	eventHandler.OnFundingAllocated(confirmations.HandleFundingAllocated)

	return &ConfirmationWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		logger:       util.Named("worker"),
	}
}

// Start blocks until ctx is cancelled
func (w *ConfirmationWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting confirmation worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *ConfirmationWorker) Stop() error {
	w.logger.Info("Stopping confirmation worker")
	return w.consumer.Close()
}
