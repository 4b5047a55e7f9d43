package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"semisto-service/internal/models"
	"semisto-service/internal/util"
)

// Publisher is the transport an EventPublisher writes to
type Publisher interface {
	PublishEvent(ctx context.Context, key, eventType string, event interface{}) error
}

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer Publisher
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer Publisher) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// NewBaseEvent stamps a fresh event id and time
func NewBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
	}
}

// PublishOrderPlaced publishes OrderPlaced event
func (ep *EventPublisher) PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	key := fmt.Sprintf("order-%d", event.OrderID)
	return ep.producer.PublishEvent(ctx, key, event.EventType, event)
}

// PublishDonationRecorded publishes DonationRecorded event
func (ep *EventPublisher) PublishDonationRecorded(ctx context.Context, event *models.DonationRecordedEvent) error {
	key := fmt.Sprintf("donation-%d", event.DonationID)
	return ep.producer.PublishEvent(ctx, key, event.EventType, event)
}

// PublishFundingAllocated publishes FundingAllocated event keyed by proposal
func (ep *EventPublisher) PublishFundingAllocated(ctx context.Context, event *models.FundingAllocatedEvent) error {
	key := fmt.Sprintf("proposal-%s", event.ProposalID)
	return ep.producer.PublishEvent(ctx, key, event.EventType, event)
}

// PublishRegistrationConfirmed publishes RegistrationConfirmed event
func (ep *EventPublisher) PublishRegistrationConfirmed(ctx context.Context, event *models.RegistrationConfirmedEvent) error {
	key := fmt.Sprintf("%s-%s", event.TargetType, event.TargetID)
	return ep.producer.PublishEvent(ctx, key, event.EventType, event)
}

// EventHandler handles incoming events
type EventHandler struct {
	onOrderPlaced           func(context.Context, *models.OrderPlacedEvent) error
	onDonationRecorded      func(context.Context, *models.DonationRecordedEvent) error
	onFundingAllocated      func(context.Context, *models.FundingAllocatedEvent) error
	onRegistrationConfirmed func(context.Context, *models.RegistrationConfirmedEvent) error
	logger                  *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.Named("events")}
}

func (eh *EventHandler) OnOrderPlaced(handler func(context.Context, *models.OrderPlacedEvent) error) {
	eh.onOrderPlaced = handler
}

func (eh *EventHandler) OnDonationRecorded(handler func(context.Context, *models.DonationRecordedEvent) error) {
	eh.onDonationRecorded = handler
}

func (eh *EventHandler) OnFundingAllocated(handler func(context.Context, *models.FundingAllocatedEvent) error) {
	eh.onFundingAllocated = handler
}

func (eh *EventHandler) OnRegistrationConfirmed(handler func(context.Context, *models.RegistrationConfirmedEvent) error) {
	eh.onRegistrationConfirmed = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	eh.logger.Debug("Handling event",
		zap.String("event_type", baseEvent.EventType),
		zap.String("event_id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeOrderPlaced:
		return dispatch(ctx, msg, eh.onOrderPlaced)
	case models.EventTypeDonationRecorded:
		return dispatch(ctx, msg, eh.onDonationRecorded)
	case models.EventTypeFundingAllocated:
		return dispatch(ctx, msg, eh.onFundingAllocated)
	case models.EventTypeRegistrationConfirmed:
		return dispatch(ctx, msg, eh.onRegistrationConfirmed)
	default:
		eh.logger.Warn("Unhandled event type", zap.String("event_type", baseEvent.EventType))
	}

	return nil
}

func dispatch[E any](ctx context.Context, msg kafka.Message, handler func(context.Context, *E) error) error {
	if handler == nil {
		return nil
	}
	var event E
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal %T: %w", event, err)
	}
	return handler(ctx, &event)
}
