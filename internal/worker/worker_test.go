package worker

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semisto-service/internal/broker"
	"semisto-service/internal/models"
	"semisto-service/internal/service"
)

type replayConsumer struct {
	messages []kafka.Message
	errs     []error
	closed   bool
}

func (c *replayConsumer) StartConsuming(ctx context.Context, handler broker.MessageHandler) error {
	for _, m := range c.messages {
		c.errs = append(c.errs, handler(ctx, m))
	}
	return nil
}

func (c *replayConsumer) Close() error {
	c.closed = true
	return nil
}

type memProcessed map[string]string

func (m memProcessed) IsEventProcessed(ctx context.Context, id string) (bool, error) {
	_, ok := m[id]
	return ok, nil
}

func (m memProcessed) MarkEventProcessed(ctx context.Context, id, eventType string) error {
	m[id] = eventType
	return nil
}

type countingNotifier struct {
	recipients []string
}

func (n *countingNotifier) Notify(ctx context.Context, recipient, subject, body string) error {
	n.recipients = append(n.recipients, recipient)
	return nil
}

func encode(t *testing.T, v interface{}) kafka.Message {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return kafka.Message{Value: raw}
}

func TestConfirmationWorker(t *testing.T) {
	order := models.OrderPlacedEvent{BaseEvent: broker.NewBaseEvent(models.EventTypeOrderPlaced), CustomerEmail: "marie@example.org"}
	donation := models.DonationRecordedEvent{BaseEvent: broker.NewBaseEvent(models.EventTypeDonationRecorded), DonorEmail: "lucas@example.org"}
	funding := models.FundingAllocatedEvent{BaseEvent: broker.NewBaseEvent(models.EventTypeFundingAllocated)}

	consumer := &replayConsumer{messages: []kafka.Message{
		encode(t, order),
		encode(t, donation),
		encode(t, order),
		encode(t, funding),
	}}
	processed := memProcessed{}
	notifier := &countingNotifier{}

	w := NewConfirmationWorker(consumer, service.NewConfirmationService(processed, notifier))
	require.NoError(t, w.Start(context.Background()))

	for _, err := range consumer.errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, []string{"marie@example.org", "lucas@example.org"}, notifier.recipients)
	assert.Len(t, processed, 3)

	require.NoError(t, w.Stop())
	assert.True(t, consumer.closed)
}
