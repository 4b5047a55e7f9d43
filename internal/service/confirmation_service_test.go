package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semisto-service/internal/broker"
	"semisto-service/internal/models"
	"semisto-service/internal/service/servicetest"
)

type sentMessage struct {
	recipient string
	subject   string
	body      string
}

type fakeNotifier struct {
	sent []sentMessage
	err  error
}

func (n *fakeNotifier) Notify(ctx context.Context, recipient, subject, body string) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMessage{recipient, subject, body})
	return nil
}

func TestConfirmationSentOncePerEvent(t *testing.T) {
	store := servicetest.NewStore()
	notifier := &fakeNotifier{}
	svc := NewConfirmationService(store, notifier)
	ctx := context.Background()

	event := &models.OrderPlacedEvent{
		BaseEvent:     broker.NewBaseEvent(models.EventTypeOrderPlaced),
		Reference:     "CMD-0001",
		CustomerName:  "Marie",
		CustomerEmail: "marie@example.org",
		TotalCents:    2990,
	}

	require.NoError(t, svc.HandleOrderPlaced(ctx, event))
	require.NoError(t, svc.HandleOrderPlaced(ctx, event))

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "marie@example.org", notifier.sent[0].recipient)
	assert.Contains(t, notifier.sent[0].body, "CMD-0001")
	assert.Contains(t, notifier.sent[0].body, "29.90")
	assert.Equal(t, models.EventTypeOrderPlaced, store.Processed[event.EventID])
}

func TestConfirmationDonationAndRegistration(t *testing.T) {
	store := servicetest.NewStore()
	notifier := &fakeNotifier{}
	svc := NewConfirmationService(store, notifier)
	ctx := context.Background()

	require.NoError(t, svc.HandleDonationRecorded(ctx, &models.DonationRecordedEvent{
		BaseEvent:   broker.NewBaseEvent(models.EventTypeDonationRecorded),
		DonorEmail:  "lucas@example.org",
		AmountCents: 2500,
		Monthly:     true,
	}))
	require.NoError(t, svc.HandleRegistrationConfirmed(ctx, &models.RegistrationConfirmedEvent{
		BaseEvent: broker.NewBaseEvent(models.EventTypeRegistrationConfirmed),
		Email:     "emma@example.org",
		Seats:     2,
	}))

	require.Len(t, notifier.sent, 2)
	assert.Contains(t, notifier.sent[0].body, "mensuel")
	assert.Contains(t, notifier.sent[1].body, "2 place(s)")
}

func TestFundingAllocatedIsRecordedWithoutNotification(t *testing.T) {
	store := servicetest.NewStore()
	notifier := &fakeNotifier{}
	svc := NewConfirmationService(store, notifier)

	event := &models.FundingAllocatedEvent{BaseEvent: broker.NewBaseEvent(models.EventTypeFundingAllocated), ProposalID: "prop-001"}
	require.NoError(t, svc.HandleFundingAllocated(context.Background(), event))

	assert.Empty(t, notifier.sent)
	assert.Contains(t, store.Processed, event.EventID)
}

func TestFailedNotificationIsRetried(t *testing.T) {
	store := servicetest.NewStore()
	notifier := &fakeNotifier{err: errors.New("smtp down")}
	svc := NewConfirmationService(store, notifier)
	ctx := context.Background()

	event := &models.DonationRecordedEvent{BaseEvent: broker.NewBaseEvent(models.EventTypeDonationRecorded), DonorEmail: "a@example.org"}
	assert.Error(t, svc.HandleDonationRecorded(ctx, event))
	assert.NotContains(t, store.Processed, event.EventID)

	notifier.err = nil
	require.NoError(t, svc.HandleDonationRecorded(ctx, event))
	assert.Len(t, notifier.sent, 1)
}
