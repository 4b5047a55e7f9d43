package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"semisto-service/internal/models"
	"semisto-service/internal/util"
)

// Notifier delivers a confirmation to a recipient
type Notifier interface {
	Notify(ctx context.Context, recipient, subject, body string) error
}

// LogNotifier writes confirmations to the log instead of sending them
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{logger: util.Named("notifier")}
}

func (n *LogNotifier) Notify(ctx context.Context, recipient, subject, body string) error {
	n.logger.Info("Confirmation sent",
		zap.String("recipient", recipient),
		zap.String("subject", subject),
		zap.String("body", body))
	return nil
}

// ConfirmationService reacts to domain events on the consumer side. Each
// event id is handled at most once.
type ConfirmationService struct {
	processed ProcessedEventStore
	notifier  Notifier
	logger    *zap.Logger
}

func NewConfirmationService(processed ProcessedEventStore, notifier Notifier) *ConfirmationService {
	return &ConfirmationService{
		processed: processed,
		notifier:  notifier,
		logger:    util.Named("confirmations"),
	}
}

func (s *ConfirmationService) confirm(ctx context.Context, base models.BaseEvent, recipient, subject, body string) error {
	ctx, span := util.StartSpan(ctx, "ConfirmationService.confirm")
	defer span.End()

	processed, err := s.processed.IsEventProcessed(ctx, base.EventID)
	if err != nil {
		return fmt.Errorf("failed to check processed event: %w", err)
	}
	if processed {
		s.logger.Debug("Event already processed", zap.String("event_id", base.EventID))
		return nil
	}

	if recipient != "" {
		if err := s.notifier.Notify(ctx, recipient, subject, body); err != nil {
			return fmt.Errorf("failed to send confirmation: %w", err)
		}
		util.ConfirmationsSentTotal.WithLabelValues(base.EventType).Inc()
	}

	if err := s.processed.MarkEventProcessed(ctx, base.EventID, base.EventType); err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	return nil
}

func (s *ConfirmationService) HandleOrderPlaced(ctx context.Context, e *models.OrderPlacedEvent) error {
	body := fmt.Sprintf("Bonjour %s, votre commande %s (%.2f €) est enregistrée. Nous vous prévenons dès qu'elle est prête au retrait.",
		e.CustomerName, e.Reference, models.FromCents(e.TotalCents))
	return s.confirm(ctx, e.BaseEvent, e.CustomerEmail, "Commande "+e.Reference, body)
}

func (s *ConfirmationService) HandleDonationRecorded(ctx context.Context, e *models.DonationRecordedEvent) error {
	kind := "ponctuel"
	if e.Monthly {
		kind = "mensuel"
	}
	body := fmt.Sprintf("Merci %s pour votre don %s de %.2f € (référence %s).",
		e.DonorName, kind, models.FromCents(e.AmountCents), e.Reference)
	return s.confirm(ctx, e.BaseEvent, e.DonorEmail, "Merci pour votre don", body)
}

func (s *ConfirmationService) HandleRegistrationConfirmed(ctx context.Context, e *models.RegistrationConfirmedEvent) error {
	body := fmt.Sprintf("Votre inscription %s pour %d place(s) est confirmée.", e.Reference, e.Seats)
	return s.confirm(ctx, e.BaseEvent, e.Email, "Inscription confirmée", body)
}

// HandleFundingAllocated only records the event; partners see allocations
// in the portal
func (s *ConfirmationService) HandleFundingAllocated(ctx context.Context, e *models.FundingAllocatedEvent) error {
	s.logger.Info("Funding allocation observed",
		zap.String("proposal_id", e.ProposalID),
		zap.Int64("amount", e.Amount),
		zap.Int64("raised", e.RaisedAmount))
	return s.confirm(ctx, e.BaseEvent, "", "", "")
}
