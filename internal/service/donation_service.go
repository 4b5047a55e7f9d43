package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"semisto-service/internal/broker"
	"semisto-service/internal/models"
	"semisto-service/internal/util"
	"semisto-service/internal/workflow"
)

// DonationService records completed donation runs
type DonationService struct {
	store          DonationStore
	eventPublisher EventPublisher
	logger         *zap.Logger
}

func NewDonationService(store DonationStore, eventPublisher EventPublisher) *DonationService {
	return &DonationService{
		store:          store,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// Donate has the shape of workflow.DonateFunc
func (s *DonationService) Donate(ctx context.Context, req workflow.DonationRequest) (workflow.Fields, error) {
	ctx, span := util.StartSpan(ctx, "DonationService.Donate")
	defer span.End()

	existing, err := s.store.GetDonationByIdempotencyKey(ctx, req.RunID)
	if err != nil {
		return nil, fmt.Errorf("failed to check idempotency: %w", err)
	}
	if existing != nil {
		s.logger.Info("Duplicate donation commit detected", zap.String("reference", existing.Reference))
		return workflow.Fields{ResultReference: existing.Reference}, nil
	}

	if req.Amount <= 0 {
		return nil, fmt.Errorf("invalid donation amount %v", req.Amount)
	}

	donation := &models.Donation{
		Reference:      newReference("DON"),
		ProjectID:      req.ProjectID,
		DonorName:      req.Name,
		DonorEmail:     req.Email,
		Message:        req.Message,
		AmountCents:    models.ToCents(req.Amount),
		Monthly:        req.Monthly,
		IdempotencyKey: req.RunID,
	}

	if err := s.store.CreateDonation(ctx, donation); err != nil {
		return nil, fmt.Errorf("failed to record donation: %w", err)
	}

	frequency := workflow.FrequencyOnce
	if donation.Monthly {
		frequency = workflow.FrequencyMonthly
	}
	util.DonationsRecordedTotal.WithLabelValues(frequency).Inc()
	util.DonationAmountTotal.Add(models.FromCents(donation.AmountCents))

	s.logger.Info("Donation recorded",
		zap.Int64("donation_id", donation.ID),
		zap.String("reference", donation.Reference),
		zap.Int64("amount_cents", donation.AmountCents),
		zap.Bool("monthly", donation.Monthly))

	event := &models.DonationRecordedEvent{
		BaseEvent:   broker.NewBaseEvent(models.EventTypeDonationRecorded),
		DonationID:  donation.ID,
		Reference:   donation.Reference,
		DonorName:   donation.DonorName,
		DonorEmail:  donation.DonorEmail,
		AmountCents: donation.AmountCents,
		Monthly:     donation.Monthly,
		ProjectID:   donation.ProjectID,
	}
	if err := s.eventPublisher.PublishDonationRecorded(ctx, event); err != nil {
		s.logger.Error("Failed to publish DonationRecorded event", zap.Error(err))
	}

	return workflow.Fields{
		ResultReference: donation.Reference,
		"donation_id":   strconv.FormatInt(donation.ID, 10),
	}, nil
}
