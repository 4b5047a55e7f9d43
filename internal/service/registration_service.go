package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"semisto-service/internal/broker"
	"semisto-service/internal/models"
	"semisto-service/internal/store"
	"semisto-service/internal/util"
	"semisto-service/internal/workflow"
)

// RegistrationService books seats on events and courses
type RegistrationService struct {
	store          RegistrationStore
	catalog        Catalog
	eventPublisher EventPublisher
	logger         *zap.Logger
}

func NewRegistrationService(store RegistrationStore, catalog Catalog, eventPublisher EventPublisher) *RegistrationService {
	return &RegistrationService{
		store:          store,
		catalog:        catalog,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// RegistrationTarget satisfies workflow.RegistrationBackend. Seats already
// booked here are taken off the catalog availability.
func (s *RegistrationService) RegistrationTarget(ctx context.Context, targetType, targetID string) (workflow.RegistrationTarget, error) {
	ctx, span := util.StartSpan(ctx, "RegistrationService.RegistrationTarget")
	defer span.End()

	target, err := s.catalogTarget(ctx, targetType, targetID)
	if err != nil {
		return target, err
	}

	booked, err := s.store.CountSeats(ctx, targetType, targetID)
	if err != nil {
		return target, fmt.Errorf("failed to count booked seats: %w", err)
	}
	target.SpotsAvailable -= booked
	if target.SpotsAvailable < 0 {
		target.SpotsAvailable = 0
	}
	return target, nil
}

// catalogTarget returns the target with its catalog capacity
func (s *RegistrationService) catalogTarget(ctx context.Context, targetType, targetID string) (workflow.RegistrationTarget, error) {
	switch targetType {
	case models.RegistrationTargetEvent:
		e, ok := s.catalog.EventByID(ctx, targetID)
		if !ok {
			return workflow.RegistrationTarget{}, ErrTargetNotFound
		}
		return workflow.RegistrationTarget{Title: e.Title, UnitPrice: e.Price, SpotsAvailable: e.SpotsAvailable}, nil
	case models.RegistrationTargetCourse:
		c, ok := s.catalog.CourseByID(ctx, targetID)
		if !ok {
			return workflow.RegistrationTarget{}, ErrTargetNotFound
		}
		return workflow.RegistrationTarget{Title: c.Title, UnitPrice: c.Price, SpotsAvailable: c.SpotsAvailable}, nil
	default:
		return workflow.RegistrationTarget{}, fmt.Errorf("%w: unknown target type %q", ErrTargetNotFound, targetType)
	}
}

// Register records a completed registration run
func (s *RegistrationService) Register(ctx context.Context, req workflow.RegistrationRequest) (workflow.Fields, error) {
	ctx, span := util.StartSpan(ctx, "RegistrationService.Register")
	defer span.End()

	existing, err := s.store.GetRegistrationByIdempotencyKey(ctx, req.RunID)
	if err != nil {
		return nil, fmt.Errorf("failed to check idempotency: %w", err)
	}
	if existing != nil {
		s.logger.Info("Duplicate registration commit detected", zap.String("reference", existing.Reference))
		return registrationResult(existing), nil
	}

	target, err := s.catalogTarget(ctx, req.TargetType, req.TargetID)
	if err != nil {
		return nil, err
	}
	if req.Seats < 1 {
		return nil, fmt.Errorf("%w: cannot book %d seats", ErrNoSeats, req.Seats)
	}

	reg := &models.Registration{
		Reference:      newReference("INS"),
		TargetType:     req.TargetType,
		TargetID:       req.TargetID,
		Name:           req.Name,
		Email:          req.Email,
		Seats:          req.Seats,
		TotalCents:     models.ToCents(target.UnitPrice) * int64(req.Seats),
		PaymentMethod:  req.PaymentMethod,
		IdempotencyKey: req.RunID,
	}
	if reg.TotalCents == 0 {
		reg.PaymentMethod = ""
	}

	if err := s.store.CreateRegistration(ctx, reg, target.SpotsAvailable); err != nil {
		if errors.Is(err, store.ErrSoldOut) {
			return nil, fmt.Errorf("%w: %v", ErrNoSeats, err)
		}
		return nil, fmt.Errorf("failed to create registration: %w", err)
	}

	util.RegistrationsTotal.WithLabelValues(reg.TargetType, strconv.FormatBool(reg.TotalCents > 0)).Inc()
	s.logger.Info("Registration confirmed",
		zap.String("reference", reg.Reference),
		zap.String("target_type", reg.TargetType),
		zap.String("target_id", reg.TargetID),
		zap.Int("seats", reg.Seats))

	event := &models.RegistrationConfirmedEvent{
		BaseEvent:      broker.NewBaseEvent(models.EventTypeRegistrationConfirmed),
		RegistrationID: reg.ID,
		Reference:      reg.Reference,
		TargetType:     reg.TargetType,
		TargetID:       reg.TargetID,
		Email:          reg.Email,
		Seats:          reg.Seats,
	}
	if err := s.eventPublisher.PublishRegistrationConfirmed(ctx, event); err != nil {
		s.logger.Error("Failed to publish RegistrationConfirmed event", zap.Error(err))
	}

	result := registrationResult(reg)
	result["title"] = target.Title
	return result, nil
}

func registrationResult(r *models.Registration) workflow.Fields {
	return workflow.Fields{
		ResultReference: r.Reference,
		ResultTotal:     strconv.FormatFloat(models.FromCents(r.TotalCents), 'f', 2, 64),
		"seats":         strconv.Itoa(r.Seats),
	}
}
