package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"semisto-service/internal/broker"
	"semisto-service/internal/models"
	"semisto-service/internal/portal"
	"semisto-service/internal/store"
	"semisto-service/internal/util"
	"semisto-service/internal/workflow"
)

var ErrProposalClosed = errors.New("funding proposal is closed")

// Funding result fields
const (
	ResultApplied   = "applied"
	ResultRequested = "requested"
	ResultRaised    = "raised"
	ResultTarget    = "target"
	ResultFunded    = "funded"
)

// FundingService overlays persisted allocations on the portal proposals
type FundingService struct {
	portal         *portal.Repository
	store          FundingStore
	eventPublisher EventPublisher
	logger         *zap.Logger
}

func NewFundingService(repo *portal.Repository, store FundingStore, eventPublisher EventPublisher) *FundingService {
	return &FundingService{
		portal:         repo,
		store:          store,
		eventPublisher: eventPublisher,
		logger:         util.Named("funding"),
	}
}

// Proposals returns every proposal with its live raised amount and status
func (s *FundingService) Proposals(ctx context.Context) ([]models.FundingProposal, error) {
	ctx, span := util.StartSpan(ctx, "FundingService.Proposals")
	defer span.End()

	progress, err := s.store.ListFundingProgress(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list funding progress: %w", err)
	}

	proposals := s.portal.FundingProposals()
	for i, p := range proposals {
		if row, ok := progress[p.ID]; ok {
			proposals[i] = portal.ApplyProgress(p, row.RaisedAmount)
		}
	}
	return proposals, nil
}

// Proposal returns one proposal with its live progress
func (s *FundingService) Proposal(ctx context.Context, id string) (models.FundingProposal, error) {
	ctx, span := util.StartSpan(ctx, "FundingService.Proposal")
	defer span.End()

	p, ok := s.portal.FundingProposalByID(id)
	if !ok {
		return models.FundingProposal{}, ErrProposalNotFound
	}

	row, err := s.store.GetFundingProgress(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return p, nil
	}
	if err != nil {
		return models.FundingProposal{}, fmt.Errorf("failed to get funding progress: %w", err)
	}
	return portal.ApplyProgress(p, row.RaisedAmount), nil
}

// ProposalSummary satisfies workflow.FundingBackend
func (s *FundingService) ProposalSummary(ctx context.Context, proposalID string) (workflow.ProposalSummary, error) {
	p, err := s.Proposal(ctx, proposalID)
	if err != nil {
		return workflow.ProposalSummary{}, err
	}
	return workflow.ProposalSummary{
		Status:       p.Status,
		TargetAmount: p.TargetAmount,
		RaisedAmount: p.RaisedAmount,
	}, nil
}

// Allocate applies a partner contribution. The amount is clamped so the
// proposal never goes past its target; the run id keys idempotency.
func (s *FundingService) Allocate(ctx context.Context, req workflow.FundingRequest) (workflow.Fields, error) {
	ctx, span := util.StartSpan(ctx, "FundingService.Allocate")
	defer span.End()

	existing, err := s.store.GetAllocationByIdempotencyKey(ctx, req.RunID)
	if err != nil {
		return nil, fmt.Errorf("failed to check idempotency: %w", err)
	}
	if existing != nil {
		s.logger.Info("Duplicate funding commit detected", zap.String("reference", existing.Reference))
		return workflow.Fields{
			ResultReference: existing.Reference,
			ResultApplied:   strconv.FormatInt(existing.Amount, 10),
			ResultRequested: strconv.FormatInt(existing.RequestedAmount, 10),
		}, nil
	}

	proposal, ok := s.portal.FundingProposalByID(req.ProposalID)
	if !ok {
		return nil, ErrProposalNotFound
	}
	if proposal.Status == models.ProposalStatusClosed {
		return nil, ErrProposalClosed
	}

	partnerID := req.PartnerID
	if partnerID == "" {
		partnerID = s.portal.Partner().ID
	}

	alloc := &models.FundingAllocation{
		Reference:       newReference("FIN"),
		PartnerID:       partnerID,
		RequestedAmount: req.Amount,
		Status:          models.FundingStatusAllocated,
		IdempotencyKey:  req.RunID,
	}

	progress, err := s.store.AllocateFundingTx(ctx, proposal, alloc)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate funding: %w", err)
	}

	util.FundingAllocatedTotal.Add(float64(alloc.Amount))
	s.logger.Info("Funding allocated",
		zap.String("proposal_id", proposal.ID),
		zap.String("partner_id", partnerID),
		zap.Int64("requested", alloc.RequestedAmount),
		zap.Int64("applied", alloc.Amount),
		zap.Int64("raised", progress.RaisedAmount))

	event := &models.FundingAllocatedEvent{
		BaseEvent:    broker.NewBaseEvent(models.EventTypeFundingAllocated),
		AllocationID: alloc.ID,
		ProposalID:   proposal.ID,
		PartnerID:    partnerID,
		Amount:       alloc.Amount,
		RaisedAmount: progress.RaisedAmount,
		TargetAmount: progress.TargetAmount,
	}
	if err := s.eventPublisher.PublishFundingAllocated(ctx, event); err != nil {
		s.logger.Error("Failed to publish FundingAllocated event", zap.Error(err))
	}

	return workflow.Fields{
		ResultReference: alloc.Reference,
		ResultApplied:   strconv.FormatInt(alloc.Amount, 10),
		ResultRequested: strconv.FormatInt(alloc.RequestedAmount, 10),
		ResultRaised:    strconv.FormatInt(progress.RaisedAmount, 10),
		ResultTarget:    strconv.FormatInt(progress.TargetAmount, 10),
		ResultFunded:    strconv.FormatBool(progress.RaisedAmount >= progress.TargetAmount),
	}, nil
}

// Fundings lists a partner's historical fundings followed by allocations
// made through the portal
func (s *FundingService) Fundings(ctx context.Context, partnerID string) ([]models.Funding, error) {
	ctx, span := util.StartSpan(ctx, "FundingService.Fundings")
	defer span.End()

	out := s.portal.Fundings()

	allocations, err := s.store.ListAllocationsByPartner(ctx, partnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list allocations: %w", err)
	}

	for _, a := range allocations {
		if a.Amount <= 0 {
			continue
		}
		f := models.Funding{
			ID:         a.Reference,
			ProposalID: a.ProposalID,
			Amount:     a.Amount,
			Date:       a.CreatedAt.Format("2006-01-02"),
			Status:     a.Status,
		}
		if p, ok := s.portal.FundingProposalByID(a.ProposalID); ok {
			f.ProposalTitle = p.Title
			f.LabName = p.LabName
		}
		out = append(out, f)
	}
	return out, nil
}
