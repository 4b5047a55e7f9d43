package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"semisto-service/internal/models"
	"semisto-service/internal/portal"
)

// AllocateFundingTx applies a contribution under a row lock so concurrent
// allocations never push raised past target. The progress row is seeded
// from the proposal on first use. alloc.Amount is set to what was applied.
func (s *Store) AllocateFundingTx(ctx context.Context, proposal models.FundingProposal, alloc *models.FundingAllocation) (*models.FundingProgress, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO funding_progress (proposal_id, target_amount, raised_amount)
		VALUES ($1, $2, $3)
		ON CONFLICT (proposal_id) DO NOTHING`,
		proposal.ID, proposal.TargetAmount, proposal.RaisedAmount)
	if err != nil {
		return nil, fmt.Errorf("failed to seed funding progress: %w", err)
	}

	var progress models.FundingProgress
	err = tx.GetContext(ctx, &progress,
		"SELECT * FROM funding_progress WHERE proposal_id = $1 FOR UPDATE", proposal.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock funding progress: %w", err)
	}

	applied := portal.Allocate(progress.TargetAmount, progress.RaisedAmount, alloc.RequestedAmount)

	err = tx.QueryRowxContext(ctx, `
		UPDATE funding_progress SET raised_amount = $1, updated_at = NOW()
		WHERE proposal_id = $2
		RETURNING updated_at`,
		applied.Raised, proposal.ID).Scan(&progress.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update funding progress: %w", err)
	}
	progress.RaisedAmount = applied.Raised

	alloc.ProposalID = proposal.ID
	alloc.Amount = applied.Applied
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO funding_allocations (reference, proposal_id, partner_id, requested_amount,
			amount, status, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		alloc.Reference, alloc.ProposalID, alloc.PartnerID, alloc.RequestedAmount,
		alloc.Amount, alloc.Status, alloc.IdempotencyKey,
	).Scan(&alloc.ID, &alloc.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert funding allocation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &progress, nil
}

// GetFundingProgress returns ErrNotFound before the first allocation
func (s *Store) GetFundingProgress(ctx context.Context, proposalID string) (*models.FundingProgress, error) {
	var p models.FundingProgress
	err := s.db.GetContext(ctx, &p, "SELECT * FROM funding_progress WHERE proposal_id = $1", proposalID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListFundingProgress returns every persisted progress row keyed by proposal
func (s *Store) ListFundingProgress(ctx context.Context) (map[string]models.FundingProgress, error) {
	var rows []models.FundingProgress
	if err := s.db.SelectContext(ctx, &rows, "SELECT * FROM funding_progress"); err != nil {
		return nil, err
	}
	out := make(map[string]models.FundingProgress, len(rows))
	for _, r := range rows {
		out[r.ProposalID] = r
	}
	return out, nil
}

// GetAllocationByIdempotencyKey returns nil without error when nothing matches
func (s *Store) GetAllocationByIdempotencyKey(ctx context.Context, key string) (*models.FundingAllocation, error) {
	var a models.FundingAllocation
	err := s.db.GetContext(ctx, &a, "SELECT * FROM funding_allocations WHERE idempotency_key = $1", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAllocationsByPartner returns a partner's allocations, newest first
func (s *Store) ListAllocationsByPartner(ctx context.Context, partnerID string) ([]models.FundingAllocation, error) {
	var out []models.FundingAllocation
	err := s.db.SelectContext(ctx, &out,
		"SELECT * FROM funding_allocations WHERE partner_id = $1 ORDER BY created_at DESC", partnerID)
	return out, err
}
