package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"semisto-service/internal/models"
)

// CreateDonation records a donation
func (s *Store) CreateDonation(ctx context.Context, d *models.Donation) error {
	query := `
		INSERT INTO donations (reference, project_id, donor_name, donor_email, message,
			amount_cents, monthly, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	return s.db.QueryRowxContext(ctx, query,
		d.Reference, d.ProjectID, d.DonorName, d.DonorEmail, d.Message,
		d.AmountCents, d.Monthly, d.IdempotencyKey,
	).Scan(&d.ID, &d.CreatedAt)
}

// GetDonationByIdempotencyKey returns nil without error when no donation matches
func (s *Store) GetDonationByIdempotencyKey(ctx context.Context, key string) (*models.Donation, error) {
	var d models.Donation
	err := s.db.GetContext(ctx, &d, "SELECT * FROM donations WHERE idempotency_key = $1", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateRegistration records a seat booking under a row lock on the target,
// so concurrent bookings never take more than capacity seats in total. The
// capacity row is seeded on first use.
func (s *Store) CreateRegistration(ctx context.Context, r *models.Registration, capacity int) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO registration_capacity (target_type, target_id, capacity)
		VALUES ($1, $2, $3)
		ON CONFLICT (target_type, target_id) DO UPDATE SET capacity = EXCLUDED.capacity`,
		r.TargetType, r.TargetID, capacity)
	if err != nil {
		return fmt.Errorf("failed to seed registration capacity: %w", err)
	}

	var locked int
	err = tx.GetContext(ctx, &locked, `
		SELECT capacity FROM registration_capacity
		WHERE target_type = $1 AND target_id = $2 FOR UPDATE`,
		r.TargetType, r.TargetID)
	if err != nil {
		return fmt.Errorf("failed to lock registration capacity: %w", err)
	}

	var booked int
	err = tx.GetContext(ctx, &booked,
		"SELECT COALESCE(SUM(seats), 0) FROM registrations WHERE target_type = $1 AND target_id = $2",
		r.TargetType, r.TargetID)
	if err != nil {
		return fmt.Errorf("failed to count booked seats: %w", err)
	}
	if booked+r.Seats > locked {
		return fmt.Errorf("%w: %d booked, %d requested, capacity %d", ErrSoldOut, booked, r.Seats, locked)
	}

	err = tx.QueryRowxContext(ctx, `
		INSERT INTO registrations (reference, target_type, target_id, name, email, seats,
			total_cents, payment_method, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`,
		r.Reference, r.TargetType, r.TargetID, r.Name, r.Email, r.Seats,
		r.TotalCents, r.PaymentMethod, r.IdempotencyKey,
	).Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert registration: %w", err)
	}

	return tx.Commit()
}

// GetRegistrationByIdempotencyKey returns nil without error when nothing matches
func (s *Store) GetRegistrationByIdempotencyKey(ctx context.Context, key string) (*models.Registration, error) {
	var r models.Registration
	err := s.db.GetContext(ctx, &r, "SELECT * FROM registrations WHERE idempotency_key = $1", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CountSeats sums booked seats for an event or a course
func (s *Store) CountSeats(ctx context.Context, targetType, targetID string) (int, error) {
	var seats int
	err := s.db.GetContext(ctx, &seats,
		"SELECT COALESCE(SUM(seats), 0) FROM registrations WHERE target_type = $1 AND target_id = $2",
		targetType, targetID)
	return seats, err
}
