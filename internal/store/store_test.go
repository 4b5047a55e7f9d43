package store

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semisto-service/internal/models"
)

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements(schemaSQL)

	require.NotEmpty(t, stmts)
	for _, s := range stmts {
		assert.NotContains(t, s, ";")
		assert.NotEmpty(t, s)
	}
	assert.Contains(t, stmts[0], "CREATE TABLE IF NOT EXISTS orders")
}

// testStore connects to TEST_DATABASE_URL; the integration tests below are
// skipped without it.
func testStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("Integration test - requires TEST_DATABASE_URL")
	}

	s, err := NewStore(url)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestCreateOrder(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	order := &models.Order{
		Reference:        "ORD-" + uuid.NewString()[:8],
		CustomerName:     "Jean",
		CustomerEmail:    "jean@example.com",
		CustomerPhone:    "+32 470 00 00 00",
		PickupLocationID: "lab-wb",
		TotalCents:       6400,
		Currency:         "EUR",
		Status:           models.OrderStatusPlaced,
		IdempotencyKey:   uuid.NewString(),
	}
	items := []models.OrderItem{{ProductID: "prod-1", ProductName: "Pommier", Quantity: 2, UnitPriceCents: 3200}}

	require.NoError(t, s.CreateOrder(ctx, order, items))
	assert.NotZero(t, order.ID)

	byKey, err := s.GetOrderByIdempotencyKey(ctx, order.IdempotencyKey)
	require.NoError(t, err)
	require.NotNil(t, byKey)
	assert.Equal(t, order.Reference, byKey.Reference)

	stored, err := s.GetOrderItems(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 2, stored[0].Quantity)

	require.NoError(t, s.UpdateOrderStatus(ctx, order.ID, models.OrderStatusReady))
	byRef, err := s.GetOrderByReference(ctx, order.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusReady, byRef.Status)

	assert.ErrorIs(t, s.UpdateOrderStatus(ctx, -1, models.OrderStatusReady), ErrNotFound)
}

func TestIdempotencyKeyIsUnique(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	key := uuid.NewString()

	first := &models.Donation{Reference: "DON-" + uuid.NewString()[:8], DonorName: "Jean", DonorEmail: "jean@example.com", AmountCents: 5000, IdempotencyKey: key}
	require.NoError(t, s.CreateDonation(ctx, first))

	second := &models.Donation{Reference: "DON-" + uuid.NewString()[:8], DonorName: "Paul", DonorEmail: "paul@example.com", AmountCents: 2500, IdempotencyKey: key}
	assert.Error(t, s.CreateDonation(ctx, second))

	missing, err := s.GetDonationByIdempotencyKey(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAllocateFundingClampsToTarget(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	proposal := models.FundingProposal{ID: "prop-" + uuid.NewString(), TargetAmount: 10000, RaisedAmount: 9000}
	alloc := &models.FundingAllocation{
		Reference:       "FND-" + uuid.NewString()[:8],
		PartnerID:       "partner-001",
		RequestedAmount: 2000,
		Status:          models.FundingStatusAllocated,
		IdempotencyKey:  uuid.NewString(),
	}

	progress, err := s.AllocateFundingTx(ctx, proposal, alloc)
	require.NoError(t, err)

	assert.Equal(t, int64(10000), progress.RaisedAmount)
	assert.Equal(t, int64(1000), alloc.Amount)

	stored, err := s.GetFundingProgress(ctx, proposal.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), stored.RaisedAmount)
}

func TestProcessedEvents(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	id := uuid.NewString()

	done, err := s.IsEventProcessed(ctx, id)
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, s.MarkEventProcessed(ctx, id, models.EventTypeOrderPlaced))
	require.NoError(t, s.MarkEventProcessed(ctx, id, models.EventTypeOrderPlaced))

	done, err = s.IsEventProcessed(ctx, id)
	require.NoError(t, err)
	assert.True(t, done)
}

func TestCreateRegistrationHonoursCapacity(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	target := "event-" + uuid.NewString()

	book := func(seats int) error {
		return s.CreateRegistration(ctx, &models.Registration{
			Reference:      "INS-" + uuid.NewString()[:8],
			TargetType:     models.RegistrationTargetEvent,
			TargetID:       target,
			Name:           "Emma",
			Email:          "emma@example.org",
			Seats:          seats,
			IdempotencyKey: uuid.NewString(),
		}, 3)
	}

	require.NoError(t, book(2))
	assert.ErrorIs(t, book(2), ErrSoldOut)
	require.NoError(t, book(1))
	assert.ErrorIs(t, book(1), ErrSoldOut)

	seats, err := s.CountSeats(ctx, models.RegistrationTargetEvent, target)
	require.NoError(t, err)
	assert.Equal(t, 3, seats)
}
