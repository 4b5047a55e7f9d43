package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semisto-service/internal/cart"
	"semisto-service/internal/service/servicetest"
)

func newTestCartService() (*CartService, *servicetest.Redis) {
	redis := servicetest.NewRedis()
	return NewCartService(redis, servicetest.NewCatalog(), time.Hour, 50, "EUR"), redis
}

func TestCartServiceCreateAndGet(t *testing.T) {
	svc, _ := newTestCartService()
	ctx := context.Background()

	created, err := svc.Create(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Zero(t, created.Subtotal)
	assert.Equal(t, 50.0, created.RemainingForFreePickup)
	assert.Equal(t, "EUR", created.Currency)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCartNotFound)
}

func TestCartServiceAddItem(t *testing.T) {
	svc, _ := newTestCartService()
	ctx := context.Background()

	c, err := svc.Create(ctx)
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, c.ID, "nope", 1)
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = svc.AddItem(ctx, c.ID, "p3", 1)
	assert.ErrorIs(t, err, cart.ErrOutOfStock)

	_, err = svc.AddItem(ctx, c.ID, "p1", 0)
	assert.ErrorIs(t, err, cart.ErrInvalidQuantity)

	_, err = svc.AddItem(ctx, c.ID, "p1", 1)
	require.NoError(t, err)
	view, err := svc.AddItem(ctx, c.ID, "p1", 1)
	require.NoError(t, err)

	require.Len(t, view.Lines, 1)
	assert.Equal(t, 2, view.Lines[0].Quantity)
	assert.Equal(t, 2, view.ItemCount)
	assert.InDelta(t, 50.0, view.Subtotal, 0.001)
	assert.Zero(t, view.RemainingForFreePickup)
	assert.Equal(t, 1.0, view.FreePickupProgress)

	// the stored cart reflects the merge
	stored, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.ItemCount)
}

func TestCartServiceSuggestions(t *testing.T) {
	svc, _ := newTestCartService()
	ctx := context.Background()

	c, err := svc.Create(ctx)
	require.NoError(t, err)

	view, err := svc.AddItem(ctx, c.ID, "p1", 1)
	require.NoError(t, err)

	ids := make([]string, 0, len(view.Suggestions))
	for _, p := range view.Suggestions {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"p2", "p4"}, ids)
}

func TestCartServiceUpdateAndRemove(t *testing.T) {
	svc, _ := newTestCartService()
	ctx := context.Background()

	c, err := svc.Create(ctx)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, c.ID, "p1", 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, c.ID, "p4", 2)
	require.NoError(t, err)

	view, err := svc.UpdateItem(ctx, c.ID, "p4", 5)
	require.NoError(t, err)
	assert.Equal(t, 6, view.ItemCount)

	_, err = svc.UpdateItem(ctx, c.ID, "p4", 11)
	assert.ErrorIs(t, err, cart.ErrOutOfStock)

	view, err = svc.UpdateItem(ctx, c.ID, "p4", 0)
	require.NoError(t, err)
	assert.False(t, view.Contains("p4"))

	view, err = svc.RemoveItem(ctx, c.ID, "p1")
	require.NoError(t, err)
	assert.True(t, view.IsEmpty())

	summary, err := svc.CartSummary(ctx, c.ID)
	require.NoError(t, err)
	assert.Zero(t, summary.ItemCount)

	require.NoError(t, svc.Delete(ctx, c.ID))
	_, err = svc.Get(ctx, c.ID)
	assert.ErrorIs(t, err, ErrCartNotFound)
}

func TestCartServiceAddItemCapsAtStock(t *testing.T) {
	svc, _ := newTestCartService()
	ctx := context.Background()

	c, err := svc.Create(ctx)
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, c.ID, "p1", 500)
	assert.ErrorIs(t, err, cart.ErrOutOfStock)

	_, err = svc.AddItem(ctx, c.ID, "p1", 5)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, c.ID, "p1", 1)
	assert.ErrorIs(t, err, cart.ErrOutOfStock)

	view, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, view.ItemCount)
	assert.InDelta(t, 125.0, view.Subtotal, 0.001)
}
