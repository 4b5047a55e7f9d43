package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semisto-service/internal/models"
	"semisto-service/internal/service/servicetest"
	"semisto-service/internal/workflow"
)

func TestRegistrationTarget(t *testing.T) {
	svc := NewRegistrationService(servicetest.NewStore(), servicetest.NewCatalog(), &servicetest.Publisher{})
	ctx := context.Background()

	target, err := svc.RegistrationTarget(ctx, models.RegistrationTargetEvent, "event-2")
	require.NoError(t, err)
	assert.Equal(t, 15.0, target.UnitPrice)
	assert.Equal(t, 3, target.SpotsAvailable)

	target, err = svc.RegistrationTarget(ctx, models.RegistrationTargetCourse, "design-jardin-foret")
	require.NoError(t, err)
	assert.Equal(t, "Design de jardin-forêt", target.Title)

	_, err = svc.RegistrationTarget(ctx, models.RegistrationTargetEvent, "event-404")
	assert.ErrorIs(t, err, ErrTargetNotFound)

	_, err = svc.RegistrationTarget(ctx, "webinar", "event-1")
	assert.ErrorIs(t, err, ErrTargetNotFound)
}

func TestRegisterDeductsBookedSeats(t *testing.T) {
	store := servicetest.NewStore()
	pub := &servicetest.Publisher{}
	svc := NewRegistrationService(store, servicetest.NewCatalog(), pub)
	ctx := context.Background()

	result, err := svc.Register(ctx, workflow.RegistrationRequest{
		RunID:         "run-1",
		TargetType:    models.RegistrationTargetEvent,
		TargetID:      "event-2",
		Seats:         2,
		Name:          "Emma",
		Email:         "emma@example.org",
		PaymentMethod: workflow.PaymentTransfer,
	})
	require.NoError(t, err)
	assert.Equal(t, "30.00", result[ResultTotal])
	assert.Equal(t, "Atelier greffe", result["title"])
	require.Len(t, pub.Registrations, 1)

	target, err := svc.RegistrationTarget(ctx, models.RegistrationTargetEvent, "event-2")
	require.NoError(t, err)
	assert.Equal(t, 1, target.SpotsAvailable)

	_, err = svc.Register(ctx, workflow.RegistrationRequest{
		RunID: "run-2", TargetType: models.RegistrationTargetEvent, TargetID: "event-2", Seats: 2,
	})
	assert.ErrorIs(t, err, ErrNoSeats)
	assert.Len(t, store.Registrations, 1)
}

func TestConcurrentRegistrationsDoNotOversell(t *testing.T) {
	store := servicetest.NewStore()
	svc := NewRegistrationService(store, servicetest.NewCatalog(), &servicetest.Publisher{})
	ctx := context.Background()

	const attempts = 10
	var wg sync.WaitGroup
	var booked, refused atomic.Int32
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Register(ctx, workflow.RegistrationRequest{
				RunID:      fmt.Sprintf("run-%d", i),
				TargetType: models.RegistrationTargetEvent,
				TargetID:   "event-2",
				Seats:      1,
				Name:       "Emma",
				Email:      "emma@example.org",
			})
			switch {
			case err == nil:
				booked.Add(1)
			case errors.Is(err, ErrNoSeats):
				refused.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(3), booked.Load())
	assert.Equal(t, int32(attempts-3), refused.Load())
	assert.Len(t, store.Registrations, 3)

	target, err := svc.RegistrationTarget(ctx, models.RegistrationTargetEvent, "event-2")
	require.NoError(t, err)
	assert.Zero(t, target.SpotsAvailable)
}

func TestRegisterIsIdempotent(t *testing.T) {
	store := servicetest.NewStore()
	svc := NewRegistrationService(store, servicetest.NewCatalog(), &servicetest.Publisher{})
	req := workflow.RegistrationRequest{RunID: "run-1", TargetType: models.RegistrationTargetEvent, TargetID: "event-1", Seats: 1}

	first, err := svc.Register(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first[ResultReference], second[ResultReference])
	assert.Len(t, store.Registrations, 1)
}

func TestFreeRegistrationDropsPaymentMethod(t *testing.T) {
	store := servicetest.NewStore()
	svc := NewRegistrationService(store, servicetest.NewCatalog(), &servicetest.Publisher{})

	_, err := svc.Register(context.Background(), workflow.RegistrationRequest{
		RunID: "run-1", TargetType: models.RegistrationTargetEvent, TargetID: "event-1", Seats: 1,
		PaymentMethod: workflow.PaymentOnSite,
	})
	require.NoError(t, err)
	require.Len(t, store.Registrations, 1)
	assert.Zero(t, store.Registrations[0].TotalCents)
	assert.Empty(t, store.Registrations[0].PaymentMethod)
}
