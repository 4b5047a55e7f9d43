package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semisto-service/internal/service/servicetest"
	"semisto-service/internal/workflow"
)

func TestDonate(t *testing.T) {
	store := servicetest.NewStore()
	pub := &servicetest.Publisher{}
	svc := NewDonationService(store, pub)

	result, err := svc.Donate(context.Background(), workflow.DonationRequest{
		RunID:   "run-1",
		Amount:  37.5,
		Monthly: true,
		Name:    "Lucas Martin",
		Email:   "lucas@example.org",
	})
	require.NoError(t, err)

	assert.Regexp(t, `^DON-[0-9A-F]{8}$`, result[ResultReference])
	require.Len(t, store.Donations, 1)
	assert.Equal(t, int64(3750), store.Donations[0].AmountCents)
	assert.True(t, store.Donations[0].Monthly)

	require.Len(t, pub.Donations, 1)
	assert.Equal(t, int64(3750), pub.Donations[0].AmountCents)
}

func TestDonateIsIdempotent(t *testing.T) {
	store := servicetest.NewStore()
	svc := NewDonationService(store, &servicetest.Publisher{})
	req := workflow.DonationRequest{RunID: "run-1", Amount: 10, Name: "A", Email: "a@example.org"}

	first, err := svc.Donate(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Donate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first[ResultReference], second[ResultReference])
	assert.Len(t, store.Donations, 1)
}

func TestDonateRejectsNonPositive(t *testing.T) {
	svc := NewDonationService(servicetest.NewStore(), &servicetest.Publisher{})
	_, err := svc.Donate(context.Background(), workflow.DonationRequest{RunID: "r", Amount: 0})
	assert.Error(t, err)
}

func TestDonationFlowThroughService(t *testing.T) {
	store := servicetest.NewStore()
	svc := NewDonationService(store, &servicetest.Publisher{})
	engine := workflow.NewEngine(0, workflow.NewDonationFlow(svc.Donate))
	ctx := context.Background()

	run, err := engine.Start(ctx, workflow.KindDonation, "run-1", nil)
	require.NoError(t, err)

	require.NoError(t, engine.Dispatch(ctx, run, workflow.Action{Type: workflow.ActionNext}))
	require.NoError(t, engine.Dispatch(ctx, run, workflow.Action{Type: workflow.ActionSet, Fields: workflow.Fields{
		workflow.FieldName:  "Lucas",
		workflow.FieldEmail: "lucas@example.org",
	}}))
	require.NoError(t, engine.Dispatch(ctx, run, workflow.Action{Type: workflow.ActionNext}))

	assert.True(t, run.Completed)
	assert.Equal(t, "50", run.Result[workflow.FieldAmount])
	assert.NotEmpty(t, run.Result[ResultReference])
	require.Len(t, store.Donations, 1)
	assert.Equal(t, int64(5000), store.Donations[0].AmountCents)
}

func TestDonationStoreFailureLeavesRunOpen(t *testing.T) {
	store := servicetest.NewStore()
	store.FailCreate = errors.New("db down")
	svc := NewDonationService(store, &servicetest.Publisher{})
	engine := workflow.NewEngine(0, workflow.NewDonationFlow(svc.Donate))
	ctx := context.Background()

	run, err := engine.Start(ctx, workflow.KindDonation, "run-1", workflow.Fields{
		workflow.FieldName:  "Lucas",
		workflow.FieldEmail: "lucas@example.org",
	})
	require.NoError(t, err)
	require.NoError(t, engine.Dispatch(ctx, run, workflow.Action{Type: workflow.ActionNext}))

	assert.Error(t, engine.Dispatch(ctx, run, workflow.Action{Type: workflow.ActionNext}))
	assert.False(t, run.Completed)
	assert.Equal(t, "info", run.Step)
}
