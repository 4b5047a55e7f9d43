package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type donationRecorder struct {
	calls []DonationRequest
	err   error
}

func (d *donationRecorder) donate(ctx context.Context, req DonationRequest) (Fields, error) {
	d.calls = append(d.calls, req)
	if d.err != nil {
		return nil, d.err
	}
	return Fields{"reference": "DON-1"}, nil
}

func newDonationEngine(rec *donationRecorder) *Engine {
	return NewEngine(time.Millisecond, NewDonationFlow(rec.donate))
}

func mustDispatch(t *testing.T, e *Engine, run *Run, action Action) {
	t.Helper()
	require.NoError(t, e.Dispatch(context.Background(), run, action))
}

func TestDonationCustomAmountNonNumericBlocksAmountStep(t *testing.T) {
	rec := &donationRecorder{}
	e := newDonationEngine(rec)
	run, err := e.Start(context.Background(), KindDonation, "run-1", nil)
	require.NoError(t, err)

	mustDispatch(t, e, run, Action{Type: ActionCustomAmount, Value: "abc"})
	err = e.Dispatch(context.Background(), run, Action{Type: ActionNext})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "amount", verr.Step)
	assert.Contains(t, verr.Problems, FieldAmount)
	assert.Equal(t, "amount", run.Step)
	assert.Empty(t, rec.calls)
}

func TestDonationCommitsExactlyOnce(t *testing.T) {
	rec := &donationRecorder{}
	e := newDonationEngine(rec)
	ctx := context.Background()

	run, err := e.Start(ctx, KindDonation, "run-1", nil)
	require.NoError(t, err)
	assert.Equal(t, "amount", run.Step)

	mustDispatch(t, e, run, Action{Type: ActionSelectPreset, Value: "50"})
	mustDispatch(t, e, run, Action{Type: ActionNext})
	assert.Equal(t, "info", run.Step)

	mustDispatch(t, e, run, Action{Type: ActionSet, Fields: Fields{FieldName: "Jean", FieldEmail: "jean@example.com"}})
	mustDispatch(t, e, run, Action{Type: ActionNext})

	assert.Equal(t, "thanks", run.Step)
	assert.True(t, run.Completed)
	require.NotNil(t, run.CompletedAt)
	require.Len(t, rec.calls, 1)
	assert.Equal(t, 50.0, rec.calls[0].Amount)
	assert.False(t, rec.calls[0].Monthly)
	assert.Equal(t, "Jean", rec.calls[0].Name)
	assert.Equal(t, "DON-1", run.Result["reference"])
	assert.Equal(t, "10m² de jardin-forêt créé", run.Result[FieldImpact])

	for _, action := range []Action{{Type: ActionNext}, {Type: ActionPrevious}, {Type: ActionSet, Fields: Fields{FieldName: "Paul"}}} {
		err := e.Dispatch(ctx, run, action)
		assert.ErrorIs(t, err, ErrAlreadyCompleted)
	}
	assert.Len(t, rec.calls, 1)
	assert.Equal(t, "thanks", run.Step)
	assert.Equal(t, "Jean", run.Fields[FieldName])
}

func TestDonationPresetAndCustomAreExclusive(t *testing.T) {
	e := newDonationEngine(&donationRecorder{})
	def, _ := e.Definition(KindDonation)
	run, err := e.Start(context.Background(), KindDonation, "run-1", nil)
	require.NoError(t, err)

	assert.Equal(t, 50.0, Amount(def, run.Fields))

	mustDispatch(t, e, run, Action{Type: ActionCustomAmount, Value: "30"})
	assert.Equal(t, 30.0, Amount(def, run.Fields))

	mustDispatch(t, e, run, Action{Type: ActionSelectPreset, Value: "100"})
	assert.Equal(t, 100.0, Amount(def, run.Fields))
	assert.Equal(t, AmountModePreset, run.Fields[FieldAmountMode])

	mustDispatch(t, e, run, Action{Type: ActionCustomAmount, Value: ""})
	assert.Zero(t, Amount(def, run.Fields))
}

func TestSelectPresetRejectsUnknownAmount(t *testing.T) {
	e := newDonationEngine(&donationRecorder{})
	run, err := e.Start(context.Background(), KindDonation, "run-1", nil)
	require.NoError(t, err)

	err = e.Dispatch(context.Background(), run, Action{Type: ActionSelectPreset, Value: "42"})

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, "50", run.Fields[FieldPreset])
}

func TestDonationMonthlyFrequency(t *testing.T) {
	rec := &donationRecorder{}
	e := newDonationEngine(rec)
	run, err := e.Start(context.Background(), KindDonation, "run-1", nil)
	require.NoError(t, err)

	err = e.Dispatch(context.Background(), run, Action{Type: ActionFrequency, Value: "weekly"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	mustDispatch(t, e, run, Action{Type: ActionFrequency, Value: FrequencyMonthly})
	mustDispatch(t, e, run, Action{Type: ActionNext})
	mustDispatch(t, e, run, Action{Type: ActionSet, Fields: Fields{FieldName: "Ana", FieldEmail: "ana@example.com"}})
	mustDispatch(t, e, run, Action{Type: ActionNext})

	require.Len(t, rec.calls, 1)
	assert.True(t, rec.calls[0].Monthly)
}

func TestInfoStepRequiresValidEmail(t *testing.T) {
	e := newDonationEngine(&donationRecorder{})
	run, err := e.Start(context.Background(), KindDonation, "run-1", nil)
	require.NoError(t, err)
	mustDispatch(t, e, run, Action{Type: ActionNext})

	mustDispatch(t, e, run, Action{Type: ActionSet, Fields: Fields{FieldName: "Jean", FieldEmail: "not-an-email"}})
	err = e.Dispatch(context.Background(), run, Action{Type: ActionNext})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Problems, FieldEmail)
	assert.Equal(t, "info", run.Step)
}

func TestFailedCommitKeepsPreviousStep(t *testing.T) {
	rec := &donationRecorder{err: errors.New("ledger unavailable")}
	e := newDonationEngine(rec)
	ctx := context.Background()
	run, err := e.Start(ctx, KindDonation, "run-1", Fields{FieldName: "Jean", FieldEmail: "jean@example.com"})
	require.NoError(t, err)
	mustDispatch(t, e, run, Action{Type: ActionNext})

	err = e.Dispatch(ctx, run, Action{Type: ActionNext})

	require.Error(t, err)
	assert.Equal(t, "info", run.Step)
	assert.False(t, run.Completed)
	assert.Nil(t, run.Result)

	rec.err = nil
	mustDispatch(t, e, run, Action{Type: ActionNext})
	assert.True(t, run.Completed)
	assert.Len(t, rec.calls, 2)
}

func TestCommitHonoursCancellation(t *testing.T) {
	rec := &donationRecorder{}
	e := NewEngine(time.Hour, NewDonationFlow(rec.donate))
	run, err := e.Start(context.Background(), KindDonation, "run-1", Fields{FieldName: "Jean", FieldEmail: "jean@example.com"})
	require.NoError(t, err)
	mustDispatch(t, e, run, Action{Type: ActionNext})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = e.Dispatch(ctx, run, Action{Type: ActionNext})

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, run.Completed)
	assert.Equal(t, "info", run.Step)
	assert.Empty(t, rec.calls)
}

func TestPreviousKeepsFieldsAndStopsAtFirstStep(t *testing.T) {
	e := newDonationEngine(&donationRecorder{})
	run, err := e.Start(context.Background(), KindDonation, "run-1", nil)
	require.NoError(t, err)

	mustDispatch(t, e, run, Action{Type: ActionPrevious})
	assert.Equal(t, "amount", run.Step)

	mustDispatch(t, e, run, Action{Type: ActionNext})
	mustDispatch(t, e, run, Action{Type: ActionSet, Fields: Fields{FieldName: "Jean"}})
	mustDispatch(t, e, run, Action{Type: ActionPrevious})

	assert.Equal(t, "amount", run.Step)
	assert.Equal(t, "Jean", run.Fields[FieldName])
}

func TestNextBlockedIffGuardFails(t *testing.T) {
	tests := []struct {
		custom  string
		blocked bool
	}{
		{"abc", true},
		{"", true},
		{"0", true},
		{"-5", true},
		{"0.5", false},
		{"12abc", false},
		{"75", false},
	}

	for _, tt := range tests {
		t.Run(tt.custom, func(t *testing.T) {
			e := newDonationEngine(&donationRecorder{})
			def, _ := e.Definition(KindDonation)
			run, err := e.Start(context.Background(), KindDonation, "run-1", nil)
			require.NoError(t, err)
			mustDispatch(t, e, run, Action{Type: ActionCustomAmount, Value: tt.custom})

			guardFails := len(def.Steps[0].Guard(run.Fields)) > 0
			err = e.Dispatch(context.Background(), run, Action{Type: ActionNext})

			assert.Equal(t, tt.blocked, guardFails)
			assert.Equal(t, tt.blocked, err != nil)
		})
	}
}

func TestUnknownKindAndAction(t *testing.T) {
	e := newDonationEngine(&donationRecorder{})

	_, err := e.Start(context.Background(), "lottery", "run-1", nil)
	assert.ErrorIs(t, err, ErrUnknownKind)

	run, err := e.Start(context.Background(), KindDonation, "run-1", nil)
	require.NoError(t, err)
	assert.ErrorIs(t, e.Dispatch(context.Background(), run, Action{Type: "jump"}), ErrUnknownAction)
}

func TestValidationErrorMessageIsStable(t *testing.T) {
	err := &ValidationError{Step: "info", Problems: Problems{"name": "is required", "email": "is required"}}
	assert.Equal(t, "step info is incomplete: email: is required; name: is required", err.Error())
}

func TestParseFloatPrefix(t *testing.T) {
	tests := map[string]float64{
		"":       0,
		"abc":    0,
		"50":     50,
		" 12.5 ": 12.5,
		"12abc":  12,
		".5":     0.5,
		"1e2":    100,
		"-3":     -3,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseFloatPrefix(in), in)
	}
}

func TestParseIntPrefix(t *testing.T) {
	assert.Equal(t, 12.0, ParseIntPrefix("12.7"))
	assert.Equal(t, 2500.0, ParseIntPrefix("2500€"))
	assert.Zero(t, ParseIntPrefix("€2500"))
	assert.Zero(t, ParseIntPrefix(""))
}

func TestImpactMessage(t *testing.T) {
	assert.Empty(t, ImpactMessage(5))
	assert.Equal(t, "1 arbuste à petits fruits planté", ImpactMessage(10))
	assert.Equal(t, "5 arbres fruitiers en pépinière", ImpactMessage(49.99))
	assert.Equal(t, "50m² de forêt comestible plantée", ImpactMessage(1000))
}
