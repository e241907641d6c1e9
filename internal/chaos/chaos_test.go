package chaos

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booknest/internal/platform/logger"
)

func newSandbox(t *testing.T, stock int) *Sandbox {
	t.Helper()
	sb, err := NewSandbox(context.Background(), stock, logger.Nop())
	require.NoError(t, err)
	return sb
}

func TestThresholdHolds(t *testing.T) {
	cases := []struct {
		op   string
		v    float64
		want bool
	}{
		{">", 2, true},
		{">", 1, false},
		{"<", 0, true},
		{">=", 1, true},
		{"<=", 2, false},
		{"==", 1, true},
		{"!=", 1, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Threshold{Operator: c.op, Value: 1}.Holds(c.v), "%s %v", c.op, c.v)
	}
}

func TestRunAbortsOnBrokenSteadyState(t *testing.T) {
	injected := false
	exp := Experiment{
		Name: "broken",
		SteadyState: []Probe{{
			Name:      "always_one",
			Query:     func(context.Context) (float64, error) { return 1, nil },
			Threshold: Threshold{Operator: "==", Value: 0},
		}},
		Method: []Action{{Target: "x", Execute: func(context.Context) error { injected = true; return nil }}},
	}

	report, err := NewEngine(logger.Nop()).Run(context.Background(), exp)
	assert.ErrorIs(t, err, ErrSteadyState)
	assert.False(t, report.SteadyState)
	assert.False(t, injected)
	require.Len(t, report.Violations, 1)
	assert.Equal(t, "always_one", report.Violations[0].Probe)
}

func TestRunRecordsProbeAndActionErrors(t *testing.T) {
	calls := 0
	exp := Experiment{
		Name: "flaky-probe",
		SteadyState: []Probe{{
			Name: "second_call_fails",
			Query: func(context.Context) (float64, error) {
				calls++
				if calls == 2 {
					return 0, errors.New("probe down")
				}
				return 0, nil
			},
			Threshold: Threshold{Operator: "==", Value: 0},
		}},
		Method: []Action{{Target: "svc", Execute: func(context.Context) error { return errors.New("boom") }}},
	}

	report, err := NewEngine(logger.Nop()).Run(context.Background(), exp)
	require.NoError(t, err)
	assert.False(t, report.HypothesisHeld)
	assert.Equal(t, []string{"svc: boom", "second_call_fails: probe down"}, report.Errors)
}

func TestPurchaseRaceNeverOversells(t *testing.T) {
	sb := newSandbox(t, 5)

	report, err := NewEngine(logger.Nop()).Run(context.Background(), sb.PurchaseRace(40))
	require.NoError(t, err)
	assert.True(t, report.SteadyState)
	assert.True(t, report.HypothesisHeld, "violations: %+v errors: %v", report.Violations, report.Errors)
	assert.Empty(t, report.Errors)

	b, err := sb.Books.GetBook(context.Background(), sb.BookID)
	require.NoError(t, err)
	assert.Equal(t, 0, b.AvailableQuantity)

	orders, err := sb.Purchases.ListSellerPurchases(context.Background(), sb.SellerID)
	require.NoError(t, err)
	assert.Len(t, orders, 5)
}

func TestOrderStoreFailureReleasesReservations(t *testing.T) {
	sb := newSandbox(t, 3)

	report, err := NewEngine(logger.Nop()).Run(context.Background(), sb.OrderStoreFailure(2))
	require.NoError(t, err)
	assert.True(t, report.HypothesisHeld, "violations: %+v errors: %v", report.Violations, report.Errors)
	assert.Empty(t, report.Errors)

	b, err := sb.Books.GetBook(context.Background(), sb.BookID)
	require.NoError(t, err)
	assert.Equal(t, 3, b.AvailableQuantity)

	require.NoError(t, sb.buyOne(context.Background()))
}

func TestBookStoreLatencyRecovers(t *testing.T) {
	sb := newSandbox(t, 1)

	exp := sb.BookStoreLatency(60*time.Millisecond, 30*time.Millisecond, 150*time.Millisecond)
	report, err := NewEngine(logger.Nop()).Run(context.Background(), exp)
	require.NoError(t, err)
	assert.True(t, report.HypothesisHeld)
	assert.NotEmpty(t, report.Violations)
	require.NotNil(t, report.MTTR)
	assert.Positive(t, *report.MTTR)
}

func TestFaultsHonourContext(t *testing.T) {
	f := &Faults{}
	f.SetLatency(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, f.inject(ctx), context.Canceled)

	f.Reset()
	f.FailNext(1)
	assert.ErrorIs(t, f.inject(context.Background()), ErrInjected)
	assert.NoError(t, f.inject(context.Background()))
}
