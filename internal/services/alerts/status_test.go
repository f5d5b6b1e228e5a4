package alerts

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xelth-com/soletrack/internal/milestone"
	"github.com/xelth-com/soletrack/internal/models"
)

func TestDeriveSampleStatusView(t *testing.T) {
	m := fixtureStore()
	svc := newTestService(m, PolicyUpsert)
	ctx := context.Background()

	view, err := svc.DeriveSampleStatus(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, milestone.SamplePending, view.Status)
	assert.Equal(t, milestone.SubtypeCFM, view.Kind)
	assert.True(t, view.Estimated)
	require.NotNil(t, view.DaysRemaining)
	assert.Equal(t, 2, *view.DaysRemaining)
	assert.Nil(t, view.Alert)

	_, err = svc.Generate(ctx, models.RunTriggerManual)
	require.NoError(t, err)

	view, err = svc.DeriveSampleStatus(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, view.Alert)
	assert.Equal(t, "muestra:cfm:sample:1", view.Alert.DedupKey)

	sent, err := svc.DeriveSampleStatus(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, milestone.SampleSent, sent.Status)
	assert.False(t, sent.Estimated)
	assert.Nil(t, sent.Alert)

	rejected, err := svc.DeriveSampleStatus(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, milestone.SampleRejected, rejected.Status)

	_, err = svc.DeriveSampleStatus(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeriveSampleStatusWithoutDates(t *testing.T) {
	m := newMemStore()
	m.addSample(models.Sample{ID: 1, LineID: 1, Kind: "testing", TargetDate: "no-need"})
	svc := newTestService(m, PolicyUpsert)

	view, err := svc.DeriveSampleStatus(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, milestone.SampleNoNeed, view.Status)
	assert.Nil(t, view.EffectiveDate)
	assert.Nil(t, view.DaysRemaining)
}

func TestDeriveLineSemaphoreView(t *testing.T) {
	m := fixtureStore()
	m.lines[10].Quantity = 1200
	m.lines[10].UnitPrice = decimal.RequireFromString("18.50")
	m.lines[10].UnitCost = decimal.RequireFromString("14.25")
	svc := newTestService(m, PolicyUpsert)
	ctx := context.Background()

	view, err := svc.DeriveLineSemaphore(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, milestone.SemaphoreProblem, view.Semaphore)
	assert.Equal(t, "red", view.Light)
	assert.Len(t, view.Samples, 4)
	assert.True(t, decimal.RequireFromString("22200").Equal(view.Amount))
	assert.True(t, decimal.RequireFromString("5100").Equal(view.Margin), view.Margin.String())

	m.samples[4].Approval = "Cfm"
	view, err = svc.DeriveLineSemaphore(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, milestone.SemaphoreInProgress, view.Semaphore)

	m.samples[1].ActualDate = day(0)
	m.samples[2].ActualDate = "no-need"
	view, err = svc.DeriveLineSemaphore(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, milestone.SemaphoreOK, view.Semaphore)
	assert.Equal(t, "green", view.Light)

	m.addLine(models.OrderLine{ID: 11, PurchaseOrderID: 100})
	empty, err := svc.DeriveLineSemaphore(ctx, 11)
	require.NoError(t, err)
	assert.Equal(t, milestone.SemaphoreNoSamples, empty.Semaphore)
	assert.Empty(t, empty.Samples)
}

func TestDeriveLineSemaphoreBadSample(t *testing.T) {
	m := fixtureStore()
	m.samples[3].ActualDate = "yesterday-ish"
	svc := newTestService(m, PolicyUpsert)

	_, err := svc.DeriveLineSemaphore(context.Background(), 10)
	assert.ErrorContains(t, err, "sample 3 actual date")
}

func TestDerivePOStatusView(t *testing.T) {
	testCases := []struct {
		name     string
		shipping string
		etd      string
		want     milestone.POStatus
	}{
		{"shipped", day(-1), day(-10), milestone.POCompleted},
		{"ships today", day(0), "", milestone.POInProduction},
		{"etd missed", "", day(-1), milestone.PODelay},
		{"etd upcoming", "", day(10), milestone.PONoData},
		{"nothing", "", "", milestone.PONoData},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := fixtureStore()
			m.orders[100].ShippingDate = tc.shipping
			m.orders[100].ETD = tc.etd
			svc := newTestService(m, PolicyUpsert)

			view, err := svc.DerivePOStatus(context.Background(), 100)
			require.NoError(t, err)
			assert.Equal(t, tc.want, view.Status)
			assert.Equal(t, "PO-2611", view.Number)
			require.Len(t, view.Lines, 1)
			assert.Equal(t, milestone.SemaphoreProblem, view.Lines[0].Semaphore)
		})
	}
}

func TestDerivePOStatusErrors(t *testing.T) {
	m := fixtureStore()
	svc := newTestService(m, PolicyUpsert)
	ctx := context.Background()

	_, err := svc.DerivePOStatus(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	m.orders[100].ETD = "next week"
	_, err = svc.DerivePOStatus(ctx, 100)
	assert.ErrorContains(t, err, "po PO-2611 etd")
}
