package models

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xelth-com/soletrack/internal/milestone"
)

func TestSample_ToMilestone(t *testing.T) {
	s := Sample{ID: 7, LineID: 3, Kind: "Counter Sample", ActualDate: "", TargetDate: "2026-11-02", Approval: "N/Cfm"}

	ms, err := s.ToMilestone()
	require.NoError(t, err)
	assert.Equal(t, uint(7), ms.ID)
	assert.Equal(t, uint(3), ms.LineID)
	assert.Equal(t, milestone.SubtypeCounterSample, ms.Kind)
	assert.Equal(t, milestone.DateUnset, ms.Actual.State)
	assert.Equal(t, milestone.DateScheduled, ms.Target.State)
	assert.Equal(t, "N/Cfm", ms.Approval)
}

func TestSample_ToMilestone_BadDate(t *testing.T) {
	s := Sample{ID: 9, ActualDate: "next week"}

	_, err := s.ToMilestone()
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "sample 9 actual date"), err.Error())
}

func TestPurchaseOrder_StatusDates(t *testing.T) {
	po := PurchaseOrder{Number: "PO-1", ShippingDate: "no-need", ETD: "2026-10-01"}

	dates, err := po.StatusDates()
	require.NoError(t, err)
	assert.Equal(t, milestone.DateNotNeeded, dates.Shipping.State)
	assert.True(t, dates.ETD.IsSet())

	po.ETD = "soon"
	_, err = po.StatusDates()
	assert.Error(t, err)
}

func TestPurchaseOrder_LogisticsColumns(t *testing.T) {
	po := PurchaseOrder{ShippingDate: "2026-12-01", BookingDate: "2026-11-20"}
	cols := po.LogisticsColumns()

	require.Len(t, cols, 4)
	for _, c := range cols {
		assert.Equal(t, milestone.CategoryLogistics, c.Category)
		assert.Empty(t, c.Actual, "PO dates carry no actual/target split")
	}
	assert.Equal(t, "2026-12-01", cols[0].Target)
	assert.Equal(t, "2026-11-20", cols[2].Target)
}

func TestOrderLine_Amounts(t *testing.T) {
	l := OrderLine{
		Quantity:  120,
		UnitPrice: decimal.RequireFromString("24.50"),
		UnitCost:  decimal.RequireFromString("17.25"),
	}

	assert.True(t, decimal.RequireFromString("2940").Equal(l.Amount()), l.Amount().String())
	assert.True(t, decimal.RequireFromString("870").Equal(l.Margin()), l.Margin().String())
}

func TestOrderLine_MilestoneColumns(t *testing.T) {
	l := OrderLine{LastingDate: "2026-10-10", LastingTarget: "2026-10-12"}
	cols := l.MilestoneColumns()

	require.Len(t, cols, 5)
	assert.Equal(t, milestone.SubtypeLasting, cols[2].Subtype)
	assert.Equal(t, milestone.CategoryProduction, cols[2].Category)
	assert.Equal(t, "2026-10-10", cols[2].Actual)
	assert.Equal(t, milestone.CategoryLogistics, cols[4].Category)
}

func TestPurchaseOrder_GeneratedNumber(t *testing.T) {
	po := &PurchaseOrder{}
	require.NoError(t, po.BeforeCreate(nil))
	assert.True(t, strings.HasPrefix(po.Number, "PO"))
	assert.Len(t, po.Number, len("PO20261019-ABCD"))

	kept := &PurchaseOrder{Number: "4500012345"}
	require.NoError(t, kept.BeforeCreate(nil))
	assert.Equal(t, "4500012345", kept.Number)
}
