package milestone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRule_SeverityBoundaries(t *testing.T) {
	table := DefaultRuleTable()

	cfm, ok := table.Lookup(CategorySample, SubtypeCFM)
	require.True(t, ok)

	// high if <= 3 days remaining
	assert.Equal(t, SeverityHigh, cfm.Severity(-10))
	assert.Equal(t, SeverityHigh, cfm.Severity(0))
	assert.Equal(t, SeverityHigh, cfm.Severity(3))
	assert.Equal(t, SeverityMedium, cfm.Severity(4))
	assert.Equal(t, SeverityMedium, cfm.Severity(25))

	fitting, ok := table.Lookup(CategorySample, SubtypeFitting)
	require.True(t, ok)
	assert.Equal(t, SeverityHigh, fitting.Severity(5))
	assert.Equal(t, SeverityMedium, fitting.Severity(6))
	assert.Equal(t, SeverityMedium, fitting.Severity(20))
	assert.Equal(t, SeverityMedium, fitting.Severity(45))

	inspection, ok := table.Lookup(CategorySample, SubtypeInspection)
	require.True(t, ok)
	assert.Equal(t, SeverityHigh, inspection.Severity(1))
	assert.Equal(t, SeverityMedium, inspection.Severity(2))
}

func TestRule_DefaultsHaveNoLowTier(t *testing.T) {
	for _, r := range DefaultRuleTable().Rules() {
		for d := r.HighBelow; d <= r.LeadTimeDays; d++ {
			assert.Equal(t, SeverityMedium, r.Severity(d), "%s/%s at %d days", r.Category, r.Subtype, d)
		}
	}
}

func TestRule_LowTierFromOverride(t *testing.T) {
	table, err := DefaultRuleTable().Merge(Rule{Category: CategorySample, Subtype: SubtypeFitting, LeadTimeDays: 45, HighBelow: 6, MediumBelow: 20})
	require.NoError(t, err)

	fitting, ok := table.Lookup(CategorySample, SubtypeFitting)
	require.True(t, ok)
	assert.Equal(t, SeverityMedium, fitting.Severity(19))
	assert.Equal(t, SeverityLow, fitting.Severity(20))
}

func TestRule_SeverityMonotonic(t *testing.T) {
	for _, r := range DefaultRuleTable().Rules() {
		prev := r.Severity(-30).Rank()
		for d := -29; d <= r.LeadTimeDays+30; d++ {
			rank := r.Severity(d).Rank()
			assert.LessOrEqual(t, rank, prev, "%s/%s at %d days", r.Category, r.Subtype, d)
			prev = rank
		}
	}
}

func TestRule_Fires(t *testing.T) {
	table := DefaultRuleTable()

	inspection, _ := table.Lookup(CategorySample, SubtypeInspection)
	assert.False(t, inspection.Fires(2))
	assert.True(t, inspection.Fires(1))
	assert.True(t, inspection.Fires(-3))

	cfm, _ := table.Lookup(CategorySample, SubtypeCFM)
	assert.True(t, cfm.Fires(25))
	assert.False(t, cfm.Fires(26))
}

func TestRuleTable_UnknownPair(t *testing.T) {
	table := DefaultRuleTable()

	_, ok := table.Lookup(CategoryLogistics, SubtypeBooking)
	assert.False(t, ok)
	_, ok = table.Lookup(CategorySample, "heel_test")
	assert.False(t, ok)

	var empty *RuleTable
	_, ok = empty.Lookup(CategorySample, SubtypeCFM)
	assert.False(t, ok)
}

func TestNewRuleTable_Validation(t *testing.T) {
	testCases := []struct {
		name        string
		rules       []Rule
		expectError string
	}{
		{"missing subtype", []Rule{{Category: CategorySample}}, "rule needs category and subtype"},
		{"negative lead", []Rule{{Category: CategorySample, Subtype: SubtypeCFM, LeadTimeDays: -1}}, "rule muestra/cfm: lead time cannot be negative, got -1"},
		{"medium under high", []Rule{{Category: CategorySample, Subtype: SubtypeCFM, LeadTimeDays: 5, HighBelow: 4, MediumBelow: 3}}, "rule muestra/cfm: medium cutoff 3 must be above high cutoff 4"},
		{"duplicate", []Rule{
			{Category: CategorySample, Subtype: SubtypeCFM, LeadTimeDays: 5},
			{Category: CategorySample, Subtype: SubtypeCFM, LeadTimeDays: 6},
		}, "duplicate rule for muestra/cfm"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewRuleTable(tc.rules...)
			require.Error(t, err)
			assert.Equal(t, tc.expectError, err.Error())
		})
	}
}

func TestRuleTable_Merge(t *testing.T) {
	base := DefaultRuleTable()

	merged, err := base.Merge(
		Rule{Category: CategoryLogistics, Subtype: SubtypeBooking, LeadTimeDays: 7, HighBelow: 2},
		Rule{Category: CategorySample, Subtype: SubtypeCFM, LeadTimeDays: 30, HighBelow: 5},
	)
	require.NoError(t, err)

	booking, ok := merged.Lookup(CategoryLogistics, SubtypeBooking)
	require.True(t, ok)
	assert.Equal(t, 7, booking.LeadTimeDays)

	cfm, _ := merged.Lookup(CategorySample, SubtypeCFM)
	assert.Equal(t, 30, cfm.LeadTimeDays)

	// the original table is untouched
	orig, _ := base.Lookup(CategorySample, SubtypeCFM)
	assert.Equal(t, 25, orig.LeadTimeDays)
	_, ok = base.Lookup(CategoryLogistics, SubtypeBooking)
	assert.False(t, ok)
	assert.Len(t, merged.Rules(), len(DefaultRules)+1)
}

func TestNormalizeSubtype(t *testing.T) {
	assert.Equal(t, SubtypeCounterSample, NormalizeSubtype("Counter Sample"))
	assert.Equal(t, SubtypeShippingSample, NormalizeSubtype(" shipping-sample "))
	assert.Equal(t, SubtypePPS, NormalizeSubtype("PPS"))
	assert.Equal(t, SubtypeCFM, NormalizeSubtype("cfm"))
}
