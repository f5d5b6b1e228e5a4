package milestone

import (
	"fmt"
	"sort"
	"strings"
)

// Category groups the milestones an alert can be raised for
type Category string

const (
	CategorySample     Category = "muestra"    // quality/production samples of a line
	CategoryProduction Category = "produccion" // factory steps of a line
	CategoryLogistics  Category = "logistica"  // shipping/ETD/booking dates
)

// Subtype identifies a milestone inside its category
type Subtype string

// Sample checkpoints
const (
	SubtypeCFM            Subtype = "cfm"
	SubtypeCounterSample  Subtype = "counter_sample"
	SubtypeFitting        Subtype = "fitting"
	SubtypePPS            Subtype = "pps"
	SubtypeTesting        Subtype = "testing"
	SubtypeShippingSample Subtype = "shipping_sample"
	SubtypeInspection     Subtype = "inspection"
)

// Production steps
const (
	SubtypeTrialUpper   Subtype = "trial_upper"
	SubtypeTrialLasting Subtype = "trial_lasting"
	SubtypeLasting      Subtype = "lasting"
)

// Logistics dates
const (
	SubtypeFinish   Subtype = "finish"
	SubtypeShipping Subtype = "shipping"
	SubtypeETD      Subtype = "etd"
	SubtypeBooking  Subtype = "booking"
	SubtypeClosing  Subtype = "closing"
)

// SampleKinds lists the checkpoint kinds a sample may have
var SampleKinds = []Subtype{
	SubtypeCFM, SubtypeCounterSample, SubtypeFitting, SubtypePPS,
	SubtypeTesting, SubtypeShippingSample, SubtypeInspection,
}

// NormalizeSubtype folds imported spellings ("Counter Sample", "PPS", "shipping-sample")
// into the canonical subtype
func NormalizeSubtype(raw string) Subtype {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	return Subtype(strings.Join(strings.Fields(s), "_"))
}

// Label is the short upper-case name used in alert messages
func (s Subtype) Label() string {
	switch s {
	case SubtypeCFM:
		return "CFM"
	case SubtypeCounterSample:
		return "COUNTER"
	case SubtypeFitting:
		return "FITTING"
	case SubtypePPS:
		return "PPS"
	case SubtypeTesting:
		return "TESTING"
	case SubtypeShippingSample:
		return "SHIPPING SAMPLE"
	case SubtypeInspection:
		return "INSPECTION"
	case SubtypeTrialUpper:
		return "TRIAL UPPER"
	case SubtypeTrialLasting:
		return "TRIAL LASTING"
	case SubtypeLasting:
		return "LASTING"
	case SubtypeFinish:
		return "FINISH"
	case SubtypeShipping:
		return "SHIPPING"
	case SubtypeETD:
		return "ETD"
	case SubtypeBooking:
		return "BOOKING"
	case SubtypeClosing:
		return "CLOSING"
	default:
		return string(s)
	}
}

// Severity is the urgency of a firing alert
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Rank orders severities, higher is more urgent
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Rule is one row of the monitoring table
type Rule struct {
	Category     Category `mapstructure:"category" json:"category"`
	Subtype      Subtype  `mapstructure:"subtype" json:"subtype"`
	LeadTimeDays int      `mapstructure:"lead_time_days" json:"leadTimeDays"`
	// HighBelow: days remaining strictly below this value are high severity
	HighBelow int `mapstructure:"high_below" json:"highBelow"`
	// MediumBelow: 0 means every non-high firing is medium, otherwise values
	// at or above it are low
	MediumBelow int `mapstructure:"medium_below" json:"mediumBelow"`
}

// Severity is the tiered threshold function shared by every rule
func (r Rule) Severity(daysRemaining int) Severity {
	if daysRemaining < r.HighBelow {
		return SeverityHigh
	}
	if r.MediumBelow == 0 || daysRemaining < r.MediumBelow {
		return SeverityMedium
	}
	return SeverityLow
}

// Fires reports whether a deadline this many days away is inside the lead-time window.
// Overdue deadlines (negative days) are inside the window.
func (r Rule) Fires(daysRemaining int) bool {
	return daysRemaining <= r.LeadTimeDays
}

func (r Rule) validate() error {
	if r.Category == "" || r.Subtype == "" {
		return fmt.Errorf("rule needs category and subtype")
	}
	if r.LeadTimeDays < 0 {
		return fmt.Errorf("rule %s/%s: lead time cannot be negative, got %d", r.Category, r.Subtype, r.LeadTimeDays)
	}
	if r.HighBelow < 0 {
		return fmt.Errorf("rule %s/%s: high cutoff cannot be negative, got %d", r.Category, r.Subtype, r.HighBelow)
	}
	if r.MediumBelow != 0 && r.MediumBelow <= r.HighBelow {
		return fmt.Errorf("rule %s/%s: medium cutoff %d must be above high cutoff %d", r.Category, r.Subtype, r.MediumBelow, r.HighBelow)
	}
	return nil
}

type ruleKey struct {
	category Category
	subtype  Subtype
}

// RuleTable is read-only once built
type RuleTable struct {
	rules map[ruleKey]Rule
}

// NewRuleTable validates and indexes rules. Duplicate keys are rejected.
func NewRuleTable(rules ...Rule) (*RuleTable, error) {
	t := &RuleTable{rules: make(map[ruleKey]Rule, len(rules))}
	for _, r := range rules {
		if err := r.validate(); err != nil {
			return nil, err
		}
		k := ruleKey{r.Category, r.Subtype}
		if _, dup := t.rules[k]; dup {
			return nil, fmt.Errorf("duplicate rule for %s/%s", r.Category, r.Subtype)
		}
		t.rules[k] = r
	}
	return t, nil
}

// Lookup returns the rule for a milestone. ok is false when nothing is configured,
// which callers treat as "not monitored".
func (t *RuleTable) Lookup(category Category, subtype Subtype) (Rule, bool) {
	if t == nil {
		return Rule{}, false
	}
	r, ok := t.rules[ruleKey{category, subtype}]
	return r, ok
}

// Merge returns a new table where overrides replace or extend the current rules
func (t *RuleTable) Merge(overrides ...Rule) (*RuleTable, error) {
	merged := make(map[ruleKey]Rule, len(t.rules)+len(overrides))
	for k, r := range t.rules {
		merged[k] = r
	}
	seen := make(map[ruleKey]bool, len(overrides))
	for _, r := range overrides {
		if err := r.validate(); err != nil {
			return nil, err
		}
		k := ruleKey{r.Category, r.Subtype}
		if seen[k] {
			return nil, fmt.Errorf("duplicate override for %s/%s", r.Category, r.Subtype)
		}
		seen[k] = true
		merged[k] = r
	}
	return &RuleTable{rules: merged}, nil
}

// Rules lists the table sorted by category then subtype
func (t *RuleTable) Rules() []Rule {
	out := make([]Rule, 0, len(t.rules))
	for _, r := range t.rules {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Subtype < out[j].Subtype
	})
	return out
}

// DefaultRules is the calendar policy used when no override file is configured.
// Booking and closing dates are deliberately absent.
var DefaultRules = []Rule{
	{Category: CategorySample, Subtype: SubtypeCFM, LeadTimeDays: 25, HighBelow: 4},
	{Category: CategorySample, Subtype: SubtypeCounterSample, LeadTimeDays: 30, HighBelow: 6},
	{Category: CategorySample, Subtype: SubtypeFitting, LeadTimeDays: 45, HighBelow: 6},
	{Category: CategorySample, Subtype: SubtypePPS, LeadTimeDays: 20, HighBelow: 4},
	{Category: CategorySample, Subtype: SubtypeTesting, LeadTimeDays: 15, HighBelow: 4},
	{Category: CategorySample, Subtype: SubtypeShippingSample, LeadTimeDays: 10, HighBelow: 3},
	{Category: CategorySample, Subtype: SubtypeInspection, LeadTimeDays: 1, HighBelow: 2},

	{Category: CategoryProduction, Subtype: SubtypeTrialUpper, LeadTimeDays: 11, HighBelow: 3},
	{Category: CategoryProduction, Subtype: SubtypeTrialLasting, LeadTimeDays: 10, HighBelow: 3},
	{Category: CategoryProduction, Subtype: SubtypeLasting, LeadTimeDays: 9, HighBelow: 3},

	{Category: CategoryLogistics, Subtype: SubtypeShipping, LeadTimeDays: 15, HighBelow: 4},
	{Category: CategoryLogistics, Subtype: SubtypeFinish, LeadTimeDays: 15, HighBelow: 4},
	{Category: CategoryLogistics, Subtype: SubtypeETD, LeadTimeDays: 15, HighBelow: 4},
}

// DefaultRuleTable builds the table from DefaultRules
func DefaultRuleTable() *RuleTable {
	t, err := NewRuleTable(DefaultRules...)
	if err != nil {
		panic(err)
	}
	return t
}
