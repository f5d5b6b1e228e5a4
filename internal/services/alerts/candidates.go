package alerts

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xelth-com/soletrack/internal/milestone"
	"github.com/xelth-com/soletrack/internal/models"
)

// Owner kinds used in dedup keys
const (
	ownerSample = "sample"
	ownerLine   = "line"
	ownerPO     = "po"
)

// ManagedCategories are the alert categories owned by the generator
var ManagedCategories = []string{
	string(milestone.CategorySample),
	string(milestone.CategoryProduction),
	string(milestone.CategoryLogistics),
}

// Candidate is an alert the current snapshot says should exist
type Candidate struct {
	Key             string
	Category        milestone.Category
	Subtype         milestone.Subtype
	Severity        milestone.Severity
	Message         string
	TargetDate      time.Time
	DaysRemaining   int
	Estimated       bool
	PurchaseOrderID *uint
	LineID          *uint
	SampleID        *uint
}

// AlertKey builds the dedup key of an alert condition
func AlertKey(category milestone.Category, subtype milestone.Subtype, owner string, id uint) string {
	return fmt.Sprintf("%s:%s:%s:%d", category, subtype, owner, id)
}

// NewAlert materializes a candidate as a fresh unread alert
func (c Candidate) NewAlert(now time.Time) *models.Alert {
	return &models.Alert{
		DedupKey:        c.Key,
		Category:        string(c.Category),
		Subtype:         string(c.Subtype),
		Severity:        string(c.Severity),
		Message:         c.Message,
		TargetDate:      c.TargetDate,
		DaysRemaining:   c.DaysRemaining,
		IsEstimated:     c.Estimated,
		PurchaseOrderID: c.PurchaseOrderID,
		LineID:          c.LineID,
		SampleID:        c.SampleID,
		LastSeenAt:      now,
	}
}

// buildOutcome is the pure result of evaluating a snapshot
type buildOutcome struct {
	candidates []Candidate
	invalid    int
	warnings   []string
}

func (o *buildOutcome) warn(format string, args ...interface{}) {
	o.invalid++
	o.warnings = append(o.warnings, fmt.Sprintf(format, args...))
}

// buildCandidates evaluates every sample, line and purchase order of the snapshot.
// It has no side effects: input data problems become warnings and the record is skipped.
func buildCandidates(snap Snapshot, rules *milestone.RuleTable, today time.Time) buildOutcome {
	today = milestone.Normalize(today)
	var out buildOutcome

	for _, row := range snap.Samples {
		sampleCandidate(&out, row, rules, today)
	}
	for _, row := range snap.Lines {
		lineCandidates(&out, row, rules, today)
	}
	for _, po := range snap.Orders {
		orderCandidates(&out, po, rules, today)
	}

	out.candidates = dedupeCandidates(out.candidates)
	return out
}

func sampleCandidate(out *buildOutcome, row SampleRow, rules *milestone.RuleTable, today time.Time) {
	s := row.Sample
	if row.Line == nil || row.PurchaseOrder == nil {
		out.warn("sample %d: owning line or purchase order not found", s.ID)
		return
	}

	ms, err := s.ToMilestone()
	if err != nil {
		out.warn("%v", err)
		return
	}

	rule, ok := rules.Lookup(milestone.CategorySample, ms.Kind)
	if !ok {
		return
	}
	if milestone.DeriveSampleStatus(ms, today).Resolved() {
		return
	}

	day, estimated, ok := milestone.EffectiveDate(ms.Actual, ms.Target)
	if !ok {
		return
	}
	days := milestone.DaysBetween(today, day)
	if !rule.Fires(days) {
		return
	}

	poID, lineID, sampleID := row.PurchaseOrder.ID, row.Line.ID, s.ID
	out.candidates = append(out.candidates, Candidate{
		Key:             AlertKey(milestone.CategorySample, ms.Kind, ownerSample, s.ID),
		Category:        milestone.CategorySample,
		Subtype:         ms.Kind,
		Severity:        rule.Severity(days),
		Message:         composeMessage(row.PurchaseOrder, row.Line, ms.Kind, day, days, estimated),
		TargetDate:      day,
		DaysRemaining:   days,
		Estimated:       estimated,
		PurchaseOrderID: &poID,
		LineID:          &lineID,
		SampleID:        &sampleID,
	})
}

func lineCandidates(out *buildOutcome, row LineRow, rules *milestone.RuleTable, today time.Time) {
	l := row.Line
	if row.PurchaseOrder == nil {
		out.warn("line %d: purchase order not found", l.ID)
		return
	}

	for _, col := range l.MilestoneColumns() {
		rule, ok := rules.Lookup(col.Category, col.Subtype)
		if !ok {
			continue
		}

		actual, err := milestone.ParseDate(col.Actual)
		if err != nil {
			out.warn("line %d %s date: %v", l.ID, col.Subtype, err)
			continue
		}
		target, err := milestone.ParseDate(col.Target)
		if err != nil {
			out.warn("line %d %s target: %v", l.ID, col.Subtype, err)
			continue
		}

		if actual.State == milestone.DateNotNeeded || (!actual.IsSet() && target.State == milestone.DateNotNeeded) {
			continue
		}
		if milestone.StepDone(actual, today) {
			continue
		}

		day, estimated, ok := milestone.EffectiveDate(actual, target)
		if !ok {
			continue
		}
		days := milestone.DaysBetween(today, day)
		if !fires(col.Category, rule, day, today, days) {
			continue
		}

		poID, lineID := row.PurchaseOrder.ID, l.ID
		out.candidates = append(out.candidates, Candidate{
			Key:             AlertKey(col.Category, col.Subtype, ownerLine, l.ID),
			Category:        col.Category,
			Subtype:         col.Subtype,
			Severity:        rule.Severity(days),
			Message:         composeMessage(row.PurchaseOrder, &row.Line, col.Subtype, day, days, estimated),
			TargetDate:      day,
			DaysRemaining:   days,
			Estimated:       estimated,
			PurchaseOrderID: &poID,
			LineID:          &lineID,
		})
	}
}

func orderCandidates(out *buildOutcome, po models.PurchaseOrder, rules *milestone.RuleTable, today time.Time) {
	dates, err := po.StatusDates()
	if err != nil {
		out.warn("%v", err)
		return
	}
	if milestone.DerivePOStatus(dates, today) == milestone.POCompleted {
		return
	}

	for _, col := range po.LogisticsColumns() {
		rule, ok := rules.Lookup(col.Category, col.Subtype)
		if !ok {
			continue
		}
		date, err := milestone.ParseDate(col.Target)
		if err != nil {
			out.warn("po %s %s date: %v", po.Number, col.Subtype, err)
			continue
		}
		if !date.IsSet() {
			continue
		}

		days := milestone.DaysBetween(today, date.Day)
		if !fires(col.Category, rule, date.Day, today, days) {
			continue
		}

		poID := po.ID
		out.candidates = append(out.candidates, Candidate{
			Key:             AlertKey(col.Category, col.Subtype, ownerPO, po.ID),
			Category:        col.Category,
			Subtype:         col.Subtype,
			Severity:        rule.Severity(days),
			Message:         composeMessage(&po, nil, col.Subtype, date.Day, days, false),
			TargetDate:      date.Day,
			DaysRemaining:   days,
			PurchaseOrderID: &poID,
		})
	}
}

// fires applies the firing semantic of a category: samples and production steps
// alert from the start of the lead-time window onwards, overdue included; logistics
// dates only alert while upcoming, a missed logistics date shows up in the PO status.
func fires(category milestone.Category, rule milestone.Rule, day, today time.Time, days int) bool {
	if category == milestone.CategoryLogistics {
		return milestone.IsWithinNextNDays(day, today, rule.LeadTimeDays)
	}
	return rule.Fires(days)
}

func composeMessage(po *models.PurchaseOrder, line *models.OrderLine, subtype milestone.Subtype, day time.Time, days int, estimated bool) string {
	parts := []string{"PO " + po.Number}
	if po.Customer != "" {
		parts = append(parts, po.Customer)
	}
	if line != nil {
		parts = append(parts, strings.Trim(line.Style+"/"+line.Color, "/"))
	}
	parts = append(parts, subtype.Label()+" "+day.Format(milestone.ISODate), describeDays(days))

	msg := strings.Join(parts, " · ")
	if estimated {
		msg += " (estimated)"
	}
	return msg
}

func describeDays(days int) string {
	switch {
	case days == 0:
		return "due today"
	case days == 1:
		return "due tomorrow"
	case days > 1:
		return fmt.Sprintf("due in %d days", days)
	case days == -1:
		return "overdue by 1 day"
	default:
		return fmt.Sprintf("overdue by %d days", -days)
	}
}

// dedupeCandidates keeps one candidate per key and ranks the result:
// most severe first, then nearest deadline, then key.
func dedupeCandidates(in []Candidate) []Candidate {
	sortCandidates(in)
	seen := make(map[string]bool, len(in))
	out := make([]Candidate, 0, len(in))
	for _, c := range in {
		if seen[c.Key] {
			continue
		}
		seen[c.Key] = true
		out = append(out, c)
	}
	return out
}

func sortCandidates(cs []Candidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		if ri, rj := cs[i].Severity.Rank(), cs[j].Severity.Rank(); ri != rj {
			return ri > rj
		}
		if cs[i].DaysRemaining != cs[j].DaysRemaining {
			return cs[i].DaysRemaining < cs[j].DaysRemaining
		}
		return cs[i].Key < cs[j].Key
	})
}
