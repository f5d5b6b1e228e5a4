package milestone

import "time"

// SampleStatus is the derived lifecycle state of a sample
type SampleStatus string

const (
	SamplePending  SampleStatus = "pending"
	SampleSent     SampleStatus = "sent"
	SampleApproved SampleStatus = "approved"
	SampleRejected SampleStatus = "rejected"
	SampleNoNeed   SampleStatus = "no_need"
)

// Resolved reports whether the checkpoint needs no further follow-up
func (s SampleStatus) Resolved() bool {
	return s == SampleSent || s == SampleApproved || s == SampleNoNeed
}

// Semaphore is the aggregated state of a line
type Semaphore string

const (
	SemaphoreOK         Semaphore = "ok"
	SemaphoreInProgress Semaphore = "in_progress"
	SemaphoreProblem    Semaphore = "problem"
	SemaphoreNoSamples  Semaphore = "no_samples"
)

// Color is the traffic-light colour shown for a semaphore
func (s Semaphore) Color() string {
	switch s {
	case SemaphoreOK:
		return "green"
	case SemaphoreInProgress:
		return "yellow"
	case SemaphoreProblem:
		return "red"
	default:
		return "gray"
	}
}

// POStatus is the derived state of a purchase order
type POStatus string

const (
	POCompleted    POStatus = "completed"
	POInProduction POStatus = "in_production"
	PODelay        POStatus = "delay"
	PONoData       POStatus = "no_data"
)

// Sample is the classification input for one checkpoint
type Sample struct {
	ID       uint
	LineID   uint
	Kind     Subtype
	Actual   Date
	Target   Date
	Approval string
}

// EffectiveDate picks the date used for classification: actual over target.
// ok is false when neither holds a calendar day.
func EffectiveDate(actual, target Date) (day time.Time, estimated bool, ok bool) {
	if actual.IsSet() {
		return actual.Day, false, true
	}
	if target.IsSet() {
		return target.Day, true, true
	}
	return time.Time{}, false, false
}

// StepDone reports whether a milestone with this actual date has happened by today
func StepDone(actual Date, today time.Time) bool {
	return actual.IsSet() && !actual.Day.After(Normalize(today))
}

// DeriveSampleStatus classifies a sample. Approval text is authoritative;
// dates are only consulted when it carries no signal.
func DeriveSampleStatus(s Sample, today time.Time) SampleStatus {
	switch InterpretApproval(s.Approval) {
	case ApprovalConfirmed:
		return SampleApproved
	case ApprovalRejected:
		return SampleRejected
	}

	switch s.Actual.State {
	case DateNotNeeded:
		return SampleNoNeed
	case DateUnset:
		if s.Target.State == DateNotNeeded {
			return SampleNoNeed
		}
		return SamplePending
	}

	if StepDone(s.Actual, today) {
		return SampleSent
	}
	return SamplePending
}

// DeriveLineSemaphore aggregates the states of a line's samples.
// Rejection dominates pending, pending dominates all-clear.
func DeriveLineSemaphore(statuses []SampleStatus) Semaphore {
	if len(statuses) == 0 {
		return SemaphoreNoSamples
	}

	pending := false
	for _, st := range statuses {
		switch st {
		case SampleRejected:
			return SemaphoreProblem
		case SamplePending:
			pending = true
		}
	}
	if pending {
		return SemaphoreInProgress
	}
	return SemaphoreOK
}

// DeriveLineSemaphoreFromSamples classifies every sample first
func DeriveLineSemaphoreFromSamples(samples []Sample, today time.Time) Semaphore {
	statuses := make([]SampleStatus, len(samples))
	for i, s := range samples {
		statuses[i] = DeriveSampleStatus(s, today)
	}
	return DeriveLineSemaphore(statuses)
}

// PurchaseOrderDates holds the PO-level dates that drive its status
type PurchaseOrderDates struct {
	Shipping Date
	ETD      Date
}

// DerivePOStatus classifies a purchase order from its own dates only.
// The shipping date is evaluated before the ETD.
func DerivePOStatus(po PurchaseOrderDates, today time.Time) POStatus {
	today = Normalize(today)

	if po.Shipping.IsSet() {
		if po.Shipping.Day.Before(today) {
			return POCompleted
		}
		return POInProduction
	}
	if po.ETD.IsSet() && po.ETD.Day.Before(today) {
		return PODelay
	}
	return PONoData
}
