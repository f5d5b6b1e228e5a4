package alerts

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/xelth-com/soletrack/internal/milestone"
	"github.com/xelth-com/soletrack/internal/models"
)

// Policy selects how a run reconciles candidates with stored alerts
type Policy string

const (
	// PolicyUpsert keeps open alerts keyed by condition, refreshes them in place
	// and soft-resolves the ones whose condition no longer holds. Read flags survive.
	PolicyUpsert Policy = "upsert"

	// PolicyRegenerate deletes every managed alert and inserts the candidates again.
	// Read flags and history are lost.
	PolicyRegenerate Policy = "regenerate"
)

// ParsePolicy maps a config value to a policy, defaulting to upsert
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyUpsert:
		return PolicyUpsert, nil
	case PolicyRegenerate:
		return PolicyRegenerate, nil
	default:
		return "", fmt.Errorf("unknown alert policy %q", s)
	}
}

// reconcilePlan is what a run must write, computed without touching storage
type reconcilePlan struct {
	inserts   []Candidate
	updates   []models.Alert
	unchanged []uint
	resolve   []uint
}

// planReconcile matches candidates against currently open alerts by dedup key
func planReconcile(candidates []Candidate, open []models.Alert) reconcilePlan {
	var plan reconcilePlan

	byKey := make(map[string]models.Alert, len(open))
	for _, a := range open {
		if _, dup := byKey[a.DedupKey]; dup {
			// left over from before the unique index existed
			plan.resolve = append(plan.resolve, a.ID)
			continue
		}
		byKey[a.DedupKey] = a
	}

	matched := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		existing, ok := byKey[c.Key]
		if !ok {
			plan.inserts = append(plan.inserts, c)
			continue
		}
		matched[c.Key] = true
		if sameContent(existing, c) {
			plan.unchanged = append(plan.unchanged, existing.ID)
			continue
		}
		plan.updates = append(plan.updates, refresh(existing, c))
	}

	for _, a := range open {
		if !matched[a.DedupKey] && byKey[a.DedupKey].ID == a.ID {
			plan.resolve = append(plan.resolve, a.ID)
		}
	}
	return plan
}

func sameContent(a models.Alert, c Candidate) bool {
	return a.Severity == string(c.Severity) &&
		a.Message == c.Message &&
		milestone.SameDay(a.TargetDate, c.TargetDate) &&
		a.DaysRemaining == c.DaysRemaining &&
		a.IsEstimated == c.Estimated
}

func refresh(a models.Alert, c Candidate) models.Alert {
	a.Severity = string(c.Severity)
	a.Message = c.Message
	a.TargetDate = c.TargetDate
	a.DaysRemaining = c.DaysRemaining
	a.IsEstimated = c.Estimated
	a.PurchaseOrderID = c.PurchaseOrderID
	a.LineID = c.LineID
	a.SampleID = c.SampleID
	return a
}

// upsert applies the upsert-by-key policy
func (s *Service) upsert(ctx context.Context, candidates []Candidate, res *Result) error {
	open, err := s.store.ListOpenAlerts(ctx, ManagedCategories)
	if err != nil {
		return fmt.Errorf("failed to load open alerts: %w", err)
	}

	now := s.clock.Now()
	plan := planReconcile(candidates, open)

	s.insert(ctx, plan.inserts, now, res)

	for i := range plan.updates {
		a := &plan.updates[i]
		a.LastSeenAt = now
		if err := s.store.UpdateAlert(ctx, a); err != nil {
			res.fail(fmt.Sprintf("update alert %d (%s): %v", a.ID, a.DedupKey, err))
			continue
		}
		res.SkippedCount++
		res.UpdatedCount++
	}

	if len(plan.unchanged) > 0 {
		if err := s.store.TouchAlerts(ctx, plan.unchanged, now); err != nil {
			res.fail(fmt.Sprintf("touch %d open alerts: %v", len(plan.unchanged), err))
		}
		res.SkippedCount += len(plan.unchanged)
	}

	if len(plan.resolve) > 0 {
		if err := s.store.ResolveAlerts(ctx, plan.resolve, now); err != nil {
			res.FailedCount += len(plan.resolve)
			res.Warnings = append(res.Warnings, fmt.Sprintf("resolve %d alerts: %v", len(plan.resolve), err))
		} else {
			res.ResolvedCount += len(plan.resolve)
		}
	}
	return nil
}

// regenerate applies the delete-and-regenerate policy
func (s *Service) regenerate(ctx context.Context, candidates []Candidate, res *Result) error {
	for _, category := range ManagedCategories {
		n, err := s.store.DeleteAlertsByCategory(ctx, category)
		if err != nil {
			return fmt.Errorf("failed to clear %s alerts: %w", category, err)
		}
		log.Printf("🗑️  Alerts: cleared %d %s alerts", n, category)
	}
	s.insert(ctx, candidates, s.clock.Now(), res)
	return nil
}

// insert writes new alerts in one batch and accounts for every item separately
func (s *Service) insert(ctx context.Context, candidates []Candidate, now time.Time, res *Result) {
	if len(candidates) == 0 {
		return
	}

	batch := make([]*models.Alert, len(candidates))
	for i, c := range candidates {
		batch[i] = c.NewAlert(now)
	}

	errs := s.store.InsertAlerts(ctx, batch)
	for i, a := range batch {
		var err error
		if i < len(errs) {
			err = errs[i]
		}
		switch {
		case err == nil:
			res.CreatedCount++
			res.Created = append(res.Created, *a)
		case errors.Is(err, ErrDuplicateAlert):
			// another writer got there first; the condition is already alerted
			res.SkippedCount++
		default:
			res.fail(fmt.Sprintf("insert alert %s: %v", a.DedupKey, err))
		}
	}
}
