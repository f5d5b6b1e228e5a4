package alerts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xelth-com/soletrack/internal/milestone"
	"github.com/xelth-com/soletrack/internal/models"
	"gorm.io/datatypes"
)

// Notifier receives a summary after every finished run
type Notifier interface {
	Broadcast(message interface{})
}

// Result summarizes one generation run
type Result struct {
	RunID     uuid.UUID      `json:"runId"`
	Trigger   string         `json:"trigger"`
	Policy    Policy         `json:"policy"`
	Status    string         `json:"status"`
	StartedAt time.Time      `json:"startedAt"`
	Duration  time.Duration  `json:"-"`
	Created   []models.Alert `json:"created"`

	CreatedCount  int      `json:"createdCount"`
	SkippedCount  int      `json:"skippedCount"`  // candidates that already had an open alert
	UpdatedCount  int      `json:"updatedCount"`  // of those, alerts refreshed in place
	ResolvedCount int      `json:"resolvedCount"` // open alerts whose condition cleared
	InvalidCount  int      `json:"invalidCount"`  // records skipped for bad input data
	FailedCount   int      `json:"failedCount"`   // storage writes that failed
	Warnings      []string `json:"warnings"`
}

func (r *Result) fail(msg string) {
	r.FailedCount++
	r.Warnings = append(r.Warnings, msg)
}

// Service generates and reconciles production alerts
type Service struct {
	store  Store
	rules  *milestone.RuleTable
	policy Policy
	clock  milestone.Clock

	notifier Notifier

	// one run at a time in this process; the store lock covers other processes
	mu sync.Mutex
}

// NewService creates a new alert service
func NewService(store Store, rules *milestone.RuleTable, policy Policy) *Service {
	if rules == nil {
		rules = milestone.DefaultRuleTable()
	}
	if policy == "" {
		policy = PolicyUpsert
	}
	return &Service{
		store:  store,
		rules:  rules,
		policy: policy,
		clock:  milestone.SystemClock{},
	}
}

// SetClock replaces the wall clock, used by tests and backfills
func (s *Service) SetClock(c milestone.Clock) {
	s.clock = c
}

// SetNotifier registers a receiver for run summaries
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// Rules returns the active rule table
func (s *Service) Rules() *milestone.RuleTable {
	return s.rules
}

// Generate performs one full recomputation of the alert set.
// A failure to read the snapshot aborts the run; per-item write failures are
// counted and reported in the result, and the run status becomes partial.
func (s *Service) Generate(ctx context.Context, trigger string) (*Result, error) {
	if !s.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.mu.Unlock()

	res := &Result{
		RunID:     uuid.New(),
		Trigger:   trigger,
		Policy:    s.policy,
		StartedAt: s.clock.Now(),
		Created:   []models.Alert{},
		Warnings:  []string{},
	}

	err := s.store.WithRunLock(ctx, func(ctx context.Context) error {
		return s.run(ctx, res)
	})
	if errors.Is(err, ErrRunInProgress) {
		return nil, err
	}

	res.Duration = s.clock.Now().Sub(res.StartedAt)
	switch {
	case err != nil:
		res.Status = models.RunStatusError
	case res.FailedCount > 0:
		res.Status = models.RunStatusPartial
	default:
		res.Status = models.RunStatusSuccess
	}

	s.record(ctx, res, err)

	if err != nil {
		log.Printf("❌ Alerts: run %s aborted: %v", res.RunID, err)
		return nil, err
	}

	log.Printf("✅ Alerts: run %s %s - created %d, skipped %d, updated %d, resolved %d, invalid %d, failed %d",
		res.RunID, res.Status, res.CreatedCount, res.SkippedCount, res.UpdatedCount,
		res.ResolvedCount, res.InvalidCount, res.FailedCount)

	if s.notifier != nil {
		s.notifier.Broadcast(map[string]interface{}{
			"type":   "ALERTS_GENERATED",
			"result": res,
		})
	}
	return res, nil
}

func (s *Service) run(ctx context.Context, res *Result) error {
	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		return err
	}

	out := buildCandidates(snap, s.rules, milestone.Today(s.clock))
	res.InvalidCount = out.invalid
	res.Warnings = append(res.Warnings, out.warnings...)

	if s.policy == PolicyRegenerate {
		return s.regenerate(ctx, out.candidates, res)
	}
	return s.upsert(ctx, out.candidates, res)
}

func (s *Service) loadSnapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	var err error

	if snap.Samples, err = s.store.ListSamplesWithLineAndPO(ctx); err != nil {
		return snap, fmt.Errorf("failed to load samples: %w", err)
	}
	if snap.Lines, err = s.store.ListLinesWithPO(ctx); err != nil {
		return snap, fmt.Errorf("failed to load order lines: %w", err)
	}
	if snap.Orders, err = s.store.ListPurchaseOrders(ctx); err != nil {
		return snap, fmt.Errorf("failed to load purchase orders: %w", err)
	}
	return snap, nil
}

// record stores the run history row; failures here never change the run outcome
func (s *Service) record(ctx context.Context, res *Result, runErr error) {
	completed := res.StartedAt.Add(res.Duration)
	warnings, _ := json.Marshal(res.Warnings)

	run := &models.AlertRun{
		RunID:       res.RunID,
		Trigger:     res.Trigger,
		Policy:      string(res.Policy),
		Status:      res.Status,
		StartedAt:   res.StartedAt,
		CompletedAt: &completed,
		Duration:    int(res.Duration.Milliseconds()),
		Created:     res.CreatedCount,
		Skipped:     res.SkippedCount,
		Updated:     res.UpdatedCount,
		Resolved:    res.ResolvedCount,
		Invalid:     res.InvalidCount,
		Failed:      res.FailedCount,
		Warnings:    datatypes.JSON(warnings),
	}
	if runErr != nil {
		run.ErrorDetail = runErr.Error()
	}

	// an aborted run is recorded even when its context expired
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.store.SaveRun(ctx, run); err != nil {
		log.Printf("⚠️  Alerts: failed to record run %s: %v", res.RunID, err)
	}
}

// ListRuns returns the most recent runs first
func (s *Service) ListRuns(ctx context.Context, limit int) ([]models.AlertRun, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.store.ListRuns(ctx, limit)
}

// ListAlerts returns stored alerts, most severe first
func (s *Service) ListAlerts(ctx context.Context, q AlertQuery) ([]models.Alert, error) {
	if q.Limit <= 0 {
		q.Limit = 200
	}
	return s.store.ListAlerts(ctx, q)
}

// MarkRead sets the read flag of an alert
func (s *Service) MarkRead(ctx context.Context, id uint, read bool) (*models.Alert, error) {
	return s.store.MarkAlertRead(ctx, id, read)
}
