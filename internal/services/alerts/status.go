package alerts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xelth-com/soletrack/internal/milestone"
	"github.com/xelth-com/soletrack/internal/models"
)

// SampleStatusView is the derived state of one sample
type SampleStatusView struct {
	SampleID      uint                   `json:"sampleId"`
	LineID        uint                   `json:"lineId"`
	Kind          milestone.Subtype      `json:"kind"`
	Status        milestone.SampleStatus `json:"status"`
	Approval      string                 `json:"approval"`
	EffectiveDate *time.Time             `json:"effectiveDate,omitempty"`
	Estimated     bool                   `json:"estimated"`
	DaysRemaining *int                   `json:"daysRemaining,omitempty"`
	Alert         *models.Alert          `json:"alert,omitempty"`
}

// LineSemaphoreView is the derived state of one order line
type LineSemaphoreView struct {
	LineID    uint                `json:"lineId"`
	Style     string              `json:"style"`
	Color     string              `json:"color"`
	Semaphore milestone.Semaphore `json:"semaphore"`
	Light     string              `json:"light"`
	Amount    decimal.Decimal     `json:"amount"`
	Margin    decimal.Decimal     `json:"margin"`
	Samples   []SampleStatusView  `json:"samples"`
}

// POStatusView is the derived state of one purchase order
type POStatusView struct {
	PurchaseOrderID uint                `json:"purchaseOrderId"`
	Number          string              `json:"number"`
	Status          milestone.POStatus  `json:"status"`
	Lines           []LineSemaphoreView `json:"lines"`
}

// DeriveSampleStatus loads a sample and classifies it for today,
// attaching its open sample alert when there is one.
func (s *Service) DeriveSampleStatus(ctx context.Context, id uint) (*SampleStatusView, error) {
	sample, err := s.store.GetSample(ctx, id)
	if err != nil {
		return nil, err
	}

	view, err := s.sampleView(*sample, milestone.Today(s.clock))
	if err != nil {
		return nil, err
	}

	alert, err := s.store.FindAlertBySampleID(ctx, id)
	switch {
	case err == nil:
		view.Alert = alert
	case errors.Is(err, ErrNotFound):
	default:
		return nil, fmt.Errorf("failed to load alert for sample %d: %w", id, err)
	}
	return view, nil
}

// DeriveLineSemaphore loads a line with its samples and aggregates their states
func (s *Service) DeriveLineSemaphore(ctx context.Context, id uint) (*LineSemaphoreView, error) {
	line, err := s.store.GetLine(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.lineView(*line, milestone.Today(s.clock))
}

// DerivePOStatus loads a purchase order and classifies it and its lines
func (s *Service) DerivePOStatus(ctx context.Context, id uint) (*POStatusView, error) {
	po, err := s.store.GetPurchaseOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	dates, err := po.StatusDates()
	if err != nil {
		return nil, err
	}

	today := milestone.Today(s.clock)
	view := &POStatusView{
		PurchaseOrderID: po.ID,
		Number:          po.Number,
		Status:          milestone.DerivePOStatus(dates, today),
		Lines:           make([]LineSemaphoreView, 0, len(po.Lines)),
	}
	for _, l := range po.Lines {
		lv, err := s.lineView(l, today)
		if err != nil {
			return nil, err
		}
		view.Lines = append(view.Lines, *lv)
	}
	return view, nil
}

func (s *Service) lineView(line models.OrderLine, today time.Time) (*LineSemaphoreView, error) {
	view := &LineSemaphoreView{
		LineID:  line.ID,
		Style:   line.Style,
		Color:   line.Color,
		Amount:  line.Amount(),
		Margin:  line.Margin(),
		Samples: make([]SampleStatusView, 0, len(line.Samples)),
	}

	statuses := make([]milestone.SampleStatus, 0, len(line.Samples))
	for _, sample := range line.Samples {
		sv, err := s.sampleView(sample, today)
		if err != nil {
			return nil, err
		}
		view.Samples = append(view.Samples, *sv)
		statuses = append(statuses, sv.Status)
	}

	view.Semaphore = milestone.DeriveLineSemaphore(statuses)
	view.Light = view.Semaphore.Color()
	return view, nil
}

func (s *Service) sampleView(sample models.Sample, today time.Time) (*SampleStatusView, error) {
	ms, err := sample.ToMilestone()
	if err != nil {
		return nil, err
	}

	view := &SampleStatusView{
		SampleID: sample.ID,
		LineID:   sample.LineID,
		Kind:     ms.Kind,
		Status:   milestone.DeriveSampleStatus(ms, today),
		Approval: sample.Approval,
	}
	if day, estimated, ok := milestone.EffectiveDate(ms.Actual, ms.Target); ok {
		days := milestone.DaysBetween(today, day)
		view.EffectiveDate = &day
		view.Estimated = estimated
		view.DaysRemaining = &days
	}
	return view, nil
}
