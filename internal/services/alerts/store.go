package alerts

import (
	"context"
	"errors"
	"time"

	"github.com/xelth-com/soletrack/internal/models"
)

var (
	// ErrRunInProgress is returned when another generation run holds the lock
	ErrRunInProgress = errors.New("alert generation already running")

	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateAlert means an unresolved alert with the same key already exists
	ErrDuplicateAlert = errors.New("duplicate open alert")
)

// SampleRow is a sample with its owning line and purchase order.
// Line or PurchaseOrder is nil when the owner could not be resolved.
type SampleRow struct {
	Sample        models.Sample
	Line          *models.OrderLine
	PurchaseOrder *models.PurchaseOrder
}

// LineRow is an order line with its purchase order
type LineRow struct {
	Line          models.OrderLine
	PurchaseOrder *models.PurchaseOrder
}

// Snapshot is everything one generation run reads
type Snapshot struct {
	Samples []SampleRow
	Lines   []LineRow
	Orders  []models.PurchaseOrder
}

// SnapshotReader loads the current production data
type SnapshotReader interface {
	ListSamplesWithLineAndPO(ctx context.Context) ([]SampleRow, error)
	ListLinesWithPO(ctx context.Context) ([]LineRow, error)
	ListPurchaseOrders(ctx context.Context) ([]models.PurchaseOrder, error)
}

// AlertWriter persists alerts. InsertAlerts returns one error slot per input,
// ErrDuplicateAlert marks an item rejected by the uniqueness constraint.
type AlertWriter interface {
	FindAlertBySampleID(ctx context.Context, sampleID uint) (*models.Alert, error)
	ListOpenAlerts(ctx context.Context, categories []string) ([]models.Alert, error)
	InsertAlerts(ctx context.Context, alerts []*models.Alert) []error
	UpdateAlert(ctx context.Context, alert *models.Alert) error
	TouchAlerts(ctx context.Context, ids []uint, at time.Time) error
	ResolveAlerts(ctx context.Context, ids []uint, at time.Time) error
	DeleteAlertsByCategory(ctx context.Context, category string) (int64, error)
}

// RunRecorder serializes runs and stores their history
type RunRecorder interface {
	// WithRunLock runs fn while holding the cluster-wide generation lock,
	// or returns ErrRunInProgress without calling fn.
	WithRunLock(ctx context.Context, fn func(ctx context.Context) error) error
	SaveRun(ctx context.Context, run *models.AlertRun) error
	ListRuns(ctx context.Context, limit int) ([]models.AlertRun, error)
}

// RecordReader serves the per-record status lookups
type RecordReader interface {
	GetSample(ctx context.Context, id uint) (*models.Sample, error)
	GetLine(ctx context.Context, id uint) (*models.OrderLine, error)
	GetPurchaseOrder(ctx context.Context, id uint) (*models.PurchaseOrder, error)
}

// AlertQuery filters ListAlerts
type AlertQuery struct {
	Category        string
	UnreadOnly      bool
	IncludeResolved bool
	Limit           int
}

// AlertReader serves alert listings to the UI
type AlertReader interface {
	ListAlerts(ctx context.Context, q AlertQuery) ([]models.Alert, error)
	MarkAlertRead(ctx context.Context, id uint, read bool) (*models.Alert, error)
}

// Store is the storage collaborator of the alert engine
type Store interface {
	SnapshotReader
	AlertWriter
	RunRecorder
	RecordReader
	AlertReader
}
