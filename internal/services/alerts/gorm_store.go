package alerts

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/xelth-com/soletrack/internal/database"
	"github.com/xelth-com/soletrack/internal/models"
	"gorm.io/gorm"
)

const (
	// runLockKey is the postgres advisory lock id guarding generation runs
	runLockKey int64 = 0x534F4C45 // "SOLE"

	pgUniqueViolation = "23505"
	snapshotBatchSize = 500
)

// GormStore implements Store on the application database
type GormStore struct {
	db *database.DB
}

// NewGormStore creates a store backed by db
func NewGormStore(db *database.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// ListSamplesWithLineAndPO reads samples in batches with their owners preloaded.
// Samples whose line or purchase order is gone come back with nil owners.
func (s *GormStore) ListSamplesWithLineAndPO(ctx context.Context) ([]SampleRow, error) {
	var rows []SampleRow
	var batch []models.Sample

	err := s.conn(ctx).
		Preload("Line").
		Preload("Line.PurchaseOrder").
		Order("id").
		FindInBatches(&batch, snapshotBatchSize, func(tx *gorm.DB, _ int) error {
			for _, sample := range batch {
				row := SampleRow{Sample: sample, Line: sample.Line}
				if sample.Line != nil {
					row.PurchaseOrder = sample.Line.PurchaseOrder
				}
				rows = append(rows, row)
			}
			return nil
		}).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListLinesWithPO reads order lines in batches with their purchase order preloaded
func (s *GormStore) ListLinesWithPO(ctx context.Context) ([]LineRow, error) {
	var rows []LineRow
	var batch []models.OrderLine

	err := s.conn(ctx).
		Preload("PurchaseOrder").
		Order("id").
		FindInBatches(&batch, snapshotBatchSize, func(tx *gorm.DB, _ int) error {
			for _, line := range batch {
				rows = append(rows, LineRow{Line: line, PurchaseOrder: line.PurchaseOrder})
			}
			return nil
		}).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListPurchaseOrders reads every purchase order without its lines
func (s *GormStore) ListPurchaseOrders(ctx context.Context) ([]models.PurchaseOrder, error) {
	var orders []models.PurchaseOrder
	if err := s.conn(ctx).Order("id").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindAlertBySampleID returns the open sample alert of a sample
func (s *GormStore) FindAlertBySampleID(ctx context.Context, sampleID uint) (*models.Alert, error) {
	var alert models.Alert
	err := s.conn(ctx).
		Where("sample_id = ? AND resolved_at IS NULL", sampleID).
		Order("id DESC").
		First(&alert).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &alert, nil
}

// ListOpenAlerts returns unresolved alerts of the given categories
func (s *GormStore) ListOpenAlerts(ctx context.Context, categories []string) ([]models.Alert, error) {
	var alerts []models.Alert
	err := s.conn(ctx).
		Where("resolved_at IS NULL AND category IN ?", categories).
		Order("id").
		Find(&alerts).Error
	return alerts, err
}

// InsertAlerts tries the whole batch in one transaction. When that fails the
// items are retried one by one so a single conflict does not sink the rest.
func (s *GormStore) InsertAlerts(ctx context.Context, alerts []*models.Alert) []error {
	errs := make([]error, len(alerts))
	if len(alerts) == 0 {
		return errs
	}

	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&alerts).Error
	})
	if err == nil {
		return errs
	}

	for i, a := range alerts {
		a.ID = 0
		if err := s.conn(ctx).Create(a).Error; err != nil {
			errs[i] = translateInsertError(err)
		}
	}
	return errs
}

// UpdateAlert saves the content columns of an open alert, leaving the read flag alone
func (s *GormStore) UpdateAlert(ctx context.Context, alert *models.Alert) error {
	res := s.conn(ctx).Model(&models.Alert{}).
		Where("id = ? AND resolved_at IS NULL", alert.ID).
		Updates(map[string]interface{}{
			"severity":          alert.Severity,
			"message":           alert.Message,
			"target_date":       alert.TargetDate,
			"days_remaining":    alert.DaysRemaining,
			"es_estimada":       alert.IsEstimated,
			"purchase_order_id": alert.PurchaseOrderID,
			"line_id":           alert.LineID,
			"sample_id":         alert.SampleID,
			"last_seen_at":      alert.LastSeenAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchAlerts bumps last_seen_at of alerts confirmed by a run
func (s *GormStore) TouchAlerts(ctx context.Context, ids []uint, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return s.conn(ctx).Model(&models.Alert{}).
		Where("id IN ?", ids).
		Update("last_seen_at", at).Error
}

// ResolveAlerts marks alerts as no longer applicable
func (s *GormStore) ResolveAlerts(ctx context.Context, ids []uint, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return s.conn(ctx).Model(&models.Alert{}).
		Where("id IN ? AND resolved_at IS NULL", ids).
		Update("resolved_at", at).Error
}

// DeleteAlertsByCategory hard-deletes every alert of a category
func (s *GormStore) DeleteAlertsByCategory(ctx context.Context, category string) (int64, error) {
	res := s.conn(ctx).Where("category = ?", category).Delete(&models.Alert{})
	return res.RowsAffected, res.Error
}

// WithRunLock holds a session-level advisory lock on one pooled connection
// for the duration of fn.
func (s *GormStore) WithRunLock(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.conn(ctx).Connection(func(tx *gorm.DB) error {
		var locked bool
		if err := tx.Raw("SELECT pg_try_advisory_lock(?)", runLockKey).Scan(&locked).Error; err != nil {
			return fmt.Errorf("failed to acquire run lock: %w", err)
		}
		if !locked {
			return ErrRunInProgress
		}
		defer func() {
			// the request context may be done by now
			if err := tx.WithContext(context.Background()).Exec("SELECT pg_advisory_unlock(?)", runLockKey).Error; err != nil {
				log.Printf("⚠️  Alerts: failed to release run lock: %v", err)
			}
		}()
		return fn(ctx)
	})
}

// SaveRun stores the history row of a run
func (s *GormStore) SaveRun(ctx context.Context, run *models.AlertRun) error {
	return s.conn(ctx).Create(run).Error
}

// ListRuns returns the most recent runs first
func (s *GormStore) ListRuns(ctx context.Context, limit int) ([]models.AlertRun, error) {
	var runs []models.AlertRun
	err := s.conn(ctx).Order("started_at DESC").Limit(limit).Find(&runs).Error
	return runs, err
}

// GetSample loads a sample
func (s *GormStore) GetSample(ctx context.Context, id uint) (*models.Sample, error) {
	var sample models.Sample
	if err := s.conn(ctx).First(&sample, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &sample, nil
}

// GetLine loads an order line with its samples
func (s *GormStore) GetLine(ctx context.Context, id uint) (*models.OrderLine, error) {
	var line models.OrderLine
	if err := s.conn(ctx).Preload("Samples", orderByID).First(&line, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &line, nil
}

// GetPurchaseOrder loads a purchase order with its lines and their samples
func (s *GormStore) GetPurchaseOrder(ctx context.Context, id uint) (*models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	err := s.conn(ctx).
		Preload("Lines", orderByID).
		Preload("Lines.Samples", orderByID).
		First(&po, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &po, nil
}

// ListAlerts returns alerts most severe first, then by nearest target date
func (s *GormStore) ListAlerts(ctx context.Context, q AlertQuery) ([]models.Alert, error) {
	query := s.conn(ctx).Model(&models.Alert{})
	if q.Category != "" {
		query = query.Where("category = ?", q.Category)
	}
	if q.UnreadOnly {
		query = query.Where("read = ?", false)
	}
	if !q.IncludeResolved {
		query = query.Where("resolved_at IS NULL")
	}

	var alerts []models.Alert
	err := query.
		Preload("PurchaseOrder").
		Order("CASE severity WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END").
		Order("target_date").
		Order("id").
		Limit(q.Limit).
		Find(&alerts).Error
	return alerts, err
}

// MarkAlertRead sets the read flag and returns the updated alert
func (s *GormStore) MarkAlertRead(ctx context.Context, id uint, read bool) (*models.Alert, error) {
	var alert models.Alert
	if err := s.conn(ctx).First(&alert, id).Error; err != nil {
		return nil, notFound(err)
	}
	if err := s.conn(ctx).Model(&alert).Update("read", read).Error; err != nil {
		return nil, err
	}
	return &alert, nil
}

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// translateInsertError maps a unique-index rejection to ErrDuplicateAlert
func translateInsertError(err error) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %v", ErrDuplicateAlert, err)
	}
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
