package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Alert run status constants
const (
	RunStatusSuccess = "success" // every candidate processed
	RunStatusPartial = "partial" // finished with per-item failures
	RunStatusError   = "error"   // aborted
)

// Alert run trigger constants
const (
	RunTriggerManual    = "manual"
	RunTriggerScheduled = "scheduled"
	RunTriggerCLI       = "cli"
)

// AlertRun records each alert generation pass
type AlertRun struct {
	ID          int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	RunID       uuid.UUID      `gorm:"column:run_id;type:uuid;uniqueIndex;not null" json:"runId"`
	Trigger     string         `gorm:"column:trigger;type:varchar(16);not null;index" json:"trigger"`
	Policy      string         `gorm:"column:policy;type:varchar(16);not null" json:"policy"`
	Status      string         `gorm:"column:status;type:varchar(16);not null;index" json:"status"`
	StartedAt   time.Time      `gorm:"column:started_at;not null" json:"startedAt"`
	CompletedAt *time.Time     `gorm:"column:completed_at" json:"completedAt"`
	Duration    int            `gorm:"column:duration;default:0" json:"duration"` // milliseconds
	Created     int            `gorm:"column:created;default:0" json:"created"`   // alerts inserted
	Skipped     int            `gorm:"column:skipped;default:0" json:"skipped"`   // candidates already open
	Updated     int            `gorm:"column:updated;default:0" json:"updated"`   // open alerts refreshed
	Resolved    int            `gorm:"column:resolved;default:0" json:"resolved"` // open alerts whose condition cleared
	Invalid     int            `gorm:"column:invalid;default:0" json:"invalid"`   // records with bad input data
	Failed      int            `gorm:"column:failed;default:0" json:"failed"`     // storage write failures
	Warnings    datatypes.JSON `gorm:"column:warnings;type:jsonb" json:"warnings"`
	ErrorDetail string         `gorm:"column:error_detail;type:text" json:"errorDetail"`
	CreatedAt   time.Time      `gorm:"column:created_at" json:"-"`
	UpdatedAt   time.Time      `gorm:"column:updated_at" json:"-"`
}

// TableName specifies the table name
func (AlertRun) TableName() string {
	return "alert_runs"
}
