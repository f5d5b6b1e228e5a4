package models

import (
	"time"
)

// Alert is a persisted deadline-at-risk fact produced by the alert generator.
// At most one unresolved alert exists per DedupKey.
type Alert struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	DedupKey string `gorm:"type:varchar(160);not null;index;uniqueIndex:idx_alerts_open_key,where:resolved_at IS NULL" json:"dedup_key"`

	Category string `gorm:"type:varchar(32);not null;index" json:"category"` // muestra | produccion | logistica
	Subtype  string `gorm:"type:varchar(32);not null;index" json:"subtype"`
	Severity string `gorm:"type:varchar(16);not null;index" json:"severity"` // high | medium | low
	Message  string `gorm:"type:text" json:"message"`

	TargetDate    time.Time `gorm:"type:date;not null" json:"target_date"`
	DaysRemaining int       `json:"days_remaining"`
	IsEstimated   bool      `gorm:"column:es_estimada;default:false" json:"es_estimada"` // target date, not actual

	// Origin
	PurchaseOrderID *uint `gorm:"index" json:"purchase_order_id,omitempty"`
	LineID          *uint `gorm:"index" json:"line_id,omitempty"`
	SampleID        *uint `gorm:"index" json:"sample_id,omitempty"`

	Read       bool       `gorm:"default:false;index" json:"read"`
	LastSeenAt time.Time  `json:"last_seen_at"`
	ResolvedAt *time.Time `gorm:"index" json:"resolved_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	// Relations
	PurchaseOrder *PurchaseOrder `gorm:"foreignKey:PurchaseOrderID" json:"purchase_order,omitempty"`
}

// TableName specifies the table name for Alert model
func (Alert) TableName() string {
	return "alerts"
}

// IsOpen reports whether the alert still describes a live condition
func (a *Alert) IsOpen() bool {
	return a.ResolvedAt == nil
}
