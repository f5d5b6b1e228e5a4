package models

import (
	"fmt"
	"time"

	"github.com/xelth-com/soletrack/internal/milestone"
	"gorm.io/gorm"
)

// Sample is a quality/production checkpoint (CFM, fitting, PPS, ...) of an order line
type Sample struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	LineID     uint   `gorm:"not null;index" json:"line_id"`
	Kind       string `gorm:"type:varchar(32);not null;index" json:"kind"`
	ActualDate string `gorm:"type:varchar(32)" json:"actual_date"` // date met, empty, or no-need
	TargetDate string `gorm:"type:varchar(32)" json:"target_date"` // planned deadline
	Approval   string `gorm:"type:varchar(64)" json:"approval"`    // free text: Cfm, N/Cfm, ...
	Notes      string `gorm:"type:text" json:"notes"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Line *OrderLine `gorm:"foreignKey:LineID" json:"line,omitempty"`
}

// TableName specifies the table name for Sample model
func (Sample) TableName() string {
	return "samples"
}

// ToMilestone parses the stored columns into the classification input
func (s Sample) ToMilestone() (milestone.Sample, error) {
	actual, err := milestone.ParseDate(s.ActualDate)
	if err != nil {
		return milestone.Sample{}, fmt.Errorf("sample %d actual date: %w", s.ID, err)
	}
	target, err := milestone.ParseDate(s.TargetDate)
	if err != nil {
		return milestone.Sample{}, fmt.Errorf("sample %d target date: %w", s.ID, err)
	}
	return milestone.Sample{
		ID:       s.ID,
		LineID:   s.LineID,
		Kind:     milestone.NormalizeSubtype(s.Kind),
		Actual:   actual,
		Target:   target,
		Approval: s.Approval,
	}, nil
}
