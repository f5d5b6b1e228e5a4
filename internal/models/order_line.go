package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/xelth-com/soletrack/internal/milestone"
	"gorm.io/gorm"
)

// OrderLine is one style/color/size-run entry of a purchase order
type OrderLine struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	PurchaseOrderID uint   `gorm:"not null;index" json:"purchase_order_id"`
	Reference       string `gorm:"index" json:"reference"`
	Style           string `gorm:"index" json:"style"`
	Color           string `json:"color"`
	SizeRun         string `json:"size_run"` // e.g. "36-41"
	Quantity        int    `gorm:"not null;default:0" json:"quantity"`

	// Pricing
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"unit_price"`
	UnitCost  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"unit_cost"`
	Currency  string          `gorm:"type:varchar(3);default:EUR" json:"currency"`

	// Production milestones: actual date and planned target, stored as entered
	TrialUpperDate     string `gorm:"type:varchar(32)" json:"trial_upper_date"`
	TrialUpperTarget   string `gorm:"type:varchar(32)" json:"trial_upper_target"`
	TrialLastingDate   string `gorm:"type:varchar(32)" json:"trial_lasting_date"`
	TrialLastingTarget string `gorm:"type:varchar(32)" json:"trial_lasting_target"`
	LastingDate        string `gorm:"type:varchar(32)" json:"lasting_date"`
	LastingTarget      string `gorm:"type:varchar(32)" json:"lasting_target"`
	FinishDate         string `gorm:"type:varchar(32)" json:"finish_date"`
	FinishTarget       string `gorm:"type:varchar(32)" json:"finish_target"`
	ShippingDate       string `gorm:"type:varchar(32)" json:"shipping_date"`
	ShippingTarget     string `gorm:"type:varchar(32)" json:"shipping_target"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	PurchaseOrder *PurchaseOrder `gorm:"foreignKey:PurchaseOrderID" json:"purchase_order,omitempty"`
	Samples       []Sample       `gorm:"foreignKey:LineID" json:"samples,omitempty"`
}

// TableName specifies the table name for OrderLine model
func (OrderLine) TableName() string {
	return "order_lines"
}

// Amount is quantity times unit price
func (l OrderLine) Amount() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Margin is the total margin of the line at current price and cost
func (l OrderLine) Margin() decimal.Decimal {
	return l.UnitPrice.Sub(l.UnitCost).Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// MilestoneColumns lists the line dates that can raise production or logistics alerts
func (l OrderLine) MilestoneColumns() []MilestoneColumn {
	return []MilestoneColumn{
		{Category: milestone.CategoryProduction, Subtype: milestone.SubtypeTrialUpper, Actual: l.TrialUpperDate, Target: l.TrialUpperTarget},
		{Category: milestone.CategoryProduction, Subtype: milestone.SubtypeTrialLasting, Actual: l.TrialLastingDate, Target: l.TrialLastingTarget},
		{Category: milestone.CategoryProduction, Subtype: milestone.SubtypeLasting, Actual: l.LastingDate, Target: l.LastingTarget},
		{Category: milestone.CategoryLogistics, Subtype: milestone.SubtypeFinish, Actual: l.FinishDate, Target: l.FinishTarget},
		{Category: milestone.CategoryLogistics, Subtype: milestone.SubtypeShipping, Actual: l.ShippingDate, Target: l.ShippingTarget},
	}
}
