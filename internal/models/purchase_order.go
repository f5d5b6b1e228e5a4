package models

import (
	"fmt"
	"time"

	"github.com/xelth-com/soletrack/internal/milestone"
	"gorm.io/gorm"
)

// PurchaseOrder is the production order header placed with a factory
type PurchaseOrder struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Number   string `gorm:"uniqueIndex;not null" json:"number"`
	Customer string `gorm:"index" json:"customer"`
	Supplier string `gorm:"index" json:"supplier"`
	Factory  string `gorm:"index" json:"factory"`
	Season   string `gorm:"type:varchar(16);index" json:"season"` // e.g. SS27, FW26

	// Logistics dates. Stored as entered: a date, empty, or the no-need marker.
	ShippingDate string `gorm:"type:varchar(32)" json:"shipping_date"`
	ETD          string `gorm:"column:etd;type:varchar(32)" json:"etd"`
	BookingDate  string `gorm:"type:varchar(32)" json:"booking_date"`
	ClosingDate  string `gorm:"type:varchar(32)" json:"closing_date"`

	Notes     string         `gorm:"type:text" json:"notes"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Lines []OrderLine `gorm:"foreignKey:PurchaseOrderID" json:"lines,omitempty"`
}

// TableName specifies the table name for PurchaseOrder model
func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// BeforeCreate generates an order number when none was imported
func (po *PurchaseOrder) BeforeCreate(tx *gorm.DB) error {
	if po.Number == "" {
		po.Number = generateOrderNumber("PO")
	}
	return nil
}

// generateOrderNumber creates a unique order number
func generateOrderNumber(prefix string) string {
	return prefix + time.Now().Format("20060102") + "-" + randomString(4)
}

// randomString generates a random string of given length
func randomString(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	now := time.Now().UnixNano()
	for i := 0; i < length; i++ {
		result[i] = charset[(now+int64(i))%int64(len(charset))]
	}
	return string(result)
}

// StatusDates parses the dates that drive the PO status
func (po PurchaseOrder) StatusDates() (milestone.PurchaseOrderDates, error) {
	shipping, err := milestone.ParseDate(po.ShippingDate)
	if err != nil {
		return milestone.PurchaseOrderDates{}, fmt.Errorf("po %s shipping date: %w", po.Number, err)
	}
	etd, err := milestone.ParseDate(po.ETD)
	if err != nil {
		return milestone.PurchaseOrderDates{}, fmt.Errorf("po %s etd: %w", po.Number, err)
	}
	return milestone.PurchaseOrderDates{Shipping: shipping, ETD: etd}, nil
}

// LogisticsColumns lists the PO-level dates that can raise logistics alerts
func (po PurchaseOrder) LogisticsColumns() []MilestoneColumn {
	return []MilestoneColumn{
		{Category: milestone.CategoryLogistics, Subtype: milestone.SubtypeShipping, Target: po.ShippingDate},
		{Category: milestone.CategoryLogistics, Subtype: milestone.SubtypeETD, Target: po.ETD},
		{Category: milestone.CategoryLogistics, Subtype: milestone.SubtypeBooking, Target: po.BookingDate},
		{Category: milestone.CategoryLogistics, Subtype: milestone.SubtypeClosing, Target: po.ClosingDate},
	}
}

// MilestoneColumn is one raw actual/target date pair of a line or PO
type MilestoneColumn struct {
	Category milestone.Category
	Subtype  milestone.Subtype
	Actual   string
	Target   string
}
