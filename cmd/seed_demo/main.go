package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xelth-com/soletrack/internal/config"
	"github.com/xelth-com/soletrack/internal/database"
	"github.com/xelth-com/soletrack/internal/milestone"
	"github.com/xelth-com/soletrack/internal/models"
	"gorm.io/gorm"
)

var today = milestone.Normalize(time.Now())

// in renders today+n as stored in the milestone columns
func in(n int) string {
	return milestone.AddDays(today, n).Format(milestone.ISODate)
}

func main() {
	fmt.Println("🌱 SoleTrack Demo Data Seeder")
	fmt.Println(strings.Repeat("=", 60))

	db, err := database.Connect(config.LoadDatabaseConfig())
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	fmt.Println("🔨 Running database migrations...")
	if err := db.AutoMigrate(models.All()...); err != nil {
		db.Close()
		log.Fatalf("❌ Migration failed: %v", err)
	}
	fmt.Println("✅ Migrations complete")
	fmt.Println()

	var poCount int64
	db.Model(&models.PurchaseOrder{}).Count(&poCount)
	if poCount > 0 {
		force := len(os.Args) > 1 && os.Args[1] == "--force"
		if !force {
			fmt.Printf("⚠️  Database already has %d purchase orders. Clear it first? (y/N): ", poCount)
			var answer string
			fmt.Scanln(&answer)
			if answer != "y" && answer != "Y" {
				fmt.Println("❌ Aborted. Database not modified.")
				return
			}
		}

		fmt.Println("🗑️  Clearing existing data...")
		db.Exec("TRUNCATE TABLE alert_runs, alerts, samples, order_lines, purchase_orders RESTART IDENTITY CASCADE")
		fmt.Println("✅ Data cleared")
	}

	fmt.Println()
	fmt.Println("👟 Creating demo purchase orders...")

	orders := demoOrders()
	err = db.Transaction(func(tx *gorm.DB) error {
		for i := range orders {
			if err := tx.Create(&orders[i]).Error; err != nil {
				return fmt.Errorf("purchase order %s: %w", orders[i].Number, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	lines, samples := 0, 0
	for _, po := range orders {
		fmt.Printf("   ✓ %s · %s · %s (%d lines)\n", po.Number, po.Customer, po.Factory, len(po.Lines))
		lines += len(po.Lines)
		for _, l := range po.Lines {
			samples += len(l.Samples)
		}
	}

	fmt.Println()
	fmt.Printf("✅ Created %d purchase orders, %d lines, %d samples\n", len(orders), lines, samples)
	fmt.Println("👉 Run cmd/generate_alerts or POST /api/alerts/generate to compute alerts")
}

// demoOrders covers every derived state relative to today
func demoOrders() []models.PurchaseOrder {
	return []models.PurchaseOrder{
		{
			// in production, samples due soon
			Number: "PO-SS27-0101", Customer: "Camper", Supplier: "Calzados Levante", Factory: "Elda",
			Season: "SS27", ETD: in(40),
			Lines: []models.OrderLine{
				{
					Reference: "K400-BLK", Style: "K400", Color: "Black", SizeRun: "36-41", Quantity: 1200,
					UnitPrice: decimal.RequireFromString("38.50"), UnitCost: decimal.RequireFromString("27.10"), Currency: "EUR",
					TrialUpperTarget: in(8), TrialLastingTarget: in(12), LastingTarget: in(20),
					FinishTarget: in(30), ShippingTarget: in(35),
					Samples: []models.Sample{
						{Kind: "CFM", TargetDate: in(2)},
						{Kind: "Inspection", TargetDate: in(1)},
						{Kind: "Fitting", ActualDate: in(-5), TargetDate: in(-6), Approval: "Cfm"},
						{Kind: "PPS", TargetDate: in(18)},
					},
				},
				{
					Reference: "K400-TAN", Style: "K400", Color: "Tan", SizeRun: "36-41", Quantity: 800,
					UnitPrice: decimal.RequireFromString("38.50"), UnitCost: decimal.RequireFromString("27.40"), Currency: "EUR",
					TrialUpperDate: in(-2), TrialLastingTarget: in(-1), LastingTarget: in(6),
					Samples: []models.Sample{
						{Kind: "Counter Sample", TargetDate: in(-3), Approval: "N/Cfm", Notes: "toe cap too narrow"},
						{Kind: "Testing", TargetDate: milestone.NoNeedMarker},
					},
				},
			},
		},
		{
			// ETD passed, not shipped
			Number: "PO-SS27-0102", Customer: "Hispanitas", Supplier: "Suela Norte", Factory: "Arnedo",
			Season: "SS27", ETD: in(-4), BookingDate: in(-12),
			Lines: []models.OrderLine{
				{
					Reference: "HV2201", Style: "HV2201", Color: "Nude", SizeRun: "35-42", Quantity: 600,
					UnitPrice: decimal.RequireFromString("44.00"), UnitCost: decimal.RequireFromString("31.75"), Currency: "EUR",
					LastingDate: in(-10), FinishTarget: in(3), ShippingTarget: in(9),
					Samples: []models.Sample{
						{Kind: "Shipping Sample", TargetDate: in(5)},
						{Kind: "PPS", ActualDate: in(-20), Approval: "confirmado"},
					},
				},
			},
		},
		{
			// shipped
			Number: "PO-FW26-0088", Customer: "Pikolinos", Supplier: "Calzados Levante", Factory: "Elche",
			Season: "FW26", ShippingDate: in(-15), ETD: in(-18),
			Lines: []models.OrderLine{
				{
					Reference: "W6R-5599", Style: "W6R-5599", Color: "Brandy", SizeRun: "36-41", Quantity: 950,
					UnitPrice: decimal.RequireFromString("52.90"), UnitCost: decimal.RequireFromString("36.20"), Currency: "EUR",
					TrialUpperDate: in(-60), TrialLastingDate: in(-55), LastingDate: in(-45),
					FinishDate: in(-25), ShippingDate: in(-15),
					Samples: []models.Sample{
						{Kind: "CFM", ActualDate: in(-90), Approval: "OK"},
						{Kind: "Fitting", ActualDate: in(-80), Approval: "Cfm"},
						{Kind: "PPS", ActualDate: in(-70), Approval: "Cfm"},
					},
				},
			},
		},
		{
			// dates not planned yet
			Number: "PO-FW27-0007", Customer: "Camper", Supplier: "Suela Norte", Factory: "Arnedo",
			Season: "FW27",
			Lines: []models.OrderLine{
				{
					Reference: "K201-GRY", Style: "K201", Color: "Grey", SizeRun: "38-46", Quantity: 400,
					UnitPrice: decimal.RequireFromString("61.00"), UnitCost: decimal.RequireFromString("43.80"), Currency: "EUR",
					Samples: []models.Sample{
						{Kind: "Fitting", TargetDate: in(30)},
					},
				},
			},
		},
	}
}
