package models

// All lists every table for AutoMigrate, parents first
func All() []interface{} {
	return []interface{}{
		&PurchaseOrder{},
		&OrderLine{},
		&Sample{},
		&Alert{},
		&AlertRun{},
	}
}
