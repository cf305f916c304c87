package models

import (
	"log"

	"github.com/despasys/despasys_backend/config"
	"gorm.io/gorm"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Tenant{}, &User{},
		&Customer{}, &Vehicle{},
		&Process{}, &ProcessDocument{},
		&FinancialRecord{},
		&Appointment{},
		&Evaluation{}, &TechnicalReport{},
		&Notification{},
		&History{},
		&IdempotencyKey{},
	)
	if err != nil {
		log.Fatal(err)
	}
	if err := upperCaseCategories(db); err != nil {
		log.Fatal(err)
	}
}

// upperCaseCategories rewrites categories stored before they were canonicalized.
func upperCaseCategories(db *gorm.DB) error {
	return db.Session(&gorm.Session{SkipHooks: true}).
		Model(&FinancialRecord{}).
		Where("category <> UPPER(category)").
		Update("category", gorm.Expr("UPPER(category)")).Error
}
