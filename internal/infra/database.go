package infra

import (
	"fmt"

	"clinicflow/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx and runs AutoMigrate
// to create / update all tables. The schema is owned entirely by these models;
// gen_random_uuid() requires Postgres 13+.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return db, nil
}

// RunMigrations applies the schema. Also used by the integration test setup.
func RunMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Clinic{},
		&model.User{},
		&model.Patient{},
		&model.Appointment{},
		&model.MedicalRecord{},
		&model.Prescription{},
		&model.PrescriptionItem{},
		&model.Invoice{},
		&model.InvoiceItem{},
		&model.InvoicePayment{},
		&model.InventoryItem{},
		&model.InventoryTransaction{},
		&model.StockAlert{},
	)
}
