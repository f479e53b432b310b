package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	PrescriptionActive    = "active"
	PrescriptionCompleted = "completed"
	PrescriptionCancelled = "cancelled"
)

type Prescription struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClinicID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	PatientID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	DoctorID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	MedicalRecordID *uuid.UUID `gorm:"type:uuid;index"`
	Status          string     `gorm:"type:varchar(20);not null;default:'active'"`
	Notes           *string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Items   []PrescriptionItem `gorm:"foreignKey:PrescriptionID"`
	Patient *Patient           `gorm:"foreignKey:PatientID"`
	Doctor  *User              `gorm:"foreignKey:DoctorID"`
}

// PrescriptionItem is one prescribed medication line. InventoryItemID links
// the clinic's stock when the medication is dispensed in-house; dispensing
// goes through the inventory adjustment service (type=out).
type PrescriptionItem struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PrescriptionID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	InventoryItemID *uuid.UUID `gorm:"type:uuid;index"`
	Medication      string     `gorm:"not null"`
	Dosage          string     `gorm:"not null"` // "500mg"
	Frequency       string     `gorm:"not null"` // "3x daily"
	DurationDays    int        `gorm:"not null"`
	Quantity        int        `gorm:"not null;default:0"` // units to dispense
	Instructions    *string
	DispensedAt     *time.Time
	CreatedAt       time.Time
}
