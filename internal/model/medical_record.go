package model

import (
	"time"

	"github.com/google/uuid"
)

// MedicalRecord is a clinical visit note (EHR entry). Immutable after
// creation except for notes amendment by the authoring doctor.
type MedicalRecord struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClinicID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	PatientID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	DoctorID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	AppointmentID  *uuid.UUID `gorm:"type:uuid;index"`
	ChiefComplaint string     `gorm:"not null"`
	Diagnosis      string
	Notes          string

	// Vitals captured at the visit
	HeightCm    *float64
	WeightKg    *float64
	BloodPressure *string `gorm:"type:varchar(15)"` // "120/80"
	TemperatureC  *float64
	PulseBpm      *int

	CreatedAt time.Time
	UpdatedAt time.Time

	Patient     *Patient     `gorm:"foreignKey:PatientID"`
	Doctor      *User        `gorm:"foreignKey:DoctorID"`
	Appointment *Appointment `gorm:"foreignKey:AppointmentID"`
}
