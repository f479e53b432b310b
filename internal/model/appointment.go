package model

import (
	"time"

	"github.com/google/uuid"
)

// Appointment statuses. Completed and cancelled are terminal; no_show is set
// either by staff or by the background sweeper.
const (
	AppointmentScheduled = "scheduled"
	AppointmentConfirmed = "confirmed"
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"
	AppointmentNoShow    = "no_show"
)

type Appointment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClinicID  uuid.UUID `gorm:"type:uuid;not null;index"`
	PatientID uuid.UUID `gorm:"type:uuid;not null;index"`
	DoctorID  uuid.UUID `gorm:"type:uuid;not null;index"`
	StartsAt  time.Time `gorm:"not null;index"`
	EndsAt    time.Time `gorm:"not null"`
	Reason    string    `gorm:"not null"`
	Status    string    `gorm:"type:varchar(20);not null;default:'scheduled';index"`
	Notes     *string
	CreatedBy uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Patient *Patient `gorm:"foreignKey:PatientID"`
	Doctor  *User    `gorm:"foreignKey:DoctorID"`
}
