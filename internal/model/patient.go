package model

import (
	"time"

	"github.com/google/uuid"
)

// Patient is the clinical subject. UserID links an optional portal account
// (role=patient); a patient record can exist without one.
type Patient struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClinicID         uuid.UUID  `gorm:"type:uuid;not null;index"`
	UserID           *uuid.UUID `gorm:"type:uuid;index"`
	Name             string     `gorm:"index;not null"`
	Email            *string
	Phone            *string    `gorm:"index"`
	DateOfBirth      *time.Time
	Gender           *string    `gorm:"type:varchar(10)"`
	Address          *string
	BloodGroup       *string    `gorm:"type:varchar(5)"`
	Allergies        *string
	EmergencyContact *string
	Active           bool `gorm:"not null;default:true"`
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Clinic *Clinic `gorm:"foreignKey:ClinicID"`
	User   *User   `gorm:"foreignKey:UserID"`
}
