package model

import (
	"time"

	"github.com/google/uuid"
)

// Roles, in descending privilege order.
const (
	RoleMasterAdmin = "master_admin"
	RoleAdmin       = "admin"
	RoleDoctor      = "doctor"
	RolePatient     = "patient"
)

// User stores system users with role-based access.
// ClinicID is nil only for master_admin accounts.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Email        string    `gorm:"uniqueIndex;not null"`
	Name         string    `gorm:"not null"`
	PasswordHash string    `gorm:"not null"`
	Role         string    `gorm:"type:varchar(20);not null"`
	ClinicID     *uuid.UUID `gorm:"type:uuid;index"`
	Phone        *string
	Active       bool `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Clinic *Clinic `gorm:"foreignKey:ClinicID"`
}
