package model

import (
	"time"

	"github.com/google/uuid"
)

// Clinic is the tenant. Every domain record is scoped to exactly one clinic;
// only master_admin users operate across clinics.
type Clinic struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"not null"`
	Address   *string
	Phone     *string
	Email     *string
	Active    bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
