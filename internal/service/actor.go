package service

import (
	"clinicflow/internal/apperr"

	"github.com/google/uuid"
)

// Actor identifies the authenticated caller. Handlers build it from the JWT
// claims and pass it into every service method that touches tenant data.
// ClinicID is uuid.Nil only for master_admin accounts.
type Actor struct {
	ID       uuid.UUID
	Role     string
	ClinicID uuid.UUID
}

// requireClinic returns the actor's clinic or rejects callers without one.
// Clinic-scoped operations always go through this so a master_admin cannot
// accidentally read or write tenant data without picking a clinic.
func requireClinic(actor Actor) (uuid.UUID, error) {
	if actor.ClinicID == uuid.Nil {
		return uuid.Nil, apperr.Validation("a clinic context is required for this operation")
	}
	return actor.ClinicID, nil
}
