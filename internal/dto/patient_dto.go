package dto

type CreatePatientRequest struct {
	Name             string  `json:"name"  validate:"required,min=2,max=120"`
	Email            *string `json:"email" validate:"omitempty,email"`
	Phone            *string `json:"phone"`
	DateOfBirth      *string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Gender           *string `json:"gender"        validate:"omitempty,oneof=male female other"`
	Address          *string `json:"address"`
	BloodGroup       *string `json:"blood_group"`
	Allergies        *string `json:"allergies"`
	EmergencyContact *string `json:"emergency_contact"`
	UserID           *string `json:"user_id" validate:"omitempty,uuid"`
}

type UpdatePatientRequest struct {
	Name             *string `json:"name"  validate:"omitempty,min=2,max=120"`
	Email            *string `json:"email" validate:"omitempty,email"`
	Phone            *string `json:"phone"`
	DateOfBirth      *string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Gender           *string `json:"gender"        validate:"omitempty,oneof=male female other"`
	Address          *string `json:"address"`
	BloodGroup       *string `json:"blood_group"`
	Allergies        *string `json:"allergies"`
	EmergencyContact *string `json:"emergency_contact"`
}

type PatientFilter struct {
	Search string `form:"search"` // matches name or phone
	Active string `form:"active"` // "false" | "all" | default active only
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=20" validate:"min=1,max=100"`
}

type PatientResponse struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Email            *string `json:"email"`
	Phone            *string `json:"phone"`
	DateOfBirth      *string `json:"date_of_birth"`
	Gender           *string `json:"gender"`
	Address          *string `json:"address"`
	BloodGroup       *string `json:"blood_group"`
	Allergies        *string `json:"allergies"`
	EmergencyContact *string `json:"emergency_contact"`
	Active           bool    `json:"active"`
}

type PatientListResponse struct {
	Data  []PatientResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}
