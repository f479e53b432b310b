package dto

type CreateAppointmentRequest struct {
	PatientID string  `json:"patient_id" validate:"required,uuid"`
	DoctorID  string  `json:"doctor_id"  validate:"required,uuid"`
	StartsAt  string  `json:"starts_at"  validate:"required"` // RFC 3339
	EndsAt    string  `json:"ends_at"    validate:"required"`
	Reason    string  `json:"reason"     validate:"required,min=2"`
	Notes     *string `json:"notes"`
}

type RescheduleAppointmentRequest struct {
	StartsAt string `json:"starts_at" validate:"required"`
	EndsAt   string `json:"ends_at"   validate:"required"`
}

type UpdateAppointmentStatusRequest struct {
	Status string  `json:"status" validate:"required,oneof=confirmed completed cancelled no_show"`
	Notes  *string `json:"notes"`
}

type AppointmentFilter struct {
	DoctorID  string `form:"doctor_id"  validate:"omitempty,uuid"`
	PatientID string `form:"patient_id" validate:"omitempty,uuid"`
	Status    string `form:"status"`
	Date      string `form:"date"` // YYYY-MM-DD, defaults to all
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type AppointmentResponse struct {
	ID          string  `json:"id"`
	PatientID   string  `json:"patient_id"`
	PatientName string  `json:"patient_name,omitempty"`
	DoctorID    string  `json:"doctor_id"`
	DoctorName  string  `json:"doctor_name,omitempty"`
	StartsAt    string  `json:"starts_at"`
	EndsAt      string  `json:"ends_at"`
	Reason      string  `json:"reason"`
	Status      string  `json:"status"`
	Notes       *string `json:"notes"`
	CreatedAt   string  `json:"created_at"`
}

type AppointmentListResponse struct {
	Data  []AppointmentResponse `json:"data"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}
