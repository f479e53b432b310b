package dto

type CreateRecordRequest struct {
	PatientID      string   `json:"patient_id"      validate:"required,uuid"`
	AppointmentID  *string  `json:"appointment_id"  validate:"omitempty,uuid"`
	ChiefComplaint string   `json:"chief_complaint" validate:"required,min=2"`
	Diagnosis      string   `json:"diagnosis"`
	Notes          string   `json:"notes"`
	HeightCm       *float64 `json:"height_cm"      validate:"omitempty,gt=0"`
	WeightKg       *float64 `json:"weight_kg"      validate:"omitempty,gt=0"`
	BloodPressure  *string  `json:"blood_pressure"`
	TemperatureC   *float64 `json:"temperature_c"  validate:"omitempty,gt=25,lt=45"`
	PulseBpm       *int     `json:"pulse_bpm"      validate:"omitempty,gt=0"`
}

type AmendRecordNotesRequest struct {
	Notes string `json:"notes" validate:"required"`
}

type RecordFilter struct {
	PatientID string `form:"patient_id" validate:"omitempty,uuid"`
	DoctorID  string `form:"doctor_id"  validate:"omitempty,uuid"`
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=20" validate:"min=1,max=100"`
}

type RecordResponse struct {
	ID             string   `json:"id"`
	PatientID      string   `json:"patient_id"`
	PatientName    string   `json:"patient_name,omitempty"`
	DoctorID       string   `json:"doctor_id"`
	DoctorName     string   `json:"doctor_name,omitempty"`
	AppointmentID  *string  `json:"appointment_id"`
	ChiefComplaint string   `json:"chief_complaint"`
	Diagnosis      string   `json:"diagnosis"`
	Notes          string   `json:"notes"`
	HeightCm       *float64 `json:"height_cm"`
	WeightKg       *float64 `json:"weight_kg"`
	BloodPressure  *string  `json:"blood_pressure"`
	TemperatureC   *float64 `json:"temperature_c"`
	PulseBpm       *int     `json:"pulse_bpm"`
	CreatedAt      string   `json:"created_at"`
}

type RecordListResponse struct {
	Data  []RecordResponse `json:"data"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}
