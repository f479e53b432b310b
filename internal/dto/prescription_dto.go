package dto

type PrescriptionItemRequest struct {
	Medication      string  `json:"medication"    validate:"required,min=2"`
	Dosage          string  `json:"dosage"        validate:"required"`
	Frequency       string  `json:"frequency"     validate:"required"`
	DurationDays    int     `json:"duration_days" validate:"required,min=1"`
	Quantity        int     `json:"quantity"      validate:"min=0"`
	Instructions    *string `json:"instructions"`
	InventoryItemID *string `json:"inventory_item_id" validate:"omitempty,uuid"`
}

type CreatePrescriptionRequest struct {
	PatientID       string                    `json:"patient_id" validate:"required,uuid"`
	MedicalRecordID *string                   `json:"medical_record_id" validate:"omitempty,uuid"`
	Notes           *string                   `json:"notes"`
	Items           []PrescriptionItemRequest `json:"items" validate:"required,min=1,dive"`
}

// DispenseRequest dispenses one prescription item against the clinic's stock.
type DispenseRequest struct {
	ItemID string `json:"item_id" validate:"required,uuid"` // prescription item
}

type PrescriptionFilter struct {
	PatientID string `form:"patient_id" validate:"omitempty,uuid"`
	Status    string `form:"status"`
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=20" validate:"min=1,max=100"`
}

type PrescriptionItemResponse struct {
	ID              string  `json:"id"`
	Medication      string  `json:"medication"`
	Dosage          string  `json:"dosage"`
	Frequency       string  `json:"frequency"`
	DurationDays    int     `json:"duration_days"`
	Quantity        int     `json:"quantity"`
	Instructions    *string `json:"instructions"`
	InventoryItemID *string `json:"inventory_item_id"`
	DispensedAt     *string `json:"dispensed_at"`
}

type PrescriptionResponse struct {
	ID              string                     `json:"id"`
	PatientID       string                     `json:"patient_id"`
	PatientName     string                     `json:"patient_name,omitempty"`
	DoctorID        string                     `json:"doctor_id"`
	DoctorName      string                     `json:"doctor_name,omitempty"`
	MedicalRecordID *string                    `json:"medical_record_id"`
	Status          string                     `json:"status"`
	Notes           *string                    `json:"notes"`
	Items           []PrescriptionItemResponse `json:"items"`
	CreatedAt       string                     `json:"created_at"`
}

type PrescriptionListResponse struct {
	Data  []PrescriptionResponse `json:"data"`
	Total int64                  `json:"total"`
	Page  int                    `json:"page"`
	Limit int                    `json:"limit"`
}
