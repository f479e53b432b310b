package dto

type CreateClinicRequest struct {
	Name    string  `json:"name"    validate:"required,min=2,max=120"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email" validate:"omitempty,email"`
}

type UpdateClinicRequest struct {
	Name    *string `json:"name"    validate:"omitempty,min=2,max=120"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email" validate:"omitempty,email"`
}

type ClinicResponse struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email"`
	Active  bool    `json:"active"`
}
