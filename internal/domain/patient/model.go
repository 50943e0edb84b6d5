package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patient table. CPF is stored as digits only.
type Patient struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	ClinicID  uuid.UUID  `db:"clinic_id" json:"clinicId"`
	Name      string     `db:"name" json:"name"`
	CPF       *string    `db:"cpf" json:"cpf,omitempty"`
	BirthDate *time.Time `db:"birth_date" json:"birthDate,omitempty"`
	Phone     *string    `db:"phone" json:"phone,omitempty"`
	Email     *string    `db:"email" json:"email,omitempty"`
	Address   *string    `db:"address" json:"address,omitempty"`
	Notes     *string    `db:"notes" json:"notes,omitempty"`
	IsActive  bool       `db:"is_active" json:"isActive"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `db:"updated_at" json:"updatedAt"`
}

// Input is the payload for creating and replacing a patient.
type Input struct {
	Name      string  `json:"name" validate:"required,min=2,max=255"`
	CPF       *string `json:"cpf" validate:"omitempty,cpf"`
	BirthDate *string `json:"birthDate" validate:"omitempty,datetime=2006-01-02"`
	Phone     *string `json:"phone" validate:"omitempty,max=30"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Address   *string `json:"address" validate:"omitempty,max=500"`
	Notes     *string `json:"notes" validate:"omitempty,max=2000"`
}

// SearchFilter narrows patient listings. Query matches the name or the
// beginning of the CPF.
type SearchFilter struct {
	Query           string
	IncludeInactive bool
}
