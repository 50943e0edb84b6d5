package dentist

import (
	"time"

	"github.com/google/uuid"
)

// Dentist maps to the dentist table. User is joined from app_user on reads.
type Dentist struct {
	ID          uuid.UUID    `db:"id" json:"id"`
	ClinicID    uuid.UUID    `db:"clinic_id" json:"clinicId"`
	UserID      uuid.UUID    `db:"user_id" json:"userId"`
	CRO         string       `db:"cro" json:"cro"`
	CROState    string       `db:"cro_state" json:"croState"`
	Phone       *string      `db:"phone" json:"phone,omitempty"`
	SpecialtyID *uuid.UUID   `db:"specialty_id" json:"specialtyId,omitempty"`
	IsActive    bool         `db:"is_active" json:"isActive"`
	CreatedAt   time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updatedAt"`
	User        *UserSummary `json:"user,omitempty"`
}

type UserSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// CreateInput onboards a dentist together with their login user.
type CreateInput struct {
	Name        string     `json:"name" validate:"required,min=2,max=255"`
	Email       string     `json:"email" validate:"required,email,max=255"`
	CRO         string     `json:"cro" validate:"required,max=20"`
	CROState    string     `json:"croState" validate:"required,len=2,alpha"`
	Phone       *string    `json:"phone" validate:"omitempty,max=30"`
	SpecialtyID *uuid.UUID `json:"specialtyId"`
}

type UpdateInput struct {
	CRO         string     `json:"cro" validate:"required,max=20"`
	CROState    string     `json:"croState" validate:"required,len=2,alpha"`
	Phone       *string    `json:"phone" validate:"omitempty,max=30"`
	SpecialtyID *uuid.UUID `json:"specialtyId"`
}

type LinkInput struct {
	ProcedureID uuid.UUID `json:"procedureId" validate:"required"`
}
