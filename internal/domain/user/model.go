package user

import (
	"time"

	"github.com/google/uuid"

	"github.com/odonto/clinic/internal/platform/auth"
)

// User is a clinic staff account. Authentication happens upstream; this
// row only carries identity and role.
type User struct {
	ID        uuid.UUID `db:"id" json:"id"`
	ClinicID  uuid.UUID `db:"clinic_id" json:"clinicId"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Role      auth.Role `db:"role" json:"role"`
	IsActive  bool      `db:"is_active" json:"isActive"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

type CreateInput struct {
	Name  string `json:"name" validate:"required,min=2,max=255"`
	Email string `json:"email" validate:"required,email,max=255"`
	Role  string `json:"role" validate:"required,oneof=OWNER ADMIN DENTIST RECEPTIONIST"`
}

type UpdateInput struct {
	Name string `json:"name" validate:"required,min=2,max=255"`
	Role string `json:"role" validate:"required,oneof=OWNER ADMIN DENTIST RECEPTIONIST"`
}
