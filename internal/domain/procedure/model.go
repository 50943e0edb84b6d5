package procedure

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Procedure is a catalog entry a dentist can perform. Value is the list price
// copied onto attendance procedures and treatment items.
type Procedure struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	ClinicID    uuid.UUID  `db:"clinic_id" json:"clinicId"`
	Name        string     `db:"name" json:"name"`
	Code        *string    `db:"code" json:"code,omitempty"`
	Description *string    `db:"description" json:"description,omitempty"`
	Value       float64    `db:"value" json:"value"`
	SpecialtyID *uuid.UUID `db:"specialty_id" json:"specialtyId,omitempty"`
	IsActive    bool       `db:"is_active" json:"isActive"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
}

type Input struct {
	Name        string     `json:"name" validate:"required,min=2,max=255"`
	Code        *string    `json:"code" validate:"omitempty,max=40"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	Value       float64    `json:"value" validate:"gte=0"`
	SpecialtyID *uuid.UUID `json:"specialtyId"`
}

type ListFilter struct {
	SpecialtyID     *uuid.UUID
	IncludeInactive bool
}

// RoundMoney rounds to cents.
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
