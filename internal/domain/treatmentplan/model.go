package treatmentplan

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusOpen     Status = "OPEN"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Plan is a budget of procedures offered to a patient. TotalAmount is the sum
// of value × quantity over its items.
type Plan struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	ClinicID    uuid.UUID  `db:"clinic_id" json:"clinicId"`
	PatientID   uuid.UUID  `db:"patient_id" json:"patientId"`
	DentistID   *uuid.UUID `db:"dentist_id" json:"dentistId,omitempty"`
	Title       string     `db:"title" json:"title"`
	Status      Status     `db:"status" json:"status"`
	TotalAmount float64    `db:"total_amount" json:"totalAmount"`
	Notes       *string    `db:"notes" json:"notes,omitempty"`
	IsActive    bool       `db:"is_active" json:"isActive"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
	Items       []*Item    `db:"-" json:"items"`
}

type Item struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	TreatmentPlanID uuid.UUID  `db:"treatment_plan_id" json:"treatmentPlanId"`
	ProcedureID     *uuid.UUID `db:"procedure_id" json:"procedureId,omitempty"`
	Description     string     `db:"description" json:"description"`
	Tooth           *string    `db:"tooth" json:"tooth,omitempty"`
	Value           float64    `db:"value" json:"value"`
	Quantity        int        `db:"quantity" json:"quantity"`
}

// ItemInput takes description and value from the procedure catalog when they
// are omitted.
type ItemInput struct {
	ProcedureID *uuid.UUID `json:"procedureId"`
	Description string     `json:"description" validate:"required_without=ProcedureID,max=255"`
	Tooth       *string    `json:"tooth" validate:"omitempty,fdi_tooth"`
	Value       *float64   `json:"value" validate:"omitempty,gte=0"`
	Quantity    int        `json:"quantity" validate:"omitempty,min=1,max=99"`
}

type CreateInput struct {
	PatientID uuid.UUID   `json:"patientId" validate:"required"`
	DentistID *uuid.UUID  `json:"dentistId"`
	Title     string      `json:"title" validate:"required,max=255"`
	Notes     *string     `json:"notes" validate:"omitempty,max=2000"`
	Items     []ItemInput `json:"items" validate:"max=100,dive"`
}

type UpdateInput struct {
	Title string      `json:"title" validate:"required,max=255"`
	Notes *string     `json:"notes" validate:"omitempty,max=2000"`
	Items []ItemInput `json:"items" validate:"max=100,dive"`
}

type StatusInput struct {
	Status string `json:"status" validate:"required,oneof=APPROVED REJECTED"`
}

type ListFilter struct {
	PatientID       *uuid.UUID
	Status          string `validate:"omitempty,oneof=OPEN APPROVED REJECTED"`
	IncludeInactive bool
}
