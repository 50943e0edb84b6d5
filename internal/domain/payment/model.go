package payment

import (
	"time"

	"github.com/google/uuid"
)

type Method string

const (
	MethodCash         Method = "CASH"
	MethodCreditCard   Method = "CREDIT_CARD"
	MethodDebitCard    Method = "DEBIT_CARD"
	MethodPix          Method = "PIX"
	MethodBankTransfer Method = "BANK_TRANSFER"
	MethodInsurance    Method = "INSURANCE"
)

type Status string

const (
	StatusPaid     Status = "PAID"
	StatusCanceled Status = "CANCELED"
)

type Payment struct {
	ID               uuid.UUID   `db:"id" json:"id"`
	ClinicID         uuid.UUID   `db:"clinic_id" json:"clinicId"`
	PatientID        uuid.UUID   `db:"patient_id" json:"patientId"`
	Amount           float64     `db:"amount" json:"amount"`
	Method           Method      `db:"method" json:"method"`
	Status           Status      `db:"status" json:"status"`
	PaidAt           time.Time   `db:"paid_at" json:"paidAt"`
	Notes            *string     `db:"notes" json:"notes,omitempty"`
	CreatedByID      uuid.UUID   `db:"created_by_id" json:"createdById"`
	CreatedAt        time.Time   `db:"created_at" json:"createdAt"`
	TreatmentPlanIDs []uuid.UUID `db:"-" json:"treatmentPlanIds"`
}

type CreateInput struct {
	PatientID        uuid.UUID   `json:"patientId" validate:"required"`
	Amount           float64     `json:"amount" validate:"gt=0"`
	Method           string      `json:"method" validate:"required,oneof=CASH CREDIT_CARD DEBIT_CARD PIX BANK_TRANSFER INSURANCE"`
	PaidAt           *time.Time  `json:"paidAt"`
	Notes            *string     `json:"notes" validate:"omitempty,max=2000"`
	TreatmentPlanIDs []uuid.UUID `json:"treatmentPlanIds" validate:"max=20,unique"`
}

// ListFilter narrows ListPayments; From and To bound paidAt as [From, To).
type ListFilter struct {
	PatientID *uuid.UUID
	Method    string `validate:"omitempty,oneof=CASH CREDIT_CARD DEBIT_CARD PIX BANK_TRANSFER INSURANCE"`
	Status    string `validate:"omitempty,oneof=PAID CANCELED"`
	From      *time.Time
	To        *time.Time
}
