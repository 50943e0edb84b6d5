package appointment

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusConfirmed Status = "CONFIRMED"
	StatusCanceled  Status = "CANCELED"
	StatusAttended  Status = "ATTENDED"
)

// transitions lists the statuses reachable from each status. ATTENDED is set
// by attendance check-in.
var transitions = map[Status][]Status{
	StatusScheduled: {StatusConfirmed, StatusCanceled, StatusAttended},
	StatusConfirmed: {StatusCanceled, StatusAttended},
}

func (s Status) CanMoveTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Appointment maps to the appointment table.
type Appointment struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	ClinicID        uuid.UUID  `db:"clinic_id" json:"clinicId"`
	PatientID       uuid.UUID  `db:"patient_id" json:"patientId"`
	DentistID       *uuid.UUID `db:"dentist_id" json:"dentistId,omitempty"`
	ScheduledAt     time.Time  `db:"scheduled_at" json:"scheduledAt"`
	DurationMinutes int        `db:"duration_minutes" json:"durationMinutes"`
	Status          Status     `db:"status" json:"status"`
	Notes           *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updatedAt"`
}

type CreateInput struct {
	PatientID       uuid.UUID  `json:"patientId" validate:"required"`
	DentistID       *uuid.UUID `json:"dentistId"`
	ScheduledAt     time.Time  `json:"scheduledAt" validate:"required"`
	DurationMinutes int        `json:"durationMinutes" validate:"omitempty,min=5,max=480"`
	Notes           *string    `json:"notes" validate:"omitempty,max=2000"`
}

type StatusInput struct {
	Status string `json:"status" validate:"required,oneof=CONFIRMED CANCELED ATTENDED"`
}
