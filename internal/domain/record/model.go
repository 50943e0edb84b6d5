package record

import (
	"time"

	"github.com/google/uuid"
)

// Record is the clinical record written when an attendance is finished. It is
// immutable once created.
type Record struct {
	ID           uuid.UUID `db:"id" json:"id"`
	ClinicID     uuid.UUID `db:"clinic_id" json:"clinicId"`
	PatientID    uuid.UUID `db:"patient_id" json:"patientId"`
	DentistID    uuid.UUID `db:"dentist_id" json:"dentistId"`
	AttendanceID uuid.UUID `db:"attendance_id" json:"attendanceId"`
	Summary      string    `db:"summary" json:"summary"`
	Content      Content   `db:"content" json:"content"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// Content is stored as JSONB.
type Content struct {
	CIDs       []CIDEntry        `json:"cids"`
	Procedures []ProcedureEntry  `json:"procedures"`
	Odontogram map[string]string `json:"odontogram,omitempty"`
	StartedAt  *time.Time        `json:"startedAt,omitempty"`
	FinishedAt time.Time         `json:"finishedAt"`
}

type CIDEntry struct {
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Observation *string `json:"observation,omitempty"`
}

type ProcedureEntry struct {
	ProcedureID    *uuid.UUID `json:"procedureId,omitempty"`
	Name           string     `json:"name,omitempty"`
	Code           *string    `json:"code,omitempty"`
	Tooth          *string    `json:"tooth,omitempty"`
	Faces          []string   `json:"faces,omitempty"`
	Quantity       int        `json:"quantity"`
	ClinicalStatus string     `json:"clinicalStatus"`
	Price          *float64   `json:"price,omitempty"`
}
