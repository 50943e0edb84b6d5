package attendance

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/odonto/clinic/internal/platform/auth"
)

type Status string

const (
	StatusCheckedIn  Status = "CHECKED_IN"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
	StatusCanceled   Status = "CANCELED"
	StatusNoShow     Status = "NO_SHOW"
)

// Active attendances hold their appointment; at most one may exist per
// appointment.
func (s Status) Active() bool {
	return s == StatusCheckedIn || s == StatusInProgress
}

// AcceptsClinicalData reports whether CIDs, procedures and the odontogram
// may be edited in this status.
func (s Status) AcceptsClinicalData() bool {
	return s == StatusInProgress || s == StatusDone
}

type DocumentType string

const (
	DocumentAtestado       DocumentType = "ATESTADO"
	DocumentPrescricao     DocumentType = "PRESCRICAO"
	DocumentExame          DocumentType = "EXAME"
	DocumentEncaminhamento DocumentType = "ENCAMINHAMENTO"
)

const (
	ClinicalPlanned   = "PLANNED"
	ClinicalPerformed = "PERFORMED"
	ClinicalExisting  = "EXISTING"
)

// Attendance is one clinical visit, from check-in to completion.
type Attendance struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	ClinicID      uuid.UUID  `db:"clinic_id" json:"clinicId"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patientId"`
	DentistID     *uuid.UUID `db:"dentist_id" json:"dentistId"`
	AppointmentID *uuid.UUID `db:"appointment_id" json:"appointmentId"`
	Status        Status     `db:"status" json:"status"`
	Notes         *string    `db:"notes" json:"notes,omitempty"`
	ArrivalAt     time.Time  `db:"arrival_at" json:"arrivalAt"`
	StartedAt     *time.Time `db:"started_at" json:"startedAt"`
	FinishedAt    *time.Time `db:"finished_at" json:"finishedAt"`
	CreatedByID   uuid.UUID  `db:"created_by_id" json:"createdById"`
	CreatedByRole auth.Role  `db:"created_by_role" json:"createdByRole"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updatedAt"`
}

type PatientSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Phone *string   `json:"phone"`
}

type DentistSummary struct {
	ID       uuid.UUID   `json:"id"`
	CRO      string      `json:"cro"`
	CROState string      `json:"croState"`
	User     UserSummary `json:"user"`
}

type UserSummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type AppointmentSummary struct {
	ID          uuid.UUID `json:"id"`
	ScheduledAt time.Time `json:"scheduledAt"`
	Status      string    `json:"status"`
}

// Summary is the list projection used by the waiting room and attendance
// listings.
type Summary struct {
	*Attendance
	Patient *PatientSummary `json:"patient"`
	Dentist *DentistSummary `json:"dentist"`
}

// Detail is the full projection returned by GetAttendance.
type Detail struct {
	*Attendance
	Patient     *PatientSummary     `json:"patient"`
	Dentist     *DentistSummary     `json:"dentist"`
	Appointment *AppointmentSummary `json:"appointment"`
	CIDs        []*CID              `json:"cids"`
	Procedures  []*Procedure        `json:"procedures"`
	Odontogram  *Odontogram         `json:"odontogram"`
	Documents   []*Document         `json:"documents"`
}

// CID is a diagnosis attached to an attendance. Category is filled at read
// time from the CID catalog.
type CID struct {
	ID                 uuid.UUID `db:"id" json:"id"`
	AttendanceID       uuid.UUID `db:"attendance_id" json:"attendanceId"`
	CIDCode            string    `db:"cid_code" json:"cidCode"`
	Description        string    `db:"description" json:"description"`
	Observation        *string   `db:"observation" json:"observation"`
	CreatedByDentistID uuid.UUID `db:"created_by_dentist_id" json:"createdByDentistId"`
	CreatedAt          time.Time `db:"created_at" json:"createdAt"`
	Category           *string   `db:"-" json:"category"`
}

// Procedure is a clinical action performed during an attendance. Price is
// the catalog value when the row was inserted.
type Procedure struct {
	ID             uuid.UUID         `db:"id" json:"id"`
	AttendanceID   uuid.UUID         `db:"attendance_id" json:"attendanceId"`
	ProcedureID    *uuid.UUID        `db:"procedure_id" json:"procedureId"`
	ProcedureCode  *string           `db:"procedure_code" json:"procedureCode"`
	Tooth          *string           `db:"tooth" json:"tooth"`
	Faces          []string          `db:"faces" json:"faces"`
	Quantity       int               `db:"quantity" json:"quantity"`
	ClinicalStatus string            `db:"clinical_status" json:"clinicalStatus"`
	Price          *float64          `db:"price" json:"price"`
	DentistID      uuid.UUID         `db:"dentist_id" json:"dentistId"`
	Observations   *string           `db:"observations" json:"observations"`
	CreatedAt      time.Time         `db:"created_at" json:"createdAt"`
	Procedure      *ProcedureSummary `db:"-" json:"procedure"`
}

type ProcedureSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Code  *string   `json:"code"`
	Value float64   `json:"value"`
}

// Odontogram maps FDI tooth numbers to a clinical state string.
type Odontogram struct {
	ID           uuid.UUID         `db:"id" json:"id"`
	AttendanceID uuid.UUID         `db:"attendance_id" json:"attendanceId"`
	Data         map[string]string `db:"data" json:"data"`
	UpdatedAt    time.Time         `db:"updated_at" json:"updatedAt"`
}

type Document struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	AttendanceID uuid.UUID       `db:"attendance_id" json:"attendanceId"`
	Type         DocumentType    `db:"type" json:"type"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	GeneratedBy  uuid.UUID       `db:"generated_by" json:"generatedBy"`
	GeneratedAt  time.Time       `db:"generated_at" json:"generatedAt"`
}

type CheckInInput struct {
	PatientID     uuid.UUID  `json:"patientId" validate:"required"`
	AppointmentID *uuid.UUID `json:"appointmentId"`
	Notes         *string    `json:"notes" validate:"omitempty,max=2000"`
}

type StartInput struct {
	DentistID uuid.UUID `json:"dentistId" validate:"required"`
}

type AddCIDInput struct {
	CIDCode     string  `json:"cidCode" validate:"required,cid_code"`
	Description string  `json:"description" validate:"required,max=255"`
	Observation *string `json:"observation" validate:"omitempty,max=2000"`
}

type AddProcedureInput struct {
	ProcedureID    uuid.UUID `json:"procedureId" validate:"required"`
	Tooth          *string   `json:"tooth" validate:"omitempty,fdi_tooth"`
	Faces          []string  `json:"faces" validate:"omitempty,max=5,unique,dive,tooth_face"`
	Quantity       int       `json:"quantity" validate:"omitempty,min=1,max=32"`
	ClinicalStatus string    `json:"clinicalStatus" validate:"omitempty,oneof=PLANNED PERFORMED EXISTING"`
	Observations   *string   `json:"observations" validate:"omitempty,max=2000"`
}

type OdontogramInput struct {
	Data map[string]string `json:"data" validate:"required,max=32,dive,keys,fdi_tooth,endkeys,required,max=40"`
}

type DocumentInput struct {
	Type    string          `json:"type" validate:"required,oneof=ATESTADO PRESCRICAO EXAME ENCAMINHAMENTO"`
	Payload json.RawMessage `json:"payload" validate:"required"`
}

// ListFilter narrows ListAttendances. Day is a calendar date in the clinic's
// time zone.
type ListFilter struct {
	Status    string     `json:"status" validate:"omitempty,oneof=CHECKED_IN IN_PROGRESS DONE CANCELED NO_SHOW"`
	PatientID *uuid.UUID `json:"patientId"`
	DentistID *uuid.UUID `json:"dentistId"`
	Day       string     `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// ListQuery is a ListFilter resolved for the repository. When DayStart is
// set, an attendance matches if it arrived or started in
// [DayStart, DayEnd) or is IN_PROGRESS.
type ListQuery struct {
	Status    *Status
	PatientID *uuid.UUID
	DentistID *uuid.UUID
	DayStart  *time.Time
	DayEnd    *time.Time
}
