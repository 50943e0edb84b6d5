package attendance

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists attendances. Every read is scoped by clinic.
type Repository interface {
	Create(ctx context.Context, a *Attendance) error
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Attendance, error)
	// Update writes the mutable lifecycle columns: status, dentist,
	// appointment link, timestamps and notes.
	Update(ctx context.Context, a *Attendance) error
	ListByAppointment(ctx context.Context, clinicID, appointmentID uuid.UUID) ([]*Attendance, error)
	// ClearAppointment unlinks attendances in the given statuses from the
	// appointment so a new check-in can take it.
	ClearAppointment(ctx context.Context, clinicID, appointmentID uuid.UUID, statuses []Status) error
	WaitingRoom(ctx context.Context, clinicID uuid.UUID) ([]*Summary, error)
	List(ctx context.Context, clinicID uuid.UUID, q ListQuery, limit, offset int) ([]*Summary, int, error)
	// GetDetail loads the attendance with its patient, dentist and
	// appointment projections; children are loaded separately.
	GetDetail(ctx context.Context, clinicID, id uuid.UUID) (*Detail, error)
}

type CIDRepository interface {
	Create(ctx context.Context, c *CID) error
	Delete(ctx context.Context, attendanceID, id uuid.UUID) error
	ListByAttendance(ctx context.Context, attendanceID uuid.UUID) ([]*CID, error)
}

type ProcedureRepository interface {
	Create(ctx context.Context, p *Procedure) error
	Delete(ctx context.Context, attendanceID, id uuid.UUID) error
	ListByAttendance(ctx context.Context, attendanceID uuid.UUID) ([]*Procedure, error)
}

type OdontogramRepository interface {
	// Upsert replaces the whole document.
	Upsert(ctx context.Context, o *Odontogram) error
	GetByAttendance(ctx context.Context, attendanceID uuid.UUID) (*Odontogram, error)
}

type DocumentRepository interface {
	Create(ctx context.Context, d *Document) error
	ListByAttendance(ctx context.Context, attendanceID uuid.UUID) ([]*Document, error)
}

// Repos groups the attendance repositories.
type Repos struct {
	Attendances Repository
	CIDs        CIDRepository
	Procedures  ProcedureRepository
	Odontograms OdontogramRepository
	Documents   DocumentRepository
}
