package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/odonto/clinic/internal/domain/appointment"
	"github.com/odonto/clinic/internal/domain/dentist"
	"github.com/odonto/clinic/internal/domain/patient"
	"github.com/odonto/clinic/internal/domain/procedure"
	"github.com/odonto/clinic/internal/domain/record"
	"github.com/odonto/clinic/internal/platform/apperr"
	"github.com/odonto/clinic/internal/platform/auth"
	"github.com/odonto/clinic/internal/platform/db"
	"github.com/odonto/clinic/internal/platform/result"
	"github.com/odonto/clinic/internal/platform/validate"
	"github.com/odonto/clinic/pkg/pagination"
)

const (
	MsgNotFound = "atendimento não encontrado"

	MsgFinishNotInProgress = "apenas atendimentos em andamento podem ser finalizados"
	MsgFinishCIDRequired   = "ao menos um CID é obrigatório para finalizar o atendimento"
	MsgFinishProcRequired  = "ao menos um procedimento é obrigatório para finalizar o atendimento"
	MsgAlreadyFinished     = "atendimento já finalizado"
	MsgAlreadyCanceled     = "atendimento já cancelado"
	MsgAppointmentInUse    = "já existe um atendimento ativo para este agendamento"

	msgPatientNotFound       = "paciente não encontrado"
	msgPatientInactive       = "paciente inativo"
	msgAppointmentOther      = "o agendamento pertence a outro paciente"
	msgAppointmentCanceled   = "agendamento cancelado"
	msgStartNotCheckedIn     = "apenas atendimentos aguardando podem ser iniciados"
	msgStartOwnProfile       = "o atendimento só pode ser iniciado com o próprio perfil de dentista"
	msgDentistInactive       = "dentista inativo"
	msgNoDentist             = "nenhum dentista responsável pelo atendimento"
	msgFinishNoDentist       = "o atendimento não possui dentista responsável"
	msgNotEditable           = "o atendimento não aceita alterações clínicas neste status"
	msgCancelInvalid         = "o atendimento não pode ser cancelado neste status"
	msgNoShowInvalid         = "apenas atendimentos aguardando podem ser marcados como falta"
	msgProcedureInactive     = "procedimento inativo"
	msgProcedureNotLinked    = "procedimento não vinculado ao dentista do atendimento"
	msgProcedureRowNotFound  = "procedimento não encontrado neste atendimento"
	msgCIDRowNotFound        = "CID não encontrado neste atendimento"
	msgDocumentNotDone       = "documentos só podem ser gerados para atendimentos finalizados"
	msgInvalidDay            = "dia inválido, use o formato AAAA-MM-DD"
	appointmentConstraintKey = "attendance_appointment_id_key"
)

type PatientFinder interface {
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*patient.Patient, error)
}

type DentistFinder interface {
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*dentist.Dentist, error)
	GetByUserID(ctx context.Context, clinicID, userID uuid.UUID) (*dentist.Dentist, error)
	HasProcedure(ctx context.Context, clinicID, dentistID, procedureID uuid.UUID) (bool, error)
}

type ProcedureFinder interface {
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*procedure.Procedure, error)
}

type AppointmentStore interface {
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*appointment.Appointment, error)
	UpdateStatus(ctx context.Context, clinicID, id uuid.UUID, status appointment.Status) error
}

type RecordWriter interface {
	Create(ctx context.Context, r *record.Record) error
}

// CategoryLookup resolves CID categories from the catalog.
type CategoryLookup interface {
	FindCategoriesByCodes(ctx context.Context, codes []string) (map[string]string, error)
}

// Deps are the collaborators owned by other packages.
type Deps struct {
	Patients         PatientFinder
	Dentists         DentistFinder
	ProcedureCatalog ProcedureFinder
	Appointments     AppointmentStore
	Records          RecordWriter
	Categories       CategoryLookup
}

type Service struct {
	Repos
	Deps
	tx  db.Transactor
	loc *time.Location
	now func() time.Time
	log zerolog.Logger
}

// NewService builds the attendance use cases. Day filters are computed in loc.
func NewService(repos Repos, deps Deps, tx db.Transactor, loc *time.Location, logger zerolog.Logger) *Service {
	return &Service{Repos: repos, Deps: deps, tx: tx, loc: loc, now: time.Now, log: logger}
}

// load re-reads the attendance inside the caller's clinic.
func (s *Service) load(ctx context.Context, sess auth.Session, id uuid.UUID) (*Attendance, error) {
	a, err := s.Attendances.GetByID(ctx, sess.ClinicID, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound(MsgNotFound)
	}
	return a, err
}

func (s *Service) CheckIn(ctx context.Context, sess auth.Session, in CheckInInput) result.Result[*Attendance] {
	a, err := s.checkIn(ctx, sess, in)
	return result.Of(s.log, "attendance.check_in", a, err)
}

func (s *Service) checkIn(ctx context.Context, sess auth.Session, in CheckInInput) (*Attendance, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	p, err := s.Patients.GetByID(ctx, sess.ClinicID, in.PatientID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound(msgPatientNotFound)
	}
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, apperr.Business(msgPatientInactive)
	}

	var appt *appointment.Appointment
	if in.AppointmentID != nil {
		if appt, err = s.checkAppointment(ctx, sess, *in.AppointmentID, p.ID); err != nil {
			return nil, err
		}
	}

	a := &Attendance{
		ClinicID:      sess.ClinicID,
		PatientID:     p.ID,
		AppointmentID: in.AppointmentID,
		Status:        StatusCheckedIn,
		Notes:         in.Notes,
		CreatedByID:   sess.UserID,
		CreatedByRole: sess.Role,
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if appt != nil {
			if err := s.Attendances.ClearAppointment(ctx, sess.ClinicID, appt.ID,
				[]Status{StatusDone, StatusCanceled, StatusNoShow}); err != nil {
				return err
			}
		}
		if err := s.Attendances.Create(ctx, a); err != nil {
			return err
		}
		if appt != nil && appt.Status.CanMoveTo(appointment.StatusAttended) {
			return s.Appointments.UpdateStatus(ctx, sess.ClinicID, appt.ID, appointment.StatusAttended)
		}
		return nil
	})
	if db.IsUniqueViolation(err, appointmentConstraintKey) {
		return nil, apperr.Conflict(MsgAppointmentInUse)
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// checkAppointment verifies the appointment can take a new attendance.
func (s *Service) checkAppointment(ctx context.Context, sess auth.Session, id, patientID uuid.UUID) (*appointment.Appointment, error) {
	appt, err := s.Appointments.GetByID(ctx, sess.ClinicID, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound(appointment.MsgNotFound)
	}
	if err != nil {
		return nil, err
	}
	if appt.PatientID != patientID {
		return nil, apperr.Business(msgAppointmentOther)
	}
	if appt.Status == appointment.StatusCanceled {
		return nil, apperr.Business(msgAppointmentCanceled)
	}
	linked, err := s.Attendances.ListByAppointment(ctx, sess.ClinicID, id)
	if err != nil {
		return nil, err
	}
	for _, other := range linked {
		if other.Status.Active() {
			return nil, apperr.Conflict(MsgAppointmentInUse)
		}
	}
	return appt, nil
}

func (s *Service) Start(ctx context.Context, sess auth.Session, id uuid.UUID, in StartInput) result.Result[*Attendance] {
	a, err := s.start(ctx, sess, id, in)
	return result.Of(s.log, "attendance.start", a, err)
}

func (s *Service) start(ctx context.Context, sess auth.Session, id uuid.UUID, in StartInput) (*Attendance, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	a, err := s.load(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if !a.Status.CanMoveTo(StatusInProgress) {
		return nil, apperr.Business(msgStartNotCheckedIn)
	}
	d, err := s.Dentists.GetByID(ctx, sess.ClinicID, in.DentistID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound(dentist.MsgNotFound)
	}
	if err != nil {
		return nil, err
	}
	if !d.IsActive {
		return nil, apperr.Business(msgDentistInactive)
	}
	if !sess.IsOwnerEquivalent() && d.UserID != sess.UserID {
		return nil, apperr.Forbidden(msgStartOwnProfile)
	}

	now := s.now()
	a.Status = StatusInProgress
	a.DentistID = &d.ID
	a.StartedAt = &now
	if err := s.Attendances.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Finish(ctx context.Context, sess auth.Session, id uuid.UUID) result.Result[*Attendance] {
	a, err := s.finish(ctx, sess, id)
	return result.Of(s.log, "attendance.finish", a, err)
}

func (s *Service) finish(ctx context.Context, sess auth.Session, id uuid.UUID) (*Attendance, error) {
	a, err := s.load(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusInProgress {
		return nil, apperr.Business(MsgFinishNotInProgress)
	}
	cids, err := s.CIDs.ListByAttendance(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	if len(cids) == 0 {
		return nil, apperr.Business(MsgFinishCIDRequired)
	}
	procs, err := s.Procedures.ListByAttendance(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	if len(procs) == 0 {
		return nil, apperr.Business(MsgFinishProcRequired)
	}
	if a.DentistID == nil {
		return nil, apperr.Business(msgFinishNoDentist)
	}
	odontogram, err := s.Odontograms.GetByAttendance(ctx, a.ID)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return nil, err
	}

	now := s.now()
	content := buildRecordContent(a, cids, procs, odontogram, now)
	rec := &record.Record{
		ClinicID:     a.ClinicID,
		PatientID:    a.PatientID,
		DentistID:    *a.DentistID,
		AttendanceID: a.ID,
		Summary:      record.Summarize(content),
		Content:      content,
	}

	prevStatus, prevFinished := a.Status, a.FinishedAt
	a.Status = StatusDone
	a.FinishedAt = &now
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.Attendances.Update(ctx, a); err != nil {
			return err
		}
		return s.Records.Create(ctx, rec)
	})
	if err != nil {
		a.Status, a.FinishedAt = prevStatus, prevFinished
		return nil, err
	}
	return a, nil
}

func buildRecordContent(a *Attendance, cids []*CID, procs []*Procedure, o *Odontogram, finishedAt time.Time) record.Content {
	c := record.Content{
		CIDs:       make([]record.CIDEntry, len(cids)),
		Procedures: make([]record.ProcedureEntry, len(procs)),
		StartedAt:  a.StartedAt,
		FinishedAt: finishedAt,
	}
	for i, cid := range cids {
		c.CIDs[i] = record.CIDEntry{Code: cid.CIDCode, Description: cid.Description, Observation: cid.Observation}
	}
	for i, p := range procs {
		entry := record.ProcedureEntry{
			ProcedureID:    p.ProcedureID,
			Code:           p.ProcedureCode,
			Tooth:          p.Tooth,
			Faces:          p.Faces,
			Quantity:       p.Quantity,
			ClinicalStatus: p.ClinicalStatus,
			Price:          p.Price,
		}
		if p.Procedure != nil {
			entry.Name = p.Procedure.Name
			if entry.Code == nil {
				entry.Code = p.Procedure.Code
			}
		}
		c.Procedures[i] = entry
	}
	if o != nil {
		c.Odontogram = o.Data
	}
	return c
}

func (s *Service) Cancel(ctx context.Context, sess auth.Session, id uuid.UUID) result.Result[*Attendance] {
	a, err := s.cancel(ctx, sess, id)
	return result.Of(s.log, "attendance.cancel", a, err)
}

func (s *Service) cancel(ctx context.Context, sess auth.Session, id uuid.UUID) (*Attendance, error) {
	a, err := s.load(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	switch {
	case a.Status == StatusDone:
		return nil, apperr.Business(MsgAlreadyFinished)
	case a.Status == StatusCanceled:
		return nil, apperr.Business(MsgAlreadyCanceled)
	case !a.Status.CanMoveTo(StatusCanceled):
		return nil, apperr.Business(msgCancelInvalid)
	}
	a.Status = StatusCanceled
	a.AppointmentID = nil
	if err := s.Attendances.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// MarkNoShow closes a waiting attendance whose patient left before being
// called. The appointment link is released.
func (s *Service) MarkNoShow(ctx context.Context, sess auth.Session, id uuid.UUID) result.Result[*Attendance] {
	a, err := s.markNoShow(ctx, sess, id)
	return result.Of(s.log, "attendance.no_show", a, err)
}

func (s *Service) markNoShow(ctx context.Context, sess auth.Session, id uuid.UUID) (*Attendance, error) {
	a, err := s.load(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if !a.Status.CanMoveTo(StatusNoShow) {
		return nil, apperr.Business(msgNoShowInvalid)
	}
	a.Status = StatusNoShow
	a.AppointmentID = nil
	if err := s.Attendances.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) ListWaitingRoom(ctx context.Context, sess auth.Session) result.Result[[]*Summary] {
	items, err := s.Attendances.WaitingRoom(ctx, sess.ClinicID)
	if items == nil && err == nil {
		items = []*Summary{}
	}
	return result.Of(s.log, "attendance.waiting_room", items, err)
}

func (s *Service) ListAttendances(ctx context.Context, sess auth.Session, f ListFilter, pg pagination.Params) result.Result[*pagination.Page[*Summary]] {
	page, err := s.listAttendances(ctx, sess, f, pg)
	return result.Of(s.log, "attendance.list", page, err)
}

func (s *Service) listAttendances(ctx context.Context, sess auth.Session, f ListFilter, pg pagination.Params) (*pagination.Page[*Summary], error) {
	if err := validate.Struct(f); err != nil {
		return nil, err
	}
	q, err := s.resolveFilter(f)
	if err != nil {
		return nil, err
	}
	pg = pg.Normalize()
	items, total, err := s.Attendances.List(ctx, sess.ClinicID, q, pg.Limit, pg.Offset)
	if err != nil {
		return nil, err
	}
	return pagination.NewPage(items, total, pg), nil
}

// resolveFilter turns the calendar day into a [start, end) range in the
// clinic's time zone.
func (s *Service) resolveFilter(f ListFilter) (ListQuery, error) {
	q := ListQuery{PatientID: f.PatientID, DentistID: f.DentistID}
	if f.Status != "" {
		st := Status(f.Status)
		q.Status = &st
	}
	if f.Day != "" {
		start, err := time.ParseInLocation("2006-01-02", f.Day, s.loc)
		if err != nil {
			return ListQuery{}, apperr.Validation(msgInvalidDay)
		}
		end := start.AddDate(0, 0, 1)
		q.DayStart, q.DayEnd = &start, &end
	}
	return q, nil
}

func (s *Service) GetAttendance(ctx context.Context, sess auth.Session, id uuid.UUID) result.Result[*Detail] {
	d, err := s.getAttendance(ctx, sess, id)
	return result.Of(s.log, "attendance.get", d, err)
}

func (s *Service) getAttendance(ctx context.Context, sess auth.Session, id uuid.UUID) (*Detail, error) {
	d, err := s.Attendances.GetDetail(ctx, sess.ClinicID, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound(MsgNotFound)
	}
	if err != nil {
		return nil, err
	}
	if d.CIDs, err = s.CIDs.ListByAttendance(ctx, d.ID); err != nil {
		return nil, err
	}
	if d.Procedures, err = s.Procedures.ListByAttendance(ctx, d.ID); err != nil {
		return nil, err
	}
	if d.Documents, err = s.Documents.ListByAttendance(ctx, d.ID); err != nil {
		return nil, err
	}
	d.Odontogram, err = s.Odontograms.GetByAttendance(ctx, d.ID)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return nil, err
	}
	if d.CIDs == nil {
		d.CIDs = []*CID{}
	}
	if d.Procedures == nil {
		d.Procedures = []*Procedure{}
	}
	if d.Documents == nil {
		d.Documents = []*Document{}
	}
	s.enrichCategories(ctx, d.CIDs)
	return d, nil
}
