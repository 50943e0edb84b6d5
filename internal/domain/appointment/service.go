package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/odonto/clinic/internal/domain/dentist"
	"github.com/odonto/clinic/internal/domain/patient"
	"github.com/odonto/clinic/internal/platform/apperr"
	"github.com/odonto/clinic/internal/platform/auth"
	"github.com/odonto/clinic/internal/platform/db"
	"github.com/odonto/clinic/internal/platform/result"
	"github.com/odonto/clinic/internal/platform/validate"
)

const (
	MsgNotFound = "agendamento não encontrado"

	defaultDuration      = 30
	msgPatientNotFound   = "paciente não encontrado"
	msgPatientInactive   = "paciente inativo"
	msgDentistNotFound   = "dentista não encontrado"
	msgInvalidTransition = "transição de status inválida para o agendamento"
	msgInvalidDay        = "dia inválido, use o formato AAAA-MM-DD"
)

type PatientFinder interface {
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*patient.Patient, error)
}

type DentistFinder interface {
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*dentist.Dentist, error)
}

type Service struct {
	repo     Repository
	patients PatientFinder
	dentists DentistFinder
	loc      *time.Location
	log      zerolog.Logger
}

// NewService builds the appointment use cases. Day listings are computed in loc.
func NewService(repo Repository, patients PatientFinder, dentists DentistFinder, loc *time.Location, logger zerolog.Logger) *Service {
	return &Service{repo: repo, patients: patients, dentists: dentists, loc: loc, log: logger}
}

func (s *Service) CreateAppointment(ctx context.Context, sess auth.Session, in CreateInput) result.Result[*Appointment] {
	a, err := s.createAppointment(ctx, sess, in)
	return result.Of(s.log, "appointment.create", a, err)
}

func (s *Service) createAppointment(ctx context.Context, sess auth.Session, in CreateInput) (*Appointment, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	p, err := s.patients.GetByID(ctx, sess.ClinicID, in.PatientID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound(msgPatientNotFound)
	}
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, apperr.Business(msgPatientInactive)
	}
	if in.DentistID != nil {
		if _, err := s.dentists.GetByID(ctx, sess.ClinicID, *in.DentistID); err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return nil, apperr.NotFound(msgDentistNotFound)
			}
			return nil, err
		}
	}

	a := &Appointment{
		ClinicID:        sess.ClinicID,
		PatientID:       in.PatientID,
		DentistID:       in.DentistID,
		ScheduledAt:     in.ScheduledAt.UTC(),
		DurationMinutes: in.DurationMinutes,
		Status:          StatusScheduled,
		Notes:           in.Notes,
	}
	if a.DurationMinutes == 0 {
		a.DurationMinutes = defaultDuration
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) GetAppointment(ctx context.Context, sess auth.Session, id uuid.UUID) result.Result[*Appointment] {
	a, err := s.get(ctx, sess.ClinicID, id)
	return result.Of(s.log, "appointment.get", a, err)
}

// ListDay lists the appointments scheduled on day (YYYY-MM-DD) in the clinic's
// time zone.
func (s *Service) ListDay(ctx context.Context, sess auth.Session, day string) result.Result[[]*Appointment] {
	items, err := s.listDay(ctx, sess, day)
	return result.Of(s.log, "appointment.list_day", items, err)
}

func (s *Service) listDay(ctx context.Context, sess auth.Session, day string) ([]*Appointment, error) {
	from, err := time.ParseInLocation("2006-01-02", day, s.loc)
	if err != nil {
		return nil, apperr.Validation(msgInvalidDay)
	}
	items, err := s.repo.ListBetween(ctx, sess.ClinicID, from, from.AddDate(0, 0, 1))
	if items == nil && err == nil {
		items = []*Appointment{}
	}
	return items, err
}

func (s *Service) UpdateStatus(ctx context.Context, sess auth.Session, id uuid.UUID, in StatusInput) result.Result[*Appointment] {
	a, err := s.updateStatus(ctx, sess, id, in)
	return result.Of(s.log, "appointment.update_status", a, err)
}

func (s *Service) updateStatus(ctx context.Context, sess auth.Session, id uuid.UUID, in StatusInput) (*Appointment, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	a, err := s.get(ctx, sess.ClinicID, id)
	if err != nil {
		return nil, err
	}
	next := Status(in.Status)
	if !a.Status.CanMoveTo(next) {
		return nil, apperr.Business(msgInvalidTransition)
	}
	if err := s.repo.UpdateStatus(ctx, sess.ClinicID, id, next); err != nil {
		return nil, err
	}
	a.Status = next
	return a, nil
}

func (s *Service) get(ctx context.Context, clinicID, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, clinicID, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound(MsgNotFound)
	}
	return a, err
}
