package patient

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/odonto/clinic/internal/platform/apperr"
	"github.com/odonto/clinic/internal/platform/auth"
	"github.com/odonto/clinic/internal/platform/db"
	"github.com/odonto/clinic/internal/platform/result"
	"github.com/odonto/clinic/internal/platform/validate"
	"github.com/odonto/clinic/pkg/pagination"
)

const (
	msgNotFound     = "paciente não encontrado"
	msgCPFDuplicate = "já existe um paciente com este CPF"
)

type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, log: logger}
}

func (s *Service) CreatePatient(ctx context.Context, sess auth.Session, in Input) result.Result[*Patient] {
	p, err := s.createPatient(ctx, sess, in)
	return result.Of(s.log, "patient.create", p, err)
}

func (s *Service) createPatient(ctx context.Context, sess auth.Session, in Input) (*Patient, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	p := &Patient{ClinicID: sess.ClinicID}
	if err := s.apply(ctx, p, in); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		if db.IsUniqueViolation(err, "patient_clinic_cpf_key") {
			return nil, apperr.Conflict(msgCPFDuplicate)
		}
		return nil, err
	}
	return p, nil
}

func (s *Service) GetPatient(ctx context.Context, sess auth.Session, id uuid.UUID) result.Result[*Patient] {
	p, err := s.get(ctx, sess.ClinicID, id)
	return result.Of(s.log, "patient.get", p, err)
}

func (s *Service) UpdatePatient(ctx context.Context, sess auth.Session, id uuid.UUID, in Input) result.Result[*Patient] {
	p, err := s.updatePatient(ctx, sess, id, in)
	return result.Of(s.log, "patient.update", p, err)
}

func (s *Service) updatePatient(ctx context.Context, sess auth.Session, id uuid.UUID, in Input) (*Patient, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	p, err := s.get(ctx, sess.ClinicID, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, p, in); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		if db.IsUniqueViolation(err, "patient_clinic_cpf_key") {
			return nil, apperr.Conflict(msgCPFDuplicate)
		}
		return nil, err
	}
	return p, nil
}

// DeactivatePatient soft-deletes the patient. Existing attendances keep
// pointing at the row; new check-ins are refused.
func (s *Service) DeactivatePatient(ctx context.Context, sess auth.Session, id uuid.UUID) result.Result[*Patient] {
	p, err := s.setActive(ctx, sess, id, false)
	return result.Of(s.log, "patient.deactivate", p, err)
}

func (s *Service) ReactivatePatient(ctx context.Context, sess auth.Session, id uuid.UUID) result.Result[*Patient] {
	p, err := s.setActive(ctx, sess, id, true)
	return result.Of(s.log, "patient.reactivate", p, err)
}

func (s *Service) setActive(ctx context.Context, sess auth.Session, id uuid.UUID, active bool) (*Patient, error) {
	if err := sess.RequireOwnerEquivalent(); err != nil {
		return nil, err
	}
	p, err := s.get(ctx, sess.ClinicID, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetActive(ctx, sess.ClinicID, id, active); err != nil {
		return nil, err
	}
	p.IsActive = active
	return p, nil
}

func (s *Service) SearchPatients(ctx context.Context, sess auth.Session, f SearchFilter, pg pagination.Params) result.Result[*pagination.Page[*Patient]] {
	pg = pg.Normalize()
	f.Query = strings.TrimSpace(f.Query)
	items, total, err := s.repo.Search(ctx, sess.ClinicID, f, pg.Limit, pg.Offset)
	var page *pagination.Page[*Patient]
	if err == nil {
		page = pagination.NewPage(items, total, pg)
	}
	return result.Of(s.log, "patient.search", page, err)
}

func (s *Service) get(ctx context.Context, clinicID, id uuid.UUID) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, clinicID, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound(msgNotFound)
	}
	return p, err
}

// apply copies a validated input onto p, normalizing CPF and checking it is
// not already used by another patient of the clinic.
func (s *Service) apply(ctx context.Context, p *Patient, in Input) error {
	p.Name = strings.TrimSpace(in.Name)
	p.Phone, p.Email, p.Address, p.Notes = in.Phone, in.Email, in.Address, in.Notes

	p.CPF = nil
	if in.CPF != nil {
		cpf := validate.OnlyDigits(*in.CPF)
		exists, err := s.repo.ExistsByCPF(ctx, p.ClinicID, cpf, p.ID)
		if err != nil {
			return err
		}
		if exists {
			return apperr.Conflict(msgCPFDuplicate)
		}
		p.CPF = &cpf
	}

	p.BirthDate = nil
	if in.BirthDate != nil {
		bd, err := time.Parse("2006-01-02", *in.BirthDate)
		if err != nil {
			return apperr.Validation("birthDate: must match the format 2006-01-02")
		}
		p.BirthDate = &bd
	}
	return nil
}
