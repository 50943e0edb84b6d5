package specialty

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/odonto/clinic/internal/platform/apperr"
	"github.com/odonto/clinic/internal/platform/auth"
	"github.com/odonto/clinic/internal/platform/db"
	"github.com/odonto/clinic/internal/platform/result"
	"github.com/odonto/clinic/internal/platform/validate"
)

const (
	msgNotFound      = "especialidade não encontrada"
	msgNameDuplicate = "já existe uma especialidade com este nome"
)

type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, log: logger}
}

func (s *Service) CreateSpecialty(ctx context.Context, sess auth.Session, in Input) result.Result[*Specialty] {
	sp, err := s.save(ctx, sess, &Specialty{ClinicID: sess.ClinicID}, in)
	return result.Of(s.log, "specialty.create", sp, err)
}

func (s *Service) UpdateSpecialty(ctx context.Context, sess auth.Session, id uuid.UUID, in Input) result.Result[*Specialty] {
	sp, err := s.get(ctx, sess.ClinicID, id)
	if err == nil {
		sp, err = s.save(ctx, sess, sp, in)
	}
	return result.Of(s.log, "specialty.update", sp, err)
}

func (s *Service) save(ctx context.Context, sess auth.Session, sp *Specialty, in Input) (*Specialty, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if err := sess.RequireOwnerEquivalent(); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	exists, err := s.repo.ExistsByName(ctx, sess.ClinicID, name, sp.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Conflict(msgNameDuplicate)
	}
	sp.Name, sp.Description = name, in.Description

	if sp.ID == uuid.Nil {
		err = s.repo.Create(ctx, sp)
	} else {
		err = s.repo.Update(ctx, sp)
	}
	if db.IsUniqueViolation(err, "specialty_clinic_name_key") {
		return nil, apperr.Conflict(msgNameDuplicate)
	}
	if err != nil {
		return nil, err
	}
	return sp, nil
}

func (s *Service) GetSpecialty(ctx context.Context, sess auth.Session, id uuid.UUID) result.Result[*Specialty] {
	sp, err := s.get(ctx, sess.ClinicID, id)
	return result.Of(s.log, "specialty.get", sp, err)
}

func (s *Service) ListSpecialties(ctx context.Context, sess auth.Session, includeInactive bool) result.Result[[]*Specialty] {
	items, err := s.repo.List(ctx, sess.ClinicID, includeInactive)
	if items == nil && err == nil {
		items = []*Specialty{}
	}
	return result.Of(s.log, "specialty.list", items, err)
}

func (s *Service) DeactivateSpecialty(ctx context.Context, sess auth.Session, id uuid.UUID) result.Result[*Specialty] {
	sp, err := s.deactivate(ctx, sess, id)
	return result.Of(s.log, "specialty.deactivate", sp, err)
}

func (s *Service) deactivate(ctx context.Context, sess auth.Session, id uuid.UUID) (*Specialty, error) {
	if err := sess.RequireOwnerEquivalent(); err != nil {
		return nil, err
	}
	sp, err := s.get(ctx, sess.ClinicID, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetActive(ctx, sess.ClinicID, id, false); err != nil {
		return nil, err
	}
	sp.IsActive = false
	return sp, nil
}

func (s *Service) get(ctx context.Context, clinicID, id uuid.UUID) (*Specialty, error) {
	sp, err := s.repo.GetByID(ctx, clinicID, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound(msgNotFound)
	}
	return sp, err
}
