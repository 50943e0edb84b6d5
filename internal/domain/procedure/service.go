package procedure

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/odonto/clinic/internal/domain/specialty"
	"github.com/odonto/clinic/internal/platform/apperr"
	"github.com/odonto/clinic/internal/platform/auth"
	"github.com/odonto/clinic/internal/platform/db"
	"github.com/odonto/clinic/internal/platform/result"
	"github.com/odonto/clinic/internal/platform/validate"
)

const (
	MsgNotFound = "procedimento não encontrado"

	msgSpecialtyNotFound = "especialidade não encontrada"
)

// SpecialtyFinder resolves the specialty a procedure is filed under.
type SpecialtyFinder interface {
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*specialty.Specialty, error)
}

type Service struct {
	repo        Repository
	specialties SpecialtyFinder
	log         zerolog.Logger
}

func NewService(repo Repository, specialties SpecialtyFinder, logger zerolog.Logger) *Service {
	return &Service{repo: repo, specialties: specialties, log: logger}
}

func (s *Service) CreateProcedure(ctx context.Context, sess auth.Session, in Input) result.Result[*Procedure] {
	p, err := s.save(ctx, sess, &Procedure{ClinicID: sess.ClinicID}, in)
	return result.Of(s.log, "procedure.create", p, err)
}

func (s *Service) UpdateProcedure(ctx context.Context, sess auth.Session, id uuid.UUID, in Input) result.Result[*Procedure] {
	p, err := s.get(ctx, sess.ClinicID, id)
	if err == nil {
		p, err = s.save(ctx, sess, p, in)
	}
	return result.Of(s.log, "procedure.update", p, err)
}

func (s *Service) save(ctx context.Context, sess auth.Session, p *Procedure, in Input) (*Procedure, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if err := sess.RequireOwnerEquivalent(); err != nil {
		return nil, err
	}
	if in.SpecialtyID != nil {
		if _, err := s.specialties.GetByID(ctx, sess.ClinicID, *in.SpecialtyID); err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return nil, apperr.NotFound(msgSpecialtyNotFound)
			}
			return nil, err
		}
	}

	p.Name = strings.TrimSpace(in.Name)
	p.Code, p.Description, p.SpecialtyID = in.Code, in.Description, in.SpecialtyID
	p.Value = RoundMoney(in.Value)

	var err error
	if p.ID == uuid.Nil {
		err = s.repo.Create(ctx, p)
	} else {
		err = s.repo.Update(ctx, p)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) GetProcedure(ctx context.Context, sess auth.Session, id uuid.UUID) result.Result[*Procedure] {
	p, err := s.get(ctx, sess.ClinicID, id)
	return result.Of(s.log, "procedure.get", p, err)
}

func (s *Service) ListProcedures(ctx context.Context, sess auth.Session, f ListFilter) result.Result[[]*Procedure] {
	items, err := s.repo.List(ctx, sess.ClinicID, f)
	if items == nil && err == nil {
		items = []*Procedure{}
	}
	return result.Of(s.log, "procedure.list", items, err)
}

func (s *Service) DeactivateProcedure(ctx context.Context, sess auth.Session, id uuid.UUID) result.Result[*Procedure] {
	p, err := s.deactivate(ctx, sess, id)
	return result.Of(s.log, "procedure.deactivate", p, err)
}

func (s *Service) deactivate(ctx context.Context, sess auth.Session, id uuid.UUID) (*Procedure, error) {
	if err := sess.RequireOwnerEquivalent(); err != nil {
		return nil, err
	}
	p, err := s.get(ctx, sess.ClinicID, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetActive(ctx, sess.ClinicID, id, false); err != nil {
		return nil, err
	}
	p.IsActive = false
	return p, nil
}

func (s *Service) get(ctx context.Context, clinicID, id uuid.UUID) (*Procedure, error) {
	p, err := s.repo.GetByID(ctx, clinicID, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound(MsgNotFound)
	}
	return p, err
}
