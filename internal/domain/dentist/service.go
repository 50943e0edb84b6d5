package dentist

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/odonto/clinic/internal/domain/procedure"
	"github.com/odonto/clinic/internal/domain/specialty"
	"github.com/odonto/clinic/internal/domain/user"
	"github.com/odonto/clinic/internal/platform/apperr"
	"github.com/odonto/clinic/internal/platform/auth"
	"github.com/odonto/clinic/internal/platform/db"
	"github.com/odonto/clinic/internal/platform/result"
	"github.com/odonto/clinic/internal/platform/validate"
)

const (
	MsgNotFound = "dentista não encontrado"

	msgCRODuplicate      = "já existe um dentista com este CRO"
	msgLinkNotFound      = "procedimento não vinculado a este dentista"
	msgProcedureInactive = "procedimento inativo"
	msgSpecialtyNotFound = "especialidade não encontrada"
	croConstraintKey     = "dentist_clinic_cro_key"
)

type ProcedureFinder interface {
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*procedure.Procedure, error)
}

type SpecialtyFinder interface {
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*specialty.Specialty, error)
}

type Service struct {
	repo        Repository
	users       user.Repository
	procedures  ProcedureFinder
	specialties SpecialtyFinder
	tx          db.Transactor
	log         zerolog.Logger
}

func NewService(repo Repository, users user.Repository, procedures ProcedureFinder,
	specialties SpecialtyFinder, tx db.Transactor, logger zerolog.Logger) *Service {
	return &Service{
		repo:        repo,
		users:       users,
		procedures:  procedures,
		specialties: specialties,
		tx:          tx,
		log:         logger,
	}
}

// CreateDentist registers the login user and the dentist profile in one
// transaction.
func (s *Service) CreateDentist(ctx context.Context, sess auth.Session, in CreateInput) result.Result[*Dentist] {
	d, err := s.createDentist(ctx, sess, in)
	return result.Of(s.log, "dentist.create", d, err)
}

func (s *Service) createDentist(ctx context.Context, sess auth.Session, in CreateInput) (*Dentist, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if err := sess.RequireOwnerEquivalent(); err != nil {
		return nil, err
	}
	d := &Dentist{
		ClinicID:    sess.ClinicID,
		CRO:         normalizeCRO(in.CRO),
		CROState:    strings.ToUpper(in.CROState),
		Phone:       in.Phone,
		SpecialtyID: in.SpecialtyID,
	}
	if err := s.checkProfile(ctx, d, uuid.Nil); err != nil {
		return nil, err
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		u, err := user.Register(ctx, s.users, sess.ClinicID, in.Name, in.Email, auth.RoleDentist)
		if err != nil {
			return err
		}
		d.UserID = u.ID
		if err := s.repo.Create(ctx, d); err != nil {
			return err
		}
		d.User = &UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
		return nil
	})
	if db.IsUniqueViolation(err, croConstraintKey) {
		return nil, apperr.Conflict(msgCRODuplicate)
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// UpdateDentist is open to owner-equivalent callers and to the dentist
// editing their own profile.
func (s *Service) UpdateDentist(ctx context.Context, sess auth.Session, id uuid.UUID, in UpdateInput) result.Result[*Dentist] {
	d, err := s.updateDentist(ctx, sess, id, in)
	return result.Of(s.log, "dentist.update", d, err)
}

func (s *Service) updateDentist(ctx context.Context, sess auth.Session, id uuid.UUID, in UpdateInput) (*Dentist, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	d, err := s.get(ctx, sess.ClinicID, id)
	if err != nil {
		return nil, err
	}
	if err := canManage(sess, d); err != nil {
		return nil, err
	}
	d.CRO, d.CROState = normalizeCRO(in.CRO), strings.ToUpper(in.CROState)
	d.Phone, d.SpecialtyID = in.Phone, in.SpecialtyID
	if err := s.checkProfile(ctx, d, d.ID); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, d); err != nil {
		if db.IsUniqueViolation(err, croConstraintKey) {
			return nil, apperr.Conflict(msgCRODuplicate)
		}
		return nil, err
	}
	return d, nil
}

func (s *Service) GetDentist(ctx context.Context, sess auth.Session, id uuid.UUID) result.Result[*Dentist] {
	d, err := s.get(ctx, sess.ClinicID, id)
	return result.Of(s.log, "dentist.get", d, err)
}

// GetOwnProfile returns the dentist profile bound to the caller's user.
func (s *Service) GetOwnProfile(ctx context.Context, sess auth.Session) result.Result[*Dentist] {
	d, err := s.repo.GetByUserID(ctx, sess.ClinicID, sess.UserID)
	if errors.Is(err, db.ErrNotFound) {
		err = apperr.NotFound(MsgNotFound)
	}
	return result.Of(s.log, "dentist.own_profile", d, err)
}

func (s *Service) ListDentists(ctx context.Context, sess auth.Session, includeInactive bool) result.Result[[]*Dentist] {
	items, err := s.repo.List(ctx, sess.ClinicID, includeInactive)
	if items == nil && err == nil {
		items = []*Dentist{}
	}
	return result.Of(s.log, "dentist.list", items, err)
}

func (s *Service) DeactivateDentist(ctx context.Context, sess auth.Session, id uuid.UUID) result.Result[*Dentist] {
	d, err := s.deactivate(ctx, sess, id)
	return result.Of(s.log, "dentist.deactivate", d, err)
}

func (s *Service) deactivate(ctx context.Context, sess auth.Session, id uuid.UUID) (*Dentist, error) {
	if err := sess.RequireOwnerEquivalent(); err != nil {
		return nil, err
	}
	d, err := s.get(ctx, sess.ClinicID, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetActive(ctx, sess.ClinicID, id, false); err != nil {
		return nil, err
	}
	d.IsActive = false
	return d, nil
}

// LinkProcedure records that the dentist performs the procedure. Attendance
// procedures can only be added for linked pairs.
func (s *Service) LinkProcedure(ctx context.Context, sess auth.Session, dentistID uuid.UUID, in LinkInput) result.Result[[]*procedure.Procedure] {
	items, err := s.linkProcedure(ctx, sess, dentistID, in)
	return result.Of(s.log, "dentist.link_procedure", items, err)
}

func (s *Service) linkProcedure(ctx context.Context, sess auth.Session, dentistID uuid.UUID, in LinkInput) ([]*procedure.Procedure, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	d, err := s.get(ctx, sess.ClinicID, dentistID)
	if err != nil {
		return nil, err
	}
	if err := canManage(sess, d); err != nil {
		return nil, err
	}
	p, err := s.procedures.GetByID(ctx, sess.ClinicID, in.ProcedureID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound(procedure.MsgNotFound)
	}
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, apperr.Business(msgProcedureInactive)
	}
	if err := s.repo.LinkProcedure(ctx, sess.ClinicID, d.ID, p.ID); err != nil {
		return nil, err
	}
	return s.listProcedures(ctx, sess.ClinicID, d.ID)
}

func (s *Service) UnlinkProcedure(ctx context.Context, sess auth.Session, dentistID, procedureID uuid.UUID) result.Result[[]*procedure.Procedure] {
	items, err := s.unlinkProcedure(ctx, sess, dentistID, procedureID)
	return result.Of(s.log, "dentist.unlink_procedure", items, err)
}

func (s *Service) unlinkProcedure(ctx context.Context, sess auth.Session, dentistID, procedureID uuid.UUID) ([]*procedure.Procedure, error) {
	d, err := s.get(ctx, sess.ClinicID, dentistID)
	if err != nil {
		return nil, err
	}
	if err := canManage(sess, d); err != nil {
		return nil, err
	}
	if err := s.repo.UnlinkProcedure(ctx, sess.ClinicID, d.ID, procedureID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperr.NotFound(msgLinkNotFound)
		}
		return nil, err
	}
	return s.listProcedures(ctx, sess.ClinicID, d.ID)
}

func (s *Service) ListDentistProcedures(ctx context.Context, sess auth.Session, dentistID uuid.UUID) result.Result[[]*procedure.Procedure] {
	items, err := s.listDentistProcedures(ctx, sess, dentistID)
	return result.Of(s.log, "dentist.list_procedures", items, err)
}

func (s *Service) listDentistProcedures(ctx context.Context, sess auth.Session, dentistID uuid.UUID) ([]*procedure.Procedure, error) {
	if _, err := s.get(ctx, sess.ClinicID, dentistID); err != nil {
		return nil, err
	}
	return s.listProcedures(ctx, sess.ClinicID, dentistID)
}

func (s *Service) listProcedures(ctx context.Context, clinicID, dentistID uuid.UUID) ([]*procedure.Procedure, error) {
	items, err := s.repo.ListProcedures(ctx, clinicID, dentistID)
	if items == nil && err == nil {
		items = []*procedure.Procedure{}
	}
	return items, err
}

// checkProfile enforces CRO uniqueness and that the specialty belongs to the
// clinic.
func (s *Service) checkProfile(ctx context.Context, d *Dentist, excludeID uuid.UUID) error {
	exists, err := s.repo.ExistsByCRO(ctx, d.ClinicID, d.CRO, d.CROState, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return apperr.Conflict(msgCRODuplicate)
	}
	if d.SpecialtyID != nil {
		if _, err := s.specialties.GetByID(ctx, d.ClinicID, *d.SpecialtyID); err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return apperr.NotFound(msgSpecialtyNotFound)
			}
			return err
		}
	}
	return nil
}

func (s *Service) get(ctx context.Context, clinicID, id uuid.UUID) (*Dentist, error) {
	d, err := s.repo.GetByID(ctx, clinicID, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound(MsgNotFound)
	}
	return d, err
}

func canManage(sess auth.Session, d *Dentist) error {
	if sess.IsOwnerEquivalent() || d.UserID == sess.UserID {
		return nil
	}
	return apperr.Forbidden(auth.ForbiddenMessage)
}

func normalizeCRO(cro string) string {
	return strings.ToUpper(strings.TrimSpace(cro))
}
