package user

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
	"github.com/odonto/clinic/pkg/pagination"
)

const (
	MsgEmailDuplicate = "já existe um usuário com este e-mail"

	msgNotFound        = "usuário não encontrado"
	msgOwnerOnly       = "apenas o proprietário pode conceder o papel OWNER"
	msgSelfDeactivate  = "não é possível desativar o próprio usuário"
	emailConstraintKey = "app_user_clinic_email_key"
)

type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, log: logger}
}

func (s *Service) CreateUser(ctx context.Context, sess auth.Session, in CreateInput) result.Result[*User] {
	u, err := s.createUser(ctx, sess, in)
	return result.Of(s.log, "user.create", u, err)
}

func (s *Service) createUser(ctx context.Context, sess auth.Session, in CreateInput) (*User, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if err := sess.RequireOwnerEquivalent(); err != nil {
		return nil, err
	}
	role := auth.Role(in.Role)
	if role == auth.RoleOwner && sess.Role != auth.RoleOwner {
		return nil, apperr.Forbidden(msgOwnerOnly)
	}
	return Register(ctx, s.repo, sess.ClinicID, in.Name, in.Email, role)
}

// Register inserts a user after checking e-mail uniqueness within the clinic.
// Dentist onboarding calls it inside its own transaction.
func Register(ctx context.Context, repo Repository, clinicID uuid.UUID, name, email string, role auth.Role) (*User, error) {
	email = NormalizeEmail(email)
	exists, err := repo.ExistsByEmail(ctx, clinicID, email, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Conflict(MsgEmailDuplicate)
	}
	u := &User{ClinicID: clinicID, Name: strings.TrimSpace(name), Email: email, Role: role}
	if err := repo.Create(ctx, u); err != nil {
		if db.IsUniqueViolation(err, emailConstraintKey) {
			return nil, apperr.Conflict(MsgEmailDuplicate)
		}
		return nil, err
	}
	return u, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) GetUser(ctx context.Context, sess auth.Session, id uuid.UUID) result.Result[*User] {
	u, err := s.get(ctx, sess.ClinicID, id)
	return result.Of(s.log, "user.get", u, err)
}

func (s *Service) UpdateUser(ctx context.Context, sess auth.Session, id uuid.UUID, in UpdateInput) result.Result[*User] {
	u, err := s.updateUser(ctx, sess, id, in)
	return result.Of(s.log, "user.update", u, err)
}

func (s *Service) updateUser(ctx context.Context, sess auth.Session, id uuid.UUID, in UpdateInput) (*User, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if err := sess.RequireOwnerEquivalent(); err != nil {
		return nil, err
	}
	u, err := s.get(ctx, sess.ClinicID, id)
	if err != nil {
		return nil, err
	}
	role := auth.Role(in.Role)
	if (role == auth.RoleOwner || u.Role == auth.RoleOwner) && sess.Role != auth.RoleOwner {
		return nil, apperr.Forbidden(msgOwnerOnly)
	}
	u.Name, u.Role = strings.TrimSpace(in.Name), role
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) DeactivateUser(ctx context.Context, sess auth.Session, id uuid.UUID) result.Result[*User] {
	u, err := s.deactivate(ctx, sess, id)
	return result.Of(s.log, "user.deactivate", u, err)
}

func (s *Service) deactivate(ctx context.Context, sess auth.Session, id uuid.UUID) (*User, error) {
	if err := sess.RequireOwnerEquivalent(); err != nil {
		return nil, err
	}
	if id == sess.UserID {
		return nil, apperr.Business(msgSelfDeactivate)
	}
	u, err := s.get(ctx, sess.ClinicID, id)
	if err != nil {
		return nil, err
	}
	if u.Role == auth.RoleOwner && sess.Role != auth.RoleOwner {
		return nil, apperr.Forbidden(msgOwnerOnly)
	}
	if err := s.repo.SetActive(ctx, sess.ClinicID, id, false); err != nil {
		return nil, err
	}
	u.IsActive = false
	return u, nil
}

func (s *Service) ListUsers(ctx context.Context, sess auth.Session, pg pagination.Params) result.Result[*pagination.Page[*User]] {
	pg = pg.Normalize()
	items, total, err := s.repo.List(ctx, sess.ClinicID, pg.Limit, pg.Offset)
	var page *pagination.Page[*User]
	if err == nil {
		page = pagination.NewPage(items, total, pg)
	}
	return result.Of(s.log, "user.list", page, err)
}

func (s *Service) get(ctx context.Context, clinicID, id uuid.UUID) (*User, error) {
	u, err := s.repo.GetByID(ctx, clinicID, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound(msgNotFound)
	}
	return u, err
}
