package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/odonto/clinic/internal/platform/apperr"
)

// ForbiddenMessage is returned when the caller's role cannot perform a use case.
const ForbiddenMessage = "sem permissão para esta operação"

type Role string

const (
	RoleOwner        Role = "OWNER"
	RoleAdmin        Role = "ADMIN"
	RoleDentist      Role = "DENTIST"
	RoleReceptionist Role = "RECEPTIONIST"
)

var validRoles = map[Role]bool{
	RoleOwner: true, RoleAdmin: true, RoleDentist: true, RoleReceptionist: true,
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !validRoles[r] {
		return "", fmt.Errorf("unknown role: %q", s)
	}
	return r, nil
}

// Session identifies the caller of a use case. It is always passed
// explicitly; use cases never read it from ambient state.
type Session struct {
	UserID   uuid.UUID `json:"user_id"`
	ClinicID uuid.UUID `json:"clinic_id"`
	Role     Role      `json:"role"`
}

// IsOwnerEquivalent reports whether the caller administers the clinic.
func (s Session) IsOwnerEquivalent() bool {
	return s.Role == RoleOwner || s.Role == RoleAdmin
}

// RequireOwnerEquivalent returns a forbidden error for non-admin callers.
func (s Session) RequireOwnerEquivalent() error {
	if !s.IsOwnerEquivalent() {
		return apperr.Forbidden(ForbiddenMessage)
	}
	return nil
}

func (s Session) Valid() bool {
	return s.UserID != uuid.Nil && s.ClinicID != uuid.Nil && validRoles[s.Role]
}

type contextKey string

const sessionKey contextKey = "session"

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey).(Session)
	return s, ok
}
