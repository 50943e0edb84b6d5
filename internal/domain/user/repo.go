package user

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*User, error)
	Update(ctx context.Context, u *User) error
	SetActive(ctx context.Context, clinicID, id uuid.UUID, active bool) error
	// ExistsByEmail compares lower-cased emails and ignores excludeID.
	ExistsByEmail(ctx context.Context, clinicID uuid.UUID, email string, excludeID uuid.UUID) (bool, error)
	List(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*User, int, error)
}
