package specialty

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, s *Specialty) error
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Specialty, error)
	Update(ctx context.Context, s *Specialty) error
	SetActive(ctx context.Context, clinicID, id uuid.UUID, active bool) error
	// ExistsByName compares names case-insensitively and ignores excludeID.
	ExistsByName(ctx context.Context, clinicID uuid.UUID, name string, excludeID uuid.UUID) (bool, error)
	List(ctx context.Context, clinicID uuid.UUID, includeInactive bool) ([]*Specialty, error)
}
