package procedure

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Procedure) error
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Procedure, error)
	Update(ctx context.Context, p *Procedure) error
	SetActive(ctx context.Context, clinicID, id uuid.UUID, active bool) error
	List(ctx context.Context, clinicID uuid.UUID, f ListFilter) ([]*Procedure, error)
}
