package treatmentplan

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Plan) error
	// GetByID loads the plan with its items.
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Plan, error)
	Update(ctx context.Context, p *Plan) error
	// ReplaceItems deletes the plan's items and inserts items in their place.
	ReplaceItems(ctx context.Context, planID uuid.UUID, items []*Item) error
	SetStatus(ctx context.Context, clinicID, id uuid.UUID, status Status) error
	SetActive(ctx context.Context, clinicID, id uuid.UUID, active bool) error
	List(ctx context.Context, clinicID uuid.UUID, f ListFilter, limit, offset int) ([]*Plan, int, error)
}
