package payment

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Payment) error
	LinkPlans(ctx context.Context, paymentID uuid.UUID, planIDs []uuid.UUID) error
	// GetByID loads the payment with its linked plan ids.
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Payment, error)
	SetStatus(ctx context.Context, clinicID, id uuid.UUID, status Status) error
	List(ctx context.Context, clinicID uuid.UUID, f ListFilter, limit, offset int) ([]*Payment, int, error)
}
