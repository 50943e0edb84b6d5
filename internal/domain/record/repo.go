package record

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create joins the caller's transaction when one is active in ctx.
	Create(ctx context.Context, r *Record) error
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Record, error)
	ListByPatient(ctx context.Context, clinicID, patientID uuid.UUID, limit, offset int) ([]*Record, int, error)
}
