package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Appointment, error)
	UpdateStatus(ctx context.Context, clinicID, id uuid.UUID, status Status) error
	// ListBetween returns appointments with from <= scheduled_at < to.
	ListBetween(ctx context.Context, clinicID uuid.UUID, from, to time.Time) ([]*Appointment, error)
}
