package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	SetActive(ctx context.Context, clinicID, id uuid.UUID, active bool) error
	// ExistsByCPF ignores the patient identified by excludeID.
	ExistsByCPF(ctx context.Context, clinicID uuid.UUID, cpf string, excludeID uuid.UUID) (bool, error)
	Search(ctx context.Context, clinicID uuid.UUID, f SearchFilter, limit, offset int) ([]*Patient, int, error)
}
