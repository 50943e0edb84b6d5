package dentist

import (
	"context"

	"github.com/google/uuid"

	"github.com/odonto/clinic/internal/domain/procedure"
)

type Repository interface {
	Create(ctx context.Context, d *Dentist) error
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Dentist, error)
	GetByUserID(ctx context.Context, clinicID, userID uuid.UUID) (*Dentist, error)
	Update(ctx context.Context, d *Dentist) error
	SetActive(ctx context.Context, clinicID, id uuid.UUID, active bool) error
	ExistsByCRO(ctx context.Context, clinicID uuid.UUID, cro, state string, excludeID uuid.UUID) (bool, error)
	List(ctx context.Context, clinicID uuid.UUID, includeInactive bool) ([]*Dentist, error)

	// DentistProcedure links
	LinkProcedure(ctx context.Context, clinicID, dentistID, procedureID uuid.UUID) error
	UnlinkProcedure(ctx context.Context, clinicID, dentistID, procedureID uuid.UUID) error
	HasProcedure(ctx context.Context, clinicID, dentistID, procedureID uuid.UUID) (bool, error)
	ListProcedures(ctx context.Context, clinicID, dentistID uuid.UUID) ([]*procedure.Procedure, error)
}
