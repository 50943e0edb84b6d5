package specialty

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odonto/clinic/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const specialtyCols = `id, clinic_id, name, description, is_active, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, s *Specialty) error {
	s.ID = uuid.New()
	return db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO specialty (id, clinic_id, name, description)
		VALUES ($1,$2,$3,$4)
		RETURNING is_active, created_at, updated_at`,
		s.ID, s.ClinicID, s.Name, s.Description,
	).Scan(&s.IsActive, &s.CreatedAt, &s.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Specialty, error) {
	s, err := scanSpecialty(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+specialtyCols+` FROM specialty WHERE id = $1 AND clinic_id = $2`, id, clinicID))
	return s, db.NotFound(err)
}

func (r *repoPG) Update(ctx context.Context, s *Specialty) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE specialty SET name = $3, description = $4, updated_at = NOW()
		WHERE id = $1 AND clinic_id = $2
		RETURNING updated_at`,
		s.ID, s.ClinicID, s.Name, s.Description,
	).Scan(&s.UpdatedAt)
	return db.NotFound(err)
}

func (r *repoPG) SetActive(ctx context.Context, clinicID, id uuid.UUID, active bool) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE specialty SET is_active = $3, updated_at = NOW() WHERE id = $1 AND clinic_id = $2`,
		id, clinicID, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *repoPG) ExistsByName(ctx context.Context, clinicID uuid.UUID, name string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM specialty WHERE clinic_id = $1 AND LOWER(name) = LOWER($2) AND id <> $3)`,
		clinicID, name, excludeID).Scan(&exists)
	return exists, err
}

func (r *repoPG) List(ctx context.Context, clinicID uuid.UUID, includeInactive bool) ([]*Specialty, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT `+specialtyCols+` FROM specialty
		WHERE clinic_id = $1 AND (is_active OR $2)
		ORDER BY name`, clinicID, includeInactive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Specialty
	for rows.Next() {
		s, err := scanSpecialty(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

func scanSpecialty(row pgx.Row) (*Specialty, error) {
	var s Specialty
	if err := row.Scan(&s.ID, &s.ClinicID, &s.Name, &s.Description, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}
