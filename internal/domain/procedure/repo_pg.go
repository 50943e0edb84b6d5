package procedure

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

const procCols = `id, clinic_id, name, code, description, value, specialty_id, is_active, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, p *Procedure) error {
	p.ID = uuid.New()
	return db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO procedure (id, clinic_id, name, code, description, value, specialty_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING is_active, created_at, updated_at`,
		p.ID, p.ClinicID, p.Name, p.Code, p.Description, p.Value, p.SpecialtyID,
	).Scan(&p.IsActive, &p.CreatedAt, &p.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Procedure, error) {
	p, err := ScanProcedure(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+procCols+` FROM procedure WHERE id = $1 AND clinic_id = $2`, id, clinicID))
	return p, db.NotFound(err)
}

func (r *repoPG) Update(ctx context.Context, p *Procedure) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE procedure SET name=$3, code=$4, description=$5, value=$6, specialty_id=$7, updated_at=NOW()
		WHERE id = $1 AND clinic_id = $2
		RETURNING updated_at`,
		p.ID, p.ClinicID, p.Name, p.Code, p.Description, p.Value, p.SpecialtyID,
	).Scan(&p.UpdatedAt)
	return db.NotFound(err)
}

func (r *repoPG) SetActive(ctx context.Context, clinicID, id uuid.UUID, active bool) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE procedure SET is_active = $3, updated_at = NOW() WHERE id = $1 AND clinic_id = $2`,
		id, clinicID, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, clinicID uuid.UUID, f ListFilter) ([]*Procedure, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT `+procCols+` FROM procedure
		WHERE clinic_id = $1 AND (is_active OR $2) AND ($3::uuid IS NULL OR specialty_id = $3)
		ORDER BY name`, clinicID, f.IncludeInactive, f.SpecialtyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return CollectProcedures(rows)
}

// ScanProcedure reads one row selected with the procCols column order.
func ScanProcedure(row pgx.Row) (*Procedure, error) {
	var p Procedure
	if err := row.Scan(&p.ID, &p.ClinicID, &p.Name, &p.Code, &p.Description, &p.Value,
		&p.SpecialtyID, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func CollectProcedures(rows pgx.Rows) ([]*Procedure, error) {
	var items []*Procedure
	for rows.Next() {
		p, err := ScanProcedure(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

// Columns is the select list ScanProcedure expects, prefixed with alias.
func Columns(alias string) string {
	return alias + `.id, ` + alias + `.clinic_id, ` + alias + `.name, ` + alias + `.code, ` +
		alias + `.description, ` + alias + `.value, ` + alias + `.specialty_id, ` +
		alias + `.is_active, ` + alias + `.created_at, ` + alias + `.updated_at`
}
