package patient

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odonto/clinic/internal/platform/db"
	"github.com/odonto/clinic/internal/platform/validate"
)

type repoPG struct {
	pool *pgxpool.Pool
	qb   goqu.DialectWrapper
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool, qb: goqu.Dialect("postgres")}
}

const patientCols = `id, clinic_id, name, cpf, birth_date, phone, email, address, notes,
	is_active, created_at, updated_at`

var patientColList = []interface{}{
	"id", "clinic_id", "name", "cpf", "birth_date", "phone", "email", "address", "notes",
	"is_active", "created_at", "updated_at",
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO patient (id, clinic_id, name, cpf, birth_date, phone, email, address, notes, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,TRUE)
		RETURNING is_active, created_at, updated_at`,
		p.ID, p.ClinicID, p.Name, p.CPF, p.BirthDate, p.Phone, p.Email, p.Address, p.Notes,
	).Scan(&p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Patient, error) {
	p, err := scanPatient(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient WHERE id = $1 AND clinic_id = $2`, id, clinicID))
	return p, db.NotFound(err)
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE patient SET
			name=$3, cpf=$4, birth_date=$5, phone=$6, email=$7, address=$8, notes=$9, updated_at=NOW()
		WHERE id = $1 AND clinic_id = $2
		RETURNING updated_at`,
		p.ID, p.ClinicID, p.Name, p.CPF, p.BirthDate, p.Phone, p.Email, p.Address, p.Notes,
	).Scan(&p.UpdatedAt)
	return db.NotFound(err)
}

func (r *repoPG) SetActive(ctx context.Context, clinicID, id uuid.UUID, active bool) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE patient SET is_active = $3, updated_at = NOW() WHERE id = $1 AND clinic_id = $2`,
		id, clinicID, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *repoPG) ExistsByCPF(ctx context.Context, clinicID uuid.UUID, cpf string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM patient WHERE clinic_id = $1 AND cpf = $2 AND id <> $3)`,
		clinicID, cpf, excludeID).Scan(&exists)
	return exists, err
}

func (r *repoPG) Search(ctx context.Context, clinicID uuid.UUID, f SearchFilter, limit, offset int) ([]*Patient, int, error) {
	ds := r.qb.From("patient").Prepared(true).Where(goqu.Ex{"clinic_id": clinicID})
	if !f.IncludeInactive {
		ds = ds.Where(goqu.Ex{"is_active": true})
	}
	if f.Query != "" {
		match := goqu.Or(goqu.I("name").ILike("%" + f.Query + "%"))
		if digits := validate.OnlyDigits(f.Query); digits != "" {
			match = match.Append(goqu.I("cpf").Like(digits + "%"))
		}
		ds = ds.Where(match)
	}

	countSQL, countArgs, err := ds.Select(goqu.COUNT("*")).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build patient count: %w", err)
	}
	var total int
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL, dataArgs, err := ds.Select(patientColList...).
		Order(goqu.I("name").Asc()).
		Limit(uint(limit)).
		Offset(uint(offset)).
		ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build patient search: %w", err)
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx, dataSQL, dataArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.ClinicID, &p.Name, &p.CPF, &p.BirthDate, &p.Phone, &p.Email,
		&p.Address, &p.Notes, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
