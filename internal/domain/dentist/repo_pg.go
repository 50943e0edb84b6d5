package dentist

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odonto/clinic/internal/domain/procedure"
	"github.com/odonto/clinic/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const dentistSelect = `
	SELECT d.id, d.clinic_id, d.user_id, d.cro, d.cro_state, d.phone, d.specialty_id,
		d.is_active, d.created_at, d.updated_at, u.name, u.email
	FROM dentist d
	JOIN app_user u ON u.id = d.user_id`

func (r *repoPG) Create(ctx context.Context, d *Dentist) error {
	d.ID = uuid.New()
	return db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO dentist (id, clinic_id, user_id, cro, cro_state, phone, specialty_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING is_active, created_at, updated_at`,
		d.ID, d.ClinicID, d.UserID, d.CRO, d.CROState, d.Phone, d.SpecialtyID,
	).Scan(&d.IsActive, &d.CreatedAt, &d.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Dentist, error) {
	d, err := scanDentist(db.Conn(ctx, r.pool).QueryRow(ctx,
		dentistSelect+` WHERE d.id = $1 AND d.clinic_id = $2`, id, clinicID))
	return d, db.NotFound(err)
}

func (r *repoPG) GetByUserID(ctx context.Context, clinicID, userID uuid.UUID) (*Dentist, error) {
	d, err := scanDentist(db.Conn(ctx, r.pool).QueryRow(ctx,
		dentistSelect+` WHERE d.user_id = $1 AND d.clinic_id = $2`, userID, clinicID))
	return d, db.NotFound(err)
}

func (r *repoPG) Update(ctx context.Context, d *Dentist) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE dentist SET cro=$3, cro_state=$4, phone=$5, specialty_id=$6, updated_at=NOW()
		WHERE id = $1 AND clinic_id = $2
		RETURNING updated_at`,
		d.ID, d.ClinicID, d.CRO, d.CROState, d.Phone, d.SpecialtyID,
	).Scan(&d.UpdatedAt)
	return db.NotFound(err)
}

func (r *repoPG) SetActive(ctx context.Context, clinicID, id uuid.UUID, active bool) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE dentist SET is_active = $3, updated_at = NOW() WHERE id = $1 AND clinic_id = $2`,
		id, clinicID, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *repoPG) ExistsByCRO(ctx context.Context, clinicID uuid.UUID, cro, state string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM dentist WHERE clinic_id = $1 AND cro = $2 AND cro_state = $3 AND id <> $4
		)`, clinicID, cro, state, excludeID).Scan(&exists)
	return exists, err
}

func (r *repoPG) List(ctx context.Context, clinicID uuid.UUID, includeInactive bool) ([]*Dentist, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		dentistSelect+` WHERE d.clinic_id = $1 AND (d.is_active OR $2) ORDER BY u.name`,
		clinicID, includeInactive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Dentist
	for rows.Next() {
		d, err := scanDentist(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

func (r *repoPG) LinkProcedure(ctx context.Context, clinicID, dentistID, procedureID uuid.UUID) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO dentist_procedure (clinic_id, dentist_id, procedure_id)
		VALUES ($1,$2,$3)
		ON CONFLICT (dentist_id, procedure_id) DO NOTHING`,
		clinicID, dentistID, procedureID)
	return err
}

func (r *repoPG) UnlinkProcedure(ctx context.Context, clinicID, dentistID, procedureID uuid.UUID) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		DELETE FROM dentist_procedure WHERE clinic_id = $1 AND dentist_id = $2 AND procedure_id = $3`,
		clinicID, dentistID, procedureID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *repoPG) HasProcedure(ctx context.Context, clinicID, dentistID, procedureID uuid.UUID) (bool, error) {
	var exists bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM dentist_procedure WHERE clinic_id = $1 AND dentist_id = $2 AND procedure_id = $3
		)`, clinicID, dentistID, procedureID).Scan(&exists)
	return exists, err
}

func (r *repoPG) ListProcedures(ctx context.Context, clinicID, dentistID uuid.UUID) ([]*procedure.Procedure, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT `+procedure.Columns("p")+`
		FROM dentist_procedure dp
		JOIN procedure p ON p.id = dp.procedure_id
		WHERE dp.clinic_id = $1 AND dp.dentist_id = $2
		ORDER BY p.name`, clinicID, dentistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return procedure.CollectProcedures(rows)
}

func scanDentist(row pgx.Row) (*Dentist, error) {
	var d Dentist
	u := &UserSummary{}
	if err := row.Scan(&d.ID, &d.ClinicID, &d.UserID, &d.CRO, &d.CROState, &d.Phone, &d.SpecialtyID,
		&d.IsActive, &d.CreatedAt, &d.UpdatedAt, &u.Name, &u.Email); err != nil {
		return nil, err
	}
	u.ID = d.UserID
	d.User = u
	return &d, nil
}
