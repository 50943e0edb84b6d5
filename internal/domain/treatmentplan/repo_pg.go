package treatmentplan

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odonto/clinic/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
	qb   goqu.DialectWrapper
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool, qb: goqu.Dialect("postgres")}
}

const planCols = `id, clinic_id, patient_id, dentist_id, title, status, total_amount, notes, is_active,
	created_at, updated_at`

var planColList = []interface{}{
	"id", "clinic_id", "patient_id", "dentist_id", "title", "status", "total_amount", "notes", "is_active",
	"created_at", "updated_at",
}

func (r *repoPG) Create(ctx context.Context, p *Plan) error {
	p.ID = uuid.New()
	return db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO treatment_plan (id, clinic_id, patient_id, dentist_id, title, status, total_amount, notes, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,TRUE)
		RETURNING is_active, created_at, updated_at`,
		p.ID, p.ClinicID, p.PatientID, p.DentistID, p.Title, p.Status, p.TotalAmount, p.Notes,
	).Scan(&p.IsActive, &p.CreatedAt, &p.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Plan, error) {
	p, err := scanPlan(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+planCols+` FROM treatment_plan WHERE id = $1 AND clinic_id = $2`, id, clinicID))
	if err != nil {
		return nil, db.NotFound(err)
	}
	if p.Items, err = r.items(ctx, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repoPG) items(ctx context.Context, planID uuid.UUID) ([]*Item, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT id, treatment_plan_id, procedure_id, description, tooth, value, quantity
		FROM treatment_item WHERE treatment_plan_id = $1 ORDER BY description`, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []*Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.TreatmentPlanID, &it.ProcedureID, &it.Description, &it.Tooth,
			&it.Value, &it.Quantity); err != nil {
			return nil, err
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, p *Plan) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE treatment_plan SET title=$3, notes=$4, total_amount=$5, updated_at=NOW()
		WHERE id = $1 AND clinic_id = $2
		RETURNING updated_at`,
		p.ID, p.ClinicID, p.Title, p.Notes, p.TotalAmount,
	).Scan(&p.UpdatedAt)
	return db.NotFound(err)
}

func (r *repoPG) ReplaceItems(ctx context.Context, planID uuid.UUID, items []*Item) error {
	conn := db.Conn(ctx, r.pool)
	if _, err := conn.Exec(ctx, `DELETE FROM treatment_item WHERE treatment_plan_id = $1`, planID); err != nil {
		return fmt.Errorf("delete treatment items: %w", err)
	}
	if len(items) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, it := range items {
		it.ID = uuid.New()
		it.TreatmentPlanID = planID
		batch.Queue(`
			INSERT INTO treatment_item (id, treatment_plan_id, procedure_id, description, tooth, value, quantity)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			it.ID, it.TreatmentPlanID, it.ProcedureID, it.Description, it.Tooth, it.Value, it.Quantity)
	}
	if err := conn.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert treatment items: %w", err)
	}
	return nil
}

func (r *repoPG) SetStatus(ctx context.Context, clinicID, id uuid.UUID, status Status) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE treatment_plan SET status = $3, updated_at = NOW() WHERE id = $1 AND clinic_id = $2`,
		id, clinicID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *repoPG) SetActive(ctx context.Context, clinicID, id uuid.UUID, active bool) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE treatment_plan SET is_active = $3, updated_at = NOW() WHERE id = $1 AND clinic_id = $2`,
		id, clinicID, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, clinicID uuid.UUID, f ListFilter, limit, offset int) ([]*Plan, int, error) {
	ds := r.qb.From("treatment_plan").Prepared(true).Where(goqu.Ex{"clinic_id": clinicID})
	if !f.IncludeInactive {
		ds = ds.Where(goqu.Ex{"is_active": true})
	}
	if f.PatientID != nil {
		ds = ds.Where(goqu.Ex{"patient_id": *f.PatientID})
	}
	if f.Status != "" {
		ds = ds.Where(goqu.Ex{"status": f.Status})
	}

	countSQL, countArgs, err := ds.Select(goqu.COUNT("*")).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build plan count: %w", err)
	}
	var total int
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL, dataArgs, err := ds.Select(planColList...).
		Order(goqu.I("created_at").Desc()).
		Limit(uint(limit)).
		Offset(uint(offset)).
		ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build plan list: %w", err)
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx, dataSQL, dataArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var plans []*Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, 0, err
		}
		plans = append(plans, p)
	}
	return plans, total, rows.Err()
}

func scanPlan(row pgx.Row) (*Plan, error) {
	var p Plan
	err := row.Scan(&p.ID, &p.ClinicID, &p.PatientID, &p.DentistID, &p.Title, &p.Status, &p.TotalAmount,
		&p.Notes, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
