package payment

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

const paymentCols = `p.id, p.clinic_id, p.patient_id, p.amount, p.method, p.status, p.paid_at, p.notes,
	p.created_by_id, p.created_at,
	COALESCE(ARRAY(SELECT l.treatment_plan_id FROM payment_treatment_plan l WHERE l.payment_id = p.id), '{}')`

func (r *repoPG) Create(ctx context.Context, p *Payment) error {
	p.ID = uuid.New()
	return db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO payment (id, clinic_id, patient_id, amount, method, status, paid_at, notes, created_by_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at`,
		p.ID, p.ClinicID, p.PatientID, p.Amount, p.Method, p.Status, p.PaidAt, p.Notes, p.CreatedByID,
	).Scan(&p.CreatedAt)
}

func (r *repoPG) LinkPlans(ctx context.Context, paymentID uuid.UUID, planIDs []uuid.UUID) error {
	if len(planIDs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, id := range planIDs {
		batch.Queue(`INSERT INTO payment_treatment_plan (payment_id, treatment_plan_id) VALUES ($1,$2)`, paymentID, id)
	}
	if err := db.Conn(ctx, r.pool).SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("link payment plans: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Payment, error) {
	p, err := scanPayment(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+paymentCols+` FROM payment p WHERE p.id = $1 AND p.clinic_id = $2`, id, clinicID))
	return p, db.NotFound(err)
}

func (r *repoPG) SetStatus(ctx context.Context, clinicID, id uuid.UUID, status Status) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE payment SET status = $3 WHERE id = $1 AND clinic_id = $2`, id, clinicID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, clinicID uuid.UUID, f ListFilter, limit, offset int) ([]*Payment, int, error) {
	ds := r.qb.From(goqu.T("payment").As("p")).Prepared(true).Where(goqu.I("p.clinic_id").Eq(clinicID))
	if f.PatientID != nil {
		ds = ds.Where(goqu.I("p.patient_id").Eq(*f.PatientID))
	}
	if f.Method != "" {
		ds = ds.Where(goqu.I("p.method").Eq(f.Method))
	}
	if f.Status != "" {
		ds = ds.Where(goqu.I("p.status").Eq(f.Status))
	}
	if f.From != nil {
		ds = ds.Where(goqu.I("p.paid_at").Gte(*f.From))
	}
	if f.To != nil {
		ds = ds.Where(goqu.I("p.paid_at").Lt(*f.To))
	}

	countSQL, countArgs, err := ds.Select(goqu.COUNT("*")).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build payment count: %w", err)
	}
	var total int
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL, dataArgs, err := ds.Select(goqu.L(paymentCols)).
		Order(goqu.I("p.paid_at").Desc()).
		Limit(uint(limit)).
		Offset(uint(offset)).
		ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build payment list: %w", err)
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx, dataSQL, dataArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.ClinicID, &p.PatientID, &p.Amount, &p.Method, &p.Status, &p.PaidAt, &p.Notes,
		&p.CreatedByID, &p.CreatedAt, &p.TreatmentPlanIDs)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
