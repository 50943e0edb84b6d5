package record

import (
	"context"
	"encoding/json"
	"fmt"

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

const recordCols = `id, clinic_id, patient_id, dentist_id, attendance_id, summary, content, created_at`

func (r *repoPG) Create(ctx context.Context, rec *Record) error {
	rec.ID = uuid.New()
	content, err := json.Marshal(rec.Content)
	if err != nil {
		return fmt.Errorf("marshal record content: %w", err)
	}
	return db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO clinical_record (id, clinic_id, patient_id, dentist_id, attendance_id, summary, content)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at`,
		rec.ID, rec.ClinicID, rec.PatientID, rec.DentistID, rec.AttendanceID, rec.Summary, content,
	).Scan(&rec.CreatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Record, error) {
	rec, err := scanRecord(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+recordCols+` FROM clinical_record WHERE id = $1 AND clinic_id = $2`, id, clinicID))
	return rec, db.NotFound(err)
}

func (r *repoPG) ListByPatient(ctx context.Context, clinicID, patientID uuid.UUID, limit, offset int) ([]*Record, int, error) {
	var total int
	if err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM clinical_record WHERE clinic_id = $1 AND patient_id = $2`,
		clinicID, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT `+recordCols+` FROM clinical_record
		WHERE clinic_id = $1 AND patient_id = $2
		ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
		clinicID, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rec)
	}
	return items, total, rows.Err()
}

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	var content []byte
	if err := row.Scan(&rec.ID, &rec.ClinicID, &rec.PatientID, &rec.DentistID, &rec.AttendanceID,
		&rec.Summary, &content, &rec.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(content, &rec.Content); err != nil {
		return nil, fmt.Errorf("unmarshal record content: %w", err)
	}
	return &rec, nil
}
