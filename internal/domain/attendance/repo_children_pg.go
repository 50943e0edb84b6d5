package attendance

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odonto/clinic/internal/platform/db"
)

type cidRepoPG struct {
	pool *pgxpool.Pool
}

func (r *cidRepoPG) Create(ctx context.Context, c *CID) error {
	c.ID = uuid.New()
	return db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO attendance_cid (id, attendance_id, cid_code, description, observation, created_by_dentist_id)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at`,
		c.ID, c.AttendanceID, c.CIDCode, c.Description, c.Observation, c.CreatedByDentistID,
	).Scan(&c.CreatedAt)
}

func (r *cidRepoPG) Delete(ctx context.Context, attendanceID, id uuid.UUID) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`DELETE FROM attendance_cid WHERE id = $1 AND attendance_id = $2`, id, attendanceID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *cidRepoPG) ListByAttendance(ctx context.Context, attendanceID uuid.UUID) ([]*CID, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT id, attendance_id, cid_code, description, observation, created_by_dentist_id, created_at
		FROM attendance_cid WHERE attendance_id = $1 ORDER BY created_at`, attendanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*CID
	for rows.Next() {
		var c CID
		if err := rows.Scan(&c.ID, &c.AttendanceID, &c.CIDCode, &c.Description, &c.Observation,
			&c.CreatedByDentistID, &c.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &c)
	}
	return items, rows.Err()
}

type procedureRepoPG struct {
	pool *pgxpool.Pool
}

func (r *procedureRepoPG) Create(ctx context.Context, p *Procedure) error {
	p.ID = uuid.New()
	if p.Faces == nil {
		p.Faces = []string{}
	}
	return db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO attendance_procedure (id, attendance_id, procedure_id, procedure_code, tooth, faces,
			quantity, clinical_status, price, dentist_id, observations)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING created_at`,
		p.ID, p.AttendanceID, p.ProcedureID, p.ProcedureCode, p.Tooth, p.Faces,
		p.Quantity, p.ClinicalStatus, p.Price, p.DentistID, p.Observations,
	).Scan(&p.CreatedAt)
}

func (r *procedureRepoPG) Delete(ctx context.Context, attendanceID, id uuid.UUID) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`DELETE FROM attendance_procedure WHERE id = $1 AND attendance_id = $2`, id, attendanceID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *procedureRepoPG) ListByAttendance(ctx context.Context, attendanceID uuid.UUID) ([]*Procedure, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT ap.id, ap.attendance_id, ap.procedure_id, ap.procedure_code, ap.tooth, ap.faces,
			ap.quantity, ap.clinical_status, ap.price, ap.dentist_id, ap.observations, ap.created_at,
			pr.id, pr.name, pr.code, pr.value
		FROM attendance_procedure ap
		LEFT JOIN procedure pr ON pr.id = ap.procedure_id
		WHERE ap.attendance_id = $1
		ORDER BY ap.created_at`, attendanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Procedure
	for rows.Next() {
		var (
			p       Procedure
			catID   *uuid.UUID
			catName *string
			catCode *string
			catVal  *float64
		)
		if err := rows.Scan(&p.ID, &p.AttendanceID, &p.ProcedureID, &p.ProcedureCode, &p.Tooth, &p.Faces,
			&p.Quantity, &p.ClinicalStatus, &p.Price, &p.DentistID, &p.Observations, &p.CreatedAt,
			&catID, &catName, &catCode, &catVal); err != nil {
			return nil, err
		}
		if catID != nil {
			p.Procedure = &ProcedureSummary{ID: *catID, Code: catCode}
			if catName != nil {
				p.Procedure.Name = *catName
			}
			if catVal != nil {
				p.Procedure.Value = *catVal
			}
		}
		items = append(items, &p)
	}
	return items, rows.Err()
}

type odontogramRepoPG struct {
	pool *pgxpool.Pool
}

func (r *odontogramRepoPG) Upsert(ctx context.Context, o *Odontogram) error {
	data, err := json.Marshal(o.Data)
	if err != nil {
		return fmt.Errorf("marshal odontogram: %w", err)
	}
	return db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO attendance_odontogram (id, attendance_id, data)
		VALUES ($1,$2,$3)
		ON CONFLICT (attendance_id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()
		RETURNING id, updated_at`,
		uuid.New(), o.AttendanceID, data,
	).Scan(&o.ID, &o.UpdatedAt)
}

func (r *odontogramRepoPG) GetByAttendance(ctx context.Context, attendanceID uuid.UUID) (*Odontogram, error) {
	var (
		o    Odontogram
		data []byte
	)
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, attendance_id, data, updated_at FROM attendance_odontogram WHERE attendance_id = $1`,
		attendanceID).Scan(&o.ID, &o.AttendanceID, &data, &o.UpdatedAt)
	if err != nil {
		return nil, db.NotFound(err)
	}
	if err := json.Unmarshal(data, &o.Data); err != nil {
		return nil, fmt.Errorf("unmarshal odontogram: %w", err)
	}
	return &o, nil
}

type documentRepoPG struct {
	pool *pgxpool.Pool
}

func (r *documentRepoPG) Create(ctx context.Context, d *Document) error {
	d.ID = uuid.New()
	return db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO clinical_document (id, attendance_id, type, payload, generated_by)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING generated_at`,
		d.ID, d.AttendanceID, d.Type, []byte(d.Payload), d.GeneratedBy,
	).Scan(&d.GeneratedAt)
}

func (r *documentRepoPG) ListByAttendance(ctx context.Context, attendanceID uuid.UUID) ([]*Document, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT id, attendance_id, type, payload, generated_by, generated_at
		FROM clinical_document WHERE attendance_id = $1 ORDER BY generated_at`, attendanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Document
	for rows.Next() {
		var (
			d       Document
			payload []byte
		)
		if err := rows.Scan(&d.ID, &d.AttendanceID, &d.Type, &payload, &d.GeneratedBy, &d.GeneratedAt); err != nil {
			return nil, err
		}
		d.Payload = payload
		items = append(items, &d)
	}
	return items, rows.Err()
}
