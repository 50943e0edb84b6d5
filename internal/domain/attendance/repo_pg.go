package attendance

import (
	"context"
	"fmt"
	"time"

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

// NewRepos wires every attendance repository to the same pool.
func NewRepos(pool *pgxpool.Pool) Repos {
	return Repos{
		Attendances: NewRepo(pool),
		CIDs:        &cidRepoPG{pool: pool},
		Procedures:  &procedureRepoPG{pool: pool},
		Odontograms: &odontogramRepoPG{pool: pool},
		Documents:   &documentRepoPG{pool: pool},
	}
}

const attendanceCols = `a.id, a.clinic_id, a.patient_id, a.dentist_id, a.appointment_id, a.status, a.notes,
	a.arrival_at, a.started_at, a.finished_at, a.created_by_id, a.created_by_role, a.created_at, a.updated_at`

var attendanceColList = []interface{}{
	"a.id", "a.clinic_id", "a.patient_id", "a.dentist_id", "a.appointment_id", "a.status", "a.notes",
	"a.arrival_at", "a.started_at", "a.finished_at", "a.created_by_id", "a.created_by_role",
	"a.created_at", "a.updated_at",
}

var summaryColList = append(append([]interface{}{}, attendanceColList...),
	"p.id", "p.name", "p.phone", "d.id", "d.cro", "d.cro_state", "u.id", "u.name")

func (r *repoPG) Create(ctx context.Context, a *Attendance) error {
	a.ID = uuid.New()
	return db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO attendance (id, clinic_id, patient_id, dentist_id, appointment_id, status, notes,
			created_by_id, created_by_role)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING arrival_at, created_at, updated_at`,
		a.ID, a.ClinicID, a.PatientID, a.DentistID, a.AppointmentID, a.Status, a.Notes,
		a.CreatedByID, a.CreatedByRole,
	).Scan(&a.ArrivalAt, &a.CreatedAt, &a.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Attendance, error) {
	a, err := scanAttendance(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+attendanceCols+` FROM attendance a WHERE a.id = $1 AND a.clinic_id = $2`, id, clinicID))
	return a, db.NotFound(err)
}

func (r *repoPG) Update(ctx context.Context, a *Attendance) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE attendance SET
			status=$3, dentist_id=$4, appointment_id=$5, started_at=$6, finished_at=$7, notes=$8,
			updated_at=NOW()
		WHERE id = $1 AND clinic_id = $2
		RETURNING updated_at`,
		a.ID, a.ClinicID, a.Status, a.DentistID, a.AppointmentID, a.StartedAt, a.FinishedAt, a.Notes,
	).Scan(&a.UpdatedAt)
	return db.NotFound(err)
}

func (r *repoPG) ListByAppointment(ctx context.Context, clinicID, appointmentID uuid.UUID) ([]*Attendance, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+attendanceCols+` FROM attendance a WHERE a.clinic_id = $1 AND a.appointment_id = $2`,
		clinicID, appointmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Attendance
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *repoPG) ClearAppointment(ctx context.Context, clinicID, appointmentID uuid.UUID, statuses []Status) error {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE attendance SET appointment_id = NULL, updated_at = NOW()
		WHERE clinic_id = $1 AND appointment_id = $2 AND status = ANY($3)`,
		clinicID, appointmentID, names)
	return err
}

func (r *repoPG) WaitingRoom(ctx context.Context, clinicID uuid.UUID) ([]*Summary, error) {
	items, err := r.querySummaries(ctx, r.waitingRoomQuery(clinicID))
	if err != nil {
		return nil, fmt.Errorf("waiting room: %w", err)
	}
	return items, nil
}

func (r *repoPG) List(ctx context.Context, clinicID uuid.UUID, q ListQuery, limit, offset int) ([]*Summary, int, error) {
	ds := r.qb.From(goqu.T("attendance").As("a")).Prepared(true).
		Where(goqu.I("a.clinic_id").Eq(clinicID))
	ds = ds.Where(listConditions(q)...)

	countSQL, countArgs, err := ds.Select(goqu.COUNT("*")).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build attendance count: %w", err)
	}
	var total int
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	items, err := r.querySummaries(ctx, r.listQuery(clinicID, q, limit, offset))
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// waitingRoomQuery lists CHECKED_IN attendances, first arrival first.
func (r *repoPG) waitingRoomQuery(clinicID uuid.UUID) *goqu.SelectDataset {
	return r.summaries(clinicID).
		Where(goqu.I("a.status").Eq(string(StatusCheckedIn))).
		Order(goqu.I("a.arrival_at").Asc())
}

func (r *repoPG) listQuery(clinicID uuid.UUID, q ListQuery, limit, offset int) *goqu.SelectDataset {
	return r.summaries(clinicID).
		Where(listConditions(q)...).
		Order(goqu.I("a.arrival_at").Desc()).
		Limit(uint(limit)).
		Offset(uint(offset))
}

func listConditions(q ListQuery) []goqu.Expression {
	var conds []goqu.Expression
	if q.Status != nil {
		conds = append(conds, goqu.I("a.status").Eq(string(*q.Status)))
	}
	if q.PatientID != nil {
		conds = append(conds, goqu.I("a.patient_id").Eq(*q.PatientID))
	}
	if q.DentistID != nil {
		conds = append(conds, goqu.I("a.dentist_id").Eq(*q.DentistID))
	}
	if q.DayStart != nil && q.DayEnd != nil {
		conds = append(conds, goqu.Or(
			goqu.And(goqu.I("a.arrival_at").Gte(*q.DayStart), goqu.I("a.arrival_at").Lt(*q.DayEnd)),
			goqu.And(goqu.I("a.started_at").Gte(*q.DayStart), goqu.I("a.started_at").Lt(*q.DayEnd)),
			goqu.I("a.status").Eq(string(StatusInProgress)),
		))
	}
	return conds
}

// summaries selects the list projection: attendance, patient and the
// assigned dentist with its user.
func (r *repoPG) summaries(clinicID uuid.UUID) *goqu.SelectDataset {
	return r.qb.From(goqu.T("attendance").As("a")).Prepared(true).
		Select(summaryColList...).
		Join(goqu.T("patient").As("p"), goqu.On(goqu.I("p.id").Eq(goqu.I("a.patient_id")))).
		LeftJoin(goqu.T("dentist").As("d"), goqu.On(goqu.I("d.id").Eq(goqu.I("a.dentist_id")))).
		LeftJoin(goqu.T("app_user").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("d.user_id")))).
		Where(goqu.I("a.clinic_id").Eq(clinicID))
}

func (r *repoPG) querySummaries(ctx context.Context, ds *goqu.SelectDataset) ([]*Summary, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build attendance list: %w", err)
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Summary
	for rows.Next() {
		var (
			a       Attendance
			p       PatientSummary
			dent    dentistCols
			scanned = append(attendanceTargets(&a), &p.ID, &p.Name, &p.Phone)
		)
		if err := rows.Scan(append(scanned, dent.targets()...)...); err != nil {
			return nil, err
		}
		items = append(items, &Summary{Attendance: &a, Patient: &p, Dentist: dent.summary()})
	}
	return items, rows.Err()
}

func (r *repoPG) GetDetail(ctx context.Context, clinicID, id uuid.UUID) (*Detail, error) {
	var (
		a       Attendance
		p       PatientSummary
		dent    dentistCols
		apptID  *uuid.UUID
		apptAt  *time.Time
		apptSt  *string
		targets = append(attendanceTargets(&a), &p.ID, &p.Name, &p.Phone)
	)
	targets = append(targets, dent.targets()...)
	targets = append(targets, &apptID, &apptAt, &apptSt)

	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT `+attendanceCols+`,
			p.id, p.name, p.phone,
			d.id, d.cro, d.cro_state, u.id, u.name,
			ap.id, ap.scheduled_at, ap.status
		FROM attendance a
		JOIN patient p ON p.id = a.patient_id
		LEFT JOIN dentist d ON d.id = a.dentist_id
		LEFT JOIN app_user u ON u.id = d.user_id
		LEFT JOIN appointment ap ON ap.id = a.appointment_id
		WHERE a.id = $1 AND a.clinic_id = $2`, id, clinicID).Scan(targets...)
	if err != nil {
		return nil, db.NotFound(err)
	}

	detail := &Detail{Attendance: &a, Patient: &p, Dentist: dent.summary()}
	if apptID != nil {
		ap := &AppointmentSummary{ID: *apptID}
		if apptSt != nil {
			ap.Status = *apptSt
		}
		if apptAt != nil {
			ap.ScheduledAt = *apptAt
		}
		detail.Appointment = ap
	}
	return detail, nil
}

// dentistCols holds the nullable columns of the left-joined dentist.
type dentistCols struct {
	id       *uuid.UUID
	cro      *string
	croState *string
	userID   *uuid.UUID
	userName *string
}

func (d *dentistCols) targets() []interface{} {
	return []interface{}{&d.id, &d.cro, &d.croState, &d.userID, &d.userName}
}

func (d *dentistCols) summary() *DentistSummary {
	if d.id == nil {
		return nil
	}
	s := &DentistSummary{ID: *d.id}
	if d.cro != nil {
		s.CRO = *d.cro
	}
	if d.croState != nil {
		s.CROState = *d.croState
	}
	if d.userID != nil {
		s.User.ID = *d.userID
	}
	if d.userName != nil {
		s.User.Name = *d.userName
	}
	return s
}

func attendanceTargets(a *Attendance) []interface{} {
	return []interface{}{&a.ID, &a.ClinicID, &a.PatientID, &a.DentistID, &a.AppointmentID, &a.Status,
		&a.Notes, &a.ArrivalAt, &a.StartedAt, &a.FinishedAt, &a.CreatedByID, &a.CreatedByRole,
		&a.CreatedAt, &a.UpdatedAt}
}

func scanAttendance(row pgx.Row) (*Attendance, error) {
	var a Attendance
	if err := row.Scan(attendanceTargets(&a)...); err != nil {
		return nil, err
	}
	return &a, nil
}
