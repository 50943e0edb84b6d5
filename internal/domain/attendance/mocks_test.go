package attendance

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/odonto/clinic/internal/domain/appointment"
	"github.com/odonto/clinic/internal/domain/dentist"
	"github.com/odonto/clinic/internal/domain/patient"
	"github.com/odonto/clinic/internal/domain/procedure"
	"github.com/odonto/clinic/internal/domain/record"
	"github.com/odonto/clinic/internal/platform/db"
)

// memAttendances stores copies so callers cannot mutate state without Update.
type memAttendances struct {
	rows      map[uuid.UUID]Attendance
	createErr error
}

func newMemAttendances() *memAttendances {
	return &memAttendances{rows: make(map[uuid.UUID]Attendance)}
}

func (m *memAttendances) Create(_ context.Context, a *Attendance) error {
	if m.createErr != nil {
		return m.createErr
	}
	a.ID = uuid.New()
	if a.ArrivalAt.IsZero() {
		a.ArrivalAt = time.Now()
	}
	a.CreatedAt, a.UpdatedAt = a.ArrivalAt, a.ArrivalAt
	m.rows[a.ID] = *a
	return nil
}

func (m *memAttendances) GetByID(_ context.Context, clinicID, id uuid.UUID) (*Attendance, error) {
	a, ok := m.rows[id]
	if !ok || a.ClinicID != clinicID {
		return nil, db.ErrNotFound
	}
	return &a, nil
}

func (m *memAttendances) Update(_ context.Context, a *Attendance) error {
	cur, ok := m.rows[a.ID]
	if !ok || cur.ClinicID != a.ClinicID {
		return db.ErrNotFound
	}
	a.UpdatedAt = time.Now()
	m.rows[a.ID] = *a
	return nil
}

func (m *memAttendances) ListByAppointment(_ context.Context, clinicID, appointmentID uuid.UUID) ([]*Attendance, error) {
	var out []*Attendance
	for _, a := range m.rows {
		if a.ClinicID == clinicID && a.AppointmentID != nil && *a.AppointmentID == appointmentID {
			cp := a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memAttendances) ClearAppointment(_ context.Context, clinicID, appointmentID uuid.UUID, statuses []Status) error {
	for id, a := range m.rows {
		if a.ClinicID != clinicID || a.AppointmentID == nil || *a.AppointmentID != appointmentID {
			continue
		}
		for _, s := range statuses {
			if a.Status == s {
				a.AppointmentID = nil
				m.rows[id] = a
			}
		}
	}
	return nil
}

func (m *memAttendances) WaitingRoom(_ context.Context, clinicID uuid.UUID) ([]*Summary, error) {
	var out []*Summary
	for _, a := range m.rows {
		if a.ClinicID == clinicID && a.Status == StatusCheckedIn {
			cp := a
			out = append(out, &Summary{Attendance: &cp, Patient: &PatientSummary{ID: a.PatientID}})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ArrivalAt.Before(out[j].ArrivalAt) })
	return out, nil
}

func (m *memAttendances) List(_ context.Context, clinicID uuid.UUID, q ListQuery, limit, offset int) ([]*Summary, int, error) {
	var out []*Summary
	for _, a := range m.rows {
		if a.ClinicID != clinicID {
			continue
		}
		if q.Status != nil && a.Status != *q.Status {
			continue
		}
		if q.PatientID != nil && a.PatientID != *q.PatientID {
			continue
		}
		cp := a
		out = append(out, &Summary{Attendance: &cp, Patient: &PatientSummary{ID: a.PatientID}})
	}
	return out, len(out), nil
}

func (m *memAttendances) GetDetail(ctx context.Context, clinicID, id uuid.UUID) (*Detail, error) {
	a, err := m.GetByID(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}
	return &Detail{Attendance: a, Patient: &PatientSummary{ID: a.PatientID}}, nil
}

type memCIDs struct {
	rows []*CID
}

func (m *memCIDs) Create(_ context.Context, c *CID) error {
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	m.rows = append(m.rows, c)
	return nil
}

func (m *memCIDs) Delete(_ context.Context, attendanceID, id uuid.UUID) error {
	for i, c := range m.rows {
		if c.ID == id && c.AttendanceID == attendanceID {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return db.ErrNotFound
}

func (m *memCIDs) ListByAttendance(_ context.Context, attendanceID uuid.UUID) ([]*CID, error) {
	var out []*CID
	for _, c := range m.rows {
		if c.AttendanceID == attendanceID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memProcedures struct {
	rows []*Procedure
}

func (m *memProcedures) Create(_ context.Context, p *Procedure) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	m.rows = append(m.rows, p)
	return nil
}

func (m *memProcedures) Delete(_ context.Context, attendanceID, id uuid.UUID) error {
	for i, p := range m.rows {
		if p.ID == id && p.AttendanceID == attendanceID {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return db.ErrNotFound
}

func (m *memProcedures) ListByAttendance(_ context.Context, attendanceID uuid.UUID) ([]*Procedure, error) {
	var out []*Procedure
	for _, p := range m.rows {
		if p.AttendanceID == attendanceID {
			out = append(out, p)
		}
	}
	return out, nil
}

type memOdontograms struct {
	rows map[uuid.UUID]*Odontogram
}

func (m *memOdontograms) Upsert(_ context.Context, o *Odontogram) error {
	if cur, ok := m.rows[o.AttendanceID]; ok {
		o.ID = cur.ID
	} else {
		o.ID = uuid.New()
	}
	o.UpdatedAt = time.Now()
	cp := *o
	m.rows[o.AttendanceID] = &cp
	return nil
}

func (m *memOdontograms) GetByAttendance(_ context.Context, attendanceID uuid.UUID) (*Odontogram, error) {
	o, ok := m.rows[attendanceID]
	if !ok {
		return nil, db.ErrNotFound
	}
	return o, nil
}

type memDocuments struct {
	rows []*Document
}

func (m *memDocuments) Create(_ context.Context, d *Document) error {
	d.ID = uuid.New()
	d.GeneratedAt = time.Now()
	m.rows = append(m.rows, d)
	return nil
}

func (m *memDocuments) ListByAttendance(_ context.Context, attendanceID uuid.UUID) ([]*Document, error) {
	var out []*Document
	for _, d := range m.rows {
		if d.AttendanceID == attendanceID {
			out = append(out, d)
		}
	}
	return out, nil
}

type mockPatients struct {
	rows map[uuid.UUID]*patient.Patient
}

func (m *mockPatients) GetByID(_ context.Context, clinicID, id uuid.UUID) (*patient.Patient, error) {
	p, ok := m.rows[id]
	if !ok || p.ClinicID != clinicID {
		return nil, db.ErrNotFound
	}
	return p, nil
}

type mockDentists struct {
	rows  map[uuid.UUID]*dentist.Dentist
	links map[uuid.UUID]map[uuid.UUID]bool
}

func (m *mockDentists) GetByID(_ context.Context, clinicID, id uuid.UUID) (*dentist.Dentist, error) {
	d, ok := m.rows[id]
	if !ok || d.ClinicID != clinicID {
		return nil, db.ErrNotFound
	}
	return d, nil
}

func (m *mockDentists) GetByUserID(_ context.Context, clinicID, userID uuid.UUID) (*dentist.Dentist, error) {
	for _, d := range m.rows {
		if d.ClinicID == clinicID && d.UserID == userID {
			return d, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *mockDentists) HasProcedure(_ context.Context, clinicID, dentistID, procedureID uuid.UUID) (bool, error) {
	return m.links[dentistID][procedureID], nil
}

func (m *mockDentists) link(dentistID, procedureID uuid.UUID) {
	if m.links[dentistID] == nil {
		m.links[dentistID] = make(map[uuid.UUID]bool)
	}
	m.links[dentistID][procedureID] = true
}

type mockCatalog struct {
	rows map[uuid.UUID]*procedure.Procedure
}

func (m *mockCatalog) GetByID(_ context.Context, clinicID, id uuid.UUID) (*procedure.Procedure, error) {
	p, ok := m.rows[id]
	if !ok || p.ClinicID != clinicID {
		return nil, db.ErrNotFound
	}
	return p, nil
}

type mockAppointments struct {
	rows map[uuid.UUID]*appointment.Appointment
}

func (m *mockAppointments) GetByID(_ context.Context, clinicID, id uuid.UUID) (*appointment.Appointment, error) {
	a, ok := m.rows[id]
	if !ok || a.ClinicID != clinicID {
		return nil, db.ErrNotFound
	}
	return a, nil
}

func (m *mockAppointments) UpdateStatus(_ context.Context, clinicID, id uuid.UUID, status appointment.Status) error {
	a, ok := m.rows[id]
	if !ok || a.ClinicID != clinicID {
		return db.ErrNotFound
	}
	a.Status = status
	return nil
}

type mockRecords struct {
	rows []*record.Record
	err  error
}

func (m *mockRecords) Create(_ context.Context, r *record.Record) error {
	if m.err != nil {
		return m.err
	}
	r.ID = uuid.New()
	m.rows = append(m.rows, r)
	return nil
}

type mockCategories struct {
	byCode map[string]string
	err    error
}

func (m *mockCategories) FindCategoriesByCodes(_ context.Context, codes []string) (map[string]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string]string)
	for _, c := range codes {
		if cat, ok := m.byCode[c]; ok {
			out[c] = cat
		}
	}
	return out, nil
}

// snapshotTx restores attendance rows when fn fails, like a rolled back
// database transaction.
type snapshotTx struct {
	att *memAttendances
}

func (t snapshotTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	before := make(map[uuid.UUID]Attendance, len(t.att.rows))
	for k, v := range t.att.rows {
		before[k] = v
	}
	if err := fn(ctx); err != nil {
		t.att.rows = before
		return err
	}
	return nil
}
