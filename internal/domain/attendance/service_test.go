package attendance

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/odonto/clinic/internal/domain/appointment"
	"github.com/odonto/clinic/internal/domain/dentist"
	"github.com/odonto/clinic/internal/domain/patient"
	"github.com/odonto/clinic/internal/domain/procedure"
	"github.com/odonto/clinic/internal/platform/apperr"
	"github.com/odonto/clinic/internal/platform/auth"
	"github.com/odonto/clinic/pkg/pagination"
)

type fixture struct {
	svc        *Service
	att        *memAttendances
	cids       *memCIDs
	procs      *memProcedures
	odontos    *memOdontograms
	docs       *memDocuments
	patients   *mockPatients
	dentists   *mockDentists
	catalog    *mockCatalog
	appts      *mockAppointments
	records    *mockRecords
	categories *mockCategories

	owner       auth.Session
	dentistSess auth.Session
	patient     *patient.Patient
	dentist     *dentist.Dentist
	procedure   *procedure.Procedure
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clinicID := uuid.New()
	f := &fixture{
		att:        newMemAttendances(),
		cids:       &memCIDs{},
		procs:      &memProcedures{},
		odontos:    &memOdontograms{rows: make(map[uuid.UUID]*Odontogram)},
		docs:       &memDocuments{},
		patients:   &mockPatients{rows: make(map[uuid.UUID]*patient.Patient)},
		dentists:   &mockDentists{rows: make(map[uuid.UUID]*dentist.Dentist), links: make(map[uuid.UUID]map[uuid.UUID]bool)},
		catalog:    &mockCatalog{rows: make(map[uuid.UUID]*procedure.Procedure)},
		appts:      &mockAppointments{rows: make(map[uuid.UUID]*appointment.Appointment)},
		records:    &mockRecords{},
		categories: &mockCategories{byCode: map[string]string{"K02.0": "Doenças da cavidade oral"}},
		owner:      auth.Session{UserID: uuid.New(), ClinicID: clinicID, Role: auth.RoleOwner},
	}
	f.patient = f.addPatient(clinicID, true)
	f.dentist = f.addDentist(clinicID, uuid.New())
	f.dentistSess = auth.Session{UserID: f.dentist.UserID, ClinicID: clinicID, Role: auth.RoleDentist}

	code := "RST-01"
	f.procedure = &procedure.Procedure{ID: uuid.New(), ClinicID: clinicID, Name: "Restauração", Code: &code, Value: 150.5, IsActive: true}
	f.catalog.rows[f.procedure.ID] = f.procedure
	f.dentists.link(f.dentist.ID, f.procedure.ID)

	repos := Repos{Attendances: f.att, CIDs: f.cids, Procedures: f.procs, Odontograms: f.odontos, Documents: f.docs}
	deps := Deps{
		Patients:         f.patients,
		Dentists:         f.dentists,
		ProcedureCatalog: f.catalog,
		Appointments:     f.appts,
		Records:          f.records,
		Categories:       f.categories,
	}
	f.svc = NewService(repos, deps, snapshotTx{att: f.att}, time.UTC, zerolog.Nop())
	return f
}

func (f *fixture) addPatient(clinicID uuid.UUID, active bool) *patient.Patient {
	p := &patient.Patient{ID: uuid.New(), ClinicID: clinicID, Name: "Maria Souza", IsActive: active}
	f.patients.rows[p.ID] = p
	return p
}

func (f *fixture) addDentist(clinicID, userID uuid.UUID) *dentist.Dentist {
	d := &dentist.Dentist{ID: uuid.New(), ClinicID: clinicID, UserID: userID, CRO: "12345", CROState: "SP", IsActive: true}
	f.dentists.rows[d.ID] = d
	return d
}

func (f *fixture) addAppointment() *appointment.Appointment {
	a := &appointment.Appointment{ID: uuid.New(), ClinicID: f.owner.ClinicID, PatientID: f.patient.ID, Status: appointment.StatusScheduled}
	f.appts.rows[a.ID] = a
	return a
}

func (f *fixture) checkIn(t *testing.T) *Attendance {
	t.Helper()
	res := f.svc.CheckIn(context.Background(), f.owner, CheckInInput{PatientID: f.patient.ID})
	if !res.Success {
		t.Fatalf("check-in failed: %s", res.Error)
	}
	return res.Data
}

func (f *fixture) started(t *testing.T) *Attendance {
	t.Helper()
	a := f.checkIn(t)
	res := f.svc.Start(context.Background(), f.owner, a.ID, StartInput{DentistID: f.dentist.ID})
	if !res.Success {
		t.Fatalf("start failed: %s", res.Error)
	}
	return res.Data
}

func (f *fixture) addCID(t *testing.T, id uuid.UUID, code string) *CID {
	t.Helper()
	res := f.svc.AddCID(context.Background(), f.owner, id, AddCIDInput{CIDCode: code, Description: "Cárie dentária"})
	if !res.Success {
		t.Fatalf("add cid failed: %s", res.Error)
	}
	return res.Data
}

func (f *fixture) addProcedure(t *testing.T, id uuid.UUID) *Procedure {
	t.Helper()
	tooth := "11"
	res := f.svc.AddProcedure(context.Background(), f.owner, id, AddProcedureInput{
		ProcedureID: f.procedure.ID,
		Tooth:       &tooth,
		Faces:       []string{"O", "V"},
	})
	if !res.Success {
		t.Fatalf("add procedure failed: %s", res.Error)
	}
	return res.Data
}

func (f *fixture) status(t *testing.T, id uuid.UUID) Status {
	t.Helper()
	a, err := f.att.GetByID(context.Background(), f.owner.ClinicID, id)
	if err != nil {
		t.Fatalf("get attendance: %v", err)
	}
	return a.Status
}

func TestAttendanceFlow_CheckInToFinish(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.checkIn(t)
	if a.Status != StatusCheckedIn || a.DentistID != nil {
		t.Fatalf("unexpected check-in state: %+v", a)
	}
	started := f.svc.Start(ctx, f.owner, a.ID, StartInput{DentistID: f.dentist.ID})
	if !started.Success || started.Data.StartedAt == nil || *started.Data.DentistID != f.dentist.ID {
		t.Fatalf("unexpected start result: %+v", started)
	}
	f.addCID(t, a.ID, "S03.2")
	p := f.addProcedure(t, a.ID)
	if p.Quantity != 1 || p.ClinicalStatus != ClinicalPerformed || len(p.Faces) != 2 {
		t.Errorf("unexpected procedure defaults: %+v", p)
	}

	res := f.svc.Finish(ctx, f.owner, a.ID)
	if !res.Success {
		t.Fatalf("finish failed: %s", res.Error)
	}
	if res.Data.Status != StatusDone || res.Data.FinishedAt == nil {
		t.Errorf("expected DONE with finishedAt, got %+v", res.Data)
	}
	if len(f.records.rows) != 1 {
		t.Fatalf("expected one record, got %d", len(f.records.rows))
	}
	rec := f.records.rows[0]
	if rec.AttendanceID != a.ID || rec.DentistID != f.dentist.ID || rec.PatientID != f.patient.ID {
		t.Errorf("record does not reference the attendance: %+v", rec)
	}
	if len(rec.Content.CIDs) != 1 || rec.Content.CIDs[0].Code != "S03.2" {
		t.Errorf("unexpected record CIDs: %+v", rec.Content.CIDs)
	}
	if len(rec.Content.Procedures) != 1 || rec.Content.Procedures[0].Name != "Restauração" {
		t.Errorf("unexpected record procedures: %+v", rec.Content.Procedures)
	}
}

func TestGetAttendance_RoundTripWithCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.started(t)
	f.addCID(t, a.ID, " k02.0 ")
	f.addCID(t, a.ID, "S03.2")
	f.addProcedure(t, a.ID)
	if res := f.svc.Finish(ctx, f.owner, a.ID); !res.Success {
		t.Fatalf("finish failed: %s", res.Error)
	}

	res := f.svc.GetAttendance(ctx, f.owner, a.ID)
	if !res.Success {
		t.Fatalf("get failed: %s", res.Error)
	}
	d := res.Data
	if d.Status != StatusDone || d.FinishedAt == nil {
		t.Errorf("expected DONE with finishedAt, got %+v", d.Attendance)
	}
	if len(d.CIDs) != 2 {
		t.Fatalf("expected 2 cids, got %d", len(d.CIDs))
	}
	if d.CIDs[0].CIDCode != "K02.0" || d.CIDs[0].Category == nil || *d.CIDs[0].Category != "Doenças da cavidade oral" {
		t.Errorf("expected K02.0 enriched with its category, got %+v", d.CIDs[0])
	}
	if d.CIDs[1].Category != nil {
		t.Errorf("expected nil category for code missing from catalog, got %q", *d.CIDs[1].Category)
	}
	if d.Documents == nil || d.Odontogram != nil {
		t.Errorf("expected empty documents and no odontogram, got %+v / %+v", d.Documents, d.Odontogram)
	}
}

func TestGetAttendance_CategoryLookupFailureLeavesNull(t *testing.T) {
	f := newFixture(t)
	a := f.started(t)
	f.addCID(t, a.ID, "K02.0")
	f.categories.err = errors.New("catalog down")

	res := f.svc.GetAttendance(context.Background(), f.owner, a.ID)
	if !res.Success {
		t.Fatalf("expected success despite catalog failure, got %s", res.Error)
	}
	if res.Data.CIDs[0].Category != nil {
		t.Error("expected nil category when lookup fails")
	}
}

func TestFinish_OnlyFromInProgress(t *testing.T) {
	f := newFixture(t)
	a := f.checkIn(t)

	res := f.svc.Finish(context.Background(), f.owner, a.ID)
	if res.Success || res.Error != MsgFinishNotInProgress {
		t.Fatalf("expected %q, got %+v", MsgFinishNotInProgress, res)
	}
	if got := f.status(t, a.ID); got != StatusCheckedIn {
		t.Errorf("expected status unchanged, got %s", got)
	}
	if len(f.records.rows) != 0 {
		t.Error("expected no record")
	}
}

func TestFinish_RequiresCIDRegardlessOfProcedures(t *testing.T) {
	f := newFixture(t)
	a := f.started(t)
	f.addProcedure(t, a.ID)

	res := f.svc.Finish(context.Background(), f.owner, a.ID)
	if res.Error != MsgFinishCIDRequired || res.Kind != apperr.KindBusiness {
		t.Fatalf("expected CID required, got %+v", res)
	}
	if got := f.status(t, a.ID); got != StatusInProgress {
		t.Errorf("expected IN_PROGRESS, got %s", got)
	}
}

func TestFinish_RequiresProcedure(t *testing.T) {
	f := newFixture(t)
	a := f.started(t)
	f.addCID(t, a.ID, "K02.0")

	res := f.svc.Finish(context.Background(), f.owner, a.ID)
	if res.Error != MsgFinishProcRequired {
		t.Fatalf("expected procedure required, got %+v", res)
	}
}

func TestFinish_RecordFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	a := f.started(t)
	f.addCID(t, a.ID, "K02.0")
	f.addProcedure(t, a.ID)
	f.records.err = errors.New("insert record: connection reset")

	res := f.svc.Finish(context.Background(), f.owner, a.ID)
	if res.Success || res.Kind != apperr.KindInternal || res.Error != apperr.InternalMessage {
		t.Fatalf("expected generic internal error, got %+v", res)
	}
	if got := f.status(t, a.ID); got != StatusInProgress {
		t.Errorf("expected status rolled back to IN_PROGRESS, got %s", got)
	}
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	checkedIn := f.checkIn(t)
	if res := f.svc.Cancel(ctx, f.owner, checkedIn.ID); !res.Success || res.Data.Status != StatusCanceled {
		t.Errorf("expected cancel from CHECKED_IN to succeed, got %+v", res)
	}
	if res := f.svc.Cancel(ctx, f.owner, checkedIn.ID); res.Error != MsgAlreadyCanceled {
		t.Errorf("expected %q, got %+v", MsgAlreadyCanceled, res)
	}

	inProgress := f.started(t)
	if res := f.svc.Cancel(ctx, f.owner, inProgress.ID); !res.Success {
		t.Errorf("expected cancel from IN_PROGRESS to succeed, got %s", res.Error)
	}

	done := f.started(t)
	f.addCID(t, done.ID, "K02.0")
	f.addProcedure(t, done.ID)
	if res := f.svc.Finish(ctx, f.owner, done.ID); !res.Success {
		t.Fatalf("finish failed: %s", res.Error)
	}
	if res := f.svc.Cancel(ctx, f.owner, done.ID); res.Error != MsgAlreadyFinished {
		t.Errorf("expected %q, got %+v", MsgAlreadyFinished, res)
	}
	if got := f.status(t, done.ID); got != StatusDone {
		t.Errorf("expected DONE to be kept, got %s", got)
	}
}

func TestCheckIn_AppointmentLinking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt := f.addAppointment()
	in := CheckInInput{PatientID: f.patient.ID, AppointmentID: &appt.ID}

	first := f.svc.CheckIn(ctx, f.owner, in)
	if !first.Success {
		t.Fatalf("first check-in failed: %s", first.Error)
	}
	if appt.Status != appointment.StatusAttended {
		t.Errorf("expected appointment ATTENDED, got %s", appt.Status)
	}

	second := f.svc.CheckIn(ctx, f.owner, in)
	if second.Success || second.Kind != apperr.KindConflict || second.Error != MsgAppointmentInUse {
		t.Fatalf("expected conflict while first is active, got %+v", second)
	}

	if res := f.svc.Cancel(ctx, f.owner, first.Data.ID); !res.Success || res.Data.AppointmentID != nil {
		t.Fatalf("expected cancel to clear the appointment, got %+v", res)
	}
	if third := f.svc.CheckIn(ctx, f.owner, in); !third.Success {
		t.Fatalf("expected check-in after cancel to succeed, got %s", third.Error)
	}
}

func TestCheckIn_ClearsStaleDoneLink(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt := f.addAppointment()
	stale := &Attendance{ClinicID: f.owner.ClinicID, PatientID: f.patient.ID, AppointmentID: &appt.ID, Status: StatusDone}
	if err := f.att.Create(ctx, stale); err != nil {
		t.Fatal(err)
	}

	res := f.svc.CheckIn(ctx, f.owner, CheckInInput{PatientID: f.patient.ID, AppointmentID: &appt.ID})
	if !res.Success {
		t.Fatalf("expected check-in to succeed, got %s", res.Error)
	}
	got, _ := f.att.GetByID(ctx, f.owner.ClinicID, stale.ID)
	if got.AppointmentID != nil {
		t.Error("expected stale attendance to lose its appointment link")
	}
	if *res.Data.AppointmentID != appt.ID {
		t.Error("expected new attendance to hold the appointment")
	}
}

func TestCheckIn_UniqueViolationTranslated(t *testing.T) {
	f := newFixture(t)
	appt := f.addAppointment()
	f.att.createErr = &pgconn.PgError{Code: "23505", ConstraintName: "attendance_appointment_id_key"}

	res := f.svc.CheckIn(context.Background(), f.owner, CheckInInput{PatientID: f.patient.ID, AppointmentID: &appt.ID})
	if res.Kind != apperr.KindConflict || res.Error != MsgAppointmentInUse {
		t.Fatalf("expected translated conflict, got %+v", res)
	}
}

func TestCheckIn_PatientGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inactive := f.addPatient(f.owner.ClinicID, false)
	if res := f.svc.CheckIn(ctx, f.owner, CheckInInput{PatientID: inactive.ID}); res.Kind != apperr.KindBusiness {
		t.Errorf("expected business error for inactive patient, got %+v", res)
	}
	foreign := f.addPatient(uuid.New(), true)
	if res := f.svc.CheckIn(ctx, f.owner, CheckInInput{PatientID: foreign.ID}); res.Kind != apperr.KindNotFound {
		t.Errorf("expected not found for another clinic's patient, got %+v", res)
	}
	if res := f.svc.CheckIn(ctx, f.owner, CheckInInput{}); res.Kind != apperr.KindValidation {
		t.Errorf("expected validation error, got %+v", res)
	}
}

func TestListWaitingRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	add := func(clinicID uuid.UUID, status Status, offset time.Duration) *Attendance {
		a := &Attendance{ClinicID: clinicID, PatientID: f.patient.ID, Status: status, ArrivalAt: base.Add(offset)}
		if err := f.att.Create(ctx, a); err != nil {
			t.Fatal(err)
		}
		return a
	}
	late := add(f.owner.ClinicID, StatusCheckedIn, 30*time.Minute)
	early := add(f.owner.ClinicID, StatusCheckedIn, 0)
	add(f.owner.ClinicID, StatusInProgress, 10*time.Minute)
	add(f.owner.ClinicID, StatusDone, 5*time.Minute)
	add(uuid.New(), StatusCheckedIn, -time.Hour)

	res := f.svc.ListWaitingRoom(ctx, f.owner)
	if !res.Success {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	if len(res.Data) != 2 {
		t.Fatalf("expected 2 waiting, got %d", len(res.Data))
	}
	if res.Data[0].ID != early.ID || res.Data[1].ID != late.ID {
		t.Error("expected waiting room ordered by arrival")
	}
}

func TestStart_Guards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other := f.addDentist(f.owner.ClinicID, uuid.New())
	a := f.checkIn(t)
	res := f.svc.Start(ctx, f.dentistSess, a.ID, StartInput{DentistID: other.ID})
	if res.Kind != apperr.KindForbidden {
		t.Fatalf("expected forbidden when a dentist starts with another profile, got %+v", res)
	}
	if res := f.svc.Start(ctx, f.owner, a.ID, StartInput{DentistID: uuid.New()}); res.Kind != apperr.KindNotFound {
		t.Errorf("expected unknown dentist to be not found, got %+v", res)
	}
	if res := f.svc.Start(ctx, f.dentistSess, a.ID, StartInput{DentistID: f.dentist.ID}); !res.Success {
		t.Fatalf("expected own profile start to succeed, got %s", res.Error)
	}
	if res := f.svc.Start(ctx, f.owner, a.ID, StartInput{DentistID: f.dentist.ID}); res.Kind != apperr.KindBusiness {
		t.Errorf("expected second start to be rejected, got %+v", res)
	}
}

func TestAddProcedure_RequiresDentistLink(t *testing.T) {
	f := newFixture(t)
	a := f.started(t)
	unlinked := &procedure.Procedure{ID: uuid.New(), ClinicID: f.owner.ClinicID, Name: "Canal", Value: 900, IsActive: true}
	f.catalog.rows[unlinked.ID] = unlinked

	res := f.svc.AddProcedure(context.Background(), f.owner, a.ID, AddProcedureInput{ProcedureID: unlinked.ID})
	if res.Success || res.Error != msgProcedureNotLinked {
		t.Fatalf("expected link error, got %+v", res)
	}
	if len(f.procs.rows) != 0 {
		t.Error("expected no procedure row")
	}
}

func TestAddProcedure_InactiveProcedure(t *testing.T) {
	f := newFixture(t)
	a := f.started(t)
	f.procedure.IsActive = false

	res := f.svc.AddProcedure(context.Background(), f.owner, a.ID, AddProcedureInput{ProcedureID: f.procedure.ID})
	if res.Error != msgProcedureInactive {
		t.Fatalf("expected inactive error, got %+v", res)
	}
}

func TestAddProcedure_SnapshotsPrice(t *testing.T) {
	f := newFixture(t)
	a := f.started(t)
	p := f.addProcedure(t, a.ID)
	f.procedure.Value = 999

	if p.Price == nil || *p.Price != 150.5 {
		t.Fatalf("expected price snapshot 150.5, got %v", p.Price)
	}
	rows, _ := f.procs.ListByAttendance(context.Background(), a.ID)
	if *rows[0].Price != 150.5 {
		t.Errorf("expected stored price to ignore catalog change, got %v", *rows[0].Price)
	}
}

func TestAddProcedure_ValidatesToothAndFaces(t *testing.T) {
	f := newFixture(t)
	a := f.started(t)
	bad := "19"
	tests := []struct {
		name string
		in   AddProcedureInput
	}{
		{"tooth outside FDI", AddProcedureInput{ProcedureID: f.procedure.ID, Tooth: &bad}},
		{"unknown face", AddProcedureInput{ProcedureID: f.procedure.ID, Faces: []string{"X"}}},
		{"repeated face", AddProcedureInput{ProcedureID: f.procedure.ID, Faces: []string{"O", "o"}}},
		{"bad clinical status", AddProcedureInput{ProcedureID: f.procedure.ID, ClinicalStatus: "DONE"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := f.svc.AddProcedure(context.Background(), f.owner, a.ID, tt.in)
			if res.Kind != apperr.KindValidation {
				t.Errorf("expected validation error, got %+v", res)
			}
		})
	}
}

func TestAddProcedure_FallsBackToCallerDentist(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := &Attendance{ClinicID: f.owner.ClinicID, PatientID: f.patient.ID, Status: StatusInProgress}
	if err := f.att.Create(ctx, a); err != nil {
		t.Fatal(err)
	}

	res := f.svc.AddProcedure(ctx, f.dentistSess, a.ID, AddProcedureInput{ProcedureID: f.procedure.ID})
	if !res.Success || res.Data.DentistID != f.dentist.ID {
		t.Fatalf("expected caller's dentist profile, got %+v", res)
	}
	if res := f.svc.AddProcedure(ctx, f.owner, a.ID, AddProcedureInput{ProcedureID: f.procedure.ID}); res.Error != msgNoDentist {
		t.Errorf("expected %q for a caller without dentist profile, got %+v", msgNoDentist, res)
	}
}

func TestEffectiveDentist(t *testing.T) {
	assigned := uuid.New()
	caller := &dentist.Dentist{ID: uuid.New()}

	if id, ok := EffectiveDentist(&assigned, caller); !ok || id != assigned {
		t.Error("expected assigned dentist to win")
	}
	if id, ok := EffectiveDentist(nil, caller); !ok || id != caller.ID {
		t.Error("expected caller fallback")
	}
	if _, ok := EffectiveDentist(nil, nil); ok {
		t.Error("expected no dentist")
	}
}

func TestClinicalEdits_RequireEditableStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.checkIn(t)

	if res := f.svc.AddCID(ctx, f.owner, a.ID, AddCIDInput{CIDCode: "K02.0", Description: "Cárie"}); res.Error != msgNotEditable {
		t.Errorf("expected CID rejected while CHECKED_IN, got %+v", res)
	}
	if res := f.svc.UpdateOdontogram(ctx, f.owner, a.ID, OdontogramInput{Data: map[string]string{"11": "CARIE"}}); res.Error != msgNotEditable {
		t.Errorf("expected odontogram rejected while CHECKED_IN, got %+v", res)
	}
}

func TestRemoveProcedureAndCID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.started(t)
	other := f.started(t)
	p := f.addProcedure(t, a.ID)
	c := f.addCID(t, a.ID, "K02.0")

	if res := f.svc.RemoveProcedure(ctx, f.owner, other.ID, p.ID); res.Error != msgProcedureRowNotFound {
		t.Errorf("expected row of another attendance to be rejected, got %+v", res)
	}
	res := f.svc.RemoveProcedure(ctx, f.owner, a.ID, p.ID)
	if !res.Success || len(res.Data) != 0 {
		t.Errorf("expected empty list after removal, got %+v", res)
	}
	cids := f.svc.RemoveCID(ctx, f.owner, a.ID, c.ID)
	if !cids.Success || len(cids.Data) != 0 {
		t.Errorf("expected empty CID list after removal, got %+v", cids)
	}
}

func TestUpdateOdontogram_ReplacesWholeDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.started(t)

	first := f.svc.UpdateOdontogram(ctx, f.owner, a.ID, OdontogramInput{Data: map[string]string{"11": "CARIE", "21": "HIGIDO"}})
	if !first.Success {
		t.Fatalf("unexpected error: %s", first.Error)
	}
	second := f.svc.UpdateOdontogram(ctx, f.owner, a.ID, OdontogramInput{Data: map[string]string{"36": "RESTAURADO"}})
	if !second.Success || second.Data.ID != first.Data.ID {
		t.Fatalf("expected same document to be replaced, got %+v", second)
	}
	stored, _ := f.odontos.GetByAttendance(ctx, a.ID)
	if len(stored.Data) != 1 || stored.Data["36"] != "RESTAURADO" {
		t.Errorf("expected whole-document replace, got %v", stored.Data)
	}

	bad := f.svc.UpdateOdontogram(ctx, f.owner, a.ID, OdontogramInput{Data: map[string]string{"99": "X"}})
	if bad.Kind != apperr.KindValidation {
		t.Errorf("expected invalid tooth key to fail validation, got %+v", bad)
	}
}

func TestCreateDocument_OnlyWhenDone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.started(t)
	in := DocumentInput{Type: string(DocumentAtestado), Payload: json.RawMessage(`{"dias":2}`)}

	if res := f.svc.CreateDocument(ctx, f.owner, a.ID, in); res.Error != msgDocumentNotDone {
		t.Fatalf("expected document rejected before DONE, got %+v", res)
	}
	f.addCID(t, a.ID, "K02.0")
	f.addProcedure(t, a.ID)
	if res := f.svc.Finish(ctx, f.owner, a.ID); !res.Success {
		t.Fatalf("finish failed: %s", res.Error)
	}
	res := f.svc.CreateDocument(ctx, f.owner, a.ID, in)
	if !res.Success || res.Data.GeneratedBy != f.owner.UserID {
		t.Fatalf("expected document, got %+v", res)
	}
	if res := f.svc.CreateDocument(ctx, f.owner, a.ID, DocumentInput{Type: "RECEITA", Payload: in.Payload}); res.Kind != apperr.KindValidation {
		t.Errorf("expected unknown type to fail validation, got %+v", res)
	}
	list := f.svc.ListDocuments(ctx, f.owner, a.ID)
	if !list.Success || len(list.Data) != 1 {
		t.Errorf("expected one document, got %+v", list)
	}
}

func TestMarkNoShow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.checkIn(t)
	if res := f.svc.MarkNoShow(ctx, f.owner, a.ID); !res.Success || res.Data.Status != StatusNoShow {
		t.Fatalf("expected NO_SHOW, got %+v", res)
	}
	b := f.started(t)
	if res := f.svc.MarkNoShow(ctx, f.owner, b.ID); res.Kind != apperr.KindBusiness {
		t.Errorf("expected IN_PROGRESS to reject no-show, got %+v", res)
	}
}

func TestTenantIsolation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.started(t)
	foreign := auth.Session{UserID: uuid.New(), ClinicID: uuid.New(), Role: auth.RoleOwner}

	if res := f.svc.GetAttendance(ctx, foreign, a.ID); res.Error != MsgNotFound {
		t.Errorf("expected %q, got %+v", MsgNotFound, res)
	}
	if res := f.svc.Cancel(ctx, foreign, a.ID); res.Error != MsgNotFound {
		t.Errorf("expected %q, got %+v", MsgNotFound, res)
	}
	if res := f.svc.Finish(ctx, foreign, uuid.New()); res.Error != MsgNotFound {
		t.Errorf("expected %q for a missing attendance, got %+v", MsgNotFound, res)
	}
	if got := f.status(t, a.ID); got != StatusInProgress {
		t.Errorf("expected state unchanged, got %s", got)
	}
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusCheckedIn, StatusInProgress, true},
		{StatusCheckedIn, StatusCanceled, true},
		{StatusCheckedIn, StatusNoShow, true},
		{StatusCheckedIn, StatusDone, false},
		{StatusInProgress, StatusDone, true},
		{StatusInProgress, StatusCanceled, true},
		{StatusInProgress, StatusCheckedIn, false},
		{StatusDone, StatusCanceled, false},
		{StatusCanceled, StatusInProgress, false},
		{StatusNoShow, StatusCheckedIn, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanMoveTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s: got %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestListAttendances_DayFilter(t *testing.T) {
	f := newFixture(t)
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Skip("time zone database unavailable")
	}
	f.svc.loc = loc

	q, err := f.svc.resolveFilter(ListFilter{Day: "2026-03-10", Status: "IN_PROGRESS"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantStart := time.Date(2026, 3, 10, 0, 0, 0, 0, loc)
	if !q.DayStart.Equal(wantStart) || !q.DayEnd.Equal(wantStart.AddDate(0, 0, 1)) {
		t.Errorf("unexpected day range %v - %v", q.DayStart, q.DayEnd)
	}
	if q.Status == nil || *q.Status != StatusInProgress {
		t.Errorf("expected status filter, got %v", q.Status)
	}

	res := f.svc.ListAttendances(context.Background(), f.owner, ListFilter{Day: "10/03/2026"}, pagination.Params{})
	if res.Kind != apperr.KindValidation {
		t.Errorf("expected malformed day to fail validation, got %+v", res)
	}
}
