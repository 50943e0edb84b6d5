package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/odonto/clinic/internal/domain/patient"
	"github.com/odonto/clinic/internal/domain/treatmentplan"
	"github.com/odonto/clinic/internal/platform/apperr"
	"github.com/odonto/clinic/internal/platform/auth"
	"github.com/odonto/clinic/internal/platform/db"
	"github.com/odonto/clinic/pkg/pagination"
)

type mockRepo struct {
	payments map[uuid.UUID]*Payment
	linkErr  error
}

func (m *mockRepo) Create(_ context.Context, p *Payment) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	cp := *p
	m.payments[p.ID] = &cp
	return nil
}

func (m *mockRepo) LinkPlans(_ context.Context, paymentID uuid.UUID, planIDs []uuid.UUID) error {
	if m.linkErr != nil {
		return m.linkErr
	}
	m.payments[paymentID].TreatmentPlanIDs = planIDs
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, clinicID, id uuid.UUID) (*Payment, error) {
	p, ok := m.payments[id]
	if !ok || p.ClinicID != clinicID {
		return nil, db.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepo) SetStatus(_ context.Context, clinicID, id uuid.UUID, status Status) error {
	p, ok := m.payments[id]
	if !ok || p.ClinicID != clinicID {
		return db.ErrNotFound
	}
	p.Status = status
	return nil
}

func (m *mockRepo) List(_ context.Context, clinicID uuid.UUID, f ListFilter, limit, offset int) ([]*Payment, int, error) {
	var out []*Payment
	for _, p := range m.payments {
		if p.ClinicID == clinicID && (f.Status == "" || string(p.Status) == f.Status) {
			out = append(out, p)
		}
	}
	return out, len(out), nil
}

type mockPatients map[uuid.UUID]*patient.Patient

func (m mockPatients) GetByID(_ context.Context, clinicID, id uuid.UUID) (*patient.Patient, error) {
	p, ok := m[id]
	if !ok || p.ClinicID != clinicID {
		return nil, db.ErrNotFound
	}
	return p, nil
}

type mockPlans struct {
	plans map[uuid.UUID]*treatmentplan.Plan
}

func (m *mockPlans) GetByID(_ context.Context, clinicID, id uuid.UUID) (*treatmentplan.Plan, error) {
	p, ok := m.plans[id]
	if !ok || p.ClinicID != clinicID {
		return nil, db.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockPlans) SetStatus(_ context.Context, clinicID, id uuid.UUID, status treatmentplan.Status) error {
	p, ok := m.plans[id]
	if !ok || p.ClinicID != clinicID {
		return db.ErrNotFound
	}
	p.Status = status
	return nil
}

// rollbackTx restores payments and plan statuses when fn fails.
type rollbackTx struct {
	repo  *mockRepo
	plans *mockPlans
}

func (t rollbackTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	payments := make(map[uuid.UUID]*Payment, len(t.repo.payments))
	for k, v := range t.repo.payments {
		payments[k] = v
	}
	statuses := make(map[uuid.UUID]treatmentplan.Status, len(t.plans.plans))
	for k, v := range t.plans.plans {
		statuses[k] = v.Status
	}
	if err := fn(ctx); err != nil {
		t.repo.payments = payments
		for k, st := range statuses {
			t.plans.plans[k].Status = st
		}
		return err
	}
	return nil
}

type fixture struct {
	svc     *Service
	repo    *mockRepo
	plans   *mockPlans
	sess    auth.Session
	patient *patient.Patient
}

func newFixture() *fixture {
	clinicID := uuid.New()
	pat := &patient.Patient{ID: uuid.New(), ClinicID: clinicID, Name: "Ana Paula", IsActive: true}
	repo := &mockRepo{payments: make(map[uuid.UUID]*Payment)}
	plans := &mockPlans{plans: make(map[uuid.UUID]*treatmentplan.Plan)}
	return &fixture{
		svc:     NewService(repo, mockPatients{pat.ID: pat}, plans, rollbackTx{repo: repo, plans: plans}, zerolog.Nop()),
		repo:    repo,
		plans:   plans,
		sess:    auth.Session{UserID: uuid.New(), ClinicID: clinicID, Role: auth.RoleAdmin},
		patient: pat,
	}
}

func (f *fixture) addPlan(status treatmentplan.Status) *treatmentplan.Plan {
	p := &treatmentplan.Plan{ID: uuid.New(), ClinicID: f.sess.ClinicID, PatientID: f.patient.ID, Status: status, IsActive: true}
	f.plans.plans[p.ID] = p
	return p
}

func TestCreatePayment_ApprovesOpenPlans(t *testing.T) {
	f := newFixture()
	open := f.addPlan(treatmentplan.StatusOpen)
	approved := f.addPlan(treatmentplan.StatusApproved)

	res := f.svc.CreatePayment(context.Background(), f.sess, CreateInput{
		PatientID:        f.patient.ID,
		Amount:           300.456,
		Method:           "PIX",
		TreatmentPlanIDs: []uuid.UUID{open.ID, approved.ID},
	})
	if !res.Success {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	if res.Data.Amount != 300.46 || res.Data.Status != StatusPaid || res.Data.CreatedByID != f.sess.UserID {
		t.Errorf("unexpected payment %+v", res.Data)
	}
	if open.Status != treatmentplan.StatusApproved {
		t.Errorf("expected OPEN plan approved, got %s", open.Status)
	}
	if len(f.repo.payments[res.Data.ID].TreatmentPlanIDs) != 2 {
		t.Error("expected both plans linked")
	}
}

func TestCreatePayment_RollsBackOnLinkFailure(t *testing.T) {
	f := newFixture()
	open := f.addPlan(treatmentplan.StatusOpen)
	f.repo.linkErr = errors.New("fk violation")

	res := f.svc.CreatePayment(context.Background(), f.sess, CreateInput{
		PatientID:        f.patient.ID,
		Amount:           50,
		Method:           "CASH",
		TreatmentPlanIDs: []uuid.UUID{open.ID},
	})
	if res.Kind != apperr.KindInternal {
		t.Fatalf("expected internal error, got %+v", res)
	}
	if len(f.repo.payments) != 0 || open.Status != treatmentplan.StatusOpen {
		t.Error("expected payment and plan status rolled back")
	}
}

func TestCreatePayment_PlanGuards(t *testing.T) {
	f := newFixture()
	rejected := f.addPlan(treatmentplan.StatusRejected)
	foreign := f.addPlan(treatmentplan.StatusOpen)
	foreign.PatientID = uuid.New()

	tests := []struct {
		name   string
		planID uuid.UUID
		want   string
	}{
		{"rejected plan", rejected.ID, msgPlanRejected},
		{"other patient's plan", foreign.ID, msgPlanOther},
		{"unknown plan", uuid.New(), treatmentplan.MsgNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := f.svc.CreatePayment(context.Background(), f.sess, CreateInput{
				PatientID:        f.patient.ID,
				Amount:           10,
				Method:           "CASH",
				TreatmentPlanIDs: []uuid.UUID{tt.planID},
			})
			if res.Error != tt.want {
				t.Errorf("expected %q, got %+v", tt.want, res)
			}
		})
	}
}

func TestCreatePayment_Validation(t *testing.T) {
	f := newFixture()
	tests := []CreateInput{
		{PatientID: f.patient.ID, Amount: 0, Method: "CASH"},
		{PatientID: f.patient.ID, Amount: 10, Method: "BITCOIN"},
		{PatientID: f.patient.ID, Amount: 10, Method: "CASH", TreatmentPlanIDs: []uuid.UUID{f.patient.ID, f.patient.ID}},
	}
	for _, in := range tests {
		if res := f.svc.CreatePayment(context.Background(), f.sess, in); res.Kind != apperr.KindValidation {
			t.Errorf("expected validation error for %+v, got %+v", in, res)
		}
	}
}

func TestCancelPayment(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	created := f.svc.CreatePayment(ctx, f.sess, CreateInput{PatientID: f.patient.ID, Amount: 80, Method: "DEBIT_CARD"})
	if !created.Success {
		t.Fatalf("create failed: %s", created.Error)
	}

	reception := f.sess
	reception.Role = auth.RoleReceptionist
	if res := f.svc.CancelPayment(ctx, reception, created.Data.ID); res.Kind != apperr.KindForbidden {
		t.Errorf("expected forbidden for receptionist, got %+v", res)
	}
	if res := f.svc.CancelPayment(ctx, f.sess, created.Data.ID); !res.Success || res.Data.Status != StatusCanceled {
		t.Fatalf("expected canceled payment, got %+v", res)
	}
	if res := f.svc.CancelPayment(ctx, f.sess, created.Data.ID); res.Error != msgAlreadyCanceled {
		t.Errorf("expected %q, got %+v", msgAlreadyCanceled, res)
	}

	page := f.svc.ListPayments(ctx, f.sess, ListFilter{Status: "CANCELED"}, pagination.Params{})
	if !page.Success || page.Data.Total != 1 {
		t.Errorf("expected the canceled payment listed, got %+v", page)
	}
}
