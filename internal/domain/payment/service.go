package payment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/odonto/clinic/internal/domain/patient"
	"github.com/odonto/clinic/internal/domain/procedure"
	"github.com/odonto/clinic/internal/domain/treatmentplan"
	"github.com/odonto/clinic/internal/platform/apperr"
	"github.com/odonto/clinic/internal/platform/auth"
	"github.com/odonto/clinic/internal/platform/db"
	"github.com/odonto/clinic/internal/platform/result"
	"github.com/odonto/clinic/internal/platform/validate"
	"github.com/odonto/clinic/pkg/pagination"
)

const (
	MsgNotFound = "pagamento não encontrado"

	msgAlreadyCanceled = "pagamento já cancelado"
	msgPatientNotFound = "paciente não encontrado"
	msgPlanOther       = "o plano de tratamento pertence a outro paciente"
	msgPlanInactive    = "plano de tratamento inativo"
	msgPlanRejected    = "plano de tratamento rejeitado"
)

type PatientFinder interface {
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*patient.Patient, error)
}

// PlanStore is the part of the treatment plan repository payments touch.
type PlanStore interface {
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*treatmentplan.Plan, error)
	SetStatus(ctx context.Context, clinicID, id uuid.UUID, status treatmentplan.Status) error
}

type Service struct {
	repo     Repository
	patients PatientFinder
	plans    PlanStore
	tx       db.Transactor
	now      func() time.Time
	log      zerolog.Logger
}

func NewService(repo Repository, patients PatientFinder, plans PlanStore, tx db.Transactor, logger zerolog.Logger) *Service {
	return &Service{repo: repo, patients: patients, plans: plans, tx: tx, now: time.Now, log: logger}
}

// CreatePayment records the payment, links it to the given plans and approves
// the linked plans still OPEN, all in one transaction.
func (s *Service) CreatePayment(ctx context.Context, sess auth.Session, in CreateInput) result.Result[*Payment] {
	p, err := s.createPayment(ctx, sess, in)
	return result.Of(s.log, "payment.create", p, err)
}

func (s *Service) createPayment(ctx context.Context, sess auth.Session, in CreateInput) (*Payment, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if _, err := s.patients.GetByID(ctx, sess.ClinicID, in.PatientID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperr.NotFound(msgPatientNotFound)
		}
		return nil, err
	}

	var toApprove []uuid.UUID
	for _, planID := range in.TreatmentPlanIDs {
		plan, err := s.plans.GetByID(ctx, sess.ClinicID, planID)
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperr.NotFound(treatmentplan.MsgNotFound)
		}
		if err != nil {
			return nil, err
		}
		switch {
		case plan.PatientID != in.PatientID:
			return nil, apperr.Business(msgPlanOther)
		case !plan.IsActive:
			return nil, apperr.Business(msgPlanInactive)
		case plan.Status == treatmentplan.StatusRejected:
			return nil, apperr.Business(msgPlanRejected)
		case plan.Status == treatmentplan.StatusOpen:
			toApprove = append(toApprove, plan.ID)
		}
	}

	p := &Payment{
		ClinicID:         sess.ClinicID,
		PatientID:        in.PatientID,
		Amount:           procedure.RoundMoney(in.Amount),
		Method:           Method(in.Method),
		Status:           StatusPaid,
		PaidAt:           s.now(),
		Notes:            in.Notes,
		CreatedByID:      sess.UserID,
		TreatmentPlanIDs: in.TreatmentPlanIDs,
	}
	if in.PaidAt != nil {
		p.PaidAt = *in.PaidAt
	}
	if p.TreatmentPlanIDs == nil {
		p.TreatmentPlanIDs = []uuid.UUID{}
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, p); err != nil {
			return err
		}
		if err := s.repo.LinkPlans(ctx, p.ID, p.TreatmentPlanIDs); err != nil {
			return err
		}
		for _, planID := range toApprove {
			if err := s.plans.SetStatus(ctx, sess.ClinicID, planID, treatmentplan.StatusApproved); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// CancelPayment marks the payment CANCELED. Linked plans keep their status.
func (s *Service) CancelPayment(ctx context.Context, sess auth.Session, id uuid.UUID) result.Result[*Payment] {
	p, err := s.cancelPayment(ctx, sess, id)
	return result.Of(s.log, "payment.cancel", p, err)
}

func (s *Service) cancelPayment(ctx context.Context, sess auth.Session, id uuid.UUID) (*Payment, error) {
	if err := sess.RequireOwnerEquivalent(); err != nil {
		return nil, err
	}
	p, err := s.load(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if p.Status == StatusCanceled {
		return nil, apperr.Business(msgAlreadyCanceled)
	}
	if err := s.repo.SetStatus(ctx, sess.ClinicID, p.ID, StatusCanceled); err != nil {
		return nil, err
	}
	p.Status = StatusCanceled
	return p, nil
}

func (s *Service) load(ctx context.Context, sess auth.Session, id uuid.UUID) (*Payment, error) {
	p, err := s.repo.GetByID(ctx, sess.ClinicID, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound(MsgNotFound)
	}
	return p, err
}

func (s *Service) GetPayment(ctx context.Context, sess auth.Session, id uuid.UUID) result.Result[*Payment] {
	p, err := s.load(ctx, sess, id)
	return result.Of(s.log, "payment.get", p, err)
}

func (s *Service) ListPayments(ctx context.Context, sess auth.Session, f ListFilter, pg pagination.Params) result.Result[*pagination.Page[*Payment]] {
	page, err := s.listPayments(ctx, sess, f, pg)
	return result.Of(s.log, "payment.list", page, err)
}

func (s *Service) listPayments(ctx context.Context, sess auth.Session, f ListFilter, pg pagination.Params) (*pagination.Page[*Payment], error) {
	if err := validate.Struct(f); err != nil {
		return nil, err
	}
	pg = pg.Normalize()
	items, total, err := s.repo.List(ctx, sess.ClinicID, f, pg.Limit, pg.Offset)
	if err != nil {
		return nil, err
	}
	return pagination.NewPage(items, total, pg), nil
}
