package treatmentplan

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/odonto/clinic/internal/domain/dentist"
	"github.com/odonto/clinic/internal/domain/patient"
	"github.com/odonto/clinic/internal/domain/procedure"
	"github.com/odonto/clinic/internal/platform/apperr"
	"github.com/odonto/clinic/internal/platform/auth"
	"github.com/odonto/clinic/internal/platform/db"
	"github.com/odonto/clinic/internal/platform/result"
	"github.com/odonto/clinic/internal/platform/validate"
	"github.com/odonto/clinic/pkg/pagination"
)

const (
	MsgNotFound = "plano de tratamento não encontrado"

	msgNotOpen           = "apenas planos em aberto podem ser alterados"
	msgPatientNotFound   = "paciente não encontrado"
	msgPatientInactive   = "paciente inativo"
	msgProcedureInactive = "procedimento inativo"
	msgItemValueRequired = "items: value is required without procedureId"
)

type PatientFinder interface {
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*patient.Patient, error)
}

type DentistFinder interface {
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*dentist.Dentist, error)
}

type ProcedureFinder interface {
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*procedure.Procedure, error)
}

type Service struct {
	repo       Repository
	patients   PatientFinder
	dentists   DentistFinder
	procedures ProcedureFinder
	tx         db.Transactor
	log        zerolog.Logger
}

func NewService(repo Repository, patients PatientFinder, dentists DentistFinder, procedures ProcedureFinder,
	tx db.Transactor, logger zerolog.Logger) *Service {
	return &Service{
		repo:       repo,
		patients:   patients,
		dentists:   dentists,
		procedures: procedures,
		tx:         tx,
		log:        logger,
	}
}

// Total sums value × quantity over items, rounded to cents.
func Total(items []*Item) float64 {
	var total float64
	for _, it := range items {
		total += procedure.RoundMoney(it.Value * float64(it.Quantity))
	}
	return procedure.RoundMoney(total)
}

func (s *Service) CreatePlan(ctx context.Context, sess auth.Session, in CreateInput) result.Result[*Plan] {
	p, err := s.createPlan(ctx, sess, in)
	return result.Of(s.log, "treatment_plan.create", p, err)
}

func (s *Service) createPlan(ctx context.Context, sess auth.Session, in CreateInput) (*Plan, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	pat, err := s.patients.GetByID(ctx, sess.ClinicID, in.PatientID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound(msgPatientNotFound)
	}
	if err != nil {
		return nil, err
	}
	if !pat.IsActive {
		return nil, apperr.Business(msgPatientInactive)
	}
	if in.DentistID != nil {
		if _, err := s.dentists.GetByID(ctx, sess.ClinicID, *in.DentistID); err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return nil, apperr.NotFound(dentist.MsgNotFound)
			}
			return nil, err
		}
	}
	items, err := s.resolveItems(ctx, sess, in.Items)
	if err != nil {
		return nil, err
	}

	p := &Plan{
		ClinicID:    sess.ClinicID,
		PatientID:   pat.ID,
		DentistID:   in.DentistID,
		Title:       strings.TrimSpace(in.Title),
		Status:      StatusOpen,
		TotalAmount: Total(items),
		Notes:       in.Notes,
		Items:       items,
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, p); err != nil {
			return err
		}
		return s.repo.ReplaceItems(ctx, p.ID, items)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// resolveItems fills catalog defaults and checks referenced procedures are
// active.
func (s *Service) resolveItems(ctx context.Context, sess auth.Session, inputs []ItemInput) ([]*Item, error) {
	items := make([]*Item, 0, len(inputs))
	for _, in := range inputs {
		it := &Item{
			ProcedureID: in.ProcedureID,
			Description: strings.TrimSpace(in.Description),
			Tooth:       in.Tooth,
			Quantity:    in.Quantity,
		}
		if it.Quantity == 0 {
			it.Quantity = 1
		}
		if in.ProcedureID != nil {
			proc, err := s.procedures.GetByID(ctx, sess.ClinicID, *in.ProcedureID)
			if errors.Is(err, db.ErrNotFound) {
				return nil, apperr.NotFound(procedure.MsgNotFound)
			}
			if err != nil {
				return nil, err
			}
			if !proc.IsActive {
				return nil, apperr.Business(msgProcedureInactive)
			}
			if it.Description == "" {
				it.Description = proc.Name
			}
			it.Value = proc.Value
		} else if in.Value == nil {
			return nil, apperr.Validation(msgItemValueRequired)
		}
		if in.Value != nil {
			it.Value = *in.Value
		}
		it.Value = procedure.RoundMoney(it.Value)
		items = append(items, it)
	}
	return items, nil
}

func (s *Service) load(ctx context.Context, sess auth.Session, id uuid.UUID) (*Plan, error) {
	p, err := s.repo.GetByID(ctx, sess.ClinicID, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound(MsgNotFound)
	}
	return p, err
}

// UpdatePlan replaces the header and all items of an OPEN plan.
func (s *Service) UpdatePlan(ctx context.Context, sess auth.Session, id uuid.UUID, in UpdateInput) result.Result[*Plan] {
	p, err := s.updatePlan(ctx, sess, id, in)
	return result.Of(s.log, "treatment_plan.update", p, err)
}

func (s *Service) updatePlan(ctx context.Context, sess auth.Session, id uuid.UUID, in UpdateInput) (*Plan, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	p, err := s.load(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusOpen {
		return nil, apperr.Business(msgNotOpen)
	}
	items, err := s.resolveItems(ctx, sess, in.Items)
	if err != nil {
		return nil, err
	}
	p.Title = strings.TrimSpace(in.Title)
	p.Notes = in.Notes
	p.Items = items
	p.TotalAmount = Total(items)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, p); err != nil {
			return err
		}
		return s.repo.ReplaceItems(ctx, p.ID, items)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) UpdateStatus(ctx context.Context, sess auth.Session, id uuid.UUID, in StatusInput) result.Result[*Plan] {
	p, err := s.updateStatus(ctx, sess, id, in)
	return result.Of(s.log, "treatment_plan.status", p, err)
}

func (s *Service) updateStatus(ctx context.Context, sess auth.Session, id uuid.UUID, in StatusInput) (*Plan, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	p, err := s.load(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusOpen {
		return nil, apperr.Business(msgNotOpen)
	}
	p.Status = Status(in.Status)
	if err := s.repo.SetStatus(ctx, sess.ClinicID, p.ID, p.Status); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) GetPlan(ctx context.Context, sess auth.Session, id uuid.UUID) result.Result[*Plan] {
	p, err := s.load(ctx, sess, id)
	return result.Of(s.log, "treatment_plan.get", p, err)
}

func (s *Service) ListPlans(ctx context.Context, sess auth.Session, f ListFilter, pg pagination.Params) result.Result[*pagination.Page[*Plan]] {
	page, err := s.listPlans(ctx, sess, f, pg)
	return result.Of(s.log, "treatment_plan.list", page, err)
}

func (s *Service) listPlans(ctx context.Context, sess auth.Session, f ListFilter, pg pagination.Params) (*pagination.Page[*Plan], error) {
	if err := validate.Struct(f); err != nil {
		return nil, err
	}
	pg = pg.Normalize()
	plans, total, err := s.repo.List(ctx, sess.ClinicID, f, pg.Limit, pg.Offset)
	if err != nil {
		return nil, err
	}
	return pagination.NewPage(plans, total, pg), nil
}

func (s *Service) DeactivatePlan(ctx context.Context, sess auth.Session, id uuid.UUID) result.Result[*Plan] {
	p, err := s.deactivatePlan(ctx, sess, id)
	return result.Of(s.log, "treatment_plan.deactivate", p, err)
}

func (s *Service) deactivatePlan(ctx context.Context, sess auth.Session, id uuid.UUID) (*Plan, error) {
	if err := sess.RequireOwnerEquivalent(); err != nil {
		return nil, err
	}
	p, err := s.load(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetActive(ctx, sess.ClinicID, p.ID, false); err != nil {
		return nil, err
	}
	p.IsActive = false
	return p, nil
}
