package record

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/odonto/clinic/internal/platform/apperr"
	"github.com/odonto/clinic/internal/platform/auth"
	"github.com/odonto/clinic/internal/platform/db"
	"github.com/odonto/clinic/internal/platform/result"
	"github.com/odonto/clinic/pkg/pagination"
)

const msgNotFound = "prontuário não encontrado"

type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, log: logger}
}

func (s *Service) GetRecord(ctx context.Context, sess auth.Session, id uuid.UUID) result.Result[*Record] {
	rec, err := s.repo.GetByID(ctx, sess.ClinicID, id)
	if errors.Is(err, db.ErrNotFound) {
		err = apperr.NotFound(msgNotFound)
	}
	return result.Of(s.log, "record.get", rec, err)
}

func (s *Service) ListPatientRecords(ctx context.Context, sess auth.Session, patientID uuid.UUID, pg pagination.Params) result.Result[*pagination.Page[*Record]] {
	pg = pg.Normalize()
	items, total, err := s.repo.ListByPatient(ctx, sess.ClinicID, patientID, pg.Limit, pg.Offset)
	var page *pagination.Page[*Record]
	if err == nil {
		page = pagination.NewPage(items, total, pg)
	}
	return result.Of(s.log, "record.list_patient", page, err)
}

// Summarize renders the one-line summary stored next to the content.
func Summarize(c Content) string {
	codes := make([]string, len(c.CIDs))
	for i, cid := range c.CIDs {
		codes[i] = cid.Code
	}
	qty := 0
	for _, p := range c.Procedures {
		qty += p.Quantity
	}
	return fmt.Sprintf("CID: %s | procedimentos: %d", strings.Join(codes, ", "), qty)
}
