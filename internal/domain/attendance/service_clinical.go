package attendance

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/odonto/clinic/internal/domain/cid"
	"github.com/odonto/clinic/internal/domain/dentist"
	"github.com/odonto/clinic/internal/domain/procedure"
	"github.com/odonto/clinic/internal/platform/apperr"
	"github.com/odonto/clinic/internal/platform/auth"
	"github.com/odonto/clinic/internal/platform/db"
	"github.com/odonto/clinic/internal/platform/result"
	"github.com/odonto/clinic/internal/platform/validate"
)

// loadEditable loads an attendance that accepts clinical data.
func (s *Service) loadEditable(ctx context.Context, sess auth.Session, id uuid.UUID) (*Attendance, error) {
	a, err := s.load(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if !a.Status.AcceptsClinicalData() {
		return nil, apperr.Business(msgNotEditable)
	}
	return a, nil
}

// resolveDentist applies EffectiveDentist and checks the result exists in the
// clinic.
func (s *Service) resolveDentist(ctx context.Context, sess auth.Session, a *Attendance) (uuid.UUID, error) {
	var caller *dentist.Dentist
	if a.DentistID == nil {
		d, err := s.Dentists.GetByUserID(ctx, sess.ClinicID, sess.UserID)
		if err != nil && !errors.Is(err, db.ErrNotFound) {
			return uuid.Nil, err
		}
		caller = d
	}
	id, ok := EffectiveDentist(a.DentistID, caller)
	if !ok {
		return uuid.Nil, apperr.Business(msgNoDentist)
	}
	if caller != nil {
		return id, nil
	}
	_, err := s.Dentists.GetByID(ctx, sess.ClinicID, id)
	if errors.Is(err, db.ErrNotFound) {
		return uuid.Nil, apperr.NotFound(dentist.MsgNotFound)
	}
	return id, err
}

func (s *Service) AddCID(ctx context.Context, sess auth.Session, id uuid.UUID, in AddCIDInput) result.Result[*CID] {
	c, err := s.addCID(ctx, sess, id, in)
	return result.Of(s.log, "attendance.add_cid", c, err)
}

func (s *Service) addCID(ctx context.Context, sess auth.Session, id uuid.UUID, in AddCIDInput) (*CID, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	a, err := s.loadEditable(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	dentistID, err := s.resolveDentist(ctx, sess, a)
	if err != nil {
		return nil, err
	}
	c := &CID{
		AttendanceID:       a.ID,
		CIDCode:            cid.NormalizeCode(in.CIDCode),
		Description:        strings.TrimSpace(in.Description),
		Observation:        in.Observation,
		CreatedByDentistID: dentistID,
	}
	if err := s.CIDs.Create(ctx, c); err != nil {
		return nil, err
	}
	s.enrichCategories(ctx, []*CID{c})
	return c, nil
}

// RemoveCID deletes the diagnosis and returns the remaining ones.
func (s *Service) RemoveCID(ctx context.Context, sess auth.Session, id, cidID uuid.UUID) result.Result[[]*CID] {
	items, err := s.removeCID(ctx, sess, id, cidID)
	return result.Of(s.log, "attendance.remove_cid", items, err)
}

func (s *Service) removeCID(ctx context.Context, sess auth.Session, id, cidID uuid.UUID) ([]*CID, error) {
	a, err := s.loadEditable(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	err = s.CIDs.Delete(ctx, a.ID, cidID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound(msgCIDRowNotFound)
	}
	if err != nil {
		return nil, err
	}
	items, err := s.CIDs.ListByAttendance(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*CID{}
	}
	s.enrichCategories(ctx, items)
	return items, nil
}

func (s *Service) AddProcedure(ctx context.Context, sess auth.Session, id uuid.UUID, in AddProcedureInput) result.Result[*Procedure] {
	p, err := s.addProcedure(ctx, sess, id, in)
	return result.Of(s.log, "attendance.add_procedure", p, err)
}

func (s *Service) addProcedure(ctx context.Context, sess auth.Session, id uuid.UUID, in AddProcedureInput) (*Procedure, error) {
	for i, f := range in.Faces {
		in.Faces[i] = strings.ToUpper(strings.TrimSpace(f))
	}
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	a, err := s.loadEditable(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	dentistID, err := s.resolveDentist(ctx, sess, a)
	if err != nil {
		return nil, err
	}
	cat, err := s.ProcedureCatalog.GetByID(ctx, sess.ClinicID, in.ProcedureID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound(procedure.MsgNotFound)
	}
	if err != nil {
		return nil, err
	}
	if !cat.IsActive {
		return nil, apperr.Business(msgProcedureInactive)
	}
	linked, err := s.Dentists.HasProcedure(ctx, sess.ClinicID, dentistID, cat.ID)
	if err != nil {
		return nil, err
	}
	if !linked {
		return nil, apperr.Business(msgProcedureNotLinked)
	}

	price := procedure.RoundMoney(cat.Value)
	p := &Procedure{
		AttendanceID:   a.ID,
		ProcedureID:    &cat.ID,
		ProcedureCode:  cat.Code,
		Tooth:          in.Tooth,
		Faces:          in.Faces,
		Quantity:       in.Quantity,
		ClinicalStatus: in.ClinicalStatus,
		Price:          &price,
		DentistID:      dentistID,
		Observations:   in.Observations,
		Procedure:      &ProcedureSummary{ID: cat.ID, Name: cat.Name, Code: cat.Code, Value: cat.Value},
	}
	if p.Quantity == 0 {
		p.Quantity = 1
	}
	if p.ClinicalStatus == "" {
		p.ClinicalStatus = ClinicalPerformed
	}
	if p.Faces == nil {
		p.Faces = []string{}
	}
	if err := s.Procedures.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// RemoveProcedure hard-deletes the row and returns the remaining procedures.
func (s *Service) RemoveProcedure(ctx context.Context, sess auth.Session, id, rowID uuid.UUID) result.Result[[]*Procedure] {
	items, err := s.removeProcedure(ctx, sess, id, rowID)
	return result.Of(s.log, "attendance.remove_procedure", items, err)
}

func (s *Service) removeProcedure(ctx context.Context, sess auth.Session, id, rowID uuid.UUID) ([]*Procedure, error) {
	a, err := s.loadEditable(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	err = s.Procedures.Delete(ctx, a.ID, rowID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound(msgProcedureRowNotFound)
	}
	if err != nil {
		return nil, err
	}
	items, err := s.Procedures.ListByAttendance(ctx, a.ID)
	if items == nil && err == nil {
		items = []*Procedure{}
	}
	return items, err
}

func (s *Service) UpdateOdontogram(ctx context.Context, sess auth.Session, id uuid.UUID, in OdontogramInput) result.Result[*Odontogram] {
	o, err := s.updateOdontogram(ctx, sess, id, in)
	return result.Of(s.log, "attendance.update_odontogram", o, err)
}

func (s *Service) updateOdontogram(ctx context.Context, sess auth.Session, id uuid.UUID, in OdontogramInput) (*Odontogram, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	a, err := s.loadEditable(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	o := &Odontogram{AttendanceID: a.ID, Data: in.Data}
	if err := s.Odontograms.Upsert(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) CreateDocument(ctx context.Context, sess auth.Session, id uuid.UUID, in DocumentInput) result.Result[*Document] {
	d, err := s.createDocument(ctx, sess, id, in)
	return result.Of(s.log, "attendance.create_document", d, err)
}

func (s *Service) createDocument(ctx context.Context, sess auth.Session, id uuid.UUID, in DocumentInput) (*Document, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	a, err := s.load(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusDone {
		return nil, apperr.Business(msgDocumentNotDone)
	}
	d := &Document{
		AttendanceID: a.ID,
		Type:         DocumentType(in.Type),
		Payload:      in.Payload,
		GeneratedBy:  sess.UserID,
	}
	if err := s.Documents.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) ListDocuments(ctx context.Context, sess auth.Session, id uuid.UUID) result.Result[[]*Document] {
	items, err := s.listDocuments(ctx, sess, id)
	return result.Of(s.log, "attendance.list_documents", items, err)
}

func (s *Service) listDocuments(ctx context.Context, sess auth.Session, id uuid.UUID) ([]*Document, error) {
	a, err := s.load(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	items, err := s.Documents.ListByAttendance(ctx, a.ID)
	if items == nil && err == nil {
		items = []*Document{}
	}
	return items, err
}

// enrichCategories fills Category from the CID catalog. Lookup failures are
// logged and leave categories empty.
func (s *Service) enrichCategories(ctx context.Context, cids []*CID) {
	if len(cids) == 0 || s.Categories == nil {
		return
	}
	codes := make([]string, len(cids))
	for i, c := range cids {
		codes[i] = c.CIDCode
	}
	categories, err := s.Categories.FindCategoriesByCodes(ctx, cid.UniqueCodes(codes))
	if err != nil {
		s.log.Warn().Err(err).Msg("cid category lookup failed")
		return
	}
	for _, c := range cids {
		if cat, ok := categories[cid.NormalizeCode(c.CIDCode)]; ok {
			c.Category = &cat
		}
	}
}
