package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bobos12/eyeclinic/internal/domain"
	"github.com/bobos12/eyeclinic/internal/domain/patient"
	"github.com/bobos12/eyeclinic/internal/domain/visit"
	"github.com/bobos12/eyeclinic/pkg/auth"
	"github.com/bobos12/eyeclinic/pkg/metrics"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type VisitService struct {
	repo        visit.Repository
	patientRepo patient.Repository
	auditSvc    *AuditService
	metrics     *metrics.Collector
	limits      visit.Limits
	now         func() time.Time
	log         *zap.Logger
}

func NewVisitService(repo visit.Repository, patientRepo patient.Repository, auditSvc *AuditService, m *metrics.Collector, limits visit.Limits, log *zap.Logger) *VisitService {
	return &VisitService{
		repo:        repo,
		patientRepo: patientRepo,
		auditSvc:    auditSvc,
		metrics:     m,
		limits:      limits,
		now:         time.Now,
		log:         log,
	}
}

// CreateVisit records a visit authored by the caller. Any author supplied in
// cmd is overwritten.
func (s *VisitService) CreateVisit(ctx context.Context, cmd *visit.CreateVisitCommand, caller Caller) (view *visit.View, err error) {
	ctx, span := startSpan(ctx, "VisitService.CreateVisit")
	defer func() { endSpan(span, err) }()

	if err := caller.authorize(auth.OpCreateVisit); err != nil {
		return nil, err
	}

	if cmd.PatientID == uuid.Nil {
		return nil, visit.ErrPatientIDRequired
	}
	span.SetAttributes(attribute.String("patient.id", cmd.PatientID.String()))

	if _, err := s.patientRepo.GetByID(ctx, cmd.PatientID); err != nil {
		return nil, err
	}

	cmd.DoctorID = caller.UserID
	v := cmd.Build(s.now())

	if problems := v.Problems(s.limits); len(problems) > 0 {
		return nil, &ValidationError{Fields: problems}
	}

	if err := s.repo.Create(ctx, v); err != nil {
		if errors.Is(err, patient.ErrPatientNotFound) || errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		s.log.Error("failed to create visit", zap.Error(err))
		return nil, fmt.Errorf("creating visit: %w", err)
	}

	s.countVisit("create")
	s.auditSvc.LogAsync(ctx, caller.audit(domain.ActionCreate, "visit", v.ID.String(), map[string]any{
		"patientId": v.PatientID,
	}))

	s.log.Info("visit created",
		zap.String("visit_id", v.ID.String()),
		zap.String("patient_id", v.PatientID.String()),
		zap.String("doctor_id", v.DoctorID.String()),
	)

	return s.reload(ctx, v.ID)
}

func (s *VisitService) GetVisit(ctx context.Context, id uuid.UUID, caller Caller) (*visit.View, error) {
	if err := caller.authorize(auth.OpReadVisit); err != nil {
		return nil, err
	}

	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, caller.audit(domain.ActionRead, "visit", id.String(), nil))

	return visit.NewView(v), nil
}

func (s *VisitService) ListVisits(ctx context.Context, q *visit.ListVisitsQuery, caller Caller) ([]*visit.View, error) {
	if err := caller.authorize(auth.OpReadVisit); err != nil {
		return nil, err
	}

	visits, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, err
	}
	return visit.NewViews(visits), nil
}

// UpdateVisit replaces the supplied top-level fields and validates the merged
// visit. The patient may be changed; the author may not.
func (s *VisitService) UpdateVisit(ctx context.Context, id uuid.UUID, cmd *visit.UpdateVisitCommand, caller Caller) (view *visit.View, err error) {
	ctx, span := startSpan(ctx, "VisitService.UpdateVisit", attribute.String("visit.id", id.String()))
	defer func() { endSpan(span, err) }()

	if err := caller.authorize(auth.OpUpdateVisit); err != nil {
		return nil, err
	}

	if cmd.IsEmpty() {
		return nil, visit.ErrNothingToUpdate
	}

	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if cmd.PatientID != nil {
		if *cmd.PatientID == uuid.Nil {
			return nil, visit.ErrPatientIDRequired
		}
		if _, err := s.patientRepo.GetByID(ctx, *cmd.PatientID); err != nil {
			return nil, err
		}
	}

	cmd.Apply(v)

	if problems := v.Problems(s.limits); len(problems) > 0 {
		return nil, &ValidationError{Fields: problems}
	}

	if err := s.repo.Update(ctx, v); err != nil {
		if errors.Is(err, visit.ErrVisitNotFound) || errors.Is(err, patient.ErrPatientNotFound) {
			return nil, err
		}
		s.log.Error("failed to update visit", zap.Error(err))
		return nil, fmt.Errorf("updating visit: %w", err)
	}

	s.countVisit("update")
	s.auditSvc.LogAsync(ctx, caller.audit(domain.ActionUpdate, "visit", id.String(), nil))

	return s.reload(ctx, id)
}

func (s *VisitService) DeleteVisit(ctx context.Context, id uuid.UUID, caller Caller) error {
	if err := caller.authorize(auth.OpDeleteVisit); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.countVisit("delete")
	s.auditSvc.LogAsync(ctx, caller.audit(domain.ActionDelete, "visit", id.String(), nil))
	s.log.Info("visit deleted",
		zap.String("visit_id", id.String()),
		zap.String("deleted_by", caller.UserID.String()),
	)
	return nil
}

// reload reads the stored visit back with its references joined.
func (s *VisitService) reload(ctx context.Context, id uuid.UUID) (*visit.View, error) {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reloading visit: %w", err)
	}
	return visit.NewView(v), nil
}

func (s *VisitService) countVisit(op string) {
	if s.metrics != nil {
		s.metrics.VisitsTotal.WithLabelValues(op).Inc()
	}
}
