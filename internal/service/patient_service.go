package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bobos12/eyeclinic/internal/domain"
	"github.com/bobos12/eyeclinic/internal/domain/patient"
	"github.com/bobos12/eyeclinic/internal/domain/visit"
	"github.com/bobos12/eyeclinic/pkg/auth"
	"github.com/bobos12/eyeclinic/pkg/metrics"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// PatientWithVisits is a patient together with their visit history, most
// recent first.
type PatientWithVisits struct {
	Patient    *patient.Patient `json:"patient"`
	Visits     []*visit.View    `json:"visits"`
	VisitCount int              `json:"visitCount"`
}

type PatientService struct {
	repo      patient.Repository
	visitRepo visit.Repository
	auditSvc  *AuditService
	metrics   *metrics.Collector
	log       *zap.Logger
}

func NewPatientService(repo patient.Repository, visitRepo visit.Repository, auditSvc *AuditService, m *metrics.Collector, log *zap.Logger) *PatientService {
	return &PatientService{
		repo:      repo,
		visitRepo: visitRepo,
		auditSvc:  auditSvc,
		metrics:   m,
		log:       log,
	}
}

func (s *PatientService) CreatePatient(ctx context.Context, cmd *patient.CreatePatientCommand, caller Caller) (p *patient.Patient, err error) {
	ctx, span := startSpan(ctx, "PatientService.CreatePatient")
	defer func() { endSpan(span, err) }()

	if err := caller.authorize(auth.OpCreatePatient); err != nil {
		return nil, err
	}

	cmd.Normalize()
	if err := validateCreateCommand(cmd); err != nil {
		return nil, err
	}

	if err := s.checkPhoneFree(ctx, cmd.Phone, nil); err != nil {
		return nil, err
	}

	p = &patient.Patient{
		Name:   cmd.Name,
		Phone:  cmd.Phone,
		Age:    *cmd.Age,
		Gender: cmd.Gender,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, patient.ErrPatientAlreadyExists) {
			// Lost a race with a concurrent registration of the same phone.
			return nil, s.conflictFor(ctx, cmd.Phone, nil)
		}
		s.log.Error("failed to create patient", zap.Error(err))
		return nil, fmt.Errorf("creating patient: %w", err)
	}

	if s.metrics != nil {
		s.metrics.PatientsCreatedTotal.Inc()
	}
	s.auditSvc.LogAsync(ctx, caller.audit(domain.ActionCreate, "patient", p.ID.String(), map[string]any{"code": p.Code}))

	s.log.Info("patient created",
		zap.String("patient_id", p.ID.String()),
		zap.String("code", p.Code),
		zap.String("created_by", caller.UserID.String()),
	)

	return p, nil
}

func (s *PatientService) GetPatient(ctx context.Context, id uuid.UUID, caller Caller) (*patient.Patient, error) {
	if err := caller.authorize(auth.OpReadPatient); err != nil {
		return nil, err
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, caller.audit(domain.ActionRead, "patient", id.String(), nil))

	return p, nil
}

func (s *PatientService) GetPatientWithVisits(ctx context.Context, id uuid.UUID, caller Caller) (res *PatientWithVisits, err error) {
	ctx, span := startSpan(ctx, "PatientService.GetPatientWithVisits", attribute.String("patient.id", id.String()))
	defer func() { endSpan(span, err) }()

	if err := caller.authorize(auth.OpReadPatient); err != nil {
		return nil, err
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	visits, err := s.visitRepo.List(ctx, &visit.ListVisitsQuery{PatientID: &id})
	if err != nil {
		return nil, fmt.Errorf("listing patient visits: %w", err)
	}

	s.auditSvc.LogAsync(ctx, caller.audit(domain.ActionRead, "patient", id.String(), map[string]any{"withVisits": true}))

	return &PatientWithVisits{
		Patient:    p,
		Visits:     visit.NewViews(visits),
		VisitCount: len(visits),
	}, nil
}

func (s *PatientService) ListPatients(ctx context.Context, caller Caller) ([]*patient.Patient, error) {
	if err := caller.authorize(auth.OpReadPatient); err != nil {
		return nil, err
	}
	return s.repo.List(ctx)
}

// SearchPatients matches name case-insensitively anywhere in the patient
// name. An empty term and an empty result are both errors.
func (s *PatientService) SearchPatients(ctx context.Context, name string, caller Caller) ([]*patient.Patient, error) {
	if err := caller.authorize(auth.OpReadPatient); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, patient.ErrSearchTermRequired
	}

	patients, err := s.repo.SearchByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(patients) == 0 {
		return nil, patient.ErrNoPatientsFound
	}
	return patients, nil
}

func (s *PatientService) UpdatePatient(ctx context.Context, id uuid.UUID, cmd *patient.UpdatePatientCommand, caller Caller) (p *patient.Patient, err error) {
	ctx, span := startSpan(ctx, "PatientService.UpdatePatient", attribute.String("patient.id", id.String()))
	defer func() { endSpan(span, err) }()

	if err := caller.authorize(auth.OpUpdatePatient); err != nil {
		return nil, err
	}

	if cmd.IsEmpty() {
		return nil, patient.ErrNothingToUpdate
	}
	cmd.Normalize()
	if err := validateUpdateCommand(cmd); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	if cmd.Phone != nil {
		if err := s.checkPhoneFree(ctx, *cmd.Phone, &id); err != nil {
			return nil, err
		}
	}

	p, err = s.repo.Update(ctx, id, cmd)
	if err != nil {
		if errors.Is(err, patient.ErrPatientAlreadyExists) && cmd.Phone != nil {
			return nil, s.conflictFor(ctx, *cmd.Phone, &id)
		}
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, caller.audit(domain.ActionUpdate, "patient", id.String(), cmd))

	return p, nil
}

// DeletePatient removes the patient permanently. Patients with recorded
// visits cannot be deleted.
func (s *PatientService) DeletePatient(ctx context.Context, id uuid.UUID, caller Caller) error {
	if err := caller.authorize(auth.OpDeletePatient); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.auditSvc.LogAsync(ctx, caller.audit(domain.ActionDelete, "patient", id.String(), nil))
	s.log.Info("patient deleted",
		zap.String("patient_id", id.String()),
		zap.String("deleted_by", caller.UserID.String()),
	)
	return nil
}

// checkPhoneFree returns a PatientConflictError when another live patient
// already holds phone.
func (s *PatientService) checkPhoneFree(ctx context.Context, phone string, excludeID *uuid.UUID) error {
	existing, err := s.repo.FindByPhone(ctx, phone, excludeID)
	switch {
	case err == nil:
		return &PatientConflictError{Existing: existing.Summary()}
	case errors.Is(err, patient.ErrPatientNotFound):
		return nil
	default:
		s.log.Error("failed to check phone uniqueness", zap.Error(err))
		return fmt.Errorf("checking phone uniqueness: %w", err)
	}
}

func (s *PatientService) conflictFor(ctx context.Context, phone string, excludeID *uuid.UUID) error {
	existing, err := s.repo.FindByPhone(ctx, phone, excludeID)
	if err != nil {
		return patient.ErrPatientAlreadyExists
	}
	return &PatientConflictError{Existing: existing.Summary()}
}

func validateCreateCommand(cmd *patient.CreatePatientCommand) error {
	var errs []string

	if cmd.Name == "" {
		errs = append(errs, "name is required")
	}
	if cmd.Phone == "" {
		errs = append(errs, "phone is required")
	}
	if cmd.Age == nil {
		errs = append(errs, "age is required")
	} else if msg := checkAge(*cmd.Age); msg != "" {
		errs = append(errs, msg)
	}
	if !cmd.Gender.IsValid() {
		errs = append(errs, "gender must be one of male, female, other")
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

func validateUpdateCommand(cmd *patient.UpdatePatientCommand) error {
	var errs []string

	if cmd.Name != nil && *cmd.Name == "" {
		errs = append(errs, "name cannot be empty")
	}
	if cmd.Phone != nil && *cmd.Phone == "" {
		errs = append(errs, "phone cannot be empty")
	}
	if cmd.Age != nil {
		if msg := checkAge(*cmd.Age); msg != "" {
			errs = append(errs, msg)
		}
	}
	if cmd.Gender != nil && !cmd.Gender.IsValid() {
		errs = append(errs, "gender must be one of male, female, other")
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

func checkAge(age int) string {
	if age < patient.MinAge || age > patient.MaxAge {
		return fmt.Sprintf("age must be between %d and %d", patient.MinAge, patient.MaxAge)
	}
	return ""
}
