// Package wizard models the six-step visit entry form as an immutable state
// value. Every transition and edit returns a new State and leaves the
// receiver untouched; Submit is the only operation with side effects.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bobos12/eyeclinic/internal/domain/visit"
	"github.com/google/uuid"
)

type Step int

const (
	StepPatient Step = iota + 1
	StepHistory
	StepVisualAcuity
	StepPrescription
	StepExamination
	StepTreatment
)

const (
	FirstStep = StepPatient
	LastStep  = StepTreatment
)

var stepTitles = map[Step]string{
	StepPatient:      "Patient Information",
	StepHistory:      "Patient History",
	StepVisualAcuity: "Visual Acuity",
	StepPrescription: "Prescription",
	StepExamination:  "Eye Examination",
	StepTreatment:    "Treatment",
}

func (s Step) String() string {
	if t, ok := stepTitles[s]; ok {
		return t
	}
	return fmt.Sprintf("Step(%d)", int(s))
}

func (s Step) IsValid() bool {
	return s >= FirstStep && s <= LastStep
}

// Steps lists the steps in order.
func Steps() []Step {
	return []Step{StepPatient, StepHistory, StepVisualAcuity, StepPrescription, StepExamination, StepTreatment}
}

// HistorySection names one of the three history maps of a visit.
type HistorySection string

const (
	SectionComplaint       HistorySection = "complaint"
	SectionMedicalHistory  HistorySection = "medicalHistory"
	SectionSurgicalHistory HistorySection = "surgicalHistory"
)

// PrescriptionSection names one of the lens prescriptions of the exam.
type PrescriptionSection string

const (
	OldGlasses      PrescriptionSection = "oldGlasses"
	Refraction      PrescriptionSection = "refraction"
	NewPrescription PrescriptionSection = "newPrescription"
)

var (
	ErrUnknownSection = errors.New("unknown form section")
	ErrInvalidEye     = errors.New("eye must be OD or OS")
)

// Form is the data collected across all steps.
type Form struct {
	PatientID       uuid.UUID
	Complaint       visit.History
	MedicalHistory  visit.History
	SurgicalHistory visit.History
	EyeExam         visit.EyeExam
	Recommendations string
	FollowUp        *visit.Duration
	FollowUpDate    *time.Time
}

// State is the wizard at one point in time.
type State struct {
	Current Step
	Form    Form
}

// New starts a wizard on the first step. patientID may be uuid.Nil when the
// patient is picked later.
func New(patientID uuid.UUID) State {
	return State{
		Current: FirstStep,
		Form: Form{
			PatientID:       patientID,
			Complaint:       visit.History{},
			MedicalHistory:  visit.History{},
			SurgicalHistory: visit.History{},
		},
	}
}

func (s State) IsFirst() bool { return s.Current == FirstStep }
func (s State) IsLast() bool  { return s.Current == LastStep }

// Next moves forward one step; on the last step it stays put.
func (s State) Next() State {
	if s.Current < LastStep {
		s.Current++
	}
	return s
}

// Previous moves back one step; on the first step it stays put.
func (s State) Previous() State {
	if s.Current > FirstStep {
		s.Current--
	}
	return s
}

// JumpTo moves to any step. Steps outside the wizard are ignored.
func (s State) JumpTo(step Step) State {
	if step.IsValid() {
		s.Current = step
	}
	return s
}

func (s State) SetPatient(id uuid.UUID) State {
	s.Form = s.Form.clone()
	s.Form.PatientID = id
	return s
}

// ToggleHistory selects label in section with an empty entry affecting both
// eyes, or removes it when already selected.
func (s State) ToggleHistory(section HistorySection, label string) (State, error) {
	s.Form = s.Form.clone()
	h, err := s.Form.history(section)
	if err != nil {
		return s, err
	}
	if _, ok := h[label]; ok {
		delete(h, label)
	} else {
		h[label] = visit.HistoryEntry{Eye: visit.EyeBoth}
	}
	return s, nil
}

// SetHistory records entry for label in section, selecting it if needed.
func (s State) SetHistory(section HistorySection, label string, entry visit.HistoryEntry) (State, error) {
	s.Form = s.Form.clone()
	h, err := s.Form.history(section)
	if err != nil {
		return s, err
	}
	if entry.Eye == "" {
		entry.Eye = visit.EyeBoth
	}
	h[label] = entry
	return s, nil
}

func (s State) SetVisualAcuity(eye visit.Eye, value string) (State, error) {
	if !eye.IsValid() {
		return s, ErrInvalidEye
	}
	s.Form = s.Form.clone()
	if s.Form.EyeExam.VisualAcuity == nil {
		s.Form.EyeExam.VisualAcuity = &visit.PerEye[string]{}
	}
	*s.Form.EyeExam.VisualAcuity.Get(eye) = value
	return s, nil
}

func (s State) SetLens(section PrescriptionSection, eye visit.Eye, lens visit.Lens) (State, error) {
	if !eye.IsValid() {
		return s, ErrInvalidEye
	}
	s.Form = s.Form.clone()
	p, err := s.Form.prescription(section)
	if err != nil {
		return s, err
	}
	*p.Get(eye) = lens
	return s, nil
}

// CopyPrescriptionToOtherEye copies the lens recorded for from onto the
// opposite eye of the same section.
func (s State) CopyPrescriptionToOtherEye(section PrescriptionSection, from visit.Eye) (State, error) {
	if !from.IsValid() {
		return s, ErrInvalidEye
	}
	s.Form = s.Form.clone()
	p, err := s.Form.prescription(section)
	if err != nil {
		return s, err
	}
	*p.Get(from.Other()) = *p.Get(from)
	return s, nil
}

func (s State) SetIOP(eye visit.Eye, value visit.Number) (State, error) {
	if !eye.IsValid() {
		return s, ErrInvalidEye
	}
	s.Form = s.Form.clone()
	if s.Form.EyeExam.IOP == nil {
		s.Form.EyeExam.IOP = &visit.PerEye[visit.Number]{}
	}
	*s.Form.EyeExam.IOP.Get(eye) = value
	return s, nil
}

// ToggleFinding selects or deselects option for one eye of an examination
// finding.
func (s State) ToggleFinding(field visit.FindingField, eye visit.Eye, option string) (State, error) {
	if !eye.IsValid() {
		return s, ErrInvalidEye
	}
	s.Form = s.Form.clone()
	f, err := s.Form.EyeExam.Finding(field)
	if err != nil {
		return s, err
	}
	f.Get(eye).Toggle(option)
	return s, nil
}

func (s State) SetFindingOther(field visit.FindingField, eye visit.Eye, text string) (State, error) {
	if !eye.IsValid() {
		return s, ErrInvalidEye
	}
	s.Form = s.Form.clone()
	f, err := s.Form.EyeExam.Finding(field)
	if err != nil {
		return s, err
	}
	f.Get(eye).Other = text
	return s, nil
}

func (s State) SetOthers(eye visit.Eye, text string) (State, error) {
	if !eye.IsValid() {
		return s, ErrInvalidEye
	}
	s.Form = s.Form.clone()
	if s.Form.EyeExam.Others == nil {
		s.Form.EyeExam.Others = &visit.PerEye[string]{}
	}
	*s.Form.EyeExam.Others.Get(eye) = text
	return s, nil
}

// SetTreatment records the closing step. A nil followUp or followUpDate
// clears the field.
func (s State) SetTreatment(recommendations string, followUp *visit.Duration, followUpDate *time.Time) State {
	s.Form = s.Form.clone()
	s.Form.Recommendations = recommendations
	s.Form.FollowUp = nil
	if followUp != nil && !followUp.IsZero() {
		d := *followUp
		s.Form.FollowUp = &d
	}
	s.Form.FollowUpDate = nil
	if followUpDate != nil {
		t := *followUpDate
		s.Form.FollowUpDate = &t
	}
	return s
}

// Problem is a validation failure and the step where it can be fixed.
type Problem struct {
	Step    Step
	Message string
}

// Validate checks the form the same way the server will.
func (s State) Validate(limits visit.Limits) []Problem {
	var out []Problem
	if s.Form.PatientID == uuid.Nil {
		out = append(out, Problem{StepPatient, "Please select a patient"})
	}

	history := append(s.Form.Complaint.Problems(string(SectionComplaint)), s.Form.MedicalHistory.Problems(string(SectionMedicalHistory))...)
	history = append(history, s.Form.SurgicalHistory.Problems(string(SectionSurgicalHistory))...)
	for _, msg := range history {
		out = append(out, Problem{StepHistory, msg})
	}

	exam := s.Form.EyeExam
	for _, msg := range exam.Problems(limits) {
		out = append(out, Problem{StepExamination, msg})
	}

	if s.Form.FollowUp != nil {
		for _, msg := range s.Form.FollowUp.Problems("followUp") {
			out = append(out, Problem{StepTreatment, msg})
		}
	}
	return out
}

// ValidationError lists every problem found before submission.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		msgs = append(msgs, p.Message)
	}
	return "visit form is incomplete: " + strings.Join(msgs, "; ")
}

// Submitter stores a finished visit. *client.Client satisfies it.
type Submitter interface {
	CreateVisit(ctx context.Context, cmd *visit.CreateVisitCommand) (*visit.View, error)
}

// Submit validates the form and sends it once. On a validation failure
// nothing is sent and the returned state sits on the step of the first
// problem.
func (s State) Submit(ctx context.Context, sub Submitter, limits visit.Limits) (*visit.View, State, error) {
	if problems := s.Validate(limits); len(problems) > 0 {
		return nil, s.JumpTo(problems[0].Step), &ValidationError{Problems: problems}
	}

	v, err := sub.CreateVisit(ctx, s.Form.command())
	if err != nil {
		return nil, s, fmt.Errorf("submitting visit: %w", err)
	}
	return v, s, nil
}

func (f Form) command() *visit.CreateVisitCommand {
	c := f.clone()
	cmd := &visit.CreateVisitCommand{
		PatientID:       c.PatientID,
		Complaint:       c.Complaint,
		MedicalHistory:  c.MedicalHistory,
		SurgicalHistory: c.SurgicalHistory,
		Recommendations: strings.TrimSpace(c.Recommendations),
		FollowUp:        c.FollowUp,
		FollowUpDate:    c.FollowUpDate,
	}
	if c.EyeExam != (visit.EyeExam{}) {
		cmd.EyeExam = &c.EyeExam
	}
	return cmd
}

func (f *Form) history(section HistorySection) (visit.History, error) {
	switch section {
	case SectionComplaint:
		return f.Complaint, nil
	case SectionMedicalHistory:
		return f.MedicalHistory, nil
	case SectionSurgicalHistory:
		return f.SurgicalHistory, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSection, section)
}

func (f *Form) prescription(section PrescriptionSection) (*visit.PerEye[visit.Lens], error) {
	var slot **visit.PerEye[visit.Lens]
	switch section {
	case OldGlasses:
		slot = &f.EyeExam.OldGlasses
	case Refraction:
		slot = &f.EyeExam.Refraction
	case NewPrescription:
		slot = &f.EyeExam.NewPrescription
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSection, section)
	}
	if *slot == nil {
		*slot = &visit.PerEye[visit.Lens]{}
	}
	return *slot, nil
}
