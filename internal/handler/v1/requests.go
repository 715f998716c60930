package v1

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bobos12/eyeclinic/internal/domain"
	"github.com/bobos12/eyeclinic/internal/domain/patient"
	"github.com/bobos12/eyeclinic/internal/domain/visit"
	"github.com/google/uuid"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type registerRequest struct {
	Name     string      `json:"name" binding:"required"`
	Email    string      `json:"email" binding:"required"`
	Password string      `json:"password" binding:"required"`
	Phone    string      `json:"phone"`
	Role     domain.Role `json:"role"`
}

func (r *registerRequest) command() *domain.RegisterUserCommand {
	return &domain.RegisterUserCommand{
		Name:     r.Name,
		Email:    r.Email,
		Password: r.Password,
		Phone:    r.Phone,
		Role:     r.Role,
	}
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

type updateUserRequest struct {
	Name     *string      `json:"name"`
	Phone    *string      `json:"phone"`
	Role     *domain.Role `json:"role"`
	IsActive *bool        `json:"isActive"`
}

func (r *updateUserRequest) command() *domain.UpdateUserCommand {
	return &domain.UpdateUserCommand{Name: r.Name, Phone: r.Phone, Role: r.Role, IsActive: r.IsActive}
}

type createPatientRequest struct {
	Name   string         `json:"name" binding:"required"`
	Phone  string         `json:"phone" binding:"required"`
	Age    *int           `json:"age" binding:"required"`
	Gender patient.Gender `json:"gender"`
}

func (r *createPatientRequest) command() *patient.CreatePatientCommand {
	return &patient.CreatePatientCommand{Name: r.Name, Phone: r.Phone, Age: r.Age, Gender: r.Gender}
}

// updatePatientRequest has no code field, so a code in the body is ignored.
type updatePatientRequest struct {
	Name   *string         `json:"name"`
	Phone  *string         `json:"phone"`
	Age    *int            `json:"age"`
	Gender *patient.Gender `json:"gender"`
}

func (r *updatePatientRequest) command() *patient.UpdatePatientCommand {
	return &patient.UpdatePatientCommand{Name: r.Name, Phone: r.Phone, Age: r.Age, Gender: r.Gender}
}

// visitRequest is shared by create and update. Absent keys stay nil.
type visitRequest struct {
	PatientID       *reference      `json:"patientId"`
	VisitDate       optionalDate    `json:"visitDate"`
	Complaint       *visit.History  `json:"complaint"`
	MedicalHistory  *visit.History  `json:"medicalHistory"`
	SurgicalHistory *visit.History  `json:"surgicalHistory"`
	EyeExam         *visit.EyeExam  `json:"eyeExam"`
	Recommendations *string         `json:"recommendations"`
	FollowUp        *visit.Duration `json:"followUp"`
	FollowUpDate    optionalDate    `json:"followUpDate"`
}

func (r *visitRequest) createCommand() *visit.CreateVisitCommand {
	cmd := &visit.CreateVisitCommand{
		VisitDate:    r.VisitDate.Value,
		EyeExam:      r.EyeExam,
		FollowUp:     r.FollowUp,
		FollowUpDate: r.FollowUpDate.Value,
	}
	if r.PatientID != nil {
		cmd.PatientID = r.PatientID.ID
	}
	if r.Complaint != nil {
		cmd.Complaint = *r.Complaint
	}
	if r.MedicalHistory != nil {
		cmd.MedicalHistory = *r.MedicalHistory
	}
	if r.SurgicalHistory != nil {
		cmd.SurgicalHistory = *r.SurgicalHistory
	}
	if r.Recommendations != nil {
		cmd.Recommendations = *r.Recommendations
	}
	return cmd
}

func (r *visitRequest) updateCommand() *visit.UpdateVisitCommand {
	cmd := &visit.UpdateVisitCommand{
		VisitDate:       r.VisitDate.Value,
		Complaint:       r.Complaint,
		MedicalHistory:  r.MedicalHistory,
		SurgicalHistory: r.SurgicalHistory,
		EyeExam:         r.EyeExam,
		Recommendations: r.Recommendations,
		FollowUp:        r.FollowUp,
		FollowUpDate:    r.FollowUpDate.Value,
	}
	if r.PatientID != nil {
		id := r.PatientID.ID
		cmd.PatientID = &id
	}
	if r.FollowUpDate.Set && r.FollowUpDate.Value == nil {
		cmd.ClearFollowUpDate = true
	}
	return cmd
}

// reference is a patient id sent either as a string or as the expanded
// summary object returned by reads. An empty string yields uuid.Nil.
type reference struct {
	ID uuid.UUID
}

func (r *reference) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	var raw string
	if len(data) > 0 && data[0] == '{' {
		var obj struct {
			ID    string `json:"id"`
			OldID string `json:"_id"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		raw = obj.ID
		if raw == "" {
			raw = obj.OldID
		}
	} else if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("patientId must be a string")
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return fmt.Errorf("patientId must be a valid UUID")
	}
	r.ID = id
	return nil
}

// optionalDate accepts a calendar date, an RFC 3339 timestamp, an empty
// string or null. Set records whether the key was present at all.
type optionalDate struct {
	Set   bool
	Value *time.Time
}

func (d *optionalDate) UnmarshalJSON(data []byte) error {
	d.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("dates must be strings")
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			d.Value = &t
			return nil
		}
	}
	return fmt.Errorf("invalid date %q: use YYYY-MM-DD or RFC 3339", raw)
}
