package client

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/bobos12/eyeclinic/internal/domain"
	"github.com/bobos12/eyeclinic/internal/domain/patient"
	"github.com/bobos12/eyeclinic/internal/domain/visit"
	"github.com/bobos12/eyeclinic/internal/service"
	"github.com/google/uuid"
)

// Login opens a session and keeps its token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*service.LoginResult, error) {
	var res service.LoginResult
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &res); err != nil {
		return nil, err
	}
	c.SetToken(res.Token)
	return &res, nil
}

// Me returns the user behind the current session.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var u domain.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]*domain.User, error) {
	var users []*domain.User
	if err := c.do(ctx, http.MethodGet, "/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) ListPatients(ctx context.Context) ([]*patient.Patient, error) {
	var out []*patient.Patient
	if err := c.do(ctx, http.MethodGet, "/patients", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetPatient(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	var p patient.Patient
	if err := c.do(ctx, http.MethodGet, "/patients/"+id.String(), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// SearchPatients matches name against patient names. No match is a 404
// APIError.
func (c *Client) SearchPatients(ctx context.Context, name string) ([]*patient.Patient, error) {
	var res struct {
		Count    int                `json:"count"`
		Patients []*patient.Patient `json:"patients"`
	}
	if err := c.do(ctx, http.MethodGet, "/patients/search/"+url.PathEscape(name), nil, &res); err != nil {
		return nil, err
	}
	return res.Patients, nil
}

func (c *Client) GetPatientWithVisits(ctx context.Context, id uuid.UUID) (*service.PatientWithVisits, error) {
	var res service.PatientWithVisits
	if err := c.do(ctx, http.MethodGet, "/patients/"+id.String()+"/visits", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

type patientBody struct {
	Name   *string         `json:"name,omitempty"`
	Phone  *string         `json:"phone,omitempty"`
	Age    *int            `json:"age,omitempty"`
	Gender *patient.Gender `json:"gender,omitempty"`
}

func (c *Client) CreatePatient(ctx context.Context, cmd *patient.CreatePatientCommand) (*patient.Patient, error) {
	body := patientBody{Name: &cmd.Name, Phone: &cmd.Phone, Age: cmd.Age}
	if cmd.Gender != "" {
		body.Gender = &cmd.Gender
	}
	var res struct {
		Patient *patient.Patient `json:"patient"`
	}
	if err := c.do(ctx, http.MethodPost, "/patients", body, &res); err != nil {
		return nil, err
	}
	return res.Patient, nil
}

func (c *Client) UpdatePatient(ctx context.Context, id uuid.UUID, cmd *patient.UpdatePatientCommand) (*patient.Patient, error) {
	body := patientBody{Name: cmd.Name, Phone: cmd.Phone, Age: cmd.Age, Gender: cmd.Gender}
	var res struct {
		Patient *patient.Patient `json:"patient"`
	}
	if err := c.do(ctx, http.MethodPut, "/patients/"+id.String(), body, &res); err != nil {
		return nil, err
	}
	return res.Patient, nil
}

func (c *Client) DeletePatient(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/patients/"+id.String(), nil, &message{})
}

// ListVisits returns visits newest first, restricted to one patient when
// patientID is not nil.
func (c *Client) ListVisits(ctx context.Context, patientID *uuid.UUID) ([]*visit.View, error) {
	path := "/visits"
	if patientID != nil {
		path += "?" + url.Values{"patientId": {patientID.String()}}.Encode()
	}
	var out []*visit.View
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetVisit(ctx context.Context, id uuid.UUID) (*visit.View, error) {
	var v visit.View
	if err := c.do(ctx, http.MethodGet, "/visits/"+id.String(), nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

type createVisitBody struct {
	PatientID       uuid.UUID       `json:"patientId"`
	VisitDate       *time.Time      `json:"visitDate,omitempty"`
	Complaint       visit.History   `json:"complaint,omitempty"`
	MedicalHistory  visit.History   `json:"medicalHistory,omitempty"`
	SurgicalHistory visit.History   `json:"surgicalHistory,omitempty"`
	EyeExam         *visit.EyeExam  `json:"eyeExam,omitempty"`
	Recommendations string          `json:"recommendations,omitempty"`
	FollowUp        *visit.Duration `json:"followUp,omitempty"`
	FollowUpDate    *time.Time      `json:"followUpDate,omitempty"`
}

// CreateVisit records a visit. The author is the logged in user; any
// DoctorID on cmd is not sent.
func (c *Client) CreateVisit(ctx context.Context, cmd *visit.CreateVisitCommand) (*visit.View, error) {
	body := createVisitBody{
		PatientID:       cmd.PatientID,
		VisitDate:       cmd.VisitDate,
		Complaint:       cmd.Complaint,
		MedicalHistory:  cmd.MedicalHistory,
		SurgicalHistory: cmd.SurgicalHistory,
		EyeExam:         cmd.EyeExam,
		Recommendations: cmd.Recommendations,
		FollowUp:        cmd.FollowUp,
		FollowUpDate:    cmd.FollowUpDate,
	}
	var res struct {
		Visit *visit.View `json:"visit"`
	}
	if err := c.do(ctx, http.MethodPost, "/visits", body, &res); err != nil {
		return nil, err
	}
	return res.Visit, nil
}

// UpdateVisit sends only the fields set on cmd. ClearFollowUpDate sends an
// explicit null.
func (c *Client) UpdateVisit(ctx context.Context, id uuid.UUID, cmd *visit.UpdateVisitCommand) (*visit.View, error) {
	body := map[string]any{}
	if cmd.PatientID != nil {
		body["patientId"] = cmd.PatientID
	}
	if cmd.VisitDate != nil {
		body["visitDate"] = cmd.VisitDate
	}
	if cmd.Complaint != nil {
		body["complaint"] = cmd.Complaint
	}
	if cmd.MedicalHistory != nil {
		body["medicalHistory"] = cmd.MedicalHistory
	}
	if cmd.SurgicalHistory != nil {
		body["surgicalHistory"] = cmd.SurgicalHistory
	}
	if cmd.EyeExam != nil {
		body["eyeExam"] = cmd.EyeExam
	}
	if cmd.Recommendations != nil {
		body["recommendations"] = cmd.Recommendations
	}
	if cmd.FollowUp != nil {
		body["followUp"] = cmd.FollowUp
	}
	switch {
	case cmd.ClearFollowUpDate:
		body["followUpDate"] = nil
	case cmd.FollowUpDate != nil:
		body["followUpDate"] = cmd.FollowUpDate
	}

	var res struct {
		Visit *visit.View `json:"visit"`
	}
	if err := c.do(ctx, http.MethodPut, "/visits/"+id.String(), body, &res); err != nil {
		return nil, err
	}
	return res.Visit, nil
}

func (c *Client) DeleteVisit(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/visits/"+id.String(), nil, &message{})
}
