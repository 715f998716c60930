package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bobos12/eyeclinic/internal/domain"
	"github.com/bobos12/eyeclinic/internal/domain/patient"
	"github.com/bobos12/eyeclinic/internal/domain/visit"
	"github.com/bobos12/eyeclinic/internal/wizard"
	"github.com/google/uuid"
)

var _ wizard.Submitter = (*Client)(nil)

type recorded struct {
	method string
	path   string
	query  string
	auth   string
	body   map[string]any
}

// newServer answers every request with status and payload and records what
// it received.
func newServer(t *testing.T, status int, payload string) (*httptest.Server, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.EscapedPath()
		rec.query = r.URL.RawQuery
		rec.auth = r.Header.Get("Authorization")
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			if err := json.Unmarshal(data, &rec.body); err != nil {
				t.Errorf("request body is not JSON: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestLoginStoresToken(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, `{"token":"tok-1","expiresAt":"2026-01-01T00:00:00Z","id":"6f1c2a8e-1b7d-4c2f-9a51-3e2d7c9b0a14","name":"Admin","email":"a@clinic.test","role":"admin"}`)
	c := New(srv.URL + "/api/")

	res, err := c.Login(context.Background(), "a@clinic.test", "secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Name != "Admin" || res.Role != domain.RoleAdmin || c.Token() != "tok-1" || !c.LoggedIn() {
		t.Errorf("session not stored: %+v token=%q", res, c.Token())
	}
	if rec.method != http.MethodPost || rec.path != "/api/auth/login" {
		t.Errorf("unexpected request %s %s", rec.method, rec.path)
	}
	if rec.body["email"] != "a@clinic.test" || rec.auth != "" {
		t.Errorf("unexpected login request: %+v auth=%q", rec.body, rec.auth)
	}

	if _, err := c.Me(context.Background()); err != nil {
		t.Fatal(err)
	}
	if rec.auth != "Bearer tok-1" {
		t.Errorf("expected bearer token, got %q", rec.auth)
	}

	c.Logout()
	if c.LoggedIn() {
		t.Error("logout should forget the token")
	}
}

func TestAPIError(t *testing.T) {
	srv, _ := newServer(t, http.StatusBadRequest, `{"message":"validation failed","errors":["age: must be between 0 and 150"]}`)
	c := New(srv.URL, WithToken("t"))

	_, err := c.CreatePatient(context.Background(), &patient.CreatePatientCommand{Name: "A"})
	if !IsStatus(err, http.StatusBadRequest) {
		t.Fatalf("expected 400 APIError, got %v", err)
	}
	apiErr := err.(*APIError)
	if apiErr.Message != "validation failed" || len(apiErr.Errors) != 1 {
		t.Errorf("unexpected error body: %+v", apiErr)
	}

	srv2, _ := newServer(t, http.StatusBadGateway, `<html>bad gateway</html>`)
	_, err = New(srv2.URL).ListPatients(context.Background())
	if !IsStatus(err, http.StatusBadGateway) || err.(*APIError).Message != "Bad Gateway" {
		t.Errorf("expected status text fallback, got %v", err)
	}
}

func TestSearchPatients_EscapesName(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, `{"count":1,"patients":[{"name":"Ann Lee","code":"P-0001"}]}`)
	c := New(srv.URL)

	got, err := c.SearchPatients(context.Background(), "Ann Lee")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Code != "P-0001" {
		t.Errorf("unexpected result: %+v", got)
	}
	if rec.path != "/patients/search/Ann%20Lee" {
		t.Errorf("name not escaped: %s", rec.path)
	}
}

func TestCreateVisit_Body(t *testing.T) {
	pid := uuid.New()
	srv, rec := newServer(t, http.StatusCreated, `{"message":"Visit created successfully","visit":{"id":"`+uuid.NewString()+`","recommendations":"rest"}}`)
	c := New(srv.URL, WithToken("t"))

	follow := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	v, err := c.CreateVisit(context.Background(), &visit.CreateVisitCommand{
		PatientID:       pid,
		DoctorID:        uuid.New(),
		Complaint:       visit.History{"Redness": {Eye: visit.EyeBoth}},
		Recommendations: "rest",
		FollowUpDate:    &follow,
	})
	if err != nil {
		t.Fatal(err)
	}
	if v.Recommendations != "rest" {
		t.Errorf("visit not decoded: %+v", v)
	}
	if rec.body["patientId"] != pid.String() {
		t.Errorf("patientId = %v", rec.body["patientId"])
	}
	if _, ok := rec.body["doctorId"]; ok {
		t.Error("author must not be sent")
	}
	if _, ok := rec.body["eyeExam"]; ok {
		t.Error("empty exam should be omitted")
	}
	if _, ok := rec.body["complaint"].(map[string]any)["Redness"]; !ok {
		t.Errorf("complaint missing: %+v", rec.body)
	}
}

func TestUpdateVisit_ClearFollowUpDate(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, `{"message":"Visit updated successfully","visit":{}}`)
	c := New(srv.URL)
	rec2 := "again"

	_, err := c.UpdateVisit(context.Background(), uuid.New(), &visit.UpdateVisitCommand{
		Recommendations:   &rec2,
		ClearFollowUpDate: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	v, ok := rec.body["followUpDate"]
	if !ok || v != nil {
		t.Errorf("expected explicit null followUpDate, got %v (present=%v)", v, ok)
	}
	if len(rec.body) != 2 {
		t.Errorf("unset fields should not be sent: %+v", rec.body)
	}
}

func TestListVisits_PatientFilter(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, `[]`)
	c := New(srv.URL)

	pid := uuid.New()
	if _, err := c.ListVisits(context.Background(), &pid); err != nil {
		t.Fatal(err)
	}
	if rec.query != "patientId="+pid.String() {
		t.Errorf("unexpected query %q", rec.query)
	}

	if _, err := c.ListVisits(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if rec.query != "" {
		t.Errorf("expected no filter, got %q", rec.query)
	}
}

func TestDeletePatient(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, `{"message":"Patient deleted successfully"}`)
	id := uuid.New()
	if err := New(srv.URL).DeletePatient(context.Background(), id); err != nil {
		t.Fatal(err)
	}
	if rec.method != http.MethodDelete || rec.path != "/patients/"+id.String() {
		t.Errorf("unexpected request %s %s", rec.method, rec.path)
	}
}
