package service

import (
	"errors"
	"strings"

	"github.com/bobos12/eyeclinic/internal/domain"
	"github.com/bobos12/eyeclinic/internal/domain/patient"
	"github.com/bobos12/eyeclinic/pkg/auth"
	"github.com/google/uuid"
)

var (
	ErrForbidden       = auth.ErrForbidden
	ErrUnauthenticated = errors.New("not authorized, please log in")
)

type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, "; ")
}

func validationError(fields ...string) error {
	return &ValidationError{Fields: fields}
}

// PatientConflictError is returned when a phone number already belongs to
// another patient. It matches patient.ErrPatientAlreadyExists.
type PatientConflictError struct {
	Existing patient.Summary
}

func (e *PatientConflictError) Error() string {
	return patient.ErrPatientAlreadyExists.Error()
}

func (e *PatientConflictError) Unwrap() error {
	return patient.ErrPatientAlreadyExists
}

// Caller identifies the authenticated staff member behind a request.
type Caller struct {
	UserID    uuid.UUID
	Role      domain.Role
	IP        string
	RequestID string
}

// NewCaller returns an anonymous caller when u is nil.
func NewCaller(u *domain.User, ip, requestID string) Caller {
	c := Caller{IP: ip, RequestID: requestID}
	if u != nil {
		c.UserID, c.Role = u.ID, u.Role
	}
	return c
}

func (c Caller) authorize(op auth.Operation) error {
	if c.Role == "" {
		return ErrUnauthenticated
	}
	return auth.Authorize(c.Role, op)
}

type AuditEntry struct {
	UserID       uuid.UUID
	UserRole     domain.Role
	Action       domain.AuditAction
	ResourceType string
	ResourceID   string
	IPAddress    string
	RequestID    string
	StatusCode   int
	// Changes is marshalled to JSON; nil is stored as an empty object.
	Changes any
}

func (c Caller) audit(action domain.AuditAction, resourceType, resourceID string, changes any) AuditEntry {
	return AuditEntry{
		UserID:       c.UserID,
		UserRole:     c.Role,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    c.IP,
		RequestID:    c.RequestID,
		Changes:      changes,
	}
}
