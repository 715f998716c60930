package v1

import (
	"context"

	"github.com/bobos12/eyeclinic/internal/domain"
	"github.com/bobos12/eyeclinic/internal/domain/patient"
	"github.com/bobos12/eyeclinic/internal/domain/visit"
	"github.com/bobos12/eyeclinic/internal/service"
	"github.com/google/uuid"
)

// The handlers depend on these narrow views of the service layer.

type AuthService interface {
	Login(ctx context.Context, email, password, ip string) (*service.LoginResult, error)
	ResolveSession(ctx context.Context, token string) (*domain.User, error)
	Register(ctx context.Context, cmd *domain.RegisterUserCommand, caller service.Caller) (*domain.User, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error
}

type UserService interface {
	ListUsers(ctx context.Context, caller service.Caller) ([]*domain.User, error)
	GetUser(ctx context.Context, id uuid.UUID, caller service.Caller) (*domain.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, cmd *domain.UpdateUserCommand, caller service.Caller) (*domain.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID, caller service.Caller) error
}

type PatientService interface {
	CreatePatient(ctx context.Context, cmd *patient.CreatePatientCommand, caller service.Caller) (*patient.Patient, error)
	GetPatient(ctx context.Context, id uuid.UUID, caller service.Caller) (*patient.Patient, error)
	GetPatientWithVisits(ctx context.Context, id uuid.UUID, caller service.Caller) (*service.PatientWithVisits, error)
	ListPatients(ctx context.Context, caller service.Caller) ([]*patient.Patient, error)
	SearchPatients(ctx context.Context, name string, caller service.Caller) ([]*patient.Patient, error)
	UpdatePatient(ctx context.Context, id uuid.UUID, cmd *patient.UpdatePatientCommand, caller service.Caller) (*patient.Patient, error)
	DeletePatient(ctx context.Context, id uuid.UUID, caller service.Caller) error
}

type VisitService interface {
	CreateVisit(ctx context.Context, cmd *visit.CreateVisitCommand, caller service.Caller) (*visit.View, error)
	GetVisit(ctx context.Context, id uuid.UUID, caller service.Caller) (*visit.View, error)
	ListVisits(ctx context.Context, q *visit.ListVisitsQuery, caller service.Caller) ([]*visit.View, error)
	UpdateVisit(ctx context.Context, id uuid.UUID, cmd *visit.UpdateVisitCommand, caller service.Caller) (*visit.View, error)
	DeleteVisit(ctx context.Context, id uuid.UUID, caller service.Caller) error
}

// HealthCheck reports whether the database is reachable.
type HealthCheck func(ctx context.Context) error

type Services struct {
	Auth     AuthService
	Users    UserService
	Patients PatientService
	Visits   VisitService
	Health   HealthCheck
}
