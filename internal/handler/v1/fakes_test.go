package v1

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bobos12/eyeclinic/internal/config"
	"github.com/bobos12/eyeclinic/internal/domain"
	"github.com/bobos12/eyeclinic/internal/domain/patient"
	"github.com/bobos12/eyeclinic/internal/domain/visit"
	"github.com/bobos12/eyeclinic/internal/service"
	"github.com/bobos12/eyeclinic/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// fakeAuth accepts the tokens "admin", "doctor" and "assistant" as sessions
// for users of that role.
type fakeAuth struct {
	users map[string]*domain.User

	loginErr error
}

func newFakeAuth() *fakeAuth {
	users := make(map[string]*domain.User)
	for _, r := range domain.Roles() {
		users[string(r)] = &domain.User{
			ID:       uuid.New(),
			Name:     "Test " + string(r),
			Email:    string(r) + "@clinic.test",
			Role:     r,
			IsActive: true,
		}
	}
	return &fakeAuth{users: users}
}

func (f *fakeAuth) Login(_ context.Context, email, _, _ string) (*service.LoginResult, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	u := f.users["doctor"]
	return &service.LoginResult{Token: "doctor", ExpiresAt: time.Now().Add(15 * time.Minute), UserSummary: u.Summary()}, nil
}

func (f *fakeAuth) ResolveSession(_ context.Context, token string) (*domain.User, error) {
	switch token {
	case "":
		return nil, fmt.Errorf("%w: %w", service.ErrUnauthenticated, service.ErrNoToken)
	case "inactive":
		return nil, fmt.Errorf("%w: %w", service.ErrUnauthenticated, service.ErrSessionUserBlocked)
	case "deleted":
		return nil, fmt.Errorf("%w: %w", service.ErrUnauthenticated, service.ErrSessionUserMissing)
	}
	if u, ok := f.users[token]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("%w: %w", service.ErrUnauthenticated, service.ErrInvalidToken)
}

func (f *fakeAuth) Register(_ context.Context, cmd *domain.RegisterUserCommand, _ service.Caller) (*domain.User, error) {
	return &domain.User{ID: uuid.New(), Name: cmd.Name, Email: cmd.Email, Role: cmd.Role, PasswordHash: "secret-hash", IsActive: true}, nil
}

func (f *fakeAuth) ChangePassword(context.Context, uuid.UUID, string, string) error {
	return nil
}

type fakeUsers struct{}

func (fakeUsers) ListUsers(context.Context, service.Caller) ([]*domain.User, error) {
	return []*domain.User{}, nil
}

func (fakeUsers) GetUser(_ context.Context, id uuid.UUID, _ service.Caller) (*domain.User, error) {
	return &domain.User{ID: id}, nil
}

func (fakeUsers) UpdateUser(_ context.Context, id uuid.UUID, _ *domain.UpdateUserCommand, _ service.Caller) (*domain.User, error) {
	return &domain.User{ID: id}, nil
}

func (fakeUsers) DeleteUser(context.Context, uuid.UUID, service.Caller) error {
	return nil
}

// fakePatients records the last command it received; err, when set, is
// returned by every call.
type fakePatients struct {
	mu         sync.Mutex
	lastCreate *patient.CreatePatientCommand
	lastUpdate *patient.UpdatePatientCommand
	err        error
}

func (f *fakePatients) CreatePatient(_ context.Context, cmd *patient.CreatePatientCommand, _ service.Caller) (*patient.Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastCreate = cmd
	if f.err != nil {
		return nil, f.err
	}
	return &patient.Patient{ID: uuid.New(), Code: "P000001", Name: cmd.Name, Phone: cmd.Phone}, nil
}

func (f *fakePatients) GetPatient(_ context.Context, id uuid.UUID, _ service.Caller) (*patient.Patient, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &patient.Patient{ID: id, Code: "P000001"}, nil
}

func (f *fakePatients) GetPatientWithVisits(_ context.Context, id uuid.UUID, _ service.Caller) (*service.PatientWithVisits, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &service.PatientWithVisits{Patient: &patient.Patient{ID: id}, Visits: []*visit.View{}}, nil
}

func (f *fakePatients) ListPatients(context.Context, service.Caller) ([]*patient.Patient, error) {
	return []*patient.Patient{}, f.err
}

func (f *fakePatients) SearchPatients(_ context.Context, name string, _ service.Caller) ([]*patient.Patient, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []*patient.Patient{{ID: uuid.New(), Name: name}}, nil
}

func (f *fakePatients) UpdatePatient(_ context.Context, id uuid.UUID, cmd *patient.UpdatePatientCommand, _ service.Caller) (*patient.Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastUpdate = cmd
	if f.err != nil {
		return nil, f.err
	}
	return &patient.Patient{ID: id, Code: "P000001"}, nil
}

func (f *fakePatients) DeletePatient(context.Context, uuid.UUID, service.Caller) error {
	return f.err
}

type fakeVisits struct {
	mu         sync.Mutex
	lastCreate *visit.CreateVisitCommand
	lastUpdate *visit.UpdateVisitCommand
	lastQuery  *visit.ListVisitsQuery
	lastCaller service.Caller
	err        error
}

func (f *fakeVisits) CreateVisit(_ context.Context, cmd *visit.CreateVisitCommand, caller service.Caller) (*visit.View, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastCreate, f.lastCaller = cmd, caller
	if f.err != nil {
		return nil, f.err
	}
	return &visit.View{ID: uuid.New(), PatientID: cmd.PatientID, DoctorID: caller.UserID}, nil
}

func (f *fakeVisits) GetVisit(_ context.Context, id uuid.UUID, _ service.Caller) (*visit.View, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &visit.View{ID: id}, nil
}

func (f *fakeVisits) ListVisits(_ context.Context, q *visit.ListVisitsQuery, _ service.Caller) ([]*visit.View, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = q
	return []*visit.View{}, f.err
}

func (f *fakeVisits) UpdateVisit(_ context.Context, id uuid.UUID, cmd *visit.UpdateVisitCommand, _ service.Caller) (*visit.View, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastUpdate = cmd
	if f.err != nil {
		return nil, f.err
	}
	return &visit.View{ID: id}, nil
}

func (f *fakeVisits) DeleteVisit(context.Context, uuid.UUID, service.Caller) error {
	return f.err
}

type testServer struct {
	router   *gin.Engine
	auth     *fakeAuth
	patients *fakePatients
	visits   *fakeVisits
	metrics  *metrics.Collector
	dbErr    error
}

func testConfig() *config.Config {
	return &config.Config{
		App:    config.AppConfig{Name: "eyeclinic-test", Environment: "test"},
		Server: config.ServerConfig{RequestTimeout: 5 * time.Second},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"http://localhost:5173"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			MaxAge:         time.Hour,
		},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 1000, BurstSize: 1000, AuthRequestsPerMinute: 1000},
		Tracing:   config.TracingConfig{ServiceName: "eyeclinic-test"},
	}
}

func newTestServer() *testServer {
	gin.SetMode(gin.TestMode)
	ts := &testServer{
		auth:     newFakeAuth(),
		patients: &fakePatients{},
		visits:   &fakeVisits{},
		metrics:  metrics.NewCollector("eyeclinic_test", prometheus.NewRegistry()),
	}
	ts.router = NewRouter(testConfig(), Services{
		Auth:     ts.auth,
		Users:    fakeUsers{},
		Patients: ts.patients,
		Visits:   ts.visits,
		Health:   func(context.Context) error { return ts.dbErr },
	}, ts.metrics, zap.NewNop())
	return ts
}
