package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bobos12/eyeclinic/internal/config"
	"github.com/bobos12/eyeclinic/internal/domain"
	"github.com/bobos12/eyeclinic/internal/domain/patient"
	"github.com/bobos12/eyeclinic/internal/domain/visit"
	"github.com/bobos12/eyeclinic/pkg/auth"
	"github.com/bobos12/eyeclinic/pkg/metrics"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// -- users --

type mockUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (m *mockUserRepo) add(u *domain.User) *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	m.users[u.ID] = u
	return u
}

func (m *mockUserRepo) Create(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return domain.ErrEmailAlreadyExists
		}
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) List(_ context.Context) ([]*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.User, 0, len(m.users))
	for _, u := range m.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockUserRepo) Update(_ context.Context, id uuid.UUID, cmd *domain.UpdateUserCommand) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if cmd.Name != nil {
		u.Name = *cmd.Name
	}
	if cmd.Phone != nil {
		u.Phone = *cmd.Phone
	}
	if cmd.Role != nil {
		u.Role = *cmd.Role
	}
	if cmd.IsActive != nil {
		u.IsActive = *cmd.IsActive
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) UpdateLoginAttempt(_ context.Context, id uuid.UUID, success bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	if success {
		now := time.Now()
		u.FailedLoginCount = 0
		u.LockedUntil = nil
		u.LastLoginAt = &now
		return nil
	}
	u.FailedLoginCount++
	if u.FailedLoginCount >= domain.MaxFailedLogins {
		until := time.Now().Add(domain.LoginLockDuration)
		u.LockedUntil = &until
	}
	return nil
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

// -- patients --

type mockPatientRepo struct {
	mu       sync.Mutex
	seq      int64
	patients map[uuid.UUID]*patient.Patient
	visits   *mockVisitRepo
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{patients: make(map[uuid.UUID]*patient.Patient)}
}

func (m *mockPatientRepo) Create(_ context.Context, p *patient.Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	for _, existing := range m.patients {
		if existing.Phone == p.Phone && existing.IsActive() {
			return patient.ErrPatientAlreadyExists
		}
	}
	p.ID = uuid.New()
	p.Code = patient.FormatCode(m.seq)
	p.CreatedAt = time.Now()
	cp := *p
	m.patients[p.ID] = &cp
	return nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return nil, patient.ErrPatientNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockPatientRepo) FindByPhone(_ context.Context, phone string, excludeID *uuid.UUID) (*patient.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.patients {
		if p.Phone != phone || !p.IsActive() {
			continue
		}
		if excludeID != nil && p.ID == *excludeID {
			continue
		}
		cp := *p
		return &cp, nil
	}
	return nil, patient.ErrPatientNotFound
}

func (m *mockPatientRepo) List(_ context.Context) ([]*patient.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*patient.Patient, 0, len(m.patients))
	for _, p := range m.patients {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code > out[j].Code })
	return out, nil
}

func (m *mockPatientRepo) SearchByName(_ context.Context, fragment string) ([]*patient.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*patient.Patient
	for _, p := range m.patients {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(fragment)) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockPatientRepo) Update(_ context.Context, id uuid.UUID, cmd *patient.UpdatePatientCommand) (*patient.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return nil, patient.ErrPatientNotFound
	}
	if cmd.Name != nil {
		p.Name = *cmd.Name
	}
	if cmd.Phone != nil {
		p.Phone = *cmd.Phone
	}
	if cmd.Age != nil {
		p.Age = *cmd.Age
	}
	if cmd.Gender != nil {
		p.Gender = *cmd.Gender
	}
	cp := *p
	return &cp, nil
}

func (m *mockPatientRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if m.visits != nil {
		if vs, _ := m.visits.List(ctx, &visit.ListVisitsQuery{PatientID: &id}); len(vs) > 0 {
			return patient.ErrPatientHasVisits
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.patients[id]; !ok {
		return patient.ErrPatientNotFound
	}
	delete(m.patients, id)
	return nil
}

// -- visits --

type mockVisitRepo struct {
	mu       sync.Mutex
	visits   map[uuid.UUID]*visit.Visit
	patients *mockPatientRepo
	users    *mockUserRepo
}

func newMockVisitRepo(patients *mockPatientRepo, users *mockUserRepo) *mockVisitRepo {
	r := &mockVisitRepo{visits: make(map[uuid.UUID]*visit.Visit), patients: patients, users: users}
	patients.visits = r
	return r
}

func (m *mockVisitRepo) joined(v *visit.Visit) *visit.Visit {
	cp := *v
	cp.Patient, _ = m.patients.GetByID(context.Background(), v.PatientID)
	cp.Doctor, _ = m.users.GetByID(context.Background(), v.DoctorID)
	return &cp
}

func (m *mockVisitRepo) Create(_ context.Context, v *visit.Visit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v.ID = uuid.New()
	v.CreatedAt = time.Now()
	v.UpdatedAt = v.CreatedAt
	cp := *v
	cp.Patient, cp.Doctor = nil, nil
	m.visits[v.ID] = &cp
	return nil
}

func (m *mockVisitRepo) GetByID(_ context.Context, id uuid.UUID) (*visit.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.visits[id]
	if !ok {
		return nil, visit.ErrVisitNotFound
	}
	return m.joined(v), nil
}

func (m *mockVisitRepo) List(_ context.Context, q *visit.ListVisitsQuery) ([]*visit.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*visit.Visit
	for _, v := range m.visits {
		if q != nil && q.PatientID != nil && v.PatientID != *q.PatientID {
			continue
		}
		out = append(out, m.joined(v))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VisitDate.After(out[j].VisitDate) })
	return out, nil
}

func (m *mockVisitRepo) Update(_ context.Context, v *visit.Visit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.visits[v.ID]
	if !ok {
		return visit.ErrVisitNotFound
	}
	cp := *v
	cp.DoctorID = stored.DoctorID
	cp.CreatedAt = stored.CreatedAt
	cp.UpdatedAt = time.Now()
	cp.Patient, cp.Doctor = nil, nil
	m.visits[v.ID] = &cp
	return nil
}

func (m *mockVisitRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.visits[id]; !ok {
		return visit.ErrVisitNotFound
	}
	delete(m.visits, id)
	return nil
}

// -- audit --

type mockAuditRepo struct {
	mu      sync.Mutex
	entries []*domain.AuditLog
}

func (m *mockAuditRepo) Create(_ context.Context, e *domain.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockAuditRepo) all() []*domain.AuditLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.AuditLog(nil), m.entries...)
}

// -- fixture --

type fixture struct {
	users    *mockUserRepo
	patients *mockPatientRepo
	visits   *mockVisitRepo
	audit    *mockAuditRepo
	auditSvc *AuditService
	metrics  *metrics.Collector
	jwt      *auth.JWTManager

	authSvc    *AuthService
	userSvc    *UserService
	patientSvc *PatientService
	visitSvc   *VisitService

	admin, doctor, assistant *domain.User
}

func newFixture() *fixture {
	log := zap.NewNop()
	f := &fixture{
		users:    newMockUserRepo(),
		patients: newMockPatientRepo(),
		audit:    &mockAuditRepo{},
		metrics:  metrics.NewCollector("eyeclinic_test", prometheus.NewRegistry()),
		jwt: auth.NewJWTManager(config.JWTConfig{
			Secret:         "service-test-secret-service-test-secret",
			AccessTokenTTL: 15 * time.Minute,
			Issuer:         "eyeclinic-test",
		}),
	}
	f.visits = newMockVisitRepo(f.patients, f.users)
	f.auditSvc = NewAuditService(f.audit, f.metrics, log)

	f.authSvc = NewAuthService(f.users, f.jwt, f.auditSvc, f.metrics, log)
	f.userSvc = NewUserService(f.users, f.auditSvc, log)
	f.patientSvc = NewPatientService(f.patients, f.visits, f.auditSvc, f.metrics, log)
	f.visitSvc = NewVisitService(f.visits, f.patients, f.auditSvc, f.metrics, visit.DefaultLimits(), log)

	f.admin = f.users.add(&domain.User{Name: "Admin", Email: "admin@clinic.test", Role: domain.RoleAdmin, IsActive: true})
	f.doctor = f.users.add(&domain.User{Name: "Dr. Omar", Email: "omar@clinic.test", Role: domain.RoleDoctor, IsActive: true})
	f.assistant = f.users.add(&domain.User{Name: "Mona", Email: "mona@clinic.test", Role: domain.RoleAssistant, IsActive: true})
	return f
}

func (f *fixture) as(u *domain.User) Caller {
	return NewCaller(u, "127.0.0.1", "req-test")
}

func (f *fixture) mustPatient(name, phone string) *patient.Patient {
	age := 40
	p, err := f.patientSvc.CreatePatient(context.Background(), &patient.CreatePatientCommand{
		Name: name, Phone: phone, Age: &age,
	}, f.as(f.admin))
	if err != nil {
		panic(err)
	}
	return p
}
