package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bobos12/eyeclinic/internal/domain"
	"github.com/bobos12/eyeclinic/pkg/auth"
	"github.com/bobos12/eyeclinic/pkg/logger"
	"github.com/bobos12/eyeclinic/pkg/metrics"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account is temporarily locked due to multiple failed login attempts")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrNoToken            = errors.New("no token provided")
	ErrInvalidToken       = errors.New("invalid token")
	ErrSessionUserMissing = errors.New("user not found")
	ErrSessionUserBlocked = errors.New("user account is inactive")
)

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Update(ctx context.Context, id uuid.UUID, cmd *domain.UpdateUserCommand) (*domain.User, error)
	UpdateLoginAttempt(ctx context.Context, id uuid.UUID, success bool) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// A real hash to compare against when the email is unknown, so both paths
// spend the same bcrypt time.
var dummyHash = sync.OnceValue(func() string {
	h, _ := auth.HashPassword("Unused#Passw0rd")
	return h
})

// LoginResult is the token with the user's fields alongside it.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	domain.UserSummary
}

type AuthService struct {
	userRepo   UserRepository
	jwtManager *auth.JWTManager
	auditSvc   *AuditService
	metrics    *metrics.Collector
	validate   *validator.Validate
	log        *zap.Logger
}

func NewAuthService(userRepo UserRepository, jwtManager *auth.JWTManager, auditSvc *AuditService, m *metrics.Collector, log *zap.Logger) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
		auditSvc:   auditSvc,
		metrics:    m,
		validate:   validator.New(),
		log:        log,
	}
}

func (s *AuthService) Login(ctx context.Context, email, password, ip string) (*LoginResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, validationError("email and password are required")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("looking up user: %w", err)
		}
		_ = auth.ComparePassword(dummyHash(), password)
		s.countLogin("invalid")
		return nil, ErrInvalidCredentials
	}

	if user.IsLocked() {
		s.countLogin("locked")
		return nil, ErrAccountLocked
	}

	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, err
		}
		if err := s.userRepo.UpdateLoginAttempt(ctx, user.ID, false); err != nil {
			s.log.Error("failed to record login attempt", zap.Error(err))
		}
		s.log.Warn("failed login attempt",
			logger.Email("email", email),
			zap.String("ip", ip),
		)
		s.countLogin("invalid")
		return nil, ErrInvalidCredentials
	}

	// Only a caller who knows the password learns the account is inactive.
	if !user.IsActive {
		s.countLogin("inactive")
		return nil, ErrAccountInactive
	}

	if err := s.userRepo.UpdateLoginAttempt(ctx, user.ID, true); err != nil {
		s.log.Error("failed to record login", zap.Error(err))
	}

	tok, err := s.jwtManager.GenerateAccessToken(&domain.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})
	if err != nil {
		s.log.Error("failed to generate access token", zap.Error(err))
		return nil, fmt.Errorf("generating token: %w", err)
	}

	s.countLogin("success")
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       user.ID,
		UserRole:     user.Role,
		Action:       domain.ActionLogin,
		ResourceType: "user",
		ResourceID:   user.ID.String(),
		IPAddress:    ip,
	})

	s.log.Info("user logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("ip", ip),
	)

	return &LoginResult{Token: tok.Token, ExpiresAt: tok.ExpiresAt, UserSummary: user.Summary()}, nil
}

// ResolveSession maps a bearer token to the active user it was issued for.
// Every failure wraps ErrUnauthenticated.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, ErrNoToken)
	}

	claims, err := s.jwtManager.ValidateAccessToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, ErrInvalidToken)
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, ErrSessionUserMissing)
		}
		return nil, fmt.Errorf("resolving session user: %w", err)
	}

	if !user.IsActive {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, ErrSessionUserBlocked)
	}

	return user, nil
}

// Register creates a staff account. Only administrators may call it.
func (s *AuthService) Register(ctx context.Context, cmd *domain.RegisterUserCommand, caller Caller) (*domain.User, error) {
	if err := caller.authorize(auth.OpRegisterUser); err != nil {
		return nil, err
	}

	cmd.Name = strings.TrimSpace(cmd.Name)
	cmd.Email = strings.ToLower(strings.TrimSpace(cmd.Email))
	cmd.Phone = strings.TrimSpace(cmd.Phone)
	if cmd.Role == "" {
		cmd.Role = domain.RoleAssistant
	}

	var errs []string
	if cmd.Name == "" {
		errs = append(errs, "name is required")
	}
	if err := s.validate.Var(cmd.Email, "required,email"); err != nil {
		errs = append(errs, "email must be a valid email address")
	}
	if !cmd.Role.IsValid() {
		errs = append(errs, domain.ErrInvalidRole.Error())
	}
	var policy *auth.PolicyError
	if err := auth.CheckPasswordPolicy(cmd.Password); errors.As(err, &policy) {
		errs = append(errs, policy.Error())
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	hash, err := auth.HashPassword(cmd.Password)
	if err != nil {
		return nil, err
	}

	u := &domain.User{
		Name:              cmd.Name,
		Email:             cmd.Email,
		PasswordHash:      hash,
		Phone:             cmd.Phone,
		Role:              cmd.Role,
		IsActive:          true,
		PasswordChangedAt: time.Now(),
	}

	if err := s.userRepo.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrEmailAlreadyExists) {
			return nil, err
		}
		s.log.Error("failed to create user", zap.Error(err))
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.auditSvc.LogAsync(ctx, caller.audit(domain.ActionCreate, "user", u.ID.String(), map[string]any{
		"email": u.Email,
		"role":  u.Role,
	}))

	s.log.Info("user registered",
		zap.String("user_id", u.ID.String()),
		zap.String("role", string(u.Role)),
		zap.String("created_by", caller.UserID.String()),
	)

	return u, nil
}

// ChangePassword updates a user's password after verifying the current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return ErrInvalidCredentials
		}
		return err
	}

	var policy *auth.PolicyError
	if err := auth.CheckPasswordPolicy(newPassword); errors.As(err, &policy) {
		return validationError(policy.Error())
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       user.ID,
		UserRole:     user.Role,
		Action:       domain.ActionUpdate,
		ResourceType: "user",
		ResourceID:   user.ID.String(),
		Changes:      map[string]any{"field": "password"},
	})
	return nil
}

func (s *AuthService) countLogin(outcome string) {
	if s.metrics != nil {
		s.metrics.LoginsTotal.WithLabelValues(outcome).Inc()
	}
}
