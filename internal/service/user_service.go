package service

import (
	"context"
	"strings"

	"github.com/bobos12/eyeclinic/internal/domain"
	"github.com/bobos12/eyeclinic/pkg/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UserService struct {
	repo     UserRepository
	auditSvc *AuditService
	log      *zap.Logger
}

func NewUserService(repo UserRepository, auditSvc *AuditService, log *zap.Logger) *UserService {
	return &UserService{repo: repo, auditSvc: auditSvc, log: log}
}

func (s *UserService) ListUsers(ctx context.Context, caller Caller) ([]*domain.User, error) {
	if err := caller.authorize(auth.OpListUsers); err != nil {
		return nil, err
	}
	return s.repo.List(ctx)
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID, caller Caller) (*domain.User, error) {
	if err := caller.authorize(auth.OpGetUser); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// UpdateUser applies name and phone changes. Role and active flag are only
// honoured when the caller is an administrator and are dropped otherwise.
func (s *UserService) UpdateUser(ctx context.Context, id uuid.UUID, cmd *domain.UpdateUserCommand, caller Caller) (*domain.User, error) {
	if err := caller.authorize(auth.OpUpdateUser); err != nil {
		return nil, err
	}

	if caller.Role != domain.RoleAdmin {
		cmd.Role = nil
		cmd.IsActive = nil
	}
	if cmd.Name != nil {
		v := strings.TrimSpace(*cmd.Name)
		if v == "" {
			return nil, validationError("name cannot be empty")
		}
		cmd.Name = &v
	}
	if cmd.Phone != nil {
		v := strings.TrimSpace(*cmd.Phone)
		cmd.Phone = &v
	}
	if cmd.Role != nil && !cmd.Role.IsValid() {
		return nil, validationError(domain.ErrInvalidRole.Error())
	}

	u, err := s.repo.Update(ctx, id, cmd)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, caller.audit(domain.ActionUpdate, "user", id.String(), cmd))

	return u, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id uuid.UUID, caller Caller) error {
	if err := caller.authorize(auth.OpDeleteUser); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.auditSvc.LogAsync(ctx, caller.audit(domain.ActionDelete, "user", id.String(), nil))
	s.log.Info("user deleted",
		zap.String("user_id", id.String()),
		zap.String("deleted_by", caller.UserID.String()),
	)
	return nil
}
