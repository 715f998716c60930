package auth

import (
	"errors"

	"github.com/bobos12/eyeclinic/internal/domain"
)

var ErrForbidden = errors.New("you do not have permission to perform this action")

// Operation names a protected action. Roles are not ordered: each operation
// lists exactly the roles allowed to perform it.
type Operation string

const (
	OpRegisterUser Operation = "user:register"
	OpListUsers    Operation = "user:list"
	OpGetUser      Operation = "user:get"
	OpUpdateUser   Operation = "user:update"
	OpDeleteUser   Operation = "user:delete"

	OpCreatePatient Operation = "patient:create"
	OpReadPatient   Operation = "patient:read"
	OpUpdatePatient Operation = "patient:update"
	OpDeletePatient Operation = "patient:delete"

	OpCreateVisit Operation = "visit:create"
	OpReadVisit   Operation = "visit:read"
	OpUpdateVisit Operation = "visit:update"
	OpDeleteVisit Operation = "visit:delete"
)

var (
	adminOnly = []domain.Role{domain.RoleAdmin}
	frontDesk = []domain.Role{domain.RoleAdmin, domain.RoleAssistant}
	anyStaff  = []domain.Role{domain.RoleAdmin, domain.RoleDoctor, domain.RoleAssistant}
)

var permissions = map[Operation][]domain.Role{
	OpRegisterUser: adminOnly,
	OpListUsers:    adminOnly,
	OpGetUser:      adminOnly,
	OpUpdateUser:   adminOnly,
	OpDeleteUser:   adminOnly,

	OpCreatePatient: frontDesk,
	OpReadPatient:   anyStaff,
	OpUpdatePatient: frontDesk,
	OpDeletePatient: adminOnly,

	OpCreateVisit: frontDesk,
	OpReadVisit:   anyStaff,
	OpUpdateVisit: frontDesk,
	OpDeleteVisit: adminOnly,
}

// AllowedRoles returns the roles permitted to perform op.
func AllowedRoles(op Operation) []domain.Role {
	return append([]domain.Role(nil), permissions[op]...)
}

// Authorize returns ErrForbidden unless role may perform op. Unknown
// operations are denied.
func Authorize(role domain.Role, op Operation) error {
	for _, r := range permissions[op] {
		if r == role {
			return nil
		}
	}
	return ErrForbidden
}
