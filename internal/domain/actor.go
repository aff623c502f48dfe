package domain

import (
	"slices"

	"github.com/google/uuid"
)

const (
	RoleSuperAdmin        = "SUPER_ADMIN"
	RoleOrganizationAdmin = "ORGANIZATION_ADMIN"
)

// Actor - аутентифицированный пользователь, от имени которого выполняется
// операция. Движок доверяет этим данным и не проверяет их сам.
type Actor struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
	Roles    []string
}

func (a Actor) HasRole(role string) bool {
	return slices.Contains(a.Roles, role)
}

func (a Actor) IsSuperAdmin() bool {
	return a.HasRole(RoleSuperAdmin)
}

// IsAdmin - может ли пользователь менять структуру
func (a Actor) IsAdmin() bool {
	return a.IsSuperAdmin() || a.HasRole(RoleOrganizationAdmin)
}

// CanAccessTenant проверяет доступ к данным арендатора
func (a Actor) CanAccessTenant(tenantID uuid.UUID) bool {
	return a.IsSuperAdmin() || a.TenantID == tenantID
}

// AssignedBy возвращает отметку автора изменения
func (a Actor) AssignedBy() string {
	if a.UserID == uuid.Nil {
		return SystemActor
	}
	return a.UserID.String()
}
