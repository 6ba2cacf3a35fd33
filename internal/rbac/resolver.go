package rbac

import (
	"strings"

	"permits-platform/internal/identity"
)

var userTypeRoles = map[identity.UserType]string{
	identity.UserTypeRegistered:           RoleRegisteredUser,
	identity.UserTypeMaintenanceDirectory: RoleMaintenanceEmployee,
	identity.UserTypeOperationsDirectory:  RoleOperationsEmployee,
}

// ResolveRole derives the effective role. Precedence: a stored role that
// exists in the registry, then the user-type mapping, then DefaultRole.
// It never fails.
func ResolveRole(id identity.Identity) string {
	if id == nil {
		return DefaultRole
	}
	switch v := id.(type) {
	case identity.Primary:
		if role := strings.TrimSpace(v.Role); IsKnownRole(role) {
			return role
		}
	case identity.Directory:
		// directory rows never carry a role
	}
	if role, ok := userTypeRoles[id.Type()]; ok {
		return role
	}
	return DefaultRole
}
