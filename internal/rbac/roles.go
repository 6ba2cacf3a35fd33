package rbac

// Role names. Keep these stable; they are stored in the users table.
const (
	RoleSuperAdmin            = "super_admin"
	RoleAdmin                 = "admin"
	RoleMaintenanceSupervisor = "maintenance_supervisor"
	RoleOperationsSupervisor  = "operations_supervisor"
	RoleMaintenanceEmployee   = "maintenance_employee"
	RoleOperationsEmployee    = "operations_employee"
	RoleRegisteredUser        = "registered_user"
)

// DefaultRole is assigned when nothing else resolves.
const DefaultRole = RoleRegisteredUser

type Role struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"displayName"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

type roleEntry struct {
	info Role
	set  map[string]struct{}
}

var employeePermissions = []string{
	PermRequestsReadOwn,
	PermRequestsWrite,
	PermNotificationsRead,
}

var registry = buildRegistry([]Role{
	{
		Name:        RoleSuperAdmin,
		DisplayName: "Super Administrador",
		Description: "Full access to every feature of the system",
		Permissions: AllPermissionKeys(),
	},
	{
		Name:        RoleAdmin,
		DisplayName: "Administrador",
		Description: "Administrative access without user or settings management",
		Permissions: []string{
			PermUsersRead, PermUsersSearch,
			PermRequestsRead, PermRequestsApprove, PermRequestsFilterAll,
			PermMaintenanceRead, PermMaintenanceSearch, PermMaintenanceDiagnostic,
			PermOperationsRead, PermOperationsSearch,
			PermAdminPanel, PermAdminAnalytics,
			PermNotificationsRead, PermNotificationsWrite,
		},
	},
	{
		Name:        RoleMaintenanceSupervisor,
		DisplayName: "Supervisor de Mantenimiento",
		Description: "Supervises maintenance employees and their requests",
		Permissions: []string{
			PermUsersRead, PermUsersSearch,
			PermRequestsRead, PermRequestsApprove, PermRequestsFilterOwnType,
			PermMaintenanceRead, PermMaintenanceSearch, PermMaintenanceDiagnostic,
			PermAdminPanel,
			PermNotificationsRead, PermNotificationsWrite,
		},
	},
	{
		Name:        RoleOperationsSupervisor,
		DisplayName: "Supervisor de Operaciones",
		Description: "Supervises operations employees and their requests",
		Permissions: []string{
			PermUsersRead, PermUsersSearch,
			PermRequestsRead, PermRequestsApprove, PermRequestsFilterOwnType,
			PermOperationsRead, PermOperationsSearch,
			PermAdminPanel,
			PermNotificationsRead, PermNotificationsWrite,
		},
	},
	{
		Name:        RoleMaintenanceEmployee,
		DisplayName: "Empleado de Mantenimiento",
		Description: "Maintenance employee; manages own requests",
		Permissions: employeePermissions,
	},
	{
		Name:        RoleOperationsEmployee,
		DisplayName: "Empleado de Operaciones",
		Description: "Operations employee; manages own requests",
		Permissions: employeePermissions,
	},
	{
		Name:        RoleRegisteredUser,
		DisplayName: "Usuario Registrado",
		Description: "Registered user; manages own requests",
		Permissions: employeePermissions,
	},
})

func buildRegistry(roles []Role) map[string]roleEntry {
	m := make(map[string]roleEntry, len(roles))
	for _, r := range roles {
		set := make(map[string]struct{}, len(r.Permissions))
		for _, k := range r.Permissions {
			if _, ok := catalogByKey[k]; !ok {
				panic("rbac: role " + r.Name + " references unknown permission " + k)
			}
			set[k] = struct{}{}
		}
		m[r.Name] = roleEntry{info: r, set: set}
	}
	return m
}

// IsKnownRole reports whether role is in the registry.
func IsKnownRole(role string) bool {
	_, ok := registry[role]
	return ok
}

// RoleInfo returns a copy of the registry entry.
func RoleInfo(role string) (Role, bool) {
	e, ok := registry[role]
	if !ok {
		return Role{}, false
	}
	info := e.info
	info.Permissions = append([]string(nil), e.info.Permissions...)
	return info, true
}

// PermissionsOf returns the role's permission keys. Unknown roles have none.
func PermissionsOf(role string) []string {
	e, ok := registry[role]
	if !ok {
		return []string{}
	}
	return append([]string(nil), e.info.Permissions...)
}

func HasPermission(role, key string) bool {
	e, ok := registry[role]
	if !ok {
		return false
	}
	_, has := e.set[key]
	return has
}

func IsSuperAdmin(role string) bool { return role == RoleSuperAdmin }
