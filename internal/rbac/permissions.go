package rbac

import "strings"

// Permission keys. Keep these stable; clients persist them and the
// capability maps in /v1/me are derived from them.
const (
	PermUsersRead   = "users:read"
	PermUsersWrite  = "users:write"
	PermUsersDelete = "users:delete"
	PermUsersSearch = "users:search"

	PermRequestsRead          = "requests:read"
	PermRequestsReadOwn       = "requests:read_own"
	PermRequestsWrite         = "requests:write"
	PermRequestsApprove       = "requests:approve"
	PermRequestsDelete        = "requests:delete"
	PermRequestsFilterAll     = "requests:filter_all"
	PermRequestsFilterOwnType = "requests:filter_own_type"

	PermMaintenanceRead       = "maintenance:read"
	PermMaintenanceSearch     = "maintenance:search"
	PermMaintenanceDiagnostic = "maintenance:diagnostic"

	PermOperationsRead   = "operations:read"
	PermOperationsSearch = "operations:search"

	PermAdminPanel     = "admin:panel"
	PermAdminAnalytics = "admin:analytics"
	PermAdminSettings  = "admin:settings"

	PermNotificationsRead  = "notifications:read"
	PermNotificationsWrite = "notifications:write"
)

type Permission struct {
	Key         string `json:"key"`
	Resource    string `json:"resource"`
	Action      string `json:"action"`
	Description string `json:"description"`
}

// String returns the "resource:action" key.
func (p Permission) String() string { return p.Key }

// catalog order is the display order used by AllPermissions.
var catalog = []Permission{
	perm(PermUsersRead, "View user list and details"),
	perm(PermUsersWrite, "Create and edit users"),
	perm(PermUsersDelete, "Delete users"),
	perm(PermUsersSearch, "Search employees"),

	perm(PermRequestsRead, "View all permit requests"),
	perm(PermRequestsReadOwn, "View own permit requests"),
	perm(PermRequestsWrite, "Create permit requests"),
	perm(PermRequestsApprove, "Approve or reject permit requests"),
	perm(PermRequestsDelete, "Delete permit requests"),
	perm(PermRequestsFilterAll, "Filter requests of every user type"),
	perm(PermRequestsFilterOwnType, "Filter requests of the caller's own user type"),

	perm(PermMaintenanceRead, "View maintenance employees"),
	perm(PermMaintenanceSearch, "Search maintenance employees"),
	perm(PermMaintenanceDiagnostic, "View maintenance diagnostics"),

	perm(PermOperationsRead, "View operations employees"),
	perm(PermOperationsSearch, "Search operations employees"),

	perm(PermAdminPanel, "Access the administration panel"),
	perm(PermAdminAnalytics, "View analytics and reports"),
	perm(PermAdminSettings, "Manage system settings"),

	perm(PermNotificationsRead, "View notifications"),
	perm(PermNotificationsWrite, "Update notifications"),
}

var catalogByKey = func() map[string]Permission {
	m := make(map[string]Permission, len(catalog))
	for _, p := range catalog {
		m[p.Key] = p
	}
	return m
}()

func perm(key, description string) Permission {
	resource, action, _ := strings.Cut(key, ":")
	return Permission{Key: key, Resource: resource, Action: action, Description: description}
}

// LookupPermission returns the catalog entry for key.
func LookupPermission(key string) (Permission, bool) {
	p, ok := catalogByKey[key]
	return p, ok
}

// AllPermissions returns a copy of the catalog.
func AllPermissions() []Permission {
	out := make([]Permission, len(catalog))
	copy(out, catalog)
	return out
}

// AllPermissionKeys returns every catalog key in display order.
func AllPermissionKeys() []string {
	out := make([]string, 0, len(catalog))
	for _, p := range catalog {
		out = append(out, p.Key)
	}
	return out
}
