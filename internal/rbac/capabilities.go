package rbac

import "strings"

// Capabilities are the UI-facing booleans returned by /v1/me.
type Capabilities struct {
	CanAccessAdminPanel bool `json:"canAccessAdminPanel"`
	CanViewAnalytics    bool `json:"canViewAnalytics"`
	CanManageSettings   bool `json:"canManageSettings"`

	CanViewAllUsers    bool `json:"canViewAllUsers"`
	CanCreateUsers     bool `json:"canCreateUsers"`
	CanDeleteUsers     bool `json:"canDeleteUsers"`
	CanSearchEmployees bool `json:"canSearchEmployees"`

	CanViewAllRequests       bool `json:"canViewAllRequests"`
	CanViewOwnRequests       bool `json:"canViewOwnRequests"`
	CanCreateRequests        bool `json:"canCreateRequests"`
	CanApproveRequests       bool `json:"canApproveRequests"`
	CanDeleteRequests        bool `json:"canDeleteRequests"`
	CanFilterAllRequestTypes bool `json:"canFilterAllRequestTypes"`
	CanFilterOwnRequestType  bool `json:"canFilterOwnRequestType"`

	CanViewMaintenanceEmployees   bool `json:"canViewMaintenanceEmployees"`
	CanSearchMaintenanceEmployees bool `json:"canSearchMaintenanceEmployees"`
	CanViewMaintenanceDiagnostics bool `json:"canViewMaintenanceDiagnostics"`

	CanViewOperationsEmployees   bool `json:"canViewOperationsEmployees"`
	CanSearchOperationsEmployees bool `json:"canSearchOperationsEmployees"`

	CanViewNotifications   bool `json:"canViewNotifications"`
	CanUpdateNotifications bool `json:"canUpdateNotifications"`
}

type AvailableFilters struct {
	AllUserTypes bool `json:"allUserTypes"`
	OwnUserType  bool `json:"ownUserType"`
	UserCode     bool `json:"userCode"`
}

type UIConfig struct {
	ShowAdminNavigation    bool             `json:"showAdminNavigation"`
	ShowAllRequestsView    bool             `json:"showAllRequestsView"`
	ShowUserManagement     bool             `json:"showUserManagement"`
	ShowMaintenanceSection bool             `json:"showMaintenanceSection"`
	ShowOperationsSection  bool             `json:"showOperationsSection"`
	AvailableFilters       AvailableFilters `json:"availableFilters"`
}

func CapabilitiesOf(uc *UserContext) Capabilities {
	return Capabilities{
		CanAccessAdminPanel: uc.Has(PermAdminPanel),
		CanViewAnalytics:    uc.Has(PermAdminAnalytics),
		CanManageSettings:   uc.Has(PermAdminSettings),

		CanViewAllUsers:    uc.Has(PermUsersRead),
		CanCreateUsers:     uc.Has(PermUsersWrite),
		CanDeleteUsers:     uc.Has(PermUsersDelete),
		CanSearchEmployees: uc.Has(PermUsersSearch),

		CanViewAllRequests:       uc.Has(PermRequestsRead),
		CanViewOwnRequests:       uc.Has(PermRequestsReadOwn),
		CanCreateRequests:        uc.Has(PermRequestsWrite),
		CanApproveRequests:       uc.Has(PermRequestsApprove),
		CanDeleteRequests:        uc.Has(PermRequestsDelete),
		CanFilterAllRequestTypes: uc.Has(PermRequestsFilterAll),
		CanFilterOwnRequestType:  uc.Has(PermRequestsFilterOwnType),

		CanViewMaintenanceEmployees:   uc.Has(PermMaintenanceRead),
		CanSearchMaintenanceEmployees: uc.Has(PermMaintenanceSearch),
		CanViewMaintenanceDiagnostics: uc.Has(PermMaintenanceDiagnostic),

		CanViewOperationsEmployees:   uc.Has(PermOperationsRead),
		CanSearchOperationsEmployees: uc.Has(PermOperationsSearch),

		CanViewNotifications:   uc.Has(PermNotificationsRead),
		CanUpdateNotifications: uc.Has(PermNotificationsWrite),
	}
}

func UIConfigOf(uc *UserContext) UIConfig {
	return UIConfig{
		ShowAdminNavigation:    uc.Has(PermAdminPanel),
		ShowAllRequestsView:    uc.Has(PermRequestsRead),
		ShowUserManagement:     uc.Has(PermUsersRead),
		ShowMaintenanceSection: uc.Has(PermMaintenanceRead),
		ShowOperationsSection:  uc.Has(PermOperationsRead),
		AvailableFilters: AvailableFilters{
			AllUserTypes: uc.Has(PermRequestsFilterAll),
			OwnUserType:  uc.Has(PermRequestsFilterOwnType),
			UserCode:     !uc.Has(PermRequestsRead) && uc.Has(PermRequestsReadOwn),
		},
	}
}

// PermissionMap keys every catalog permission as "resource_action".
func PermissionMap(uc *UserContext) map[string]bool {
	out := make(map[string]bool, len(catalog))
	for _, p := range catalog {
		out[strings.ReplaceAll(p.Key, ":", "_")] = uc.Has(p.Key)
	}
	return out
}
