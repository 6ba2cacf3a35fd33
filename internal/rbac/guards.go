package rbac

import (
	"fmt"
	"net/http"
	"strings"
)

// Denial describes why a guard rejected a request.
type Denial struct {
	Status   int
	Message  string
	Required []string
	Missing  []string
	Role     string
}

func (d *Denial) Error() string { return d.Message }

// Body renders the JSON error body returned to clients.
func (d *Denial) Body() map[string]any {
	body := map[string]any{"error": d.Message}
	if len(d.Required) > 0 {
		body["required"] = d.Required
	}
	if len(d.Missing) > 0 {
		body["missing"] = d.Missing
	}
	if d.Role != "" {
		body["role"] = d.Role
	}
	return body
}

// Guard is a pure authorization check. A nil result allows the request.
type Guard func(uc *UserContext) *Denial

var errUnauthenticated = &Denial{Status: http.StatusUnauthorized, Message: "authentication required"}

// Authenticated admits any caller with a UserContext.
func Authenticated() Guard {
	return func(uc *UserContext) *Denial {
		if uc == nil {
			return errUnauthenticated
		}
		return nil
	}
}

func RequirePermission(key string) Guard {
	return func(uc *UserContext) *Denial {
		if uc == nil {
			return errUnauthenticated
		}
		if uc.Has(key) {
			return nil
		}
		return &Denial{
			Status:   http.StatusForbidden,
			Message:  fmt.Sprintf("permission %s required; role %s does not have it", key, uc.Info.DisplayName),
			Required: []string{key},
			Role:     uc.Info.DisplayName,
		}
	}
}

// RequireAllPermissions denies with exactly the missing subset of keys.
func RequireAllPermissions(keys ...string) Guard {
	return func(uc *UserContext) *Denial {
		if uc == nil {
			return errUnauthenticated
		}
		var missing []string
		for _, k := range keys {
			if !uc.Has(k) {
				missing = append(missing, k)
			}
		}
		if len(missing) == 0 {
			return nil
		}
		return &Denial{
			Status:  http.StatusForbidden,
			Message: fmt.Sprintf("missing permissions %s for role %s", strings.Join(missing, ", "), uc.Info.DisplayName),
			Missing: missing,
			Role:    uc.Info.DisplayName,
		}
	}
}

// RequireAnyPermission allows the request if the caller holds at least one key.
// An empty key list never allows.
func RequireAnyPermission(keys ...string) Guard {
	return func(uc *UserContext) *Denial {
		if uc == nil {
			return errUnauthenticated
		}
		for _, k := range keys {
			if uc.Has(k) {
				return nil
			}
		}
		return &Denial{
			Status:   http.StatusForbidden,
			Message:  fmt.Sprintf("one of %s required; role %s has none", strings.Join(keys, ", "), uc.Info.DisplayName),
			Required: append([]string(nil), keys...),
			Role:     uc.Info.DisplayName,
		}
	}
}

func RequireAdmin() Guard {
	return RequirePermission(PermAdminPanel)
}

// Check runs guards in order and returns the first denial.
func Check(uc *UserContext, guards ...Guard) *Denial {
	if uc == nil {
		return errUnauthenticated
	}
	for _, g := range guards {
		if g == nil {
			continue
		}
		if d := g(uc); d != nil {
			return d
		}
	}
	return nil
}
