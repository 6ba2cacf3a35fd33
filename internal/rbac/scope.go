package rbac

import (
	"strings"

	"permits-platform/internal/identity"
)

// Kind names the resource a list belongs to.
type Kind string

const (
	KindRequests Kind = "requests"
	KindUsers    Kind = "users"
)

// Owned is implemented by rows that belong to a subject code.
type Owned interface {
	OwnerCode() string
}

// Scope filters items to what uc may read. It never mutates items.
//
//	requests: all with requests:read, own rows with requests:read_own, else none
//	users:    all with users:read, else none
func Scope[T Owned](items []T, uc *UserContext, kind Kind) []T {
	if uc == nil {
		return []T{}
	}
	switch kind {
	case KindRequests:
		if uc.Has(PermRequestsRead) {
			return append([]T{}, items...)
		}
		if uc.Has(PermRequestsReadOwn) {
			code := uc.Code()
			out := make([]T, 0, len(items))
			if code == "" {
				return out
			}
			for _, it := range items {
				if it.OwnerCode() == code {
					out = append(out, it)
				}
			}
			return out
		}
	case KindUsers:
		if uc.Has(PermUsersRead) {
			return append([]T{}, items...)
		}
	}
	return []T{}
}

// QueryFilter carries the row constraints a list query must apply.
type QueryFilter struct {
	Status   string
	Type     string
	UserCode string
	UserType identity.UserType
}

// FilterQuery narrows base to the caller's visibility. Callers with only
// requests:read_own are pinned to their own code. Callers that may filter by
// their own user type but not all types are pinned to that type.
func FilterQuery(uc *UserContext, base QueryFilter) QueryFilter {
	out := base
	out.Status = strings.TrimSpace(out.Status)
	out.Type = strings.TrimSpace(out.Type)
	if uc == nil {
		return out
	}
	if !uc.Has(PermRequestsRead) && uc.Has(PermRequestsReadOwn) {
		out.UserCode = uc.Code()
	}
	if uc.Has(PermRequestsFilterOwnType) && !uc.Has(PermRequestsFilterAll) {
		out.UserType = uc.UserType()
	}
	return out
}
