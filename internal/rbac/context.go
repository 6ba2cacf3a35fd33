package rbac

import (
	"context"
	"sort"

	"permits-platform/internal/identity"

	"github.com/gin-gonic/gin"
)

// UserContext is the per-request authorization view of the caller.
// It is built once by the authentication middleware and never stored.
type UserContext struct {
	Identity identity.Identity
	Role     string
	Info     Role

	permissions map[string]struct{}
}

// NewUserContext derives role and permissions for id. The permission set is
// exactly the resolved role's set.
func NewUserContext(id identity.Identity) *UserContext {
	role := ResolveRole(id)
	info, ok := RoleInfo(role)
	if !ok {
		info = Role{Name: role, DisplayName: role}
	}
	set := make(map[string]struct{}, len(info.Permissions))
	for _, k := range info.Permissions {
		set[k] = struct{}{}
	}
	return &UserContext{
		Identity:    id,
		Role:        role,
		Info:        info,
		permissions: set,
	}
}

// Code is the caller's subject code, or "" when no identity is attached.
func (u *UserContext) Code() string {
	if u == nil || u.Identity == nil {
		return ""
	}
	return u.Identity.Subject()
}

func (u *UserContext) UserType() identity.UserType {
	if u == nil || u.Identity == nil {
		return ""
	}
	return u.Identity.Type()
}

func (u *UserContext) Has(key string) bool {
	if u == nil {
		return false
	}
	_, ok := u.permissions[key]
	return ok
}

// Permissions returns the caller's keys sorted.
func (u *UserContext) Permissions() []string {
	if u == nil {
		return nil
	}
	out := make([]string, 0, len(u.permissions))
	for k := range u.permissions {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type ctxKey int

const ctxUserContext ctxKey = iota

const ginUserContextKey = "rbac.user_context"

func WithUserContext(ctx context.Context, uc *UserContext) context.Context {
	return context.WithValue(ctx, ctxUserContext, uc)
}

func FromContext(ctx context.Context) (*UserContext, bool) {
	uc, ok := ctx.Value(ctxUserContext).(*UserContext)
	return uc, ok && uc != nil
}

// Attach stores uc on both the request context and the gin context.
func Attach(c *gin.Context, uc *UserContext) {
	c.Request = c.Request.WithContext(WithUserContext(c.Request.Context(), uc))
	c.Set(ginUserContextKey, uc)
}

// FromGin returns the UserContext attached to c, if any.
func FromGin(c *gin.Context) (*UserContext, bool) {
	if v, ok := c.Get(ginUserContextKey); ok {
		if uc, ok := v.(*UserContext); ok && uc != nil {
			return uc, true
		}
	}
	return FromContext(c.Request.Context())
}
