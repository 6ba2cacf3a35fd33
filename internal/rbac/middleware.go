package rbac

import (
	"github.com/gin-gonic/gin"
)

// Authenticator produces the middleware that attaches a UserContext.
// internal/auth provides the only production implementation.
type Authenticator interface {
	Handler() gin.HandlerFunc
}

// DenialHook observes every guard denial. uc is nil for 401 denials.
type DenialHook func(c *gin.Context, uc *UserContext, d *Denial)

// Enforce adapts guards to gin. A request that reaches it without a
// UserContext is rejected with 401 rather than panicking.
func Enforce(hook DenialHook, guards ...Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		uc, _ := FromGin(c)
		if d := Check(uc, guards...); d != nil {
			if hook != nil {
				hook(c, uc, d)
			}
			c.AbortWithStatusJSON(d.Status, d.Body())
			return
		}
		c.Next()
	}
}

// Protected is a route group whose handlers always run behind the
// authentication middleware. Guards can only be attached through it, so a
// guard never sees a request that skipped authentication.
type Protected struct {
	group *gin.RouterGroup
	hook  DenialHook
}

type ProtectedOption func(*Protected)

func WithDenialHook(h DenialHook) ProtectedOption {
	return func(p *Protected) { p.hook = h }
}

func NewProtected(rg *gin.RouterGroup, authn Authenticator, opts ...ProtectedOption) *Protected {
	p := &Protected{group: rg.Group("", authn.Handler())}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Group returns a nested protected group whose routes all pass guards.
func (p *Protected) Group(path string, guards ...Guard) *Protected {
	g := p.group.Group(path)
	if len(guards) > 0 {
		g.Use(Enforce(p.hook, guards...))
	}
	return &Protected{group: g, hook: p.hook}
}

func (p *Protected) GET(path string, guard Guard, h ...gin.HandlerFunc) {
	p.handle("GET", path, guard, h)
}

func (p *Protected) POST(path string, guard Guard, h ...gin.HandlerFunc) {
	p.handle("POST", path, guard, h)
}

func (p *Protected) handle(method, path string, guard Guard, h []gin.HandlerFunc) {
	if guard == nil {
		guard = Authenticated()
	}
	chain := append([]gin.HandlerFunc{Enforce(p.hook, guard)}, h...)
	p.group.Handle(method, path, chain...)
}
