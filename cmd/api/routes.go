package main

import (
	"context"
	"net/http"

	"permits-platform/internal/audit"
	"permits-platform/internal/httpapi"
	"permits-platform/internal/metrics"
	"permits-platform/internal/rbac"
	"permits-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

type routeDeps struct {
	handlers httpapi.Handlers
	authn    rbac.Authenticator
	auditor  *audit.Service
	metrics  *metrics.Metrics
	health   func(ctx context.Context) map[string]error
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, d routeDeps) {
	h := d.handlers

	// public
	r.GET("/healthz", healthHandler(d.health))
	if d.metrics != nil {
		r.GET("/metrics", gin.WrapH(d.metrics.Handler()))
	}
	r.POST("/v1/auth/login", h.Login)

	// Everything below runs behind token verification and identity lookup.
	v1 := rbac.NewProtected(r.Group("/v1"), d.authn, rbac.WithDenialHook(denialHook(d.auditor, d.metrics)))

	v1.POST("/auth/refresh", nil, h.Refresh)
	v1.GET("/me", nil, h.Me)
	v1.GET("/me/permissions", nil, h.Permissions)

	v1.GET("/requests", rbac.RequireAnyPermission(rbac.PermRequestsRead, rbac.PermRequestsReadOwn), h.ListRequests)
	v1.GET("/users", rbac.RequirePermission(rbac.PermUsersRead), h.ListUsers)

	directory := v1.Group("/directory", rbac.RequireAnyPermission(rbac.PermMaintenanceRead, rbac.PermOperationsRead))
	directory.GET("/:code/photo", nil, h.EmployeePhoto)
}

func denialHook(auditor *audit.Service, m *metrics.Metrics) rbac.DenialHook {
	return func(c *gin.Context, uc *rbac.UserContext, d *rbac.Denial) {
		if d.Status != http.StatusForbidden || uc == nil {
			return
		}
		m.ObserveAuth(metrics.OutcomeForbidden)
		logger.FromGin(c).WarnContext(c.Request.Context(), "access denied",
			"code", uc.Code(), "role", uc.Role, "path", c.FullPath(), "required", d.Required, "missing", d.Missing)
		auditor.AccessDenied(c.Request.Context(), uc.Code(), uc.Role, c.ClientIP(), logger.RequestID(c), d.Message)
	}
}

func healthHandler(check func(ctx context.Context) map[string]error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		status := http.StatusOK
		deps := gin.H{}
		for name, err := range check(c.Request.Context()) {
			if err != nil {
				status = http.StatusServiceUnavailable
				deps[name] = err.Error()
				continue
			}
			deps[name] = "ok"
		}
		state := "ok"
		if status != http.StatusOK {
			state = "degraded"
		}
		c.JSON(status, gin.H{"status": state, "deps": deps})
	}
}
