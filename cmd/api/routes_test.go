package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"permits-platform/internal/audit"
	"permits-platform/internal/auth"
	"permits-platform/internal/config"
	"permits-platform/internal/httpapi"
	"permits-platform/internal/identity"
	"permits-platform/internal/metrics"
	"permits-platform/internal/rbac"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// headerAuthn trusts X-Test-Role; requests without it are rejected.
type headerAuthn struct{}

func (headerAuthn) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetHeader("X-Test-Role")
		if role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		rbac.Attach(c, rbac.NewUserContext(identity.Primary{Profile: identity.Profile{Code: "42"}, Role: role}))
		c.Next()
	}
}

type stubPhotos struct{}

func (stubPhotos) Locate(_ context.Context, code string) string { return "https://p/" + code + ".jpg" }

func testRouter(t *testing.T, health func(context.Context) map[string]error) (*gin.Engine, *audit.MemoryRepo, *metrics.Metrics) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	repo := audit.NewMemoryRepo()
	m := metrics.New(prometheus.NewRegistry())
	r := gin.New()
	registerRoutes(r, routeDeps{
		handlers: httpapi.Handlers{Photos: stubPhotos{}},
		authn:    headerAuthn{},
		auditor:  audit.NewService(repo, nil),
		metrics:  m,
		health:   health,
	})
	return r, repo, m
}

func get(r *gin.Engine, path, role string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if role != "" {
		req.Header.Set("X-Test-Role", role)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestProtectedRoutesRequireAuthentication(t *testing.T) {
	r, repo, _ := testRouter(t, nil)
	for _, path := range []string{"/v1/me", "/v1/me/permissions", "/v1/requests", "/v1/users", "/v1/directory/1/photo"} {
		if w := get(r, path, ""); w.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, w.Code)
		}
	}
	if n := len(repo.Events()); n != 0 {
		t.Fatalf("expected no audit events for 401s, got %d", n)
	}
}

func TestForbiddenIsAuditedAndCounted(t *testing.T) {
	r, repo, m := testRouter(t, nil)

	w := get(r, "/v1/directory/1090/photo", rbac.RoleMaintenanceEmployee)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), rbac.PermMaintenanceRead) {
		t.Fatalf("expected required permissions in body, got %s", w.Body.String())
	}

	denied := repo.OfType(audit.EventTypeAccessDenied)
	if len(denied) != 1 || denied[0].Subject != "42" || denied[0].ActorRole != rbac.RoleMaintenanceEmployee {
		t.Fatalf("unexpected audit events: %+v", denied)
	}
	if got := testutil.ToFloat64(m.AuthOutcomes.WithLabelValues(metrics.OutcomeForbidden)); got != 1 {
		t.Fatalf("expected 1 forbidden outcome, got %v", got)
	}
}

func TestDirectoryPhotoAllowedForSupervisor(t *testing.T) {
	r, _, _ := testRouter(t, nil)
	w := get(r, "/v1/directory/1090/photo", rbac.RoleOperationsSupervisor)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "https://p/1090.jpg") {
		t.Fatalf("unexpected response: %d %s", w.Code, w.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	r, _, _ := testRouter(t, func(context.Context) map[string]error {
		return map[string]error{"postgres": nil}
	})
	if w := get(r, "/healthz", ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	r, _, _ = testRouter(t, func(context.Context) map[string]error {
		return map[string]error{"postgres": nil, "redis": errors.New("connection refused")}
	})
	w := get(r, "/healthz", "")
	if w.Code != http.StatusServiceUnavailable || !strings.Contains(w.Body.String(), "degraded") {
		t.Fatalf("expected degraded 503, got %d %s", w.Code, w.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r, _, _ := testRouter(t, nil)
	get(r, "/v1/users", rbac.RoleRegisteredUser)

	w := get(r, "/metrics", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "auth_outcomes_total") {
		t.Fatalf("unexpected metrics output: %d", w.Code)
	}
}

type primaryUsers map[string]identity.Primary

func (p primaryUsers) FindByCode(_ context.Context, code string) (identity.Primary, error) {
	u, ok := p[code]
	if !ok {
		return identity.Primary{}, identity.ErrNotFound
	}
	return u, nil
}

type emptyDirectory struct{}

func (emptyDirectory) FindEmployee(context.Context, string) (identity.Directory, error) {
	return identity.Directory{}, identity.ErrNotFound
}

func TestLoginThenMe_AdminEndToEnd(t *testing.T) {
	gin.SetMode(gin.TestMode)
	users := primaryUsers{"E123": {Profile: identity.Profile{Code: "E123", Name: "Eva"}, Role: rbac.RoleAdmin, Secret: "abc"}}

	manager, err := auth.NewManager(config.AuthConfig{JWTSecret: "test-secret-that-is-long-enough-32b"})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	resolver := identity.NewResolver(users, emptyDirectory{})
	repo := audit.NewMemoryRepo()
	auditor := audit.NewService(repo, nil)

	r := gin.New()
	registerRoutes(r, routeDeps{
		handlers: httpapi.Handlers{Sessions: auth.NewService(manager, users, emptyDirectory{}, resolver, auth.WithEventRecorder(auditor))},
		authn:    auth.NewMiddleware(manager, resolver),
		auditor:  auditor,
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(`{"code":"E123","secret":"abc"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d %s", w.Code, w.Body.String())
	}
	var login struct {
		AccessToken string `json:"access_token"`
		Role        string `json:"role"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &login); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if login.AccessToken == "" || login.Role != rbac.RoleAdmin {
		t.Fatalf("unexpected login body: %s", w.Body.String())
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.AccessToken)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d %s", w.Code, w.Body.String())
	}
	var me struct {
		Code         string `json:"code"`
		Role         string `json:"role"`
		Capabilities struct {
			CanAccessAdminPanel bool `json:"canAccessAdminPanel"`
		} `json:"capabilities"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if me.Code != "E123" || me.Role != rbac.RoleAdmin || !me.Capabilities.CanAccessAdminPanel {
		t.Fatalf("unexpected me body: %s", w.Body.String())
	}
	if n := len(repo.OfType(audit.EventTypeLoginSucceeded)); n != 1 {
		t.Fatalf("expected one login_succeeded event, got %d", n)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(`{"code":"E123","secret":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("wrong secret: expected 400, got %d", w.Code)
	}
}
