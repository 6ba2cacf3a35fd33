package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"permits-platform/internal/auth"
	"permits-platform/internal/identity"
	"permits-platform/internal/permits"
	"permits-platform/internal/rbac"
	"permits-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

type SessionService interface {
	Login(ctx context.Context, creds auth.Credentials, meta auth.RequestMeta) (auth.Session, error)
	Renew(ctx context.Context, subject string, meta auth.RequestMeta) (auth.Session, error)
}

type UserLister interface {
	List(ctx context.Context, search string, limit, offset int) ([]identity.Primary, error)
}

type RequestLister interface {
	List(ctx context.Context, f permits.Filter, page permits.Page) ([]permits.Request, int, error)
}

type PhotoLocator interface {
	Locate(ctx context.Context, code string) string
}

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Sessions SessionService
	Users    UserLister
	Requests RequestLister
	Photos   PhotoLocator
}

func requestMeta(c *gin.Context) auth.RequestMeta {
	return auth.RequestMeta{IP: c.ClientIP(), RequestID: logger.RequestID(c)}
}

// userContext returns the caller or aborts with 401. Routes are always
// registered behind authentication, so the abort is a safety net.
func userContext(c *gin.Context) (*rbac.UserContext, bool) {
	uc, ok := rbac.FromGin(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return nil, false
	}
	return uc, true
}

// --- Auth ---

type loginRequest struct {
	Code   string `json:"code"`
	Secret string `json:"secret"`
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	Role        string    `json:"role,omitempty"`
	Code        string    `json:"code,omitempty"`
	Name        string    `json:"name,omitempty"`
}

func sessionResponse(s auth.Session) tokenResponse {
	resp := tokenResponse{
		AccessToken: s.Token.Value,
		TokenType:   "Bearer",
		ExpiresAt:   s.Token.ExpiresAt.UTC(),
	}
	if s.User != nil {
		resp.Role = s.User.Role
		resp.Code = s.User.Code()
		if s.User.Identity != nil {
			resp.Name = s.User.Identity.Info().Name
		}
	}
	return resp
}

// Login exchanges a code and secret for a session token. Every credential
// failure yields the same 400 body.
func (h Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	sess, err := h.Sessions.Login(c.Request.Context(), auth.Credentials{Code: req.Code, Secret: req.Secret}, requestMeta(c))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, sessionResponse(sess))
	case errors.Is(err, auth.ErrValidation):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid credentials"})
	case errors.Is(err, identity.ErrUpstreamUnavailable):
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "identity store unavailable"})
	default:
		logger.FromGin(c).Error("login failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
	}
}

func validationMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), auth.ErrValidation.Error())
	msg = strings.TrimSpace(strings.TrimPrefix(msg, ":"))
	if msg == "" {
		return "invalid request"
	}
	return msg
}

// Refresh issues a new token for the authenticated caller.
func (h Handlers) Refresh(c *gin.Context) {
	uc, ok := userContext(c)
	if !ok {
		return
	}
	sess, err := h.Sessions.Renew(c.Request.Context(), uc.Code(), requestMeta(c))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, sessionResponse(sess))
	case errors.Is(err, identity.ErrUpstreamUnavailable):
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "identity store unavailable"})
	case errors.Is(err, identity.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
	default:
		logger.FromGin(c).Error("refresh failed", "code", uc.Code(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
	}
}

// --- Me ---

type meResponse struct {
	Code         string            `json:"code"`
	Name         string            `json:"name"`
	Email        string            `json:"email,omitempty"`
	Cargo        string            `json:"cargo,omitempty"`
	Role         string            `json:"role"`
	DisplayName  string            `json:"displayName"`
	Description  string            `json:"description"`
	UserType     string            `json:"userType"`
	Source       string            `json:"source"`
	PhotoURL     string            `json:"photoUrl,omitempty"`
	Permissions  []string          `json:"permissions"`
	Capabilities rbac.Capabilities `json:"capabilities"`
	UIConfig     rbac.UIConfig     `json:"uiConfig"`
}

func (h Handlers) Me(c *gin.Context) {
	uc, ok := userContext(c)
	if !ok {
		return
	}
	p := uc.Identity.Info()
	resp := meResponse{
		Code:         p.Code,
		Name:         p.Name,
		Email:        p.Email,
		Cargo:        p.Cargo,
		Role:         uc.Role,
		DisplayName:  uc.Info.DisplayName,
		Description:  uc.Info.Description,
		UserType:     string(uc.UserType()),
		Source:       string(uc.Identity.Source()),
		Permissions:  uc.Permissions(),
		Capabilities: rbac.CapabilitiesOf(uc),
		UIConfig:     rbac.UIConfigOf(uc),
	}
	if d, ok := uc.Identity.(identity.Directory); ok {
		resp.PhotoURL = d.PhotoURL
	}
	c.JSON(http.StatusOK, resp)
}

func (h Handlers) Permissions(c *gin.Context) {
	uc, ok := userContext(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"role":         uc.Role,
		"displayName":  uc.Info.DisplayName,
		"permissions":  uc.Permissions(),
		"capabilities": rbac.PermissionMap(uc),
	})
}

// --- Requests ---

func (h Handlers) ListRequests(c *gin.Context) {
	uc, ok := userContext(c)
	if !ok {
		return
	}
	page, ok := parsePage(c)
	if !ok {
		return
	}

	q := rbac.FilterQuery(uc, rbac.QueryFilter{
		Status:   c.Query("status"),
		Type:     c.Query("type"),
		UserCode: strings.TrimSpace(c.Query("user_code")),
		UserType: identity.UserType(strings.TrimSpace(c.Query("user_type"))),
	})

	rows, total, err := h.Requests.List(c.Request.Context(), permits.Filter{
		UserCode:    q.UserCode,
		UserType:    string(q.UserType),
		Status:      q.Status,
		NoveltyType: q.Type,
	}, page)
	if err != nil {
		logger.FromGin(c).Error("list requests failed", "code", uc.Code(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "could not list requests"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":   rbac.Scope(rows, uc, rbac.KindRequests),
		"total":  total,
		"limit":  page.Limit,
		"offset": page.Offset,
	})
}

// --- Users ---

type userRow struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Phone    string `json:"phone,omitempty"`
	Cargo    string `json:"cargo,omitempty"`
	Role     string `json:"role"`
	UserType string `json:"userType"`
}

func (u userRow) OwnerCode() string { return u.Code }

func (h Handlers) ListUsers(c *gin.Context) {
	uc, ok := userContext(c)
	if !ok {
		return
	}
	page, ok := parsePage(c)
	if !ok {
		return
	}

	users, err := h.Users.List(c.Request.Context(), c.Query("search"), page.Limit, page.Offset)
	if err != nil {
		logger.FromGin(c).Error("list users failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "could not list users"})
		return
	}

	rows := make([]userRow, 0, len(users))
	for _, u := range users {
		rows = append(rows, userRow{
			Code:     u.Code,
			Name:     u.Name,
			Phone:    u.Phone,
			Cargo:    u.Cargo,
			Role:     rbac.ResolveRole(u),
			UserType: string(u.Type()),
		})
	}
	c.JSON(http.StatusOK, gin.H{"data": rbac.Scope(rows, uc, rbac.KindUsers)})
}

// --- Directory ---

func (h Handlers) EmployeePhoto(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" || strings.ContainsAny(code, "/\\.") {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid employee code"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": code, "photoUrl": h.Photos.Locate(c.Request.Context(), code)})
}

func parsePage(c *gin.Context) (permits.Page, bool) {
	limit, err := queryInt(c, "limit", 20)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
		return permits.Page{}, false
	}
	pageNum, err := queryInt(c, "page", 1)
	if err != nil || pageNum < 1 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "page must be a positive integer"})
		return permits.Page{}, false
	}
	if limit <= 0 || limit > 200 {
		limit = 20
	}
	return permits.Page{Limit: limit, Offset: (pageNum - 1) * limit}, true
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
