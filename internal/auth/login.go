package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"permits-platform/internal/identity"
	"permits-platform/internal/metrics"
	"permits-platform/internal/rbac"
)

// Credentials are the login form. An empty Code selects the directory
// login, where Secret is the employee's national id.
type Credentials struct {
	Code   string `json:"code"`
	Secret string `json:"secret"`
}

// Session is the result of a successful login or renewal.
type Session struct {
	Token Token
	User  *rbac.UserContext
}

// EventRecorder receives login and renewal events. Recording is best-effort.
type EventRecorder interface {
	LoginSucceeded(ctx context.Context, subject, role, source, ip, requestID string)
	LoginFailed(ctx context.Context, subject, reason, ip, requestID string)
	SessionRenewed(ctx context.Context, subject, role, ip, requestID string)
}

// RequestMeta identifies the HTTP request for audit purposes.
type RequestMeta struct {
	IP        string
	RequestID string
}

// Service checks credentials and issues sessions.
//
// The stored secret is compared in plain text (constant time). The primary
// store keeps secrets unhashed; moving to a password hash is a schema change
// tracked outside this service.
type Service struct {
	primary        identity.PrimaryStore
	directory      identity.DirectoryStore
	resolver       IdentityResolver
	manager        *Manager
	directoryLogin bool
	events         EventRecorder
	observer       OutcomeObserver
	clock          func() time.Time
	log            *slog.Logger
}

type ServiceOption func(*Service)

func WithDirectoryLogin(enabled bool) ServiceOption {
	return func(s *Service) { s.directoryLogin = enabled }
}

func WithEventRecorder(r EventRecorder) ServiceOption {
	return func(s *Service) { s.events = r }
}

func WithLoginObserver(o OutcomeObserver) ServiceOption {
	return func(s *Service) { s.observer = o }
}

func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.clock = now }
}

func WithServiceLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

func NewService(manager *Manager, primary identity.PrimaryStore, directory identity.DirectoryStore, resolver IdentityResolver, opts ...ServiceOption) *Service {
	s := &Service{
		primary:        primary,
		directory:      directory,
		resolver:       resolver,
		manager:        manager,
		directoryLogin: true,
		clock:          time.Now,
		log:            slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login returns ErrValidation for a malformed form, ErrInvalidCredentials
// for any credential mismatch, and identity.ErrUpstreamUnavailable when a
// store cannot be reached.
func (s *Service) Login(ctx context.Context, creds Credentials, meta RequestMeta) (Session, error) {
	code := strings.TrimSpace(creds.Code)
	secret := creds.Secret
	if strings.TrimSpace(secret) == "" {
		return Session{}, fmt.Errorf("%w: secret is required", ErrValidation)
	}

	var (
		id  identity.Identity
		err error
	)
	if code == "" {
		id, err = s.directoryIdentity(ctx, strings.TrimSpace(secret))
	} else {
		id, err = s.primaryIdentity(ctx, code, secret)
	}
	if err != nil {
		subject := code
		if subject == "" {
			subject = "directory"
		}
		s.fail(ctx, subject, err, meta)
		return Session{}, err
	}

	tok, err := s.manager.Issue(s.clock(), id.Subject(), 0)
	if err != nil {
		return Session{}, err
	}
	uc := rbac.NewUserContext(id)

	s.observe(metrics.OutcomeLoginSucceeded)
	s.log.InfoContext(ctx, "login succeeded", "code", uc.Code(), "role", uc.Role, "source", id.Source())
	if s.events != nil {
		s.events.LoginSucceeded(ctx, uc.Code(), uc.Role, string(id.Source()), meta.IP, meta.RequestID)
	}
	return Session{Token: tok, User: uc}, nil
}

func (s *Service) primaryIdentity(ctx context.Context, code, secret string) (identity.Identity, error) {
	p, err := s.primary.FindByCode(ctx, code)
	if errors.Is(err, identity.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", identity.ErrUpstreamUnavailable, err)
	}
	if p.Secret == "" || subtle.ConstantTimeCompare([]byte(p.Secret), []byte(secret)) != 1 {
		return nil, ErrInvalidCredentials
	}
	return p, nil
}

func (s *Service) directoryIdentity(ctx context.Context, nationalID string) (identity.Identity, error) {
	if !s.directoryLogin || s.directory == nil {
		return nil, fmt.Errorf("%w: code is required", ErrValidation)
	}
	d, err := s.directory.FindEmployee(ctx, nationalID)
	if errors.Is(err, identity.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", identity.ErrUpstreamUnavailable, err)
	}
	return d, nil
}

// Renew issues a fresh token for an already authenticated caller. The
// identity is resolved again so a user removed from both stores cannot
// renew.
func (s *Service) Renew(ctx context.Context, subject string, meta RequestMeta) (Session, error) {
	id, err := s.resolver.Resolve(ctx, subject)
	if err != nil {
		return Session{}, err
	}
	tok, err := s.manager.Issue(s.clock(), id.Subject(), 0)
	if err != nil {
		return Session{}, err
	}
	uc := rbac.NewUserContext(id)

	s.observe(metrics.OutcomeRenewed)
	s.log.DebugContext(ctx, "session renewed", "code", uc.Code(), "role", uc.Role)
	if s.events != nil {
		s.events.SessionRenewed(ctx, uc.Code(), uc.Role, meta.IP, meta.RequestID)
	}
	return Session{Token: tok, User: uc}, nil
}

func (s *Service) fail(ctx context.Context, subject string, err error, meta RequestMeta) {
	s.observe(metrics.OutcomeLoginFailed)
	if errors.Is(err, identity.ErrUpstreamUnavailable) {
		s.log.ErrorContext(ctx, "login lookup failed", "code", subject, "err", err)
	} else {
		s.log.InfoContext(ctx, "login rejected", "code", subject, "err", err)
	}
	if s.events != nil {
		s.events.LoginFailed(ctx, subject, err.Error(), meta.IP, meta.RequestID)
	}
}

func (s *Service) observe(outcome string) {
	if s.observer != nil {
		s.observer.ObserveAuth(outcome)
	}
}
