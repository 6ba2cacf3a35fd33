package audit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
// It is append-only; there are no Update or Delete methods.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service records authentication events. Audit is internal-only.
type Service struct {
	repo  Repository
	clock func() time.Time
	log   *slog.Logger
}

func NewService(repo Repository, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, clock: time.Now, log: log}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

// Record appends e and logs, rather than returns, any failure.
func (s *Service) Record(ctx context.Context, e Event) {
	if s == nil {
		return
	}
	if err := s.Append(ctx, e); err != nil {
		s.log.WarnContext(ctx, "audit append failed", "type", e.Type, "subject", e.Subject, "err", err)
	}
}

func (s *Service) LoginSucceeded(ctx context.Context, subject, role, source, ip, requestID string) {
	s.Record(ctx, Event{
		Type:      EventTypeLoginSucceeded,
		Subject:   subject,
		ActorRole: role,
		Source:    source,
		IPAddress: ip,
		RequestID: requestID,
	})
}

func (s *Service) LoginFailed(ctx context.Context, subject, reason, ip, requestID string) {
	s.Record(ctx, Event{
		Type:      EventTypeLoginFailed,
		Subject:   subject,
		IPAddress: ip,
		RequestID: requestID,
		Message:   reason,
	})
}

func (s *Service) SessionRenewed(ctx context.Context, subject, role, ip, requestID string) {
	s.Record(ctx, Event{
		Type:      EventTypeSessionRenewed,
		Subject:   subject,
		ActorRole: role,
		IPAddress: ip,
		RequestID: requestID,
	})
}

func (s *Service) AccessDenied(ctx context.Context, subject, role, ip, requestID, message string) {
	s.Record(ctx, Event{
		Type:      EventTypeAccessDenied,
		Subject:   subject,
		ActorRole: role,
		IPAddress: ip,
		RequestID: requestID,
		Message:   message,
	})
}
