package audit

import "time"

// Event is an append-only record of an authentication or authorization
// decision.
//
// Invariants:
// - Events are never updated or deleted.
// - Secrets and tokens are never stored; Subject is the submitted code only.
// - Recording is best-effort; a failed append never changes a request outcome.
//
// Storage (Postgres): table auth_audit_events, INSERT-only.
type Event struct {
	ID   string    `json:"id" db:"id"`
	Type EventType `json:"type" db:"type"`

	// Subject is the code the event is about. For failed logins it is the
	// submitted code, which may not exist.
	Subject string `json:"subject,omitempty" db:"subject"`
	// ActorRole is the effective role at the time of the event.
	ActorRole string `json:"actor_role,omitempty" db:"actor_role"`
	// Source names the identity store that satisfied the lookup.
	Source string `json:"source,omitempty" db:"source"`

	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`
	RequestID string `json:"request_id,omitempty" db:"request_id"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeLoginSucceeded EventType = "login_succeeded"
	EventTypeLoginFailed    EventType = "login_failed"
	EventTypeSessionRenewed EventType = "session_renewed"
	EventTypeAccessDenied   EventType = "access_denied"
)
