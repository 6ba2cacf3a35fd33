// Package renewal keeps a client session alive by refreshing its token
// shortly before expiry, and tears the session down when refresh fails.
package renewal

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Token is a session token as seen by a client.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Renewer exchanges the current token for a fresh one.
type Renewer interface {
	Renew(ctx context.Context, current string) (Token, error)
}

// TokenStore persists the client's credentials.
type TokenStore interface {
	Load() (Token, bool)
	Save(Token)
	Clear()
}

// Notifier tells the user that the session is over.
type Notifier interface {
	SessionExpired(message string)
}

// Navigator sends the user back to the login screen.
type Navigator interface {
	RedirectToLogin()
}

// Timer is the subset of *time.Timer the scheduler needs.
type Timer interface {
	Stop() bool
}

// Clock abstracts time so tests can fire timers deterministically.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

const ExpiredMessage = "Your session has expired. Please sign in again."

type Config struct {
	// Margin is how long before expiry the renewal fires.
	Margin time.Duration
	// MaxAttempts is the number of consecutive failed renewals that end
	// the session.
	MaxAttempts int
	// RetryDelay separates consecutive attempts.
	RetryDelay time.Duration
	// TeardownDelay separates the expiry notice from clearing credentials.
	TeardownDelay time.Duration
	// RenewTimeout bounds a single renewal call.
	RenewTimeout time.Duration
}

func (c Config) withDefaults() Config {
	out := c
	if out.Margin <= 0 {
		out.Margin = 10 * time.Minute
	}
	if out.MaxAttempts <= 0 {
		out.MaxAttempts = 2
	}
	if out.RetryDelay <= 0 {
		out.RetryDelay = 30 * time.Second
	}
	if out.TeardownDelay <= 0 {
		out.TeardownDelay = 3 * time.Second
	}
	if out.RenewTimeout <= 0 {
		out.RenewTimeout = 15 * time.Second
	}
	return out
}

var ErrNoToken = errors.New("renewal: no stored token")

// Scheduler holds at most one pending timer. Re-arming replaces it
// atomically; a callback from a replaced timer is ignored.
type Scheduler struct {
	cfg      Config
	renewer  Renewer
	store    TokenStore
	notifier Notifier
	nav      Navigator
	clock    Clock
	log      *slog.Logger

	mu       sync.Mutex
	timer    Timer
	gen      uint64
	failures int
	running  bool
	tornDown bool
}

type Option func(*Scheduler)

func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

func New(cfg Config, renewer Renewer, store TokenStore, notifier Notifier, nav Navigator, opts ...Option) *Scheduler {
	s := &Scheduler{
		cfg:      cfg.withDefaults(),
		renewer:  renewer,
		store:    store,
		notifier: notifier,
		nav:      nav,
		clock:    realClock{},
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start arms the scheduler from the stored token.
func (s *Scheduler) Start() error {
	tok, ok := s.store.Load()
	if !ok || tok.Value == "" {
		return ErrNoToken
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
	s.tornDown = false
	s.failures = 0
	s.armLocked(s.delayUntilRenewal(tok.ExpiresAt))
	return nil
}

// Reschedule stores tok and re-arms from its expiry, for example after a
// login completed elsewhere in the client.
func (s *Scheduler) Reschedule(tok Token) {
	s.store.Save(tok)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
	s.tornDown = false
	s.failures = 0
	s.armLocked(s.delayUntilRenewal(tok.ExpiresAt))
}

// Stop cancels any pending timer. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Pending reports whether a timer is armed.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

func (s *Scheduler) delayUntilRenewal(exp time.Time) time.Duration {
	d := exp.Add(-s.cfg.Margin).Sub(s.clock.Now())
	if d < 0 {
		return 0
	}
	return d
}

func (s *Scheduler) armLocked(d time.Duration) {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.timer = s.clock.AfterFunc(d, func() { s.fire(gen) })
}

func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	if !s.running || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()

	tok, ok := s.store.Load()
	var (
		fresh Token
		err   error
	)
	if !ok || tok.Value == "" {
		err = ErrNoToken
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RenewTimeout)
		fresh, err = s.renewer.Renew(ctx, tok.Value)
		cancel()
	}

	s.mu.Lock()
	if !s.running || gen != s.gen {
		s.mu.Unlock()
		return
	}

	if err == nil {
		s.failures = 0
		s.store.Save(fresh)
		s.armLocked(s.delayUntilRenewal(fresh.ExpiresAt))
		s.mu.Unlock()
		s.log.Debug("session renewed", "expires_at", fresh.ExpiresAt)
		return
	}

	s.failures++
	s.log.Warn("session renewal failed", "attempt", s.failures, "max_attempts", s.cfg.MaxAttempts, "err", err)
	if s.failures < s.cfg.MaxAttempts && !errors.Is(err, ErrNoToken) {
		s.armLocked(s.cfg.RetryDelay)
		s.mu.Unlock()
		return
	}
	notify := s.teardownLocked()
	s.mu.Unlock()

	if notify {
		s.notifier.SessionExpired(ExpiredMessage)
	}
}

// teardownLocked arms the credential wipe and reports whether the caller
// must show the expiry notice. It runs at most once per session.
func (s *Scheduler) teardownLocked() bool {
	if s.tornDown {
		return false
	}
	s.tornDown = true

	s.gen++
	gen := s.gen
	s.timer = s.clock.AfterFunc(s.cfg.TeardownDelay, func() {
		s.mu.Lock()
		if gen != s.gen {
			s.mu.Unlock()
			return
		}
		s.timer = nil
		s.running = false
		s.mu.Unlock()

		s.store.Clear()
		s.nav.RedirectToLogin()
	})
	return true
}
