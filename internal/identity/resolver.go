package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// PrimaryStore is the authoritative user table. FindByCode returns
// ErrNotFound on a miss and any other error when the store is unreachable.
type PrimaryStore interface {
	FindByCode(ctx context.Context, code string) (Primary, error)
}

// DirectoryStore is the read-only employee directory.
type DirectoryStore interface {
	FindEmployee(ctx context.Context, code string) (Directory, error)
}

// PhotoURLBuilder yields a photo URL without any network round trip.
type PhotoURLBuilder interface {
	PhotoURL(code string) string
}

// Observer receives one call per successful or failed lookup.
type Observer interface {
	ObserveLookup(source string)
}

// Resolver turns a subject code into an Identity. It holds no per-subject
// state; every call reads both stores afresh.
type Resolver struct {
	primary   PrimaryStore
	directory DirectoryStore
	photos    PhotoURLBuilder
	observer  Observer
	log       *slog.Logger
}

type ResolverOption func(*Resolver)

func WithPhotoURLs(b PhotoURLBuilder) ResolverOption {
	return func(r *Resolver) { r.photos = b }
}

func WithObserver(o Observer) ResolverOption {
	return func(r *Resolver) { r.observer = o }
}

func WithLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

func NewResolver(primary PrimaryStore, directory DirectoryStore, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		primary:   primary,
		directory: directory,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve looks the subject up in the primary store first. The directory is
// consulted only on a primary miss. A store failure is returned wrapped in
// ErrUpstreamUnavailable, never collapsed into ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, code string) (Identity, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrNotFound
	}

	p, err := r.primary.FindByCode(ctx, code)
	switch {
	case err == nil:
		r.observe(string(SourcePrimary))
		r.log.DebugContext(ctx, "identity resolved", "code", code, "source", SourcePrimary, "role", p.Role)
		return p, nil
	case !errors.Is(err, ErrNotFound):
		r.observe("primary_error")
		r.log.ErrorContext(ctx, "primary store lookup failed", "code", code, "err", err)
		return nil, fmt.Errorf("%w: primary store: %v", ErrUpstreamUnavailable, err)
	}

	if r.directory == nil {
		r.observe("miss")
		return nil, ErrNotFound
	}

	d, err := r.directory.FindEmployee(ctx, code)
	switch {
	case err == nil:
		if d.PhotoURL == "" && r.photos != nil {
			d.PhotoURL = r.photos.PhotoURL(d.Code)
		}
		r.observe(string(SourceDirectory))
		r.log.InfoContext(ctx, "identity resolved", "code", code, "source", SourceDirectory, "cost_center", d.CostCenter)
		return d, nil
	case errors.Is(err, ErrNotFound):
		r.observe("miss")
		r.log.WarnContext(ctx, "identity not found in any store", "code", code)
		return nil, ErrNotFound
	default:
		r.observe("directory_error")
		r.log.ErrorContext(ctx, "directory lookup failed", "code", code, "err", err)
		return nil, fmt.Errorf("%w: directory: %v", ErrUpstreamUnavailable, err)
	}
}

func (r *Resolver) observe(source string) {
	if r.observer != nil {
		r.observer.ObserveLookup(source)
	}
}
