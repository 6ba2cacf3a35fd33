package identity

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type fakePrimary struct {
	mu    sync.Mutex
	rows  map[string]Primary
	err   error
	calls int
}

func (f *fakePrimary) FindByCode(_ context.Context, code string) (Primary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return Primary{}, f.err
	}
	p, ok := f.rows[code]
	if !ok {
		return Primary{}, ErrNotFound
	}
	return p, nil
}

type fakeDirectory struct {
	mu    sync.Mutex
	rows  map[string]Directory
	err   error
	calls int
}

func (f *fakeDirectory) FindEmployee(_ context.Context, code string) (Directory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return Directory{}, f.err
	}
	d, ok := f.rows[code]
	if !ok {
		return Directory{}, ErrNotFound
	}
	return d, nil
}

type countingObserver struct {
	mu   sync.Mutex
	seen map[string]int
}

func (o *countingObserver) ObserveLookup(source string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.seen == nil {
		o.seen = map[string]int{}
	}
	o.seen[source]++
}

func TestResolve_PrimaryWinsOverDirectory(t *testing.T) {
	p := &fakePrimary{rows: map[string]Primary{"100": {Profile: Profile{Code: "100", Name: "Ana"}, Role: "admin"}}}
	d := &fakeDirectory{rows: map[string]Directory{"100": {Profile: Profile{Code: "100", Name: "Ana D"}}}}
	r := NewResolver(p, d)

	id, err := r.Resolve(context.Background(), "100")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	got, ok := id.(Primary)
	if !ok || got.Role != "admin" || got.Name != "Ana" {
		t.Fatalf("expected primary identity, got %#v", id)
	}
	if d.calls != 0 {
		t.Fatalf("directory must not be consulted on primary hit")
	}
}

func TestResolve_DirectoryOnPrimaryMiss(t *testing.T) {
	p := &fakePrimary{rows: map[string]Primary{}}
	d := &fakeDirectory{rows: map[string]Directory{"200": {Profile: Profile{Code: "200", Name: "Luis"}, CostCenter: "Tecnicos de Mantenimiento"}}}
	obs := &countingObserver{}
	r := NewResolver(p, d, WithPhotoURLs(StaticPhotoURL{BaseURL: "https://photos.example/emp"}), WithObserver(obs))

	id, err := r.Resolve(context.Background(), " 200 ")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	got, ok := id.(Directory)
	if !ok {
		t.Fatalf("expected directory identity, got %#v", id)
	}
	if got.Type() != UserTypeMaintenanceDirectory || got.Source() != SourceDirectory {
		t.Fatalf("unexpected tags: %s %s", got.Type(), got.Source())
	}
	if got.PhotoURL != "https://photos.example/emp/200.jpg" {
		t.Fatalf("unexpected photo url: %s", got.PhotoURL)
	}
	if obs.seen["directory"] != 1 {
		t.Fatalf("expected one directory observation, got %v", obs.seen)
	}
}

func TestResolve_BothMiss(t *testing.T) {
	r := NewResolver(&fakePrimary{}, &fakeDirectory{})
	if _, err := r.Resolve(context.Background(), "300"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := r.Resolve(context.Background(), "  "); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for blank code, got %v", err)
	}
}

func TestResolve_StoreFailureIsNotNotFound(t *testing.T) {
	p := &fakePrimary{err: errors.New("connection refused")}
	d := &fakeDirectory{rows: map[string]Directory{"400": {Profile: Profile{Code: "400"}}}}
	r := NewResolver(p, d)

	_, err := r.Resolve(context.Background(), "400")
	if !errors.Is(err, ErrUpstreamUnavailable) || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected upstream unavailable, got %v", err)
	}
	if d.calls != 0 {
		t.Fatalf("directory must not mask a primary failure")
	}

	r = NewResolver(&fakePrimary{}, &fakeDirectory{err: errors.New("timeout")})
	if _, err := r.Resolve(context.Background(), "400"); !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected upstream unavailable from directory, got %v", err)
	}
}

func TestResolve_NoCrossRequestState(t *testing.T) {
	p := &fakePrimary{rows: map[string]Primary{"1": {Profile: Profile{Code: "1", Name: "One"}}}}
	d := &fakeDirectory{rows: map[string]Directory{"2": {Profile: Profile{Code: "2", Name: "Two"}}}}
	r := NewResolver(p, d)

	var wg sync.WaitGroup
	errs := make(chan error, 200)
	for i := 0; i < 100; i++ {
		for _, code := range []string{"1", "2"} {
			wg.Add(1)
			go func(code string) {
				defer wg.Done()
				id, err := r.Resolve(context.Background(), code)
				if err != nil {
					errs <- err
					return
				}
				if id.Subject() != code {
					errs <- errors.New("resolved " + id.Subject() + " for " + code)
				}
			}(code)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent resolve: %v", err)
	}

	// A role change in the store is visible on the very next call.
	p.mu.Lock()
	p.rows["1"] = Primary{Profile: Profile{Code: "1"}, Role: "admin"}
	p.mu.Unlock()
	id, _ := r.Resolve(context.Background(), "1")
	if id.(Primary).Role != "admin" {
		t.Fatalf("expected fresh read")
	}
}
