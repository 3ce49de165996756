package testsupport

import (
	"context"
	"sync"

	"pitchdna/internal/catalog"
)

// FakeCatalog is an in-memory catalog.Client keyed by catalog key.
type FakeCatalog struct {
	mu         sync.Mutex
	candidates map[string][]catalog.Candidate
	failures   map[string]error
	calls      map[string]int
}

// NewFakeCatalog returns an empty fake catalog.
func NewFakeCatalog() *FakeCatalog {
	return &FakeCatalog{
		candidates: make(map[string][]catalog.Candidate),
		failures:   make(map[string]error),
		calls:      make(map[string]int),
	}
}

// Add registers candidates returned for key.
func (f *FakeCatalog) Add(key string, candidates ...catalog.Candidate) *FakeCatalog {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.candidates[key] = append(f.candidates[key], candidates...)
	return f
}

// Fail makes every fetch of key return err.
func (f *FakeCatalog) Fail(key string, err error) *FakeCatalog {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[key] = err
	return f
}

// Fetch implements catalog.Client.
func (f *FakeCatalog) Fetch(ctx context.Context, key string) ([]catalog.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[key]++
	if err := f.failures[key]; err != nil {
		return nil, err
	}
	return append([]catalog.Candidate(nil), f.candidates[key]...), nil
}

// Calls reports how many times key was fetched.
func (f *FakeCatalog) Calls(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}
