package testutil

import (
	"context"
	"fmt"
	"sync"

	"photodex/internal/model"
	"photodex/internal/photo"
)

// FakeExtractor returns scripted metadata keyed by file path, and counts
// extraction calls per path. Safe for concurrent use.
type FakeExtractor struct {
	mu      sync.Mutex
	photos  map[string]*model.Photo
	errs    map[string]error
	perPath map[string]int
}

// NewFakeExtractor creates a fake extractor with no scripted metadata.
func NewFakeExtractor() *FakeExtractor {
	return &FakeExtractor{
		photos:  make(map[string]*model.Photo),
		errs:    make(map[string]error),
		perPath: make(map[string]int),
	}
}

// Script registers the metadata to return for a path. The returned Photo
// is copied on every extraction so callers can mutate results freely.
func (e *FakeExtractor) Script(path string, p *model.Photo) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.photos[path] = p
}

// ScriptError registers an extraction failure for a path.
func (e *FakeExtractor) ScriptError(path string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errs[path] = err
}

// CallsFor returns how many times the path was extracted.
func (e *FakeExtractor) CallsFor(path string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.perPath[path]
}

// TotalCalls returns the total number of extraction calls.
func (e *FakeExtractor) TotalCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	total := 0
	for _, n := range e.perPath {
		total += n
	}
	return total
}

func (e *FakeExtractor) ExtractPhoto(ctx context.Context, path string) (*model.Photo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.perPath[path]++

	if err, ok := e.errs[path]; ok {
		return nil, err
	}
	p, ok := e.photos[path]
	if !ok {
		return nil, fmt.Errorf("no scripted metadata for %s", path)
	}
	copied := *p
	copied.Path = path
	return &copied, nil
}

// Compile-time check that FakeExtractor implements the interface
var _ photo.MetadataExtractor = (*FakeExtractor)(nil)
