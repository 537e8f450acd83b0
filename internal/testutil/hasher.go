package testutil

import (
	"context"
	"fmt"

	"photodex/internal/photo"
)

// MockHasher fingerprints files by hashing their content in the mock
// filesystem, so identical bytes dedup the same way they do on disk.
type MockHasher struct {
	fsmgr *MockFilesystemManager
}

func NewMockHasher(fsmgr *MockFilesystemManager) *MockHasher {
	return &MockHasher{fsmgr: fsmgr}
}

func (h *MockHasher) HashFile(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f := h.fsmgr.File(path)
	if f == nil {
		return "", fmt.Errorf("file not found: %s", path)
	}
	return MD5Hex(f.Content), nil
}

// Compile-time check that MockHasher implements the interface
var _ photo.Hasher = (*MockHasher)(nil)
