package photo

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// MD5Hasher computes MD5 content fingerprints by streaming file bytes.
// MD5 is used as a dedup key, not for security.
type MD5Hasher struct{}

// NewMD5Hasher creates an MD5Hasher.
func NewMD5Hasher() *MD5Hasher { return &MD5Hasher{} }

// HashFile returns the lowercase hex MD5 digest of the file contents.
func (h *MD5Hasher) HashFile(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening file for hashing: %w", err)
	}
	defer f.Close()

	sum := md5.New()
	if _, err := io.Copy(sum, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(sum.Sum(nil)), nil
}

// Compile-time check that MD5Hasher implements Hasher
var _ Hasher = (*MD5Hasher)(nil)
