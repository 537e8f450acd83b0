// Package reader renders photo files into base64 data URIs suitable for
// embedding in display surfaces. Thumbnails are produced with the imaging
// library so a multi-megabyte original never crosses the wire.
package reader

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"photodex/internal/photo"
)

const (
	thumbnailWidth = 460

	// genericImageSrc is a 1x1 neutral grey PNG used when a file cannot be
	// rendered. Keeping it inline avoids shipping an asset file.
	genericImageSrc = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mOsqan5DwAFCAJS0nP/wwAAAABJRU5ErkJggg=="
)

// displayableExtensions are the formats the imaging decoder handles. HEIC
// and video files fall back to the generic placeholder.
var displayableExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".tiff": true,
}

// Base64PhotoReader implements photo.PhotoReader by decoding images from
// disk, resizing them to thumbnail width and encoding them as JPEG data URIs.
type Base64PhotoReader struct {
	logger photo.Logger
}

func NewBase64PhotoReader(logger photo.Logger) *Base64PhotoReader {
	if logger == nil {
		logger = photo.NopLogger{}
	}
	return &Base64PhotoReader{logger: logger}
}

func (r *Base64PhotoReader) GetGenericImageSrc() string {
	return genericImageSrc
}

func (r *Base64PhotoReader) GetImgSrc(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !displayableExtensions[ext] {
		return "", nil
	}
	if _, err := os.Stat(path); err != nil {
		return "", nil
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		r.logger.Warn("could not decode image", "path", path, "error", err)
		return "", fmt.Errorf("decoding image %s: %w", path, err)
	}

	// Width-constrained resize; height 0 preserves the aspect ratio.
	thumb := imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return "", fmt.Errorf("encoding thumbnail for %s: %w", path, err)
	}

	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Compile-time check that Base64PhotoReader implements photo.PhotoReader
var _ photo.PhotoReader = (*Base64PhotoReader)(nil)
