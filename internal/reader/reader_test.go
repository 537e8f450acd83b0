package reader_test

import (
	"context"
	"image"
	"image/color"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"

	"photodex/internal/reader"
)

func TestBase64PhotoReader(t *testing.T) {
	r := reader.NewBase64PhotoReader(nil)

	t.Run("generic placeholder is a data URI", func(t *testing.T) {
		src := r.GetGenericImageSrc()
		if !strings.HasPrefix(src, "data:image/") {
			t.Errorf("GetGenericImageSrc() = %q, want a data URI", src)
		}
	})

	t.Run("encodes an image as a jpeg data URI", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "photo.jpg")
		img := image.NewRGBA(image.Rect(0, 0, 600, 400))
		for x := 0; x < 600; x++ {
			for y := 0; y < 400; y++ {
				img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 40, A: 255})
			}
		}
		if err := imaging.Save(img, path); err != nil {
			t.Fatal(err)
		}

		src, err := r.GetImgSrc(context.Background(), path)
		if err != nil {
			t.Fatalf("GetImgSrc() error = %v", err)
		}
		if !strings.HasPrefix(src, "data:image/jpeg;base64,") {
			t.Errorf("GetImgSrc() = %.40q..., want a jpeg data URI", src)
		}
	})

	t.Run("unsupported extension returns empty without error", func(t *testing.T) {
		src, err := r.GetImgSrc(context.Background(), "/photos/clip.mp4")
		if err != nil {
			t.Fatalf("GetImgSrc() error = %v", err)
		}
		if src != "" {
			t.Errorf("GetImgSrc() = %q, want empty", src)
		}
	})

	t.Run("missing file returns empty without error", func(t *testing.T) {
		src, err := r.GetImgSrc(context.Background(), "/no/such/photo.jpg")
		if err != nil {
			t.Fatalf("GetImgSrc() error = %v", err)
		}
		if src != "" {
			t.Errorf("GetImgSrc() = %q, want empty", src)
		}
	})
}
