// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package upload

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/olegiv/formset-go/storage"
)

func newThumbStore(t *testing.T) *storage.Local {
	t.Helper()
	store, err := storage.NewLocal(t.TempDir(), "/media")
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}
	return store
}

func savePNG(t *testing.T, store *storage.Local, name string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 10, G: 120, B: 10, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	if _, err := store.Save(name, &buf); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
}

func TestThumbnailDimensions(t *testing.T) {
	tests := []struct {
		name            string
		srcW, srcH      int
		requestedHeight string
		wantSuffix      string
		wantW, wantH    int
	}{
		{"requested height", 100, 50, "25", "_50x25.png", 50, 25},
		{"default height clamped", 100, 50, "", "_400x200.png", 400, 200},
		{"unparsable height", 100, 50, "abc", "_400x200.png", 400, 200},
		{"negative height", 100, 50, "-3", "_400x200.png", 400, 200},
		{"width clamped", 1000, 100, "100", "_400x100.png", 400, 100},
		{"both clamped independently", 100, 1000, "5000", "_400x200.png", 400, 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newThumbStore(t)
			savePNG(t, store, "pic.png", tt.srcW, tt.srcH)
			tn := NewThumbnailer(store, 400, 200, "/icons/file-picture.svg", nil)

			url := tn.ThumbnailURL("pic.png", tt.requestedHeight)
			if !strings.HasSuffix(url, tt.wantSuffix) {
				t.Fatalf("ThumbnailURL() = %q, want suffix %q", url, tt.wantSuffix)
			}

			rc, err := store.Open("pic" + tt.wantSuffix)
			if err != nil {
				t.Fatalf("Open(thumbnail) error = %v", err)
			}
			defer rc.Close()
			img, _, err := image.Decode(rc)
			if err != nil {
				t.Fatalf("decoding thumbnail: %v", err)
			}
			b := img.Bounds()
			if b.Dx() != tt.wantW || b.Dy() != tt.wantH {
				t.Errorf("thumbnail bounds = %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestThumbnailFallbacks(t *testing.T) {
	const fallback = "/icons/file-picture.svg"
	store := newThumbStore(t)
	if _, err := store.Save("garbage.png", strings.NewReader("not an image")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	tn := NewThumbnailer(store, 400, 200, fallback, nil)

	if got := tn.ThumbnailURL("missing.png", ""); got != fallback {
		t.Errorf("ThumbnailURL(missing) = %q, want %q", got, fallback)
	}
	if got := tn.ThumbnailURL("garbage.png", ""); got != fallback {
		t.Errorf("ThumbnailURL(garbage) = %q, want %q", got, fallback)
	}
}

// Formats without a pure-Go encoder are re-encoded as JPEG under a .jpg
// suffix, so the thumbnail's name matches its bytes.
func TestThumbnailForeignFormatBecomesJPEG(t *testing.T) {
	store := newThumbStore(t)
	savePNG(t, store, "pic.bmp", 100, 50) // PNG bytes, foreign extension
	tn := NewThumbnailer(store, 400, 200, "/icons/file-picture.svg", nil)

	url := tn.ThumbnailURL("pic.bmp", "25")
	if !strings.HasSuffix(url, "_50x25.jpg") {
		t.Errorf("ThumbnailURL() = %q, want suffix _50x25.jpg", url)
	}
}

func TestEncodeFormat(t *testing.T) {
	tests := []struct {
		ext        string
		wantFormat string
		wantExt    string
	}{
		{".png", "png", ".png"},
		{".jpg", "jpeg", ".jpg"},
		{".JPEG", "jpeg", ".JPEG"},
		{".gif", "gif", ".gif"},
		{".webp", "jpeg", ".jpg"},
		{"", "jpeg", ".jpg"},
	}
	for _, tt := range tests {
		format, ext := encodeFormat(tt.ext)
		if format != tt.wantFormat || ext != tt.wantExt {
			t.Errorf("encodeFormat(%q) = (%q, %q), want (%q, %q)",
				tt.ext, format, ext, tt.wantFormat, tt.wantExt)
		}
	}
}
