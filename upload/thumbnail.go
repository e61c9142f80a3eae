// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package upload

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder

	"github.com/olegiv/formset-go/internal/util"
	"github.com/olegiv/formset-go/storage"
)

const thumbQuality = 80

// Thumbnailer produces a cropped preview next to a stored image. It never
// fails a request: whatever goes wrong, the caller gets the broken-image
// icon URL instead of an error.
type Thumbnailer struct {
	store       storage.Storage
	maxWidth    int
	maxHeight   int
	fallbackURL string
	log         *slog.Logger
}

// NewThumbnailer wires a thumbnailer against a store. fallbackURL is the
// broken-image icon served when a preview cannot be produced.
func NewThumbnailer(store storage.Storage, maxWidth, maxHeight int, fallbackURL string, log *slog.Logger) *Thumbnailer {
	if log == nil {
		log = slog.Default()
	}
	return &Thumbnailer{
		store:       store,
		maxWidth:    maxWidth,
		maxHeight:   maxHeight,
		fallbackURL: fallbackURL,
		log:         log,
	}
}

// ThumbnailURL renders a preview of the stored image name at the requested
// pixel height (the configured maximum when absent or unparsable), saves it
// alongside the original as <stem>_<w>x<h><ext> and returns its URL.
func (t *Thumbnailer) ThumbnailURL(name, requestedHeight string) string {
	rc, err := t.store.Open(name)
	if err != nil {
		t.log.Warn("thumbnail: open failed", "name", name, "err", err)
		return t.fallbackURL
	}
	data, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		t.log.Warn("thumbnail: read failed", "name", name, "err", err)
		return t.fallbackURL
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		t.log.Warn("thumbnail: decode failed", "name", name, "err", err)
		return t.fallbackURL
	}
	img = applyOrientation(img, readExifOrientation(bytes.NewReader(data)))

	bounds := img.Bounds()
	height := t.maxHeight
	if h, err := strconv.Atoi(strings.TrimSpace(requestedHeight)); err == nil && h > 0 {
		height = h
	}
	width := int(math.Round(float64(bounds.Dx()) * float64(height) / float64(bounds.Dy())))
	width = min(width, t.maxWidth)
	height = min(height, t.maxHeight)
	if width < 1 {
		width = 1
	}

	thumb := imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)

	stem, ext := util.SplitExt(name)
	format, outExt := encodeFormat(ext)
	encoded, err := encodeImage(thumb, format, thumbQuality)
	if err != nil {
		t.log.Warn("thumbnail: encode failed", "name", name, "err", err)
		return t.fallbackURL
	}

	thumbName := fmt.Sprintf("%s_%dx%d%s", stem, width, height, outExt)
	if _, err := t.store.Save(thumbName, bytes.NewReader(encoded)); err != nil {
		t.log.Warn("thumbnail: save failed", "name", thumbName, "err", err)
		return t.fallbackURL
	}
	return t.store.URL(thumbName)
}

// readExifOrientation reads the EXIF orientation tag, 1 (normal) when the
// data carries none.
func readExifOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	orientation, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return orientation
}

// applyOrientation bakes the EXIF orientation into the pixels. Values:
// 1 normal, 2 flip H, 3 rotate 180, 4 flip V, 5 rotate 90 CW + flip H,
// 6 rotate 90 CW, 7 rotate 90 CCW + flip H, 8 rotate 90 CCW.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.FlipH(imaging.Rotate270(img))
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.FlipH(imaging.Rotate90(img))
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// encodeFormat maps a filename extension to the encoder used for the
// thumbnail. Formats without a pure-Go encoder fall back to JPEG, and the
// thumbnail takes a .jpg suffix so the name matches the bytes.
func encodeFormat(ext string) (format, outExt string) {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		return "jpeg", ext
	case ".png":
		return "png", ext
	case ".gif":
		return "gif", ext
	default:
		return "jpeg", ".jpg"
	}
}

// encodeImage encodes img with the given format and JPEG quality.
func encodeImage(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case "jpeg":
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, err
		}
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
	case "gif":
		if err := gif.Encode(&buf, img, nil); err != nil {
			return nil, err
		}
	default:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
