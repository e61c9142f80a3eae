// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package upload receives multipart file uploads into a temporary storage
// area and describes them to the client: signed reference, URLs, preview.
package upload

import (
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/formset-go/internal/util"
	"github.com/olegiv/formset-go/signing"
	"github.com/olegiv/formset-go/storage"
)

var (
	// ErrEmptyFile is returned for an upload without content.
	ErrEmptyFile = errors.New("empty upload")
	// ErrBadName is returned when nothing usable is left of the uploaded
	// filename after sanitizing.
	ErrBadName = errors.New("unusable filename")
	// ErrSizeMismatch is returned when the stored byte count differs from
	// the upload's declared size. It indicates data corruption and is never
	// ignored.
	ErrSizeMismatch = errors.New("stored size does not match upload size")
	// ErrBadReference is returned by Promote for references that fail
	// signature verification or point outside the temp area.
	ErrBadReference = errors.New("invalid upload reference")
)

// Config carries the upload knobs. The zero value gets sensible defaults
// from NewReceiver.
type Config struct {
	// TempDir is the storage-relative directory uploads land in.
	TempDir string
	// FilenameMaxLength caps the display name in the descriptor, in runes.
	FilenameMaxLength int
	// ThumbnailMaxWidth and ThumbnailMaxHeight bound generated previews.
	ThumbnailMaxWidth  int
	ThumbnailMaxHeight int
	// IconBaseURL is the public prefix the file-*.svg fallback icons are
	// served under.
	IconBaseURL string
}

func (c Config) withDefaults() Config {
	if c.TempDir == "" {
		c.TempDir = "upload_temp"
	}
	if c.FilenameMaxLength <= 0 {
		c.FilenameMaxLength = 50
	}
	if c.ThumbnailMaxWidth <= 0 {
		c.ThumbnailMaxWidth = 400
	}
	if c.ThumbnailMaxHeight <= 0 {
		c.ThumbnailMaxHeight = 200
	}
	c.IconBaseURL = strings.TrimRight(c.IconBaseURL, "/")
	return c
}

// Descriptor is the JSON payload describing a received upload. The client
// holds on to it and sends it back inside the final form submission;
// UploadTempName is the only part the server trusts, and only after
// signature verification.
type Descriptor struct {
	UploadTempName   string            `json:"upload_temp_name"`
	ContentType      string            `json:"content_type"`
	ContentTypeExtra map[string]string `json:"content_type_extra"`
	Name             string            `json:"name"`
	DownloadURL      string            `json:"download_url"`
	ThumbnailURL     string            `json:"thumbnail_url"`
	Size             int64             `json:"size"`
}

// Receiver copies uploads into the temp area of a store and builds their
// descriptors.
type Receiver struct {
	cfg    Config
	store  storage.Storage
	signer *signing.Signer
	thumbs *Thumbnailer
	log    *slog.Logger
}

// NewReceiver wires a receiver. The signer should be dedicated to upload
// references (its own salt) so signed temp names are not interchangeable
// with other signed values.
func NewReceiver(cfg Config, store storage.Storage, signer *signing.Signer, log *slog.Logger) *Receiver {
	if log == nil {
		log = slog.Default()
	}
	cfg = cfg.withDefaults()
	return &Receiver{
		cfg:    cfg,
		store:  store,
		signer: signer,
		thumbs: NewThumbnailer(store, cfg.ThumbnailMaxWidth, cfg.ThumbnailMaxHeight, cfg.IconBaseURL+"/file-picture.svg", log),
		log:    log,
	}
}

// Config returns the effective configuration.
func (r *Receiver) Config() Config { return r.cfg }

// Receive copies the uploaded file into the temp area under a
// collision-resistant name and returns its descriptor. imageHeight is the
// client's requested preview height in pixels; previews fall back to the
// configured maximum when it is absent or unparsable.
func (r *Receiver) Receive(fh *multipart.FileHeader, imageHeight string) (*Descriptor, error) {
	if fh.Size == 0 {
		return nil, ErrEmptyFile
	}
	clean, err := util.CleanFilename(fh.Filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrBadName, fh.Filename)
	}

	stem, ext := util.SplitExt(clean)
	rel := path.Join(r.cfg.TempDir, fmt.Sprintf("%s.%s%s", stem, uuid.New().String(), ext))

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("opening upload %q: %w", fh.Filename, err)
	}
	written, err := r.store.Save(rel, src)
	_ = src.Close()
	if err != nil {
		return nil, fmt.Errorf("saving upload %q: %w", fh.Filename, err)
	}
	if written != fh.Size {
		return nil, fmt.Errorf("%w: wrote %d of %d bytes for %q", ErrSizeMismatch, written, fh.Size, rel)
	}

	contentType, extra := parseContentType(fh)
	downloadURL := r.store.URL(rel)

	return &Descriptor{
		UploadTempName:   r.signer.Sign(rel),
		ContentType:      contentType,
		ContentTypeExtra: extra,
		Name:             util.TruncateRunes(fh.Filename, r.cfg.FilenameMaxLength),
		DownloadURL:      downloadURL,
		ThumbnailURL:     r.previewURL(rel, contentType, imageHeight, downloadURL),
		Size:             fh.Size,
	}, nil
}

// previewURL picks the thumbnail for an upload: rendered preview for
// raster images, the original for SVG, a type icon for everything else.
func (r *Receiver) previewURL(rel, contentType, imageHeight, downloadURL string) string {
	major, sub, _ := strings.Cut(contentType, "/")
	if major == "image" {
		if sub == "svg+xml" {
			return downloadURL
		}
		return r.thumbs.ThumbnailURL(rel, imageHeight)
	}
	return r.iconURL(contentType)
}

// iconURL maps a content type to a shipped icon. Unrecognized or malformed
// types get the generic unknown icon rather than an error; the content type
// is client-supplied and not worth failing an upload over.
func (r *Receiver) iconURL(contentType string) string {
	major, sub, ok := strings.Cut(contentType, "/")
	if ok {
		switch major {
		case "audio", "font", "video":
			return fmt.Sprintf("%s/file-%s.svg", r.cfg.IconBaseURL, major)
		case "application":
			if sub == "zip" || sub == "pdf" {
				return fmt.Sprintf("%s/file-%s.svg", r.cfg.IconBaseURL, sub)
			}
		}
	}
	return r.cfg.IconBaseURL + "/file-unknown.svg"
}

// Promote moves a previously received upload out of the temp area into
// destDir, verifying the signed reference first. The promoted file keeps
// the sanitized original name, with the UUID infix stripped. Returns the
// new storage-relative name.
func (r *Receiver) Promote(signedTempName, destDir string) (string, error) {
	rel, err := r.signer.Unsign(signedTempName)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadReference, err)
	}
	if !strings.HasPrefix(rel, r.cfg.TempDir+"/") {
		return "", fmt.Errorf("%w: %q outside temp area", ErrBadReference, rel)
	}

	destRel := path.Join(destDir, stripUploadID(path.Base(rel)))
	src, err := r.store.Open(rel)
	if err != nil {
		return "", fmt.Errorf("opening temp upload %q: %w", rel, err)
	}
	_, err = r.store.Save(destRel, src)
	_ = src.Close()
	if err != nil {
		return "", fmt.Errorf("promoting %q: %w", rel, err)
	}
	if err := r.store.Remove(rel); err != nil {
		r.log.Warn("promote: temp file not removed", "name", rel, "err", err)
	}
	return destRel, nil
}

// PurgeOlderThan removes temp uploads (previews included) whose files are
// older than age. Returns the number of files removed. Requires a
// filesystem-backed store.
func (r *Receiver) PurgeOlderThan(age time.Duration) (int, error) {
	root := r.store.Location()
	if root == "" {
		return 0, fmt.Errorf("purge: storage has no filesystem location")
	}
	dir := filepath.Join(root, filepath.FromSlash(r.cfg.TempDir))
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("purge: %w", err)
	}

	cutoff := time.Now().Add(-age)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			r.log.Warn("purge: remove failed", "name", entry.Name(), "err", err)
			continue
		}
		removed++
	}
	return removed, nil
}

// parseContentType splits the upload part's Content-Type header into the
// media type and its parameters. A missing header falls back to
// application/octet-stream; an unparsable one is kept verbatim so the icon
// fallback can still take over downstream.
func parseContentType(fh *multipart.FileHeader) (string, map[string]string) {
	raw := fh.Header.Get("Content-Type")
	if raw == "" {
		return "application/octet-stream", map[string]string{}
	}
	mediaType, params, err := mime.ParseMediaType(raw)
	if err != nil {
		return raw, map[string]string{}
	}
	return mediaType, params
}

// stripUploadID removes the UUID segment Receive put between filename stem
// and extension. Names without one pass through unchanged.
func stripUploadID(base string) string {
	stem, ext := util.SplitExt(base)
	idx := strings.LastIndexByte(stem, '.')
	if idx < 0 {
		return base
	}
	if _, err := uuid.Parse(stem[idx+1:]); err != nil {
		return base
	}
	return stem[:idx] + ext
}
