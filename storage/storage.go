// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package storage abstracts the file store uploads land in. Names are
// slash-separated paths relative to the store root.
package storage

import "io"

// Storage is the backend contract the upload pipeline works against.
type Storage interface {
	// Save writes r under name, creating parent directories as needed,
	// and reports the number of bytes written.
	Save(name string, r io.Reader) (int64, error)
	// Open returns the stored content for reading.
	Open(name string) (io.ReadCloser, error)
	// Size reports the stored size in bytes.
	Size(name string) (int64, error)
	// Remove deletes the stored file.
	Remove(name string) error
	// URL returns the public URL the content is served under.
	URL(name string) string
	// Location returns the filesystem root for filesystem-backed stores,
	// "" otherwise.
	Location() string
}
