// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package storage

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/olegiv/formset-go/internal/util"
)

// Local stores files under a directory on the local filesystem and serves
// them under a public base URL.
type Local struct {
	root    string
	baseURL string
}

var _ Storage = (*Local)(nil)

// NewLocal creates the root directory when absent. baseURL is the public
// prefix stored names are appended to, e.g. "/media".
func NewLocal(root, baseURL string) (*Local, error) {
	if root == "" {
		return nil, fmt.Errorf("storage root must not be empty")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating storage root: %w", err)
	}
	return &Local{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (l *Local) path(name string) (string, error) {
	p, err := util.SafeJoin(l.root, name)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return p, nil
}

// Save writes r to name inside the store, creating parent directories.
func (l *Local) Save(name string, r io.Reader) (int64, error) {
	full, err := l.path(name)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return 0, fmt.Errorf("creating directory for %q: %w", name, err)
	}
	f, err := os.Create(full)
	if err != nil {
		return 0, fmt.Errorf("creating %q: %w", name, err)
	}
	written, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return written, fmt.Errorf("writing %q: %w", name, err)
	}
	return written, nil
}

// Open opens the stored file for reading.
func (l *Local) Open(name string) (io.ReadCloser, error) {
	full, err := l.path(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return f, err
}

// Size reports the stored file size.
func (l *Local) Size(name string) (int64, error) {
	full, err := l.path(name)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(full)
	if os.IsNotExist(err) {
		return 0, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Remove deletes the stored file.
func (l *Local) Remove(name string) error {
	full, err := l.path(name)
	if err != nil {
		return err
	}
	err = os.Remove(full)
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return err
}

// URL joins the public base URL with the slash-normalized name.
func (l *Local) URL(name string) string {
	return l.baseURL + "/" + path.Clean(strings.TrimLeft(name, "/"))
}

// Location returns the store's filesystem root.
func (l *Local) Location() string {
	return l.root
}
