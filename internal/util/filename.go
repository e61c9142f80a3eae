// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util provides filename and path helpers shared by the storage
// and upload packages.
package util

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// unsafeChars matches everything that is not safe inside a stored filename.
var unsafeChars = func(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	case r == '-' || r == '_' || r == '.':
		return false
	}
	return true
}

// CleanFilename strips directory components from an uploaded filename and
// folds it to a filesystem-safe form: accents are decomposed and removed,
// spaces become underscores, and any remaining unsafe character is replaced
// with an underscore. Returns an error when nothing usable remains.
func CleanFilename(name string) (string, error) {
	base := filepath.Base(name)
	if base == "." || base == ".." || base == "" || base == string(filepath.Separator) {
		return "", fmt.Errorf("invalid filename: %q", name)
	}

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, base)
	if err != nil {
		folded = base
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unsafeChars(r) {
			b.WriteRune('_')
			continue
		}
		b.WriteRune(r)
	}
	clean := strings.Trim(b.String(), "._")
	if clean == "" {
		return "", fmt.Errorf("invalid filename: %q", name)
	}
	return clean, nil
}

// SplitExt splits a filename into its stem and extension, keeping the dot
// with the extension. "report.final.pdf" yields ("report.final", ".pdf").
func SplitExt(name string) (stem, ext string) {
	ext = filepath.Ext(name)
	return strings.TrimSuffix(name, ext), ext
}

// TruncateRunes shortens s to at most n runes. Byte-based slicing would cut
// multi-byte characters in half.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
