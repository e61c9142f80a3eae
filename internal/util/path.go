// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"fmt"
	"path/filepath"
	"strings"
)

// EnsureWithinBase verifies that target resolves inside base after cleaning
// both paths. A trailing separator is appended to the base during the prefix
// check so "/uploads-evil" does not pass for base "/uploads".
func EnsureWithinBase(base, target string) error {
	absBase, err := filepath.Abs(filepath.Clean(base))
	if err != nil {
		return fmt.Errorf("invalid base path: %w", err)
	}
	absTarget, err := filepath.Abs(filepath.Clean(target))
	if err != nil {
		return fmt.Errorf("invalid target path: %w", err)
	}
	if absTarget != absBase && !strings.HasPrefix(absTarget, absBase+string(filepath.Separator)) {
		return fmt.Errorf("path escapes base directory")
	}
	return nil
}

// SafeJoin joins name onto base and rejects the result when it escapes base.
// name is a slash-separated storage name, not an OS path.
func SafeJoin(base, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty storage name")
	}
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("absolute storage name: %q", name)
	}
	joined := filepath.Join(base, filepath.FromSlash(name))
	if err := EnsureWithinBase(base, joined); err != nil {
		return "", fmt.Errorf("storage name %q: %w", name, err)
	}
	return joined, nil
}
