// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package selectize

import (
	"context"
	"strings"
)

// MemorySource serves options from a static slice. Matching is a
// case-insensitive substring test on the label; results come back in
// reverse registration order, so the newest entries appear first, the same
// way a database-backed source orders by descending key.
type MemorySource struct {
	items []Item
}

var _ Searcher = (*MemorySource)(nil)

// NewMemorySource copies items into a new source.
func NewMemorySource(items []Item) *MemorySource {
	return &MemorySource{items: append([]Item(nil), items...)}
}

// Search implements Searcher.
func (m *MemorySource) Search(_ context.Context, query string, limit int) ([]Item, error) {
	if limit <= 0 {
		return []Item{}, nil
	}
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]Item, 0, min(limit, len(m.items)))
	for i := len(m.items) - 1; i >= 0 && len(out) < limit; i-- {
		item := m.items[i]
		if q == "" || strings.Contains(strings.ToLower(item.Label), q) {
			out = append(out, item)
		}
	}
	return out, nil
}

// TotalCount implements Searcher.
func (m *MemorySource) TotalCount(context.Context) (int, error) {
	return len(m.items), nil
}
