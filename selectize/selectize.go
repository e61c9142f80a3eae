// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package selectize provides the option sources behind searchable select
// fields: autocomplete queries run against a Searcher and return a capped,
// newest-first slice of items.
package selectize

import "context"

// DefaultMaxPrefetch caps the number of options returned for a single
// autocomplete query when the field does not configure its own limit.
const DefaultMaxPrefetch = 250

// Item is one selectable option. ID carries whatever key the source is
// configured with, usually the primary key.
type Item struct {
	ID    any    `json:"id"`
	Label string `json:"label"`
}

// Searcher is the capability a field must provide to answer autocomplete
// queries. Search returns at most limit items matching query
// case-insensitively, ordered by a stable descending key (newest first).
// TotalCount reports the unfiltered collection size.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]Item, error)
	TotalCount(ctx context.Context) (int, error)
}

// Result is the JSON payload an autocomplete query answers with. Count is
// the number of items actually returned, after capping.
type Result struct {
	Query      string `json:"query"`
	Count      int    `json:"count"`
	TotalCount int    `json:"total_count"`
	Items      []Item `json:"items"`
}

// Query runs query against src and assembles the response payload.
func Query(ctx context.Context, src Searcher, query string, limit int) (*Result, error) {
	if limit <= 0 {
		limit = DefaultMaxPrefetch
	}
	items, err := src.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Item{}
	}
	total, err := src.TotalCount(ctx)
	if err != nil {
		return nil, err
	}
	return &Result{
		Query:      query,
		Count:      len(items),
		TotalCount: total,
		Items:      items,
	}, nil
}
