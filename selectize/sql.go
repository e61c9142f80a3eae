// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package selectize

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
)

// identRe restricts configurable identifiers to plain SQL names, since they
// are interpolated into query text.
var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLConfig names the table and columns an SQLSource reads. IDColumn
// doubles as the ordering key unless OrderColumn overrides it.
type SQLConfig struct {
	Table       string
	IDColumn    string // default "id"
	LabelColumn string
	OrderColumn string // default IDColumn
}

// SQLSource answers autocomplete queries with a LIKE filter over a single
// table, newest rows first.
type SQLSource struct {
	db          *sql.DB
	searchQuery string
	countQuery  string
}

var _ Searcher = (*SQLSource)(nil)

// NewSQLSource validates cfg and prepares the query text.
func NewSQLSource(db *sql.DB, cfg SQLConfig) (*SQLSource, error) {
	if db == nil {
		return nil, fmt.Errorf("selectize: nil db")
	}
	if cfg.IDColumn == "" {
		cfg.IDColumn = "id"
	}
	if cfg.OrderColumn == "" {
		cfg.OrderColumn = cfg.IDColumn
	}
	for _, ident := range []string{cfg.Table, cfg.IDColumn, cfg.LabelColumn, cfg.OrderColumn} {
		if !identRe.MatchString(ident) {
			return nil, fmt.Errorf("selectize: invalid identifier %q", ident)
		}
	}
	return &SQLSource{
		db: db,
		searchQuery: fmt.Sprintf(
			`SELECT %s, %s FROM %s WHERE %s LIKE ? ESCAPE '\' ORDER BY %s DESC LIMIT ?`,
			cfg.IDColumn, cfg.LabelColumn, cfg.Table, cfg.LabelColumn, cfg.OrderColumn,
		),
		countQuery: fmt.Sprintf(`SELECT COUNT(*) FROM %s`, cfg.Table),
	}, nil
}

// Search implements Searcher.
func (s *SQLSource) Search(ctx context.Context, query string, limit int) ([]Item, error) {
	if limit <= 0 {
		return []Item{}, nil
	}
	rows, err := s.db.QueryContext(ctx, s.searchQuery, likePattern(query), limit)
	if err != nil {
		return nil, fmt.Errorf("selectize: search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]Item, 0, limit)
	for rows.Next() {
		var (
			id    any
			label string
		)
		if err := rows.Scan(&id, &label); err != nil {
			return nil, fmt.Errorf("selectize: scan: %w", err)
		}
		if b, ok := id.([]byte); ok {
			id = string(b)
		}
		items = append(items, Item{ID: id, Label: label})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("selectize: search: %w", err)
	}
	return items, nil
}

// TotalCount implements Searcher.
func (s *SQLSource) TotalCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, s.countQuery).Scan(&n); err != nil {
		return 0, fmt.Errorf("selectize: count: %w", err)
	}
	return n, nil
}

// likePattern wraps query in wildcards, escaping LIKE metacharacters so a
// literal "%" in the query does not widen the match.
func likePattern(query string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(query)) + "%"
}
