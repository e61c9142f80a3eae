// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package forms declares forms as ordered sets of typed fields and
// validates JSON submissions against them.
package forms

import (
	"github.com/olegiv/formset-go/selectize"
)

// Field kinds.
const (
	KindText      = "text"
	KindTextarea  = "textarea"
	KindEmail     = "email"
	KindNumber    = "number"
	KindDate      = "date"
	KindCheckbox  = "checkbox"
	KindSelect    = "select"
	KindSelectize = "selectize"
	KindFile      = "file"
)

// ValidKinds returns all field kinds a form may declare.
func ValidKinds() []string {
	return []string{
		KindText,
		KindTextarea,
		KindEmail,
		KindNumber,
		KindDate,
		KindCheckbox,
		KindSelect,
		KindSelectize,
		KindFile,
	}
}

// Choice is one static option of a select field.
type Choice struct {
	Value string
	Label string
}

// Field describes a single form input. The zero Kind is treated as text.
// Selectize fields must carry a Source; that requirement is checked when
// the field is handed to New.
type Field struct {
	Name     string
	Label    string
	Kind     string
	Required bool
	HelpText string

	// Text-style constraints. Lengths count runes; zero means unset.
	MinLength int
	MaxLength int
	Pattern   string

	// Number bounds; nil means unbounded.
	Min *float64
	Max *float64

	// Select choices.
	Choices []Choice

	// Selectize backing source and its per-query cap.
	Source      selectize.Searcher
	MaxPrefetch int
}

// Prefetch returns the option cap for autocomplete queries on this field.
func (f *Field) Prefetch() int {
	if f.MaxPrefetch > 0 {
		return f.MaxPrefetch
	}
	return selectize.DefaultMaxPrefetch
}
