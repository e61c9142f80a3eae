// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package forms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func namedForm(t *testing.T, name string) *Form {
	t.Helper()
	f, err := New(name, Field{Name: "value", Required: true})
	require.NoError(t, err)
	return f
}

func TestBuilderRegisterOrder(t *testing.T) {
	c, err := NewCollection().
		Register(namedForm(t, "first")).
		Register(namedForm(t, "second")).
		Register(namedForm(t, "third")).
		Build()
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second", "third"}, c.Names())
}

func TestBuilderOverrideKeepsPosition(t *testing.T) {
	replacement, err := New("second", Field{Name: "other"})
	require.NoError(t, err)

	c, err := NewCollection().
		Register(namedForm(t, "first")).
		Register(namedForm(t, "second")).
		Register(namedForm(t, "third")).
		Register(replacement).
		Build()
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second", "third"}, c.Names())
	got, ok := c.Form("second")
	require.True(t, ok)
	_, hasOther := got.Field("other")
	assert.True(t, hasOther, "override should replace the registered form")
}

func TestBuilderRemove(t *testing.T) {
	base, err := NewCollection().
		Register(namedForm(t, "keep")).
		Register(namedForm(t, "drop")).
		Build()
	require.NoError(t, err)

	c, err := NewCollection().
		Extend(base).
		Remove("drop").
		Register(namedForm(t, "extra")).
		Build()
	require.NoError(t, err)

	assert.Equal(t, []string{"keep", "extra"}, c.Names())
	_, ok := c.Form("drop")
	assert.False(t, ok)

	// Removing an unknown name is a no-op.
	c2, err := NewCollection().Extend(base).Remove("nope").Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"keep", "drop"}, c2.Names())
}

func TestBuilderReRegisterAfterRemoveAppends(t *testing.T) {
	c, err := NewCollection().
		Register(namedForm(t, "a")).
		Register(namedForm(t, "b")).
		Remove("a").
		Register(namedForm(t, "a")).
		Build()
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "a"}, c.Names())
}

func TestBuilderExtendDoesNotMutateBase(t *testing.T) {
	base, err := NewCollection().Register(namedForm(t, "a")).Build()
	require.NoError(t, err)

	_, err = NewCollection().Extend(base).Remove("a").Build()
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, base.Names(), "base collection must stay intact")
}

func TestBuilderRejectsUnnamedAndNil(t *testing.T) {
	unnamed, err := New("", Field{Name: "x"})
	require.NoError(t, err)

	_, err = NewCollection().Register(unnamed).Build()
	assert.Error(t, err)

	_, err = NewCollection().Register(nil).Build()
	assert.Error(t, err)
}

func TestCollectionValidateAggregates(t *testing.T) {
	c, err := NewCollection().
		Register(namedForm(t, "shipping")).
		Register(namedForm(t, "billing")).
		Build()
	require.NoError(t, err)

	tests := []struct {
		name      string
		data      map[string]any
		wantForms []string
	}{
		{
			name: "one invalid",
			data: map[string]any{
				"shipping": map[string]any{"value": "here"},
			},
			wantForms: []string{"billing"},
		},
		{
			name:      "both invalid",
			data:      map[string]any{},
			wantForms: []string{"shipping", "billing"},
		},
		{
			name: "both valid",
			data: map[string]any{
				"shipping": map[string]any{"value": "a"},
				"billing":  map[string]any{"value": "b"},
			},
			wantForms: nil,
		},
		{
			name: "non-object sub entry counts as empty",
			data: map[string]any{
				"shipping": "bogus",
				"billing":  map[string]any{"value": "b"},
			},
			wantForms: []string{"shipping"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Validate(tt.data)
			assert.Len(t, got, len(tt.wantForms))
			for _, name := range tt.wantForms {
				formErrs, ok := got[name]
				require.True(t, ok, "expected errors for form %q", name)
				assert.Equal(t, []string{"This field is required."}, formErrs["value"])
			}
		})
	}
}
