// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package forms

import "fmt"

// Collection is a named set of independently declared forms validated
// together as one submission. Collections are immutable; assemble them with
// NewCollection.
type Collection struct {
	names []string
	forms map[string]*Form
}

// Builder assembles a Collection. Registrations override same-named earlier
// ones in place, and Remove drops an inherited entry, so a derived
// collection can extend a base one without touching it.
type Builder struct {
	names []string
	forms map[string]*Form
	err   error
}

// NewCollection starts a fresh builder.
func NewCollection() *Builder {
	return &Builder{forms: make(map[string]*Form)}
}

// Extend registers every form of base, in base order.
func (b *Builder) Extend(base *Collection) *Builder {
	if base == nil {
		return b
	}
	for _, name := range base.names {
		b.Register(base.forms[name])
	}
	return b
}

// Register adds form under its declared name. Registering a name again
// replaces the earlier form but keeps its position.
func (b *Builder) Register(form *Form) *Builder {
	if b.err != nil {
		return b
	}
	if form == nil {
		b.err = fmt.Errorf("register: nil form")
		return b
	}
	if form.Name() == "" {
		b.err = fmt.Errorf("register: form has no name")
		return b
	}
	if _, exists := b.forms[form.Name()]; !exists {
		b.names = append(b.names, form.Name())
	}
	b.forms[form.Name()] = form
	return b
}

// Remove drops the named form. Removing an unknown name is a no-op;
// registering the name again after a Remove appends at the end.
func (b *Builder) Remove(name string) *Builder {
	if b.err != nil {
		return b
	}
	if _, exists := b.forms[name]; !exists {
		return b
	}
	delete(b.forms, name)
	for i, n := range b.names {
		if n == name {
			b.names = append(b.names[:i], b.names[i+1:]...)
			break
		}
	}
	return b
}

// Build finalizes the collection.
func (b *Builder) Build() (*Collection, error) {
	if b.err != nil {
		return nil, b.err
	}
	c := &Collection{
		names: append([]string(nil), b.names...),
		forms: make(map[string]*Form, len(b.forms)),
	}
	for name, form := range b.forms {
		c.forms[name] = form
	}
	return c, nil
}

// MustBuild wraps Build for declarations wired at startup.
func (b *Builder) MustBuild() *Collection {
	c, err := b.Build()
	if err != nil {
		panic(err)
	}
	return c
}

// Forms returns the declared forms in registration order.
func (c *Collection) Forms() []*Form {
	out := make([]*Form, 0, len(c.names))
	for _, name := range c.names {
		out = append(out, c.forms[name])
	}
	return out
}

// Form looks a declared form up by name.
func (c *Collection) Form(name string) (*Form, bool) {
	f, ok := c.forms[name]
	return f, ok
}

// Names returns the declared form names in registration order.
func (c *Collection) Names() []string {
	return append([]string(nil), c.names...)
}

// Validate checks every declared form against its named sub-object of
// data. A missing or non-object sub-object counts as an empty submission,
// so required fields surface naturally. Every form is validated; the result
// holds only the invalid ones.
func (c *Collection) Validate(data map[string]any) CollectionErrors {
	out := make(CollectionErrors)
	for _, name := range c.names {
		sub, _ := data[name].(map[string]any)
		if errs := c.forms[name].Validate(sub); len(errs) > 0 {
			out[name] = errs
		}
	}
	return out
}
