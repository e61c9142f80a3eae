// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package forms

import (
	"fmt"
	"net/mail"
	"regexp"
	"strconv"
	"time"
	"unicode/utf8"
)

// Validation messages shown to end users.
const (
	msgRequired      = "This field is required."
	msgInvalidEmail  = "Enter a valid email address."
	msgInvalidNumber = "Enter a number."
	msgInvalidDate   = "Enter a valid date."
	msgInvalidValue  = "Enter a valid value."
	msgInvalidFile   = "Upload a valid file."
)

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Form is an immutable, ordered set of fields. The name keys the form's
// sub-object in a JSON submission; an empty name is allowed for forms
// served standalone, where the view substitutes its default key.
type Form struct {
	name     string
	fields   []Field
	byName   map[string]*Field
	patterns map[string]*regexp.Regexp
}

// New builds a form from its fields. Field names must be non-empty and
// unique, patterns must compile, and selectize fields must carry a source.
func New(name string, fields ...Field) (*Form, error) {
	f := &Form{
		name:     name,
		fields:   append([]Field(nil), fields...),
		byName:   make(map[string]*Field, len(fields)),
		patterns: make(map[string]*regexp.Regexp),
	}
	for i := range f.fields {
		field := &f.fields[i]
		if field.Name == "" {
			return nil, fmt.Errorf("form %q: field %d has no name", name, i)
		}
		if _, dup := f.byName[field.Name]; dup {
			return nil, fmt.Errorf("form %q: duplicate field %q", name, field.Name)
		}
		if field.Kind == "" {
			field.Kind = KindText
		}
		if field.Kind == KindSelectize && field.Source == nil {
			return nil, fmt.Errorf("form %q: selectize field %q has no source", name, field.Name)
		}
		if field.Pattern != "" {
			re, err := regexp.Compile(field.Pattern)
			if err != nil {
				return nil, fmt.Errorf("form %q: field %q pattern: %w", name, field.Name, err)
			}
			f.patterns[field.Name] = re
		}
		f.byName[field.Name] = field
	}
	return f, nil
}

// Must wraps New for declarations wired at startup.
func Must(name string, fields ...Field) *Form {
	f, err := New(name, fields...)
	if err != nil {
		panic(err)
	}
	return f
}

// Name returns the form's declared name, "" when unnamed.
func (f *Form) Name() string { return f.name }

// Fields returns the declared fields in order.
func (f *Form) Fields() []Field {
	return append([]Field(nil), f.fields...)
}

// Field looks a field up by name.
func (f *Form) Field(name string) (*Field, bool) {
	field, ok := f.byName[name]
	return field, ok
}

// Validate checks data against every field and returns the collected
// messages, keyed by field name. All fields are checked; a valid
// submission yields an empty map.
func (f *Form) Validate(data map[string]any) Errors {
	errs := make(Errors)
	for i := range f.fields {
		field := &f.fields[i]
		f.validateField(field, data[field.Name], errs)
	}
	return errs
}

func (f *Form) validateField(field *Field, value any, errs Errors) {
	switch field.Kind {
	case KindCheckbox:
		if field.Required && !boolValue(value) {
			errs.Add(field.Name, msgRequired)
		}
		return
	case KindFile:
		f.validateFile(field, value, errs)
		return
	}

	s, ok := stringValue(value)
	if !ok {
		errs.Add(field.Name, msgInvalidValue)
		return
	}
	if s == "" {
		if field.Required {
			errs.Add(field.Name, msgRequired)
		}
		return
	}

	switch field.Kind {
	case KindEmail:
		if _, err := mail.ParseAddress(s); err != nil {
			errs.Add(field.Name, msgInvalidEmail)
		}
	case KindNumber:
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			errs.Add(field.Name, msgInvalidNumber)
			break
		}
		if field.Min != nil && n < *field.Min {
			errs.Add(field.Name, fmt.Sprintf("Ensure this value is greater than or equal to %v.", *field.Min))
		}
		if field.Max != nil && n > *field.Max {
			errs.Add(field.Name, fmt.Sprintf("Ensure this value is less than or equal to %v.", *field.Max))
		}
	case KindDate:
		if !isValidDate(s) {
			errs.Add(field.Name, msgInvalidDate)
		}
	case KindSelect:
		if !hasChoice(field.Choices, s) {
			errs.Add(field.Name, fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", s))
		}
	}

	length := utf8.RuneCountInString(s)
	if field.MinLength > 0 && length < field.MinLength {
		errs.Add(field.Name, fmt.Sprintf("Ensure this value has at least %d characters (it has %d).", field.MinLength, length))
	}
	if field.MaxLength > 0 && length > field.MaxLength {
		errs.Add(field.Name, fmt.Sprintf("Ensure this value has at most %d characters (it has %d).", field.MaxLength, length))
	}
	if re, ok := f.patterns[field.Name]; ok && !re.MatchString(s) {
		errs.Add(field.Name, msgInvalidValue)
	}
}

func (f *Form) validateFile(field *Field, value any, errs Errors) {
	if value == nil {
		if field.Required {
			errs.Add(field.Name, msgRequired)
		}
		return
	}
	ref, ok := value.(map[string]any)
	if !ok {
		errs.Add(field.Name, msgInvalidFile)
		return
	}
	name, _ := ref["upload_temp_name"].(string)
	if name == "" {
		errs.Add(field.Name, msgInvalidFile)
	}
}

// stringValue coerces a decoded JSON scalar to its string form. Objects,
// arrays and booleans are not valid text input.
func stringValue(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", true
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		return "", false
	}
}

// boolValue interprets checkbox submissions, which arrive as booleans from
// JSON or as the usual string forms from URL-encoded bodies.
func boolValue(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "on" || v == "1"
	default:
		return false
	}
}

func hasChoice(choices []Choice, value string) bool {
	for _, c := range choices {
		if c.Value == value {
			return true
		}
	}
	return false
}

// isValidDate checks YYYY-MM-DD format and calendar validity.
func isValidDate(date string) bool {
	if !dateRe.MatchString(date) {
		return false
	}
	_, err := time.Parse("2006-01-02", date)
	return err == nil
}
