// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package demo

import (
	"bytes"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"

	"github.com/olegiv/formset-go/forms"
)

// helpSanitizer strips dangerous markup from rendered field help text.
// Help text is authored server-side, but it flows through markdown and the
// sanitizer keeps the rendered HTML boring either way.
var helpSanitizer = bluemonday.UGCPolicy()

// Renderer renders the demo form pages from the embedded templates.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses every template under templatesFS.
func NewRenderer(templatesFS fs.FS) (*Renderer, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"helpHTML":  helpHTML,
		"inputType": inputType,
	}).ParseFS(templatesFS, "*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{tmpl: tmpl}, nil
}

// FormPage is the template payload for a rendered form page.
type FormPage struct {
	Title     string
	Forms     []*forms.Form
	SubmitURL string
}

// FormHandler returns the HTML fallback handler for a view: a GET renders
// the declared forms, anything else (a POST that matched no JSON branch)
// is sent back to the page.
func (r *Renderer) FormHandler(page FormPage) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			http.Redirect(w, req, req.URL.Path, http.StatusSeeOther)
			return
		}
		var buf bytes.Buffer
		if err := r.tmpl.ExecuteTemplate(&buf, "form.html", page); err != nil {
			slog.Error("rendering form page failed", "title", page.Title, "err", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = buf.WriteTo(w)
	})
}

// helpHTML renders a field's markdown help text to sanitized HTML.
func helpHTML(text string) template.HTML {
	if text == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(text), &buf); err != nil {
		slog.Warn("rendering help text failed", "err", err)
		return template.HTML(template.HTMLEscapeString(text)) //nolint:gosec // escaped above
	}
	return template.HTML(helpSanitizer.SanitizeBytes(buf.Bytes())) //nolint:gosec // sanitized above
}

// inputType maps a field kind to the HTML input type the template emits.
func inputType(kind string) string {
	switch kind {
	case forms.KindEmail:
		return "email"
	case forms.KindNumber:
		return "number"
	case forms.KindDate:
		return "date"
	case forms.KindCheckbox:
		return "checkbox"
	case forms.KindFile:
		return "file"
	default:
		return "text"
	}
}
