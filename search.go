// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package formset

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/olegiv/formset-go/forms"
	"github.com/olegiv/formset-go/selectize"
)

// handleSearch answers an autocomplete query for one selectize field. The
// field parameter is "<form>.<field>"; FormView ignores the form part since
// it only serves one form, CollectionView resolves it first.
func (v *FormView) handleSearch(w http.ResponseWriter, r *http.Request) {
	_, fieldName, ok := splitFieldRef(r.URL.Query().Get("field"))
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "Invalid field parameter, expected <form>.<field>")
		return
	}
	field, ok := v.form.Field(fieldName)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "Unknown field "+fieldName)
		return
	}
	runSearch(w, r, field, v.log)
}

func (v *CollectionView) handleSearch(w http.ResponseWriter, r *http.Request) {
	formName, fieldName, ok := splitFieldRef(r.URL.Query().Get("field"))
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "Invalid field parameter, expected <form>.<field>")
		return
	}
	form, ok := v.coll.Form(formName)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "Unknown form "+formName)
		return
	}
	field, ok := form.Field(fieldName)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "Unknown field "+fieldName)
		return
	}
	runSearch(w, r, field, v.log)
}

// runSearch queries the field's option source. A non-selectize or
// sourceless field reaching this point is a wiring bug, not user input.
func runSearch(w http.ResponseWriter, r *http.Request, field *forms.Field, log *slog.Logger) {
	if field.Kind != forms.KindSelectize || field.Source == nil {
		log.Error("option search on a non-searchable field", "field", field.Name, "kind", field.Kind)
		writeJSONError(w, http.StatusInternalServerError, "Field does not support option search")
		return
	}

	query := r.URL.Query().Get("query")
	result, err := selectize.Query(r.Context(), field.Source, query, field.Prefetch())
	if err != nil {
		log.Error("option search failed", "field", field.Name, "query", query, "err", err)
		writeJSONError(w, http.StatusInternalServerError, "Option search failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// splitFieldRef parses a "<form>.<field>" reference: exactly one dot, both
// parts non-empty.
func splitFieldRef(ref string) (formName, fieldName string, ok bool) {
	parts := strings.Split(ref, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
