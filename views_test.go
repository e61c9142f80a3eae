// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package formset

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/olegiv/formset-go/forms"
	"github.com/olegiv/formset-go/selectize"
)

func addressForm(t *testing.T, name string) *forms.Form {
	t.Helper()
	f, err := forms.New(name,
		forms.Field{Name: "recipient", Kind: forms.KindText, Required: true, MaxLength: 100},
		forms.Field{Name: "postal_code", Kind: forms.KindText, Required: true, MaxLength: 8},
		forms.Field{Name: "city", Kind: forms.KindText, Required: true, MaxLength: 50},
	)
	if err != nil {
		t.Fatalf("forms.New() error = %v", err)
	}
	return f
}

func postJSON(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/address", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type = %q, want application/json", ct)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
}

func TestFormViewValidSubmission(t *testing.T) {
	view := NewFormView(addressForm(t, "address"), "/success", ViewOptions{})

	rec := postJSON(t, view, `{"address": {"recipient": "J. Doe", "postal_code": "12345", "city": "Springfield"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var resp map[string]string
	decodeInto(t, rec, &resp)
	if resp["success_url"] != "/success" {
		t.Errorf("success_url = %q, want /success", resp["success_url"])
	}
}

func TestFormViewInvalidSubmission(t *testing.T) {
	view := NewFormView(addressForm(t, "address"), "/success", ViewOptions{})

	rec := postJSON(t, view, `{"address": {"recipient": "J. Doe", "city": "Springfield"}}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
	var resp map[string]map[string][]string
	decodeInto(t, rec, &resp)
	msgs := resp["address"]["postal_code"]
	if len(msgs) != 1 || msgs[0] != "This field is required." {
		t.Errorf("postal_code errors = %v, want the required-field message", msgs)
	}
}

func TestFormViewDefaultKey(t *testing.T) {
	view := NewFormView(addressForm(t, ""), "/done", ViewOptions{})

	rec := postJSON(t, view, `{"__default__": {}}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
	var resp map[string]map[string][]string
	decodeInto(t, rec, &resp)
	if _, ok := resp[DefaultFormKey]; !ok {
		t.Errorf("errors keyed by %v, want %q", keysOf(resp), DefaultFormKey)
	}
}

func TestFormViewMissingSubObject(t *testing.T) {
	view := NewFormView(addressForm(t, "address"), "/done", ViewOptions{})

	// No sub-object at all: every required field errors.
	rec := postJSON(t, view, `{}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
	var resp map[string]map[string][]string
	decodeInto(t, rec, &resp)
	if len(resp["address"]) != 3 {
		t.Errorf("got errors for %d fields, want 3: %v", len(resp["address"]), resp)
	}
}

func TestFormViewMalformedJSON(t *testing.T) {
	view := NewFormView(addressForm(t, "address"), "/done", ViewOptions{})
	rec := postJSON(t, view, `{"address":`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCollectionViewAggregation(t *testing.T) {
	coll, err := forms.NewCollection().
		Register(addressForm(t, "billing")).
		Register(addressForm(t, "shipping")).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	view := NewCollectionView(coll, "/done", ViewOptions{})

	valid := `{"recipient": "J. Doe", "postal_code": "12345", "city": "Springfield"}`

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantForms  []string
	}{
		{
			name:       "one invalid",
			body:       `{"billing": {"city": "Springfield"}, "shipping": ` + valid + `}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantForms:  []string{"billing"},
		},
		{
			name:       "both invalid",
			body:       `{"billing": {}, "shipping": {}}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantForms:  []string{"billing", "shipping"},
		},
		{
			name:       "both valid",
			body:       `{"billing": ` + valid + `, "shipping": ` + valid + `}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing sub-object counts as empty",
			body:       `{"billing": ` + valid + `}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantForms:  []string{"shipping"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, view, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d; body %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus != http.StatusUnprocessableEntity {
				return
			}
			var resp map[string]map[string][]string
			decodeInto(t, rec, &resp)
			if len(resp) != len(tt.wantForms) {
				t.Fatalf("errors for forms %v, want %v", keysOf(resp), tt.wantForms)
			}
			for _, name := range tt.wantForms {
				if _, ok := resp[name]; !ok {
					t.Errorf("no errors for form %q in %v", name, keysOf(resp))
				}
			}
		})
	}
}

func TestFallbackWithoutRenderer(t *testing.T) {
	view := NewFormView(addressForm(t, "address"), "/done", ViewOptions{})

	req := httptest.NewRequest(http.MethodGet, "/address", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	view.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotAcceptable {
		t.Errorf("GET status = %d, want %d", rec.Code, http.StatusNotAcceptable)
	}

	req = httptest.NewRequest(http.MethodPost, "/address", strings.NewReader("a=b"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	view.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("POST status = %d, want %d", rec.Code, http.StatusUnsupportedMediaType)
	}
}

func TestFallbackRenderer(t *testing.T) {
	rendered := false
	renderer := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rendered = true
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<form></form>"))
	})
	view := NewFormView(addressForm(t, "address"), "/done", ViewOptions{Renderer: renderer})

	req := httptest.NewRequest(http.MethodGet, "/address", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	view.ServeHTTP(rec, req)
	if !rendered {
		t.Error("renderer not invoked for a plain GET")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

// A GET with search parameters but an HTML-only Accept header belongs to
// the renderer, not the search branch.
func TestSearchRequiresJSONAccept(t *testing.T) {
	form, err := forms.New("address",
		forms.Field{
			Name:   "county",
			Kind:   forms.KindSelectize,
			Source: selectize.NewMemorySource([]selectize.Item{{ID: 1, Label: "Alameda"}}),
		},
	)
	if err != nil {
		t.Fatalf("forms.New() error = %v", err)
	}
	view := NewFormView(form, "/done", ViewOptions{})

	req := httptest.NewRequest(http.MethodGet, "/address?field=address.county&query=al", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	view.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotAcceptable {
		t.Errorf("status = %d, want %d (fallback, no renderer)", rec.Code, http.StatusNotAcceptable)
	}
}

func TestOnValidHook(t *testing.T) {
	var seen map[string]any
	view := NewFormView(addressForm(t, "address"), "/done", ViewOptions{
		OnValid: func(r *http.Request, data map[string]any) error {
			seen = data
			return nil
		},
	})

	body := `{"address": {"recipient": "J. Doe", "postal_code": "12345", "city": "Springfield"}}`
	rec := postJSON(t, view, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if seen == nil {
		t.Fatal("OnValid not invoked for a valid submission")
	}

	// The hook never fires for invalid submissions.
	seen = nil
	rec = postJSON(t, view, `{"address": {}}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
	if seen != nil {
		t.Error("OnValid invoked for an invalid submission")
	}
}

func TestOnValidHookFailure(t *testing.T) {
	view := NewFormView(addressForm(t, "address"), "/done", ViewOptions{
		OnValid: func(r *http.Request, data map[string]any) error {
			return errAlwaysFails
		},
	})
	rec := postJSON(t, view, `{"address": {"recipient": "J. Doe", "postal_code": "12345", "city": "Springfield"}}`)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

var errAlwaysFails = errors.New("hook failed")

func keysOf[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
