// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package formset provides the HTTP views gluing declared forms to a
// client-side form widget: autocomplete option search, chunk-free multipart
// uploads with thumbnail previews, and JSON validation of single forms or
// form collections with structured error payloads.
package formset

import (
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/olegiv/formset-go/forms"
	"github.com/olegiv/formset-go/upload"
)

// DefaultFormKey keys the sub-object of a JSON submission when the form
// was declared without a name.
const DefaultFormKey = "__default__"

// maxUploadMemory bounds the in-memory part of multipart parsing; larger
// uploads spill to disk.
const maxUploadMemory = 32 << 20

// ViewOptions carries the optional collaborators of a view. A nil Receiver
// disables the upload branch; a nil Renderer turns non-JSON requests into
// JSON errors instead of HTML.
type ViewOptions struct {
	Receiver *upload.Receiver
	Renderer http.Handler
	Logger   *slog.Logger

	// OnValid runs after a submission validates, with the decoded JSON
	// body. Applications promote uploaded temp files or persist the data
	// here; an error fails the request instead of reporting success.
	OnValid func(r *http.Request, data map[string]any) error
}

func (o ViewOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// FormView serves a single declared form: option search on GET, uploads and
// JSON validation on POST, falling back to the renderer for everything else.
type FormView struct {
	form       *forms.Form
	successURL string
	opts       ViewOptions
	log        *slog.Logger
}

// NewFormView wires a view around one form. successURL is returned to the
// client on a valid submission.
func NewFormView(form *forms.Form, successURL string, opts ViewOptions) *FormView {
	return &FormView{
		form:       form,
		successURL: successURL,
		opts:       opts,
		log:        opts.logger(),
	}
}

// Form returns the declared form the view serves.
func (v *FormView) Form() *forms.Form { return v.form }

func (v *FormView) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch branch(r, v.opts.Receiver != nil) {
	case branchSearch:
		v.handleSearch(w, r)
	case branchUpload:
		handleUpload(w, r, v.opts.Receiver, v.log)
	case branchValidate:
		v.handleValidate(w, r)
	default:
		fallback(w, r, v.opts.Renderer)
	}
}

// formKey returns the key the form's sub-object is expected under in a JSON
// submission.
func (v *FormView) formKey() string {
	if name := v.form.Name(); name != "" {
		return name
	}
	return DefaultFormKey
}

// handleValidate binds the form to its sub-object of the JSON body and
// answers with the success URL or the per-field error mapping.
func (v *FormView) handleValidate(w http.ResponseWriter, r *http.Request) {
	data, ok := decodeBody(w, r)
	if !ok {
		return
	}
	key := v.formKey()
	sub, _ := data[key].(map[string]any)
	if errs := v.form.Validate(sub); len(errs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]forms.Errors{key: errs})
		return
	}
	if !runOnValid(w, r, v.opts.OnValid, data, v.log) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"success_url": v.successURL})
}

// CollectionView serves a collection of declared forms as one submission:
// every form is validated against its named sub-object and the failures are
// aggregated, so the client gets all diagnostics in a single round-trip.
type CollectionView struct {
	coll       *forms.Collection
	successURL string
	opts       ViewOptions
	log        *slog.Logger
}

// NewCollectionView wires a view around a form collection.
func NewCollectionView(coll *forms.Collection, successURL string, opts ViewOptions) *CollectionView {
	return &CollectionView{
		coll:       coll,
		successURL: successURL,
		opts:       opts,
		log:        opts.logger(),
	}
}

// Collection returns the declared collection the view serves.
func (v *CollectionView) Collection() *forms.Collection { return v.coll }

func (v *CollectionView) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch branch(r, v.opts.Receiver != nil) {
	case branchSearch:
		v.handleSearch(w, r)
	case branchUpload:
		handleUpload(w, r, v.opts.Receiver, v.log)
	case branchValidate:
		v.handleValidate(w, r)
	default:
		fallback(w, r, v.opts.Renderer)
	}
}

func (v *CollectionView) handleValidate(w http.ResponseWriter, r *http.Request) {
	data, ok := decodeBody(w, r)
	if !ok {
		return
	}
	if errs := v.coll.Validate(data); len(errs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, errs)
		return
	}
	if !runOnValid(w, r, v.opts.OnValid, data, v.log) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"success_url": v.successURL})
}

// runOnValid invokes the post-validation hook, answering for it on failure.
func runOnValid(w http.ResponseWriter, r *http.Request, hook func(*http.Request, map[string]any) error, data map[string]any, log *slog.Logger) bool {
	if hook == nil {
		return true
	}
	if err := hook(r, data); err != nil {
		log.Error("post-validation hook failed", "err", err)
		writeJSONError(w, http.StatusInternalServerError, "Submission processing failed")
		return false
	}
	return true
}

// Request branches, checked in order.
const (
	branchFallback = iota
	branchSearch
	branchUpload
	branchValidate
)

// branch routes a request by method, content type and parameters.
// hasReceiver gates the upload branch so views without a receiver fall
// through instead of panicking on a nil dereference.
func branch(r *http.Request, hasReceiver bool) int {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		if acceptsJSON(r) && q.Has("field") && q.Has("query") {
			return branchSearch
		}
	case http.MethodPost:
		ct := contentType(r)
		if ct == "multipart/form-data" && hasReceiver && isUpload(r) {
			return branchUpload
		}
		if ct == "application/json" {
			return branchValidate
		}
	}
	return branchFallback
}

// isUpload reports whether a multipart POST carries the widget's upload
// payload: a temp_file part plus an image_height value. A plain multipart
// form post has neither and belongs to the renderer. A body that fails to
// parse still routes to the upload handler, which answers it as a client
// error.
func isUpload(r *http.Request) bool {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return true
	}
	_, hasFile := r.MultipartForm.File[TempFileField]
	_, hasHeight := r.MultipartForm.Value[ImageHeightField]
	return hasFile && hasHeight
}

// fallback hands non-JSON traffic to the renderer, or reports that the view
// has nothing to serve it with.
func fallback(w http.ResponseWriter, r *http.Request, renderer http.Handler) {
	if renderer != nil {
		renderer.ServeHTTP(w, r)
		return
	}
	if r.Method == http.MethodGet {
		writeJSONError(w, http.StatusNotAcceptable, "No renderer configured for HTML responses")
		return
	}
	writeJSONError(w, http.StatusUnsupportedMediaType, "Unsupported content type")
}

// decodeBody decodes the request body as a JSON object. A malformed body is
// a client error, answered directly.
func decodeBody(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var data map[string]any
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return nil, false
	}
	return data, true
}

// contentType returns the request's media type without parameters, "" when
// absent or unparsable.
func contentType(r *http.Request) string {
	raw := r.Header.Get("Content-Type")
	if raw == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(raw)
	if err != nil {
		return ""
	}
	return mediaType
}

// acceptsJSON reports whether the client's Accept header allows a JSON
// response. An absent header allows everything.
func acceptsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	if accept == "" {
		return true
	}
	for _, part := range strings.Split(accept, ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		switch mediaType {
		case "application/json", "application/*", "*/*":
			return true
		}
	}
	return false
}
