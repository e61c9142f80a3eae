// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package formset

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/olegiv/formset-go/upload"
)

// TempFileField is the multipart part name carrying the uploaded file.
const TempFileField = "temp_file"

// ImageHeightField is the multipart value carrying the requested preview
// height in pixels.
const ImageHeightField = "image_height"

// handleUpload receives one multipart file into the temp area and answers
// with its descriptor. Validation failures are the client's problem;
// anything else is logged and answered as a server error, integrity
// violations included.
func handleUpload(w http.ResponseWriter, r *http.Request, receiver *upload.Receiver, log *slog.Logger) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid multipart body")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File[TempFileField]
	if len(headers) == 0 {
		writeJSONError(w, http.StatusBadRequest, "Missing file part "+TempFileField)
		return
	}
	fh := headers[0]

	desc, err := receiver.Receive(fh, r.FormValue(ImageHeightField))
	if err != nil {
		if errors.Is(err, upload.ErrEmptyFile) || errors.Is(err, upload.ErrBadName) {
			writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("File upload failed for '%s'.", fh.Filename))
			return
		}
		log.Error("upload failed", "name", fh.Filename, "size", fh.Size, "err", err)
		writeJSONError(w, http.StatusInternalServerError, "File upload failed")
		return
	}
	writeJSON(w, http.StatusOK, desc)
}
