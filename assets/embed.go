// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package assets ships the fallback icons the upload pipeline links to for
// files it cannot thumbnail.
package assets

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed all:icons
var icons embed.FS

// IconNames lists every embedded icon, matching the names the upload
// package can resolve to.
var IconNames = []string{
	"file-audio.svg",
	"file-font.svg",
	"file-pdf.svg",
	"file-picture.svg",
	"file-unknown.svg",
	"file-video.svg",
	"file-zip.svg",
}

// Icons exposes the embedded icon files, rooted at the icon directory.
func Icons() fs.FS {
	sub, err := fs.Sub(icons, "icons")
	if err != nil {
		panic(err)
	}
	return sub
}

// Handler serves the embedded icons. Mount it under the public icon prefix,
// e.g. /static/formset/icons/.
func Handler() http.Handler {
	return http.FileServer(http.FS(Icons()))
}
