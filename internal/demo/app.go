// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package demo

import (
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	formset "github.com/olegiv/formset-go"
	"github.com/olegiv/formset-go/assets"
	"github.com/olegiv/formset-go/forms"
	"github.com/olegiv/formset-go/selectize"
	"github.com/olegiv/formset-go/signing"
	"github.com/olegiv/formset-go/storage"
	"github.com/olegiv/formset-go/upload"
	"github.com/olegiv/formset-go/web"
)

// IconBaseURL is the public prefix the fallback icons are served under.
const IconBaseURL = "/static/formset/icons"

// uploadSalt namespaces signed temp-upload references.
const uploadSalt = "formset"

// App wires the demo server: routes, database, storage and the janitor.
type App struct {
	cfg      *Config
	db       *sql.DB
	receiver *upload.Receiver
	janitor  *Janitor
	router   chi.Router
	logger   *slog.Logger
}

// NewApp assembles the demo server from its configuration. The caller owns
// the lifecycle: Start the janitor, serve Router, then Close.
func NewApp(cfg *Config, logger *slog.Logger) (*App, error) {
	db, err := NewDB(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	counties, err := NewCountySource(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	store, err := storage.NewLocal(cfg.MediaDir, cfg.MediaURL)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("opening media storage: %w", err)
	}

	signer := signing.New([]byte(cfg.SigningSecret), uploadSalt)
	receiver := upload.NewReceiver(upload.Config{IconBaseURL: IconBaseURL}, store, signer, logger)

	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("getting templates fs: %w", err)
	}
	renderer, err := NewRenderer(templatesFS)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	app := &App{
		cfg:      cfg,
		db:       db,
		receiver: receiver,
		janitor:  NewJanitor(receiver, time.Duration(cfg.TempMaxAgeHours)*time.Hour, logger),
		logger:   logger,
	}
	app.router = app.buildRouter(counties, renderer)
	return app, nil
}

func (a *App) buildRouter(counties selectize.Searcher, renderer *Renderer) chi.Router {
	address := AddressForm(counties)
	contact := ContactForm()
	coll := forms.NewCollection().
		Register(address).
		Register(contact).
		MustBuild()
	uploadForm := UploadForm()

	addressView := formset.NewCollectionView(coll, "/thanks", formset.ViewOptions{
		Receiver: a.receiver,
		Renderer: renderer.FormHandler(FormPage{
			Title:     "Address",
			Forms:     coll.Forms(),
			SubmitURL: "/address",
		}),
		Logger: a.logger,
	})
	uploadView := formset.NewFormView(uploadForm, "/thanks", formset.ViewOptions{
		Receiver: a.receiver,
		Renderer: renderer.FormHandler(FormPage{
			Title:     "Upload",
			Forms:     []*forms.Form{uploadForm},
			SubmitURL: "/upload",
		}),
		Logger:  a.logger,
		OnValid: promoteFiles(a.receiver, "attachments", uploadForm),
	})

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(NewRateLimiter(a.cfg.RateLimitRPS, a.cfg.RateLimitBurst).Middleware())
	r.Use(CSRF([]byte(a.cfg.SigningSecret), a.cfg.IsDevelopment(), a.cfg.ServerAddr()))

	r.Handle("/address", addressView)
	r.Handle("/upload", uploadView)
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/upload", http.StatusSeeOther)
	})
	r.Get("/thanks", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<h1>Thank you!</h1>"))
	})

	r.Handle(IconBaseURL+"/*", http.StripPrefix(IconBaseURL+"/", assets.Handler()))
	r.Handle(a.cfg.MediaURL+"/*", http.StripPrefix(a.cfg.MediaURL+"/", http.FileServer(http.Dir(a.cfg.MediaDir))))

	return r
}

// Router returns the assembled HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Receiver exposes the upload receiver, mainly for tests.
func (a *App) Receiver() *upload.Receiver { return a.receiver }

// StartJanitor begins the periodic temp-upload sweep.
func (a *App) StartJanitor() error { return a.janitor.Start() }

// Close stops the janitor and closes the database.
func (a *App) Close() error {
	a.janitor.Stop()
	return a.db.Close()
}
