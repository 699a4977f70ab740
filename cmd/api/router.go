package main

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/crucial707/coursevault/internal/config"
	"github.com/crucial707/coursevault/internal/handlers"
	"github.com/crucial707/coursevault/internal/manifest"
	"github.com/crucial707/coursevault/internal/middleware"
	"github.com/crucial707/coursevault/internal/repo"
	"github.com/crucial707/coursevault/internal/review"
	"github.com/crucial707/coursevault/internal/storage"
)

// newRouter wires repositories, the review engine, and all HTTP routes.
func newRouter(db *sql.DB, store *storage.Store, cfg config.Config) chi.Router {
	changeRepo := repo.NewChangeRequestRepo(db)
	auditRepo := repo.NewAuditRepo(db)
	userRepo := repo.NewUserRepo(db)
	rosterRepo := repo.NewRosterRepo(db)

	builder := manifest.NewBuilder(store)
	engine := review.NewEngine(changeRepo, auditRepo, store, builder)

	authHandler := &handlers.AuthHandler{
		UserRepo:    userRepo,
		RosterRepo:  rosterRepo,
		Secret:      []byte(cfg.JWTSecret),
		ExpireHours: cfg.JWTExpireHours,
	}
	rosterHandler := &handlers.RosterHandler{
		RosterRepo: rosterRepo,
		UserRepo:   userRepo,
		RollPrefix: cfg.RosterRollPrefix,
	}
	changeHandler := &handlers.ChangeHandler{
		Repo:           changeRepo,
		Store:          store,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}
	adminHandler := &handlers.AdminHandler{
		Changes: changeRepo,
		Audit:   auditRepo,
		Engine:  engine,
		Builder: builder,
	}
	manifestHandler := &handlers.ManifestHandler{Store: store}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestLog)
	r.Use(middleware.Prometheus)
	r.Use(middleware.SecurityHeaders(cfg.TLSCertFile != "" && cfg.TLSKeyFile != ""))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ready", func(w http.ResponseWriter, req *http.Request) {
		if err := db.PingContext(req.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ready"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/manifest", manifestHandler.Get)

	authLimiter := middleware.AuthRateLimiter()
	r.Group(func(r chi.Router) {
		r.Use(authLimiter.Middleware)
		r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/roster/lookup", rosterHandler.Lookup)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.JWTMiddleware([]byte(cfg.JWTSecret)))

		r.Post("/changes/upload", changeHandler.SubmitUpload)
		r.Group(func(r chi.Router) {
			r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))
			r.Post("/changes/rename", changeHandler.SubmitRename)
			r.Post("/changes/delete", changeHandler.SubmitDelete)
		})
		r.Get("/changes", changeHandler.ListChanges)
		r.Get("/changes/count", changeHandler.CountChanges)
		r.Delete("/changes/{id}", changeHandler.CancelChange)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Get("/admin/queue", adminHandler.Queue)
			r.Post("/admin/review/{id}", adminHandler.Review)
			r.Post("/admin/publish/{id}", adminHandler.Publish)
			r.Get("/admin/audit", adminHandler.AuditLog)
			r.Post("/admin/manifest/rebuild", adminHandler.RebuildManifest)
		})
	})

	return r
}
