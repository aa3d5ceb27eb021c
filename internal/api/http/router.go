// Package http exposes the results engine and the ledger importer over
// chi. Every route except the probes requires a bearer token.
package http

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/labstack/gommon/log"

	auth "github.com/mind-engage/mindengage-results/internal/auth/middleware"
	"github.com/mind-engage/mindengage-results/internal/exam"
	"github.com/mind-engage/mindengage-results/internal/ledger"
	"github.com/mind-engage/mindengage-results/internal/marks"
	"github.com/mind-engage/mindengage-results/internal/rbac"
	"github.com/mind-engage/mindengage-results/internal/result"
	syncx "github.com/mind-engage/mindengage-results/internal/sync"
)

type Deps struct {
	DB             *sql.DB
	Auth           *auth.AuthService
	Importer       *ledger.Importer
	Log            *log.Logger
	CORSOrigins    []string
	ImportMaxBytes int64
}

func NewRouter(d Deps) chi.Router {
	if d.Log == nil {
		d.Log = log.New("http")
	}
	if d.ImportMaxBytes <= 0 {
		d.ImportMaxBytes = 10 << 20
	}
	snapshots := result.NewSnapshotWriter(d.DB)
	writer := marks.NewWriter(exam.NewSQLStore(d.DB), marks.NewSQLStore(d.DB))
	events := syncx.NewEventRepo(d.DB)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(d.Auth))

		pr.With(rbac.Require("result:preview")).
			Get("/exams/{examID}/results/{enrollmentID}/preview", PreviewResultHandler(d.DB, d.Log))
		pr.With(rbac.Require("result:generate")).
			Post("/exams/{examID}/results/{enrollmentID}/generate", GenerateResultHandler(snapshots, d.Log))
		pr.With(rbac.Require("exam:publish")).
			Post("/exams/{examID}/publish", PublishExamHandler(snapshots, d.Log))

		pr.With(rbac.Require("exam:configure")).
			Put("/exams/{examID}/components", PutComponentsHandler(d.DB, d.Log))
		// correction=1 is checked against marks:correct by the writer
		pr.With(rbac.Require("marks:write")).
			Put("/exams/{examID}/marks", PutMarkHandler(writer, d.Log))

		pr.With(rbac.Require("ledger:import")).
			Post("/exams/{examID}/ledger/import", ImportLedgerHandler(d.Importer, d.ImportMaxBytes, d.Log))
		pr.With(rbac.Require("ledger:import")).
			Get("/exams/{examID}/ledger/imports", ListImportsHandler(events, d.Log))
		pr.With(rbac.Require("ledger:template")).
			Get("/exams/{examID}/ledger/template", LedgerTemplateHandler(d.DB, d.Log))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := d.DB.PingContext(r.Context()); err != nil {
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(200)
	})
	return r
}
