package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/labstack/gommon/log"

	"github.com/mind-engage/mindengage-results/internal/db"
	"github.com/mind-engage/mindengage-results/internal/rbac"
	"github.com/mind-engage/mindengage-results/internal/result"
)

// GET /exams/{examID}/results/{enrollmentID}/preview
func PreviewResultHandler(q db.Querier, l *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := result.NewSQLComputer(q).Compute(r.Context(), chi.URLParam(r, "examID"), chi.URLParam(r, "enrollmentID"))
		if err != nil {
			writeError(w, l, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// POST /exams/{examID}/results/{enrollmentID}/generate
func GenerateResultHandler(sw *result.SnapshotWriter, l *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := rbac.ActorFromContext(r.Context())
		snap, err := sw.Generate(r.Context(), actor, chi.URLParam(r, "examID"), chi.URLParam(r, "enrollmentID"))
		if err != nil {
			writeError(w, l, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

// POST /exams/{examID}/publish
func PublishExamHandler(sw *result.SnapshotWriter, l *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examID := chi.URLParam(r, "examID")
		n, err := sw.Publish(r.Context(), rbac.ActorFromContext(r.Context()), examID)
		if err != nil {
			writeError(w, l, err)
			return
		}
		l.Infof("exam %s published with %d snapshots", examID, n)
		writeJSON(w, http.StatusOK, map[string]any{"exam_id": examID, "published": n})
	}
}
