package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/labstack/gommon/log"

	"github.com/mind-engage/mindengage-results/internal/apperr"
	"github.com/mind-engage/mindengage-results/internal/marks"
	"github.com/mind-engage/mindengage-results/internal/rbac"
)

// PUT /exams/{examID}/marks[?correction=1]
func PutMarkHandler(mw *marks.Writer, l *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var m marks.Mark
		if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
			writeError(w, l, apperr.Invalid("bad json: %v", err))
			return
		}
		m.ExamID = chi.URLParam(r, "examID")
		if m.EnrollmentID == "" || m.Code == "" {
			writeError(w, l, apperr.Invalid("enrollment_id and component_code required"))
			return
		}
		correction := r.URL.Query().Get("correction") == "1"
		if err := mw.Put(r.Context(), rbac.ActorFromContext(r.Context()), m, correction); err != nil {
			writeError(w, l, err)
			return
		}
		if m.IsAbsent {
			m.MarksObtained = nil
		}
		writeJSON(w, http.StatusOK, m)
	}
}
