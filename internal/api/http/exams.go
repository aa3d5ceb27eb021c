package http

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/labstack/gommon/log"

	"github.com/mind-engage/mindengage-results/internal/apperr"
	"github.com/mind-engage/mindengage-results/internal/db"
	"github.com/mind-engage/mindengage-results/internal/exam"
	"github.com/mind-engage/mindengage-results/internal/rbac"
)

type putComponentsReq struct {
	Components []exam.ComponentConfig `json:"components"`
}

// PUT /exams/{examID}/components
// All configs are written in one transaction or none are.
func PutComponentsHandler(d *sql.DB, l *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examID := chi.URLParam(r, "examID")
		var req putComponentsReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, l, apperr.Invalid("bad json: %v", err))
			return
		}
		if len(req.Components) == 0 {
			writeError(w, l, apperr.Invalid("components required"))
			return
		}
		actor := rbac.ActorFromContext(r.Context())
		err := db.WithTx(r.Context(), d, nil, func(tx *sql.Tx) error {
			st := exam.NewSQLStore(tx)
			for _, c := range req.Components {
				if err := st.SetComponent(r.Context(), actor, examID, c); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			writeError(w, l, err)
			return
		}
		cfgs, err := exam.NewSQLStore(d).ConfigFor(r.Context(), examID)
		if err != nil {
			writeError(w, l, err)
			return
		}
		writeJSON(w, http.StatusOK, cfgs)
	}
}
