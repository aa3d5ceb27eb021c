package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/labstack/gommon/log"

	"github.com/mind-engage/mindengage-results/internal/apperr"
	"github.com/mind-engage/mindengage-results/internal/db"
	"github.com/mind-engage/mindengage-results/internal/ledger"
	"github.com/mind-engage/mindengage-results/internal/rbac"
	syncx "github.com/mind-engage/mindengage-results/internal/sync"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// POST /exams/{examID}/ledger/import  (multipart "file")
func ImportLedgerHandler(im *ledger.Importer, maxBytes int64, l *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		f, hdr, err := r.FormFile("file")
		if err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "upload too large"})
				return
			}
			writeError(w, l, apperr.Invalid("file required"))
			return
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			writeError(w, l, apperr.Invalid("read upload: %v", err))
			return
		}
		wb, err := ledger.ReadWorkbook(hdr.Filename, data)
		if err != nil {
			writeError(w, l, err)
			return
		}
		rep, err := im.Import(r.Context(), rbac.ActorFromContext(r.Context()), chi.URLParam(r, "examID"), wb)
		if err != nil {
			writeError(w, l, err)
			return
		}
		writeJSON(w, http.StatusOK, rep)
	}
}

// GET /exams/{examID}/ledger/template
func LedgerTemplateHandler(q db.Querier, l *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examID := chi.URLParam(r, "examID")
		buf, err := ledger.BuildTemplate(r.Context(), q, examID)
		if err != nil {
			writeError(w, l, err)
			return
		}
		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="ledger-%s.xlsx"`, examID))
		w.Header().Set("Content-Length", strconv.Itoa(len(buf)))
		_, _ = w.Write(buf)
	}
}

// GET /exams/{examID}/ledger/imports?limit=n
func ListImportsHandler(events *syncx.EventRepo, l *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		list, err := events.List(r.Context(), syncx.TypeLedgerImported, chi.URLParam(r, "examID"), limit)
		if err != nil {
			writeError(w, l, err)
			return
		}
		if list == nil {
			list = []syncx.Event{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}
