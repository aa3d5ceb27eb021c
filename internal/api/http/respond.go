package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/gommon/log"

	"github.com/mind-engage/mindengage-results/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err as {"error": reason} with the status of its kind.
// For server errors only the outermost message is returned; the full chain
// goes to the log.
func writeError(w http.ResponseWriter, l *log.Logger, err error) {
	status := apperr.Status(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		l.Errorf("request failed: %v", err)
		msg, _, _ = strings.Cut(msg, ": ")
	}
	writeJSON(w, status, map[string]string{"error": msg})
}
