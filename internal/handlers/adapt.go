package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/oviehub/moviehub/internal/logger"
)

type HandlerWithErr func(w http.ResponseWriter, r *http.Request) error

type Error struct {
	Status  int
	Message string
}

func (e Error) Error() string {
	return e.Message + " code=" + strconv.FormatInt(int64(e.Status), 10)
}

type errorResponse struct {
	Message string `json:"message"`
}

// Adapt turns an error-returning handler into an http.Handler. Typed errors
// keep their status and message; anything else is logged and surfaced as a
// generic 500 so internal detail never reaches the client.
func Adapt(h HandlerWithErr) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			var statusErr *Error
			if errors.As(err, &statusErr) {
				writeJSON(w, statusErr.Status, &errorResponse{Message: statusErr.Message})
				return
			}
			slog.Warn("unhandled handler error", logger.Error(err))
			writeJSON(w, http.StatusInternalServerError, &errorResponse{Message: "internal server error"})
		}
	})
}
