package errors

import (
	"ScanFlow/internal/lib/api/response"
	"ScanFlow/internal/lib/sl"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// NotFound answers routes the router does not know.
func NotFound(log *slog.Logger) http.HandlerFunc {
	return unmatched(log, http.StatusNotFound, "Requested resource not found")
}

// NotAllowed answers known routes called with the wrong method.
func NotAllowed(log *slog.Logger) http.HandlerFunc {
	return unmatched(log, http.StatusMethodNotAllowed, "Method not allowed")
}

func unmatched(log *slog.Logger, status int, text string) http.HandlerFunc {
	logger := log.With(sl.Module("http.handlers.errors"))
	return func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("unmatched request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
		render.Status(r, status)
		render.JSON(w, r, response.Error(text))
	}
}
