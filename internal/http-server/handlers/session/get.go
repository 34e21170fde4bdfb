package session

import (
	"ScanFlow/internal/lib/api/response"
	"ScanFlow/internal/lib/sl"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

func Get(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.session")

		id := chi.URLParam(r, "id")
		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("session_id", id),
		)

		if handler == nil {
			logger.Error("session service not available")
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("Session service not available"))
			return
		}

		snap, err := handler.Snapshot(id)
		if err != nil {
			logger.Debug("get session", sl.Err(err))
			render.Status(r, statusOf(err))
			render.JSON(w, r, response.Error(err.Error()))
			return
		}

		render.JSON(w, r, response.Ok(snap))
	}
}

func End(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.session")

		id := chi.URLParam(r, "id")
		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("session_id", id),
		)

		if handler == nil {
			logger.Error("session service not available")
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("Session service not available"))
			return
		}

		if err := handler.EndSession(r.Context(), id); err != nil {
			logger.Error("end session", sl.Err(err))
			render.Status(r, statusOf(err))
			render.JSON(w, r, response.Error(err.Error()))
			return
		}

		logger.Debug("session ended")
		render.JSON(w, r, response.Ok(nil))
	}
}
