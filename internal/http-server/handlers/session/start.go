package session

import (
	"ScanFlow/entity"
	"ScanFlow/internal/lib/api/cont"
	"ScanFlow/internal/lib/api/response"
	"ScanFlow/internal/lib/sl"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

func Start(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.session")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if handler == nil {
			logger.Error("session service not available")
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("Session service not available"))
			return
		}

		var req entity.StartSession
		if err := render.Bind(r, &req); err != nil {
			logger.Error("failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request body"))
			return
		}
		if req.Device == "" {
			if user := cont.GetUser(r.Context()); user != nil {
				req.Device = user.Username
			}
		}

		logger = logger.With(
			slog.String("scenario", req.Scenario),
			slog.String("device", req.Device),
		)

		snap, err := handler.StartSession(r.Context(), req)
		if err != nil {
			logger.Error("start session", sl.Err(err))
			render.Status(r, statusOf(err))
			render.JSON(w, r, response.Error(fmt.Sprintf("Start session failed: %v", err)))
			return
		}

		logger.Debug("session started", slog.String("session_id", snap.SessionID))
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.Ok(entity.SessionStarted{
			Snapshot:  snap,
			StreamURL: handler.StreamURL(snap.SessionID),
		}))
	}
}
