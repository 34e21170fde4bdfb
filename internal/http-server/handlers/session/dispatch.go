package session

import (
	"ScanFlow/entity"
	"ScanFlow/internal/lib/api/response"
	"ScanFlow/internal/lib/sl"
	"ScanFlow/scenario"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// BusyResponse carries the unchanged snapshot of a session that rejected an
// event because a call is in flight.
type BusyResponse struct {
	response.Response
	Snapshot scenario.Snapshot `json:"snapshot"`
}

func Dispatch(log *slog.Logger, handler Core) http.HandlerFunc {
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

		var req entity.SessionEvent
		if err := render.Bind(r, &req); err != nil {
			logger.Error("failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request body"))
			return
		}
		logger = logger.With(slog.String("event", string(req.Event)))

		snap, err := handler.Dispatch(r.Context(), id, req.Event, req.Payload, req.Wait)
		if errors.Is(err, scenario.ErrBusy) {
			logger.Debug("session busy")
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, BusyResponse{
				Response: response.Error(err.Error()),
				Snapshot: snap,
			})
			return
		}
		if err != nil {
			logger.Error("dispatch event", sl.Err(err))
			render.Status(r, statusOf(err))
			render.JSON(w, r, response.Error(err.Error()))
			return
		}

		logger.With(
			slog.String("state", string(snap.Name)),
			slog.Bool("busy", snap.Busy),
		).Debug("event dispatched")
		render.JSON(w, r, response.Ok(snap))
	}
}
