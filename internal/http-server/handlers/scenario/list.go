package scenario

import (
	"ScanFlow/internal/lib/api/response"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
)

func List(_ *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if handler == nil {
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("Scenario service not available"))
			return
		}
		render.JSON(w, r, response.Ok(handler.Scenarios()))
	}
}
