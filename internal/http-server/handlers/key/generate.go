package key

import (
	"ScanFlow/internal/lib/api/response"
	"ScanFlow/internal/lib/sl"
	"ScanFlow/internal/lib/validate"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Core interface {
	GenerateApiKey(device string) (string, error)
}

type Request struct {
	Device string `json:"device" validate:"required,max=128"`
}

func (req *Request) Bind(_ *http.Request) error {
	return validate.Struct(req)
}

// Generate issues the API key of a scanner device.
func Generate(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.key")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request
		if err := render.Bind(r, &req); err != nil {
			logger.Error("failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request body"))
			return
		}

		key, err := handler.GenerateApiKey(req.Device)
		if err != nil {
			logger.Error("generate api key", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to generate key"))
			return
		}

		logger.With(
			slog.String("device", req.Device),
			sl.Secret("key", key),
		).Info("api key issued")
		render.JSON(w, r, response.Ok(map[string]string{"device": req.Device, "key": key}))
	}
}
