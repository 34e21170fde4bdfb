package session

import (
	"ScanFlow/impl/core"
	"ScanFlow/scenario"
	"errors"
	"net/http"
)

// statusOf maps a session error to the HTTP status returned to screens.
func statusOf(err error) int {
	switch {
	case errors.Is(err, core.ErrSessionNotFound), errors.Is(err, scenario.ErrUnknownScenario):
		return http.StatusNotFound
	case errors.Is(err, scenario.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, scenario.ErrClosed):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}
