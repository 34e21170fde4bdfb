package authenticate

import (
	"ScanFlow/entity"
	"ScanFlow/internal/lib/api/cont"
	"ScanFlow/internal/lib/api/response"
	"ScanFlow/internal/lib/sl"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Authenticate interface {
	AuthenticateByToken(token string) (*entity.UserAuth, error)
}

var (
	errNoCredentials = errors.New("authorization header not found")
	errNoToken       = errors.New("token not found")
)

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "scanflow_http_request_duration_seconds",
	Help:    "Duration of authenticated API requests.",
	Buckets: prometheus.DefBuckets,
}, []string{"route", "status"})

// New logs every request and admits it only with a valid device key, sent
// as a Bearer token or in the X-API-Key header.
func New(log *slog.Logger, auth Authenticate) func(next http.Handler) http.Handler {
	mod := sl.Module("middleware.authenticate")
	log.With(mod).Info("authenticate middleware initialized")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := middleware.GetReqID(r.Context())
			logger := log.With(
				mod,
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", remoteAddr(r)),
				slog.String("request_id", id),
			)
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			started := time.Now()
			defer func() {
				elapsed := time.Since(started)
				requestDuration.
					WithLabelValues(routePattern(r), strconv.Itoa(ww.Status())).
					Observe(elapsed.Seconds())

				level := slog.LevelInfo
				if ww.Status() >= http.StatusBadRequest {
					level = slog.LevelWarn
				}
				logger.Log(r.Context(), level, "incoming request",
					slog.Int("status", ww.Status()),
					slog.Int("size", ww.BytesWritten()),
					slog.Float64("duration", elapsed.Seconds()),
				)
			}()

			token, err := requestToken(r)
			if err != nil {
				logger = logger.With(sl.Err(err))
				authFailed(ww, r, "Unauthorized: "+err.Error())
				return
			}
			logger = logger.With(sl.Secret("token", token))

			if auth == nil {
				authFailed(ww, r, "Unauthorized: authentication not enabled")
				return
			}
			user, err := auth.AuthenticateByToken(token)
			if err != nil {
				logger = logger.With(sl.Err(err))
				authFailed(ww, r, "Unauthorized: invalid token")
				return
			}
			logger = logger.With(slog.String("device", user.Username))

			ww.Header().Set("X-Request-ID", id)
			ww.Header().Set("X-Device", user.Username)
			next.ServeHTTP(ww, r.WithContext(cont.PutUser(r.Context(), user)))
		})
	}
}

func requestToken(r *http.Request) (string, error) {
	if key := strings.TrimSpace(r.Header.Get("X-API-Key")); key != "" {
		return key, nil
	}
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errNoCredentials
	}
	prefix, value, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(prefix, "Bearer") {
		return "", errNoToken
	}
	token := strings.TrimSpace(value)
	if token == "" {
		return "", errNoToken
	}
	return token, nil
}

// remoteAddr prefers the proxy header when present.
func remoteAddr(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	return r.RemoteAddr
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

func authFailed(w http.ResponseWriter, r *http.Request, message string) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, response.Error(message))
}
