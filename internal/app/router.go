package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"idlookup/internal/identity/handler"
	"idlookup/pkg/platform/httputil"
	"idlookup/pkg/platform/middleware/request"
)

const readinessTimeout = 2 * time.Second

// NewRouter builds the HTTP surface: identity endpoints behind the request
// middleware chain, plus health and metrics.
func (a *App) NewRouter() http.Handler {
	requestMetrics := request.NewMetrics(a.Metrics.Registerer())

	r := chi.NewRouter()
	r.Use(request.Recovery(a.Logger))
	r.Use(request.RequestID)
	r.Use(request.RequestTime)
	r.Use(request.Logger(a.Logger))
	r.Use(request.LatencyMiddleware(requestMetrics))

	r.Get("/health/live", a.handleLive)
	r.Get("/health/ready", a.handleReady)
	r.Method(http.MethodGet, "/metrics", a.Metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(request.BodyLimit(request.DefaultMaxBodyBytes))
		r.Use(request.ContentTypeJSON)
		handler.New(a.Service, a.Logger).Register(r)
	})
	return r
}

func (a *App) handleLive(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()
	if err := a.Ready(ctx); err != nil {
		a.Logger.WarnContext(ctx, "readiness check failed", "error", err)
		httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
