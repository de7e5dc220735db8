// Package handler exposes identity resolution over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"idlookup/internal/identity/models"
	dErrors "idlookup/pkg/domain-errors"
	"idlookup/pkg/platform/httputil"
	"idlookup/pkg/platform/privacy"
	"idlookup/pkg/requestcontext"
)

// Service defines the interface for identity operations.
type Service interface {
	Resolve(ctx context.Context, idNumber string) (*models.ResolutionOutcome, error)
	Lookup(ctx context.Context, idNumber string) (*models.LookupResult, error)
}

// Handler wires identity endpoints to the resolution service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Register mounts identity endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/identities/resolve", h.HandleResolve)
	r.Get("/identities/{idNumber}", h.HandleLookup)
}

// HandleResolve handles POST /identities/resolve requests.
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[ResolveRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	outcome, err := h.service.Resolve(ctx, req.IDNumber)
	if err != nil {
		h.logFailure(ctx, "identity resolution failed", requestID, req.IDNumber, err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "identity resolution served",
		"request_id", requestID,
		"id_hash", privacy.HashIDNumber(req.IDNumber),
		"is_new_user", outcome.IsNewUser,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromOutcome(outcome))
}

// HandleLookup handles GET /identities/{idNumber} requests.
func (h *Handler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	idNumber := chi.URLParam(r, "idNumber")

	result, err := h.service.Lookup(ctx, idNumber)
	if err != nil {
		h.logFailure(ctx, "identity lookup failed", requestID, idNumber, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromLookup(result))
}

// logFailure logs client errors at WARN and everything else at ERROR.
func (h *Handler) logFailure(ctx context.Context, msg, requestID, idNumber string, err error) {
	attrs := []any{
		"request_id", requestID,
		"id_hash", privacy.HashIDNumber(idNumber),
		"error", err,
	}
	switch dErrors.CodeOf(err) {
	case dErrors.CodeValidation, dErrors.CodeBadRequest:
		h.logger.WarnContext(ctx, msg, attrs...)
	default:
		h.logger.ErrorContext(ctx, msg, attrs...)
	}
}
