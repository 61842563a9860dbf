package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"userflat/internal/userrecord/models"
	dErrors "userflat/pkg/domain-errors"
	"userflat/pkg/platform/httputil"
	"userflat/pkg/requestcontext"
)

// DefaultMaxBodyBytes bounds a single request body.
const DefaultMaxBodyBytes int64 = 1 << 20

const healthTimeout = 2 * time.Second

// Service flattens a raw request body.
type Service interface {
	FlattenJSON(ctx context.Context, body []byte) (*models.Record, error)
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Handler serves the flattening endpoints.
type Handler struct {
	service  Service
	logger   *slog.Logger
	maxBody  int64
	checks   map[string]HealthCheck
	checkSeq []string
	guards   []func(http.Handler) http.Handler
}

type Option func(h *Handler)

func WithMaxBodyBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxBody = n
		}
	}
}

// WithGuard wraps POST /users/flatten, typically with bearer auth. GET
// /health is never guarded.
func WithGuard(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.guards = append(h.guards, mw)
	}
}

// WithHealthCheck adds a named dependency to GET /health.
func WithHealthCheck(name string, check HealthCheck) Option {
	return func(h *Handler) {
		if _, ok := h.checks[name]; !ok {
			h.checkSeq = append(h.checkSeq, name)
		}
		h.checks[name] = check
	}
}

// New creates a new flatten Handler.
func New(service Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		service: service,
		logger:  logger,
		maxBody: DefaultMaxBodyBytes,
		checks:  make(map[string]HealthCheck),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register registers the flatten routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.With(h.guards...).Post("/users/flatten", h.handleFlatten)
	r.Get("/health", h.handleHealth)
}

func (h *Handler) handleFlatten(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.WarnContext(ctx, "request body too large",
				"request_id", requestID,
				"limit", tooLarge.Limit,
			)
			httputil.WriteError(w, dErrors.New(dErrors.CodeTooLarge, "request body too large"))
			return
		}
		h.logger.WarnContext(ctx, "failed to read request body",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	record, err := h.service.FlattenJSON(ctx, body)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if len(h.checkSeq) == 0 {
		httputil.WriteJSON(w, http.StatusOK, resp)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	status := http.StatusOK
	resp.Checks = make(map[string]string, len(h.checkSeq))
	for _, name := range h.checkSeq {
		if err := h.checks[name](ctx); err != nil {
			h.logger.WarnContext(ctx, "health check failed",
				"check", name,
				"error", err.Error(),
			)
			resp.Checks[name] = "unavailable"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	httputil.WriteJSON(w, status, resp)
}
