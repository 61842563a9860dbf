package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"userflat/internal/flatten/handler"
	"userflat/internal/platform/middleware"
	dErrors "userflat/pkg/domain-errors"
	"userflat/pkg/platform/httputil"
)

// Deps is everything the router mounts.
type Deps struct {
	Flatten *handler.Handler
	Logger  *slog.Logger
	// Gatherer backs GET /metrics. Defaults to the global registry.
	Gatherer prometheus.Gatherer
}

// NewRouter wires the public endpoints behind the shared middleware stack.
func NewRouter(d Deps) http.Handler {
	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.AccessLog(d.Logger))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeMethodInvalid, "method not allowed"))
	})

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	d.Flatten.Register(r)
	return r
}
