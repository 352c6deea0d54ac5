package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/justinas/alice"
	"github.com/marmos91/filesmanager/internal/ratelimiter"
	"github.com/marmos91/filesmanager/pkg/auth"
	"github.com/marmos91/filesmanager/pkg/files"
	"github.com/marmos91/filesmanager/pkg/metrics"
)

// healthcheckTimeout bounds each backend probe on GET /status.
const healthcheckTimeout = 5 * time.Second

// HealthChecker is implemented by every backend store.
type HealthChecker interface {
	Healthcheck(ctx context.Context) error
}

// Dependencies are the services the API serves.
type Dependencies struct {
	Files *files.Manager
	Auth  *auth.Service

	// Backends probed by GET /status. A nil checker reports false.
	Metadata HealthChecker
	Queue    HealthChecker
	Content  HealthChecker

	// Metrics defaults to a no-op implementation.
	Metrics metrics.HTTPMetrics

	// Limiter throttles clients; nil disables rate limiting.
	Limiter *ratelimiter.KeyedRateLimiter
}

// handler holds the state shared by all route handlers.
type handler struct {
	files        *files.Manager
	auth         *auth.Service
	maxBodyBytes int64

	metadata HealthChecker
	queue    HealthChecker
	content  HealthChecker
}

// NewRouter builds the HTTP handler for the API.
//
// Every request passes through the same chain: request id, panic recovery,
// access log, metrics, then rate limiting. Authenticated routes add
// requireUser; GET /files/{id}/data adds optionalUser so public files can be
// read anonymously.
func NewRouter(cfg Config, deps Dependencies) http.Handler {
	cfg.ApplyDefaults()

	m := deps.Metrics
	if m == nil {
		m = metrics.NewNoopHTTPMetrics()
	}

	h := &handler{
		files:        deps.Files,
		auth:         deps.Auth,
		maxBodyBytes: cfg.MaxBodyBytes,
		metadata:     deps.Metadata,
		queue:        deps.Queue,
		content:      deps.Content,
	}

	chain := alice.New(requestID, recoverer, requestLogger, instrument(m), rateLimit(deps.Limiter, m))
	authed := alice.New(h.requireUser)

	r := chi.NewRouter()
	r.Use(chain.Then)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, files.MsgNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
	})

	r.Get("/status", h.status)
	r.Get("/stats", h.stats)

	r.Post("/users", h.register)
	r.Get("/connect", h.connect)
	r.Get("/disconnect", h.disconnect)
	r.Method(http.MethodGet, "/users/me", authed.ThenFunc(h.me))

	r.Route("/files", func(r chi.Router) {
		r.Method(http.MethodPost, "/", authed.ThenFunc(h.createFile))
		r.Method(http.MethodGet, "/", authed.ThenFunc(h.listFiles))
		r.Method(http.MethodGet, "/{id}", authed.ThenFunc(h.getFile))
		r.Method(http.MethodPut, "/{id}/publish", authed.ThenFunc(h.publish))
		r.Method(http.MethodPut, "/{id}/unpublish", authed.ThenFunc(h.unpublish))
		r.Method(http.MethodGet, "/{id}/data", alice.New(h.optionalUser).ThenFunc(h.fileData))
	})

	return r
}
