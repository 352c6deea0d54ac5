package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/marmos91/filesmanager/internal/logger"
	"github.com/marmos91/filesmanager/internal/ratelimiter"
	"github.com/marmos91/filesmanager/pkg/auth"
	"github.com/marmos91/filesmanager/pkg/metadata"
	"github.com/marmos91/filesmanager/pkg/metrics"
)

// TokenHeader carries the session token on authenticated routes.
const TokenHeader = "X-Token"

// RequestIDHeader is echoed on every response.
const RequestIDHeader = "X-Request-ID"

// ============================================================================
// Response Recorder
// ============================================================================

// statusRecorder captures the status code and body size for logging and
// metrics.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	written     int64
	wroteHeader bool
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (rw *statusRecorder) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.status = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// ============================================================================
// Global Middleware
// ============================================================================

// requestID assigns a request id, reusing a client-supplied one if present.
// It is stored where chi's middleware.GetReqID finds it.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// recoverer turns a handler panic into a 500 and keeps the server running.
// A panic after the response has started is only logged: the status line is
// already on the wire.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := newStatusRecorder(w)
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				if rw.wroteHeader {
					logger.Error("Request %s %s panicked after %d bytes: request_id=%s panic=%v",
						r.Method, r.URL.Path, rw.written, middleware.GetReqID(r.Context()), rec)
					return
				}
				w.Header().Set("Connection", "close")
				writeInternalError(w, r, fmt.Errorf("panic: %v", rec))
			}
		}()
		next.ServeHTTP(rw, r)
	})
}

// requestLogger logs one line per request. 4xx log at WARN and 5xx at ERROR.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := newStatusRecorder(w)

		next.ServeHTTP(rw, r)

		level := slog.LevelInfo
		switch {
		case rw.status >= 500:
			level = slog.LevelError
		case rw.status >= 400:
			level = slog.LevelWarn
		}

		logger.Slog().LogAttrs(r.Context(), level, "request",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rw.status),
			slog.Duration("duration", time.Since(start)),
			slog.String("bytes", humanize.Bytes(uint64(rw.written))),
			slog.String("remote", clientIP(r)),
		)
	})
}

// instrument records request metrics labeled by route pattern. It must run
// inside the chi router so the pattern is known once the handler returns.
func instrument(m metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newStatusRecorder(w)

			m.RecordRequestStart()
			defer m.RecordRequestEnd()

			next.ServeHTTP(rw, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			m.RecordRequest(r.Method, route, rw.status, time.Since(start))
		})
	}
}

// rateLimit rejects clients that exceed their token bucket. A nil limiter
// disables limiting.
func rateLimit(limiter *ratelimiter.KeyedRateLimiter, m metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientIP(r)) {
				m.RecordRateLimited()
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP is the peer address without port. Forwarding headers are not
// trusted.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ============================================================================
// Authentication
// ============================================================================

type userContextKey struct{}

// userFrom returns the authenticated user, or nil for anonymous requests.
func userFrom(ctx context.Context) *metadata.User {
	u, _ := ctx.Value(userContextKey{}).(*metadata.User)
	return u
}

// requireUser rejects requests without a valid X-Token with 401.
func (h *handler) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := h.auth.Authenticate(r.Context(), r.Header.Get(TokenHeader))
		if err != nil {
			writeAuthError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userContextKey{}, user)))
	})
}

// optionalUser attaches the user when X-Token is valid and otherwise serves
// the request anonymously.
func (h *handler) optionalUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(TokenHeader)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, err := h.auth.Authenticate(r.Context(), token)
		switch {
		case err == nil:
			r = r.WithContext(context.WithValue(r.Context(), userContextKey{}, user))
		case errors.Is(err, auth.ErrUnauthorized):
		default:
			writeAuthError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}
