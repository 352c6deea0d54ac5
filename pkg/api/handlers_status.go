package api

import (
	"context"
	"net/http"

	"github.com/marmos91/filesmanager/internal/logger"
)

type statusResponse struct {
	DB      bool `json:"db"`
	Queue   bool `json:"queue"`
	Storage bool `json:"storage"`
}

// status reports backend health. It always answers 200; the body says which
// backend is down.
func (h *handler) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		DB:      probe(r.Context(), "metadata", h.metadata),
		Queue:   probe(r.Context(), "queue", h.queue),
		Storage: probe(r.Context(), "content", h.content),
	})
}

func probe(ctx context.Context, name string, c HealthChecker) bool {
	if c == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, healthcheckTimeout)
	defer cancel()

	if err := c.Healthcheck(ctx); err != nil {
		logger.Warn("Healthcheck failed: backend=%s err=%v", name, err)
		return false
	}
	return true
}

func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.files.Stats(r.Context())
	if err != nil {
		writeFilesError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
