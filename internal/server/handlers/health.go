package handlers

import (
	"net/http"
	"time"

	"github.com/agentstation/integrations/internal/server/response"
)

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, map[string]any{
		"status":         "healthy",
		"service":        "integrations-api",
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
		"cache":          h.cache.GetStats(),
	})
}
