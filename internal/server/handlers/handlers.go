// Package handlers provides the HTTP handlers of the integrations API.
// Handlers translate requests into manager calls and forward any error
// with the status code and message it carries.
package handlers

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/integrations/internal/server/cache"
	"github.com/agentstation/integrations/internal/server/metrics"
	"github.com/agentstation/integrations/pkg/manager"
)

// Handlers provides access to all HTTP handlers.
type Handlers struct {
	manager   *manager.Manager
	cache     *cache.Cache
	metrics   *metrics.Metrics
	logger    *zerolog.Logger
	startTime time.Time
}

// New creates a new Handlers instance.
func New(m *manager.Manager, c *cache.Cache, mt *metrics.Metrics, logger *zerolog.Logger) *Handlers {
	return &Handlers{
		manager:   m,
		cache:     c,
		metrics:   mt,
		logger:    logger,
		startTime: time.Now(),
	}
}

// cached serves key from the response cache, loading it with load on a
// miss. The outcome of every load is counted under operation.
func (h *Handlers) cached(operation, key string, load func() (any, error)) (any, error) {
	return h.cache.Remember(key, func() (any, error) {
		v, err := load()
		h.metrics.ObserveOperation(operation, err)
		return v, err
	})
}

// observe counts an uncached operation and passes err through.
func (h *Handlers) observe(operation string, err error) error {
	h.metrics.ObserveOperation(operation, err)
	return err
}

// invalidate flushes the response cache after a write.
func (h *Handlers) invalidate(cause string) {
	h.cache.Invalidate()
	h.metrics.CacheInvalidations.WithLabelValues(cause).Inc()
}
