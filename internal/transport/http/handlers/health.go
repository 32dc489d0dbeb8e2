package http_handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/baechuer/nippou-service/internal/logger"
	"github.com/baechuer/nippou-service/internal/transport/http/response"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	deps    map[string]Pinger
	timeout time.Duration
}

// NewHealthHandler takes the named dependencies /readyz must reach.
// Nil pingers are skipped.
func NewHealthHandler(deps map[string]Pinger) *HealthHandler {
	clean := make(map[string]Pinger, len(deps))
	for name, p := range deps {
		if p != nil {
			clean[name] = p
		}
	}
	return &HealthHandler{deps: clean, timeout: 2 * time.Second}
}

// Healthz handles GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{"status": "ok"})
}

// Readyz handles GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	for name, p := range h.deps {
		if err := p.Ping(ctx); err != nil {
			logger.WithCtx(r.Context()).Warn().Err(err).Str("dependency", name).Msg("readiness_failed")
			response.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"error":  name + " unavailable",
			})
			return
		}
	}

	response.OK(w, map[string]string{"status": "ready"})
}
