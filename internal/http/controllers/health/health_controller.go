// Package health contiene el controller para health checks.
package health

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/dropDatabas3/clouddrive/internal/http/helpers"
	"github.com/dropDatabas3/clouddrive/internal/observability/logger"
)

// Check verifica un componente. nil = sano.
type Check func(ctx context.Context) error

// Response es el cuerpo de /readyz.
type Response struct {
	Status     string            `json:"status"` // ready | unavailable
	Version    string            `json:"version,omitempty"`
	Components map[string]string `json:"components,omitempty"`
}

// Controller maneja /readyz.
type Controller struct {
	version string
	checks  map[string]Check
	timeout time.Duration
}

// NewController crea el controller con los checks por componente.
func NewController(version string, checks map[string]Check) *Controller {
	return &Controller{version: version, checks: checks, timeout: 2 * time.Second}
}

// Readyz maneja GET /readyz
func (c *Controller) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
	defer cancel()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("HealthController.Readyz"))

	resp := Response{Status: "ready", Version: c.version, Components: map[string]string{}}
	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := c.checks[name](ctx); err != nil {
			resp.Status = "unavailable"
			resp.Components[name] = "down"
			log.Warn("component unhealthy", logger.Component(name), logger.Err(err))
			continue
		}
		resp.Components[name] = "ok"
	}

	status := http.StatusOK
	if resp.Status != "ready" {
		status = http.StatusServiceUnavailable
	}
	if c.version != "" {
		w.Header().Set("X-Service-Version", c.version)
	}
	helpers.WriteJSON(w, status, resp)
}
