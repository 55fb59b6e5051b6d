package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"
)

// HealthCheck probes one backing service.
type HealthCheck func(ctx context.Context) error

// HealthHandler responds with service health information.
type HealthHandler struct {
	Checks  map[string]HealthCheck
	Timeout time.Duration
}

// Handle implements GET /healthz. Any failing check turns the response into a 503.
func (h HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	ctx := r.Context()
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	names := make([]string, 0, len(h.Checks))
	for name := range h.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	payload := map[string]string{"status": "ok"}
	for _, name := range names {
		checkCtx, cancel := context.WithTimeout(ctx, timeout)
		err := h.Checks[name](checkCtx)
		cancel()

		if err != nil {
			payload[name] = "unavailable"
			payload["status"] = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		payload[name] = "ok"
	}

	respondJSON(ctx, w, status, payload)
}
