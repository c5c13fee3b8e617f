package health

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/hsd87/JerseyAI-sub001/internal/common"
)

// Probe checks one dependency. Implementations should honor the context
// deadline set by the handler.
type Probe func(ctx context.Context) error

// Handler exposes liveness and readiness endpoints. Probes are keyed by the
// name reported in the readiness payload (db, redis, rules, catalog).
type Handler struct {
	Probes  map[string]Probe
	Timeout time.Duration
}

var ready atomic.Bool

func init() { ready.Store(true) }

// SetReady flips the readiness gate. The server calls SetReady(false) when
// shutdown begins so load balancers drain before connections close.
func SetReady(v bool) { ready.Store(v) }

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports readiness based on the registered probes and the shutdown
// gate.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !ready.Load() {
		common.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "shutting down"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout())
	defer cancel()

	status := make(map[string]string, len(h.Probes))
	healthy := true
	for name, probe := range h.Probes {
		if probe == nil {
			continue
		}
		if err := probe(ctx); err != nil {
			status[name] = err.Error()
			healthy = false
			continue
		}
		status[name] = "ok"
	}

	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	common.JSON(w, code, status)
}

func (h Handler) timeout() time.Duration {
	if h.Timeout <= 0 {
		return 500 * time.Millisecond
	}
	return h.Timeout
}
