package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options control monitoring module configuration.
type Options struct {
	// ProbeTimeout bounds each health probe. Defaults to 5s.
	ProbeTimeout time.Duration
	// Gatherer serves /metrics. Defaults to the process-wide Prometheus registry.
	Gatherer prometheus.Gatherer
}

// Module bundles health probes, maintenance job state and the metrics endpoint.
type Module struct {
	gatherer prometheus.Gatherer
	stats    *statStore
	health   *HealthManager
}

// NewModule constructs a monitoring module.
func NewModule(opts Options) *Module {
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Module{
		gatherer: gatherer,
		stats:    newStatStore(),
		health:   NewHealthManager(opts.ProbeTimeout),
	}
}

// Handler returns an http.Handler serving Prometheus metrics.
func (m *Module) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Health exposes the health manager responsible for liveness and readiness probes.
func (m *Module) Health() *HealthManager {
	if m == nil {
		return nil
	}
	return m.health
}

// Snapshot returns a point-in-time summary of this module's state.
func (m *Module) Snapshot() Summary {
	if m == nil || m.stats == nil {
		return Summary{GeneratedAt: time.Now()}
	}
	return m.stats.summary()
}
