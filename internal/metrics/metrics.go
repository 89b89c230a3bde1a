package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mozdef_proxy"

// Event outcomes recorded by EventsTotal.
const (
	OutcomeForwarded    = "forwarded"
	OutcomeInvalid      = "invalid"
	OutcomeBackendError = "backend_error"
	OutcomeGuardError   = "guard_error"
)

// Registry holds every metric the proxy exposes. Nothing registers with the
// Prometheus default registry.
var Registry = prometheus.NewRegistry()

// AppInfo exposes build information as labels; the value is always 1.
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application version information (always set to 1, version info in labels)",
	},
	[]string{"version", "commit", "build_date", "backend"},
)

// EventsTotal counts ingest requests by how they ended.
var EventsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_total",
		Help:      "Events received, by outcome (forwarded, invalid, backend_error, guard_error)",
	},
	[]string{"outcome"},
)

// EnqueueDuration covers the full enqueue call, including time spent waiting
// for the shared backend.
var EnqueueDuration = promauto.With(Registry).NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "enqueue_duration_seconds",
		Help:      "Time to hand one event to the queue backend in seconds",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	},
	[]string{"backend"},
)

// BackendPoisoned is 1 once the shared backend handle has been disabled by a panic.
var BackendPoisoned = promauto.With(Registry).NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "backend_poisoned",
		Help:      "Whether the shared queue backend is disabled after a panic (0 or 1)",
	},
)

var registerRuntime sync.Once

// Init registers runtime collectors and publishes build information. Calling
// it again only updates AppInfo.
func Init(version, commit, buildDate, backend string) {
	registerRuntime.Do(func() {
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})

	AppInfo.WithLabelValues(version, commit, buildDate, backend).Set(1)
}
