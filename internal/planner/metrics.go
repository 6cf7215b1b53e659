package planner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"

	"github.com/sells-group/ooh-planner/internal/selection"
)

// Metrics bundles the Prometheus collectors updated by a Session.
type Metrics struct {
	gatherer prometheus.Gatherer

	Recomputes       prometheus.Counter
	RecomputeSeconds prometheus.Histogram
	ItemsByState     *prometheus.GaugeVec
	Zones            prometheus.Gauge
}

// NewMetrics registers planner metrics against reg, defaulting to the global
// registry when nil. Registering twice on the same registry reuses the
// existing collectors.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	recomputes, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "planner_recomputes_total",
		Help: "Number of item view recomputations.",
	}), "planner_recomputes_total")
	if err != nil {
		return nil, err
	}
	seconds, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "planner_recompute_duration_seconds",
		Help:    "Time spent recomputing item views.",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}), "planner_recompute_duration_seconds")
	if err != nil {
		return nil, err
	}
	byState, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "planner_items_by_state",
		Help: "Items per display state after the last recomputation.",
	}, []string{"state"}), "planner_items_by_state")
	if err != nil {
		return nil, err
	}
	zones, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "planner_zones",
		Help: "Active proximity zones in the session.",
	}), "planner_zones")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		gatherer:         gatherer,
		Recomputes:       recomputes,
		RecomputeSeconds: seconds,
		ItemsByState:     byState,
		Zones:            zones,
	}, nil
}

// WriteTextfile writes every metric of the registry in the node_exporter
// textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return eris.Wrap(prometheus.WriteToTextfile(path, m.gatherer), "planner: write metrics textfile")
}

func (m *Metrics) observe(counts map[selection.State]int, seconds float64) {
	m.Recomputes.Inc()
	m.RecomputeSeconds.Observe(seconds)
	for _, s := range states {
		m.ItemsByState.WithLabelValues(string(s)).Set(float64(counts[s]))
	}
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T, name string) (T, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			return c, eris.Errorf("planner: collector %s already registered with incompatible type", name)
		}
		return c, eris.Wrapf(err, "planner: register %s", name)
	}
	return c, nil
}
