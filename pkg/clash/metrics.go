package clash

import "github.com/prometheus/client_golang/prometheus"

const (
	namespace = "rangeheap"
	subsystem = "clash"
)

// Metrics counts the work done by a Detector. A nil *Metrics records nothing.
type Metrics struct {
	NodePairsTotal      *prometheus.CounterVec
	CandidatePairsTotal *prometheus.CounterVec
	SearchDuration      *prometheus.HistogramVec
}

// NewMetrics creates the detector metrics and registers them with reg. A nil
// reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	NodePairsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "node_pairs_total",
		Help:      "Number of node pairs offered to a pair processor.",
	}, []string{"search"})

	CandidatePairsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "candidate_pairs_total",
		Help:      "Number of overlapping part and facet pairs found.",
	}, []string{"level"})

	SearchDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Buckets:   []float64{.0001, .001, .01, .1, 1, 10},
			Name:      "search_duration_seconds",
			Help:      "Pair search latencies in seconds.",
		}, []string{"search"},
	)

	if reg != nil {
		reg.MustRegister(
			NodePairsTotal,
			CandidatePairsTotal,
			SearchDuration,
		)
	}

	return &Metrics{
		NodePairsTotal:      NodePairsTotal,
		CandidatePairsTotal: CandidatePairsTotal,
		SearchDuration:      SearchDuration,
	}
}

func (m *Metrics) nodePair(search string) {
	if m != nil {
		m.NodePairsTotal.WithLabelValues(search).Inc()
	}
}

func (m *Metrics) candidates(level string, n int) {
	if m != nil && n > 0 {
		m.CandidatePairsTotal.WithLabelValues(level).Add(float64(n))
	}
}

func (m *Metrics) observe(search string, seconds float64) {
	if m != nil {
		m.SearchDuration.WithLabelValues(search).Observe(seconds)
	}
}
