package triples

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeOK           = "ok"
	outcomeCompileError = "compile_error"
	outcomeStoreError   = "store_error"
)

type serviceMetrics struct {
	queries        *prometheus.CounterVec
	queryDuration  prometheus.Histogram
	triplesAdded   prometheus.Counter
	triplesRemoved prometheus.Counter
}

// newMetrics creates the service metrics and registers them with reg. A nil
// reg registers with a private registry.
func newMetrics(reg prometheus.Registerer) *serviceMetrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &serviceMetrics{
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "strata",
			Subsystem: "triples",
			Name:      "queries_total",
			Help:      `The number of queries started, by result kind and outcome.`,
		}, []string{"kind", "outcome"}),
		queryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "strata",
			Subsystem: "triples",
			Name:      "query_duration_seconds",
			Help:      `The time taken to compile and execute a query, not including iteration.`,
			Buckets:   prometheus.DefBuckets,
		}),
		triplesAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "strata",
			Subsystem: "triples",
			Name:      "added_total",
			Help:      `The number of triples committed by AddTriple and AddTriples.`,
		}),
		triplesRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "strata",
			Subsystem: "triples",
			Name:      "removed_total",
			Help:      `The number of triples deleted by RemoveTriples.`,
		}),
	}

	reg.MustRegister(m.queries, m.queryDuration, m.triplesAdded, m.triplesRemoved)
	return m
}
