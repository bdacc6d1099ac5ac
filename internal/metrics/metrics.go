// Package metrics holds the prometheus collectors of the trace pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var PipelineRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "tracelens",
	Subsystem: "pipeline",
	Name:      "runs",
}, []string{"action", "result"})

var PipelineDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "tracelens",
	Subsystem: "pipeline",
	Name:      "duration_seconds",
	Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
}, []string{"action"})

var StoreQueries = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "tracelens",
	Subsystem: "store",
	Name:      "queries",
}, []string{"op", "result"})

// Series counters carry no target label: datax names come from the client.
var MalformedElements = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "tracelens",
	Subsystem: "series",
	Name:      "malformed_elements",
})

var ExcessDimension = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "tracelens",
	Subsystem: "series",
	Name:      "excess_dimension",
})

var OpenStores = prometheus.NewGauge(prometheus.GaugeOpts{
	Namespace: "tracelens",
	Subsystem: "pool",
	Name:      "open_stores",
})

// Result label values.
const (
	ResultOK          = "ok"
	ResultError       = "error"
	ResultUnreachable = "unreachable"
)

// Collectors lists every collector for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		PipelineRuns,
		PipelineDuration,
		StoreQueries,
		MalformedElements,
		ExcessDimension,
		OpenStores,
	}
}

// Register adds every collector to reg.
func Register(reg prometheus.Registerer) error {
	for _, c := range Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
