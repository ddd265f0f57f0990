package main

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/geange/bisim"
)

const metricsNamespace = "ltsreduce"

// reductionMetrics holds the gauges describing one reduction. They live in
// their own registry and are written once, for a node exporter textfile
// collector.
type reductionMetrics struct {
	registry *prometheus.Registry

	states      *prometheus.GaugeVec
	transitions *prometheus.GaugeVec
	rounds      prometheus.Gauge
	splits      prometheus.Gauge
	newBottom   prometheus.Gauge
	duration    prometheus.Gauge
}

func newReductionMetrics(eq bisim.Equivalence) *reductionMetrics {
	labels := prometheus.Labels{"equivalence": eq.String()}
	m := &reductionMetrics{
		registry: prometheus.NewRegistry(),
		states: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   metricsNamespace,
			Name:        "states",
			Help:        "Number of states before and after reduction.",
			ConstLabels: labels,
		}, []string{"stage"}),
		transitions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   metricsNamespace,
			Name:        "transitions",
			Help:        "Number of transitions before and after reduction.",
			ConstLabels: labels,
		}, []string{"stage"}),
		rounds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   metricsNamespace,
			Name:        "refinement_rounds",
			Help:        "Constellations split during refinement.",
			ConstLabels: labels,
		}),
		splits: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   metricsNamespace,
			Name:        "block_splits",
			Help:        "Blocks created during refinement.",
			ConstLabels: labels,
		}),
		newBottom: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   metricsNamespace,
			Name:        "new_bottom_states",
			Help:        "States that became bottom states during refinement.",
			ConstLabels: labels,
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   metricsNamespace,
			Name:        "duration_seconds",
			Help:        "Wall time of the reduction.",
			ConstLabels: labels,
		}),
	}
	m.registry.MustRegister(m.states, m.transitions, m.rounds, m.splits, m.newBottom, m.duration)
	return m
}

func (m *reductionMetrics) observe(stats bisim.Stats, outTransitions int, elapsed time.Duration) {
	m.states.WithLabelValues("input").Set(float64(stats.States))
	m.states.WithLabelValues("output").Set(float64(stats.Classes))
	m.transitions.WithLabelValues("input").Set(float64(stats.Transitions))
	m.transitions.WithLabelValues("output").Set(float64(outTransitions))
	m.rounds.Set(float64(stats.Rounds))
	m.splits.Set(float64(stats.Splits))
	m.newBottom.Set(float64(stats.NewBottomStates))
	m.duration.Set(elapsed.Seconds())
}

func (m *reductionMetrics) writeFile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
