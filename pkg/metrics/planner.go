package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PlannerMetrics records how the concurrency gate behaves under contention.
type PlannerMetrics struct {
	mutations    *prometheus.CounterVec
	conflicts    prometheus.Counter
	ruleRejects  *prometheus.CounterVec
	gateDuration prometheus.Histogram
}

// NewPlannerMetrics registers the planner metrics on the provided registerer.
func NewPlannerMetrics(reg prometheus.Registerer) *PlannerMetrics {
	if reg == nil {
		return &PlannerMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_mutations_total",
		Help: "Committed planner mutations by collection and action.",
	}, []string{"collection", "action"})
	conflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "planner_version_conflicts_total",
		Help: "Mutations rejected because the declared version was stale.",
	})
	ruleRejects := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_rule_rejections_total",
		Help: "Mutations rejected by the scheduling validator, by rule.",
	}, []string{"rule"})
	gateDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "planner_gate_duration_seconds",
		Help:    "Wall time spent holding the meta row lock.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(mutations, conflicts, ruleRejects, gateDuration)
	return &PlannerMetrics{
		mutations:    mutations,
		conflicts:    conflicts,
		ruleRejects:  ruleRejects,
		gateDuration: gateDuration,
	}
}

// IncMutation increments the committed-mutation counter.
func (m *PlannerMetrics) IncMutation(collection, action string) {
	if m == nil || m.mutations == nil {
		return
	}
	m.mutations.WithLabelValues(normalizeLabel(collection), normalizeLabel(action)).Inc()
}

// IncConflict increments the version-conflict counter.
func (m *PlannerMetrics) IncConflict() {
	if m == nil || m.conflicts == nil {
		return
	}
	m.conflicts.Inc()
}

// IncRuleRejection increments the validator rejection counter for a rule.
func (m *PlannerMetrics) IncRuleRejection(rule string) {
	if m == nil || m.ruleRejects == nil {
		return
	}
	m.ruleRejects.WithLabelValues(normalizeLabel(rule)).Inc()
}

// ObserveGateDuration records time spent inside a gated transaction.
func (m *PlannerMetrics) ObserveGateDuration(d time.Duration) {
	if m == nil || m.gateDuration == nil {
		return
	}
	m.gateDuration.Observe(d.Seconds())
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return "unknown"
	}
	return strings.ReplaceAll(value, " ", "_")
}
