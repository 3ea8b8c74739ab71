package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Application metrics, registered by the metrics server at startup.
var (
	// ClassificationsTotal counts lifecycle classification runs by resulting state.
	ClassificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lifecycle_classifications_total",
			Help: "Total number of lifecycle classification runs",
		},
		[]string{"state"},
	)

	// StateTransitionsTotal counts lifecycle state changes by edge.
	StateTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lifecycle_state_transitions_total",
			Help: "Total number of lifecycle state transitions",
		},
		[]string{"from", "to"},
	)

	// HabitTriggersTotal counts habit-loop trigger firings by loop.
	HabitTriggersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habit_loop_triggers_total",
			Help: "Total number of habit loop trigger firings",
		},
		[]string{"loop"},
	)

	// InterventionsSelectedTotal counts selected interventions by type and source.
	InterventionsSelectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interventions_selected_total",
			Help: "Total number of interventions selected",
		},
		[]string{"type", "source"},
	)
)

// Collectors returns all application collectors for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		ClassificationsTotal,
		StateTransitionsTotal,
		HabitTriggersTotal,
		InterventionsSelectedTotal,
	}
}
