package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		stateTransitionsTotal,
		featureTogglesTotal,
	)
}

var (
	stateTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "user_state_transitions_total",
			Help: "Recorded lifecycle state transitions by destination state.",
		},
		[]string{"to_state"},
	)

	featureTogglesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feature_toggles_total",
			Help: "Feature gate operations by feature and action (unlock/enable/disable).",
		},
		[]string{"feature", "action"},
	)
)

func IncStateTransition(toState string) {
	stateTransitionsTotal.WithLabelValues(norm(toState)).Inc()
}

func IncFeatureToggle(feature, action string) {
	featureTogglesTotal.WithLabelValues(norm(feature), norm(action)).Inc()
}
