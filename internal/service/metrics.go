package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	sessionsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "promptmatch_sessions_created_total",
		Help: "Matches opened by a host",
	})
	sessionsJoined = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "promptmatch_sessions_joined_total",
		Help: "Guests that joined a match",
	})
	lifecycleFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptmatch_lifecycle_failures_total",
			Help: "Rejected session lifecycle operations",
		},
		[]string{"op"},
	)
	tileSelections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptmatch_tile_selections_total",
			Help: "Tile selections by result",
		},
		[]string{"result"},
	)
	evaluations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptmatch_evaluations_total",
			Help: "Pair evaluations by outcome",
		},
		[]string{"outcome"},
	)
	matchesFinished = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "promptmatch_matches_finished_total",
		Help: "Matches that reached a winner or a tie",
	})
	storeErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "promptmatch_store_errors_total",
		Help: "Shared store operations that failed",
	})
)

func init() {
	prometheus.MustRegister(
		sessionsCreated,
		sessionsJoined,
		lifecycleFailures,
		tileSelections,
		evaluations,
		matchesFinished,
		storeErrors,
	)
}
