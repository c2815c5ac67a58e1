package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "party_sessions_created_total",
		Help: "Total number of created game sessions.",
	})

	roundsDecidedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "party_rounds_decided_total",
		Help: "Total number of rounds with a picked winner.",
	})

	lockContentionTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "party_lock_contention_total",
		Help: "Total number of mutations rejected because the session lock was busy.",
	})

	gameErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "party_game_errors_total",
			Help: "Total number of game errors by kind.",
		},
		[]string{"kind"},
	)
)
