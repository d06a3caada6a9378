package ws

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "game_sessions_active",
			Help: "Sessions currently registered in the hub",
		},
	)
	ConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "game_connections_active",
			Help: "Live websocket connections attached to a session",
		},
	)
	InboundMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "game_inbound_messages_total",
			Help: "Inbound socket messages by action and outcome",
		},
		[]string{"action", "outcome"},
	)
	Rolls = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "game_rolls_total",
			Help: "Accepted dice rolls",
		},
	)
	GamesFinished = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "game_finished_total",
			Help: "Games that reached the final tile",
		},
	)
	SlowClientsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "game_slow_clients_dropped_total",
			Help: "Connections closed because their send buffer was full",
		},
	)
)

func init() {
	prometheus.MustRegister(SessionsActive, ConnectionsActive, InboundMessages, Rolls, GamesFinished, SlowClientsDropped)
}
