package ws

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricClientsConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gomoku_clients_connected",
		Help: "Число живых websocket-соединений",
	})

	metricRoomsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gomoku_rooms_active",
		Help: "Число комнат, созданных этим экземпляром и еще не удаленных",
	})

	metricIntents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gomoku_intents_total",
		Help: "Обработанные намерения игроков по типу и исходу",
	}, []string{"type", "outcome"})
)

const (
	outcomeAccepted = "accepted"
	outcomeRejected = "rejected"
	outcomeFailed   = "failed"
)
