package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scanRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "labelscan_http_scan_requests_total",
		Help: "Total scan requests by transport and outcome",
	}, []string{"transport", "status"})

	websocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "labelscan_websocket_connections",
		Help: "Number of active websocket connections",
	})

	websocketMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "labelscan_websocket_messages_total",
		Help: "Total websocket messages by direction",
	}, []string{"direction"})
)
