package rgrpc

import "github.com/prometheus/client_golang/prometheus"

const (
	namespace = "catchup"
	subsystem = "rgrpc"
)

var (
	activeStreams = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "active_streams",
		Help:      "Number of server streams currently subscribed",
	}, []string{"context", "aggregate"})

	sentCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "sent_events_total",
		Help:      "Number of events sent on server streams",
	}, []string{"context", "aggregate"})
)

func init() {
	prometheus.MustRegister(activeStreams, sentCounter)
}
