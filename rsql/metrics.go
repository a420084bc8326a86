package rsql

import "github.com/prometheus/client_golang/prometheus"

const (
	opLast   = "last"
	opStream = "stream"
)

var (
	insertCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catchup",
		Subsystem: "events_table",
		Name:      "insert_total",
		Help:      "Total number of events inserted per table",
	}, []string{"table"})

	conflictCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catchup",
		Subsystem: "events_table",
		Name:      "revision_conflict_total",
		Help:      "Total number of inserts rejected due to existing revisions per table",
	}, []string{"table"})

	readCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catchup",
		Subsystem: "events_table",
		Name:      "read_total",
		Help:      "Total number of event store queries performed per table",
	}, []string{"table", "op"})
)

func init() {
	prometheus.MustRegister(insertCounter)
	prometheus.MustRegister(conflictCounter)
	prometheus.MustRegister(readCounter)
}
