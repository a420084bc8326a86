package rbuffer

import "github.com/prometheus/client_golang/prometheus"

var (
	hitCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catchup",
		Subsystem: "buffer",
		Name:      "hits_total",
		Help:      "Total number of stream buffer reads served per buffer",
	}, []string{"buffer"})

	missCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catchup",
		Subsystem: "buffer",
		Name:      "misses_total",
		Help:      "Total number of stream buffer reads not served per buffer",
	}, []string{"buffer"})

	rejectCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catchup",
		Subsystem: "buffer",
		Name:      "rejected_offers_total",
		Help:      "Total number of offers with non-consecutive revisions per buffer",
	}, []string{"buffer"})
)

func init() {
	prometheus.MustRegister(hitCounter)
	prometheus.MustRegister(missCounter)
	prometheus.MustRegister(rejectCounter)
}
