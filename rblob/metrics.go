package rblob

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	readCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catchup",
		Subsystem: "rblob",
		Name:      "read_total",
		Help:      "Number of blobs read per bucket",
	}, []string{"bucket"})

	writeCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catchup",
		Subsystem: "rblob",
		Name:      "write_total",
		Help:      "Number of blobs written per bucket",
	}, []string{"bucket"})

	listSkipCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catchup",
		Subsystem: "rblob",
		Name:      "list_skip_total",
		Help: "Number of list results skipped per bucket. " +
			"This is expected for non-s3 buckets",
	}, []string{"bucket"})
)

func init() {
	prometheus.MustRegister(readCounter)
	prometheus.MustRegister(writeCounter)
	prometheus.MustRegister(listSkipCounter)
}
