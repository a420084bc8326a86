package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	contextLabel   = "context"
	aggregateLabel = "aggregate"
	tokenLabel     = "token"
	sourceLabel    = "source"
	kindLabel      = "kind"
)

// Labels returns the prometheus labels for a stream.
func Labels(context, aggregate string) prometheus.Labels {
	return prometheus.Labels{contextLabel: context, aggregateLabel: aggregate}
}

// TokenLabels returns the prometheus labels for a subscriber of a stream.
func TokenLabels(context, aggregate, token string) prometheus.Labels {
	return prometheus.Labels{contextLabel: context, aggregateLabel: aggregate, tokenLabel: token}
}

// Read sources.
const (
	SourceCatchUp = "catchup"
	SourceLive    = "live"
)

// Subscriber fault kinds.
const (
	FaultError   = "error"
	FaultTimeout = "timeout"
	FaultPanic   = "panic"
	FaultNil     = "nil"
)

var (
	// Subscribers is the number of tokens registered per stream.
	Subscribers = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "catchup",
		Subsystem: "subscription",
		Name:      "subscribers",
		Help:      "Number of registered subscriber tokens",
	}, []string{contextLabel, aggregateLabel})

	// LoopsRunning is the number of live poll loops currently running.
	LoopsRunning = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "catchup",
		Subsystem: "subscription",
		Name:      "loops_running",
		Help:      "Number of running live poll loops",
	}, []string{contextLabel, aggregateLabel})

	// PollCounter is the number of live poll loop ticks.
	PollCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catchup",
		Subsystem: "subscription",
		Name:      "poll_total",
		Help:      "Total number of live poll loop store reads",
	}, []string{contextLabel, aggregateLabel})

	// StoreReads is the number of windows read from the event store.
	StoreReads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catchup",
		Subsystem: "subscription",
		Name:      "store_reads_total",
		Help:      "Total number of event store window reads by source",
	}, []string{contextLabel, aggregateLabel, sourceLabel})

	// BufferHits is the number of catch-up windows served by the stream buffer.
	BufferHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catchup",
		Subsystem: "subscription",
		Name:      "buffer_hits_total",
		Help:      "Total number of catch-up windows served by the stream buffer",
	}, []string{contextLabel, aggregateLabel})

	// BufferMisses is the number of catch-up windows not in the stream buffer.
	BufferMisses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catchup",
		Subsystem: "subscription",
		Name:      "buffer_misses_total",
		Help:      "Total number of catch-up windows missing from the stream buffer",
	}, []string{contextLabel, aggregateLabel})

	// CallbackLatency is how long subscriber callbacks take to call done.
	CallbackLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "catchup",
		Subsystem: "subscription",
		Name:      "callback_latency_seconds",
		Help:      "Event callback latency in seconds",
		Buckets:   []float64{0.001, 0.01, 0.1, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
	}, []string{contextLabel, aggregateLabel})

	// CallbackFaults is the number of subscriber faults by kind.
	CallbackFaults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catchup",
		Subsystem: "subscription",
		Name:      "callback_faults_total",
		Help:      "Number of event callbacks that errored, panicked, timed out or were nil",
	}, []string{contextLabel, aggregateLabel, kindLabel})

	// SubscriberActivity is whether or not a subscriber acknowledged an event
	// within its activity ttl.
	SubscriberActivity = newActivityGauge(
		prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "catchup",
			Subsystem: "subscription",
			Name:      "subscriber_active",
			Help: "Whether or not the subscriber acknowledged an event " +
				"in the activity ttl period",
		}, []string{contextLabel, aggregateLabel, tokenLabel}))
)

func init() {
	prometheus.MustRegister(
		Subscribers,
		LoopsRunning,
		PollCounter,
		StoreReads,
		BufferHits,
		BufferMisses,
		CallbackLatency,
		CallbackFaults,
		SubscriberActivity,
	)
}

func newActivityGauge(g *prometheus.GaugeVec) *activityGauge {
	return &activityGauge{
		gv:     g,
		states: make(map[string]state),
	}
}

// activityGauge provides a prometheus GaugeVec which indicates whether or not
// a subscriber was recently active (acknowledged an event).
type activityGauge struct {
	gv     *prometheus.GaugeVec
	mu     sync.Mutex
	states map[string]state
}

type state struct {
	labels prometheus.Labels
	tick   time.Time
	ttl    time.Duration
}

// Register registers the subscriber labels with its ttl and ticks it as active and returns a key.
func (g *activityGauge) Register(labels prometheus.Labels, ttl time.Duration) string {
	key := labelsToKey(labels)

	g.mu.Lock()
	defer g.mu.Unlock()

	g.states[key] = state{
		labels: labels,
		ttl:    ttl,
		tick:   time.Now(),
	}
	return key
}

// Unregister removes the subscriber key and its gauge.
func (g *activityGauge) Unregister(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.states[key]
	if !ok {
		return
	}
	delete(g.states, key)
	g.gv.Delete(s.labels)
}

// SetActive ticks the subscriber key as active.
func (g *activityGauge) SetActive(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.states[key]
	if !ok {
		return
	}
	s.tick = time.Now()
	g.states[key] = s
}

func (g *activityGauge) Describe(ch chan<- *prometheus.Desc) {
	g.gv.Describe(ch)
}

// Collect sets and collects the internal GaugeVec activity values for all registered
// subscriber labels.
func (g *activityGauge) Collect(ch chan<- prometheus.Metric) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, s := range g.states {
		if s.ttl < 0 {
			continue
		}
		v := 0.0
		if time.Since(s.tick) < s.ttl {
			v = 1
		}
		g.gv.With(s.labels).Set(v)
	}
	g.gv.Collect(ch)
}

func labelsToKey(labels prometheus.Labels) string {
	s := strings.Builder{}
	for _, k := range []string{contextLabel, aggregateLabel, tokenLabel} {
		s.WriteString(k)
		s.Write([]byte{255})
		s.WriteString(labels[k])
		s.Write([]byte{255})
	}
	return s.String()
}
