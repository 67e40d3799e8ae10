// Package metrics instruments the repositories with prometheus counters.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Cache outcomes of an event fetch.
const (
	CacheHit      = "hit"      // served from a fresh cache without network
	CacheRefresh  = "refresh"  // fetched from the network and written through
	CacheFallback = "fallback" // network failed, cache served instead
	CacheMiss     = "miss"     // network failed and the cache was empty
)

// Collector receives repository measurements.
type Collector interface {
	RecordRemoteCall(op string, err error, duration time.Duration)
	RecordEventCache(outcome string)
	RecordEventsUpserted(count int)
	RecordEventsSkipped(count int)
	RecordMeetingRecorded()
	RecordDuplicateRejected()
}

// PromCollector is the prometheus implementation of Collector.
type PromCollector struct {
	remoteCalls        *prometheus.CounterVec
	remoteLatency      *prometheus.HistogramVec
	eventCache         *prometheus.CounterVec
	eventsUpserted     prometheus.Counter
	eventsSkipped      prometheus.Counter
	meetingsRecorded   prometheus.Counter
	duplicatesRejected prometheus.Counter
}

// NewPromCollector creates a PromCollector and registers its metrics with reg.
func NewPromCollector(reg prometheus.Registerer) *PromCollector {
	c := &PromCollector{
		remoteCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eventmeet_remote_requests_total",
			Help: "Events API requests by operation and result.",
		}, []string{"op", "result"}),
		remoteLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "eventmeet_remote_request_seconds",
			Help:    "Events API request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		eventCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eventmeet_event_cache_total",
			Help: "Event fetches by cache outcome.",
		}, []string{"outcome"}),
		eventsUpserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eventmeet_events_upserted_total",
			Help: "Events written to the local cache.",
		}),
		eventsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eventmeet_events_skipped_total",
			Help: "Remote events dropped because they failed validation.",
		}),
		meetingsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eventmeet_meetings_recorded_total",
			Help: "Meeting records created.",
		}),
		duplicatesRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eventmeet_meeting_duplicates_total",
			Help: "Meeting records rejected as duplicates.",
		}),
	}

	reg.MustRegister(
		c.remoteCalls,
		c.remoteLatency,
		c.eventCache,
		c.eventsUpserted,
		c.eventsSkipped,
		c.meetingsRecorded,
		c.duplicatesRejected,
	)

	return c
}

func (c *PromCollector) RecordRemoteCall(op string, err error, duration time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.remoteCalls.WithLabelValues(op, result).Inc()
	c.remoteLatency.WithLabelValues(op).Observe(duration.Seconds())
}

func (c *PromCollector) RecordEventCache(outcome string) {
	c.eventCache.WithLabelValues(outcome).Inc()
}

func (c *PromCollector) RecordEventsUpserted(count int) {
	c.eventsUpserted.Add(float64(count))
}

func (c *PromCollector) RecordEventsSkipped(count int) {
	c.eventsSkipped.Add(float64(count))
}

func (c *PromCollector) RecordMeetingRecorded() {
	c.meetingsRecorded.Inc()
}

func (c *PromCollector) RecordDuplicateRejected() {
	c.duplicatesRejected.Inc()
}

// Nop discards all measurements.
type Nop struct{}

func (Nop) RecordRemoteCall(string, error, time.Duration) {}
func (Nop) RecordEventCache(string)                       {}
func (Nop) RecordEventsUpserted(int)                      {}
func (Nop) RecordEventsSkipped(int)                       {}
func (Nop) RecordMeetingRecorded()                        {}
func (Nop) RecordDuplicateRejected()                      {}

var (
	_ Collector = (*PromCollector)(nil)
	_ Collector = Nop{}
)
