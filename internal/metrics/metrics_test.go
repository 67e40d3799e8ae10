package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewPromCollector_RegistersMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewPromCollector(reg)
	if c == nil {
		t.Fatal("expected non-nil PromCollector")
	}

	c.RecordEventsUpserted(0)
	if n := testutil.CollectAndCount(c.eventsUpserted); n != 1 {
		t.Errorf("eventsUpserted series = %d, want 1", n)
	}
}

func TestRecordRemoteCall_SplitsByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewPromCollector(reg)

	c.RecordRemoteCall("SearchEvents", nil, 20*time.Millisecond)
	c.RecordRemoteCall("SearchEvents", nil, 30*time.Millisecond)
	c.RecordRemoteCall("SearchEvents", errors.New("boom"), time.Second)

	if got := testutil.ToFloat64(c.remoteCalls.WithLabelValues("SearchEvents", "ok")); got != 2 {
		t.Errorf("ok calls = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.remoteCalls.WithLabelValues("SearchEvents", "error")); got != 1 {
		t.Errorf("error calls = %v, want 1", got)
	}
}

func TestRecordEventCache_CountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewPromCollector(reg)

	c.RecordEventCache(CacheHit)
	c.RecordEventCache(CacheFallback)
	c.RecordEventCache(CacheFallback)

	if got := testutil.ToFloat64(c.eventCache.WithLabelValues(CacheFallback)); got != 2 {
		t.Errorf("fallback = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.eventCache.WithLabelValues(CacheHit)); got != 1 {
		t.Errorf("hit = %v, want 1", got)
	}
}

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewPromCollector(reg)

	c.RecordEventsUpserted(3)
	c.RecordEventsSkipped(1)
	c.RecordMeetingRecorded()
	c.RecordDuplicateRejected()
	c.RecordDuplicateRejected()

	tests := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"events upserted", c.eventsUpserted, 3},
		{"events skipped", c.eventsSkipped, 1},
		{"meetings recorded", c.meetingsRecorded, 1},
		{"duplicates rejected", c.duplicatesRejected, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := testutil.ToFloat64(tt.c); got != tt.want {
				t.Errorf("value = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewPromCollector(reg)
	c.RecordMeetingRecorded()

	path := filepath.Join(t.TempDir(), "eventmeet.prom")
	if err := WriteTextfile(path, reg); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading textfile: %v", err)
	}
	if !strings.Contains(string(data), "eventmeet_meetings_recorded_total 1") {
		t.Errorf("textfile missing counter:\n%s", data)
	}
}

func TestNop(t *testing.T) {
	var c Collector = Nop{}
	c.RecordRemoteCall("x", nil, time.Second)
	c.RecordEventCache(CacheMiss)
	c.RecordEventsUpserted(1)
	c.RecordEventsSkipped(1)
	c.RecordMeetingRecorded()
	c.RecordDuplicateRejected()
}
