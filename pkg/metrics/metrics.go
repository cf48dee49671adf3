// Package metrics collects real-time performance counters for the search
// service: searches served, build runs, cache effectiveness, and latency
// histograms, exported as JSON (/stats) or Prometheus text (/_metrics).
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector accumulates atomic counters and latency histograms for the
// running search daemon.
type Collector struct {
	searchesExecuted uint64
	searchesFailed   uint64
	totalSearchTime  uint64 // nanoseconds

	buildsExecuted uint64
	buildsFailed   uint64
	totalBuildTime uint64 // nanoseconds

	cacheHits   uint64
	cacheMisses uint64

	mu            sync.RWMutex
	searchTimings *TimingHistogram
	buildTimings  *TimingHistogram

	startTime time.Time
}

// NewCollector creates a Collector with empty counters and a startTime of
// now, for uptime reporting.
func NewCollector() *Collector {
	return &Collector{
		searchTimings: NewTimingHistogram(1000),
		buildTimings:  NewTimingHistogram(1000),
		startTime:     time.Now(),
	}
}

// TimingHistogram buckets durations into fixed ranges and keeps a bounded
// window of recent samples for percentile estimation.
type TimingHistogram struct {
	bucket0_1ms      uint64
	bucket1_10ms     uint64
	bucket10_100ms   uint64
	bucket100_1000ms uint64
	bucket1000ms     uint64

	mu               sync.Mutex
	recentTimings    []time.Duration
	maxRecentTimings int
}

// NewTimingHistogram creates a histogram retaining up to maxRecent samples
// for percentile estimation.
func NewTimingHistogram(maxRecent int) *TimingHistogram {
	return &TimingHistogram{
		recentTimings:    make([]time.Duration, 0, maxRecent),
		maxRecentTimings: maxRecent,
	}
}

// RecordSearch records one completed /search request.
func (c *Collector) RecordSearch(duration time.Duration, success bool) {
	atomic.AddUint64(&c.searchesExecuted, 1)
	if !success {
		atomic.AddUint64(&c.searchesFailed, 1)
	}
	atomic.AddUint64(&c.totalSearchTime, uint64(duration.Nanoseconds()))
	c.searchTimings.Record(duration)
}

// RecordBuild records one completed index build or reload.
func (c *Collector) RecordBuild(duration time.Duration, success bool) {
	atomic.AddUint64(&c.buildsExecuted, 1)
	if !success {
		atomic.AddUint64(&c.buildsFailed, 1)
	}
	atomic.AddUint64(&c.totalBuildTime, uint64(duration.Nanoseconds()))
	c.buildTimings.Record(duration)
}

// RecordCacheHit records one result-cache hit.
func (c *Collector) RecordCacheHit() { atomic.AddUint64(&c.cacheHits, 1) }

// RecordCacheMiss records one result-cache miss.
func (c *Collector) RecordCacheMiss() { atomic.AddUint64(&c.cacheMisses, 1) }

// Record adds a duration sample to the histogram.
func (th *TimingHistogram) Record(duration time.Duration) {
	ms := duration.Milliseconds()
	switch {
	case ms < 1:
		atomic.AddUint64(&th.bucket0_1ms, 1)
	case ms < 10:
		atomic.AddUint64(&th.bucket1_10ms, 1)
	case ms < 100:
		atomic.AddUint64(&th.bucket10_100ms, 1)
	case ms < 1000:
		atomic.AddUint64(&th.bucket100_1000ms, 1)
	default:
		atomic.AddUint64(&th.bucket1000ms, 1)
	}

	th.mu.Lock()
	defer th.mu.Unlock()
	if len(th.recentTimings) >= th.maxRecentTimings {
		th.recentTimings = th.recentTimings[1:]
	}
	th.recentTimings = append(th.recentTimings, duration)
}

// GetBuckets returns the histogram bucket counts.
func (th *TimingHistogram) GetBuckets() map[string]uint64 {
	return map[string]uint64{
		"0-1ms":      atomic.LoadUint64(&th.bucket0_1ms),
		"1-10ms":     atomic.LoadUint64(&th.bucket1_10ms),
		"10-100ms":   atomic.LoadUint64(&th.bucket10_100ms),
		"100-1000ms": atomic.LoadUint64(&th.bucket100_1000ms),
		">1000ms":    atomic.LoadUint64(&th.bucket1000ms),
	}
}

// GetPercentiles computes P50/P95/P99 from the recent-sample window.
func (th *TimingHistogram) GetPercentiles() map[string]time.Duration {
	th.mu.Lock()
	defer th.mu.Unlock()

	if len(th.recentTimings) == 0 {
		return map[string]time.Duration{"p50": 0, "p95": 0, "p99": 0}
	}

	sorted := make([]time.Duration, len(th.recentTimings))
	copy(sorted, th.recentTimings)
	for i := 1; i < len(sorted); i++ {
		key := sorted[i]
		j := i - 1
		for j >= 0 && sorted[j] > key {
			sorted[j+1] = sorted[j]
			j--
		}
		sorted[j+1] = key
	}

	return map[string]time.Duration{
		"p50": sorted[len(sorted)*50/100],
		"p95": sorted[len(sorted)*95/100],
		"p99": sorted[len(sorted)*99/100],
	}
}

// Snapshot returns a point-in-time view of all counters, suitable for the
// /stats JSON endpoint.
func (c *Collector) Snapshot() map[string]interface{} {
	searchesExecuted := atomic.LoadUint64(&c.searchesExecuted)
	searchesFailed := atomic.LoadUint64(&c.searchesFailed)
	cacheHits := atomic.LoadUint64(&c.cacheHits)
	cacheMisses := atomic.LoadUint64(&c.cacheMisses)

	return map[string]interface{}{
		"uptime_seconds":    time.Since(c.startTime).Seconds(),
		"searches_executed": searchesExecuted,
		"searches_failed":   searchesFailed,
		"search_percentiles_ms": durationMapMillis(c.searchTimings.GetPercentiles()),
		"builds_executed":   atomic.LoadUint64(&c.buildsExecuted),
		"builds_failed":     atomic.LoadUint64(&c.buildsFailed),
		"cache_hits":        cacheHits,
		"cache_misses":      cacheMisses,
	}
}

func durationMapMillis(in map[string]time.Duration) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = float64(v.Microseconds()) / 1000
	}
	return out
}
