package metrics

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"
)

// PrometheusExporter renders a Collector's counters in Prometheus text
// exposition format.
type PrometheusExporter struct {
	collector *Collector
	namespace string
}

// NewPrometheusExporter creates an exporter under the "jostoju" namespace.
func NewPrometheusExporter(collector *Collector) *PrometheusExporter {
	return &PrometheusExporter{collector: collector, namespace: "jostoju"}
}

// SetNamespace overrides the default metric name prefix.
func (pe *PrometheusExporter) SetNamespace(namespace string) {
	pe.namespace = namespace
}

// WriteMetrics writes every counter and histogram to w.
func (pe *PrometheusExporter) WriteMetrics(w io.Writer) error {
	uptime := time.Since(pe.collector.startTime).Seconds()
	if err := pe.writeGauge(w, "uptime_seconds", "Process uptime in seconds", uptime); err != nil {
		return err
	}

	searchesExecuted := atomic.LoadUint64(&pe.collector.searchesExecuted)
	searchesFailed := atomic.LoadUint64(&pe.collector.searchesFailed)
	totalSearchTime := atomic.LoadUint64(&pe.collector.totalSearchTime)

	if err := pe.writeCounter(w, "searches_total", "Total number of searches served", searchesExecuted); err != nil {
		return err
	}
	if err := pe.writeCounter(w, "searches_failed_total", "Total number of failed searches", searchesFailed); err != nil {
		return err
	}
	if err := pe.writeCounter(w, "search_duration_nanoseconds_total", "Total search execution time", totalSearchTime); err != nil {
		return err
	}
	if err := pe.writeHistogram(w, "search_duration_seconds", "Search duration histogram", pe.collector.searchTimings); err != nil {
		return err
	}
	if err := pe.writePercentiles(w, "search_duration_seconds", pe.collector.searchTimings); err != nil {
		return err
	}

	buildsExecuted := atomic.LoadUint64(&pe.collector.buildsExecuted)
	buildsFailed := atomic.LoadUint64(&pe.collector.buildsFailed)

	if err := pe.writeCounter(w, "builds_total", "Total number of index builds/reloads", buildsExecuted); err != nil {
		return err
	}
	if err := pe.writeCounter(w, "builds_failed_total", "Total number of failed builds", buildsFailed); err != nil {
		return err
	}
	if err := pe.writeHistogram(w, "build_duration_seconds", "Build duration histogram", pe.collector.buildTimings); err != nil {
		return err
	}

	cacheHits := atomic.LoadUint64(&pe.collector.cacheHits)
	cacheMisses := atomic.LoadUint64(&pe.collector.cacheMisses)
	if err := pe.writeCounter(w, "cache_hits_total", "Total result cache hits", cacheHits); err != nil {
		return err
	}
	if err := pe.writeCounter(w, "cache_misses_total", "Total result cache misses", cacheMisses); err != nil {
		return err
	}

	return nil
}

func (pe *PrometheusExporter) writeCounter(w io.Writer, name, help string, value uint64) error {
	metricName := pe.namespace + "_" + name
	_, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n%s %d\n",
		metricName, help, metricName, metricName, value)
	return err
}

func (pe *PrometheusExporter) writeGauge(w io.Writer, name, help string, value float64) error {
	metricName := pe.namespace + "_" + name
	_, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s gauge\n%s %g\n",
		metricName, help, metricName, metricName, value)
	return err
}

func (pe *PrometheusExporter) writeHistogram(w io.Writer, name, help string, th *TimingHistogram) error {
	metricName := pe.namespace + "_" + name
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s histogram\n", metricName, help, metricName); err != nil {
		return err
	}

	buckets := th.GetBuckets()
	var cumulative uint64

	for _, b := range []struct {
		key, le string
	}{
		{"0-1ms", "0.001"},
		{"1-10ms", "0.01"},
		{"10-100ms", "0.1"},
		{"100-1000ms", "1.0"},
		{">1000ms", "+Inf"},
	} {
		cumulative += buckets[b.key]
		if _, err := fmt.Fprintf(w, "%s_bucket{le=\"%s\"} %d\n", metricName, b.le, cumulative); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "%s_count %d\n", metricName, cumulative); err != nil {
		return err
	}
	return nil
}

func (pe *PrometheusExporter) writePercentiles(w io.Writer, baseName string, th *TimingHistogram) error {
	percentiles := th.GetPercentiles()

	for _, p := range []string{"p50", "p95", "p99"} {
		if err := pe.writeGauge(w, baseName+"_"+p,
			fmt.Sprintf("%s percentile of %s", p, baseName),
			percentiles[p].Seconds()); err != nil {
			return err
		}
	}
	return nil
}
