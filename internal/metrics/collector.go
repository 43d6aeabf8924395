// Package metrics provides a lightweight, Prometheus-compatible metrics
// collector. It outputs text/plain in Prometheus exposition format without
// requiring the heavy prometheus/client_golang dependency.
package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Collector is the global metrics collector.
var Collector = NewCollector()

// MetricsCollector aggregates counters.
type MetricsCollector struct {
	counters  sync.Map // key -> *Counter
	startTime time.Time
}

// NewCollector creates a new collector.
func NewCollector() *MetricsCollector {
	return &MetricsCollector{startTime: time.Now()}
}

// Uptime returns how long the collector has been running.
func (c *MetricsCollector) Uptime() time.Duration {
	return time.Since(c.startTime)
}

// Counter is a monotonically increasing counter.
type Counter struct {
	name   string
	help   string
	labels string
	value  atomic.Int64
}

// Inc increments the counter by 1.
func (c *Counter) Inc() { c.value.Add(1) }

// Value returns the current counter value.
func (c *Counter) Value() int64 { return c.value.Load() }

// Counter returns or creates a counter with the given name and label set.
// labels is a raw Prometheus label string, e.g. `backend="deepl"`.
func (c *MetricsCollector) Counter(name, help, labels string) *Counter {
	key := name + "{" + labels + "}"
	if v, ok := c.counters.Load(key); ok {
		return v.(*Counter)
	}
	ctr := &Counter{name: name, help: help, labels: labels}
	actual, _ := c.counters.LoadOrStore(key, ctr)
	return actual.(*Counter)
}

// Handler serves the collected metrics in Prometheus exposition format.
func (c *MetricsCollector) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		fmt.Fprint(w, c.Render())
	})
}

// Render produces the exposition text, metrics sorted by name for stable
// output.
func (c *MetricsCollector) Render() string {
	var lines []string
	helps := make(map[string]string)

	c.counters.Range(func(_, v any) bool {
		ctr := v.(*Counter)
		helps[ctr.name] = ctr.help
		line := ctr.name
		if ctr.labels != "" {
			line += "{" + ctr.labels + "}"
		}
		lines = append(lines, fmt.Sprintf("%s %d", line, ctr.Value()))
		return true
	})
	sort.Strings(lines)

	var b strings.Builder
	emitted := make(map[string]bool)
	for _, line := range lines {
		name := line
		if i := strings.IndexAny(line, "{ "); i >= 0 {
			name = line[:i]
		}
		if !emitted[name] {
			emitted[name] = true
			if help := helps[name]; help != "" {
				fmt.Fprintf(&b, "# HELP %s %s\n", name, help)
			}
			fmt.Fprintf(&b, "# TYPE %s counter\n", name)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "# TYPE ctrelay_uptime_seconds gauge\nctrelay_uptime_seconds %.0f\n", c.Uptime().Seconds())
	return b.String()
}

// Serve starts a metrics endpoint on addr. Best-effort: errors are returned
// for the caller to log, never fatal.
func Serve(addr string, c *MetricsCollector) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	return http.ListenAndServe(addr, mux)
}
