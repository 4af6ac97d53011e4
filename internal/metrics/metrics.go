// Package metrics exposes conversion counters in Prometheus format.
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/JonMunkholm/instructcsv/internal/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "instructcsv"

// Collector implements core.Observer on its own registry.
type Collector struct {
	registry *prometheus.Registry

	rowsRead       prometheus.Counter
	rowsDropped    *prometheus.CounterVec
	rowsReshaped   *prometheus.CounterVec
	recordsWritten prometheus.Counter
	runs           *prometheus.CounterVec
	runDuration    prometheus.Histogram
}

// New creates a Collector with all series registered.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		rowsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_read_total",
			Help:      "Rows parsed from origin files, blank rows included",
		}),
		rowsDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rows_dropped_total",
				Help:      "Rows rejected by the cleaner",
			},
			[]string{"reason"},
		),
		rowsReshaped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rows_reshaped_total",
				Help:      "Cleaned rows by field-count shape; other rows are skipped",
			},
			[]string{"shape"},
		),
		recordsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_written_total",
			Help:      "Formatted records written, header excluded",
		}),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Conversion runs by outcome",
			},
			[]string{"status"},
		),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Time taken by a conversion run",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		}),
	}

	c.registry.MustRegister(
		c.rowsRead,
		c.rowsDropped,
		c.rowsReshaped,
		c.recordsWritten,
		c.runs,
		c.runDuration,
	)
	return c
}

// Observe records a finished run.
func (c *Collector) Observe(report core.Report, runErr error) {
	status := "success"
	if runErr != nil {
		status = "failure"
	}
	c.runs.WithLabelValues(status).Inc()
	c.runDuration.Observe(report.Duration.Seconds())

	c.rowsRead.Add(float64(report.RowsRead))
	for reason, n := range report.Dropped {
		c.rowsDropped.WithLabelValues(string(reason)).Add(float64(n))
	}
	for shape, n := range report.Shapes {
		c.rowsReshaped.WithLabelValues(shape.String()).Add(float64(n))
	}
	c.recordsWritten.Add(float64(report.RecordsWritten))
}

// Handler serves the registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Push sends the current values to a Pushgateway.
func (c *Collector) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(c.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
