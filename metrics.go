package arango

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is the instrumentation contract of this package. Any metrics
// backend can be plugged in through Client.UseMetrics.
type Metrics interface {
	NewHistogram(name, desc string, buckets ...float64)

	RecordHistogram(ctx context.Context, name string, value float64, labels ...string)
}

// PrometheusMetrics records histograms to the default prometheus registry.
type PrometheusMetrics struct {
	histograms map[string]*prometheus.HistogramVec
}

// NewPrometheusMetrics returns a Metrics implementation backed by prometheus.
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{histograms: make(map[string]*prometheus.HistogramVec)}
}

// NewHistogram creates and registers a histogram metric with the given name,
// description, and optional bucket sizes.
func (p *PrometheusMetrics) NewHistogram(name, desc string, buckets ...float64) {
	if _, ok := p.histograms[name]; ok {
		return
	}

	histogram := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    name,
			Help:    desc,
			Buckets: buckets,
		},
		[]string{"endpoint", "method"},
	)

	p.histograms[name] = histogram
	prometheus.MustRegister(histogram)
}

// RecordHistogram records a value to the named histogram. Labels come as
// alternating key/value pairs; only the values are used.
func (p *PrometheusMetrics) RecordHistogram(_ context.Context, name string, value float64, labels ...string) {
	histogram, ok := p.histograms[name]
	if !ok {
		return
	}

	values := make([]string, 0, len(labels)/2)
	for i := 1; i < len(labels); i += 2 {
		values = append(values, labels[i])
	}

	histogram.WithLabelValues(values...).Observe(value)
}
