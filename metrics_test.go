package arango

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrometheusMetrics(t *testing.T) {
	metrics := NewPrometheusMetrics()

	metrics.NewHistogram("test_arango_stats", "test histogram", 50, 100, 500)

	// Re-registering the same name is a no-op rather than a panic.
	metrics.NewHistogram("test_arango_stats", "test histogram", 50, 100, 500)

	require.NotPanics(t, func() {
		metrics.RecordHistogram(context.Background(), "test_arango_stats", 75,
			"endpoint", "/_api/version", "method", "GET")
	})

	// Unknown histograms are ignored.
	require.NotPanics(t, func() {
		metrics.RecordHistogram(context.Background(), "unknown_metric", 1)
	})
}
