package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/kbukum/svcreg/discovery"
)

// Metric names recorded by DiscoveryMetrics.
const (
	MetricRegistryCalls    = "registry.calls"
	MetricRegistryFailures = "registry.failures"
	MetricRegistryDuration = "registry.call.duration"
)

// Attribute keys on registry metrics.
const (
	AttrOperation = "operation"
	AttrOutcome   = "outcome"
	AttrService   = "service"
)

// DiscoveryMetrics records registry call outcomes. It implements
// discovery.Observer so failures that Register and Discover swallow stay
// visible to alerting.
type DiscoveryMetrics struct {
	calls    metric.Int64Counter
	failures metric.Int64Counter
	duration metric.Float64Histogram
}

var _ discovery.Observer = (*DiscoveryMetrics)(nil)

// NewDiscoveryMetrics creates the registry instruments on meter.
func NewDiscoveryMetrics(meter metric.Meter) (*DiscoveryMetrics, error) {
	calls, err := meter.Int64Counter(MetricRegistryCalls,
		metric.WithDescription("Registry calls by operation and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricRegistryCalls, err)
	}

	failures, err := meter.Int64Counter(MetricRegistryFailures,
		metric.WithDescription("Registry calls that failed, by failure kind"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricRegistryFailures, err)
	}

	duration, err := meter.Float64Histogram(MetricRegistryDuration,
		metric.WithDescription("Duration of registry calls in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricRegistryDuration, err)
	}

	return &DiscoveryMetrics{calls: calls, failures: failures, duration: duration}, nil
}

// Observe records one registry call.
func (m *DiscoveryMetrics) Observe(ctx context.Context, ev discovery.Event) {
	attrs := metric.WithAttributes(
		attribute.String(AttrOperation, string(ev.Operation)),
		attribute.String(AttrOutcome, string(ev.Outcome)),
		attribute.String(AttrService, ev.Service),
	)
	m.calls.Add(ctx, 1, attrs)
	m.duration.Record(ctx, ev.Duration.Seconds(), metric.WithAttributes(
		attribute.String(AttrOperation, string(ev.Operation)),
	))
	if ev.Outcome.IsFailure() {
		m.failures.Add(ctx, 1, attrs)
	}
}
