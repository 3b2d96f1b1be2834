package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the instruments for journey-search activity.
// All methods are no-ops on a nil receiver.
type Metrics struct {
	searchDuration metric.Float64Histogram
	searchTotal    metric.Int64Counter
	lookupTotal    metric.Int64Counter
	submitDropped  metric.Int64Counter
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	searchDuration, err := meter.Float64Histogram(
		"transit.search.duration",
		metric.WithDescription("Duration of connection searches in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	searchTotal, err := meter.Int64Counter(
		"transit.search.total",
		metric.WithDescription("Total number of connection searches"),
		metric.WithUnit("{search}"),
	)
	if err != nil {
		return nil, err
	}

	lookupTotal, err := meter.Int64Counter(
		"transit.location_lookup.total",
		metric.WithDescription("Total number of location lookups"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	submitDropped, err := meter.Int64Counter(
		"transit.search.dropped",
		metric.WithDescription("Submissions ignored while a search was in flight"),
		metric.WithUnit("{search}"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		searchDuration: searchDuration,
		searchTotal:    searchTotal,
		lookupTotal:    lookupTotal,
		submitDropped:  submitDropped,
	}, nil
}

// RecordSearch records one finished connection search.
func (m *Metrics) RecordSearch(ctx context.Context, provider string, took time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.Bool("error", err != nil),
	)
	m.searchDuration.Record(ctx, took.Seconds(), attrs)
	m.searchTotal.Add(ctx, 1, attrs)
}

// RecordLookup records one location lookup.
func (m *Metrics) RecordLookup(ctx context.Context, provider string, cached bool, err error) {
	if m == nil {
		return
	}
	m.lookupTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.Bool("cached", cached),
		attribute.Bool("error", err != nil),
	))
}

// RecordDroppedSubmit records a submission ignored because one was in flight.
func (m *Metrics) RecordDroppedSubmit(ctx context.Context) {
	if m == nil {
		return
	}
	m.submitDropped.Add(ctx, 1)
}
