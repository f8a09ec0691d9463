// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package noop registers the "none" exporters. They accept and discard all
// telemetry, which keeps a processor or reader configured while shipping
// nothing.
package noop

import (
	"context"

	"github.com/z5labs/otelcompose/component"
	"github.com/z5labs/otelcompose/config"

	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// SpanExporter discards spans.
type SpanExporter struct{}

// ExportSpans implements the [sdktrace.SpanExporter] interface.
func (SpanExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	return nil
}

// Shutdown implements the [sdktrace.SpanExporter] interface.
func (SpanExporter) Shutdown(ctx context.Context) error {
	return nil
}

// MetricExporter discards metrics.
type MetricExporter struct{}

func (MetricExporter) Temporality(kind sdkmetric.InstrumentKind) metricdata.Temporality {
	return metricdata.CumulativeTemporality
}

func (MetricExporter) Aggregation(kind sdkmetric.InstrumentKind) sdkmetric.Aggregation {
	return sdkmetric.DefaultAggregationSelector(kind)
}

func (MetricExporter) Export(ctx context.Context, rm *metricdata.ResourceMetrics) error {
	return nil
}

func (MetricExporter) ForceFlush(ctx context.Context) error {
	return nil
}

func (MetricExporter) Shutdown(ctx context.Context) error {
	return nil
}

// LogRecordExporter discards log records.
type LogRecordExporter struct{}

func (LogRecordExporter) Export(ctx context.Context, records []sdklog.Record) error {
	return nil
}

func (LogRecordExporter) Shutdown(ctx context.Context) error {
	return nil
}

func (LogRecordExporter) ForceFlush(ctx context.Context) error {
	return nil
}

// Providers returns the "none" exporter of every signal.
func Providers() []component.Provider {
	return []component.Provider{
		component.NewProvider(
			component.CategorySpanExporter,
			"none",
			func(ctx context.Context, cfg config.Node, r *component.Registry) (sdktrace.SpanExporter, error) {
				return SpanExporter{}, nil
			},
		),
		component.NewProvider(
			component.CategoryMetricExporter,
			"none",
			func(ctx context.Context, cfg config.Node, r *component.Registry) (sdkmetric.Exporter, error) {
				return MetricExporter{}, nil
			},
		),
		component.NewProvider(
			component.CategoryLogRecordExporter,
			"none",
			func(ctx context.Context, cfg config.Node, r *component.Registry) (sdklog.Exporter, error) {
				return LogRecordExporter{}, nil
			},
		),
	}
}
