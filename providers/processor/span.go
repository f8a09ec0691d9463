// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package processor

import (
	"context"
	"errors"

	"github.com/z5labs/otelcompose/component"
	"github.com/z5labs/otelcompose/config"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// spanExporters fans spans out to every exporter in order.
type spanExporters []sdktrace.SpanExporter

func (es spanExporters) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	errs := make([]error, len(es))
	for i, e := range es {
		errs[i] = e.ExportSpans(ctx, spans)
	}
	return errors.Join(errs...)
}

func (es spanExporters) Shutdown(ctx context.Context) error {
	errs := make([]error, len(es))
	for i, e := range es {
		errs[i] = e.Shutdown(ctx)
	}
	return errors.Join(errs...)
}

func spanExporter(ctx context.Context, r *component.Registry, cfg config.Node) (sdktrace.SpanExporter, error) {
	es, err := exporters[sdktrace.SpanExporter](ctx, r, component.CategorySpanExporter, cfg)
	if err != nil {
		return nil, err
	}
	if len(es) == 1 {
		return es[0], nil
	}
	return spanExporters(es), nil
}

// SimpleSpanProcessor exports every span synchronously as it ends.
func SimpleSpanProcessor() component.Provider {
	return component.NewProvider(
		component.CategorySpanProcessor,
		"simple",
		func(ctx context.Context, cfg config.Node, r *component.Registry) (sdktrace.SpanProcessor, error) {
			e, err := spanExporter(ctx, r, cfg)
			if err != nil {
				return nil, err
			}
			return sdktrace.NewSimpleSpanProcessor(e), nil
		},
	)
}

// BatchSpanProcessor buffers ended spans and exports them in batches.
func BatchSpanProcessor() component.Provider {
	return component.NewProvider(
		component.CategorySpanProcessor,
		"batch",
		func(ctx context.Context, cfg config.Node, r *component.Registry) (sdktrace.SpanProcessor, error) {
			var bc BatchConfig
			err := cfg.Decode(&bc)
			if err != nil {
				return nil, err
			}

			e, err := spanExporter(ctx, r, cfg)
			if err != nil {
				return nil, err
			}

			var opts []sdktrace.BatchSpanProcessorOption
			if bc.ScheduleDelay > 0 {
				opts = append(opts, sdktrace.WithBatchTimeout(bc.ScheduleDelay))
			}
			if bc.ExportTimeout > 0 {
				opts = append(opts, sdktrace.WithExportTimeout(bc.ExportTimeout))
			}
			if bc.MaxQueueSize > 0 {
				opts = append(opts, sdktrace.WithMaxQueueSize(bc.MaxQueueSize))
			}
			if bc.MaxExportBatchSize > 0 {
				opts = append(opts, sdktrace.WithMaxExportBatchSize(bc.MaxExportBatchSize))
			}
			return sdktrace.NewBatchSpanProcessor(e, opts...), nil
		},
	)
}
