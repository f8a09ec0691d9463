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

	sdklog "go.opentelemetry.io/otel/sdk/log"
)

type logExporters []sdklog.Exporter

func (es logExporters) Export(ctx context.Context, records []sdklog.Record) error {
	errs := make([]error, len(es))
	for i, e := range es {
		errs[i] = e.Export(ctx, records)
	}
	return errors.Join(errs...)
}

func (es logExporters) Shutdown(ctx context.Context) error {
	errs := make([]error, len(es))
	for i, e := range es {
		errs[i] = e.Shutdown(ctx)
	}
	return errors.Join(errs...)
}

func (es logExporters) ForceFlush(ctx context.Context) error {
	errs := make([]error, len(es))
	for i, e := range es {
		errs[i] = e.ForceFlush(ctx)
	}
	return errors.Join(errs...)
}

func logExporter(ctx context.Context, r *component.Registry, cfg config.Node) (sdklog.Exporter, error) {
	es, err := exporters[sdklog.Exporter](ctx, r, component.CategoryLogRecordExporter, cfg)
	if err != nil {
		return nil, err
	}
	if len(es) == 1 {
		return es[0], nil
	}
	return logExporters(es), nil
}

// SimpleLogRecordProcessor exports every record synchronously as it is emitted.
func SimpleLogRecordProcessor() component.Provider {
	return component.NewProvider(
		component.CategoryLogRecordProcessor,
		"simple",
		func(ctx context.Context, cfg config.Node, r *component.Registry) (sdklog.Processor, error) {
			e, err := logExporter(ctx, r, cfg)
			if err != nil {
				return nil, err
			}
			return sdklog.NewSimpleProcessor(e), nil
		},
	)
}

// BatchLogRecordProcessor buffers records and exports them in batches.
func BatchLogRecordProcessor() component.Provider {
	return component.NewProvider(
		component.CategoryLogRecordProcessor,
		"batch",
		func(ctx context.Context, cfg config.Node, r *component.Registry) (sdklog.Processor, error) {
			var bc BatchConfig
			err := cfg.Decode(&bc)
			if err != nil {
				return nil, err
			}

			e, err := logExporter(ctx, r, cfg)
			if err != nil {
				return nil, err
			}

			var opts []sdklog.BatchProcessorOption
			if bc.ScheduleDelay > 0 {
				opts = append(opts, sdklog.WithExportInterval(bc.ScheduleDelay))
			}
			if bc.ExportTimeout > 0 {
				opts = append(opts, sdklog.WithExportTimeout(bc.ExportTimeout))
			}
			if bc.MaxQueueSize > 0 {
				opts = append(opts, sdklog.WithMaxQueueSize(bc.MaxQueueSize))
			}
			if bc.MaxExportBatchSize > 0 {
				opts = append(opts, sdklog.WithExportMaxBatchSize(bc.MaxExportBatchSize))
			}
			return sdklog.NewBatchProcessor(e, opts...), nil
		},
	)
}
