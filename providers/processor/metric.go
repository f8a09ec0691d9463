// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package processor

import (
	"context"

	"github.com/z5labs/otelcompose/component"
	"github.com/z5labs/otelcompose/config"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// PeriodicReader collects metrics on an interval and pushes them to
// exactly one exporter.
func PeriodicReader() component.Provider {
	return component.NewProvider(
		component.CategoryMetricReader,
		"periodic",
		func(ctx context.Context, cfg config.Node, r *component.Registry) (sdkmetric.Reader, error) {
			var pc PeriodicConfig
			err := cfg.Decode(&pc)
			if err != nil {
				return nil, err
			}

			named, err := component.ResolveOne[sdkmetric.Exporter](ctx, r, component.CategoryMetricExporter, cfg.Get("exporter"))
			if err != nil {
				return nil, err
			}

			var opts []sdkmetric.PeriodicReaderOption
			if pc.Interval > 0 {
				opts = append(opts, sdkmetric.WithInterval(pc.Interval))
			}
			if pc.Timeout > 0 {
				opts = append(opts, sdkmetric.WithTimeout(pc.Timeout))
			}
			return sdkmetric.NewPeriodicReader(named.Value, opts...), nil
		},
	)
}

// PullReader resolves a pull based exporter, e.g. prometheus, which is
// itself the metric reader.
func PullReader() component.Provider {
	return component.NewProvider(
		component.CategoryMetricReader,
		"pull",
		func(ctx context.Context, cfg config.Node, r *component.Registry) (sdkmetric.Reader, error) {
			named, err := component.ResolveOne[sdkmetric.Reader](ctx, r, component.CategoryPullMetricExporter, cfg.Get("exporter"))
			if err != nil {
				return nil, err
			}
			return named.Value, nil
		},
	)
}
