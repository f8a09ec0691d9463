// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package processor registers the span processors, metric readers and log
// record processors. Each of them resolves its exporter from the
// "exporter" map of its configuration block through the same registry.
package processor

import (
	"context"
	"errors"
	"reflect"
	"time"

	"github.com/z5labs/otelcompose/component"
	"github.com/z5labs/otelcompose/config"
)

// BatchConfig configures the batch span and log record processors.
type BatchConfig struct {
	ScheduleDelay      time.Duration `config:"schedule_delay"`
	ExportTimeout      time.Duration `config:"export_timeout"`
	MaxQueueSize       int           `config:"max_queue_size"`
	MaxExportBatchSize int           `config:"max_export_batch_size"`
}

// PeriodicConfig configures the periodic metric reader.
type PeriodicConfig struct {
	Interval time.Duration `config:"interval"`
	Timeout  time.Duration `config:"timeout"`
}

type shutdowner interface {
	Shutdown(context.Context) error
}

// exporters resolves the non-empty "exporter" map of cfg. If any exporter
// fails to resolve, the ones already created are shut down.
func exporters[T shutdowner](ctx context.Context, r *component.Registry, category component.Category, cfg config.Node) (es []T, err error) {
	defer func() {
		if err == nil || len(es) == 0 {
			return
		}
		errs := []error{err}
		for _, e := range es {
			errs = append(errs, e.Shutdown(ctx))
		}
		es = nil
		err = errors.Join(errs...)
	}()

	n := cfg.Get("exporter")
	err = r.ResolveMapFunc(ctx, category, n, func(named component.Named[any]) error {
		e, ok := named.Value.(T)
		if !ok {
			terr := component.UnexpectedComponentTypeError{
				Category: category,
				Name:     named.Name,
				Expected: reflect.TypeFor[T]().String(),
				Actual:   named.Value,
			}
			if s, ok := named.Value.(shutdowner); ok {
				return errors.Join(terr, s.Shutdown(ctx))
			}
			return terr
		}
		es = append(es, e)
		return nil
	})
	if err != nil {
		return es, err
	}
	if len(es) == 0 {
		return nil, component.InvalidComponentConfigError{
			Category: category,
			Path:     n.Path(),
			Reason:   "at least one exporter is required",
		}
	}
	return es, nil
}

// Providers returns every processor and reader in this package.
func Providers() []component.Provider {
	return []component.Provider{
		SimpleSpanProcessor(),
		BatchSpanProcessor(),
		PeriodicReader(),
		PullReader(),
		SimpleLogRecordProcessor(),
		BatchLogRecordProcessor(),
	}
}
