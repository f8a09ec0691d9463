// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	otelslogbridge "go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/log/global"
	nooplog "go.opentelemetry.io/otel/log/noop"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

// Pipeline is a composed telemetry pipeline.
//
// Its propagator and resource are immutable and safe for concurrent use.
// The providers are only set if they were configured and the pipeline
// was not disabled.
type Pipeline struct {
	propagator     propagation.TextMapPropagator
	resource       *resource.Resource
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	loggerProvider *sdklog.LoggerProvider

	mu        sync.Mutex
	teardowns []func()
}

// Propagator returns the composed propagator. It is never nil.
func (p *Pipeline) Propagator() propagation.TextMapPropagator {
	return p.propagator
}

// Resource returns the merged resource. It is never nil.
func (p *Pipeline) Resource() *resource.Resource {
	return p.resource
}

// TracerProvider returns the configured tracer provider, if any.
func (p *Pipeline) TracerProvider() *sdktrace.TracerProvider {
	return p.tracerProvider
}

// MeterProvider returns the configured meter provider, if any.
func (p *Pipeline) MeterProvider() *sdkmetric.MeterProvider {
	return p.meterProvider
}

// LoggerProvider returns the configured logger provider, if any.
func (p *Pipeline) LoggerProvider() *sdklog.LoggerProvider {
	return p.loggerProvider
}

// RegisterGlobals installs the propagator and every configured provider as
// the process wide OpenTelemetry globals. For each installed global a
// teardown is recorded which [Pipeline.Disable] uses to restore a no-op.
//
// Calling RegisterGlobals more than once records more teardowns.
func (p *Pipeline) RegisterGlobals() {
	p.mu.Lock()
	defer p.mu.Unlock()

	otel.SetTextMapPropagator(p.propagator)
	p.teardowns = append(p.teardowns, func() {
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator())
	})

	if p.tracerProvider != nil {
		otel.SetTracerProvider(p.tracerProvider)
		p.teardowns = append(p.teardowns, func() {
			otel.SetTracerProvider(nooptrace.NewTracerProvider())
		})
	}
	if p.meterProvider != nil {
		otel.SetMeterProvider(p.meterProvider)
		p.teardowns = append(p.teardowns, func() {
			otel.SetMeterProvider(noopmetric.NewMeterProvider())
		})
	}
	if p.loggerProvider != nil {
		global.SetLoggerProvider(p.loggerProvider)
		p.teardowns = append(p.teardowns, func() {
			global.SetLoggerProvider(nooplog.NewLoggerProvider())
		})
	}
}

// Disable runs every recorded teardown once, in reverse order of
// registration, and forgets them. Calling Disable again is a no-op
// until RegisterGlobals is called again.
//
// Disable does not shut the providers down, see [Pipeline.Shutdown].
func (p *Pipeline) Disable() {
	p.mu.Lock()
	teardowns := p.teardowns
	p.teardowns = nil
	p.mu.Unlock()

	for i := len(teardowns) - 1; i >= 0; i-- {
		teardowns[i]()
	}
}

type shutdownInterface interface {
	Shutdown(context.Context) error
}

type flushInterface interface {
	ForceFlush(context.Context) error
}

func (p *Pipeline) providers() []any {
	var ps []any
	if p.tracerProvider != nil {
		ps = append(ps, p.tracerProvider)
	}
	if p.meterProvider != nil {
		ps = append(ps, p.meterProvider)
	}
	if p.loggerProvider != nil {
		ps = append(ps, p.loggerProvider)
	}
	return ps
}

// Shutdown concurrently shuts down every configured provider, flushing
// any buffered telemetry, and returns all of their errors joined.
func (p *Pipeline) Shutdown(ctx context.Context) error {
	return each(ctx, p.providers(), func(ctx context.Context, v any) error {
		return v.(shutdownInterface).Shutdown(ctx)
	})
}

// ForceFlush concurrently flushes every configured provider.
func (p *Pipeline) ForceFlush(ctx context.Context) error {
	return each(ctx, p.providers(), func(ctx context.Context, v any) error {
		return v.(flushInterface).ForceFlush(ctx)
	})
}

func each(ctx context.Context, vs []any, f func(context.Context, any) error) error {
	errs := make([]error, len(vs))

	var eg errgroup.Group
	for i, v := range vs {
		eg.Go(func() error {
			errs[i] = f(ctx, v)
			return nil
		})
	}
	_ = eg.Wait()

	return errors.Join(errs...)
}

// Logger returns an [slog.Logger] which emits records to the configured
// logger provider. Without a logger provider, records are discarded.
func (p *Pipeline) Logger(name string) *slog.Logger {
	if p.loggerProvider == nil {
		return slog.New(slog.DiscardHandler)
	}
	return otelslogbridge.NewLogger(
		name,
		otelslogbridge.WithLoggerProvider(p.loggerProvider),
		otelslogbridge.WithSchemaURL(p.resource.SchemaURL()),
	)
}

// ZapCore returns a [zapcore.Core] which emits entries to the configured
// logger provider. Without a logger provider, entries are discarded.
func (p *Pipeline) ZapCore(name string) zapcore.Core {
	if p.loggerProvider == nil {
		return zapcore.NewNopCore()
	}
	return otelzap.NewCore(
		name,
		otelzap.WithLoggerProvider(p.loggerProvider),
		otelzap.WithSchemaURL(p.resource.SchemaURL()),
	)
}
