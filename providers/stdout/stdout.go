// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package stdout registers the "console" exporters which write spans,
// metrics and log records to an [io.Writer], by default [os.Stdout].
package stdout

import (
	"context"
	"io"
	"os"

	"github.com/z5labs/otelcompose/component"
	"github.com/z5labs/otelcompose/config"

	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Config is the configuration block accepted by every console exporter.
type Config struct {
	PrettyPrint       bool `config:"pretty_print"`
	WithoutTimestamps bool `config:"without_timestamps"`
}

type options struct {
	w io.Writer
}

// Option customizes the console exporters.
type Option func(*options)

// WithWriter writes telemetry to w instead of [os.Stdout].
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		o.w = w
	}
}

func newOptions(opts []Option) options {
	o := options{w: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func decode(cfg config.Node) (Config, error) {
	var c Config
	err := cfg.Decode(&c)
	return c, err
}

// SpanExporter registers the console span exporter.
func SpanExporter(opts ...Option) component.Provider {
	o := newOptions(opts)
	return component.NewProvider(
		component.CategorySpanExporter,
		"console",
		func(ctx context.Context, cfg config.Node, r *component.Registry) (sdktrace.SpanExporter, error) {
			c, err := decode(cfg)
			if err != nil {
				return nil, err
			}

			eopts := []stdouttrace.Option{stdouttrace.WithWriter(o.w)}
			if c.PrettyPrint {
				eopts = append(eopts, stdouttrace.WithPrettyPrint())
			}
			if c.WithoutTimestamps {
				eopts = append(eopts, stdouttrace.WithoutTimestamps())
			}
			return stdouttrace.New(eopts...)
		},
	)
}

// MetricExporter registers the console metric exporter.
func MetricExporter(opts ...Option) component.Provider {
	o := newOptions(opts)
	return component.NewProvider(
		component.CategoryMetricExporter,
		"console",
		func(ctx context.Context, cfg config.Node, r *component.Registry) (sdkmetric.Exporter, error) {
			c, err := decode(cfg)
			if err != nil {
				return nil, err
			}

			eopts := []stdoutmetric.Option{stdoutmetric.WithWriter(o.w)}
			if c.PrettyPrint {
				eopts = append(eopts, stdoutmetric.WithPrettyPrint())
			}
			if c.WithoutTimestamps {
				eopts = append(eopts, stdoutmetric.WithoutTimestamps())
			}
			return stdoutmetric.New(eopts...)
		},
	)
}

// LogRecordExporter registers the console log record exporter.
func LogRecordExporter(opts ...Option) component.Provider {
	o := newOptions(opts)
	return component.NewProvider(
		component.CategoryLogRecordExporter,
		"console",
		func(ctx context.Context, cfg config.Node, r *component.Registry) (sdklog.Exporter, error) {
			c, err := decode(cfg)
			if err != nil {
				return nil, err
			}

			eopts := []stdoutlog.Option{stdoutlog.WithWriter(o.w)}
			if c.PrettyPrint {
				eopts = append(eopts, stdoutlog.WithPrettyPrint())
			}
			if c.WithoutTimestamps {
				eopts = append(eopts, stdoutlog.WithoutTimestamps())
			}
			return stdoutlog.New(eopts...)
		},
	)
}

// Providers returns every console exporter, all writing through opts.
func Providers(opts ...Option) []component.Provider {
	return []component.Provider{
		SpanExporter(opts...),
		MetricExporter(opts...),
		LogRecordExporter(opts...),
	}
}
