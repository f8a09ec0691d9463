// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otelcompose

import (
	"context"
	"io"
	"io/fs"
	"log/slog"

	"github.com/z5labs/otelcompose/component"
	"github.com/z5labs/otelcompose/config"
	"github.com/z5labs/otelcompose/pipeline"
	"github.com/z5labs/otelcompose/providers/detector"
	"github.com/z5labs/otelcompose/providers/gcp"
	"github.com/z5labs/otelcompose/providers/noop"
	"github.com/z5labs/otelcompose/providers/otlp"
	"github.com/z5labs/otelcompose/providers/processor"
	"github.com/z5labs/otelcompose/providers/prometheus"
	"github.com/z5labs/otelcompose/providers/propagator"
	"github.com/z5labs/otelcompose/providers/sampler"
	"github.com/z5labs/otelcompose/providers/stdout"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

type options struct {
	lookup    config.Lookup
	providers []component.Provider

	pipeline   []pipeline.Option
	stdout     []stdout.Option
	otlp       []otlp.Option
	prometheus []prometheus.Option
	gcp        []gcp.Option
}

// Option configures the built-in components and the [Configuration].
type Option func(*options)

// WithLogger reports what the composer and the components do through log.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		o.pipeline = append(o.pipeline, pipeline.WithLogger(log))
		o.prometheus = append(o.prometheus, prometheus.WithLogger(log))
	}
}

// WithHTTPClientLogger reports retries and circuit breaker state changes
// of the OTLP/HTTP exporters through log.
func WithHTTPClientLogger(log *zap.Logger) Option {
	return func(o *options) {
		o.otlp = append(o.otlp, otlp.Logger(log))
	}
}

// WithLookup resolves ${NAME} placeholders through lookup instead of
// the process environment when parsing documents.
func WithLookup(lookup config.Lookup) Option {
	return func(o *options) {
		o.lookup = lookup
	}
}

// WithComponentProviders registers extra providers alongside the defaults.
func WithComponentProviders(ps ...component.Provider) Option {
	return func(o *options) {
		o.providers = append(o.providers, ps...)
	}
}

// WithPipelineOptions customizes the "sdk" provider.
func WithPipelineOptions(opts ...pipeline.Option) Option {
	return func(o *options) {
		o.pipeline = append(o.pipeline, opts...)
	}
}

// WithConsoleWriter makes the console exporters write to w.
func WithConsoleWriter(w io.Writer) Option {
	return func(o *options) {
		o.stdout = append(o.stdout, stdout.WithWriter(w))
	}
}

// WithPrometheusRegistry collects prometheus metrics into reg.
func WithPrometheusRegistry(reg *promclient.Registry) Option {
	return func(o *options) {
		o.prometheus = append(o.prometheus, prometheus.WithRegistry(reg))
	}
}

// WithGoogleCloudClientOptions are passed to the Cloud Trace API client.
func WithGoogleCloudClientOptions(opts ...option.ClientOption) Option {
	return func(o *options) {
		o.gcp = append(o.gcp, gcp.ClientOptions(opts...))
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		lookup: config.LookupEnv(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func defaultProviders(o *options) []component.Provider {
	var ps []component.Provider
	ps = append(ps, pipeline.NewProvider(o.pipeline...))
	ps = append(ps, propagator.Providers()...)
	ps = append(ps, detector.Providers()...)
	ps = append(ps, sampler.Providers()...)
	ps = append(ps, processor.Providers()...)
	ps = append(ps, stdout.Providers(o.stdout...)...)
	ps = append(ps, otlp.Providers(o.otlp...)...)
	ps = append(ps, noop.Providers()...)
	ps = append(ps, prometheus.Exporter(o.prometheus...))
	ps = append(ps, gcp.Providers(o.gcp...)...)
	return ps
}

// DefaultProviders returns the built-in component catalog, including the
// "sdk" provider which composes a whole document into a [pipeline.Pipeline].
func DefaultProviders(opts ...Option) []component.Provider {
	return defaultProviders(newOptions(opts))
}

// Configuration parses documents and creates telemetry pipelines from
// them using its registry of component providers.
type Configuration struct {
	lookup   config.Lookup
	registry *component.Registry
}

// New returns a Configuration whose registry holds the [DefaultProviders]
// and any providers given by [WithComponentProviders].
func New(opts ...Option) (*Configuration, error) {
	o := newOptions(opts)

	r, err := component.NewRegistry(append(defaultProviders(o), o.providers...)...)
	if err != nil {
		return nil, err
	}

	c := &Configuration{
		lookup:   o.lookup,
		registry: r,
	}
	return c, nil
}

// Registry returns the registry components are resolved from.
func (c *Configuration) Registry() *component.Registry {
	return c.registry
}

// RegisterComponentProvider adds p to the registry. It fails if a provider
// with the same category and name is already registered.
func (c *Configuration) RegisterComponentProvider(p component.Provider) error {
	return c.registry.Register(p)
}

// Parse loads the document at path from fsys. An empty format is
// guessed from the file extension.
func (c *Configuration) Parse(fsys fs.FS, path string, format config.Format) (config.Node, error) {
	if format == "" {
		format = config.FormatOf(path)
	}
	return config.LoadFile(fsys, path, format, config.WithLookup(c.lookup))
}

// Create composes the document into a pipeline. Nothing is registered
// globally until [pipeline.Pipeline.RegisterGlobals] is called.
func (c *Configuration) Create(ctx context.Context, node config.Node) (*pipeline.Pipeline, error) {
	return component.Resolve[*pipeline.Pipeline](ctx, c.registry, component.CategorySDK, "sdk", node)
}
