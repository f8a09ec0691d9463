// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package prometheus registers the "prometheus" pull metric exporter.
//
// The exporter collects into a [prometheus.Registry] which is served on
// host:port when a port is configured, or left for the caller to expose
// when it is supplied through [WithRegistry].
//
//	readers:
//	  - pull:
//	      exporter:
//	        prometheus:
//	          host: 0.0.0.0
//	          port: 9464
//	          without_units: true
package prometheus

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strconv"

	"github.com/z5labs/otelcompose/component"
	"github.com/z5labs/otelcompose/config"
	"github.com/z5labs/otelcompose/internal/slogfield"
	"github.com/z5labs/otelcompose/resource"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// LabelFilter selects resource attributes by key pattern.
type LabelFilter struct {
	Included []string `config:"included"`
	Excluded []string `config:"excluded"`
}

// Config is the configuration block accepted by the prometheus exporter.
type Config struct {
	Host              string `config:"host"`
	Port              int    `config:"port"`
	Namespace         string `config:"namespace"`
	WithoutUnits      bool   `config:"without_units"`
	WithoutTypeSuffix bool   `config:"without_type_suffix"`
	WithoutScopeInfo  bool   `config:"without_scope_info"`
	WithoutTargetInfo bool   `config:"without_target_info"`

	WithResourceConstantLabels *LabelFilter `config:"with_resource_constant_labels"`
}

func (c Config) addr() string {
	host := c.Host
	if host == "" {
		host = "localhost"
	}
	return net.JoinHostPort(host, strconv.Itoa(c.Port))
}

type options struct {
	registry *prometheus.Registry
	log      *slog.Logger
	server   []ServerOption
}

// Option customizes the prometheus exporter.
type Option func(*options)

// WithRegistry collects metrics into reg rather than a registry private
// to each exporter.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// WithLogger reports scrape server failures through log.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithServerOptions customizes the scrape server.
func WithServerOptions(opts ...ServerOption) Option {
	return func(o *options) {
		o.server = append(o.server, opts...)
	}
}

func (c Config) exporterOptions(reg prometheus.Registerer) ([]otelprom.Option, error) {
	opts := []otelprom.Option{otelprom.WithRegisterer(reg)}
	if c.Namespace != "" {
		opts = append(opts, otelprom.WithNamespace(c.Namespace))
	}
	if c.WithoutUnits {
		opts = append(opts, otelprom.WithoutUnits())
	}
	if c.WithoutTypeSuffix {
		opts = append(opts, otelprom.WithoutCounterSuffixes())
	}
	if c.WithoutScopeInfo {
		opts = append(opts, otelprom.WithoutScopeInfo())
	}
	if c.WithoutTargetInfo {
		opts = append(opts, otelprom.WithoutTargetInfo())
	}
	if f := c.WithResourceConstantLabels; f != nil {
		filter, err := f.filter()
		if err != nil {
			return nil, err
		}
		opts = append(opts, otelprom.WithResourceAsConstantLabels(filter))
	}
	return opts, nil
}

func (f LabelFilter) filter() (attribute.Filter, error) {
	// surface malformed patterns at creation instead of on every scrape
	_, err := resource.Match(f.Included, f.Excluded, "")
	if err != nil {
		return nil, err
	}
	return func(kv attribute.KeyValue) bool {
		ok, _ := resource.Match(f.Included, f.Excluded, string(kv.Key))
		return ok
	}, nil
}

// Exporter registers the "prometheus" pull metric exporter.
func Exporter(opts ...Option) component.Provider {
	o := options{
		log: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&o)
	}

	return component.NewProvider(
		component.CategoryPullMetricExporter,
		"prometheus",
		func(ctx context.Context, cfg config.Node, r *component.Registry) (sdkmetric.Reader, error) {
			var c Config
			err := cfg.Decode(&c)
			if err != nil {
				return nil, err
			}

			reg := o.registry
			if reg == nil {
				reg = prometheus.NewRegistry()
			}

			eopts, err := c.exporterOptions(reg)
			if err != nil {
				return nil, err
			}

			e, err := otelprom.New(eopts...)
			if err != nil {
				return nil, err
			}
			if c.Port == 0 {
				return e, nil
			}

			srv, err := listen(c.addr(), reg, o.server...)
			if err != nil {
				return nil, errors.Join(err, e.Shutdown(ctx))
			}
			o.log.InfoContext(ctx, "serving prometheus metrics", slogfield.String("addr", srv.Addr().String()))
			srv.serve(o.log)

			return &servingReader{Exporter: e, srv: srv}, nil
		},
	)
}

// servingReader stops the scrape server alongside the reader.
type servingReader struct {
	*otelprom.Exporter
	srv *server
}

func (r *servingReader) Shutdown(ctx context.Context) error {
	return errors.Join(r.srv.shutdown(ctx), r.Exporter.Shutdown(ctx))
}
