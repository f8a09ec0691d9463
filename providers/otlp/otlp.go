// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package otlp registers exporters which ship spans, metrics and log records
// to an OTLP collector over either HTTP or gRPC.
//
// Every signal is registered under three names: "otlp_http", "otlp_grpc" and
// "otlp", the latter choosing its transport from the protocol field.
//
//	exporter:
//	  otlp:
//	    protocol: grpc
//	    endpoint: http://collector:4317
//	    insecure: true
//	    headers:
//	      - name: api-key
//	        value: ${API_KEY}
//
// The HTTP exporters additionally accept an http_client block configuring
// request retries and a circuit breaker.
package otlp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/z5labs/otelcompose/component"
	"github.com/z5labs/otelcompose/config"
	"github.com/z5labs/otelcompose/internal/httpclient"
	"github.com/z5labs/otelcompose/resource"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Protocol is the OTLP transport.
type Protocol string

const (
	ProtocolHTTPProtobuf Protocol = "http/protobuf"
	ProtocolGRPC         Protocol = "grpc"
)

// UnsupportedProtocolError occurs when the "otlp" exporter is configured
// with a protocol other than http/protobuf or grpc.
type UnsupportedProtocolError struct {
	Protocol Protocol
}

// Error implements the error interface.
func (e UnsupportedProtocolError) Error() string {
	return fmt.Sprintf("unsupported otlp protocol: %s", e.Protocol)
}

// UnsupportedCompressionError occurs when compression is neither gzip nor none.
type UnsupportedCompressionError struct {
	Compression string
}

// Error implements the error interface.
func (e UnsupportedCompressionError) Error() string {
	return fmt.Sprintf("unsupported otlp compression: %s", e.Compression)
}

// Header is a single header sent with every export request.
type Header struct {
	Name  string `config:"name"`
	Value string `config:"value"`
}

// Config is the configuration block accepted by every OTLP exporter.
type Config struct {
	Protocol    Protocol      `config:"protocol"`
	Endpoint    string        `config:"endpoint"`
	Insecure    bool          `config:"insecure"`
	Compression string        `config:"compression"`
	Timeout     time.Duration `config:"timeout"`

	// Headers take precedence over HeadersList.
	Headers []Header `config:"headers"`

	// HeadersList is a comma separated list of name=value pairs.
	HeadersList string `config:"headers_list"`

	HTTPClient httpclient.Config `config:"http_client"`
}

func (c Config) headers() (map[string]string, error) {
	kvs, err := resource.ParseList(c.HeadersList)
	if err != nil {
		return nil, err
	}

	hs := make(map[string]string, len(kvs)+len(c.Headers))
	for _, kv := range kvs {
		hs[string(kv.Key)] = kv.Value.AsString()
	}
	for _, h := range c.Headers {
		hs[h.Name] = h.Value
	}
	return hs, nil
}

func (c Config) gzip() (bool, error) {
	switch strings.ToLower(c.Compression) {
	case "", "none":
		return false, nil
	case "gzip":
		return true, nil
	default:
		return false, UnsupportedCompressionError{Compression: c.Compression}
	}
}

// hasScheme reports whether the endpoint is a URL rather than host:port.
func (c Config) hasScheme() bool {
	return strings.Contains(c.Endpoint, "://")
}

type options struct {
	logger      *zap.Logger
	dialOptions []grpc.DialOption
}

// Option customizes the OTLP exporters.
type Option func(*options)

// Logger sets the logger the HTTP client reports retries and circuit
// breaker state changes through.
func Logger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// DialOptions are added to every gRPC connection an exporter dials.
func DialOptions(opts ...grpc.DialOption) Option {
	return func(o *options) {
		o.dialOptions = append(o.dialOptions, opts...)
	}
}

func newOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) grpcDialOptions(c Config) []grpc.DialOption {
	dopts := append([]grpc.DialOption{}, o.dialOptions...)
	if c.Insecure {
		dopts = append(dopts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}
	return dopts
}

type buildFunc[T any] func(context.Context, Config, options) (T, error)

type transports[T any] struct {
	http buildFunc[T]
	grpc buildFunc[T]
}

func (t transports[T]) build(ctx context.Context, c Config, o options) (T, error) {
	switch c.Protocol {
	case "", ProtocolHTTPProtobuf:
		return t.http(ctx, c, o)
	case ProtocolGRPC:
		return t.grpc(ctx, c, o)
	default:
		var zero T
		return zero, UnsupportedProtocolError{Protocol: c.Protocol}
	}
}

func providers[T any](category component.Category, o options, t transports[T]) []component.Provider {
	register := func(name string, f buildFunc[T]) component.Provider {
		return component.NewProvider(
			category,
			name,
			func(ctx context.Context, cfg config.Node, r *component.Registry) (T, error) {
				var c Config
				err := cfg.Decode(&c)
				if err != nil {
					var zero T
					return zero, err
				}
				return f(ctx, c, o)
			},
		)
	}

	return []component.Provider{
		register("otlp_http", t.http),
		register("otlp_grpc", t.grpc),
		register("otlp", t.build),
	}
}

// Providers returns every OTLP exporter for every signal.
func Providers(opts ...Option) []component.Provider {
	var ps []component.Provider
	ps = append(ps, SpanExporters(opts...)...)
	ps = append(ps, MetricExporters(opts...)...)
	ps = append(ps, LogRecordExporters(opts...)...)
	return ps
}
