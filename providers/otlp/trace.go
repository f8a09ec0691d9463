// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otlp

import (
	"context"

	"github.com/z5labs/otelcompose/component"
	"github.com/z5labs/otelcompose/internal/httpclient"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// SpanExporters returns the OTLP span exporters.
func SpanExporters(opts ...Option) []component.Provider {
	return providers(component.CategorySpanExporter, newOptions(opts), transports[sdktrace.SpanExporter]{
		http: httpSpanExporter,
		grpc: grpcSpanExporter,
	})
}

func httpSpanExporter(ctx context.Context, c Config, o options) (sdktrace.SpanExporter, error) {
	headers, err := c.headers()
	if err != nil {
		return nil, err
	}
	gzip, err := c.gzip()
	if err != nil {
		return nil, err
	}

	eopts := []otlptracehttp.Option{
		otlptracehttp.WithHeaders(headers),
	}
	if c.Endpoint != "" && c.hasScheme() {
		eopts = append(eopts, otlptracehttp.WithEndpointURL(c.Endpoint))
	}
	if c.Endpoint != "" && !c.hasScheme() {
		eopts = append(eopts, otlptracehttp.WithEndpoint(c.Endpoint))
	}
	if c.Insecure {
		eopts = append(eopts, otlptracehttp.WithInsecure())
	}
	if gzip {
		eopts = append(eopts, otlptracehttp.WithCompression(otlptracehttp.GzipCompression))
	}
	if c.Timeout > 0 {
		eopts = append(eopts, otlptracehttp.WithTimeout(c.Timeout))
	}
	if !c.HTTPClient.IsZero() {
		client := httpclient.New(c.HTTPClient, httpclient.Logger(o.logger), httpclient.Name("otlp_http_span_exporter"))
		eopts = append(eopts, otlptracehttp.WithHTTPClient(client))
	}
	return otlptracehttp.New(ctx, eopts...)
}

func grpcSpanExporter(ctx context.Context, c Config, o options) (sdktrace.SpanExporter, error) {
	headers, err := c.headers()
	if err != nil {
		return nil, err
	}
	gzip, err := c.gzip()
	if err != nil {
		return nil, err
	}

	eopts := []otlptracegrpc.Option{
		otlptracegrpc.WithHeaders(headers),
		otlptracegrpc.WithDialOption(o.grpcDialOptions(c)...),
	}
	if c.Endpoint != "" && c.hasScheme() {
		eopts = append(eopts, otlptracegrpc.WithEndpointURL(c.Endpoint))
	}
	if c.Endpoint != "" && !c.hasScheme() {
		eopts = append(eopts, otlptracegrpc.WithEndpoint(c.Endpoint))
	}
	if c.Insecure {
		eopts = append(eopts, otlptracegrpc.WithInsecure())
	}
	if gzip {
		eopts = append(eopts, otlptracegrpc.WithCompressor("gzip"))
	}
	if c.Timeout > 0 {
		eopts = append(eopts, otlptracegrpc.WithTimeout(c.Timeout))
	}
	return otlptracegrpc.New(ctx, eopts...)
}
