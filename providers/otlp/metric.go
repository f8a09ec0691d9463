// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otlp

import (
	"context"

	"github.com/z5labs/otelcompose/component"
	"github.com/z5labs/otelcompose/internal/httpclient"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MetricExporters returns the OTLP metric exporters.
func MetricExporters(opts ...Option) []component.Provider {
	return providers(component.CategoryMetricExporter, newOptions(opts), transports[sdkmetric.Exporter]{
		http: httpMetricExporter,
		grpc: grpcMetricExporter,
	})
}

func httpMetricExporter(ctx context.Context, c Config, o options) (sdkmetric.Exporter, error) {
	headers, err := c.headers()
	if err != nil {
		return nil, err
	}
	gzip, err := c.gzip()
	if err != nil {
		return nil, err
	}

	eopts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithHeaders(headers),
	}
	if c.Endpoint != "" && c.hasScheme() {
		eopts = append(eopts, otlpmetrichttp.WithEndpointURL(c.Endpoint))
	}
	if c.Endpoint != "" && !c.hasScheme() {
		eopts = append(eopts, otlpmetrichttp.WithEndpoint(c.Endpoint))
	}
	if c.Insecure {
		eopts = append(eopts, otlpmetrichttp.WithInsecure())
	}
	if gzip {
		eopts = append(eopts, otlpmetrichttp.WithCompression(otlpmetrichttp.GzipCompression))
	}
	if c.Timeout > 0 {
		eopts = append(eopts, otlpmetrichttp.WithTimeout(c.Timeout))
	}
	if !c.HTTPClient.IsZero() {
		client := httpclient.New(c.HTTPClient, httpclient.Logger(o.logger), httpclient.Name("otlp_http_metric_exporter"))
		eopts = append(eopts, otlpmetrichttp.WithHTTPClient(client))
	}
	return otlpmetrichttp.New(ctx, eopts...)
}

func grpcMetricExporter(ctx context.Context, c Config, o options) (sdkmetric.Exporter, error) {
	headers, err := c.headers()
	if err != nil {
		return nil, err
	}
	gzip, err := c.gzip()
	if err != nil {
		return nil, err
	}

	eopts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithHeaders(headers),
		otlpmetricgrpc.WithDialOption(o.grpcDialOptions(c)...),
	}
	if c.Endpoint != "" && c.hasScheme() {
		eopts = append(eopts, otlpmetricgrpc.WithEndpointURL(c.Endpoint))
	}
	if c.Endpoint != "" && !c.hasScheme() {
		eopts = append(eopts, otlpmetricgrpc.WithEndpoint(c.Endpoint))
	}
	if c.Insecure {
		eopts = append(eopts, otlpmetricgrpc.WithInsecure())
	}
	if gzip {
		eopts = append(eopts, otlpmetricgrpc.WithCompressor("gzip"))
	}
	if c.Timeout > 0 {
		eopts = append(eopts, otlpmetricgrpc.WithTimeout(c.Timeout))
	}
	return otlpmetricgrpc.New(ctx, eopts...)
}
