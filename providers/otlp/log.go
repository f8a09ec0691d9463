// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otlp

import (
	"context"

	"github.com/z5labs/otelcompose/component"
	"github.com/z5labs/otelcompose/internal/httpclient"

	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// LogRecordExporters returns the OTLP log record exporters.
func LogRecordExporters(opts ...Option) []component.Provider {
	return providers(component.CategoryLogRecordExporter, newOptions(opts), transports[sdklog.Exporter]{
		http: httpLogRecordExporter,
		grpc: grpcLogRecordExporter,
	})
}

func httpLogRecordExporter(ctx context.Context, c Config, o options) (sdklog.Exporter, error) {
	headers, err := c.headers()
	if err != nil {
		return nil, err
	}
	gzip, err := c.gzip()
	if err != nil {
		return nil, err
	}

	eopts := []otlploghttp.Option{
		otlploghttp.WithHeaders(headers),
	}
	if c.Endpoint != "" && c.hasScheme() {
		eopts = append(eopts, otlploghttp.WithEndpointURL(c.Endpoint))
	}
	if c.Endpoint != "" && !c.hasScheme() {
		eopts = append(eopts, otlploghttp.WithEndpoint(c.Endpoint))
	}
	if c.Insecure {
		eopts = append(eopts, otlploghttp.WithInsecure())
	}
	if gzip {
		eopts = append(eopts, otlploghttp.WithCompression(otlploghttp.GzipCompression))
	}
	if c.Timeout > 0 {
		eopts = append(eopts, otlploghttp.WithTimeout(c.Timeout))
	}
	if !c.HTTPClient.IsZero() {
		client := httpclient.New(c.HTTPClient, httpclient.Logger(o.logger), httpclient.Name("otlp_http_log_record_exporter"))
		eopts = append(eopts, otlploghttp.WithHTTPClient(client))
	}
	return otlploghttp.New(ctx, eopts...)
}

func grpcLogRecordExporter(ctx context.Context, c Config, o options) (sdklog.Exporter, error) {
	headers, err := c.headers()
	if err != nil {
		return nil, err
	}
	gzip, err := c.gzip()
	if err != nil {
		return nil, err
	}

	eopts := []otlploggrpc.Option{
		otlploggrpc.WithHeaders(headers),
		otlploggrpc.WithDialOption(o.grpcDialOptions(c)...),
	}
	if c.Endpoint != "" && c.hasScheme() {
		eopts = append(eopts, otlploggrpc.WithEndpointURL(c.Endpoint))
	}
	if c.Endpoint != "" && !c.hasScheme() {
		eopts = append(eopts, otlploggrpc.WithEndpoint(c.Endpoint))
	}
	if c.Insecure {
		eopts = append(eopts, otlploggrpc.WithInsecure())
	}
	if gzip {
		eopts = append(eopts, otlploggrpc.WithCompressor("gzip"))
	}
	if c.Timeout > 0 {
		eopts = append(eopts, otlploggrpc.WithTimeout(c.Timeout))
	}
	return otlploggrpc.New(ctx, eopts...)
}
