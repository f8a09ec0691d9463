// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gcp registers the Google Cloud components: the "gcp" resource
// detector and the "google_cloud_trace" span exporter.
package gcp

import (
	"context"

	"github.com/z5labs/otelcompose/component"
	"github.com/z5labs/otelcompose/config"

	texporter "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/trace"
	"go.opentelemetry.io/contrib/detectors/gcp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/api/option"
)

// TraceConfig is the configuration block accepted by the
// google_cloud_trace exporter.
type TraceConfig struct {
	// ProjectID defaults to the project of the default credentials.
	ProjectID string `config:"project_id"`
}

type options struct {
	clientOptions []option.ClientOption
}

// Option customizes the Google Cloud components.
type Option func(*options)

// ClientOptions are passed to the Cloud Trace API client.
func ClientOptions(opts ...option.ClientOption) Option {
	return func(o *options) {
		o.clientOptions = append(o.clientOptions, opts...)
	}
}

// Detector registers the "gcp" resource detector which populates
// cloud.* and faas.* attributes from the metadata server. Unlike the
// local detectors it may wait on the network.
func Detector() component.Provider {
	return component.NewProvider(
		component.CategoryResourceDetector,
		"gcp",
		func(ctx context.Context, cfg config.Node, r *component.Registry) (resource.Detector, error) {
			return gcp.NewDetector(), nil
		},
	)
}

// TraceExporter registers the "google_cloud_trace" span exporter.
func TraceExporter(opts ...Option) component.Provider {
	o := options{
		clientOptions: []option.ClientOption{option.WithTelemetryDisabled()},
	}
	for _, opt := range opts {
		opt(&o)
	}

	return component.NewProvider(
		component.CategorySpanExporter,
		"google_cloud_trace",
		func(ctx context.Context, cfg config.Node, r *component.Registry) (sdktrace.SpanExporter, error) {
			var tc TraceConfig
			err := cfg.Decode(&tc)
			if err != nil {
				return nil, err
			}

			topts := []texporter.Option{
				texporter.WithTraceClientOptions(o.clientOptions),
			}
			if tc.ProjectID != "" {
				topts = append(topts, texporter.WithProjectID(tc.ProjectID))
			}
			return texporter.New(topts...)
		},
	)
}

// Providers returns every Google Cloud component.
func Providers(opts ...Option) []component.Provider {
	return []component.Provider{
		Detector(),
		TraceExporter(opts...),
	}
}
