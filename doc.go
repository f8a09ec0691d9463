// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package otelcompose builds a complete OpenTelemetry SDK from a single
// declarative YAML document.
//
// The document names the propagators, resource detectors, samplers,
// processors, readers and exporters to use. Every name is resolved through
// a [component.Registry] so applications can add their own components
// next to the built-in catalog returned by [DefaultProviders].
//
// # Basic Usage
//
//	c, err := otelcompose.New()
//	if err != nil {
//	    return err
//	}
//
//	n, err := c.Parse(os.DirFS("."), "otel.yaml", "")
//	if err != nil {
//	    return err
//	}
//
//	pl, err := c.Create(ctx, n)
//	if err != nil {
//	    return err
//	}
//	defer pl.Shutdown(context.Background())
//
//	pl.RegisterGlobals()
//
// # Placeholders
//
// Values may reference the environment with ${NAME}, ${env:NAME} or
// ${NAME:-default}. Substitution happens while parsing and never applies
// to keys. A value consisting only of a placeholder is typed after
// substitution, so ${OTEL_SDK_DISABLED:-false} yields a bool.
//
// # Custom Components
//
// A component is registered by category and name:
//
//	c.RegisterComponentProvider(component.NewProvider(
//	    component.CategorySpanExporter,
//	    "my_exporter",
//	    func(ctx context.Context, cfg config.Node, r *component.Registry) (sdktrace.SpanExporter, error) {
//	        return newMyExporter(cfg)
//	    },
//	))
//
// after which it may be used anywhere a span exporter is accepted:
//
//	tracer_provider:
//	  processors:
//	    - batch:
//	        exporter:
//	          my_exporter:
package otelcompose
