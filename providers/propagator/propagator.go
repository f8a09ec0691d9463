// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package propagator registers the text map propagators which may be
// named in the propagator.composite list of a configuration document.
package propagator

import (
	"context"

	"github.com/z5labs/otelcompose/component"
	"github.com/z5labs/otelcompose/config"

	"go.opentelemetry.io/contrib/propagators/b3"
	"go.opentelemetry.io/otel/propagation"
)

// TraceContext creates the W3C Trace Context propagator.
func TraceContext() component.Provider {
	return component.NewProvider(
		component.CategoryPropagator,
		"tracecontext",
		func(ctx context.Context, cfg config.Node, r *component.Registry) (propagation.TextMapPropagator, error) {
			return propagation.TraceContext{}, nil
		},
	)
}

// Baggage creates the W3C Baggage propagator.
func Baggage() component.Provider {
	return component.NewProvider(
		component.CategoryPropagator,
		"baggage",
		func(ctx context.Context, cfg config.Node, r *component.Registry) (propagation.TextMapPropagator, error) {
			return propagation.Baggage{}, nil
		},
	)
}

// B3 creates a B3 propagator which injects the single "b3" header.
func B3() component.Provider {
	return b3Provider("b3", b3.B3SingleHeader)
}

// B3Multi creates a B3 propagator which injects the X-B3-* headers.
func B3Multi() component.Provider {
	return b3Provider("b3multi", b3.B3MultipleHeader)
}

func b3Provider(name string, encoding b3.Encoding) component.Provider {
	return component.NewProvider(
		component.CategoryPropagator,
		name,
		func(ctx context.Context, cfg config.Node, r *component.Registry) (propagation.TextMapPropagator, error) {
			return b3.New(b3.WithInjectEncoding(encoding)), nil
		},
	)
}

// None creates a propagator which neither injects nor extracts anything.
func None() component.Provider {
	return component.NewProvider(
		component.CategoryPropagator,
		"none",
		func(ctx context.Context, cfg config.Node, r *component.Registry) (propagation.TextMapPropagator, error) {
			return propagation.NewCompositeTextMapPropagator(), nil
		},
	)
}

// Composite creates a propagator from a nested list of propagators,
// resolved through the same registry, e.g.
//
//	composite:
//	  - tracecontext:
//	  - baggage:
func Composite() component.Provider {
	return component.NewProvider(
		component.CategoryPropagator,
		"composite",
		func(ctx context.Context, cfg config.Node, r *component.Registry) (propagation.TextMapPropagator, error) {
			named, err := component.ResolveList[propagation.TextMapPropagator](ctx, r, component.CategoryPropagator, cfg)
			if err != nil {
				return nil, err
			}
			return propagation.NewCompositeTextMapPropagator(component.Values(named)...), nil
		},
	)
}

// Providers returns every propagator in this package.
func Providers() []component.Provider {
	return []component.Provider{
		TraceContext(),
		Baggage(),
		B3(),
		B3Multi(),
		None(),
		Composite(),
	}
}
