// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package sampler registers the span samplers which may be configured
// as tracer_provider.sampler.
package sampler

import (
	"context"
	"fmt"

	"github.com/z5labs/otelcompose/component"
	"github.com/z5labs/otelcompose/config"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// AlwaysOn samples every span.
func AlwaysOn() component.Provider {
	return component.NewProvider(
		component.CategorySampler,
		"always_on",
		func(ctx context.Context, cfg config.Node, r *component.Registry) (sdktrace.Sampler, error) {
			return sdktrace.AlwaysSample(), nil
		},
	)
}

// AlwaysOff samples no spans.
func AlwaysOff() component.Provider {
	return component.NewProvider(
		component.CategorySampler,
		"always_off",
		func(ctx context.Context, cfg config.Node, r *component.Registry) (sdktrace.Sampler, error) {
			return sdktrace.NeverSample(), nil
		},
	)
}

// RatioConfig configures the trace_id_ratio_based sampler.
type RatioConfig struct {
	Ratio *float64 `config:"ratio"`
}

// RatioOutOfRangeError occurs when a sampling ratio is not within [0, 1].
type RatioOutOfRangeError struct {
	Ratio float64
}

// Error implements the error interface.
func (e RatioOutOfRangeError) Error() string {
	return fmt.Sprintf("sampling ratio must be between 0 and 1: %v", e.Ratio)
}

// TraceIDRatioBased samples the given fraction of traces. The ratio
// defaults to 1.
func TraceIDRatioBased() component.Provider {
	return component.NewProvider(
		component.CategorySampler,
		"trace_id_ratio_based",
		func(ctx context.Context, cfg config.Node, r *component.Registry) (sdktrace.Sampler, error) {
			var rc RatioConfig
			err := cfg.Decode(&rc)
			if err != nil {
				return nil, err
			}

			ratio := 1.0
			if rc.Ratio != nil {
				ratio = *rc.Ratio
			}
			if ratio < 0 || ratio > 1 {
				return nil, RatioOutOfRangeError{Ratio: ratio}
			}
			return sdktrace.TraceIDRatioBased(ratio), nil
		},
	)
}

// ParentBased follows the sampling decision of the parent span and uses
// the nested root sampler for spans without one, e.g.
//
//	parent_based:
//	  root:
//	    trace_id_ratio_based:
//	      ratio: 0.25
//	  remote_parent_not_sampled:
//	    always_on:
//
// Every nested sampler is resolved through the same registry.
func ParentBased() component.Provider {
	return component.NewProvider(
		component.CategorySampler,
		"parent_based",
		func(ctx context.Context, cfg config.Node, r *component.Registry) (sdktrace.Sampler, error) {
			root := sdktrace.AlwaysSample()
			if n := cfg.Get("root"); n.Exists() && !n.IsNull() {
				named, err := component.ResolveOne[sdktrace.Sampler](ctx, r, component.CategorySampler, n)
				if err != nil {
					return nil, err
				}
				root = named.Value
			}

			delegates := []struct {
				name string
				opt  func(sdktrace.Sampler) sdktrace.ParentBasedSamplerOption
			}{
				{"remote_parent_sampled", sdktrace.WithRemoteParentSampled},
				{"remote_parent_not_sampled", sdktrace.WithRemoteParentNotSampled},
				{"local_parent_sampled", sdktrace.WithLocalParentSampled},
				{"local_parent_not_sampled", sdktrace.WithLocalParentNotSampled},
			}

			var opts []sdktrace.ParentBasedSamplerOption
			for _, d := range delegates {
				n := cfg.Get(d.name)
				if !n.Exists() || n.IsNull() {
					continue
				}
				named, err := component.ResolveOne[sdktrace.Sampler](ctx, r, component.CategorySampler, n)
				if err != nil {
					return nil, err
				}
				opts = append(opts, d.opt(named.Value))
			}
			return sdktrace.ParentBased(root, opts...), nil
		},
	)
}

// Providers returns every sampler in this package.
func Providers() []component.Provider {
	return []component.Provider{
		AlwaysOn(),
		AlwaysOff(),
		TraceIDRatioBased(),
		ParentBased(),
	}
}
