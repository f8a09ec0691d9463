// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package pipeline composes a telemetry pipeline from a configuration
// document by resolving every component it names through a registry.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/z5labs/otelcompose/component"
	"github.com/z5labs/otelcompose/config"
	"github.com/z5labs/otelcompose/config/key"
	"github.com/z5labs/otelcompose/internal/slogfield"

	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
)

// InvalidConfigError occurs when a part of the configuration document
// which is interpreted by the composer itself is malformed.
type InvalidConfigError struct {
	Path   key.Chain
	Reason string
	Cause  error
}

// Error implements the error interface.
func (e InvalidConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid config at %s: %s: %s", e.Path.Key(), e.Reason, e.Cause)
	}
	return fmt.Sprintf("invalid config at %s: %s", e.Path.Key(), e.Reason)
}

// Unwrap implements the implicit interface for usage with errors.Is and errors.As.
func (e InvalidConfigError) Unwrap() error {
	return e.Cause
}

// Provider is the component which composes a whole [Pipeline]. It is
// registered in the "sdk" category under the name "sdk".
type Provider struct {
	propagatorHook func(propagation.TextMapPropagator) propagation.TextMapPropagator
	resourceHook   func(*resource.Resource) *resource.Resource
	log            *slog.Logger
}

// Option configures a [Provider].
type Option func(*Provider)

// WithPropagatorHook lets the caller wrap or replace the composed
// propagator before it is stored in the [Pipeline].
func WithPropagatorHook(f func(propagation.TextMapPropagator) propagation.TextMapPropagator) Option {
	return func(p *Provider) {
		p.propagatorHook = f
	}
}

// WithResourceHook lets the caller wrap or replace the merged
// resource before it is handed to any provider.
func WithResourceHook(f func(*resource.Resource) *resource.Resource) Option {
	return func(p *Provider) {
		p.resourceHook = f
	}
}

// WithLogger sets the logger used for diagnostics while composing,
// e.g. detectors which failed. By default, nothing is logged.
func WithLogger(log *slog.Logger) Option {
	return func(p *Provider) {
		p.log = log
	}
}

// NewProvider returns a [Provider] configured with the given options.
func NewProvider(opts ...Option) *Provider {
	p := &Provider{
		log: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Category implements the [component.Provider] interface.
func (p *Provider) Category() component.Category {
	return component.CategorySDK
}

// Name implements the [component.Provider] interface.
func (p *Provider) Name() string {
	return "sdk"
}

// Create implements the [component.Provider] interface.
func (p *Provider) Create(ctx context.Context, cfg config.Node, r *component.Registry) (any, error) {
	return p.Compose(ctx, cfg, r)
}

// Compose builds a [Pipeline] from the whole configuration document.
//
// The propagator and resource are always built. Unless the document sets
// disabled to true, a tracer, meter and logger provider are then built
// for each of the tracer_provider, meter_provider and logger_provider
// sections which are present. Any failure shuts down whatever was
// already built before the error is returned.
func (p *Provider) Compose(ctx context.Context, cfg config.Node, r *component.Registry) (*Pipeline, error) {
	ctx = component.NewContext(ctx, component.Scope{Logger: p.log})

	if format := cfg.Get("file_format"); format.Exists() && !format.IsNull() {
		if format.Kind() != config.KindScalar {
			return nil, InvalidConfigError{Path: format.Path(), Reason: "must be a version string"}
		}
		p.log.DebugContext(ctx, "composing telemetry pipeline", slogfield.Any("file_format", format.Interface()))
	}

	propagator, err := p.composePropagator(ctx, cfg.Get("propagator"), r)
	if err != nil {
		return nil, err
	}

	res, err := p.composeResource(ctx, cfg.Get("resource"), r)
	if err != nil {
		return nil, err
	}

	pl := &Pipeline{
		propagator: propagator,
		resource:   res,
	}

	disabled, err := optionalBool(cfg.Get("disabled"))
	if err != nil {
		return nil, err
	}
	if disabled {
		p.log.InfoContext(ctx, "telemetry pipeline is disabled")
		return pl, nil
	}

	limits, err := attributeLimits(cfg.Get("attribute_limits"))
	if err != nil {
		return nil, err
	}
	ctx = component.NewContext(ctx, component.Scope{
		Resource: res,
		Limits:   limits,
		Logger:   p.log,
	})

	pl.tracerProvider, err = p.composeTracerProvider(ctx, cfg.Get("tracer_provider"), r, res, limits)
	if err != nil {
		return nil, err
	}

	pl.meterProvider, err = p.composeMeterProvider(ctx, cfg.Get("meter_provider"), r, res)
	if err != nil {
		return nil, errors.Join(err, pl.Shutdown(ctx))
	}

	pl.loggerProvider, err = p.composeLoggerProvider(ctx, cfg.Get("logger_provider"), r, res, limits)
	if err != nil {
		return nil, errors.Join(err, pl.Shutdown(ctx))
	}

	p.log.DebugContext(
		ctx,
		"composed telemetry pipeline",
		slogfield.Strings("propagator_fields", propagator.Fields()),
		slogfield.Int("resource_attributes", res.Len()),
		slogfield.Bool("tracing", pl.tracerProvider != nil),
		slogfield.Bool("metrics", pl.meterProvider != nil),
		slogfield.Bool("logging", pl.loggerProvider != nil),
	)
	return pl, nil
}

func optionalBool(n config.Node) (bool, error) {
	if !n.Exists() || n.IsNull() {
		return false, nil
	}
	b, err := n.AsBool()
	if err != nil {
		return false, InvalidConfigError{Path: n.Path(), Reason: "must be a boolean", Cause: err}
	}
	return b, nil
}

func optionalInt(n config.Node, def int) (int, error) {
	if !n.Exists() || n.IsNull() {
		return def, nil
	}
	i, err := n.AsInt()
	if err != nil {
		return 0, InvalidConfigError{Path: n.Path(), Reason: "must be an integer", Cause: err}
	}
	return int(i), nil
}

func optionalString(n config.Node) (string, error) {
	if !n.Exists() || n.IsNull() {
		return "", nil
	}
	s, err := n.AsString()
	if err != nil {
		return "", InvalidConfigError{Path: n.Path(), Reason: "must be a string", Cause: err}
	}
	return s, nil
}

func optionalStrings(n config.Node) ([]string, error) {
	if !n.Exists() || n.IsNull() {
		return nil, nil
	}
	if n.Kind() != config.KindSequence {
		return nil, InvalidConfigError{Path: n.Path(), Reason: "must be a list of strings"}
	}
	items := n.Items()
	ss := make([]string, 0, len(items))
	for _, item := range items {
		s, err := item.AsString()
		if err != nil {
			return nil, InvalidConfigError{Path: item.Path(), Reason: "must be a string", Cause: err}
		}
		ss = append(ss, s)
	}
	return ss, nil
}

func attributeLimits(n config.Node) (component.AttributeLimits, error) {
	var limits component.AttributeLimits
	var err error

	limits.AttributeValueLengthLimit, err = optionalInt(n.Get("attribute_value_length_limit"), -1)
	if err != nil {
		return limits, err
	}
	limits.AttributeCountLimit, err = optionalInt(n.Get("attribute_count_limit"), 128)
	if err != nil {
		return limits, err
	}
	return limits, nil
}
