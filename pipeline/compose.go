// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package pipeline

import (
	"context"
	"errors"
	"strings"

	"github.com/z5labs/otelcompose/component"
	"github.com/z5labs/otelcompose/config"
	"github.com/z5labs/otelcompose/internal/slogfield"
	"github.com/z5labs/otelcompose/internal/try"
	"github.com/z5labs/otelcompose/resource"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func (p *Provider) composePropagator(ctx context.Context, n config.Node, r *component.Registry) (propagation.TextMapPropagator, error) {
	named, err := component.ResolveList[propagation.TextMapPropagator](ctx, r, component.CategoryPropagator, n.Get("composite"))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(named))
	for _, np := range named {
		seen[np.Name] = struct{}{}
	}

	names, err := compositeList(n.Get("composite_list"))
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		prop, err := component.Resolve[propagation.TextMapPropagator](ctx, r, component.CategoryPropagator, name, config.NullNode())
		if err != nil {
			return nil, err
		}
		named = append(named, component.Named[propagation.TextMapPropagator]{Name: name, Value: prop})
	}

	var prop propagation.TextMapPropagator = propagation.NewCompositeTextMapPropagator(component.Values(named)...)
	if p.propagatorHook != nil {
		prop = p.propagatorHook(prop)
	}
	return prop, nil
}

// compositeList accepts either a comma separated string of names
// or a sequence of names.
func compositeList(n config.Node) ([]string, error) {
	if n.Kind() != config.KindScalar {
		return optionalStrings(n)
	}

	s, err := optionalString(n)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

func (p *Provider) composeResource(ctx context.Context, n config.Node, r *component.Registry) (*sdkresource.Resource, error) {
	attrs := resource.NewAttributes()

	detection := n.Get("detection/development")
	err := p.detect(ctx, detection.Get("detectors"), r, attrs)
	if err != nil {
		return nil, err
	}

	included, err := optionalStrings(detection.Get("attributes", "included"))
	if err != nil {
		return nil, err
	}
	excluded, err := optionalStrings(detection.Get("attributes", "excluded"))
	if err != nil {
		return nil, err
	}
	err = attrs.Filter(included, excluded)
	if err != nil {
		return nil, InvalidConfigError{Path: detection.Get("attributes").Path(), Reason: "malformed attribute pattern", Cause: err}
	}

	list, err := optionalString(n.Get("attributes_list"))
	if err != nil {
		return nil, err
	}
	kvs, err := resource.ParseList(list)
	if err != nil {
		return nil, err
	}
	attrs.Set(kvs...)

	err = applyAttributes(n.Get("attributes"), attrs)
	if err != nil {
		return nil, err
	}

	schemaURL, err := optionalString(n.Get("schema_url"))
	if err != nil {
		return nil, err
	}

	res := attrs.Resource(schemaURL)
	if p.resourceHook != nil {
		res = p.resourceHook(res)
	}
	return res, nil
}

// detect runs every detector one after another, in the order they are
// listed, and merges what each finds into attrs. A detector which fails
// or panics contributes nothing.
func (p *Provider) detect(ctx context.Context, n config.Node, r *component.Registry, attrs *resource.Attributes) error {
	return component.ResolveListFunc(ctx, r, component.CategoryResourceDetector, n, func(d component.Named[sdkresource.Detector]) error {
		var res *sdkresource.Resource
		err := try.Do(func() error {
			var err error
			res, err = d.Value.Detect(ctx)
			return err
		})
		if err != nil {
			p.log.DebugContext(
				ctx,
				"resource detector failed",
				slogfield.Component(string(component.CategoryResourceDetector), d.Name),
				slogfield.Error(err),
			)
			return nil
		}

		attrs.Merge(res)
		return nil
	})
}

func applyAttributes(n config.Node, attrs *resource.Attributes) error {
	switch n.Kind() {
	case config.KindInvalid, config.KindNull:
		return nil
	case config.KindSequence:
	default:
		return InvalidConfigError{Path: n.Path(), Reason: "must be a list of attributes"}
	}

	for _, item := range n.Items() {
		if item.Kind() != config.KindMap {
			return InvalidConfigError{Path: item.Path(), Reason: "attribute must be a map with a name and a value"}
		}

		name, err := optionalString(item.Get("name"))
		if err != nil {
			return err
		}
		if name == "" {
			return InvalidConfigError{Path: item.Path(), Reason: "attribute name is required"}
		}

		value := item.Get("value")
		if !value.Exists() || value.IsNull() {
			attrs.Delete(attribute.Key(name))
			continue
		}

		typ, err := optionalString(item.Get("type"))
		if err != nil {
			return err
		}
		v, err := resource.ValueOf(value, resource.Type(typ))
		if err != nil {
			return InvalidConfigError{Path: value.Path(), Reason: "invalid attribute value", Cause: err}
		}
		attrs.Set(attribute.KeyValue{Key: attribute.Key(name), Value: v})
	}
	return nil
}

func (p *Provider) composeTracerProvider(ctx context.Context, n config.Node, r *component.Registry, res *sdkresource.Resource, limits component.AttributeLimits) (*sdktrace.TracerProvider, error) {
	if !n.Exists() {
		return nil, nil
	}

	sampler := sdktrace.ParentBased(sdktrace.AlwaysSample())
	if sn := n.Get("sampler"); sn.Exists() && !sn.IsNull() {
		named, err := component.ResolveOne[sdktrace.Sampler](ctx, r, component.CategorySampler, sn)
		if err != nil {
			return nil, err
		}
		sampler = named.Value
	}

	spanLimits, err := spanLimits(n.Get("limits"), limits)
	if err != nil {
		return nil, err
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
		sdktrace.WithRawSpanLimits(spanLimits),
	}

	var processors []sdktrace.SpanProcessor
	err = component.ResolveListFunc(ctx, r, component.CategorySpanProcessor, n.Get("processors"), func(sp component.Named[sdktrace.SpanProcessor]) error {
		processors = append(processors, sp.Value)
		return nil
	})
	if err != nil {
		return nil, errors.Join(err, shutdownAll(ctx, processors))
	}
	for _, sp := range processors {
		opts = append(opts, sdktrace.WithSpanProcessor(sp))
	}

	return sdktrace.NewTracerProvider(opts...), nil
}

func spanLimits(n config.Node, limits component.AttributeLimits) (sdktrace.SpanLimits, error) {
	var sl sdktrace.SpanLimits
	var err error

	fields := []struct {
		name string
		def  int
		dst  *int
	}{
		{"attribute_value_length_limit", limits.AttributeValueLengthLimit, &sl.AttributeValueLengthLimit},
		{"attribute_count_limit", limits.AttributeCountLimit, &sl.AttributeCountLimit},
		{"event_count_limit", sdktrace.DefaultEventCountLimit, &sl.EventCountLimit},
		{"link_count_limit", sdktrace.DefaultLinkCountLimit, &sl.LinkCountLimit},
		{"event_attribute_count_limit", sdktrace.DefaultAttributePerEventCountLimit, &sl.AttributePerEventCountLimit},
		{"link_attribute_count_limit", sdktrace.DefaultAttributePerLinkCountLimit, &sl.AttributePerLinkCountLimit},
	}
	for _, f := range fields {
		*f.dst, err = optionalInt(n.Get(f.name), f.def)
		if err != nil {
			return sl, err
		}
	}
	return sl, nil
}

func (p *Provider) composeMeterProvider(ctx context.Context, n config.Node, r *component.Registry, res *sdkresource.Resource) (*sdkmetric.MeterProvider, error) {
	if !n.Exists() {
		return nil, nil
	}

	var readers []sdkmetric.Reader
	err := component.ResolveListFunc(ctx, r, component.CategoryMetricReader, n.Get("readers"), func(mr component.Named[sdkmetric.Reader]) error {
		readers = append(readers, mr.Value)
		return nil
	})
	if err != nil {
		return nil, errors.Join(err, shutdownAll(ctx, readers))
	}

	opts := []sdkmetric.Option{
		sdkmetric.WithResource(res),
	}
	for _, mr := range readers {
		opts = append(opts, sdkmetric.WithReader(mr))
	}
	return sdkmetric.NewMeterProvider(opts...), nil
}

func (p *Provider) composeLoggerProvider(ctx context.Context, n config.Node, r *component.Registry, res *sdkresource.Resource, limits component.AttributeLimits) (*sdklog.LoggerProvider, error) {
	if !n.Exists() {
		return nil, nil
	}

	valueLength, err := optionalInt(n.Get("limits", "attribute_value_length_limit"), limits.AttributeValueLengthLimit)
	if err != nil {
		return nil, err
	}
	count, err := optionalInt(n.Get("limits", "attribute_count_limit"), limits.AttributeCountLimit)
	if err != nil {
		return nil, err
	}

	var processors []sdklog.Processor
	err = component.ResolveListFunc(ctx, r, component.CategoryLogRecordProcessor, n.Get("processors"), func(lp component.Named[sdklog.Processor]) error {
		processors = append(processors, lp.Value)
		return nil
	})
	if err != nil {
		return nil, errors.Join(err, shutdownAll(ctx, processors))
	}

	opts := []sdklog.LoggerProviderOption{
		sdklog.WithResource(res),
		sdklog.WithAttributeValueLengthLimit(valueLength),
		sdklog.WithAttributeCountLimit(count),
	}
	for _, lp := range processors {
		opts = append(opts, sdklog.WithProcessor(lp))
	}
	return sdklog.NewLoggerProvider(opts...), nil
}

func shutdownAll[T shutdownInterface](ctx context.Context, vs []T) error {
	errs := make([]error, 0, len(vs))
	for _, v := range vs {
		errs = append(errs, v.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
