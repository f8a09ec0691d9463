// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package component provides the registry which maps a (category, name)
// pair to a factory and resolves component instances from configuration.
package component

import (
	"context"

	"github.com/z5labs/otelcompose/config"
)

// Category identifies a family of pluggable behavior. The set is open,
// providers outside of this module may introduce their own categories.
type Category string

const (
	CategorySDK                Category = "sdk"
	CategoryPropagator         Category = "propagator"
	CategoryResourceDetector   Category = "resource_detector"
	CategorySampler            Category = "sampler"
	CategorySpanProcessor      Category = "span_processor"
	CategorySpanExporter       Category = "span_exporter"
	CategoryMetricReader       Category = "metric_reader"
	CategoryMetricExporter     Category = "metric_exporter"
	CategoryPullMetricExporter Category = "pull_metric_exporter"
	CategoryLogRecordProcessor Category = "log_record_processor"
	CategoryLogRecordExporter  Category = "log_record_exporter"
)

// Provider creates instances of a single component.
//
// The [Registry] is passed to every Create call so that composite
// components can resolve their children through it.
type Provider interface {
	Category() Category
	Name() string
	Create(ctx context.Context, cfg config.Node, r *Registry) (any, error)
}

// CreateFunc is the factory signature accepted by [NewProvider].
type CreateFunc[T any] func(ctx context.Context, cfg config.Node, r *Registry) (T, error)

type funcProvider[T any] struct {
	category Category
	name     string
	create   CreateFunc[T]
}

// NewProvider returns a [Provider] identified by category and name
// which creates its instances with f.
func NewProvider[T any](category Category, name string, f CreateFunc[T]) Provider {
	return funcProvider[T]{
		category: category,
		name:     name,
		create:   f,
	}
}

// Category implements the [Provider] interface.
func (p funcProvider[T]) Category() Category {
	return p.category
}

// Name implements the [Provider] interface.
func (p funcProvider[T]) Name() string {
	return p.name
}

// Create implements the [Provider] interface.
func (p funcProvider[T]) Create(ctx context.Context, cfg config.Node, r *Registry) (any, error) {
	return p.create(ctx, cfg, r)
}
