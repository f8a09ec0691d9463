// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package component

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/sdk/resource"
)

// AttributeLimits bound the attributes recorded on telemetry.
// A negative value means unlimited.
type AttributeLimits struct {
	AttributeValueLengthLimit int
	AttributeCountLimit       int
}

// Scope is the composition state visible to every factory, e.g. the
// merged resource which pull exporters need to describe their target.
type Scope struct {
	Resource *resource.Resource
	Limits   AttributeLimits
	Logger   *slog.Logger
}

type scopeKey struct{}

// NewContext returns a new [context.Context] containing the [Scope].
func NewContext(parent context.Context, s Scope) context.Context {
	return context.WithValue(parent, scopeKey{}, s)
}

// FromContext returns the [Scope] stored in ctx. Missing fields are
// filled with an empty resource, no limits and a discarding logger.
func FromContext(ctx context.Context) Scope {
	s, _ := ctx.Value(scopeKey{}).(Scope)
	if s.Resource == nil {
		s.Resource = resource.Empty()
	}
	if s.Logger == nil {
		s.Logger = slog.New(slog.DiscardHandler)
	}
	if s.Limits == (AttributeLimits{}) {
		s.Limits = AttributeLimits{
			AttributeValueLengthLimit: -1,
			AttributeCountLimit:       -1,
		}
	}
	return s
}
