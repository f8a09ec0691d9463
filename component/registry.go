// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package component

import (
	"context"
	"reflect"
	"sort"
	"sync"

	"github.com/z5labs/otelcompose/config"
	"github.com/z5labs/otelcompose/internal/slogfield"
)

// DefaultMaxResolveDepth is how deep components may resolve
// other components before resolution is aborted.
const DefaultMaxResolveDepth = 32

// Registry maps a (category, name) pair to the [Provider] which creates it.
//
// A Registry is safe for concurrent use, but it is expected to be fully
// populated before any component is resolved from it.
type Registry struct {
	mu        sync.RWMutex
	providers map[Category]map[string]Provider
}

// NewRegistry returns a Registry with the given providers registered
// under their own identities.
func NewRegistry(providers ...Provider) (*Registry, error) {
	r := &Registry{
		providers: make(map[Category]map[string]Provider),
	}
	for _, p := range providers {
		err := r.Register(p)
		if err != nil {
			return nil, err
		}
	}
	return r, nil
}

type registerOptions struct {
	category Category
	name     string
}

// RegisterOption customizes how a [Provider] is registered.
type RegisterOption func(*registerOptions)

// As registers a [Provider] under the given identity instead of its own.
func As(category Category, name string) RegisterOption {
	return func(ro *registerOptions) {
		ro.category = category
		ro.name = name
	}
}

// Register adds p to the Registry. Registering a second provider for the
// same (category, name) fails and the first provider is kept.
func (r *Registry) Register(p Provider, opts ...RegisterOption) error {
	ro := &registerOptions{
		category: p.Category(),
		name:     p.Name(),
	}
	for _, opt := range opts {
		opt(ro)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	names, ok := r.providers[ro.category]
	if !ok {
		names = make(map[string]Provider)
		r.providers[ro.category] = names
	}
	if _, exists := names[ro.name]; exists {
		return DuplicateRegistrationError{
			Category: ro.category,
			Name:     ro.name,
		}
	}
	names[ro.name] = p
	return nil
}

// Has reports whether a provider is registered for the given identity.
func (r *Registry) Has(category Category, name string) bool {
	_, ok := r.provider(category, name)
	return ok
}

// Names returns the sorted names registered under category.
func (r *Registry) Names(category Category) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers[category]))
	for name := range r.providers[category] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) provider(category Category, name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[category][name]
	return p, ok
}

type depthKey struct{}

func resolveDepth(ctx context.Context) int {
	depth, _ := ctx.Value(depthKey{}).(int)
	return depth
}

// Resolve creates the component registered as (category, name) with cfg.
func (r *Registry) Resolve(ctx context.Context, category Category, name string, cfg config.Node) (any, error) {
	p, ok := r.provider(category, name)
	if !ok {
		return nil, ComponentNotFoundError{
			Category: category,
			Name:     name,
			Path:     cfg.Path(),
		}
	}

	depth := resolveDepth(ctx)
	if depth >= DefaultMaxResolveDepth {
		return nil, MaxResolveDepthError{
			Category: category,
			Name:     name,
			Depth:    DefaultMaxResolveDepth,
		}
	}
	ctx = context.WithValue(ctx, depthKey{}, depth+1)

	log := FromContext(ctx).Logger
	log.DebugContext(
		ctx,
		"creating component",
		slogfield.Component(string(category), name),
		slogfield.Path(cfg.Path().Key()),
	)

	v, err := p.Create(ctx, cfg, r)
	if err != nil {
		return nil, CreateError{
			Category: category,
			Name:     name,
			Path:     cfg.Path(),
			Cause:    err,
		}
	}
	return v, nil
}

// Named is a resolved component instance along with the name it was resolved by.
type Named[T any] struct {
	Name  string
	Value T
}

// ResolveOne creates the single component described by node, which must be
// a map with exactly one key, e.g. {always_on: {}}.
func (r *Registry) ResolveOne(ctx context.Context, category Category, node config.Node) (Named[any], error) {
	if node.Kind() != config.KindMap || node.Len() != 1 {
		return Named[any]{}, InvalidComponentConfigError{
			Category: category,
			Path:     node.Path(),
			Reason:   "must be a map with exactly one key",
		}
	}

	e := node.Entries()[0]
	v, err := r.Resolve(ctx, category, e.Key, e.Value)
	if err != nil {
		return Named[any]{}, err
	}
	return Named[any]{Name: e.Key, Value: v}, nil
}

// ResolveMap creates one component per key of node, in document order.
// A missing or null node resolves no components.
func (r *Registry) ResolveMap(ctx context.Context, category Category, node config.Node) ([]Named[any], error) {
	if k := node.Kind(); k == config.KindInvalid || k == config.KindNull {
		return nil, nil
	}

	vs := make([]Named[any], 0, node.Len())
	err := r.ResolveMapFunc(ctx, category, node, func(n Named[any]) error {
		vs = append(vs, n)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vs, nil
}

// ResolveMapFunc is like [Registry.ResolveMap] but hands every component
// to f as soon as it is created. Resolution stops at the first error from
// either the registry or f, so callers can release what f already received.
func (r *Registry) ResolveMapFunc(ctx context.Context, category Category, node config.Node, f func(Named[any]) error) error {
	switch node.Kind() {
	case config.KindInvalid, config.KindNull:
		return nil
	case config.KindMap:
	default:
		return InvalidComponentConfigError{
			Category: category,
			Path:     node.Path(),
			Reason:   "must be a map of component names",
		}
	}

	for _, e := range node.Entries() {
		v, err := r.Resolve(ctx, category, e.Key, e.Value)
		if err != nil {
			return err
		}
		err = f(Named[any]{Name: e.Key, Value: v})
		if err != nil {
			return err
		}
	}
	return nil
}

// ResolveList creates the components of an ordered list of single key maps,
// e.g. [{simple: {...}}, {simple: {...}}]. Unlike [Registry.ResolveMap],
// the same name may appear more than once. A bare string item is treated
// as a component name without configuration. A missing or null node
// resolves no components.
func (r *Registry) ResolveList(ctx context.Context, category Category, node config.Node) ([]Named[any], error) {
	var vs []Named[any]
	err := r.ResolveListFunc(ctx, category, node, func(n Named[any]) error {
		vs = append(vs, n)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vs, nil
}

// ResolveListFunc is like [Registry.ResolveList] but hands every component
// to f as soon as it is created. Resolution stops at the first error from
// either the registry or f, so callers can release what f already received.
func (r *Registry) ResolveListFunc(ctx context.Context, category Category, node config.Node, f func(Named[any]) error) error {
	switch node.Kind() {
	case config.KindInvalid, config.KindNull:
		return nil
	case config.KindSequence:
	default:
		return InvalidComponentConfigError{
			Category: category,
			Path:     node.Path(),
			Reason:   "must be a list of components",
		}
	}

	for _, item := range node.Items() {
		switch item.Kind() {
		case config.KindMap:
			for _, e := range item.Entries() {
				v, err := r.Resolve(ctx, category, e.Key, e.Value)
				if err != nil {
					return err
				}
				err = f(Named[any]{Name: e.Key, Value: v})
				if err != nil {
					return err
				}
			}
		case config.KindScalar:
			name, err := item.AsString()
			if err != nil {
				return InvalidComponentConfigError{
					Category: category,
					Path:     item.Path(),
					Reason:   "component name must be a string",
				}
			}
			v, err := r.Resolve(ctx, category, name, config.NullNode())
			if err != nil {
				return err
			}
			err = f(Named[any]{Name: name, Value: v})
			if err != nil {
				return err
			}
		case config.KindNull:
		default:
			return InvalidComponentConfigError{
				Category: category,
				Path:     item.Path(),
				Reason:   "list items must be single key maps",
			}
		}
	}
	return nil
}

// Resolve is the typed form of [Registry.Resolve].
func Resolve[T any](ctx context.Context, r *Registry, category Category, name string, cfg config.Node) (T, error) {
	v, err := r.Resolve(ctx, category, name, cfg)
	if err != nil {
		var zero T
		return zero, err
	}
	return as[T](category, name, v)
}

// ResolveOne is the typed form of [Registry.ResolveOne].
func ResolveOne[T any](ctx context.Context, r *Registry, category Category, node config.Node) (Named[T], error) {
	named, err := r.ResolveOne(ctx, category, node)
	if err != nil {
		return Named[T]{}, err
	}
	v, err := as[T](category, named.Name, named.Value)
	if err != nil {
		return Named[T]{}, err
	}
	return Named[T]{Name: named.Name, Value: v}, nil
}

// ResolveMap is the typed form of [Registry.ResolveMap].
func ResolveMap[T any](ctx context.Context, r *Registry, category Category, node config.Node) ([]Named[T], error) {
	named, err := r.ResolveMap(ctx, category, node)
	if err != nil {
		return nil, err
	}
	return asAll[T](category, named)
}

// ResolveList is the typed form of [Registry.ResolveList].
func ResolveList[T any](ctx context.Context, r *Registry, category Category, node config.Node) ([]Named[T], error) {
	named, err := r.ResolveList(ctx, category, node)
	if err != nil {
		return nil, err
	}
	return asAll[T](category, named)
}

// ResolveListFunc is the typed form of [Registry.ResolveListFunc]. If a
// component is not a T, f is not called with it and an
// [UnexpectedComponentTypeError] is returned.
func ResolveListFunc[T any](ctx context.Context, r *Registry, category Category, node config.Node, f func(Named[T]) error) error {
	return r.ResolveListFunc(ctx, category, node, func(n Named[any]) error {
		v, err := as[T](category, n.Name, n.Value)
		if err != nil {
			return err
		}
		return f(Named[T]{Name: n.Name, Value: v})
	})
}

// Values drops the names of resolved components.
func Values[T any](named []Named[T]) []T {
	vs := make([]T, len(named))
	for i, n := range named {
		vs[i] = n.Value
	}
	return vs
}

func as[T any](category Category, name string, v any) (T, error) {
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, UnexpectedComponentTypeError{
			Category: category,
			Name:     name,
			Expected: reflect.TypeFor[T]().String(),
			Actual:   v,
		}
	}
	return t, nil
}

func asAll[T any](category Category, named []Named[any]) ([]Named[T], error) {
	vs := make([]Named[T], 0, len(named))
	for _, n := range named {
		v, err := as[T](category, n.Name, n.Value)
		if err != nil {
			return nil, err
		}
		vs = append(vs, Named[T]{Name: n.Name, Value: v})
	}
	return vs, nil
}
