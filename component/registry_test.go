// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package component

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/z5labs/otelcompose/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type instance struct {
	name string
	cfg  config.Node
}

func instanceProvider(category Category, name string) Provider {
	return NewProvider(category, name, func(ctx context.Context, cfg config.Node, r *Registry) (*instance, error) {
		return &instance{name: name, cfg: cfg}, nil
	})
}

func loadNode(t *testing.T, doc string) config.Node {
	t.Helper()

	n, err := config.Load(strings.NewReader(doc), config.FormatYAML, config.WithLookup(config.MapLookup(nil)))
	require.NoError(t, err)
	return n
}

func ExampleRegistry_ResolveList() {
	r, _ := NewRegistry(
		NewProvider(CategorySpanProcessor, "simple", func(ctx context.Context, cfg config.Node, r *Registry) (string, error) {
			exporter, err := cfg.Get("exporter").AsString()
			return "simple(" + exporter + ")", err
		}),
	)

	n, _ := config.Load(strings.NewReader(`
processors:
  - simple:
      exporter: console
  - simple:
      exporter: otlp
`), config.FormatYAML)

	processors, err := ResolveList[string](context.Background(), r, CategorySpanProcessor, n.Get("processors"))
	if err != nil {
		fmt.Println(err)
		return
	}
	for _, p := range processors {
		fmt.Println(p.Value)
	}
	// Output:
	// simple(console)
	// simple(otlp)
}

func TestRegistry_Register(t *testing.T) {
	t.Run("will return a DuplicateRegistrationError", func(t *testing.T) {
		t.Run("if the same category and name are registered twice", func(t *testing.T) {
			first := NewProvider(CategoryPropagator, "tracecontext", func(ctx context.Context, cfg config.Node, r *Registry) (string, error) {
				return "first", nil
			})
			second := NewProvider(CategoryPropagator, "tracecontext", func(ctx context.Context, cfg config.Node, r *Registry) (string, error) {
				return "second", nil
			})

			r, err := NewRegistry(first)
			require.NoError(t, err)

			err = r.Register(second)

			var derr DuplicateRegistrationError
			if !assert.ErrorAs(t, err, &derr) {
				return
			}
			if !assert.Equal(t, CategoryPropagator, derr.Category) {
				return
			}
			if !assert.Equal(t, "tracecontext", derr.Name) {
				return
			}

			v, err := r.Resolve(context.Background(), CategoryPropagator, "tracecontext", config.NullNode())
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "first", v) {
				return
			}
		})

		t.Run("if NewRegistry is given duplicates", func(t *testing.T) {
			_, err := NewRegistry(
				instanceProvider(CategorySampler, "always_on"),
				instanceProvider(CategorySampler, "always_on"),
			)

			var derr DuplicateRegistrationError
			if !assert.ErrorAs(t, err, &derr) {
				return
			}
		})
	})

	t.Run("will not return an error", func(t *testing.T) {
		t.Run("if the same name is registered under different categories", func(t *testing.T) {
			_, err := NewRegistry(
				instanceProvider(CategorySpanExporter, "console"),
				instanceProvider(CategoryMetricExporter, "console"),
			)
			if !assert.Nil(t, err) {
				return
			}
		})

		t.Run("if a provider is registered under another identity", func(t *testing.T) {
			r, err := NewRegistry(instanceProvider(CategoryPropagator, "b3"))
			require.NoError(t, err)

			err = r.Register(instanceProvider(CategoryPropagator, "b3"), As(CategoryPropagator, "b3-single"))
			if !assert.Nil(t, err) {
				return
			}
			if !assert.True(t, r.Has(CategoryPropagator, "b3-single")) {
				return
			}
			if !assert.Equal(t, []string{"b3", "b3-single"}, r.Names(CategoryPropagator)) {
				return
			}
		})
	})
}

func TestRegistry_Resolve(t *testing.T) {
	t.Run("will return a ComponentNotFoundError", func(t *testing.T) {
		t.Run("if the component is not registered", func(t *testing.T) {
			r, err := NewRegistry()
			require.NoError(t, err)

			n := loadNode(t, "sampler:\n  sometimes: {}\n")
			_, err = r.ResolveOne(context.Background(), CategorySampler, n.Get("sampler"))

			var nerr ComponentNotFoundError
			if !assert.ErrorAs(t, err, &nerr) {
				return
			}
			if !assert.Equal(t, "sometimes", nerr.Name) {
				return
			}
			if !assert.Equal(t, "sampler.sometimes", nerr.Path.Key()) {
				return
			}
		})
	})

	t.Run("will return a CreateError", func(t *testing.T) {
		t.Run("if the factory fails", func(t *testing.T) {
			factoryErr := errors.New("bad config")
			r, err := NewRegistry(NewProvider(CategorySampler, "broken", func(ctx context.Context, cfg config.Node, r *Registry) (any, error) {
				return nil, factoryErr
			}))
			require.NoError(t, err)

			_, err = r.Resolve(context.Background(), CategorySampler, "broken", config.NullNode())

			var cerr CreateError
			if !assert.ErrorAs(t, err, &cerr) {
				return
			}
			if !assert.ErrorIs(t, err, factoryErr) {
				return
			}
		})
	})

	t.Run("will return a MaxResolveDepthError", func(t *testing.T) {
		t.Run("if components resolve each other in a cycle", func(t *testing.T) {
			r, err := NewRegistry(
				NewProvider(CategoryPropagator, "ping", func(ctx context.Context, cfg config.Node, r *Registry) (any, error) {
					return r.Resolve(ctx, CategoryPropagator, "pong", cfg)
				}),
				NewProvider(CategoryPropagator, "pong", func(ctx context.Context, cfg config.Node, r *Registry) (any, error) {
					return r.Resolve(ctx, CategoryPropagator, "ping", cfg)
				}),
			)
			require.NoError(t, err)

			_, err = r.Resolve(context.Background(), CategoryPropagator, "ping", config.NullNode())

			var derr MaxResolveDepthError
			if !assert.ErrorAs(t, err, &derr) {
				return
			}
			if !assert.Equal(t, DefaultMaxResolveDepth, derr.Depth) {
				return
			}
		})
	})

	t.Run("will pass the registry to the factory", func(t *testing.T) {
		t.Run("if a composite resolves its children", func(t *testing.T) {
			r, err := NewRegistry(
				instanceProvider(CategoryPropagator, "tracecontext"),
				instanceProvider(CategoryPropagator, "baggage"),
				NewProvider(CategoryPropagator, "composite", func(ctx context.Context, cfg config.Node, r *Registry) ([]*instance, error) {
					children, err := ResolveList[*instance](ctx, r, CategoryPropagator, cfg)
					if err != nil {
						return nil, err
					}
					return Values(children), nil
				}),
			)
			require.NoError(t, err)

			n := loadNode(t, "composite:\n  - tracecontext:\n  - baggage:\n")
			v, err := Resolve[[]*instance](context.Background(), r, CategoryPropagator, "composite", n.Get("composite"))
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Len(t, v, 2) {
				return
			}
			if !assert.Equal(t, "tracecontext", v[0].name) {
				return
			}
			if !assert.Equal(t, "baggage", v[1].name) {
				return
			}
		})
	})
}

func TestRegistry_ResolveOne(t *testing.T) {
	r, err := NewRegistry(
		instanceProvider(CategorySampler, "always_on"),
		instanceProvider(CategorySampler, "always_off"),
	)
	require.NoError(t, err)

	t.Run("will return an InvalidComponentConfigError", func(t *testing.T) {
		testCases := []struct {
			Name string
			Doc  string
		}{
			{Name: "if the node has more than one key", Doc: "sampler:\n  always_on: {}\n  always_off: {}\n"},
			{Name: "if the node has no keys", Doc: "sampler: {}\n"},
			{Name: "if the node is a scalar", Doc: "sampler: always_on\n"},
			{Name: "if the node is missing", Doc: "other: 1\n"},
		}

		for _, testCase := range testCases {
			t.Run(testCase.Name, func(t *testing.T) {
				n := loadNode(t, testCase.Doc)

				_, err := r.ResolveOne(context.Background(), CategorySampler, n.Get("sampler"))

				var cerr InvalidComponentConfigError
				if !assert.ErrorAs(t, err, &cerr) {
					return
				}
				if !assert.Equal(t, "sampler", cerr.Path.Key()) {
					return
				}
			})
		}
	})

	t.Run("will resolve the component", func(t *testing.T) {
		t.Run("if the node has exactly one key", func(t *testing.T) {
			n := loadNode(t, "sampler:\n  always_off:\n")

			named, err := ResolveOne[*instance](context.Background(), r, CategorySampler, n.Get("sampler"))
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "always_off", named.Name) {
				return
			}
			if !assert.Equal(t, "sampler.always_off", named.Value.cfg.Path().Key()) {
				return
			}
		})
	})
}

func TestRegistry_ResolveMap(t *testing.T) {
	r, err := NewRegistry(
		instanceProvider(CategoryPropagator, "tracecontext"),
		instanceProvider(CategoryPropagator, "b3multi"),
	)
	require.NoError(t, err)

	t.Run("will resolve components in document order", func(t *testing.T) {
		t.Run("if the map keys are not sorted", func(t *testing.T) {
			n := loadNode(t, "propagators:\n  b3multi: {}\n  tracecontext: {}\n")

			named, err := ResolveMap[*instance](context.Background(), r, CategoryPropagator, n.Get("propagators"))
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Len(t, named, 2) {
				return
			}
			if !assert.Equal(t, "b3multi", named[0].Value.name) {
				return
			}
			if !assert.Equal(t, "tracecontext", named[1].Value.name) {
				return
			}
		})
	})

	t.Run("will resolve nothing", func(t *testing.T) {
		t.Run("if the node is missing", func(t *testing.T) {
			n := loadNode(t, "other: 1\n")

			named, err := r.ResolveMap(context.Background(), CategoryPropagator, n.Get("propagators"))
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Empty(t, named) {
				return
			}
		})
	})

	t.Run("will return an InvalidComponentConfigError", func(t *testing.T) {
		t.Run("if the node is a list", func(t *testing.T) {
			n := loadNode(t, "propagators:\n  - tracecontext: {}\n")

			_, err := r.ResolveMap(context.Background(), CategoryPropagator, n.Get("propagators"))

			var cerr InvalidComponentConfigError
			if !assert.ErrorAs(t, err, &cerr) {
				return
			}
		})
	})

	t.Run("will return an UnexpectedComponentTypeError", func(t *testing.T) {
		t.Run("if the instance is not of the requested type", func(t *testing.T) {
			n := loadNode(t, "propagators:\n  tracecontext: {}\n")

			_, err := ResolveMap[string](context.Background(), r, CategoryPropagator, n.Get("propagators"))

			var terr UnexpectedComponentTypeError
			if !assert.ErrorAs(t, err, &terr) {
				return
			}
			if !assert.Equal(t, "string", terr.Expected) {
				return
			}
			if !assert.Equal(t, "tracecontext", terr.Name) {
				return
			}
		})
	})
}

func TestRegistry_ResolveMapFunc(t *testing.T) {
	r, err := NewRegistry(
		instanceProvider(CategorySpanExporter, "first"),
	)
	require.NoError(t, err)

	t.Run("will hand over every component created before the failure", func(t *testing.T) {
		t.Run("if a later component is not registered", func(t *testing.T) {
			n := loadNode(t, "exporter:\n  first: {}\n  missing: {}\n")

			var received []string
			err := r.ResolveMapFunc(context.Background(), CategorySpanExporter, n.Get("exporter"), func(named Named[any]) error {
				received = append(received, named.Name)
				return nil
			})

			var nerr ComponentNotFoundError
			if !assert.ErrorAs(t, err, &nerr) {
				return
			}
			if !assert.Equal(t, "missing", nerr.Name) {
				return
			}
			if !assert.Equal(t, []string{"first"}, received) {
				return
			}
		})
	})

	t.Run("will stop resolving", func(t *testing.T) {
		t.Run("if f returns an error", func(t *testing.T) {
			n := loadNode(t, "exporter:\n  first: {}\n  missing: {}\n")
			stopErr := errors.New("stop")

			err := r.ResolveMapFunc(context.Background(), CategorySpanExporter, n.Get("exporter"), func(Named[any]) error {
				return stopErr
			})
			if !assert.Equal(t, stopErr, err) {
				return
			}
		})
	})
}

func TestRegistry_ResolveList(t *testing.T) {
	r, err := NewRegistry(
		instanceProvider(CategorySpanProcessor, "simple"),
		instanceProvider(CategorySpanProcessor, "batch"),
	)
	require.NoError(t, err)

	t.Run("will resolve repeated names as distinct instances", func(t *testing.T) {
		t.Run("if two list items share a name", func(t *testing.T) {
			n := loadNode(t, `
processors:
  - simple:
      exporter:
        console: {}
  - simple:
      exporter:
        otlp_http: {}
`)

			named, err := ResolveList[*instance](context.Background(), r, CategorySpanProcessor, n.Get("processors"))
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Len(t, named, 2) {
				return
			}
			if !assert.NotSame(t, named[0].Value, named[1].Value) {
				return
			}
			if !assert.Equal(t, []string{"console"}, named[0].Value.cfg.Get("exporter").Keys()) {
				return
			}
			if !assert.Equal(t, []string{"otlp_http"}, named[1].Value.cfg.Get("exporter").Keys()) {
				return
			}
		})
	})

	t.Run("will preserve list order and key order", func(t *testing.T) {
		t.Run("if an item has more than one key", func(t *testing.T) {
			n := loadNode(t, `
processors:
  - batch: {}
    simple: {}
  - batch: {}
`)

			named, err := r.ResolveList(context.Background(), CategorySpanProcessor, n.Get("processors"))
			if !assert.Nil(t, err) {
				return
			}

			var names []string
			for _, v := range named {
				names = append(names, v.Name)
			}
			if !assert.Equal(t, []string{"batch", "simple", "batch"}, names) {
				return
			}
		})
	})

	t.Run("will resolve bare names", func(t *testing.T) {
		t.Run("if a list item is a string", func(t *testing.T) {
			n := loadNode(t, "processors: [simple, batch]\n")

			named, err := r.ResolveList(context.Background(), CategorySpanProcessor, n.Get("processors"))
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Len(t, named, 2) {
				return
			}
		})
	})

	t.Run("will return an InvalidComponentConfigError", func(t *testing.T) {
		t.Run("if the node is a map", func(t *testing.T) {
			n := loadNode(t, "processors:\n  simple: {}\n")

			_, err := r.ResolveList(context.Background(), CategorySpanProcessor, n.Get("processors"))

			var cerr InvalidComponentConfigError
			if !assert.ErrorAs(t, err, &cerr) {
				return
			}
		})

		t.Run("if a list item is a list", func(t *testing.T) {
			n := loadNode(t, "processors:\n  - [simple]\n")

			_, err := r.ResolveList(context.Background(), CategorySpanProcessor, n.Get("processors"))

			var cerr InvalidComponentConfigError
			if !assert.ErrorAs(t, err, &cerr) {
				return
			}
			if !assert.Equal(t, "processors[0]", cerr.Path.Key()) {
				return
			}
		})
	})

	t.Run("will return a ComponentNotFoundError", func(t *testing.T) {
		t.Run("if any list item is not registered", func(t *testing.T) {
			n := loadNode(t, "processors:\n  - simple: {}\n  - fancy: {}\n")

			_, err := r.ResolveList(context.Background(), CategorySpanProcessor, n.Get("processors"))

			var nerr ComponentNotFoundError
			if !assert.ErrorAs(t, err, &nerr) {
				return
			}
			if !assert.Equal(t, "processors[1].fancy", nerr.Path.Key()) {
				return
			}
		})
	})
}
