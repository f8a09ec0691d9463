// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otelcompose_test

import (
	"context"
	"fmt"
	"sort"
	"testing/fstest"

	"github.com/z5labs/otelcompose"
	"github.com/z5labs/otelcompose/config"
)

func Example() {
	fsys := fstest.MapFS{
		"otel.yaml": &fstest.MapFile{Data: []byte(`
file_format: "0.3"
propagator:
  composite: [tracecontext]
resource:
  attributes:
    - name: service.name
      value: ${SERVICE_NAME:-checkout}
tracer_provider:
  processors:
    - simple:
        exporter:
          none:
`)},
	}

	c, err := otelcompose.New(otelcompose.WithLookup(config.MapLookup(nil)))
	if err != nil {
		fmt.Println(err)
		return
	}

	n, err := c.Parse(fsys, "otel.yaml", "")
	if err != nil {
		fmt.Println(err)
		return
	}

	pl, err := c.Create(context.Background(), n)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer pl.Shutdown(context.Background())

	fields := pl.Propagator().Fields()
	sort.Strings(fields)
	fmt.Println(fields)

	name, _ := pl.Resource().Set().Value("service.name")
	fmt.Println(name.AsString())
	// Output: [traceparent tracestate]
	// checkout
}
