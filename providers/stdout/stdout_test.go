// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package stdout

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/z5labs/otelcompose/component"
	"github.com/z5labs/otelcompose/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func resolveSpanExporter(t *testing.T, w *bytes.Buffer, doc string) sdktrace.SpanExporter {
	r, err := component.NewRegistry(Providers(WithWriter(w))...)
	require.NoError(t, err)

	n, err := config.Load(strings.NewReader(doc), config.FormatYAML)
	require.NoError(t, err)

	named, err := component.ResolveOne[sdktrace.SpanExporter](context.Background(), r, component.CategorySpanExporter, n)
	require.NoError(t, err)
	return named.Value
}

func TestSpanExporter(t *testing.T) {
	t.Run("will write spans as json", func(t *testing.T) {
		t.Run("if the console exporter is configured", func(t *testing.T) {
			var buf bytes.Buffer
			e := resolveSpanExporter(t, &buf, `{console: {without_timestamps: true}}`)

			tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(e))
			_, span := tp.Tracer("test").Start(context.Background(), "checkout")
			span.End()

			if !assert.Nil(t, tp.Shutdown(context.Background())) {
				return
			}

			var out struct {
				Name string
			}
			err := json.Unmarshal(buf.Bytes(), &out)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "checkout", out.Name) {
				return
			}
		})

		t.Run("if pretty printing is enabled", func(t *testing.T) {
			var buf bytes.Buffer
			e := resolveSpanExporter(t, &buf, `{console: {pretty_print: true}}`)

			tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(e))
			_, span := tp.Tracer("test").Start(context.Background(), "checkout")
			span.End()

			if !assert.Nil(t, tp.Shutdown(context.Background())) {
				return
			}
			if !assert.Contains(t, buf.String(), "\n\t\"Name\": \"checkout\"") {
				return
			}
		})
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the config can not be decoded", func(t *testing.T) {
			r, err := component.NewRegistry(Providers()...)
			if !assert.Nil(t, err) {
				return
			}

			n, err := config.Load(strings.NewReader(`{console: {pretty_print: [1]}}`), config.FormatYAML)
			if !assert.Nil(t, err) {
				return
			}

			_, err = r.ResolveOne(context.Background(), component.CategorySpanExporter, n)

			var cerr component.CreateError
			if !assert.ErrorAs(t, err, &cerr) {
				return
			}
		})
	})
}
