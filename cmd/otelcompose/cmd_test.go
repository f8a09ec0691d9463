// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const checkoutDoc = `
file_format: "0.3"
log_level: warn
propagator:
  composite: [tracecontext, baggage]
resource:
  attributes:
    - name: service.name
      value: ${SERVICE_NAME:-checkout}
tracer_provider:
  processors:
    - simple:
        exporter:
          none:
`

func writeConfig(t *testing.T, name, doc string) string {
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(doc), 0o600))
	return p
}

func TestValidate(t *testing.T) {
	t.Run("will succeed", func(t *testing.T) {
		t.Run("if the config flag names a valid document", func(t *testing.T) {
			p := writeConfig(t, "otel.yaml", checkoutDoc)

			var stdout, stderr bytes.Buffer
			code := run(context.Background(), []string{"validate", "--config", p}, &stdout, &stderr)
			if !assert.Equal(t, 0, code, stderr.String()) {
				return
			}
			if !assert.Equal(t, "configuration is valid\n", stdout.String()) {
				return
			}
		})

		t.Run("if the document is named by the environment", func(t *testing.T) {
			t.Setenv(configEnv, writeConfig(t, "otel.yml", checkoutDoc))

			var stdout, stderr bytes.Buffer
			code := run(context.Background(), []string{"validate"}, &stdout, &stderr)
			if !assert.Equal(t, 0, code, stderr.String()) {
				return
			}
		})
	})

	t.Run("will fail", func(t *testing.T) {
		t.Run("if no document is given", func(t *testing.T) {
			t.Setenv(configEnv, "")

			var stdout, stderr bytes.Buffer
			code := run(context.Background(), []string{"validate"}, &stdout, &stderr)
			if !assert.Equal(t, 1, code) {
				return
			}
			if !assert.Contains(t, stderr.String(), errMissingConfig.Error()) {
				return
			}
		})

		t.Run("if the document does not exist", func(t *testing.T) {
			p := filepath.Join(t.TempDir(), "missing.yaml")

			var stdout, stderr bytes.Buffer
			code := run(context.Background(), []string{"validate", "--config", p}, &stdout, &stderr)
			if !assert.Equal(t, 1, code) {
				return
			}
			if !assert.Contains(t, stderr.String(), "config file not found") {
				return
			}
		})

		t.Run("if a component is not registered", func(t *testing.T) {
			p := writeConfig(t, "otel.yaml", `{propagator: {composite: [xray]}}`)

			var stdout, stderr bytes.Buffer
			code := run(context.Background(), []string{"validate", "--config", p}, &stdout, &stderr)
			if !assert.Equal(t, 1, code) {
				return
			}
			if !assert.Contains(t, stderr.String(), "xray") {
				return
			}
			if !assert.Empty(t, stdout.String()) {
				return
			}
		})

		t.Run("if the log level is unknown", func(t *testing.T) {
			p := writeConfig(t, "otel.yaml", checkoutDoc)

			var stdout, stderr bytes.Buffer
			code := run(context.Background(), []string{"validate", "--config", p, "--log-level", "loud"}, &stdout, &stderr)
			if !assert.Equal(t, 1, code) {
				return
			}
			if !assert.Contains(t, stderr.String(), "unknown log level: loud") {
				return
			}
		})

		t.Run("if the document log level is not a string", func(t *testing.T) {
			p := writeConfig(t, "otel.yaml", "log_level: 3\n")

			var stdout, stderr bytes.Buffer
			code := run(context.Background(), []string{"validate", "--config", p}, &stdout, &stderr)
			if !assert.Equal(t, 1, code) {
				return
			}
			if !assert.Contains(t, stderr.String(), "unknown log level: 3") {
				return
			}
		})
	})
}

func TestNewRootCmd(t *testing.T) {
	t.Run("will bind the persistent flags", func(t *testing.T) {
		t.Run("if the command is built", func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			cmd, err := newRootCmd(&stdout, &stderr)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.NotNil(t, cmd.PersistentFlags().Lookup("config")) {
				return
			}
			if !assert.NotNil(t, cmd.PersistentFlags().Lookup("log-level")) {
				return
			}
		})
	})
}

func TestInspect(t *testing.T) {
	t.Run("will print the composed pipeline", func(t *testing.T) {
		t.Run("if the document is valid", func(t *testing.T) {
			t.Setenv("SERVICE_NAME", "payments")
			p := writeConfig(t, "otel.yaml", checkoutDoc)

			var stdout, stderr bytes.Buffer
			code := run(context.Background(), []string{"inspect", "--config", p, "--log-level", "none"}, &stdout, &stderr)
			if !assert.Equal(t, 0, code, stderr.String()) {
				return
			}

			out := stdout.String()
			if !assert.Contains(t, out, "propagator fields: baggage,traceparent,tracestate\n") {
				return
			}
			if !assert.Contains(t, out, "  service.name=payments\n") {
				return
			}
			if !assert.Contains(t, out, "tracer provider: enabled\n") {
				return
			}
			if !assert.Contains(t, out, "meter provider: disabled\n") {
				return
			}
			if !assert.Empty(t, stderr.String()) {
				return
			}
		})
	})
}

func TestNewLogger(t *testing.T) {
	t.Run("will only write entries at or above the level", func(t *testing.T) {
		t.Run("if the level is warn", func(t *testing.T) {
			var buf bytes.Buffer
			log, err := newLogger(&buf, "WARN")
			if !assert.Nil(t, err) {
				return
			}

			log.Info("hidden")
			log.Warn("shown")

			if !assert.NotContains(t, buf.String(), "hidden") {
				return
			}
			if !assert.Contains(t, buf.String(), "shown") {
				return
			}
		})
	})
}
