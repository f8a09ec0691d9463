// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package prometheus

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"

	"github.com/z5labs/otelcompose/component"
	"github.com/z5labs/otelcompose/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
)

func resolve(t *testing.T, doc string, opts ...Option) (sdkmetric.Reader, error) {
	r, err := component.NewRegistry(Exporter(opts...))
	require.NoError(t, err)

	n, err := config.Load(strings.NewReader(doc), config.FormatYAML)
	require.NoError(t, err)

	named, err := component.ResolveOne[sdkmetric.Reader](context.Background(), r, component.CategoryPullMetricExporter, n)
	return named.Value, err
}

func count(t *testing.T, reader sdkmetric.Reader, res *sdkresource.Resource) *sdkmetric.MeterProvider {
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader), sdkmetric.WithResource(res))
	counter, err := mp.Meter("test").Int64Counter("requests")
	require.NoError(t, err)

	counter.Add(context.Background(), 3)
	return mp
}

func metricNames(t *testing.T, reg *prometheus.Registry) []string {
	mfs, err := reg.Gather()
	require.NoError(t, err)

	var names []string
	for _, mf := range mfs {
		names = append(names, mf.GetName())
	}
	return names
}

func freePort(t *testing.T) int {
	ls, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ls.Close()

	return ls.Addr().(*net.TCPAddr).Port
}

func TestExporter(t *testing.T) {
	t.Run("will collect metrics into the registry", func(t *testing.T) {
		t.Run("if a registry is supplied", func(t *testing.T) {
			reg := prometheus.NewRegistry()
			reader, err := resolve(t, `{prometheus: {namespace: shop}}`, WithRegistry(reg))
			if !assert.Nil(t, err) {
				return
			}

			mp := count(t, reader, sdkresource.Empty())
			defer mp.Shutdown(context.Background())

			if !assert.Contains(t, metricNames(t, reg), "shop_requests_total") {
				return
			}
		})

		t.Run("if target info is disabled", func(t *testing.T) {
			reg := prometheus.NewRegistry()
			reader, err := resolve(t, `{prometheus: {without_target_info: true}}`, WithRegistry(reg))
			if !assert.Nil(t, err) {
				return
			}

			mp := count(t, reader, sdkresource.Empty())
			defer mp.Shutdown(context.Background())

			names := metricNames(t, reg)
			if !assert.NotContains(t, names, "target_info") {
				return
			}
			if !assert.Contains(t, names, "requests_total") {
				return
			}
		})

		t.Run("if resource attributes are added as constant labels", func(t *testing.T) {
			reg := prometheus.NewRegistry()
			reader, err := resolve(
				t,
				`{prometheus: {with_resource_constant_labels: {included: ["service.*"], excluded: [service.version]}}}`,
				WithRegistry(reg),
			)
			if !assert.Nil(t, err) {
				return
			}

			res := sdkresource.NewSchemaless(
				attribute.String("service.name", "checkout"),
				attribute.String("service.version", "1.0.0"),
				attribute.String("host.name", "box"),
			)
			mp := count(t, reader, res)
			defer mp.Shutdown(context.Background())

			mfs, err := reg.Gather()
			if !assert.Nil(t, err) {
				return
			}

			labels := map[string]string{}
			for _, mf := range mfs {
				if mf.GetName() != "requests_total" {
					continue
				}
				for _, lp := range mf.GetMetric()[0].GetLabel() {
					labels[lp.GetName()] = lp.GetValue()
				}
			}
			if !assert.Equal(t, "checkout", labels["service_name"]) {
				return
			}
			if !assert.NotContains(t, labels, "service_version") {
				return
			}
			if !assert.NotContains(t, labels, "host_name") {
				return
			}
		})
	})

	t.Run("will serve metrics over http", func(t *testing.T) {
		t.Run("if a port is configured", func(t *testing.T) {
			port := freePort(t)
			reader, err := resolve(t, fmt.Sprintf(`{prometheus: {host: 127.0.0.1, port: %d}}`, port))
			if !assert.Nil(t, err) {
				return
			}

			mp := count(t, reader, sdkresource.Empty())

			resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/metrics", port))
			if !assert.Nil(t, err) {
				return
			}
			b, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Contains(t, string(b), "requests_total") {
				return
			}

			if !assert.Nil(t, mp.Shutdown(context.Background())) {
				return
			}

			_, err = http.Get(fmt.Sprintf("http://127.0.0.1:%d/metrics", port))
			if !assert.NotNil(t, err) {
				return
			}
		})
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if a label pattern is malformed", func(t *testing.T) {
			_, err := resolve(t, `{prometheus: {with_resource_constant_labels: {included: ["["]}}}`)
			if !assert.NotNil(t, err) {
				return
			}
		})

		t.Run("if the port is already in use", func(t *testing.T) {
			ls, err := net.Listen("tcp", "127.0.0.1:0")
			if !assert.Nil(t, err) {
				return
			}
			defer ls.Close()

			port := ls.Addr().(*net.TCPAddr).Port
			_, err = resolve(t, fmt.Sprintf(`{prometheus: {host: 127.0.0.1, port: %d}}`, port))

			var operr *net.OpError
			if !assert.ErrorAs(t, err, &operr) {
				return
			}
		})
	})
}
