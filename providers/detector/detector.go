// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package detector registers the resource detectors which may be named in
// the resource.detection/development.detectors list.
//
// Every detector gathers its attributes synchronously from the process and
// the local filesystem so composing a pipeline never waits on the network.
package detector

import (
	"context"
	"errors"
	"runtime/debug"

	"github.com/z5labs/otelcompose/component"
	"github.com/z5labs/otelcompose/config"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// Func adapts a function into a [resource.Detector].
type Func func(context.Context) (*resource.Resource, error)

// Detect implements the [resource.Detector] interface.
func (f Func) Detect(ctx context.Context) (*resource.Resource, error) {
	return f(ctx)
}

// builtin detects with the SDK's own detectors. A partial resource is
// still returned since whatever was detected is useful.
func builtin(opts ...resource.Option) Func {
	return func(ctx context.Context) (*resource.Resource, error) {
		res, err := resource.New(ctx, opts...)
		if errors.Is(err, resource.ErrPartialResource) {
			return res, nil
		}
		return res, err
	}
}

func provider(name string, d resource.Detector) component.Provider {
	return component.NewProvider(
		component.CategoryResourceDetector,
		name,
		func(ctx context.Context, cfg config.Node, r *component.Registry) (resource.Detector, error) {
			return d, nil
		},
	)
}

// Host detects host.name, host.arch and host.id.
func Host() component.Provider {
	return provider("host", builtin(resource.WithHost(), resource.WithHostID()))
}

// OS detects os.type and os.description.
func OS() component.Provider {
	return provider("os", builtin(resource.WithOS()))
}

// Process detects the pid, executable, command line, owner and Go runtime
// of the current process.
func Process() component.Provider {
	return provider("process", builtin(resource.WithProcess()))
}

// Env detects attributes from the OTEL_RESOURCE_ATTRIBUTES and
// OTEL_SERVICE_NAME environment variables.
func Env() component.Provider {
	return provider("env", builtin(resource.WithFromEnv()))
}

// TelemetrySDK detects the telemetry.sdk.* attributes.
func TelemetrySDK() component.Provider {
	return provider("telemetry_sdk", builtin(resource.WithTelemetrySDK()))
}

// DistroName is reported as telemetry.distro.name by the distro detector.
const DistroName = "otelcompose"

const modulePath = "github.com/z5labs/otelcompose"

// Distro detects telemetry.distro.name and, when the binary carries build
// information for this module, telemetry.distro.version.
func Distro() component.Provider {
	return provider("distro", Func(func(ctx context.Context) (*resource.Resource, error) {
		attrs := []attribute.KeyValue{
			semconv.TelemetryDistroName(DistroName),
		}
		if v := moduleVersion(); v != "" {
			attrs = append(attrs, semconv.TelemetryDistroVersion(v))
		}
		return resource.NewSchemaless(attrs...), nil
	}))
}

func moduleVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	if info.Main.Path == modulePath {
		return info.Main.Version
	}
	for _, dep := range info.Deps {
		if dep.Path == modulePath {
			return dep.Version
		}
	}
	return ""
}

// ServiceConfig is the configuration accepted by the service detector.
type ServiceConfig struct {
	Name       string `config:"name"`
	Namespace  string `config:"namespace"`
	Version    string `config:"version"`
	InstanceID string `config:"instance_id"`
}

// Service sets the service.* attributes from its configuration block, e.g.
//
//	detectors:
//	  - service:
//	      name: checkout
//	      version: 1.2.3
func Service() component.Provider {
	return component.NewProvider(
		component.CategoryResourceDetector,
		"service",
		func(ctx context.Context, cfg config.Node, r *component.Registry) (resource.Detector, error) {
			var sc ServiceConfig
			err := cfg.Decode(&sc)
			if err != nil {
				return nil, err
			}

			var attrs []attribute.KeyValue
			if sc.Name != "" {
				attrs = append(attrs, semconv.ServiceName(sc.Name))
			}
			if sc.Namespace != "" {
				attrs = append(attrs, semconv.ServiceNamespace(sc.Namespace))
			}
			if sc.Version != "" {
				attrs = append(attrs, semconv.ServiceVersion(sc.Version))
			}
			if sc.InstanceID != "" {
				attrs = append(attrs, semconv.ServiceInstanceID(sc.InstanceID))
			}

			res := resource.NewSchemaless(attrs...)
			return Func(func(context.Context) (*resource.Resource, error) {
				return res, nil
			}), nil
		},
	)
}

// Providers returns every detector in this package.
func Providers() []component.Provider {
	return []component.Provider{
		Host(),
		OS(),
		Process(),
		Container(),
		Env(),
		TelemetrySDK(),
		Distro(),
		Service(),
	}
}
