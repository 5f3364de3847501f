// SPDX-License-Identifier: BSD-3-Clause

// Package telemetry wires the process-wide OpenTelemetry tracer and meter
// providers. No exporter is registered by default, so recorded data goes
// nowhere. The only spans produced come from the otelhttp-wrapped
// outbound HTTP clients (invapi, secretapi); no package calls Tracer or
// Meter, so no custom spans or counters are recorded.
package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName identifies this module to the tracer/meter providers.
const InstrumentationName = "github.com/starlingx/hwmond"

var (
	once          sync.Once
	tracerProv    *sdktrace.TracerProvider
	meterProv     *sdkmetric.MeterProvider
	shutdownFuncs []func(context.Context) error
)

// Setup installs the global tracer and meter providers. Safe to call more
// than once; only the first call takes effect.
func Setup() {
	once.Do(func() {
		tracerProv = sdktrace.NewTracerProvider()
		otel.SetTracerProvider(tracerProv)
		shutdownFuncs = append(shutdownFuncs, tracerProv.Shutdown)

		meterProv = sdkmetric.NewMeterProvider()
		otel.SetMeterProvider(meterProv)
		shutdownFuncs = append(shutdownFuncs, meterProv.Shutdown)
	})
}

// Shutdown flushes and stops the providers installed by Setup.
func Shutdown(ctx context.Context) error {
	var err error
	for _, fn := range shutdownFuncs {
		if e := fn(ctx); e != nil {
			err = e
		}
	}
	return err
}

// Tracer returns the module-scoped tracer. Components hold onto the result
// rather than calling this per span.
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}

// Meter returns the module-scoped meter.
func Meter() metric.Meter {
	return otel.Meter(InstrumentationName)
}
