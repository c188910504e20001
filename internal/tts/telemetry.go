package tts

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/dgnsrekt/cracker/internal/tts"

// tracer returns the package tracer from the global provider. It is a
// no-op until SetupTracing installs a provider.
func tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// SetupTracing installs a tracer provider that writes session and chunk
// spans to w. The returned function flushes and shuts it down.
func SetupTracing(w io.Writer) (func(context.Context) error, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("unable to create trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
