package logger

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Init configures the global zerolog logger for a service. Every line carries
// the service name so aggregated logs from the three services stay separable.
func Init(serviceName string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.DefaultContextLogger = nil
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", serviceName).Logger()
	zerolog.DefaultContextLogger = &logger
}

// Ctx returns a logger enriched with the trace id of the current span, so a
// log line can be joined with its Jaeger trace.
func Ctx(ctx context.Context) *zerolog.Logger {
	logger := zerolog.Ctx(ctx)
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return logger
	}
	l := logger.With().Str("trace_id", sc.TraceID().String()).Logger()
	return &l
}
