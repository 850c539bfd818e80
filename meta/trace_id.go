package meta

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// StartingTraceID returns the trace ID to use for a new request scope.
// If an OpenTelemetry span is active in the context its trace ID is reused,
// otherwise a new UUID-based ID is generated so log correlation works even
// without tracing initialized.
func StartingTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	traceID := span.SpanContext().TraceID()

	if traceID.IsValid() {
		return traceID.String()
	}

	return fmt.Sprintf("man-%s", uuid.New().String())
}
