// Package meta provides functionality for managing request metadata through context.
package meta

import "context"

// ContextKey is a type for keys used in context values for metadata.
type ContextKey string

const (
	// TraceID represents a unique identifier for tracing requests across services.
	TraceID ContextKey = "trace_id"

	// RequestUserID identifies the user making the request.
	RequestUserID ContextKey = "request_user_id"

	// RequestUserType indicates the type of the user making the request.
	RequestUserType ContextKey = "request_user_type"

	// IPAddress contains the client's IP address.
	IPAddress ContextKey = "ip_address"

	// ServiceName identifies the name of the current running service.
	ServiceName ContextKey = "service_name"

	// ServiceVersion indicates the version of the service.
	ServiceVersion ContextKey = "service_version"

	// AcceptLanguage indicates the natural language and locale that the client prefers.
	AcceptLanguage ContextKey = "accept-language"
)

// contextKeys lists every key handled by Inject/Extract.
//
//nolint:gochecknoglobals // fixed key set
var contextKeys = []ContextKey{
	TraceID,
	RequestUserID,
	RequestUserType,
	IPAddress,
	ServiceName,
	ServiceVersion,
	AcceptLanguage,
}

// InjectToContext adds metadata from the provided map to the context.
// It only adds values that are not empty strings and returns a new context
// with the added values.
func InjectToContext(ctx context.Context, data map[ContextKey]string) context.Context {
	for k, v := range data {
		if v != "" {
			ctx = context.WithValue(ctx, k, v) //nolint:fatcontext // allow due to finite number of keys
		}
	}
	return ctx
}

// ExtractFromContext extracts all known metadata from the provided context.
// Only non-empty string values are included in the returned map.
func ExtractFromContext(ctx context.Context) map[ContextKey]string {
	data := make(map[ContextKey]string)
	for _, k := range contextKeys {
		if v, ok := ctx.Value(k).(string); ok && v != "" {
			data[k] = v
		}
	}
	return data
}
