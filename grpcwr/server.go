// Package grpcwr provides unary gRPC interceptors that carry errors and
// request metadata across service boundaries in the errx / meta formats
// used throughout this module.
package grpcwr

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/code19m/errx"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/nicolaspearson/grpc.typeorm.infrastructure/logger"
	"github.com/nicolaspearson/grpc.typeorm.infrastructure/meta"
)

const stackBufSize = 4096

// NewErrorWrap creates a server interceptor that converts errx errors
// returned by handlers into gRPC status errors, so typed codes and fields
// survive the wire. serviceName is prefixed to the error trace.
func NewErrorWrap(serviceName string) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		_ *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		resp, err := handler(ctx, req)
		err = errx.ToGRPCError(err, errx.WithTracePrefix(serviceName))
		return resp, err
	}
}

// NewRecovery creates a server interceptor that recovers from panics in
// handlers, logs the stack trace and converts the panic into an internal
// error safe to return to clients.
func NewRecovery(log logger.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		_ *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				stackTrace := make([]byte, stackBufSize)
				stackTrace = stackTrace[:runtime.Stack(stackTrace, false)]

				log.
					Named("recovery_interceptor").
					WithContext(ctx).
					With("stack_trace", string(stackTrace)).
					With("panic_value", fmt.Sprintf("%v", r)).
					Error("panic recovered")

				err = errx.New("panic recovered at recovery_interceptor", errx.WithDetails(errx.D{
					"stack_trace": string(stackTrace),
					"panic_value": fmt.Sprintf("%v", r),
				}))
			}
		}()

		return handler(ctx, req)
	}
}

// NewLogger creates a server interceptor that logs every unary request with
// its method and duration. The level adapts to the outcome: internal errors
// log at ERROR, other typed errors at WARN, successes at INFO.
func NewLogger(log logger.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		reqLog := log.Named("logger_server_interceptor").WithContext(ctx)

		start := time.Now()
		resp, err := handler(ctx, req)
		duration := time.Since(start)

		reqLog = reqLog.With(
			"method", info.FullMethod,
			"duration", duration,
		)

		msg := "processed incoming gRPC unary request"
		switch {
		case err == nil:
			reqLog.Info(msg)
		case errx.GetType(err) == errx.T_Internal:
			reqLog.With("error", errorObject(err)).Error(msg)
		default:
			reqLog.With("error", errorObject(err)).Warn(msg)
		}

		return resp, err
	}
}

// NewMetaInject creates a server interceptor that populates the context with
// request metadata: a trace ID (reused from an active span or generated),
// client metadata from incoming gRPC headers, and the identity of this
// service.
func NewMetaInject(serviceName, serviceVersion string) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		_ *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		data := map[meta.ContextKey]string{
			meta.TraceID:        traceIDFor(ctx),
			meta.ServiceName:    serviceName,
			meta.ServiceVersion: serviceVersion,
		}

		if md, ok := metadata.FromIncomingContext(ctx); ok {
			for _, k := range []meta.ContextKey{
				meta.RequestUserID,
				meta.RequestUserType,
				meta.IPAddress,
				meta.AcceptLanguage,
			} {
				if values := md.Get(string(k)); len(values) > 0 {
					data[k] = values[0]
				}
			}
		}

		return handler(meta.InjectToContext(ctx, data), req)
	}
}

// NewTimeout creates a server interceptor that bounds handler execution time.
func NewTimeout(duration time.Duration) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		_ *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		ctx, cancel := context.WithTimeout(ctx, duration)
		defer cancel()
		return handler(ctx, req)
	}
}

// traceIDFor resolves the trace ID for an incoming request. An ID forwarded
// by the caller in gRPC metadata wins over span or generated IDs.
func traceIDFor(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(string(meta.TraceID)); len(values) > 0 && values[0] != "" {
			return values[0]
		}
	}
	return meta.StartingTraceID(ctx)
}

// errorObject flattens an error into a structured map for logging.
func errorObject(err error) any {
	e := errx.AsErrorX(err)

	return map[string]any{
		"code":    e.Code(),
		"message": e.Error(),
		"type":    e.Type().String(),
		"trace":   e.Trace(),
		"fields":  e.Fields(),
		"details": e.Details(),
	}
}
