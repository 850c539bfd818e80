package grpcwr

import (
	"context"

	"github.com/code19m/errx"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/nicolaspearson/grpc.typeorm.infrastructure/meta"
)

// NewErrorUnwrap creates a client interceptor that converts gRPC status
// errors produced by NewErrorWrap back into errx errors. Errors that did not
// come from an errx-aware server pass through unchanged.
func NewErrorUnwrap() grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply any,
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		err := invoker(ctx, method, req, reply, cc, opts...)
		ok, e := errx.FromGRPCError(err)
		if !ok {
			return err
		}
		return e
	}
}

// NewMetaForward creates a client interceptor that copies request metadata
// from the context into outgoing gRPC headers, so downstream services see
// the same trace ID and caller identity.
func NewMetaForward() grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply any,
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		ctxData := meta.ExtractFromContext(ctx)

		kv := make([]string, 0, len(ctxData)*2)
		for _, k := range []meta.ContextKey{
			meta.TraceID,
			meta.RequestUserID,
			meta.RequestUserType,
			meta.IPAddress,
			meta.AcceptLanguage,
		} {
			if v, ok := ctxData[k]; ok && v != "" {
				kv = append(kv, string(k), v)
			}
		}

		ctx = metadata.AppendToOutgoingContext(ctx, kv...)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}
