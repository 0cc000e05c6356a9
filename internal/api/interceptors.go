package api

import (
	"context"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"ledgerpay/internal/common/logging"
	"ledgerpay/internal/common/metrics"
	"ledgerpay/internal/common/types"
)

// Admitter decides whether a request identified by a caller-derived
// string may proceed.
type Admitter interface {
	Allow(ctx context.Context, identifier string) bool
}

// exempt methods bypass admission control so load balancers and tooling
// keep working while clients are throttled.
func exempt(fullMethod string) bool {
	return strings.HasPrefix(fullMethod, "/grpc.health.v1.Health/") ||
		strings.HasPrefix(fullMethod, "/grpc.reflection.")
}

// CorrelationInterceptor attaches a correlation id to the context,
// taking the caller's when present and minting one otherwise.
func CorrelationInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		corrID := types.NewCorrelationID()
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if vals := md.Get("x-correlation-id"); len(vals) > 0 && vals[0] != "" {
				corrID = types.CorrelationID(vals[0])
			}
		}
		return handler(logging.WithCorrelationID(ctx, corrID), req)
	}
}

// MetricsInterceptor records duration and outcome for every admitted
// RPC. It sits inside admission control so the duration histogram
// measures handler work, not gateway rejections; those stay visible
// through the rejection counter.
func MetricsInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		metrics.RecordGRPCRequest(info.FullMethod, status.Code(err).String(), time.Since(start))
		return resp, err
	}
}

// RateLimitInterceptor gates admission ahead of the metrics and
// handler layers. Rejected requests get RESOURCE_EXHAUSTED and never
// reach the engine.
func RateLimitInterceptor(admitter Admitter) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if exempt(info.FullMethod) {
			return handler(ctx, req)
		}
		identifier := callerIdentifier(ctx, info.FullMethod)
		if !admitter.Allow(ctx, identifier) {
			logging.WarnContext(ctx, "request rate limited",
				"identifier", identifier, "method", info.FullMethod)
			return nil, status.Error(codes.ResourceExhausted, "rate limit exceeded")
		}
		return handler(ctx, req)
	}
}

// callerIdentifier derives the admission key: an explicit client id
// beats the forwarded source address, which beats a per-method bucket
// for anonymous direct callers.
func callerIdentifier(ctx context.Context, fullMethod string) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get("x-client-id"); len(vals) > 0 && vals[0] != "" {
			return "client:" + vals[0]
		}
		if vals := md.Get("x-forwarded-for"); len(vals) > 0 && vals[0] != "" {
			first := strings.TrimSpace(strings.Split(vals[0], ",")[0])
			if first != "" {
				return "ip:" + first
			}
		}
	}
	return "method:" + fullMethod
}
