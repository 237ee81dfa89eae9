package flight

import (
	"context"

	"google.golang.org/grpc/metadata"
)

type contextKey int

const (
	airportParamsKey contextKey = iota
)

// Metadata header keys sent by the Airport extension.
const (
	// HeaderTraceID is the gRPC metadata header for distributed trace identifier.
	HeaderTraceID = "airport-trace-id"
	// HeaderSessionID is the gRPC metadata header for client session identifier.
	HeaderSessionID = "airport-client-session-id"
)

// ContextMeta holds request headers used for log correlation.
type ContextMeta struct {
	TraceID   string
	SessionID string
}

// WithContextMeta stores meta in ctx.
func WithContextMeta(ctx context.Context, meta ContextMeta) context.Context {
	return context.WithValue(ctx, airportParamsKey, &meta)
}

// MetaFromContext returns the stored metadata or nil.
func MetaFromContext(ctx context.Context) *ContextMeta {
	meta, _ := ctx.Value(airportParamsKey).(*ContextMeta)
	return meta
}

// EnrichContextMetadata extracts metadata from gRPC context and
// returns a new context with the metadata stored.
// If the context is already enriched, it is returned unchanged.
func EnrichContextMetadata(ctx context.Context) context.Context {
	if MetaFromContext(ctx) != nil {
		return ctx
	}
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ctx
	}

	var meta ContextMeta
	if values := md.Get(HeaderTraceID); len(values) > 0 {
		meta.TraceID = values[0]
	}
	if values := md.Get(HeaderSessionID); len(values) > 0 {
		meta.SessionID = values[0]
	}
	return WithContextMeta(ctx, meta)
}
