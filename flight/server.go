// Package flight serves attached virtual tables over Arrow Flight RPC, following
// the DuckDB Airport extension protocol.
package flight

import (
	"context"
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"google.golang.org/grpc"

	"github.com/hugr-lab/airport-vtable/auth"
	"github.com/hugr-lab/airport-vtable/catalog"
	"github.com/hugr-lab/airport-vtable/internal/serialize"
)

// Server implements the Flight service handlers.
// Embeds BaseFlightServer for forward compatibility with protocol changes.
type Server struct {
	flight.BaseFlightServer

	catalog   catalog.Catalog
	allocator memory.Allocator
	logger    *slog.Logger
	address   string // public address advertised in FlightEndpoint locations

	compressor *serialize.Compressor
}

// NewServer creates a new Flight server with the given catalog and allocator.
// The address parameter specifies the server's public address for FlightEndpoint
// locations; when empty, clients reuse the connection they called on.
func NewServer(cat catalog.Catalog, allocator memory.Allocator, logger *slog.Logger, address string) (*Server, error) {
	if allocator == nil {
		allocator = memory.DefaultAllocator
	}
	if logger == nil {
		logger = slog.Default()
	}
	compressor, err := serialize.NewCompressor()
	if err != nil {
		return nil, err
	}
	return &Server{
		catalog:    cat,
		allocator:  allocator,
		logger:     logger,
		address:    address,
		compressor: compressor,
	}, nil
}

// Close releases the server's compression resources.
func (s *Server) Close() error {
	return s.compressor.Close()
}

// RegisterFlightServer registers the Flight service on the provided gRPC server.
func RegisterFlightServer(grpcServer *grpc.Server, flightServer *Server) {
	flight.RegisterFlightServiceServer(grpcServer, flightServer)
}

// requestLogger returns the server logger annotated with the caller identity and
// tracing headers of the request.
func (s *Server) requestLogger(ctx context.Context) *slog.Logger {
	logger := s.logger
	if identity := auth.IdentityFromContext(ctx); identity != "" {
		logger = logger.With("identity", identity)
	}
	if meta := MetaFromContext(ctx); meta != nil {
		if meta.TraceID != "" {
			logger = logger.With("trace_id", meta.TraceID)
		}
		if meta.SessionID != "" {
			logger = logger.With("session_id", meta.SessionID)
		}
	}
	return logger
}
