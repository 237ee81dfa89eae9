package vtable

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"google.golang.org/grpc"

	"github.com/hugr-lab/airport-vtable/auth"
	"github.com/hugr-lab/airport-vtable/catalog"
	"github.com/hugr-lab/airport-vtable/flight"
	"github.com/hugr-lab/airport-vtable/registry"
)

// NewServer registers the Flight service handlers on the provided gRPC server.
//
// Returns an error wrapping ErrInvalidConfig if config is invalid (e.g., nil Catalog).
// Does NOT start the gRPC server - the caller controls its lifecycle via
// grpcServer.Serve(). Authentication and message limits are gRPC server options,
// see ServerOptions:
//
//	opts := vtable.ServerOptions(config)
//	grpcServer := grpc.NewServer(opts...)
//	if err := vtable.NewServer(grpcServer, config); err != nil {
//	    log.Fatal(err)
//	}
func NewServer(grpcServer *grpc.Server, config ServerConfig) error {
	if err := validateConfig(grpcServer, config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	allocator := config.Allocator
	if allocator == nil {
		allocator = memory.DefaultAllocator
	}
	logger := configLogger(config)

	flightServer, err := flight.NewServer(config.Catalog, allocator, logger, config.Address)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	flight.RegisterFlightServer(grpcServer, flightServer)

	logger.Info("Flight server registered",
		"has_auth", config.Auth != nil,
		"max_message_size", config.MaxMessageSize,
		"address", config.Address,
	)
	return nil
}

func validateConfig(grpcServer *grpc.Server, config ServerConfig) error {
	if grpcServer == nil {
		return fmt.Errorf("grpc server is required")
	}
	if config.Catalog == nil {
		return fmt.Errorf("catalog is required")
	}
	if config.MaxMessageSize < 0 {
		return fmt.Errorf("max message size must not be negative")
	}
	return nil
}

func configLogger(config ServerConfig) *slog.Logger {
	if config.Logger != nil {
		return config.Logger
	}
	if config.LogLevel != nil {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: *config.LogLevel}))
	}
	return slog.Default()
}

// ServerOptions returns gRPC server options with authentication interceptors and
// message size limits taken from config.
func ServerOptions(config ServerConfig) []grpc.ServerOption {
	var opts []grpc.ServerOption

	if config.Auth != nil {
		opts = append(opts,
			grpc.UnaryInterceptor(auth.UnaryServerInterceptor(config.Auth)),
			grpc.StreamInterceptor(auth.StreamServerInterceptor(config.Auth)),
		)
	}

	if config.MaxMessageSize > 0 {
		opts = append(opts,
			grpc.MaxRecvMsgSize(config.MaxMessageSize),
			grpc.MaxSendMsgSize(config.MaxMessageSize),
		)
	}

	return opts
}

// NewCatalog attaches every plugin of r under the schema and returns a catalog
// serving it. If r is nil the default registry is used.
//
// Tables that fail to attach are left out. The catalog is still returned together
// with the *registry.AttachError describing them, so callers decide whether a
// partial catalog is acceptable.
func NewCatalog(r *registry.Registry, cfg catalog.AttacherConfig) (catalog.Catalog, error) {
	if r == nil {
		r = registry.Default
	}
	schema := catalog.NewAttacher(cfg)
	err := r.AttachAll(schema, cfg.Logger)
	return catalog.NewStaticCatalog(schema), err
}
