package flight

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow/flight"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// GetFlightInfo returns schema metadata and a full-scan ticket for a table.
// The descriptor.Path should contain [schema_name, table_name].
func (s *Server) GetFlightInfo(ctx context.Context, desc *flight.FlightDescriptor) (*flight.FlightInfo, error) {
	ctx = EnrichContextMetadata(ctx)

	if desc.GetType() != flight.DescriptorPATH {
		return nil, status.Error(codes.InvalidArgument, "descriptor must be PATH type")
	}
	path := desc.GetPath()
	if len(path) != 2 {
		return nil, status.Error(codes.InvalidArgument, "path must contain exactly 2 elements: [schema_name, table_name]")
	}

	table, err := s.lookupTable(ctx, path[0], path[1])
	if err != nil {
		return nil, err
	}

	info, err := s.tableFlightInfo(path[0], table)
	if err != nil {
		s.requestLogger(ctx).Error("Failed to build FlightInfo", "schema", path[0], "table", path[1], "error", err)
		return nil, status.Errorf(codes.Internal, "failed to build flight info: %v", err)
	}

	s.requestLogger(ctx).Debug("GetFlightInfo successful",
		"schema", path[0],
		"table", path[1],
	)
	return info, nil
}
