package flight

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"

	"github.com/apache/arrow-go/v18/arrow/flight"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"

	"github.com/hugr-lab/airport-vtable/catalog"
	"github.com/hugr-lab/airport-vtable/internal/msgpack"
)

// Airport action names.
const (
	ActionListSchemas       = "list_schemas"
	ActionListTables        = "list_tables"
	ActionEndpoints         = "endpoints"
	ActionCreateTransaction = "create_transaction"
)

// rowIDColumnID is the column id DuckDB uses for the rowid pseudo-column.
const rowIDColumnID = math.MaxUint64

// DoAction executes Airport catalog actions.
func (s *Server) DoAction(action *flight.Action, stream flight.FlightService_DoActionServer) error {
	ctx := EnrichContextMetadata(stream.Context())

	s.requestLogger(ctx).Debug("DoAction called",
		"type", action.GetType(),
		"body_size", len(action.GetBody()),
	)

	switch action.GetType() {
	case ActionListSchemas:
		return s.handleListSchemas(ctx, action, stream)
	case ActionEndpoints:
		return s.handleEndpoints(ctx, action, stream)
	case ActionListTables:
		return s.handleListTables(ctx, action, stream)
	case ActionCreateTransaction:
		return s.handleCreateTransaction(ctx, action, stream)
	default:
		return status.Errorf(codes.Unimplemented, "unknown action type: %s", action.GetType())
	}
}

// send encodes v as MessagePack and sends it as the single action result.
func (s *Server) send(stream flight.FlightService_DoActionServer, v any) error {
	body, err := msgpack.Encode(v)
	if err != nil {
		s.logger.Error("Failed to encode action result", "error", err)
		return status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	if err := stream.Send(&flight.Result{Body: body}); err != nil {
		s.logger.Error("Failed to send action result", "error", err)
		return status.Errorf(codes.Internal, "failed to send result: %v", err)
	}
	return nil
}

// handleListSchemas returns the compressed catalog root used by ATTACH.
// Every schema carries its tables inline as serialized FlightInfo messages.
// The first schema is marked as default.
func (s *Server) handleListSchemas(ctx context.Context, action *flight.Action, stream flight.FlightService_DoActionServer) error {
	logger := s.requestLogger(ctx)

	var params struct {
		CatalogName string `msgpack:"catalog_name"`
	}
	if len(action.GetBody()) > 0 {
		if err := msgpack.Decode(action.GetBody(), &params); err != nil {
			logger.Warn("Ignoring undecodable list_schemas parameters", "error", err)
		}
	}

	schemas, err := s.catalog.Schemas(ctx)
	if err != nil {
		logger.Error("Failed to get schemas", "error", err)
		return status.Errorf(codes.Internal, "failed to get schemas: %v", err)
	}

	schemaObjects := make([]map[string]any, 0, len(schemas))
	for i, schema := range schemas {
		contents, hash, err := s.serializeSchemaContents(ctx, schema)
		if err != nil {
			logger.Error("Failed to serialize schema contents", "schema", schema.Name(), "error", err)
			return status.Errorf(codes.Internal, "failed to serialize schema contents: %v", err)
		}
		schemaObjects = append(schemaObjects, map[string]any{
			"name":        schema.Name(),
			"description": schema.Comment(),
			"tags":        map[string]string{},
			"contents": map[string]any{
				"sha256":     hash,
				"url":        nil,
				"serialized": contents,
			},
			"is_default": i == 0,
		})
	}

	// Optional fields must be present with nil values.
	root := map[string]any{
		"contents": map[string]any{
			"sha256":     "0000000000000000000000000000000000000000000000000000000000000000",
			"url":        nil,
			"serialized": nil,
		},
		"schemas": schemaObjects,
		"version_info": map[string]any{
			"catalog_version": uint64(1),
			"is_fixed":        false,
		},
	}

	body, n, err := s.compressor.Content(root)
	if err != nil {
		logger.Error("Failed to compress catalog", "error", err)
		return status.Errorf(codes.Internal, "failed to compress response: %v", err)
	}
	if err := stream.Send(&flight.Result{Body: body}); err != nil {
		logger.Error("Failed to send schemas", "error", err)
		return status.Errorf(codes.Internal, "failed to send result: %v", err)
	}

	logger.Debug("list_schemas completed",
		"catalog_name", params.CatalogName,
		"schema_count", len(schemas),
		"uncompressed_bytes", n,
		"compressed_bytes", len(body),
	)
	return nil
}

// serializeSchemaContents returns the compressed array of serialized FlightInfo
// for every table in schema, and its SHA256 hash.
func (s *Server) serializeSchemaContents(ctx context.Context, schema catalog.Schema) (string, string, error) {
	tables, err := schema.Tables(ctx)
	if err != nil {
		return "", "", fmt.Errorf("failed to get tables: %w", err)
	}

	infos := make([][]byte, 0, len(tables))
	for _, table := range tables {
		info, err := s.tableFlightInfo(schema.Name(), table)
		if err != nil {
			return "", "", err
		}
		data, err := proto.Marshal(info)
		if err != nil {
			return "", "", fmt.Errorf("failed to marshal FlightInfo: %w", err)
		}
		infos = append(infos, data)
	}

	serialized, _, err := s.compressor.Content(infos)
	if err != nil {
		return "", "", fmt.Errorf("failed to compress schema contents: %w", err)
	}
	hash := sha256.Sum256(serialized)
	return string(serialized), hex.EncodeToString(hash[:]), nil
}

// tableFlightInfo describes a table with a full-scan ticket and the Airport
// app_metadata identifying it.
func (s *Server) tableFlightInfo(schemaName string, table catalog.Table) (*flight.FlightInfo, error) {
	appMetadata, err := msgpack.Encode(map[string]any{
		"type":         "table",
		"schema":       schemaName,
		"catalog":      "",
		"name":         table.Name(),
		"comment":      table.Comment(),
		"input_schema": nil,
		"action_name":  nil,
		"description":  nil,
		"extra_data":   nil,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode app metadata: %w", err)
	}

	ticket, err := EncodeTicket(schemaName, table.Name())
	if err != nil {
		return nil, err
	}

	return &flight.FlightInfo{
		Schema: flight.SerializeSchema(table.ArrowSchema(nil), s.allocator),
		FlightDescriptor: &flight.FlightDescriptor{
			Type: flight.DescriptorPATH,
			Path: []string{schemaName, table.Name()},
		},
		Endpoint:     []*flight.FlightEndpoint{s.endpoint(ticket)},
		TotalRecords: -1,
		TotalBytes:   -1,
		AppMetadata:  appMetadata,
	}, nil
}

func (s *Server) endpoint(ticket []byte) *flight.FlightEndpoint {
	ep := &flight.FlightEndpoint{Ticket: &flight.Ticket{Ticket: ticket}}
	if s.address != "" {
		ep.Location = []*flight.Location{{Uri: "grpc://" + s.address}}
	}
	return ep
}

// handleListTables returns the table names of one schema, or of every schema
// when no schema_name is given.
func (s *Server) handleListTables(ctx context.Context, action *flight.Action, stream flight.FlightService_DoActionServer) error {
	logger := s.requestLogger(ctx)

	var params struct {
		SchemaName string `msgpack:"schema_name"`
	}
	if len(action.GetBody()) > 0 {
		if err := msgpack.Decode(action.GetBody(), &params); err != nil {
			logger.Error("Failed to decode list_tables parameters", "error", err)
			return status.Errorf(codes.InvalidArgument, "invalid parameters: %v", err)
		}
	}

	if params.SchemaName == "" {
		schemas, err := s.catalog.Schemas(ctx)
		if err != nil {
			logger.Error("Failed to get schemas", "error", err)
			return status.Errorf(codes.Internal, "failed to get schemas: %v", err)
		}
		all := make(map[string][]string, len(schemas))
		for _, schema := range schemas {
			names, err := tableNames(ctx, schema)
			if err != nil {
				logger.Error("Failed to get tables", "schema", schema.Name(), "error", err)
				continue
			}
			all[schema.Name()] = names
		}
		return s.send(stream, map[string]any{"tables": all})
	}

	schema, err := s.catalog.Schema(ctx, params.SchemaName)
	if err != nil {
		logger.Error("Failed to get schema", "schema", params.SchemaName, "error", err)
		return status.Errorf(codes.Internal, "failed to get schema: %v", err)
	}
	if schema == nil {
		return status.Errorf(codes.NotFound, "schema not found: %s", params.SchemaName)
	}
	names, err := tableNames(ctx, schema)
	if err != nil {
		logger.Error("Failed to get tables", "schema", params.SchemaName, "error", err)
		return status.Errorf(codes.Internal, "failed to get tables: %v", err)
	}
	return s.send(stream, map[string]any{
		"schema": params.SchemaName,
		"tables": names,
	})
}

func tableNames(ctx context.Context, schema catalog.Schema) ([]string, error) {
	tables, err := schema.Tables(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name()
	}
	return names, nil
}

// endpointsRequest is AirportGetFlightEndpointsRequest.
type endpointsRequest struct {
	Descriptor string `msgpack:"descriptor"`
	Parameters struct {
		JSONFilters string   `msgpack:"json_filters"`
		ColumnIDs   []uint64 `msgpack:"column_ids"`
		AtUnit      string   `msgpack:"at_unit"`
		AtValue     string   `msgpack:"at_value"`
	} `msgpack:"parameters"`
}

// handleEndpoints returns the endpoint for one scan. The ticket carries the
// filter pushdown JSON and the projected column names, so DoGet can hand both
// to the table scan.
func (s *Server) handleEndpoints(ctx context.Context, action *flight.Action, stream flight.FlightService_DoActionServer) error {
	logger := s.requestLogger(ctx)

	var request endpointsRequest
	if err := msgpack.Decode(action.GetBody(), &request); err != nil {
		logger.Error("Failed to decode endpoints request", "error", err)
		return status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}

	desc := &flight.FlightDescriptor{}
	if err := proto.Unmarshal([]byte(request.Descriptor), desc); err != nil {
		logger.Error("Failed to parse FlightDescriptor", "error", err)
		return status.Errorf(codes.InvalidArgument, "invalid descriptor: %v", err)
	}
	if desc.GetType() != flight.DescriptorPATH || len(desc.GetPath()) != 2 {
		return status.Errorf(codes.InvalidArgument, "descriptor must be PATH type with 2 elements [schema, table]")
	}
	if request.Parameters.AtUnit != "" {
		return status.Errorf(codes.Unimplemented, "time travel is not supported")
	}

	schemaName, tableName := desc.GetPath()[0], desc.GetPath()[1]
	table, err := s.lookupTable(ctx, schemaName, tableName)
	if err != nil {
		return err
	}

	td := &TicketData{
		Schema:  schemaName,
		Table:   tableName,
		Columns: columnNames(table, request.Parameters.ColumnIDs),
		Filters: request.Parameters.JSONFilters,
	}
	ticket, err := td.Encode()
	if err != nil {
		logger.Error("Failed to encode ticket", "error", err)
		return status.Errorf(codes.InvalidArgument, "failed to encode ticket: %v", err)
	}

	endpointBytes, err := proto.Marshal(s.endpoint(ticket))
	if err != nil {
		logger.Error("Failed to marshal endpoint", "error", err)
		return status.Errorf(codes.Internal, "failed to marshal endpoint: %v", err)
	}

	logger.Debug("endpoints completed",
		"schema", schemaName,
		"table", tableName,
		"columns", td.Columns,
		"has_filters", td.Filters != "",
	)
	return s.send(stream, []string{string(endpointBytes)})
}

// columnNames maps DuckDB column ids to field names of the table schema.
// Unknown ids are dropped; the rowid id maps to the rowid column when present.
func columnNames(table catalog.Table, ids []uint64) []string {
	if len(ids) == 0 {
		return nil
	}
	schema := table.ArrowSchema(nil)
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		switch {
		case id == rowIDColumnID:
			if idx := catalog.FindRowIDColumn(schema); idx >= 0 {
				names = append(names, schema.Field(idx).Name)
			}
		case id < uint64(schema.NumFields()):
			names = append(names, schema.Field(int(id)).Name)
		}
	}
	return names
}

// handleCreateTransaction returns a nil identifier: tables are read-only and
// need no transaction state.
func (s *Server) handleCreateTransaction(ctx context.Context, action *flight.Action, stream flight.FlightService_DoActionServer) error {
	var params struct {
		CatalogName string `msgpack:"catalog_name"`
	}
	if len(action.GetBody()) > 0 {
		if err := msgpack.Decode(action.GetBody(), &params); err != nil {
			s.requestLogger(ctx).Error("Failed to decode create_transaction parameters", "error", err)
			return status.Errorf(codes.InvalidArgument, "invalid parameters: %v", err)
		}
	}
	return s.send(stream, map[string]any{"identifier": nil})
}
