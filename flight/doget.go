package flight

import (
	"context"
	"errors"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hugr-lab/airport-vtable/catalog"
	"github.com/hugr-lab/airport-vtable/internal/recovery"
)

// DoGet streams Arrow record batches for a table query.
//
// The handler:
//  1. Decodes the ticket to get schema/table names, projection and filters
//  2. Looks up the table in the catalog
//  3. Calls the table's Scan to get a RecordReader
//  4. Validates the RecordReader schema matches the table schema
//  5. Streams record batches using Arrow IPC format
func (s *Server) DoGet(ticket *flight.Ticket, stream flight.FlightService_DoGetServer) error {
	ctx := EnrichContextMetadata(stream.Context())
	logger := s.requestLogger(ctx)

	ticketData, err := DecodeTicket(ticket.GetTicket())
	if err != nil {
		logger.Error("Failed to decode ticket", "error", err)
		return status.Errorf(codes.InvalidArgument, "invalid ticket: %v", err)
	}
	logger = logger.With("schema", ticketData.Schema, "table", ticketData.Table)

	logger.Debug("DoGet request",
		"columns", ticketData.Columns,
		"has_filters", ticketData.Filters != "",
	)

	table, err := s.lookupTable(ctx, ticketData.Schema, ticketData.Table)
	if err != nil {
		return err
	}

	reader, err := s.scan(ctx, table, ticketData.ToScanOptions())
	if err != nil {
		logger.Error("Table scan failed", "error", err)
		return err
	}
	defer reader.Release()

	writer := flight.NewRecordWriter(stream, ipc.WithSchema(reader.Schema()))
	defer writer.Close()

	batchCount := 0
	totalRows := int64(0)
	for reader.Next() {
		if err := ctx.Err(); err != nil {
			logger.Debug("DoGet cancelled by client",
				"batches_sent", batchCount,
				"rows_sent", totalRows,
			)
			return status.Error(codes.Canceled, "request cancelled")
		}

		record := reader.Record()
		if err := writer.Write(record); err != nil {
			logger.Error("Failed to write record batch", "batch", batchCount+1, "error", err)
			return status.Errorf(codes.Internal, "failed to write batch %d: %v", batchCount+1, err)
		}
		batchCount++
		totalRows += record.NumRows()
	}
	if err := reader.Err(); err != nil {
		logger.Error("RecordReader error during iteration", "batch", batchCount, "error", err)
		return status.Errorf(codes.Internal, "scan error after batch %d: %v", batchCount, err)
	}

	logger.Debug("DoGet completed",
		"batches_sent", batchCount,
		"total_rows", totalRows,
	)
	return nil
}

// scan runs the table scan and checks that the reader carries the full table schema.
func (s *Server) scan(ctx context.Context, table catalog.Table, opts *catalog.ScanOptions) (array.RecordReader, error) {
	reader, err := recovery.RecoverToValue(s.logger, "Scan "+table.Name(), func() (array.RecordReader, error) {
		return table.Scan(ctx, opts)
	})
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			return nil, status.Error(codes.Canceled, "request cancelled")
		case errors.Is(err, context.DeadlineExceeded):
			return nil, status.Error(codes.DeadlineExceeded, err.Error())
		}
		if _, ok := status.FromError(err); ok {
			return nil, err
		}
		return nil, status.Errorf(codes.Internal, "table scan failed: %v", err)
	}

	fullSchema := table.ArrowSchema(nil)
	if !fullSchema.Equal(reader.Schema()) {
		reader.Release()
		return nil, status.Errorf(codes.Internal,
			"schema mismatch: table has %d fields, reader has %d fields",
			fullSchema.NumFields(), reader.Schema().NumFields())
	}
	return reader, nil
}

// lookupTable resolves schema.table, mapping misses to NotFound.
func (s *Server) lookupTable(ctx context.Context, schemaName, tableName string) (catalog.Table, error) {
	schema, err := s.catalog.Schema(ctx, schemaName)
	if err != nil {
		s.logger.Error("Failed to get schema from catalog", "schema", schemaName, "error", err)
		return nil, status.Errorf(codes.Internal, "failed to get schema: %v", err)
	}
	if schema == nil {
		return nil, status.Errorf(codes.NotFound, "schema not found: %s", schemaName)
	}

	table, err := schema.Table(ctx, tableName)
	if err != nil {
		s.logger.Error("Failed to get table from schema", "schema", schemaName, "table", tableName, "error", err)
		return nil, status.Errorf(codes.Internal, "failed to get table: %v", err)
	}
	if table == nil {
		return nil, status.Errorf(codes.NotFound, "table not found: %s.%s", schemaName, tableName)
	}
	return table, nil
}
