package flight

import (
	"encoding/json"
	"fmt"

	"github.com/hugr-lab/airport-vtable/catalog"
)

// TicketData represents the decoded content of a Flight ticket.
// Tickets are opaque to clients; the server issues them from GetFlightInfo,
// list_schemas and the endpoints action and reads them back in DoGet.
type TicketData struct {
	// Schema is the schema name (e.g., "main")
	Schema string `json:"schema"`

	// Table is the table name (e.g., "processes")
	Table string `json:"table"`

	// Columns to read (optional, nil means all columns)
	Columns []string `json:"columns,omitempty"`

	// Filters is the DuckDB filter pushdown JSON (optional)
	Filters string `json:"filters,omitempty"`
}

// EncodeTicket creates an opaque ticket for a full scan of schema.table.
func EncodeTicket(schema, table string) ([]byte, error) {
	return (&TicketData{Schema: schema, Table: table}).Encode()
}

// Encode validates and serializes the ticket.
func (td *TicketData) Encode() ([]byte, error) {
	if td.Schema == "" {
		return nil, fmt.Errorf("schema name cannot be empty")
	}
	if td.Table == "" {
		return nil, fmt.Errorf("table name cannot be empty")
	}
	if td.Filters != "" && !json.Valid([]byte(td.Filters)) {
		return nil, fmt.Errorf("filters are not valid JSON")
	}

	data, err := json.Marshal(td)
	if err != nil {
		return nil, fmt.Errorf("failed to encode ticket: %w", err)
	}
	return data, nil
}

// DecodeTicket parses an opaque ticket.
// Returns error if ticket is invalid or cannot be decoded.
func DecodeTicket(ticketBytes []byte) (*TicketData, error) {
	if len(ticketBytes) == 0 {
		return nil, fmt.Errorf("ticket cannot be empty")
	}

	var ticket TicketData
	if err := json.Unmarshal(ticketBytes, &ticket); err != nil {
		return nil, fmt.Errorf("failed to decode ticket: %w", err)
	}

	if ticket.Schema == "" {
		return nil, fmt.Errorf("decoded ticket has empty schema name")
	}
	if ticket.Table == "" {
		return nil, fmt.Errorf("decoded ticket has empty table name")
	}
	return &ticket, nil
}

// ToScanOptions converts TicketData to catalog.ScanOptions.
func (td *TicketData) ToScanOptions() *catalog.ScanOptions {
	opts := &catalog.ScanOptions{
		Columns: td.Columns,
	}
	if td.Filters != "" {
		opts.Filter = []byte(td.Filters)
	}
	return opts
}
