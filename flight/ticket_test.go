package flight

import (
	"encoding/json"
	"testing"
)

func TestEncodeDecodeTicket(t *testing.T) {
	tests := []struct {
		name   string
		schema string
		table  string
	}{
		{name: "simple table", schema: "main", table: "processes"},
		{name: "schema with underscore", schema: "my_schema", table: "system_info"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := EncodeTicket(tt.schema, tt.table)
			if err != nil {
				t.Fatalf("EncodeTicket() error = %v", err)
			}
			decoded, err := DecodeTicket(encoded)
			if err != nil {
				t.Fatalf("DecodeTicket() error = %v", err)
			}
			if decoded.Schema != tt.schema {
				t.Errorf("Schema = %v, want %v", decoded.Schema, tt.schema)
			}
			if decoded.Table != tt.table {
				t.Errorf("Table = %v, want %v", decoded.Table, tt.table)
			}
			if decoded.Columns != nil || decoded.Filters != "" {
				t.Errorf("expected no projection or filters, got %+v", decoded)
			}
		})
	}
}

func TestTicketCarriesScanParameters(t *testing.T) {
	filters := `{"filters":[],"column_binding_names_by_index":["pid"]}`
	td := &TicketData{Schema: "main", Table: "processes", Columns: []string{"pid", "name"}, Filters: filters}

	encoded, err := td.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	// Filters are embedded as a JSON string, not re-encoded.
	var raw map[string]any
	if err := json.Unmarshal(encoded, &raw); err != nil {
		t.Fatalf("ticket is not JSON: %v", err)
	}
	if raw["filters"] != filters {
		t.Errorf("filters = %v, want %s", raw["filters"], filters)
	}

	decoded, err := DecodeTicket(encoded)
	if err != nil {
		t.Fatalf("DecodeTicket() error = %v", err)
	}
	opts := decoded.ToScanOptions()
	if len(opts.Columns) != 2 || opts.Columns[0] != "pid" {
		t.Errorf("Columns = %v", opts.Columns)
	}
	if string(opts.Filter) != filters {
		t.Errorf("Filter = %s", opts.Filter)
	}

	if opts := (&TicketData{Schema: "s", Table: "t"}).ToScanOptions(); opts.Filter != nil {
		t.Errorf("expected nil filter, got %s", opts.Filter)
	}
}

func TestTicketErrors(t *testing.T) {
	encodeTests := []struct {
		name string
		td   TicketData
	}{
		{name: "empty schema", td: TicketData{Table: "t"}},
		{name: "empty table", td: TicketData{Schema: "s"}},
		{name: "invalid filters", td: TicketData{Schema: "s", Table: "t", Filters: "{"}},
	}
	for _, tt := range encodeTests {
		if _, err := tt.td.Encode(); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}

	decodeTests := []struct {
		name string
		data string
	}{
		{name: "empty", data: ""},
		{name: "not json", data: "main.users"},
		{name: "missing schema", data: `{"table":"t"}`},
		{name: "missing table", data: `{"schema":"s"}`},
	}
	for _, tt := range decodeTests {
		if _, err := DecodeTicket([]byte(tt.data)); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}
