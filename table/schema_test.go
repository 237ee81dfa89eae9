package table

import (
	"errors"
	"testing"
)

func TestSchemaValidate(t *testing.T) {
	tests := []struct {
		name    string
		schema  Schema
		wantErr error
	}{
		{
			name:   "valid",
			schema: Schema{{Name: "pid", Type: BigInt}, {Name: "name", Type: Text}, {Name: "threads", Type: Integer}},
		},
		{
			name:    "empty",
			schema:  Schema{},
			wantErr: ErrEmptySchema,
		},
		{
			name:    "duplicate column",
			schema:  Schema{{Name: "pid", Type: BigInt}, {Name: "pid", Type: Text}},
			wantErr: ErrDuplicateColumn,
		},
		{
			name:    "empty column name",
			schema:  Schema{{Name: "", Type: Text}},
			wantErr: ErrEmptyName,
		},
		{
			name:    "unknown type",
			schema:  Schema{{Name: "ratio", Type: ColumnType(42)}},
			wantErr: ErrUnknownType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schema.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestStatement(t *testing.T) {
	schema := Schema{
		{Name: "pid", Type: BigInt},
		{Name: "name", Type: Text},
		{Name: "threads", Type: Integer},
	}

	got := Statement("processes", schema)
	want := "CREATE TABLE processes(pid BIGINT, name TEXT, threads INTEGER)"
	if got != want {
		t.Errorf("Statement() = %q, want %q", got, want)
	}
}

func TestParseColumnType(t *testing.T) {
	tests := []struct {
		in      string
		want    ColumnType
		wantErr bool
	}{
		{in: "TEXT", want: Text},
		{in: "integer", want: Integer},
		{in: " BigInt ", want: BigInt},
		{in: "DOUBLE", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColumnType(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseColumnType(%q) expected error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseColumnType(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseColumnType(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSchemaIndex(t *testing.T) {
	schema := Schema{{Name: "a", Type: Text}, {Name: "b", Type: Text}}
	if got := schema.Index("b"); got != 1 {
		t.Errorf("Index(b) = %d, want 1", got)
	}
	if got := schema.Index("missing"); got != -1 {
		t.Errorf("Index(missing) = %d, want -1", got)
	}
}
