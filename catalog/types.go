package catalog

// DefaultBatchSize is the number of rows per record batch when ScanOptions.BatchSize
// is not set.
const DefaultBatchSize = 1024

// ScanOptions provides options for table scans.
type ScanOptions struct {
	// Columns to read. If nil/empty, all columns are read.
	Columns []string

	// Filter is the DuckDB filter pushdown JSON received with the endpoints action.
	// If nil, no predicates are pushed down.
	Filter []byte

	// Limit is maximum rows to return.
	// If 0 or negative, no limit.
	Limit int64

	// BatchSize is the maximum number of rows per record batch.
	// If 0, DefaultBatchSize is used.
	BatchSize int
}

func (o *ScanOptions) batchSize() int {
	if o == nil || o.BatchSize <= 0 {
		return DefaultBatchSize
	}
	return o.BatchSize
}
