// Package dbadapter defines the database operations the splitter
// depends on and provides a MySQL-backed implementation. The splitter
// consumes this interface; it does not implement it.
package dbadapter

import (
	"context"

	"github.com/arnkore/chunksplit/internal/keyvalue"
)

// TableID identifies a table the splitter operates against.
type TableID struct {
	Database string
	Table    string
}

func (t TableID) String() string {
	return t.Database + "." + t.Table
}

// Adapter is the set of operations the splitter requires from the
// physical database driver. Implementations must serve every call
// within one splitter invocation over the same live connection (see
// getOrEstablishConnection on MySQLAdapter) since some backends use
// stateful cursors that need connection affinity.
type Adapter interface {
	// MinMax returns the minimum and maximum values of col in table.
	// Both returns are nil if the table is empty.
	MinMax(ctx context.Context, table TableID, col string) (min, max *keyvalue.Value, err error)

	// ApproximateRowCount returns a (possibly estimated) row count for
	// table, used only to compute the distribution factor and shard
	// count; it need not be exact.
	ApproximateRowCount(ctx context.Context, table TableID) (int64, error)

	// NextChunkMax returns the value of col at ordinal position size
	// strictly greater than after (nil after means "from the start of
	// the table"). When fewer than size rows remain it returns the
	// largest remaining value; it returns nil only if no rows remain.
	NextChunkMax(ctx context.Context, table TableID, col string, size int32, after *keyvalue.Value) (*keyvalue.Value, error)

	// QueryMin returns the smallest value of col strictly greater than
	// after, used to step past a run of duplicate values when
	// NextChunkMax makes no progress.
	QueryMin(ctx context.Context, table TableID, col string, after keyvalue.Value) (*keyvalue.Value, error)

	// SampleColumn returns a sorted sample of col's values, picking
	// approximately 1 row in every inverseRate.
	SampleColumn(ctx context.Context, table TableID, col string, inverseRate int32) ([]keyvalue.Value, error)

	// TableIdentifier returns the properly quoted, backend-specific
	// identifier for table, for use in generated SQL.
	TableIdentifier(table TableID) string
}
