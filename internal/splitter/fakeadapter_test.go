package splitter

import (
	"context"

	"github.com/arnkore/chunksplit/internal/dbadapter"
	"github.com/arnkore/chunksplit/internal/keyvalue"
)

// fakeAdapter is a hand-written dbadapter.Adapter double. Scenarios that
// need a live-looking MySQL surface are covered separately in
// internal/dbadapter with sqlmock; this package tests the splitter's own
// decision logic against canned adapter responses.
type fakeAdapter struct {
	min, max    *keyvalue.Value
	minMaxErr   error
	rowCount    int64
	rowCountErr error

	nextChunkMax func(after *keyvalue.Value) (*keyvalue.Value, error)
	queryMin     func(after keyvalue.Value) (*keyvalue.Value, error)

	sample     []keyvalue.Value
	sampleErr  error
	sampleRate int32 // last inverseRate passed to SampleColumn

	tableIdent string
}

func (f *fakeAdapter) MinMax(ctx context.Context, table dbadapter.TableID, col string) (*keyvalue.Value, *keyvalue.Value, error) {
	return f.min, f.max, f.minMaxErr
}

func (f *fakeAdapter) ApproximateRowCount(ctx context.Context, table dbadapter.TableID) (int64, error) {
	return f.rowCount, f.rowCountErr
}

func (f *fakeAdapter) NextChunkMax(ctx context.Context, table dbadapter.TableID, col string, size int32, after *keyvalue.Value) (*keyvalue.Value, error) {
	if f.nextChunkMax == nil {
		return nil, nil
	}
	return f.nextChunkMax(after)
}

func (f *fakeAdapter) QueryMin(ctx context.Context, table dbadapter.TableID, col string, after keyvalue.Value) (*keyvalue.Value, error) {
	if f.queryMin == nil {
		return nil, nil
	}
	return f.queryMin(after)
}

func (f *fakeAdapter) SampleColumn(ctx context.Context, table dbadapter.TableID, col string, inverseRate int32) ([]keyvalue.Value, error) {
	f.sampleRate = inverseRate
	return f.sample, f.sampleErr
}

func (f *fakeAdapter) TableIdentifier(table dbadapter.TableID) string {
	if f.tableIdent != "" {
		return f.tableIdent
	}
	return table.String()
}

func ptrV(v keyvalue.Value) *keyvalue.Value { return &v }
