package splitter

import (
	"context"
	"testing"

	"github.com/arnkore/chunksplit/internal/config"
	"github.com/arnkore/chunksplit/internal/dbadapter"
	"github.com/arnkore/chunksplit/internal/keyvalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tbl() dbadapter.TableID { return dbadapter.TableID{Database: "shop", Table: "orders"} }

func TestNew_RejectsInvalidConfig(t *testing.T) {
	_, err := New(&fakeAdapter{}, config.SplitterConfig{SplitSize: 0})
	require.Error(t, err)
	var invalid *ConfigInvalidError
	require.ErrorAs(t, err, &invalid)
}

// Scenario: empty table collapses to a single full-table scan.
func TestSplit_EmptyTable_YieldsOneFullScan(t *testing.T) {
	adapter := &fakeAdapter{}
	s, err := New(adapter, config.Default())
	require.NoError(t, err)

	splits, err := s.Split(context.Background(), tbl(), "", "id")
	require.NoError(t, err)
	require.Len(t, splits, 1)
	assert.Nil(t, splits[0].Start)
	assert.Nil(t, splits[0].End)
}

// Scenario: min == max (a single distinct key value) also collapses to
// one full scan, the same as an empty table.
func TestSplit_SingleDistinctValue_YieldsOneFullScan(t *testing.T) {
	v := keyvalue.NewInt64(42)
	adapter := &fakeAdapter{min: &v, max: &v, rowCount: 500}
	s, err := New(adapter, config.Default())
	require.NoError(t, err)

	splits, err := s.Split(context.Background(), tbl(), "", "id")
	require.NoError(t, err)
	require.Len(t, splits, 1)
	assert.True(t, splits[0].Start == nil && splits[0].End == nil)
}

// Scenario: a dense, evenly distributed integer key takes the
// arithmetic-stride path and produces more than one chunk.
func TestSplit_EvenlyDistributedKey_UsesEvenlySizedChunking(t *testing.T) {
	min, max := keyvalue.NewInt64(1), keyvalue.NewInt64(100000)
	adapter := &fakeAdapter{min: &min, max: &max, rowCount: 100000}
	cfg := config.Default()
	cfg.SplitSize = 8192
	s, err := New(adapter, cfg)
	require.NoError(t, err)

	splits, err := s.Split(context.Background(), tbl(), "", "id")
	require.NoError(t, err)
	assert.Greater(t, len(splits), 1)
	// First split is open below, last is open above.
	assert.Nil(t, splits[0].Start)
	assert.Nil(t, splits[len(splits)-1].End)
}

// Scenario: a non-evenly-splittable key (string) always takes the
// server-driven unevenly-sized path, regardless of distribution.
func TestSplit_StringKey_UsesUnevenlySizedChunking(t *testing.T) {
	min, max := keyvalue.NewString("a"), keyvalue.NewString("z")
	callCount := 0
	boundaries := []keyvalue.Value{keyvalue.NewString("m")}
	adapter := &fakeAdapter{
		min: &min, max: &max, rowCount: 100,
		nextChunkMax: func(after *keyvalue.Value) (*keyvalue.Value, error) {
			if callCount < len(boundaries) {
				b := boundaries[callCount]
				callCount++
				return &b, nil
			}
			return nil, nil
		},
	}
	s, err := New(adapter, config.Default())
	require.NoError(t, err)

	splits, err := s.Split(context.Background(), tbl(), "", "name")
	require.NoError(t, err)
	require.Len(t, splits, 2)
	assert.Nil(t, splits[0].Start)
	assert.Equal(t, "m", splits[0].End.String())
	assert.Equal(t, "m", splits[1].Start.String())
	assert.Nil(t, splits[1].End)
}

// Scenario: a sparse key (very wide range, few rows) whose shard count
// exceeds the sampling threshold uses sampling-based sharding.
func TestSplit_SparseKeyAboveSamplingThreshold_UsesSampling(t *testing.T) {
	min, max := keyvalue.NewInt64(1), keyvalue.NewInt64(1_000_000_000)
	sample := make([]keyvalue.Value, 0, 4000)
	for i := 0; i < 4000; i++ {
		sample = append(sample, keyvalue.NewInt64(int64(i*1000)+1))
	}
	adapter := &fakeAdapter{min: &min, max: &max, rowCount: 200_000, sample: sample}
	cfg := config.Default()
	cfg.SplitSize = 1000
	cfg.SampleShardingThreshold = 10
	s, err := New(adapter, cfg)
	require.NoError(t, err)

	splits, err := s.Split(context.Background(), tbl(), "", "id")
	require.NoError(t, err)
	assert.Greater(t, len(splits), 1)
}

func TestSplit_MismatchedMinMaxKind_ReturnsKeyTypeMismatchError(t *testing.T) {
	min, max := keyvalue.NewInt64(1), keyvalue.NewString("z")
	adapter := &fakeAdapter{min: &min, max: &max, rowCount: 100}
	s, err := New(adapter, config.Default())
	require.NoError(t, err)

	_, err = s.Split(context.Background(), tbl(), "", "id")
	require.Error(t, err)
	var mismatch *KeyTypeMismatchError
	require.ErrorAs(t, err, &mismatch)
}

func TestSplit_MinMaxError_IsWrapped(t *testing.T) {
	wantErr := assert.AnError
	adapter := &fakeAdapter{minMaxErr: wantErr}
	s, err := New(adapter, config.Default())
	require.NoError(t, err)

	_, err = s.Split(context.Background(), tbl(), "", "id")
	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)
}

// Split.TableIdent is stamped from the adapter's own quoting, not a
// literal Go-side string concatenation of Database + "." + Table.
func TestSplit_StampsAdapterQuotedTableIdent(t *testing.T) {
	v := keyvalue.NewInt64(1)
	adapter := &fakeAdapter{min: &v, max: &v, rowCount: 1, tableIdent: "`shop`.`orders`"}
	s, err := New(adapter, config.Default())
	require.NoError(t, err)

	splits, err := s.Split(context.Background(), tbl(), "", "id")
	require.NoError(t, err)
	assert.Equal(t, "`shop`.`orders`", splits[0].TableIdent)
}
