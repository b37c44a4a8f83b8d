package splitter

import (
	"context"
	"testing"

	"github.com/arnkore/chunksplit/internal/config"
	"github.com/arnkore/chunksplit/internal/keyvalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitBySampling_EmptySample_YieldsOneFullScan(t *testing.T) {
	adapter := &fakeAdapter{sample: nil}
	s := &Splitter{adapter: adapter, cfg: config.Default()}

	chunks, err := s.splitBySampling(context.Background(), tbl(), "id", 1000, 5)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.True(t, chunks[0].IsAll())
}

func TestSplitBySampling_ZeroShardCount_YieldsOneFullScan(t *testing.T) {
	sample := []keyvalue.Value{keyvalue.NewInt64(1), keyvalue.NewInt64(2)}
	adapter := &fakeAdapter{sample: sample}
	s := &Splitter{adapter: adapter, cfg: config.Default()}

	chunks, err := s.splitBySampling(context.Background(), tbl(), "id", 1000, 0)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
}

func TestSplitBySampling_NormalCase_ProducesShardCountBoundedChunks(t *testing.T) {
	sample := make([]keyvalue.Value, 0, 100)
	for i := 0; i < 100; i++ {
		sample = append(sample, keyvalue.NewInt64(int64(i)))
	}
	adapter := &fakeAdapter{sample: sample}
	s := &Splitter{adapter: adapter, cfg: config.Default()}

	chunks, err := s.splitBySampling(context.Background(), tbl(), "id", 10000, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, len(chunks))
	assert.Nil(t, chunks[0].Start)
	assert.Nil(t, chunks[len(chunks)-1].End)
}

func TestSplitBySampling_DuplicateSampleValues_SkipsDegenerateChunks(t *testing.T) {
	// Fewer distinct samples than shards: degenerate over-sharding
	// branch. A run of equal adjacent values must not produce a
	// zero-width chunk.
	sample := []keyvalue.Value{keyvalue.NewInt64(5), keyvalue.NewInt64(5), keyvalue.NewInt64(7)}
	adapter := &fakeAdapter{sample: sample}
	s := &Splitter{adapter: adapter, cfg: config.Default()}

	chunks, err := s.splitBySampling(context.Background(), tbl(), "id", 100, 3)
	require.NoError(t, err)
	for _, c := range chunks {
		assert.False(t, c.IsDegenerate())
	}
	// Expect (nil,5), (5,7), (7,nil) with the degenerate (5,5) skipped.
	require.Len(t, chunks, 3)
	assert.Nil(t, chunks[0].Start)
	assert.Equal(t, "5", chunks[0].End.String())
	assert.Equal(t, "5", chunks[1].Start.String())
	assert.Equal(t, "7", chunks[1].End.String())
	assert.Equal(t, "7", chunks[2].Start.String())
	assert.Nil(t, chunks[2].End)
}

func TestSplitBySampling_ClampsInverseSamplingRateToSplitSize(t *testing.T) {
	sample := []keyvalue.Value{keyvalue.NewInt64(1)}
	adapter := &fakeAdapter{sample: sample}
	cfg := config.Default()
	cfg.SplitSize = 100
	cfg.InverseSamplingRate = 10000
	s := &Splitter{adapter: adapter, cfg: cfg}

	_, err := s.splitBySampling(context.Background(), tbl(), "id", 1000, 1)
	require.NoError(t, err)
	assert.Equal(t, int32(100), adapter.sampleRate)
}

func TestSplitBySampling_SampleColumnError_Propagates(t *testing.T) {
	wantErr := assert.AnError
	adapter := &fakeAdapter{sampleErr: wantErr}
	s := &Splitter{adapter: adapter, cfg: config.Default()}

	_, err := s.splitBySampling(context.Background(), tbl(), "id", 1000, 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)
}
