package splitter

import (
	"testing"

	"github.com/arnkore/chunksplit/internal/config"
	"github.com/arnkore/chunksplit/internal/keyvalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEvenlySplitter(splitSize int) *Splitter {
	cfg := config.Default()
	cfg.SplitSize = splitSize
	return &Splitter{adapter: &fakeAdapter{}, cfg: cfg}
}

func TestSplitEvenlySized_SmallTable_YieldsOneFullScan(t *testing.T) {
	s := newEvenlySplitter(100)
	min, max := keyvalue.NewInt64(1), keyvalue.NewInt64(100)
	chunks, err := s.splitEvenlySized(min, max, 50, 10)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.True(t, chunks[0].IsAll())
}

func TestSplitEvenlySized_CoversWholeRangeInOrder(t *testing.T) {
	s := newEvenlySplitter(10)
	min, max := keyvalue.NewInt64(1), keyvalue.NewInt64(100)
	chunks, err := s.splitEvenlySized(min, max, 100000, 10)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	// First chunk open below, last open above, every interior chunk's
	// start equals the previous chunk's end (contiguous coverage).
	assert.Nil(t, chunks[0].Start)
	assert.Nil(t, chunks[len(chunks)-1].End)
	for i := 1; i < len(chunks); i++ {
		require.NotNil(t, chunks[i].Start)
		require.NotNil(t, chunks[i-1].End)
		assert.True(t, keyvalue.Equal(*chunks[i].Start, *chunks[i-1].End))
	}
}

func TestSplitEvenlySized_NoChunkIsDegenerate(t *testing.T) {
	s := newEvenlySplitter(10)
	min, max := keyvalue.NewInt64(1), keyvalue.NewInt64(100)
	chunks, err := s.splitEvenlySized(min, max, 100000, 10)
	require.NoError(t, err)
	for _, c := range chunks {
		assert.False(t, c.IsDegenerate())
	}
}

// Advancing from min by stride overflows int64 on the very first Plus
// call, before any chunk can be formed; the evenly-sized splitter
// falls back to a single full scan rather than erroring.
func TestSplitEvenlySized_StrideOverflow_FallsBackToFullScan(t *testing.T) {
	s := newEvenlySplitter(10)
	min := keyvalue.NewInt64(1)
	max := keyvalue.NewInt64(9223372036854775807) // math.MaxInt64
	chunks, err := s.splitEvenlySized(min, max, 1000000, 9223372036854775807)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.True(t, chunks[0].IsAll())
}

func TestSplitEvenlySized_ClosingChunkAbsorbsRemainder(t *testing.T) {
	s := newEvenlySplitter(10)
	min, max := keyvalue.NewInt64(0), keyvalue.NewInt64(97)
	chunks, err := s.splitEvenlySized(min, max, 1000, 25)
	require.NoError(t, err)
	// 0,25,50,75 are chunk starts; 97 doesn't divide evenly by 25, so the
	// last chunk absorbs [75, +inf) as the remainder rather than
	// producing a dangling [97,100) that would miss rows beyond 97.
	require.NotEmpty(t, chunks)
	assert.Nil(t, chunks[len(chunks)-1].End)
}
