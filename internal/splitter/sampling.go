package splitter

import (
	"context"

	"github.com/arnkore/chunksplit/internal/chunkrange"
	"github.com/arnkore/chunksplit/internal/dbadapter"
	"github.com/arnkore/chunksplit/internal/keyvalue"
	log "github.com/sirupsen/logrus"
)

// splitBySampling draws quantile boundaries from a sample of the
// column, used when the key is evenly-splittable but too sparse for
// arithmetic striding to be efficient.
func (s *Splitter) splitBySampling(ctx context.Context, table dbadapter.TableID, col string, rowCount int64, shardCount int) ([]chunkrange.Range, error) {
	rate := s.cfg.InverseSamplingRate
	if rate > s.cfg.SplitSize {
		log.WithFields(log.Fields{
			"inverse_sampling_rate": rate, "split_size": s.cfg.SplitSize,
		}).Warn("inverse sampling rate exceeds split size, clamping to split size")
		rate = s.cfg.SplitSize
	}

	log.WithFields(log.Fields{
		"table": table.String(), "row_count": rowCount, "shard_count": shardCount, "rate": rate,
	}).Info("using sampling-based sharding")

	sample, err := s.adapter.SampleColumn(ctx, table, col, int32(rate))
	if err != nil {
		return nil, err
	}

	if shardCount == 0 {
		return []chunkrange.Range{chunkrange.All()}, nil
	}
	if len(sample) == 0 {
		return []chunkrange.Range{chunkrange.All()}, nil
	}

	// perShard is the fractional sample-count-per-shard used for quantile
	// index picking (sample[floor(i*perShard)]). Truncating it to an int
	// before multiplying would collapse floor(i*perShard) into
	// i*floor(perShard), dropping the tail of the sample whenever
	// len(sample) isn't an exact multiple of shardCount.
	perShard := float64(len(sample)) / float64(shardCount)

	var chunks []chunkrange.Range
	if perShard <= 1 {
		// Degenerate case: the sample is smaller than or equal to the
		// shard count. This emits one chunk per gap around the sample
		// points (len(sample)+1, less any zero-width pair of equal
		// adjacent samples) regardless of shardCount, over-sharding
		// tiny samples. Preserved for
		// fidelity with the source behavior rather than "fixed" to
		// respect shardCount exactly — see DESIGN.md Open Question 2.
		chunks = appendIfNotDegenerate(chunks, chunkrange.Of(nil, chunkrange.Ptr(sample[0])))
		for i := 0; i < len(sample)-1; i++ {
			chunks = appendIfNotDegenerate(chunks, chunkrange.Of(chunkrange.Ptr(sample[i]), chunkrange.Ptr(sample[i+1])))
		}
		chunks = appendIfNotDegenerate(chunks, chunkrange.Of(chunkrange.Ptr(sample[len(sample)-1]), nil))
		return chunks, nil
	}

	for i := 0; i < shardCount; i++ {
		var start, end *keyvalue.Value
		if i > 0 {
			start = chunkrange.Ptr(sample[int(float64(i)*perShard)])
		}
		if i < shardCount-1 {
			end = chunkrange.Ptr(sample[int(float64(i+1)*perShard)])
		}
		chunks = appendIfNotDegenerate(chunks, chunkrange.Of(start, end))
	}
	return chunks, nil
}

// appendIfNotDegenerate skips a zero-width range rather than emitting
// it: quantile boundaries drawn from a sample with duplicate values can
// otherwise produce a chunk whose start equals its end.
func appendIfNotDegenerate(chunks []chunkrange.Range, r chunkrange.Range) []chunkrange.Range {
	if r.IsDegenerate() {
		return chunks
	}
	return append(chunks, r)
}
