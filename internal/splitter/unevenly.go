package splitter

import (
	"context"

	"github.com/arnkore/chunksplit/internal/chunkrange"
	"github.com/arnkore/chunksplit/internal/dbadapter"
	"github.com/arnkore/chunksplit/internal/keyvalue"
	log "github.com/sirupsen/logrus"
)

// splitUnevenlySized discovers chunk boundaries by repeatedly asking the
// server for the next split-size-th value past the previous boundary.
// Used for non-evenly-splittable keys and for evenly-splittable keys
// that are sparse but below the sampling threshold.
func (s *Splitter) splitUnevenlySized(ctx context.Context, table dbadapter.TableID, col string, min, max keyvalue.Value) ([]chunkrange.Range, error) {
	log.WithFields(log.Fields{"table": table.String(), "column": col, "split_size": s.cfg.SplitSize}).
		Info("using unevenly-sized chunking")

	var chunks []chunkrange.Range
	var start *keyvalue.Value

	end, err := s.nextChunkEnd(ctx, table, col, nil, max)
	if err != nil {
		return nil, err
	}

	count := 0
	for end != nil {
		// nextChunkEnd already guarantees end < max whenever it
		// returns non-nil, so every iteration here emits a valid
		// middle chunk.
		chunks = append(chunks, chunkrange.Of(start, end))
		throttle(ctx, count, table)
		count++
		start = end

		end, err = s.nextChunkEnd(ctx, table, col, start, max)
		if err != nil {
			return nil, err
		}
	}
	chunks = append(chunks, chunkrange.Of(start, nil))
	return chunks, nil
}

// nextChunkEnd queries the adapter for the next boundary after
// previousEnd, advancing past "no progress" (a next-chunk-max result
// equal to previousEnd, which happens when duplicate values span a
// chunk boundary) and returning nil once the advance reaches or exceeds
// max.
func (s *Splitter) nextChunkEnd(ctx context.Context, table dbadapter.TableID, col string, previousEnd *keyvalue.Value, max keyvalue.Value) (*keyvalue.Value, error) {
	end, err := s.adapter.NextChunkMax(ctx, table, col, int32(s.cfg.SplitSize), previousEnd)
	if err != nil {
		return nil, err
	}
	if end == nil {
		return nil, nil
	}
	if previousEnd != nil && keyvalue.Equal(*previousEnd, *end) {
		end, err = s.adapter.QueryMin(ctx, table, col, *previousEnd)
		if err != nil {
			return nil, err
		}
		if end == nil {
			return nil, nil
		}
	}
	cmp, err := keyvalue.Compare(*end, max)
	if err != nil {
		return nil, &KeyTypeMismatchError{Err: err}
	}
	if cmp >= 0 {
		return nil, nil
	}
	return end, nil
}
