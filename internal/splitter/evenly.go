package splitter

import (
	"github.com/arnkore/chunksplit/internal/chunkrange"
	"github.com/arnkore/chunksplit/internal/keyvalue"
	log "github.com/sirupsen/logrus"
)

// splitEvenlySized walks a densely-packed, evenly-splittable key domain
// in fixed arithmetic strides, producing contiguous chunks from min to
// max.
func (s *Splitter) splitEvenlySized(min, max keyvalue.Value, rowCount, stride int64) ([]chunkrange.Range, error) {
	log.WithFields(log.Fields{"row_count": rowCount, "split_size": s.cfg.SplitSize, "stride": stride}).
		Info("using evenly-sized chunking")

	if rowCount <= int64(s.cfg.SplitSize) {
		return []chunkrange.Range{chunkrange.All()}, nil
	}

	var chunks []chunkrange.Range
	var chunkStart *keyvalue.Value
	chunkEnd, err := keyvalue.Plus(min, stride)
	if err != nil {
		// Overflow before a single chunk could be formed: the whole
		// table is one chunk.
		return []chunkrange.Range{chunkrange.All()}, nil
	}

	for {
		cmp, err := keyvalue.Compare(chunkEnd, max)
		if err != nil {
			return nil, &KeyTypeMismatchError{Err: err}
		}
		if cmp > 0 {
			break
		}
		end := chunkEnd
		chunks = append(chunks, chunkrange.Of(chunkStart, &end))
		chunkStart = &end

		next, err := keyvalue.Plus(chunkEnd, stride)
		if err != nil {
			// Arithmetic overflow terminates the loop early; the
			// closing chunk below absorbs the remainder.
			break
		}
		chunkEnd = next
	}
	chunks = append(chunks, chunkrange.Of(chunkStart, nil))
	return chunks, nil
}
