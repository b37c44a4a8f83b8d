// Package splitter implements the dynamic chunk splitter: the strategy
// selector and the three chunking algorithms it dispatches to. It is a
// one-shot, single-threaded component — a Splitter is built per
// (table, config) pair, produces its full chunk list synchronously,
// then is discarded.
package splitter

import (
	"context"
	"fmt"
	"math"

	"github.com/arnkore/chunksplit/internal/chunkrange"
	"github.com/arnkore/chunksplit/internal/config"
	"github.com/arnkore/chunksplit/internal/dbadapter"
	"github.com/arnkore/chunksplit/internal/keyvalue"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Split is a parameterized range query over a table, ready to be handed
// to the row reader.
type Split struct {
	TablePath  dbadapter.TableID
	TableIdent string // backend-quoted identifier for TablePath, from Adapter.TableIdentifier
	SplitID    string
	Query      string // user-supplied base SELECT, or "" for a direct table scan
	KeyName    string
	KeyType    keyvalue.Kind
	Start      *keyvalue.Value
	End        *keyvalue.Value
}

// Splitter computes the ordered chunk list for one table/split-column
// pair and turns it into a list of Splits.
type Splitter struct {
	adapter dbadapter.Adapter
	cfg     config.SplitterConfig
}

// New constructs a Splitter. Returns ConfigInvalidError if cfg fails
// validation.
func New(adapter dbadapter.Adapter, cfg config.SplitterConfig) (*Splitter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &ConfigInvalidError{Err: err}
	}
	return &Splitter{adapter: adapter, cfg: cfg}, nil
}

// Split runs the strategy selector and returns the full, ordered list
// of Splits for table/query over splitKeyName.
func (s *Splitter) Split(ctx context.Context, table dbadapter.TableID, query, splitKeyName string) ([]Split, error) {
	chunks, keyType, err := s.splitIntoChunks(ctx, table, splitKeyName)
	if err != nil {
		return nil, err
	}
	tableIdent := s.adapter.TableIdentifier(table)
	splits := make([]Split, 0, len(chunks))
	for i, chunk := range chunks {
		splits = append(splits, Split{
			TablePath:  table,
			TableIdent: tableIdent,
			SplitID:    fmt.Sprintf("%s-%d", table, i),
			Query:      query,
			KeyName:    splitKeyName,
			KeyType:    keyType,
			Start:      chunk.Start,
			End:        chunk.End,
		})
	}
	return splits, nil
}

// splitIntoChunks is the strategy selector. It returns the chosen
// key's Kind alongside the chunks so Split can stamp it onto each Split
// without a second round trip.
func (s *Splitter) splitIntoChunks(ctx context.Context, table dbadapter.TableID, col string) ([]chunkrange.Range, keyvalue.Kind, error) {
	min, max, err := s.adapter.MinMax(ctx, table, col)
	if err != nil {
		return nil, 0, fmt.Errorf("querying min/max for %s.%s: %w", table, col, err)
	}
	if min == nil || max == nil || keyvalue.Equal(*min, *max) {
		// Empty table, or a single distinct key value: one full scan.
		keyType := keyvalue.KindInt64
		if min != nil {
			keyType = min.Kind()
		}
		return []chunkrange.Range{chunkrange.All()}, keyType, nil
	}
	if min.Kind() != max.Kind() {
		return nil, 0, &KeyTypeMismatchError{Err: &keyvalue.KeyTypeMismatchError{Left: min.Kind(), Right: max.Kind()}}
	}
	keyType := min.Kind()

	log.WithFields(log.Fields{
		"table": table.String(), "column": col, "min": min.String(), "max": max.String(),
		"split_size": s.cfg.SplitSize,
	}).Info("splitting table into chunks")

	if !min.EvenlySplittable() {
		chunks, err := s.splitUnevenlySized(ctx, table, col, *min, *max)
		return chunks, keyType, err
	}

	rowCount, err := s.adapter.ApproximateRowCount(ctx, table)
	if err != nil {
		return nil, 0, fmt.Errorf("querying approximate row count for %s: %w", table, err)
	}

	factor, err := s.distributionFactor(*min, *max, rowCount)
	if err != nil {
		return nil, 0, err
	}

	evenlyDistributed := factor >= s.cfg.DistributionFactorLower && factor <= s.cfg.DistributionFactorUpper
	if evenlyDistributed {
		dynamicStride := int64(factor * float64(s.cfg.SplitSize))
		if dynamicStride < 1 {
			dynamicStride = 1
		}
		chunks, err := s.splitEvenlySized(*min, *max, rowCount, dynamicStride)
		return chunks, keyType, err
	}

	shardCount := int(rowCount / int64(s.cfg.SplitSize))
	if shardCount > s.cfg.SampleShardingThreshold {
		chunks, err := s.splitBySampling(ctx, table, col, rowCount, shardCount)
		return chunks, keyType, err
	}
	chunks, err := s.splitUnevenlySized(ctx, table, col, *min, *max)
	return chunks, keyType, err
}

// distributionFactor computes ceil_div((max-min)+1, N) to 4 fractional
// digits in arbitrary-precision decimal, then converts to float64 for
// comparison against the configured bounds.
func (s *Splitter) distributionFactor(min, max keyvalue.Value, rowCount int64) (float64, error) {
	if rowCount == 0 {
		return math.MaxFloat64, nil // treat as maximally sparse
	}
	diff, err := keyvalue.Minus(min, max)
	if err != nil {
		return 0, &KeyTypeMismatchError{Err: err}
	}
	numerator := diff.Abs().Add(decimal.NewFromInt(1))
	factor := ceilDiv4(numerator, decimal.NewFromInt(rowCount))
	return factor.InexactFloat64(), nil
}

// ceilDiv4 computes numerator/denominator rounded up (ceiling, never
// down) to 4 fractional digits, matching the source's
// BigDecimal.divide(..., 4, ROUND_CEILING). decimal.Decimal has no
// built-in ceiling-to-N-places rounding, so it is composed from a
// division truncated to 4 places plus one unit in the last place
// whenever that division leaves a remainder. Both operands are
// positive here.
func ceilDiv4(numerator, denominator decimal.Decimal) decimal.Decimal {
	quotient, remainder := numerator.QuoRem(denominator, 4)
	if remainder.Sign() > 0 {
		quotient = quotient.Add(decimal.New(1, -4))
	}
	return quotient
}
