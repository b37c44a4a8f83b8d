// Package chunkrange defines the immutable half-open key interval the
// splitter emits: [start, end) with nullable endpoints meaning
// "unbounded below" / "unbounded above".
package chunkrange

import (
	"fmt"

	"github.com/arnkore/chunksplit/internal/keyvalue"
)

// Range is a half-open interval [Start, End) over the split key domain.
// A nil Start means "first chunk"; a nil End means "last chunk"; both
// nil means a full table scan.
type Range struct {
	Start *keyvalue.Value
	End   *keyvalue.Value
}

// All returns the fully-unbounded range representing a full table scan.
func All() Range {
	return Range{}
}

// Of constructs a Range from possibly-nil endpoints.
func Of(start, end *keyvalue.Value) Range {
	return Range{Start: start, End: end}
}

// IsDegenerate reports whether both endpoints are non-nil and compare
// equal — a zero-width range that a chunking algorithm should skip
// rather than emit, since it would contribute no rows and duplicate a
// boundary already covered by a neighboring chunk.
func (r Range) IsDegenerate() bool {
	return r.Start != nil && r.End != nil && keyvalue.Equal(*r.Start, *r.End)
}

// IsAll reports whether this range covers the entire key universe.
func (r Range) IsAll() bool {
	return r.Start == nil && r.End == nil
}

// IsFirst reports whether this is the first chunk in an emission
// (open below).
func (r Range) IsFirst() bool {
	return r.Start == nil
}

// IsLast reports whether this is the last chunk in an emission
// (open above).
func (r Range) IsLast() bool {
	return r.End == nil
}

func (r Range) String() string {
	start := "null"
	if r.Start != nil {
		start = r.Start.String()
	}
	end := "null"
	if r.End != nil {
		end = r.End.String()
	}
	return fmt.Sprintf("(%s, %s)", start, end)
}

// Ptr is a small helper for building *keyvalue.Value literals inline,
// e.g. Of(nil, Ptr(keyvalue.NewInt64(5))).
func Ptr(v keyvalue.Value) *keyvalue.Value {
	return &v
}
