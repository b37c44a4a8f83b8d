// Package predicate turns a splitter.Split into a bindable SQL query,
// generating the WHERE clause that selects exactly the rows within one
// chunk's boundaries.
package predicate

import (
	"fmt"
	"strings"

	"github.com/arnkore/chunksplit/internal/splitter"
)

// Build returns the SQL text and bind arguments for split, wrapping
// split.Query (if set) or split.TableIdent (otherwise) in the WHERE
// clause dictated by split's Start/End:
//
//	Start  End    clause                                    bind order
//	nil    nil    (none)                                    -
//	nil    E      col <= ? AND NOT (col = ?)                 E, E
//	S      nil    col >= ?                                   S
//	S      E      col >= ? AND NOT (col = ?) AND col <= ?     S, E, E
//
// The "NOT (col = ?)" clause, rather than a plain "<", matches the
// source's handling of key types that have no natural exclusive
// upper-bound operator (e.g. when the comparison is driven by a
// collation the database, not Go, evaluates).
func Build(split *splitter.Split) (string, []interface{}) {
	from := baseFrom(split)

	switch {
	case split.Start == nil && split.End == nil:
		return from, nil

	case split.Start == nil:
		end := split.End.Raw()
		sql := fmt.Sprintf("%s WHERE %s <= ? AND NOT (%s = ?)", from, split.KeyName, split.KeyName)
		return sql, []interface{}{end, end}

	case split.End == nil:
		start := split.Start.Raw()
		sql := fmt.Sprintf("%s WHERE %s >= ?", from, split.KeyName)
		return sql, []interface{}{start}

	default:
		start, end := split.Start.Raw(), split.End.Raw()
		sql := fmt.Sprintf("%s WHERE %s >= ? AND NOT (%s = ?) AND %s <= ?", from, split.KeyName, split.KeyName, split.KeyName)
		return sql, []interface{}{start, end, end}
	}
}

// baseFrom returns the unfiltered source of rows for split: either the
// caller's own base query wrapped as a derived table, or a direct scan
// of the split's table.
func baseFrom(split *splitter.Split) string {
	if strings.TrimSpace(split.Query) != "" {
		return fmt.Sprintf("SELECT * FROM (%s) tmp", split.Query)
	}
	return fmt.Sprintf("SELECT * FROM %s", split.TableIdent)
}
