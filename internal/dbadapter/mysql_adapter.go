package dbadapter

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/arnkore/chunksplit/internal/keyvalue"
	"github.com/shopspring/decimal"
)

// MySQLAdapter implements Adapter against a *sql.DB using
// github.com/go-sql-driver/mysql. It lazily acquires a single
// *sql.Conn on first use and reuses it for every subsequent call from
// the same splitter invocation, since some of the queries below rely on
// session-scoped state and must all run against the one connection.
type MySQLAdapter struct {
	db *sql.DB

	mu      sync.Mutex
	conn    *sql.Conn
	colType map[string]string
}

// NewMySQLAdapter wraps an already-open connection pool.
func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// Close releases the borrowed connection, if one was acquired. The
// pool itself is owned by the caller and is not closed here.
func (a *MySQLAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.conn == nil {
		return nil
	}
	err := a.conn.Close()
	a.conn = nil
	return err
}

func (a *MySQLAdapter) getOrEstablishConnection(ctx context.Context) (*sql.Conn, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.conn != nil {
		return a.conn, nil
	}
	conn, err := a.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("establishing db connection: %w", err)
	}
	a.conn = conn
	return conn, nil
}

func (a *MySQLAdapter) TableIdentifier(table TableID) string {
	if table.Database == "" {
		return "`" + table.Table + "`"
	}
	return "`" + table.Database + "`.`" + table.Table + "`"
}

func quoteCol(col string) string {
	return "`" + col + "`"
}

func (a *MySQLAdapter) MinMax(ctx context.Context, table TableID, col string) (*keyvalue.Value, *keyvalue.Value, error) {
	conn, err := a.getOrEstablishConnection(ctx)
	if err != nil {
		return nil, nil, err
	}
	quotedCol := quoteCol(col)
	query := fmt.Sprintf("SELECT MIN(%s), MAX(%s) FROM %s", quotedCol, quotedCol, a.TableIdentifier(table))

	var rawMin, rawMax interface{}
	if err := conn.QueryRowContext(ctx, query).Scan(&rawMin, &rawMax); err != nil {
		return nil, nil, fmt.Errorf("querying min/max for %s.%s: %w", table, col, err)
	}
	if rawMin == nil || rawMax == nil {
		return nil, nil, nil
	}
	isDecimal := func() (bool, error) { return a.isDecimalColumn(ctx, table, col) }
	min, err := classify(rawMin, isDecimal)
	if err != nil {
		return nil, nil, fmt.Errorf("classifying min value for %s.%s: %w", table, col, err)
	}
	max, err := classify(rawMax, isDecimal)
	if err != nil {
		return nil, nil, fmt.Errorf("classifying max value for %s.%s: %w", table, col, err)
	}
	return &min, &max, nil
}

// ApproximateRowCount uses information_schema's cached TABLE_ROWS
// estimate rather than COUNT(*), since the whole point of the
// distribution factor is to avoid scanning the table.
func (a *MySQLAdapter) ApproximateRowCount(ctx context.Context, table TableID) (int64, error) {
	conn, err := a.getOrEstablishConnection(ctx)
	if err != nil {
		return 0, err
	}
	var count sql.NullInt64
	err = conn.QueryRowContext(ctx,
		"SELECT TABLE_ROWS FROM information_schema.TABLES WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?",
		table.Database, table.Table,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("querying approximate row count for %s: %w", table, err)
	}
	if !count.Valid {
		return 0, nil
	}
	return count.Int64, nil
}

func (a *MySQLAdapter) NextChunkMax(ctx context.Context, table TableID, col string, size int32, after *keyvalue.Value) (*keyvalue.Value, error) {
	conn, err := a.getOrEstablishConnection(ctx)
	if err != nil {
		return nil, err
	}
	quotedCol := quoteCol(col)
	var query string
	var args []interface{}
	if after == nil {
		query = fmt.Sprintf(
			"SELECT MAX(%s) FROM (SELECT %s FROM %s ORDER BY %s LIMIT ?) t",
			quotedCol, quotedCol, a.TableIdentifier(table), quotedCol)
		args = []interface{}{size}
	} else {
		query = fmt.Sprintf(
			"SELECT MAX(%s) FROM (SELECT %s FROM %s WHERE %s > ? ORDER BY %s LIMIT ?) t",
			quotedCol, quotedCol, a.TableIdentifier(table), quotedCol, quotedCol)
		args = []interface{}{after.Raw(), size}
	}
	var raw interface{}
	if err := conn.QueryRowContext(ctx, query, args...).Scan(&raw); err != nil {
		return nil, fmt.Errorf("querying next chunk max for %s.%s: %w", table, col, err)
	}
	if raw == nil {
		return nil, nil
	}
	v, err := classify(raw, func() (bool, error) { return a.isDecimalColumn(ctx, table, col) })
	if err != nil {
		return nil, fmt.Errorf("classifying next chunk max for %s.%s: %w", table, col, err)
	}
	return &v, nil
}

func (a *MySQLAdapter) QueryMin(ctx context.Context, table TableID, col string, after keyvalue.Value) (*keyvalue.Value, error) {
	conn, err := a.getOrEstablishConnection(ctx)
	if err != nil {
		return nil, err
	}
	quotedCol := quoteCol(col)
	query := fmt.Sprintf("SELECT MIN(%s) FROM %s WHERE %s > ?", quotedCol, a.TableIdentifier(table), quotedCol)
	var raw interface{}
	if err := conn.QueryRowContext(ctx, query, after.Raw()).Scan(&raw); err != nil {
		return nil, fmt.Errorf("querying min strictly greater than %s for %s.%s: %w", after, table, col, err)
	}
	if raw == nil {
		return nil, nil
	}
	v, err := classify(raw, func() (bool, error) { return a.isDecimalColumn(ctx, table, col) })
	if err != nil {
		return nil, fmt.Errorf("classifying query-min result for %s.%s: %w", table, col, err)
	}
	return &v, nil
}

func (a *MySQLAdapter) SampleColumn(ctx context.Context, table TableID, col string, inverseRate int32) ([]keyvalue.Value, error) {
	conn, err := a.getOrEstablishConnection(ctx)
	if err != nil {
		return nil, err
	}
	quotedCol := quoteCol(col)
	query := fmt.Sprintf(
		`SELECT %s FROM (SELECT %s, ROW_NUMBER() OVER (ORDER BY %s) AS rn FROM %s) sampled
		 WHERE sampled.rn %% ? = 0 ORDER BY %s`,
		quotedCol, quotedCol, quotedCol, a.TableIdentifier(table), quotedCol)
	rows, err := conn.QueryContext(ctx, query, inverseRate)
	if err != nil {
		return nil, fmt.Errorf("sampling %s.%s at rate 1/%d: %w", table, col, inverseRate, err)
	}
	defer rows.Close()

	isDecimal := func() (bool, error) { return a.isDecimalColumn(ctx, table, col) }
	var sample []keyvalue.Value
	for rows.Next() {
		var raw interface{}
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scanning sample row for %s.%s: %w", table, col, err)
		}
		v, err := classify(raw, isDecimal)
		if err != nil {
			return nil, fmt.Errorf("classifying sample row for %s.%s: %w", table, col, err)
		}
		sample = append(sample, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sample rows for %s.%s: %w", table, col, err)
	}
	return sample, nil
}

// classify turns a value returned by database/sql's driver-native
// scanning (int64, float64, []byte, string, time.Time, bool) into a
// keyvalue.Value, inferring the Kind from the driver's Go type.
// isDecimalColumn is consulted only for the textual ([]byte/string)
// case, where MySQL's wire protocol gives no type information of its
// own; it is a func rather than a bool so callers pay for the
// information_schema round trip only when the value is actually
// ambiguous.
func classify(raw interface{}, isDecimalColumn func() (bool, error)) (keyvalue.Value, error) {
	switch v := raw.(type) {
	case int64:
		return keyvalue.NewInt64(v), nil
	case uint64:
		return keyvalue.NewUint64(v), nil
	case float64:
		return keyvalue.NewFloat64(v), nil
	case float32:
		return keyvalue.NewFloat32(v), nil
	case bool:
		if v {
			return keyvalue.NewInt64(1), nil
		}
		return keyvalue.NewInt64(0), nil
	case time.Time:
		if v.Hour() == 0 && v.Minute() == 0 && v.Second() == 0 && v.Nanosecond() == 0 {
			return keyvalue.NewDate(v), nil
		}
		return keyvalue.NewTimestamp(v), nil
	case []byte:
		return classifyText(string(v), isDecimalColumn)
	case string:
		return classifyText(v, isDecimalColumn)
	default:
		return keyvalue.Value{}, fmt.Errorf("unsupported driver value type %T", raw)
	}
}

// classifyText decides whether a textual driver result (MySQL returns
// DECIMAL columns as text) is a decimal or a genuine string key. MySQL
// gives no shape guarantee for VARCHAR/CHAR values — a zero-padded code
// or zip code parses as a valid decimal just as readily as a real
// DECIMAL column's value does — so the decision is driven by the
// column's declared SQL type, not by sniffing whether the text happens
// to parse as a number.
func classifyText(s string, isDecimalColumn func() (bool, error)) (keyvalue.Value, error) {
	decimalColumn, err := isDecimalColumn()
	if err != nil {
		return keyvalue.Value{}, err
	}
	if !decimalColumn {
		return keyvalue.NewString(s), nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return keyvalue.Value{}, fmt.Errorf("parsing decimal column value %q: %w", s, err)
	}
	return keyvalue.NewDecimal(d), nil
}

// isDecimalColumn reports whether col's declared SQL type is
// DECIMAL/NUMERIC, the only MySQL types that come back over the wire as
// text but should be treated as keyvalue.KindDecimal rather than
// KindString.
func (a *MySQLAdapter) isDecimalColumn(ctx context.Context, table TableID, col string) (bool, error) {
	dataType, err := a.columnDataType(ctx, table, col)
	if err != nil {
		return false, err
	}
	switch dataType {
	case "decimal", "numeric":
		return true, nil
	default:
		return false, nil
	}
}

// columnDataType returns col's information_schema.COLUMNS.DATA_TYPE,
// caching the result since it cannot change within one splitter
// invocation and every chunking algorithm re-classifies values from the
// same column repeatedly.
func (a *MySQLAdapter) columnDataType(ctx context.Context, table TableID, col string) (string, error) {
	key := table.String() + "." + col

	a.mu.Lock()
	if dataType, ok := a.colType[key]; ok {
		a.mu.Unlock()
		return dataType, nil
	}
	a.mu.Unlock()

	conn, err := a.getOrEstablishConnection(ctx)
	if err != nil {
		return "", err
	}
	var dataType string
	err = conn.QueryRowContext(ctx,
		"SELECT DATA_TYPE FROM information_schema.COLUMNS WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? AND COLUMN_NAME = ?",
		table.Database, table.Table, col,
	).Scan(&dataType)
	if err != nil {
		return "", fmt.Errorf("querying column type for %s.%s: %w", table, col, err)
	}

	a.mu.Lock()
	if a.colType == nil {
		a.colType = make(map[string]string)
	}
	a.colType[key] = dataType
	a.mu.Unlock()
	return dataType, nil
}
