package dfc

import (
	"fmt"
	"strconv"
)

// Cursor gives sequential access to the rows returned by a provider query.
// Column positions are looked up once with ColumnIndex and then read per row.
// A Cursor must be closed when the caller is done with it.
type Cursor interface {
	// Count returns the total number of rows.
	Count() int
	// ColumnNames returns the columns present in the result, in order.
	ColumnNames() []string
	// ColumnIndex returns the position of name, or -1 if the column is absent.
	ColumnIndex(name string) int
	// Next advances to the next row. It returns false when no rows remain.
	Next() bool
	IsNull(index int) bool
	String(index int) string
	Int64(index int) int64
	Close() error
}

// MatrixCursor is an in-memory Cursor built row by row. Providers use it to
// return projected results.
type MatrixCursor struct {
	columns []string
	index   map[string]int
	rows    [][]any
	pos     int
	closed  bool
}

// NewMatrixCursor creates an empty cursor with the given columns. capacity
// pre-sizes the row storage.
func NewMatrixCursor(columns []string, capacity int) *MatrixCursor {
	index := make(map[string]int, len(columns))
	for i, col := range columns {
		if _, dup := index[col]; !dup {
			index[col] = i
		}
	}
	return &MatrixCursor{
		columns: columns,
		index:   index,
		rows:    make([][]any, 0, capacity),
		pos:     -1,
	}
}

// AddRow appends a row. values must match the column count; nil is a null value.
func (c *MatrixCursor) AddRow(values ...any) error {
	if len(values) != len(c.columns) {
		return fmt.Errorf("row has %d values, cursor has %d columns", len(values), len(c.columns))
	}
	c.rows = append(c.rows, values)
	return nil
}

func (c *MatrixCursor) Count() int { return len(c.rows) }

func (c *MatrixCursor) ColumnNames() []string {
	return append([]string(nil), c.columns...)
}

func (c *MatrixCursor) ColumnIndex(name string) int {
	if i, ok := c.index[name]; ok {
		return i
	}
	return -1
}

func (c *MatrixCursor) Next() bool {
	if c.closed || c.pos+1 >= len(c.rows) {
		return false
	}
	c.pos++
	return true
}

func (c *MatrixCursor) value(index int) any {
	if c.pos < 0 || c.pos >= len(c.rows) || index < 0 || index >= len(c.columns) {
		return nil
	}
	return c.rows[c.pos][index]
}

func (c *MatrixCursor) IsNull(index int) bool {
	return c.value(index) == nil
}

// String returns the value at index as a string, or "" for null.
func (c *MatrixCursor) String(index int) string {
	switch v := c.value(index).(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	default:
		return fmt.Sprint(v)
	}
}

// Int64 returns the value at index as an integer, or 0 for null or
// non-numeric values.
func (c *MatrixCursor) Int64(index int) int64 {
	switch v := c.value(index).(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	case []byte:
		n, _ := strconv.ParseInt(string(v), 10, 64)
		return n
	default:
		return 0
	}
}

func (c *MatrixCursor) Close() error {
	c.closed = true
	c.rows = nil
	return nil
}

// Compile-time check that MatrixCursor implements Cursor
var _ Cursor = (*MatrixCursor)(nil)

// DocumentRow is the metadata a provider knows about one document.
// Providers that keep metadata in Go values project it with ProjectRows.
type DocumentRow struct {
	DocumentID   string
	DisplayName  string
	Size         int64
	LastModified int64 // epoch millis, 0 when unknown
	MimeType     string
	Flags        int
}

// column returns the value of the named column, and false when the
// column is not one a DocumentRow can produce.
func (r DocumentRow) column(name string) (any, bool) {
	switch name {
	case ColumnDocumentID:
		return r.DocumentID, true
	case ColumnDisplayName:
		return r.DisplayName, true
	case ColumnSize:
		if r.MimeType == MimeTypeDir {
			return nil, true
		}
		return r.Size, true
	case ColumnLastModified:
		if r.LastModified == 0 {
			return nil, true
		}
		return r.LastModified, true
	case ColumnMimeType:
		return r.MimeType, true
	case ColumnFlags:
		return int64(r.Flags), true
	case ColumnIcon:
		return nil, true
	}
	return nil, false
}

// ProjectRows builds a cursor holding only the requested columns of rows.
// Columns no DocumentRow can produce are dropped from the result, so callers
// see them as absent. An empty projection means FullProjection.
func ProjectRows(projection []string, rows []DocumentRow) *MatrixCursor {
	if len(projection) == 0 {
		projection = FullProjection
	}
	var columns []string
	for _, col := range projection {
		if _, ok := (DocumentRow{}).column(col); ok {
			columns = append(columns, col)
		}
	}

	c := NewMatrixCursor(columns, len(rows))
	for _, row := range rows {
		values := make([]any, len(columns))
		for i, col := range columns {
			values[i], _ = row.column(col)
		}
		c.rows = append(c.rows, values)
	}
	return c
}
