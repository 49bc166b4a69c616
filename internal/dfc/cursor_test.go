package dfc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatrixCursor(t *testing.T) {
	c := NewMatrixCursor([]string{"a", "b"}, 2)
	require.NoError(t, c.AddRow("x", int64(7)))
	require.NoError(t, c.AddRow([]byte("y"), nil))
	assert.Error(t, c.AddRow("too few"))

	assert.Equal(t, 2, c.Count())
	assert.Equal(t, 1, c.ColumnIndex("b"))
	assert.Equal(t, -1, c.ColumnIndex("missing"))

	require.True(t, c.Next())
	assert.Equal(t, "x", c.String(0))
	assert.Equal(t, int64(7), c.Int64(1))
	assert.Equal(t, "7", c.String(1))

	require.True(t, c.Next())
	assert.Equal(t, "y", c.String(0))
	assert.True(t, c.IsNull(1))
	assert.Equal(t, int64(0), c.Int64(1))
	assert.True(t, c.IsNull(5), "out of range reads as null")

	assert.False(t, c.Next())
	require.NoError(t, c.Close())
	assert.False(t, c.Next())
}

func TestProjectRows(t *testing.T) {
	rows := []DocumentRow{
		{DocumentID: "d", DisplayName: "dir", Size: 99, MimeType: MimeTypeDir},
		{DocumentID: "f", DisplayName: "f.txt", Size: 3, LastModified: 1000, MimeType: "text/plain", Flags: 2},
	}

	c := ProjectRows([]string{ColumnSize, "bogus", ColumnLastModified}, rows)
	assert.Equal(t, []string{ColumnSize, ColumnLastModified}, c.ColumnNames())

	require.True(t, c.Next())
	assert.True(t, c.IsNull(0), "directory size is null")
	assert.True(t, c.IsNull(1), "unknown last-modified is null")

	require.True(t, c.Next())
	assert.Equal(t, int64(3), c.Int64(0))
	assert.Equal(t, int64(1000), c.Int64(1))

	full := ProjectRows(nil, rows)
	assert.Equal(t, FullProjection, full.ColumnNames())
}
