package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dfc-go/internal/dfc"
)

var listing = []dfc.SerializedFile{
	{URI: "content://a/tree/r/document/1", Name: "photos", MimeType: dfc.MimeTypeDir, LastModified: -1, Flags: dfc.FlagDirSupportsCreate},
	{URI: "content://a/tree/r/document/2", Name: "IMG_001.jpg", Length: 2048, MimeType: "image/jpeg", LastModified: 0, Flags: dfc.FlagSupportsWrite | dfc.FlagSupportsDelete},
	{URI: "content://a/tree/r/document/3", Name: "notes.txt", Length: 3, LastModified: 1700000000000, MimeType: "text/plain", Flags: dfc.FlagsUnknown},
}

func TestFilterByName(t *testing.T) {
	got, err := filterByName(listing, "*.{jpg,txt}")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = filterByName(listing, "")
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = filterByName(listing, "IMG_*")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "IMG_001.jpg", got[0].Name)

	_, err = filterByName(listing, "[")
	assert.Error(t, err)
}

func TestFlagLetters(t *testing.T) {
	assert.Equal(t, "?????", flagLetters(dfc.FlagsUnknown))
	assert.Equal(t, "-----", flagLetters(0))
	assert.Equal(t, "wd-r-", flagLetters(dfc.FlagSupportsWrite|dfc.FlagSupportsDelete|dfc.FlagSupportsRename))
	assert.Equal(t, "--c-v", flagLetters(dfc.FlagDirSupportsCreate|dfc.FlagVirtualDocument))
}

func TestFormatModified(t *testing.T) {
	assert.Equal(t, "-", formatModified(-1))
	assert.Equal(t, "2023-11-14T22:13:20Z", formatModified(1700000000000))
}

func TestWriteListing(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeListing(&buf, listing, false))
		lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
		require.Len(t, lines, 3)
		assert.Equal(t, "photos\t0\tdir\t-\t--c--\tcontent://a/tree/r/document/1", lines[0])
		assert.True(t, strings.HasPrefix(lines[2], "notes.txt\t3\ttext/plain\t2023-11-14T22:13:20Z\t?????\t"))
	})

	t.Run("tabular", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeListing(&buf, listing, true))
		lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
		require.Len(t, lines, 4)
		assert.True(t, strings.HasPrefix(lines[0], "FLAGS"))
		assert.True(t, strings.HasSuffix(lines[2], "IMG_001.jpg"))
		assert.NotContains(t, buf.String(), "\t")
	})
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, listing[:1]))
	assert.Contains(t, buf.String(), `"name": "photos"`)
	assert.Contains(t, buf.String(), `"last_modified": -1`)
}
