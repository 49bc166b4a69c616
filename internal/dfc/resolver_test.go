package dfc_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dfc-go/internal/dfc"
	"dfc-go/internal/provider/memory"
	"dfc-go/internal/testutil"
)

func TestContentResolver_Routing(t *testing.T) {
	ctx := context.Background()
	tt := testutil.NewTestTree(t)
	other := memory.NewMemoryProvider("com.example.other")
	tt.Resolver.Register(other)
	_, err := other.AddFile(memory.RootID, "elsewhere.txt", "text/plain", nil)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{testutil.TestAuthority, "com.example.other"}, tt.Resolver.Authorities())

	c, err := tt.Resolver.Query(ctx, dfc.BuildChildDocumentsURI("com.example.other", memory.RootID), []string{dfc.ColumnDisplayName})
	require.NoError(t, err)
	defer c.Close()
	require.Equal(t, 1, c.Count())
	require.True(t, c.Next())
	assert.Equal(t, "elsewhere.txt", c.String(0))

	_, err = tt.Resolver.Query(ctx, dfc.BuildDocumentURI("com.example.none", memory.RootID), nil)
	assert.ErrorIs(t, err, dfc.ErrUnknownAuthority)

	_, err = tt.Resolver.Query(ctx, dfc.FileURI("/x"), nil)
	assert.ErrorIs(t, err, dfc.ErrNotDocumentURI)

	_, err = tt.Resolver.Query(ctx, dfc.BuildDocumentURI(testutil.TestAuthority, "missing"), nil)
	assert.ErrorIs(t, err, dfc.ErrNotFound)
}

func TestContentResolver_IsDocumentURI(t *testing.T) {
	tt := testutil.NewTestTree(t)

	assert.True(t, tt.Resolver.IsDocumentURI(dfc.BuildDocumentURI(testutil.TestAuthority, "any")))
	assert.True(t, tt.Resolver.IsDocumentURI(tt.DocumentURI("any")))
	assert.False(t, tt.Resolver.IsDocumentURI(tt.TreeURI))
	assert.False(t, tt.Resolver.IsDocumentURI(dfc.BuildDocumentURI("com.example.none", "any")))
	assert.False(t, tt.Resolver.IsDocumentURI(dfc.FileURI("/any")))
}

func TestContentResolver_CreateKeepsAddressing(t *testing.T) {
	ctx := context.Background()
	tt := testutil.NewTestTree(t)

	viaTree, err := tt.Resolver.CreateDocument(ctx, tt.DocumentURI(memory.RootID), "text/plain", "a.txt")
	require.NoError(t, err)
	assert.True(t, dfc.IsTreeURI(viaTree))
	assert.Equal(t, memory.RootID, dfc.TreeDocumentID(viaTree))

	direct, err := tt.Resolver.CreateDocument(ctx, dfc.BuildDocumentURI(testutil.TestAuthority, memory.RootID), "text/plain", "b.txt")
	require.NoError(t, err)
	assert.False(t, dfc.IsTreeURI(direct))

	_, err = tt.Resolver.CreateDocument(ctx, tt.TreeURI, "text/plain", "c.txt")
	assert.ErrorIs(t, err, dfc.ErrNotDocumentURI, "bare tree uri names no document")

	renamed, err := tt.Resolver.RenameDocument(ctx, viaTree, "renamed.txt")
	require.NoError(t, err)
	assert.True(t, renamed.Equal(viaTree), "ids are stable across renames")
}

func TestContentResolver_Streams(t *testing.T) {
	ctx := context.Background()
	tt := testutil.NewTestTree(t)
	id := tt.MustAddFile(t, memory.RootID, "s.txt", "text/plain", []byte("old"))
	u := dfc.BuildDocumentURI(testutil.TestAuthority, id)

	w, err := tt.Resolver.OpenOutputStream(ctx, u)
	require.NoError(t, err)
	_, err = io.Copy(w, strings.NewReader("new content"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := tt.Resolver.OpenInputStream(ctx, u)
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "new content", string(got))

	fw, err := tt.Resolver.OpenOutputStream(ctx, dfc.FileURI("/f.txt"))
	require.NoError(t, err)
	_, err = fw.Write([]byte("on disk"))
	require.NoError(t, err)
	require.NoError(t, fw.Close())

	onDisk, err := afero.ReadFile(tt.Fs, "/f.txt")
	require.NoError(t, err)
	assert.Equal(t, "on disk", string(onDisk))

	_, err = tt.Resolver.OpenInputStream(ctx, tt.DocumentURI(memory.RootID))
	assert.Error(t, err, "directories have no stream")
}

func TestContentResolver_Grants(t *testing.T) {
	tt := testutil.NewTestTree(t)

	assert.True(t, tt.Resolver.CheckURIPermission(tt.DocumentURI("x"), dfc.AccessReadWrite))
	assert.True(t, tt.Resolver.CheckURIPermission(dfc.FileURI("/anything"), dfc.AccessWrite), "file uris are governed by the filesystem")
	assert.Equal(t, map[string]dfc.AccessMode{tt.TreeURI.String(): dfc.AccessReadWrite}, tt.Resolver.Grants())

	tt.Resolver.Revoke(tt.DocumentURI("x"), dfc.AccessReadWrite)
	assert.Empty(t, tt.Resolver.Grants(), "revoking through a tree document revokes the tree")
}

func TestNewContentResolver_Defaults(t *testing.T) {
	r := dfc.NewContentResolver(nil, nil)
	assert.NotNil(t, r.Logger())
	assert.IsType(t, &afero.OsFs{}, r.Fs())
	assert.Empty(t, r.Authorities())
}
