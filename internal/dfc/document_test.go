package dfc_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dfc-go/internal/dfc"
	"dfc-go/internal/provider/memory"
	"dfc-go/internal/testutil"
)

func resolveRoot(t *testing.T, tt *testutil.TestTree) *dfc.TreeDocument {
	t.Helper()
	root, err := dfc.FromTreeURI(context.Background(), tt.Resolver, tt.TreeURI)
	require.NoError(t, err)
	require.NotNil(t, root)
	return root
}

func resolveTree(t *testing.T, tt *testutil.TestTree, documentID string) *dfc.TreeDocument {
	t.Helper()
	doc, err := dfc.FromTreeURI(context.Background(), tt.Resolver, tt.DocumentURI(documentID))
	require.NoError(t, err)
	require.NotNil(t, doc)
	return doc
}

func names(docs []dfc.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Name()
	}
	return out
}

func TestFromTreeURI(t *testing.T) {
	ctx := context.Background()
	tt := testutil.NewTestTree(t)

	t.Run("resolves root", func(t *testing.T) {
		root := resolveRoot(t, tt)
		assert.Equal(t, "root", root.Name())
		assert.True(t, root.IsDirectory())
		assert.False(t, root.IsFile())
		assert.Equal(t, "", root.Type())
		assert.Equal(t, dfc.MimeTypeDir, root.MimeType())
		assert.Nil(t, root.Parent())
		assert.Equal(t, tt.DocumentURI(memory.RootID).String(), root.URI().String())
	})

	t.Run("document inside tree becomes root", func(t *testing.T) {
		id := tt.MustAddFile(t, memory.RootID, "inner.txt", "text/plain", []byte("x"))
		doc := resolveTree(t, tt, id)
		assert.Equal(t, "inner.txt", doc.Name())
		assert.Equal(t, int64(1), doc.Length())
		assert.Equal(t, "txt", doc.Extension())
		assert.True(t, doc.IsFile())
	})

	t.Run("missing document is not found", func(t *testing.T) {
		tt.Logger.Reset()
		doc, err := dfc.FromTreeURI(ctx, tt.Resolver, dfc.BuildTreeDocumentURI(testutil.TestAuthority, "missing"))
		assert.NoError(t, err)
		assert.Nil(t, doc)
		assert.Empty(t, tt.Logger.Errors("resolve tree"), "not-found is logged below error level")
	})

	t.Run("non-tree uri is a caller error", func(t *testing.T) {
		_, err := dfc.FromTreeURI(ctx, tt.Resolver, dfc.BuildDocumentURI(testutil.TestAuthority, memory.RootID))
		assert.ErrorIs(t, err, dfc.ErrInvalidTreeURI)
		assert.ErrorIs(t, err, dfc.ErrUnsupported)
		assert.ErrorIs(t, err, errors.ErrUnsupported)

		_, err = dfc.FromTreeURI(ctx, tt.Resolver, dfc.FileURI("/tmp"))
		assert.ErrorIs(t, err, dfc.ErrInvalidTreeURI)
	})

	t.Run("unknown authority is not found", func(t *testing.T) {
		tt.Logger.Reset()
		doc, err := dfc.FromTreeURI(ctx, tt.Resolver, dfc.BuildTreeDocumentURI("com.example.other", "root"))
		assert.NoError(t, err)
		assert.Nil(t, doc)
		assert.Len(t, tt.Logger.Errors("resolve tree"), 1)
	})
}

func TestFromSingleURI(t *testing.T) {
	ctx := context.Background()
	tt := testutil.NewTestTree(t)
	id := tt.MustAddFile(t, memory.RootID, "photo.jpg", "image/jpeg", []byte("jpeg"))

	single, err := dfc.FromSingleURI(ctx, tt.Resolver, dfc.BuildDocumentURI(testutil.TestAuthority, id))
	require.NoError(t, err)
	require.NotNil(t, single)
	assert.Equal(t, "photo.jpg", single.Name())
	assert.Equal(t, "image/jpeg", single.Type())
	assert.Equal(t, int64(4), single.Length())

	for _, u := range []dfc.URI{
		tt.DocumentURI(id),
		tt.TreeURI,
		dfc.FileURI("/photo.jpg"),
		dfc.BuildDocumentURI(testutil.TestAuthority, "missing"),
		dfc.BuildDocumentURI("com.example.other", id),
	} {
		doc, err := dfc.FromSingleURI(ctx, tt.Resolver, u)
		assert.NoError(t, err, u.String())
		assert.Nil(t, doc, u.String())
	}
}

func TestListFiles(t *testing.T) {
	ctx := context.Background()
	tt := testutil.NewTestTree(t)
	dir := tt.MustAddDirectory(t, memory.RootID, "music")
	tt.MustAddFile(t, memory.RootID, "b.mp3", "audio/mpeg", []byte("bb"))
	tt.MustAddFile(t, memory.RootID, "a.txt", "text/plain", []byte("a"))
	root := resolveRoot(t, tt)

	t.Run("full projection in provider order", func(t *testing.T) {
		docs, err := root.ListFiles(ctx)
		require.NoError(t, err)
		require.Len(t, docs, 3)
		assert.Equal(t, []string{"music", "b.mp3", "a.txt"}, names(docs))

		assert.True(t, docs[0].IsDirectory())
		assert.Equal(t, int64(0), docs[0].Length())
		assert.Equal(t, int64(2), docs[1].Length())
		assert.Equal(t, "audio/mpeg", docs[1].MimeType())
		assert.NotEqual(t, int64(-1), docs[1].LastModified())
		assert.NotZero(t, docs[1].Flags()&dfc.FlagSupportsWrite)
		assert.Equal(t, tt.DocumentURI(dir).String(), docs[0].URI().String())
		for _, d := range docs {
			assert.Same(t, root, d.Parent())
		}
	})

	t.Run("narrow projection takes defaults", func(t *testing.T) {
		docs, err := root.ListFiles(ctx, dfc.ColumnDisplayName)
		require.NoError(t, err)
		require.Len(t, docs, 3)
		for _, d := range docs {
			assert.Equal(t, 0, d.Flags(), "absent flags default to 0")
			assert.Equal(t, "", d.MimeType())
			assert.Equal(t, int64(0), d.Length())
			assert.Equal(t, int64(-1), d.LastModified())
			assert.False(t, d.IsVirtual())
			assert.False(t, d.IsFile())
			assert.False(t, d.IsDirectory())
		}
		assert.Equal(t, []string{"music", "b.mp3", "a.txt"}, names(docs))
	})

	t.Run("id only projection", func(t *testing.T) {
		docs, err := root.ListFiles(ctx, dfc.ColumnDocumentID)
		require.NoError(t, err)
		require.Len(t, docs, 3)
		assert.Equal(t, "", docs[0].Name())
		assert.Equal(t, tt.DocumentURI(dir).String(), docs[0].URI().String())
	})

	t.Run("count matches listing", func(t *testing.T) {
		n, err := root.Count(ctx)
		require.NoError(t, err)
		for _, projection := range [][]string{nil, {dfc.ColumnDisplayName}, {dfc.ColumnFlags, dfc.ColumnSize}} {
			docs, err := root.ListFiles(ctx, projection...)
			require.NoError(t, err)
			assert.Len(t, docs, n)
		}

		music := resolveTree(t, tt, dir)
		n, err = music.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
		docs, err := music.ListFiles(ctx)
		require.NoError(t, err)
		assert.NotNil(t, docs, "empty directory lists as an empty slice")
		assert.Empty(t, docs)
	})

	t.Run("files cannot be listed", func(t *testing.T) {
		docs, err := root.ListFiles(ctx)
		require.NoError(t, err)
		file := docs[2].(*dfc.TreeDocument)

		_, err = file.ListFiles(ctx)
		assert.ErrorIs(t, err, dfc.ErrNotDirectory)
		assert.ErrorIs(t, err, dfc.ErrUnsupported)
		_, err = file.Count(ctx)
		assert.ErrorIs(t, err, dfc.ErrNotDirectory)
		_, err = file.FindFile(ctx, "x")
		assert.ErrorIs(t, err, dfc.ErrNotDirectory)
	})
}

// rowsProvider serves one directory whose children are fixed cursor rows.
type rowsProvider struct {
	children [][]any
}

func (p *rowsProvider) Authority() string { return "com.example.rows" }

func (p *rowsProvider) QueryDocument(_ context.Context, documentID string, _ []string) (dfc.Cursor, error) {
	c := dfc.NewMatrixCursor([]string{dfc.ColumnDocumentID, dfc.ColumnDisplayName, dfc.ColumnMimeType}, 1)
	if err := c.AddRow(documentID, documentID, dfc.MimeTypeDir); err != nil {
		return nil, err
	}
	return c, nil
}

func (p *rowsProvider) QueryChildDocuments(context.Context, string, []string) (dfc.Cursor, error) {
	c := dfc.NewMatrixCursor([]string{dfc.ColumnDocumentID, dfc.ColumnDisplayName}, len(p.children))
	for _, row := range p.children {
		if err := c.AddRow(row...); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (p *rowsProvider) CreateDocument(context.Context, string, string, string) (string, error) {
	return "", errors.ErrUnsupported
}

func (p *rowsProvider) RenameDocument(context.Context, string, string) (string, error) {
	return "", errors.ErrUnsupported
}

func (p *rowsProvider) DeleteDocument(context.Context, string) error { return errors.ErrUnsupported }

func (p *rowsProvider) OpenDocumentReader(context.Context, string) (io.ReadCloser, error) {
	return nil, errors.ErrUnsupported
}

func (p *rowsProvider) OpenDocumentWriter(context.Context, string) (io.WriteCloser, error) {
	return nil, errors.ErrUnsupported
}

func TestListFiles_SkipsRowsWithoutID(t *testing.T) {
	ctx := context.Background()
	logger := testutil.NewRecordingLogger()
	r := dfc.NewContentResolver(logger, afero.NewMemMapFs())
	p := &rowsProvider{children: [][]any{
		{"a", "a.txt"},
		{nil, "orphan.txt"},
		{"b", "b.txt"},
	}}
	r.Register(p)

	root, err := dfc.FromTreeURI(ctx, r, dfc.BuildTreeDocumentURI(p.Authority(), "root"))
	require.NoError(t, err)
	require.NotNil(t, root)

	docs, err := root.ListFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt"}, names(docs))
	id, err := dfc.DocumentID(docs[1].URI())
	require.NoError(t, err)
	assert.Equal(t, "b", id)

	var warnings []testutil.LogEntry
	for _, e := range logger.Entries() {
		if e.Level == "WARN" {
			warnings = append(warnings, e)
		}
	}
	if assert.Len(t, warnings, 1) {
		assert.Equal(t, "list", warnings[0].Attrs["op"])
	}
}

func TestListFiles_LargeDirectoryKeepsOrder(t *testing.T) {
	ctx := context.Background()

	for _, n := range []int{5, 1000} {
		t.Run(fmt.Sprintf("%d entries", n), func(t *testing.T) {
			tt := testutil.NewTestTree(t)
			want := make([]string, n)
			for i := range want {
				want[i] = fmt.Sprintf("file-%04d.bin", n-i)
				tt.MustAddFile(t, memory.RootID, want[i], dfc.MimeTypeOctetStream, nil)
			}
			root := resolveRoot(t, tt)

			docs, err := root.ListFiles(ctx)
			require.NoError(t, err)
			assert.Equal(t, want, names(docs))

			count, err := root.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, n, count)
		})
	}
}

func TestFindFile(t *testing.T) {
	ctx := context.Background()
	tt := testutil.NewTestTree(t)
	tt.MustAddFile(t, memory.RootID, "Report.PDF", "application/pdf", nil)
	exact := tt.MustAddFile(t, memory.RootID, "report.pdf", "application/pdf", nil)
	root := resolveRoot(t, tt)

	found, err := root.FindFile(ctx, "report.pdf")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, tt.DocumentURI(exact).String(), found.URI().String(), "exact match wins over earlier case-insensitive match")

	found, err = root.FindFile(ctx, "REPORT.pdf")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Report.PDF", found.Name())

	found, err = root.FindFile(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	tt := testutil.NewTestTree(t)
	root := resolveRoot(t, tt)

	dir := root.CreateDirectory(ctx, "projects")
	require.NotNil(t, dir)
	assert.True(t, dir.IsDirectory())
	assert.True(t, dfc.IsTreeURI(dir.URI()), "children of a tree stay in the tree")

	file, err := dfc.CreateFile(ctx, dir, "text/plain", "plan.txt")
	require.NoError(t, err)
	require.NotNil(t, file)
	assert.Equal(t, "plan.txt", file.Name())
	assert.True(t, file.IsFile())
	assert.True(t, file.CanWrite())

	dup := dir.(*dfc.TreeDocument).CreateFile(ctx, "text/plain", "plan.txt")
	require.NotNil(t, dup)
	assert.Equal(t, "plan (1).txt", dup.Name())

	n, err := dfc.Count(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	t.Run("failure yields nil", func(t *testing.T) {
		tt.Logger.Reset()
		assert.Nil(t, root.CreateFile(ctx, "text/plain", "bad/name"))
		assert.Len(t, tt.Logger.Errors("create"), 1)
	})
}

func TestRenameThenFind(t *testing.T) {
	ctx := context.Background()
	tt := testutil.NewTestTree(t)
	tt.MustAddFile(t, memory.RootID, "A.txt", "text/plain", nil)
	root := resolveRoot(t, tt)

	doc, err := root.FindFile(ctx, "A.txt")
	require.NoError(t, err)
	require.NotNil(t, doc)

	ok, err := dfc.RenameTo(ctx, doc, "B.txt")
	require.NoError(t, err)
	require.True(t, ok)

	found, err := root.FindFile(ctx, "B.txt")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "B.txt", found.Name())
	assert.Equal(t, doc.URI().String(), found.URI().String())

	t.Run("conflicting rename fails", func(t *testing.T) {
		tt.MustAddFile(t, memory.RootID, "C.txt", "text/plain", nil)
		assert.False(t, found.(dfc.Renamer).RenameTo(ctx, "C.txt"))
		assert.Len(t, tt.Logger.Errors("rename"), 1)
	})
}

func TestDeleteAndExists(t *testing.T) {
	ctx := context.Background()
	tt := testutil.NewTestTree(t)
	dir := tt.MustAddDirectory(t, memory.RootID, "old")
	tt.MustAddFile(t, dir, "x.txt", "text/plain", nil)
	doc := resolveTree(t, tt, dir)

	assert.True(t, doc.Exists(ctx))
	assert.True(t, doc.Delete(ctx))
	assert.False(t, doc.Exists(ctx))
	assert.False(t, doc.Delete(ctx), "deleting twice fails")

	n, err := resolveRoot(t, tt).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSingleDocument_Unsupported(t *testing.T) {
	ctx := context.Background()
	tt := testutil.NewTestTree(t)
	id := tt.MustAddFile(t, memory.RootID, "a.txt", "text/plain", nil)
	single, err := dfc.FromSingleURI(ctx, tt.Resolver, dfc.BuildDocumentURI(testutil.TestAuthority, id))
	require.NoError(t, err)
	require.NotNil(t, single)

	var doc dfc.Document = single
	_, isLister := doc.(dfc.Lister)
	_, isCreator := doc.(dfc.Creator)
	_, isRenamer := doc.(dfc.Renamer)
	assert.False(t, isLister)
	assert.False(t, isCreator)
	assert.False(t, isRenamer)

	checks := map[string]error{}
	_, checks["list"] = dfc.ListFiles(ctx, doc)
	_, checks["count"] = dfc.Count(ctx, doc)
	_, checks["find"] = dfc.FindFile(ctx, doc, "a.txt")
	_, checks["create file"] = dfc.CreateFile(ctx, doc, "text/plain", "b.txt")
	_, checks["create directory"] = dfc.CreateDirectory(ctx, doc, "d")
	_, checks["rename"] = dfc.RenameTo(ctx, doc, "b.txt")
	for op, err := range checks {
		assert.ErrorIs(t, err, dfc.ErrUnsupported, op)
	}
}

func TestTreeDocument_CopyUnsupported(t *testing.T) {
	ctx := context.Background()
	tt := testutil.NewTestTree(t)
	id := tt.MustAddFile(t, memory.RootID, "a.txt", "text/plain", []byte("a"))
	doc := resolveTree(t, tt, id)

	_, err := dfc.CopyTo(ctx, doc, dfc.FileURI("/out.txt"))
	assert.ErrorIs(t, err, dfc.ErrUnsupported)
	_, err = dfc.CopyFrom(ctx, doc, dfc.FileURI("/in.txt"))
	assert.ErrorIs(t, err, dfc.ErrUnsupported)
}

func TestSingleDocument_Copy(t *testing.T) {
	ctx := context.Background()
	tt := testutil.NewTestTree(t)
	content := []byte("the quick brown fox")
	id := tt.MustAddFile(t, memory.RootID, "fox.txt", "text/plain", content)
	single, err := dfc.FromSingleURI(ctx, tt.Resolver, dfc.BuildDocumentURI(testutil.TestAuthority, id))
	require.NoError(t, err)
	require.NotNil(t, single)

	t.Run("copy to file", func(t *testing.T) {
		ok, err := dfc.CopyTo(ctx, single, dfc.FileURI("/fox-copy.txt"))
		require.NoError(t, err)
		require.True(t, ok)

		got, err := afero.ReadFile(tt.Fs, "/fox-copy.txt")
		require.NoError(t, err)
		assert.Equal(t, testutil.SHA256Hex(content), testutil.SHA256Hex(got))
	})

	t.Run("copy from file", func(t *testing.T) {
		replacement := []byte("jumps over the lazy dog")
		require.NoError(t, afero.WriteFile(tt.Fs, "/in.txt", replacement, 0644))

		require.True(t, single.CopyFrom(ctx, dfc.FileURI("/in.txt")))

		r, err := tt.Provider.OpenDocumentReader(ctx, id)
		require.NoError(t, err)
		got, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, replacement, got)
	})

	t.Run("missing source fails", func(t *testing.T) {
		tt.Logger.Reset()
		assert.False(t, single.CopyFrom(ctx, dfc.FileURI("/nope.txt")))
		assert.Len(t, tt.Logger.Errors("copy"), 1)
	})
}

func TestCanWritePolicy(t *testing.T) {
	tests := []struct {
		name     string
		mimeType string
		flags    int
		want     bool
	}{
		{"delete support alone", "text/plain", dfc.FlagSupportsDelete, true},
		{"directory with create", dfc.MimeTypeDir, dfc.FlagDirSupportsCreate, true},
		{"file with create only", "text/plain", dfc.FlagDirSupportsCreate, false},
		{"file with write", "text/plain", dfc.FlagSupportsWrite, true},
		{"directory with write", dfc.MimeTypeDir, dfc.FlagSupportsWrite, true},
		{"rename only", "text/plain", dfc.FlagSupportsRename, false},
		{"no flags", "text/plain", 0, false},
		{"unknown flags", "text/plain", dfc.FlagsUnknown, false},
		{"empty mime type", "", dfc.FlagSupportsDelete | dfc.FlagSupportsWrite, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tt := testutil.NewTestTree(t)
			var id string
			if tc.mimeType == dfc.MimeTypeDir {
				id = tt.MustAddDirectory(t, memory.RootID, "doc")
			} else {
				id = tt.MustAddFile(t, memory.RootID, "doc", "text/plain", nil)
			}
			require.NoError(t, tt.Provider.SetMimeType(id, tc.mimeType))
			require.NoError(t, tt.Provider.SetFlags(id, tc.flags))

			doc := resolveTree(t, tt, id)
			assert.Equal(t, tc.want, doc.CanWrite())
		})
	}
}

func TestPermissionGrants(t *testing.T) {
	ctx := context.Background()
	tt := testutil.NewTestTree(t)
	id := tt.MustAddFile(t, memory.RootID, "a.txt", "text/plain", nil)
	doc := resolveTree(t, tt, id)

	single, err := dfc.FromSingleURI(ctx, tt.Resolver, dfc.BuildDocumentURI(testutil.TestAuthority, id))
	require.NoError(t, err)
	require.NotNil(t, single)

	assert.True(t, doc.CanRead())
	assert.True(t, doc.CanWrite())
	assert.False(t, single.CanRead(), "tree grants do not cover direct document uris")

	tt.Resolver.Grant(single.URI(), dfc.AccessRead)
	assert.True(t, single.CanRead())
	assert.False(t, single.CanWrite())

	tt.Resolver.Revoke(tt.TreeURI, dfc.AccessWrite)
	assert.True(t, doc.CanRead())
	assert.False(t, doc.CanWrite())

	tt.Resolver.Revoke(tt.TreeURI, dfc.AccessRead)
	assert.False(t, doc.CanRead())
	assert.True(t, single.CanRead())
}

func TestEmptyMimeType(t *testing.T) {
	tt := testutil.NewTestTree(t)
	id := tt.MustAddFile(t, memory.RootID, "mystery", "application/octet-stream", nil)
	require.NoError(t, tt.Provider.SetMimeType(id, ""))

	doc := resolveTree(t, tt, id)
	assert.False(t, doc.IsFile())
	assert.False(t, doc.IsDirectory())
	assert.False(t, doc.CanRead())
	assert.False(t, doc.CanWrite())
}

func TestIsVirtual(t *testing.T) {
	tests := []struct {
		name  string
		flags int
		want  bool
	}{
		{"virtual bit", dfc.FlagVirtualDocument | dfc.FlagSupportsDelete, true},
		{"no virtual bit", dfc.FlagSupportsDelete, false},
		{"unknown flags", dfc.FlagsUnknown, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tt := testutil.NewTestTree(t)
			id := tt.MustAddFile(t, memory.RootID, "doc.bin", dfc.MimeTypeOctetStream, nil)
			require.NoError(t, tt.Provider.SetFlags(id, tc.flags))
			assert.Equal(t, tc.want, resolveTree(t, tt, id).IsVirtual())
		})
	}
}

func TestReResolveYieldsEqualMetadata(t *testing.T) {
	ctx := context.Background()
	tt := testutil.NewTestTree(t)
	id := tt.MustAddFile(t, memory.RootID, "same.txt", "text/plain", []byte("same"))

	first := dfc.Serialize(resolveTree(t, tt, id))
	second := dfc.Serialize(resolveTree(t, tt, id))
	assert.Equal(t, first, second)

	single, err := dfc.FromSingleURI(ctx, tt.Resolver, dfc.BuildDocumentURI(testutil.TestAuthority, id))
	require.NoError(t, err)
	again, err := dfc.FromSingleURI(ctx, tt.Resolver, single.URI())
	require.NoError(t, err)
	assert.Equal(t, dfc.Serialize(single), dfc.Serialize(again))
}

func TestProviderFailuresAreLogged(t *testing.T) {
	ctx := context.Background()
	tt := testutil.NewTestTree(t)
	id := tt.MustAddFile(t, memory.RootID, "a.txt", "text/plain", nil)
	root := resolveRoot(t, tt)
	file := resolveTree(t, tt, id)

	tt.Provider.Fail(errors.New("storage unmounted"))
	tt.Logger.Reset()

	docs, err := root.ListFiles(ctx)
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)

	n, err := root.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	assert.False(t, file.Exists(ctx))
	assert.False(t, file.Delete(ctx))
	assert.False(t, file.RenameTo(ctx, "b.txt"))
	assert.Nil(t, root.CreateDirectory(ctx, "d"))

	for _, op := range []string{"list", "count", "exists", "delete", "rename", "create"} {
		entries := tt.Logger.Errors(op)
		if assert.Len(t, entries, 1, op) {
			assert.Contains(t, fmt.Sprint(entries[0].Attrs["error"]), "storage unmounted")
			assert.NotEmpty(t, entries[0].Attrs["uri"])
		}
	}

	tt.Provider.Fail(nil)
	assert.True(t, file.Exists(ctx))
}
