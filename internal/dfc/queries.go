package dfc

import (
	"context"
	"errors"
)

// presizeThreshold is the row count above which listing allocates the
// result slice up front.
const presizeThreshold = 10

// queries issues provider calls on behalf of documents. Failures never
// cross this boundary: each is logged with the operation name and turned
// into a nil, false or empty result.
type queries struct {
	resolver *ContentResolver
	logger   Logger
}

func newQueries(r *ContentResolver) *queries {
	return &queries{resolver: r, logger: r.logger}
}

func (q *queries) logFailure(op string, u URI, err error) {
	if errors.Is(err, ErrNotFound) {
		q.logger.Debug("document not found", "op", op, "uri", u.String())
		return
	}
	q.logger.Error("provider call failed", "op", op, "uri", u.String(), "error", err)
}

// cursor runs a projected query, returning nil if it failed. The URI may
// have become invalid since it was obtained (permission revoked, storage
// unmounted, document deleted), so failure is an expected outcome.
func (q *queries) cursor(ctx context.Context, op string, u URI, projection []string) Cursor {
	c, err := q.resolver.Query(ctx, u, projection)
	if err != nil {
		q.logFailure(op, u, err)
		return nil
	}
	return c
}

// createDocument returns the new document's URI and false on failure.
func (q *queries) createDocument(ctx context.Context, parent URI, mimeType, name string) (URI, bool) {
	u, err := q.resolver.CreateDocument(ctx, parent, mimeType, name)
	if err != nil {
		q.logFailure("create", parent, err)
		return URI{}, false
	}
	return u, true
}

// renameDocument returns the renamed document's URI and false on failure.
func (q *queries) renameDocument(ctx context.Context, u URI, name string) (URI, bool) {
	renamed, err := q.resolver.RenameDocument(ctx, u, name)
	if err != nil {
		q.logFailure("rename", u, err)
		return URI{}, false
	}
	return renamed, true
}

func (q *queries) deleteDocument(ctx context.Context, u URI) bool {
	if err := q.resolver.DeleteDocument(ctx, u); err != nil {
		q.logFailure("delete", u, err)
		return false
	}
	return true
}

// exists reports whether a query on u's id column returns any row.
func (q *queries) exists(ctx context.Context, u URI) bool {
	c := q.cursor(ctx, "exists", u, idProjection)
	if c == nil {
		return false
	}
	defer c.Close()
	return c.Count() > 0
}

// count returns the number of children of the directory at u without
// materializing documents.
func (q *queries) count(ctx context.Context, u URI) int {
	childrenURI, ok := q.childrenURI(u)
	if !ok {
		return 0
	}
	c := q.cursor(ctx, "count", childrenURI, countProjection)
	if c == nil {
		return 0
	}
	defer c.Close()
	return c.Count()
}

// metadata reads the full projection of the document at u. It returns false
// when the query failed or produced no row.
func (q *queries) metadata(ctx context.Context, op string, u URI) (metadata, bool) {
	c := q.cursor(ctx, op, u, FullProjection)
	if c == nil {
		return metadata{}, false
	}
	defer c.Close()

	if !c.Next() {
		return metadata{}, false
	}
	cols := resolveColumns(c)
	_, meta, _ := cols.read(c)
	return meta, true
}

// listFiles queries the children of parent and builds one TreeDocument per
// row, each linked back to parent. Rows without a document id are skipped.
func (q *queries) listFiles(ctx context.Context, parent *TreeDocument, projection []string) []Document {
	childrenURI, ok := q.childrenURI(parent.uri)
	if !ok {
		return []Document{}
	}

	c := q.cursor(ctx, "list", childrenURI, normalizeProjection(projection))
	if c == nil {
		return []Document{}
	}
	defer c.Close()

	var docs []Document
	if n := c.Count(); n > presizeThreshold {
		docs = make([]Document, 0, n)
	}

	cols := resolveColumns(c)
	for c.Next() {
		id, meta, ok := cols.read(c)
		if !ok {
			q.logger.Warn("skipping row without document id", "op", "list", "uri", childrenURI.String())
			continue
		}
		child := newTreeDocument(parent.resolver, BuildDocumentURIUsingTree(parent.uri, id), meta)
		child.parent = parent
		docs = append(docs, child)
	}
	if docs == nil {
		docs = []Document{}
	}
	return docs
}

func (q *queries) childrenURI(u URI) (URI, bool) {
	id, err := DocumentID(u)
	if err != nil {
		q.logFailure("children", u, err)
		return URI{}, false
	}
	return BuildChildDocumentsURIUsingTree(u, id), true
}

// columnIndices holds column positions resolved once per cursor.
type columnIndices struct {
	id, name, size, modified, mime, flags int
}

func resolveColumns(c Cursor) columnIndices {
	return columnIndices{
		id:       c.ColumnIndex(ColumnDocumentID),
		name:     c.ColumnIndex(ColumnDisplayName),
		size:     c.ColumnIndex(ColumnSize),
		modified: c.ColumnIndex(ColumnLastModified),
		mime:     c.ColumnIndex(ColumnMimeType),
		flags:    c.ColumnIndex(ColumnFlags),
	}
}

// read extracts the current row. Absent or null columns take their
// defaults: "" for strings, 0 for size, -1 for last-modified and 0 for
// flags. Flags default to 0 rather than FlagsUnknown so that bit tests on
// a narrow projection never report capabilities. ok is false when the row
// has no document id.
func (ci columnIndices) read(c Cursor) (id string, meta metadata, ok bool) {
	id = stringOrDefault(c, ci.id, "")
	meta = metadata{
		name:         stringOrDefault(c, ci.name, ""),
		length:       int64OrDefault(c, ci.size, 0),
		lastModified: int64OrDefault(c, ci.modified, -1),
		mimeType:     stringOrDefault(c, ci.mime, ""),
		flags:        int(int64OrDefault(c, ci.flags, 0)),
	}
	return id, meta, ci.id != -1 && !c.IsNull(ci.id)
}

func stringOrDefault(c Cursor, index int, def string) string {
	if index == -1 || c.IsNull(index) {
		return def
	}
	return c.String(index)
}

func int64OrDefault(c Cursor, index int, def int64) int64 {
	if index == -1 || c.IsNull(index) {
		return def
	}
	return c.Int64(index)
}
