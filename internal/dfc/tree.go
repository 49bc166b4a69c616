package dfc

import (
	"context"
	"fmt"
)

// TreeDocument is a document reached through a directory tree grant. It can
// list, create and rename, but has no stream of its own.
type TreeDocument struct {
	providerDocument
}

func newTreeDocument(r *ContentResolver, u URI, meta metadata) *TreeDocument {
	return &TreeDocument{providerDocument: newProviderDocument(r, u, meta)}
}

// FromTreeURI resolves the root of the tree granted by treeURI. treeURI may
// also address a document inside the tree, which then becomes the root.
// It returns nil when the document cannot be found, and ErrInvalidTreeURI
// when treeURI is not a tree URI at all.
func FromTreeURI(ctx context.Context, r *ContentResolver, treeURI URI) (*TreeDocument, error) {
	if !IsTreeURI(treeURI) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTreeURI, treeURI)
	}

	documentID := TreeDocumentID(treeURI)
	if isDocumentPath(treeURI) {
		documentID, _ = DocumentID(treeURI)
	}
	documentURI := BuildDocumentURIUsingTree(treeURI, documentID)

	doc := newTreeDocument(r, documentURI, metadata{})
	meta, ok := doc.queries.metadata(ctx, "resolve tree", documentURI)
	if !ok {
		return nil, nil
	}
	doc.meta = meta
	return doc, nil
}

func (d *TreeDocument) ListFiles(ctx context.Context, projection ...string) ([]Document, error) {
	if !d.IsDirectory() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, d.uri)
	}
	return d.queries.listFiles(ctx, d, projection), nil
}

func (d *TreeDocument) Count(ctx context.Context) (int, error) {
	if !d.IsDirectory() {
		return 0, fmt.Errorf("%w: %s", ErrNotDirectory, d.uri)
	}
	return d.queries.count(ctx, d.uri), nil
}

// FindFile lists the directory and scans the result; callers that already
// hold a listing should search it instead.
func (d *TreeDocument) FindFile(ctx context.Context, name string) (Document, error) {
	docs, err := d.ListFiles(ctx)
	if err != nil {
		return nil, err
	}
	return findByName(docs, name), nil
}

func (d *TreeDocument) CreateFile(ctx context.Context, mimeType, name string) Document {
	return d.create(ctx, mimeType, name)
}

func (d *TreeDocument) CreateDirectory(ctx context.Context, name string) Document {
	return d.create(ctx, MimeTypeDir, name)
}

// create asks the provider for a new child and resolves it afresh.
func (d *TreeDocument) create(ctx context.Context, mimeType, name string) Document {
	u, ok := d.queries.createDocument(ctx, d.uri, mimeType, name)
	if !ok {
		return nil
	}
	child, err := FromTreeURI(ctx, d.resolver, u)
	if err != nil || child == nil {
		return nil
	}
	return child
}

func (d *TreeDocument) RenameTo(ctx context.Context, name string) bool {
	u, ok := d.queries.renameDocument(ctx, d.uri, name)
	if !ok {
		return false
	}
	d.uri = u
	return true
}

// Compile-time check that TreeDocument implements its capability interfaces
var (
	_ Lister  = (*TreeDocument)(nil)
	_ Creator = (*TreeDocument)(nil)
	_ Renamer = (*TreeDocument)(nil)
)
