// Package dfc resolves URIs and paths into documents and lists, creates,
// renames, deletes and copies them through DocumentsProviders or the filesystem.
package dfc

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Document is one file or directory, whichever mechanism backs it.
// Metadata is captured when the document is resolved or listed and is not
// refreshed; only a successful rename changes the URI.
type Document interface {
	URI() URI
	Name() string
	// Length is the size in bytes, 0 when unknown or for directories.
	Length() int64
	// LastModified is in epoch milliseconds, -1 when unknown.
	LastModified() int64
	// MimeType is the raw mime type column; "" means unknown.
	MimeType() string
	// Type is the mime type, or "" for directories.
	Type() string
	// Flags is the provider capability bitmask, FlagsUnknown if never queried.
	Flags() int
	// Extension is the part of the name after the last dot.
	Extension() string
	// Parent is the directory this document was listed from, or nil.
	Parent() Document

	IsDirectory() bool
	IsFile() bool
	IsVirtual() bool
	CanRead() bool
	CanWrite() bool
	Exists(ctx context.Context) bool
	Delete(ctx context.Context) bool
}

// Lister is implemented by documents whose children can be enumerated.
type Lister interface {
	Document
	// ListFiles returns the children in provider order. The optional
	// projection narrows the queried columns; the document id is always
	// included. A failed query yields an empty list. ErrNotDirectory is
	// returned when the document is not a directory.
	ListFiles(ctx context.Context, projection ...string) ([]Document, error)
	// Count returns the number of children without building documents.
	Count(ctx context.Context) (int, error)
	// FindFile returns the first child named name, matching exactly before
	// falling back to a case-insensitive match. It returns nil if none matches.
	FindFile(ctx context.Context, name string) (Document, error)
}

// Creator is implemented by documents that can create children.
type Creator interface {
	Document
	// CreateFile returns the created document, or nil if creation failed.
	CreateFile(ctx context.Context, mimeType, name string) Document
	// CreateDirectory returns the created directory, or nil if creation failed.
	CreateDirectory(ctx context.Context, name string) Document
}

// Renamer is implemented by documents that can be renamed in place.
type Renamer interface {
	Document
	// RenameTo renames the document and updates its URI on success.
	RenameTo(ctx context.Context, name string) bool
}

// Copier is implemented by documents that expose a byte stream.
type Copier interface {
	Document
	// CopyTo writes this document's bytes to destination.
	CopyTo(ctx context.Context, destination URI) bool
	// CopyFrom replaces this document's bytes with those of source.
	CopyFrom(ctx context.Context, source URI) bool
}

func unsupported(op string, doc Document) error {
	return fmt.Errorf("%w: %s on %T", ErrUnsupported, op, doc)
}

// ListFiles lists doc's children if its kind supports listing.
func ListFiles(ctx context.Context, doc Document, projection ...string) ([]Document, error) {
	l, ok := doc.(Lister)
	if !ok {
		return nil, unsupported("list", doc)
	}
	return l.ListFiles(ctx, projection...)
}

// Count counts doc's children if its kind supports listing.
func Count(ctx context.Context, doc Document) (int, error) {
	l, ok := doc.(Lister)
	if !ok {
		return 0, unsupported("count", doc)
	}
	return l.Count(ctx)
}

// FindFile looks up a child of doc by name if its kind supports listing.
func FindFile(ctx context.Context, doc Document, name string) (Document, error) {
	l, ok := doc.(Lister)
	if !ok {
		return nil, unsupported("find", doc)
	}
	return l.FindFile(ctx, name)
}

// CreateFile creates a file under doc if its kind supports creation.
func CreateFile(ctx context.Context, doc Document, mimeType, name string) (Document, error) {
	c, ok := doc.(Creator)
	if !ok {
		return nil, unsupported("create file", doc)
	}
	return c.CreateFile(ctx, mimeType, name), nil
}

// CreateDirectory creates a directory under doc if its kind supports creation.
func CreateDirectory(ctx context.Context, doc Document, name string) (Document, error) {
	c, ok := doc.(Creator)
	if !ok {
		return nil, unsupported("create directory", doc)
	}
	return c.CreateDirectory(ctx, name), nil
}

// RenameTo renames doc if its kind supports renaming.
func RenameTo(ctx context.Context, doc Document, name string) (bool, error) {
	r, ok := doc.(Renamer)
	if !ok {
		return false, unsupported("rename", doc)
	}
	return r.RenameTo(ctx, name), nil
}

// CopyTo copies doc's bytes to destination if its kind exposes a stream.
func CopyTo(ctx context.Context, doc Document, destination URI) (bool, error) {
	c, ok := doc.(Copier)
	if !ok {
		return false, unsupported("copy to", doc)
	}
	return c.CopyTo(ctx, destination), nil
}

// CopyFrom copies source's bytes into doc if its kind exposes a stream.
func CopyFrom(ctx context.Context, doc Document, source URI) (bool, error) {
	c, ok := doc.(Copier)
	if !ok {
		return false, unsupported("copy from", doc)
	}
	return c.CopyFrom(ctx, source), nil
}

// findByName scans docs for name, preferring an exact match.
func findByName(docs []Document, name string) Document {
	if doc, ok := lo.Find(docs, func(d Document) bool { return d.Name() == name }); ok {
		return doc
	}
	if doc, ok := lo.Find(docs, func(d Document) bool { return strings.EqualFold(d.Name(), name) }); ok {
		return doc
	}
	return nil
}

// metadata holds the queried fields of a document.
type metadata struct {
	name         string
	length       int64
	lastModified int64
	mimeType     string
	flags        int
}

// providerDocument carries the state and checks shared by tree and single
// documents, which are both backed by a DocumentsProvider.
type providerDocument struct {
	resolver *ContentResolver
	queries  *queries
	uri      URI
	meta     metadata
	parent   Document
}

func newProviderDocument(r *ContentResolver, u URI, meta metadata) providerDocument {
	return providerDocument{
		resolver: r,
		queries:  newQueries(r),
		uri:      u,
		meta:     meta,
	}
}

func (d *providerDocument) URI() URI            { return d.uri }
func (d *providerDocument) Name() string        { return d.meta.name }
func (d *providerDocument) Length() int64       { return d.meta.length }
func (d *providerDocument) LastModified() int64 { return d.meta.lastModified }
func (d *providerDocument) MimeType() string    { return d.meta.mimeType }
func (d *providerDocument) Flags() int          { return d.meta.flags }
func (d *providerDocument) Extension() string   { return extensionOf(d.meta.name) }
func (d *providerDocument) Parent() Document    { return d.parent }

func (d *providerDocument) Type() string {
	if d.meta.mimeType == MimeTypeDir {
		return ""
	}
	return d.meta.mimeType
}

// IsDirectory is decided by the mime type alone.
func (d *providerDocument) IsDirectory() bool {
	return d.meta.mimeType == MimeTypeDir
}

// IsFile is false for directories and for documents with no mime type.
func (d *providerDocument) IsFile() bool {
	return d.meta.mimeType != "" && d.meta.mimeType != MimeTypeDir
}

func (d *providerDocument) IsVirtual() bool {
	if !d.resolver.IsDocumentURI(d.uri) {
		return false
	}
	if d.meta.flags == FlagsUnknown {
		return false
	}
	return d.meta.flags&FlagVirtualDocument != 0
}

func (d *providerDocument) CanRead() bool {
	if !d.resolver.CheckURIPermission(d.uri, AccessRead) {
		return false
	}
	return d.meta.mimeType != ""
}

// CanWrite requires a write grant and a known mime type and flags. Then any
// of delete support, create support on a directory, or write support makes
// the document writable.
func (d *providerDocument) CanWrite() bool {
	if !d.resolver.CheckURIPermission(d.uri, AccessWrite) {
		return false
	}
	flags, mimeType := d.meta.flags, d.meta.mimeType
	if mimeType == "" || flags == FlagsUnknown {
		return false
	}
	if flags&FlagSupportsDelete != 0 {
		return true
	}
	if mimeType == MimeTypeDir && flags&FlagDirSupportsCreate != 0 {
		return true
	}
	return mimeType != "" && flags&FlagSupportsWrite != 0
}

func (d *providerDocument) Exists(ctx context.Context) bool {
	return d.queries.exists(ctx, d.uri)
}

func (d *providerDocument) Delete(ctx context.Context) bool {
	return d.queries.deleteDocument(ctx, d.uri)
}
