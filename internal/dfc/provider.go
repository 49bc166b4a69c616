package dfc

import (
	"context"
	"io"
)

// DocumentsProvider serves documents under one authority. Documents are
// addressed by opaque ids; the ContentResolver maps URIs onto these calls.
//
// Query methods return a Cursor with the projected columns the provider
// knows about; unknown columns are left out of the result rather than
// failing the query. Missing documents are reported with an error wrapping
// ErrNotFound.
type DocumentsProvider interface {
	// Authority returns the authority this provider is registered under.
	Authority() string

	// QueryDocument returns a single-row cursor describing documentID.
	QueryDocument(ctx context.Context, documentID string, projection []string) (Cursor, error)

	// QueryChildDocuments returns one row per child of parentDocumentID.
	QueryChildDocuments(ctx context.Context, parentDocumentID string, projection []string) (Cursor, error)

	// CreateDocument creates a document under parentDocumentID and returns its id.
	// mimeType MimeTypeDir creates a directory.
	CreateDocument(ctx context.Context, parentDocumentID, mimeType, displayName string) (string, error)

	// RenameDocument renames documentID. It returns the new id, or "" if the
	// id did not change.
	RenameDocument(ctx context.Context, documentID, displayName string) (string, error)

	// DeleteDocument deletes documentID and, for directories, its descendants.
	DeleteDocument(ctx context.Context, documentID string) error

	// OpenDocumentReader opens the content of documentID for reading.
	OpenDocumentReader(ctx context.Context, documentID string) (io.ReadCloser, error)

	// OpenDocumentWriter opens documentID for writing, truncating existing content.
	// The content is committed when the writer is closed.
	OpenDocumentWriter(ctx context.Context, documentID string) (io.WriteCloser, error)
}
