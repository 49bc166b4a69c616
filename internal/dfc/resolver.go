package dfc

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/spf13/afero"
)

// ContentResolver routes URI-addressed calls to the DocumentsProvider
// registered for the URI's authority, and serves file URIs from a
// filesystem directly. It also holds the URI permissions granted to the caller.
// Errors are returned as-is; absorbing them is the job of the query layer.
type ContentResolver struct {
	logger    Logger
	fs        afero.Fs
	grants    *grantTable
	mu        sync.RWMutex
	providers map[string]DocumentsProvider
}

// NewContentResolver creates a resolver with no providers. fs serves file
// URIs and raw documents; nil means the host filesystem.
func NewContentResolver(logger Logger, fs afero.Fs) *ContentResolver {
	if logger == nil {
		logger = NewNopLogger()
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &ContentResolver{
		logger:    logger,
		fs:        fs,
		grants:    newGrantTable(),
		providers: make(map[string]DocumentsProvider),
	}
}

// Register makes p reachable under its authority, replacing any provider
// previously registered there.
func (r *ContentResolver) Register(p DocumentsProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Authority()] = p
}

// Authorities returns the registered authorities.
func (r *ContentResolver) Authorities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.providers))
	for a := range r.providers {
		out = append(out, a)
	}
	return out
}

// Logger returns the logger failures are reported to.
func (r *ContentResolver) Logger() Logger { return r.logger }

// Fs returns the filesystem used for file URIs and raw documents.
func (r *ContentResolver) Fs() afero.Fs { return r.fs }

// Grant records that the caller holds mode on u.
func (r *ContentResolver) Grant(u URI, mode AccessMode) { r.grants.grant(u, mode) }

// Revoke removes mode from the caller's permissions on u.
func (r *ContentResolver) Revoke(u URI, mode AccessMode) { r.grants.revoke(u, mode) }

// Grants returns the granted URIs and their modes.
func (r *ContentResolver) Grants() map[string]AccessMode { return r.grants.list() }

// CheckURIPermission reports whether the caller holds mode on u.
// File URIs are governed by the filesystem and always pass.
func (r *ContentResolver) CheckURIPermission(u URI, mode AccessMode) bool {
	if u.scheme == SchemeFile {
		return true
	}
	return r.grants.check(u, mode)
}

// IsDocumentURI reports whether u addresses a document of a registered provider.
func (r *ContentResolver) IsDocumentURI(u URI) bool {
	if !isDocumentPath(u) {
		return false
	}
	_, err := r.provider(u)
	return err == nil
}

func (r *ContentResolver) provider(u URI) (DocumentsProvider, error) {
	if u.scheme != SchemeContent {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrNotDocumentURI, u.scheme)
	}
	r.mu.RLock()
	p, ok := r.providers[u.authority]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAuthority, u.authority)
	}
	return p, nil
}

// Query runs a projected query. Document URIs yield one row, children URIs
// yield one row per child.
func (r *ContentResolver) Query(ctx context.Context, u URI, projection []string) (Cursor, error) {
	p, err := r.provider(u)
	if err != nil {
		return nil, err
	}
	id, err := DocumentID(u)
	if err != nil {
		return nil, err
	}
	if isChildrenPath(u) {
		return p.QueryChildDocuments(ctx, id, projection)
	}
	return p.QueryDocument(ctx, id, projection)
}

// CreateDocument creates a document under parent and returns its URI. When
// parent is reached through a tree, so is the result.
func (r *ContentResolver) CreateDocument(ctx context.Context, parent URI, mimeType, displayName string) (URI, error) {
	p, parentID, err := r.document(parent)
	if err != nil {
		return URI{}, err
	}
	id, err := p.CreateDocument(ctx, parentID, mimeType, displayName)
	if err != nil {
		return URI{}, err
	}
	return r.sibling(parent, id), nil
}

// RenameDocument renames the document at u and returns its possibly new URI.
func (r *ContentResolver) RenameDocument(ctx context.Context, u URI, displayName string) (URI, error) {
	p, id, err := r.document(u)
	if err != nil {
		return URI{}, err
	}
	newID, err := p.RenameDocument(ctx, id, displayName)
	if err != nil {
		return URI{}, err
	}
	if newID == "" || newID == id {
		return u, nil
	}
	return r.sibling(u, newID), nil
}

// DeleteDocument deletes the document at u.
func (r *ContentResolver) DeleteDocument(ctx context.Context, u URI) error {
	p, id, err := r.document(u)
	if err != nil {
		return err
	}
	return p.DeleteDocument(ctx, id)
}

// OpenInputStream opens u for reading. File URIs are opened on the filesystem.
func (r *ContentResolver) OpenInputStream(ctx context.Context, u URI) (io.ReadCloser, error) {
	if u.scheme == SchemeFile {
		return r.fs.Open(u.FilePath())
	}
	p, id, err := r.document(u)
	if err != nil {
		return nil, err
	}
	return p.OpenDocumentReader(ctx, id)
}

// OpenOutputStream opens u for writing, truncating existing content. File
// URIs are created if missing.
func (r *ContentResolver) OpenOutputStream(ctx context.Context, u URI) (io.WriteCloser, error) {
	if u.scheme == SchemeFile {
		return r.fs.OpenFile(u.FilePath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	}
	p, id, err := r.document(u)
	if err != nil {
		return nil, err
	}
	return p.OpenDocumentWriter(ctx, id)
}

func (r *ContentResolver) document(u URI) (DocumentsProvider, string, error) {
	p, err := r.provider(u)
	if err != nil {
		return nil, "", err
	}
	if !isDocumentPath(u) {
		return nil, "", fmt.Errorf("%w: %s", ErrNotDocumentURI, u)
	}
	id, err := DocumentID(u)
	if err != nil {
		return nil, "", err
	}
	return p, id, nil
}

// sibling builds the URI of documentID in the same addressing form as u.
func (r *ContentResolver) sibling(u URI, documentID string) URI {
	if IsTreeURI(u) {
		return BuildDocumentURIUsingTree(u, documentID)
	}
	return BuildDocumentURI(u.authority, documentID)
}
