package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"dfc-go/internal/dfc"
	"dfc-go/internal/provider/naming"
)

// RootID is the document id of the provider's root directory.
const RootID = "root"

const (
	fileFlags = dfc.FlagSupportsWrite | dfc.FlagSupportsDelete | dfc.FlagSupportsRename
	dirFlags  = dfc.FlagDirSupportsCreate | dfc.FlagSupportsDelete | dfc.FlagSupportsRename
)

type node struct {
	id       string
	parentID string
	name     string
	mimeType string
	flags    int
	content  []byte
	modified int64
	children []string
}

func (n *node) row() dfc.DocumentRow {
	return dfc.DocumentRow{
		DocumentID:   n.id,
		DisplayName:  n.name,
		Size:         int64(len(n.content)),
		LastModified: n.modified,
		MimeType:     n.mimeType,
		Flags:        n.flags,
	}
}

// MemoryProvider is an in-memory DocumentsProvider, useful for testing.
// Children are reported in creation order.
// This implementation is safe for concurrent use.
type MemoryProvider struct {
	authority string
	mu        sync.RWMutex
	nodes     map[string]*node
	failure   error
}

// NewMemoryProvider creates a provider holding an empty root directory.
func NewMemoryProvider(authority string) *MemoryProvider {
	root := &node{
		id:       RootID,
		name:     "root",
		mimeType: dfc.MimeTypeDir,
		flags:    dfc.FlagDirSupportsCreate,
		modified: time.Now().UnixMilli(),
	}
	return &MemoryProvider{
		authority: authority,
		nodes:     map[string]*node{RootID: root},
	}
}

func (p *MemoryProvider) Authority() string { return p.authority }

// RootDocumentID returns RootID.
func (p *MemoryProvider) RootDocumentID() string { return RootID }

// Fail makes every subsequent call return err, simulating revoked access or
// unmounted storage. Fail(nil) restores normal operation.
func (p *MemoryProvider) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failure = err
}

// AddFile adds a file under parentID and returns its id.
func (p *MemoryProvider) AddFile(parentID, name, mimeType string, content []byte) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n, err := p.add(parentID, name, mimeType)
	if err != nil {
		return "", err
	}
	n.content = append([]byte(nil), content...)
	return n.id, nil
}

// AddDirectory adds a directory under parentID and returns its id.
func (p *MemoryProvider) AddDirectory(parentID, name string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n, err := p.add(parentID, name, dfc.MimeTypeDir)
	if err != nil {
		return "", err
	}
	return n.id, nil
}

// SetFlags overrides the capability flags of a document.
func (p *MemoryProvider) SetFlags(documentID string, flags int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	n, err := p.lookup(documentID)
	if err != nil {
		return err
	}
	n.flags = flags
	return nil
}

// SetMimeType overrides the mime type of a document.
func (p *MemoryProvider) SetMimeType(documentID, mimeType string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	n, err := p.lookup(documentID)
	if err != nil {
		return err
	}
	n.mimeType = mimeType
	return nil
}

// add must be called with the lock held.
func (p *MemoryProvider) add(parentID, name, mimeType string) (*node, error) {
	parent, err := p.lookup(parentID)
	if err != nil {
		return nil, err
	}
	if parent.mimeType != dfc.MimeTypeDir {
		return nil, fmt.Errorf("parent %s is not a directory", parentID)
	}
	if !naming.Valid(name) {
		return nil, fmt.Errorf("invalid display name %q", name)
	}

	flags := fileFlags
	if mimeType == dfc.MimeTypeDir {
		flags = dirFlags
	}
	n := &node{
		id:       uuid.New().String(),
		parentID: parentID,
		name:     naming.Unique(name, p.childNames(parent)),
		mimeType: mimeType,
		flags:    flags,
		modified: time.Now().UnixMilli(),
	}
	p.nodes[n.id] = n
	parent.children = append(parent.children, n.id)
	return n, nil
}

func (p *MemoryProvider) childNames(parent *node) map[string]bool {
	names := make(map[string]bool, len(parent.children))
	for _, id := range parent.children {
		names[p.nodes[id].name] = true
	}
	return names
}

func (p *MemoryProvider) lookup(documentID string) (*node, error) {
	n, ok := p.nodes[documentID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", dfc.ErrNotFound, documentID)
	}
	return n, nil
}

func (p *MemoryProvider) QueryDocument(_ context.Context, documentID string, projection []string) (dfc.Cursor, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.failure != nil {
		return nil, p.failure
	}
	n, err := p.lookup(documentID)
	if err != nil {
		return nil, err
	}
	return dfc.ProjectRows(projection, []dfc.DocumentRow{n.row()}), nil
}

func (p *MemoryProvider) QueryChildDocuments(_ context.Context, parentDocumentID string, projection []string) (dfc.Cursor, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.failure != nil {
		return nil, p.failure
	}
	parent, err := p.lookup(parentDocumentID)
	if err != nil {
		return nil, err
	}
	rows := make([]dfc.DocumentRow, 0, len(parent.children))
	for _, id := range parent.children {
		rows = append(rows, p.nodes[id].row())
	}
	return dfc.ProjectRows(projection, rows), nil
}

func (p *MemoryProvider) CreateDocument(_ context.Context, parentDocumentID, mimeType, displayName string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failure != nil {
		return "", p.failure
	}
	n, err := p.add(parentDocumentID, displayName, mimeType)
	if err != nil {
		return "", fmt.Errorf("creating document: %w", err)
	}
	return n.id, nil
}

// RenameDocument keeps ids stable, so it always returns "".
func (p *MemoryProvider) RenameDocument(_ context.Context, documentID, displayName string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failure != nil {
		return "", p.failure
	}
	n, err := p.lookup(documentID)
	if err != nil {
		return "", err
	}
	if documentID == RootID {
		return "", fmt.Errorf("cannot rename root")
	}
	if !naming.Valid(displayName) {
		return "", fmt.Errorf("invalid display name %q", displayName)
	}
	siblings := p.childNames(p.nodes[n.parentID])
	delete(siblings, n.name)
	if siblings[displayName] {
		return "", fmt.Errorf("name already exists: %s", displayName)
	}
	n.name = displayName
	n.modified = time.Now().UnixMilli()
	return "", nil
}

func (p *MemoryProvider) DeleteDocument(_ context.Context, documentID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failure != nil {
		return p.failure
	}
	n, err := p.lookup(documentID)
	if err != nil {
		return err
	}
	if documentID == RootID {
		return fmt.Errorf("cannot delete root")
	}
	parent := p.nodes[n.parentID]
	for i, id := range parent.children {
		if id == documentID {
			parent.children = append(parent.children[:i], parent.children[i+1:]...)
			break
		}
	}
	p.deleteTree(n)
	return nil
}

func (p *MemoryProvider) deleteTree(n *node) {
	for _, id := range n.children {
		p.deleteTree(p.nodes[id])
	}
	delete(p.nodes, n.id)
}

func (p *MemoryProvider) OpenDocumentReader(_ context.Context, documentID string) (io.ReadCloser, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.failure != nil {
		return nil, p.failure
	}
	n, err := p.lookup(documentID)
	if err != nil {
		return nil, err
	}
	if n.mimeType == dfc.MimeTypeDir {
		return nil, fmt.Errorf("cannot open directory %s", documentID)
	}
	return io.NopCloser(bytes.NewReader(n.content)), nil
}

func (p *MemoryProvider) OpenDocumentWriter(_ context.Context, documentID string) (io.WriteCloser, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.failure != nil {
		return nil, p.failure
	}
	n, err := p.lookup(documentID)
	if err != nil {
		return nil, err
	}
	if n.mimeType == dfc.MimeTypeDir {
		return nil, fmt.Errorf("cannot open directory %s", documentID)
	}
	return &writer{provider: p, id: documentID}, nil
}

// writer buffers content and commits it on Close.
type writer struct {
	provider *MemoryProvider
	id       string
	buf      bytes.Buffer
}

func (w *writer) Write(b []byte) (int, error) { return w.buf.Write(b) }

func (w *writer) Close() error {
	w.provider.mu.Lock()
	defer w.provider.mu.Unlock()
	n, err := w.provider.lookup(w.id)
	if err != nil {
		return err
	}
	n.content = append([]byte(nil), w.buf.Bytes()...)
	n.modified = time.Now().UnixMilli()
	return nil
}

// Compile-time check that MemoryProvider implements dfc.DocumentsProvider interface
var _ dfc.DocumentsProvider = (*MemoryProvider)(nil)
