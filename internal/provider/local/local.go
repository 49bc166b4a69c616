package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"

	"dfc-go/internal/dfc"
	"dfc-go/internal/provider/naming"
)

// LocalProvider exposes a directory tree as documents. Document ids have
// the form "<rootID>:<relative/path>", the root itself being "<rootID>:".
// Ids follow paths, so renaming a document changes its id.
type LocalProvider struct {
	authority string
	rootID    string
	fs        afero.Fs
}

// NewLocalProvider serves the whole of fs under rootID.
func NewLocalProvider(authority, rootID string, fs afero.Fs) *LocalProvider {
	return &LocalProvider{authority: authority, rootID: rootID, fs: fs}
}

// NewLocalProviderFromDir serves the host directory dir.
func NewLocalProviderFromDir(authority, rootID, dir string) (*LocalProvider, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("local provider root not accessible: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("local provider root is not a directory: %s", dir)
	}
	return NewLocalProvider(authority, rootID, afero.NewBasePathFs(afero.NewOsFs(), dir)), nil
}

func (p *LocalProvider) Authority() string { return p.authority }

// RootDocumentID returns the id of the root directory.
func (p *LocalProvider) RootDocumentID() string { return p.rootID + ":" }

// pathOf maps a document id onto a path of the provider filesystem.
func (p *LocalProvider) pathOf(documentID string) (string, error) {
	rel, ok := strings.CutPrefix(documentID, p.rootID+":")
	if !ok {
		return "", fmt.Errorf("%w: %s", dfc.ErrNotFound, documentID)
	}
	clean := path.Clean("/" + rel)
	if clean != "/"+rel {
		return "", fmt.Errorf("%w: non-canonical id %s", dfc.ErrNotFound, documentID)
	}
	return clean, nil
}

func (p *LocalProvider) idOf(filePath string) string {
	return p.rootID + ":" + strings.TrimPrefix(path.Clean(filePath), "/")
}

func (p *LocalProvider) row(filePath string, info fs.FileInfo) dfc.DocumentRow {
	writable := info.Mode().Perm()&0200 != 0
	isRoot := filePath == "/"

	var flags int
	mimeType := dfc.MimeTypeDir
	if info.IsDir() {
		if writable {
			flags |= dfc.FlagDirSupportsCreate
		}
	} else {
		mimeType = dfc.MimeTypeForName(info.Name())
		if writable {
			flags |= dfc.FlagSupportsWrite
		}
	}
	if writable && !isRoot {
		flags |= dfc.FlagSupportsDelete | dfc.FlagSupportsRename
	}

	name := info.Name()
	if isRoot {
		name = p.rootID
	}
	return dfc.DocumentRow{
		DocumentID:   p.idOf(filePath),
		DisplayName:  name,
		Size:         info.Size(),
		LastModified: info.ModTime().UnixMilli(),
		MimeType:     mimeType,
		Flags:        flags,
	}
}

func (p *LocalProvider) stat(documentID string) (string, fs.FileInfo, error) {
	filePath, err := p.pathOf(documentID)
	if err != nil {
		return "", nil, err
	}
	info, err := p.fs.Stat(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil, fmt.Errorf("%w: %s", dfc.ErrNotFound, documentID)
		}
		return "", nil, fmt.Errorf("stat %s: %w", documentID, err)
	}
	return filePath, info, nil
}

func (p *LocalProvider) QueryDocument(_ context.Context, documentID string, projection []string) (dfc.Cursor, error) {
	filePath, info, err := p.stat(documentID)
	if err != nil {
		return nil, err
	}
	return dfc.ProjectRows(projection, []dfc.DocumentRow{p.row(filePath, info)}), nil
}

func (p *LocalProvider) QueryChildDocuments(_ context.Context, parentDocumentID string, projection []string) (dfc.Cursor, error) {
	dirPath, info, err := p.stat(parentDocumentID)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", parentDocumentID)
	}
	entries, err := afero.ReadDir(p.fs, dirPath)
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}
	rows := make([]dfc.DocumentRow, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, p.row(path.Join(dirPath, entry.Name()), entry))
	}
	return dfc.ProjectRows(projection, rows), nil
}

func (p *LocalProvider) CreateDocument(_ context.Context, parentDocumentID, mimeType, displayName string) (string, error) {
	if !naming.Valid(displayName) {
		return "", fmt.Errorf("invalid display name %q", displayName)
	}
	dirPath, info, err := p.stat(parentDocumentID)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("parent is not a directory: %s", parentDocumentID)
	}

	taken, err := p.names(dirPath)
	if err != nil {
		return "", err
	}
	target := path.Join(dirPath, naming.Unique(displayName, taken))

	if mimeType == dfc.MimeTypeDir {
		if err := p.fs.Mkdir(target, 0755); err != nil {
			return "", fmt.Errorf("creating directory: %w", err)
		}
		return p.idOf(target), nil
	}
	f, err := p.fs.OpenFile(target, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing file: %w", err)
	}
	return p.idOf(target), nil
}

func (p *LocalProvider) names(dirPath string) (map[string]bool, error) {
	entries, err := afero.ReadDir(p.fs, dirPath)
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}
	taken := make(map[string]bool, len(entries))
	for _, e := range entries {
		taken[e.Name()] = true
	}
	return taken, nil
}

func (p *LocalProvider) RenameDocument(_ context.Context, documentID, displayName string) (string, error) {
	if !naming.Valid(displayName) {
		return "", fmt.Errorf("invalid display name %q", displayName)
	}
	filePath, _, err := p.stat(documentID)
	if err != nil {
		return "", err
	}
	if filePath == "/" {
		return "", fmt.Errorf("cannot rename root")
	}
	target := path.Join(path.Dir(filePath), displayName)
	if ok, _ := afero.Exists(p.fs, target); ok {
		return "", fmt.Errorf("name already exists: %s", displayName)
	}
	if err := p.fs.Rename(filePath, target); err != nil {
		return "", fmt.Errorf("renaming: %w", err)
	}
	return p.idOf(target), nil
}

func (p *LocalProvider) DeleteDocument(_ context.Context, documentID string) error {
	filePath, _, err := p.stat(documentID)
	if err != nil {
		return err
	}
	if filePath == "/" {
		return fmt.Errorf("cannot delete root")
	}
	if err := p.fs.RemoveAll(filePath); err != nil {
		return fmt.Errorf("deleting: %w", err)
	}
	return nil
}

func (p *LocalProvider) OpenDocumentReader(_ context.Context, documentID string) (io.ReadCloser, error) {
	filePath, info, err := p.stat(documentID)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("cannot open directory %s", documentID)
	}
	return p.fs.Open(filePath)
}

func (p *LocalProvider) OpenDocumentWriter(_ context.Context, documentID string) (io.WriteCloser, error) {
	filePath, info, err := p.stat(documentID)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("cannot open directory %s", documentID)
	}
	return p.fs.OpenFile(filePath, os.O_WRONLY|os.O_TRUNC, 0644)
}

// Compile-time check that LocalProvider implements dfc.DocumentsProvider interface
var _ dfc.DocumentsProvider = (*LocalProvider)(nil)
