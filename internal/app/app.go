package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"dfc-go/internal/config"
	"dfc-go/internal/dfc"
	"dfc-go/internal/provider"
)

// ErrOperationFailed is returned when the document layer reported failure.
// The cause has already been logged.
var ErrOperationFailed = errors.New("operation failed, see log for details")

// DFCApp is the application layer between the CLI and the dfc package.
// It constructs the resolver and providers from config, exposes high-level
// operations that accept raw strings (URIs or paths), and releases providers
// on Close.
type DFCApp struct {
	cfg       *config.Config
	resolver  *dfc.ContentResolver
	providers []provider.Rooted
	logger    dfc.Logger
	op        *Operation
	logFile   *os.File
}

// NewDFCApp creates a fully wired DFCApp from the given config.
// operation identifies the CLI command being run (e.g. "ls", "cp").
// Debug output goes to stderr when verbose is set.
// The caller must call Close when done.
func NewDFCApp(ctx context.Context, cfg *config.Config, operation string, verbose bool) (*DFCApp, error) {
	started := time.Now()
	opID := newOperationID(started)

	stderrLevel := slog.LevelWarn
	if verbose {
		stderrLevel = slog.LevelDebug
	}
	logger, logFile, err := newLogger(cfg.LogDir, opID, stderrLevel)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	a, err := newDFCApp(ctx, cfg, NewOperation(opID, operation, started), &slogAdapter{l: logger}, afero.NewOsFs())
	if err != nil {
		logFile.Close()
		return nil, err
	}
	a.logFile = logFile
	return a, nil
}

// newDFCApp wires providers and grants. fs serves raw paths and file URIs.
func newDFCApp(ctx context.Context, cfg *config.Config, op *Operation, logger dfc.Logger, fs afero.Fs) (*DFCApp, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	a := &DFCApp{
		cfg:      cfg,
		resolver: dfc.NewContentResolver(logger, fs),
		logger:   logger,
		op:       op,
	}

	for _, pc := range cfg.Providers {
		p, err := provider.NewProviderFromConfig(ctx, pc)
		if err != nil {
			a.closeProviders()
			return nil, fmt.Errorf("creating %s provider %s: %w", pc.Type, pc.Authority, err)
		}
		a.resolver.Register(p)
		a.providers = append(a.providers, p)
	}

	for _, g := range cfg.Grants {
		u, err := dfc.ParseURI(g.URI)
		if err != nil {
			a.closeProviders()
			return nil, fmt.Errorf("parsing grant uri: %w", err)
		}
		mode, err := dfc.ParseAccessMode(g.Mode)
		if err != nil {
			a.closeProviders()
			return nil, fmt.Errorf("parsing grant mode for %s: %w", g.URI, err)
		}
		a.resolver.Grant(u, mode)
	}

	return a, nil
}

// Resolver returns the resolver the app routes through.
func (a *DFCApp) Resolver() *dfc.ContentResolver { return a.resolver }

// Root describes the tree exposed by a configured provider.
type Root struct {
	Authority string
	TreeURI   dfc.URI
}

// Roots returns the tree URI of every configured provider, in config order.
func (a *DFCApp) Roots() []Root {
	roots := make([]Root, 0, len(a.providers))
	for _, p := range a.providers {
		roots = append(roots, Root{
			Authority: p.Authority(),
			TreeURI:   dfc.BuildTreeDocumentURI(p.Authority(), p.RootDocumentID()),
		})
	}
	return roots
}

// Open resolves location into a document. content:// URIs are resolved as
// tree documents when they carry a tree, and as single documents otherwise.
// file:// URIs and plain paths become raw documents.
func (a *DFCApp) Open(ctx context.Context, location string) (dfc.Document, error) {
	u, isURI, err := a.parseLocation(location)
	if err != nil {
		return nil, err
	}
	if !isURI || u.Scheme() == dfc.SchemeFile {
		return dfc.FromFile(a.resolver, u.FilePath()), nil
	}

	if dfc.IsTreeURI(u) {
		doc, err := dfc.FromTreeURI(ctx, a.resolver, u)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			return nil, fmt.Errorf("%w: %s", dfc.ErrNotFound, location)
		}
		return doc, nil
	}

	doc, err := dfc.FromSingleURI(ctx, a.resolver, u)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: %s", dfc.ErrNotFound, location)
	}
	return doc, nil
}

// parseLocation returns the URI for location. Plain paths are made absolute
// and returned as file URIs with isURI false.
func (a *DFCApp) parseLocation(location string) (dfc.URI, bool, error) {
	if strings.Contains(location, "://") {
		u, err := dfc.ParseURI(location)
		if err != nil {
			return dfc.URI{}, false, err
		}
		switch u.Scheme() {
		case dfc.SchemeContent, dfc.SchemeFile:
			return u, true, nil
		default:
			return dfc.URI{}, false, fmt.Errorf("unsupported scheme %q", u.Scheme())
		}
	}
	abs, err := filepath.Abs(location)
	if err != nil {
		return dfc.URI{}, false, fmt.Errorf("resolving path: %w", err)
	}
	return dfc.FileURI(abs), false, nil
}

// DocumentInfo is the metadata of a document plus its derived checks.
type DocumentInfo struct {
	dfc.SerializedFile
	Type        string `json:"type"`
	Extension   string `json:"extension"`
	IsDirectory bool   `json:"is_directory"`
	IsFile      bool   `json:"is_file"`
	IsVirtual   bool   `json:"is_virtual"`
	CanRead     bool   `json:"can_read"`
	CanWrite    bool   `json:"can_write"`
	Exists      bool   `json:"exists"`
}

func (a *DFCApp) describe(ctx context.Context, doc dfc.Document) *DocumentInfo {
	return &DocumentInfo{
		SerializedFile: dfc.Serialize(doc),
		Type:           doc.Type(),
		Extension:      doc.Extension(),
		IsDirectory:    doc.IsDirectory(),
		IsFile:         doc.IsFile(),
		IsVirtual:      doc.IsVirtual(),
		CanRead:        doc.CanRead(),
		CanWrite:       doc.CanWrite(),
		Exists:         doc.Exists(ctx),
	}
}

// Stat returns the metadata and checks of the document at location.
func (a *DFCApp) Stat(ctx context.Context, location string) (*DocumentInfo, error) {
	doc, err := a.Open(ctx, location)
	if err != nil {
		return nil, a.op.Record(location, err)
	}
	return a.describe(ctx, doc), a.op.Record(location, nil)
}

// List returns the children of the directory at location, projected to
// columns (all columns when empty).
func (a *DFCApp) List(ctx context.Context, location string, columns []string) ([]dfc.SerializedFile, error) {
	doc, err := a.Open(ctx, location)
	if err != nil {
		return nil, a.op.Record(location, err)
	}
	docs, err := dfc.ListFiles(ctx, doc, columns...)
	if err != nil {
		return nil, a.op.Record(location, err)
	}
	return dfc.SerializeAll(docs), a.op.Record(location, nil)
}

// Count returns the number of children of the directory at location.
func (a *DFCApp) Count(ctx context.Context, location string) (int, error) {
	doc, err := a.Open(ctx, location)
	if err != nil {
		return 0, a.op.Record(location, err)
	}
	n, err := dfc.Count(ctx, doc)
	return n, a.op.Record(location, err)
}

// MakeDirectory creates the directory name under the directory at parent.
func (a *DFCApp) MakeDirectory(ctx context.Context, parent, name string) (*dfc.SerializedFile, error) {
	doc, err := a.Open(ctx, parent)
	if err != nil {
		return nil, a.op.Record(parent, err)
	}
	created, err := dfc.CreateDirectory(ctx, doc, name)
	return a.created(parent, created, err)
}

// Touch creates an empty file name under the directory at parent. An empty
// mimeType is guessed from name. Raw directories append the registered
// extension of mimeType themselves, so a matching extension on name is
// dropped first.
func (a *DFCApp) Touch(ctx context.Context, parent, mimeType, name string) (*dfc.SerializedFile, error) {
	doc, err := a.Open(ctx, parent)
	if err != nil {
		return nil, a.op.Record(parent, err)
	}
	if mimeType == "" {
		mimeType = dfc.MimeTypeForName(name)
	}
	if _, raw := doc.(*dfc.RawDocument); raw {
		if ext := dfc.ExtensionFromMimeType(mimeType); ext != "" {
			name = strings.TrimSuffix(name, "."+ext)
		}
	}
	created, err := dfc.CreateFile(ctx, doc, mimeType, name)
	return a.created(parent, created, err)
}

func (a *DFCApp) created(parent string, doc dfc.Document, err error) (*dfc.SerializedFile, error) {
	if err != nil {
		return nil, a.op.Record(parent, err)
	}
	if doc == nil {
		return nil, a.op.Record(parent, ErrOperationFailed)
	}
	f := dfc.Serialize(doc)
	return &f, a.op.Record(parent, nil)
}

// Rename renames the document at location and returns its new URI.
func (a *DFCApp) Rename(ctx context.Context, location, name string) (dfc.URI, error) {
	doc, err := a.Open(ctx, location)
	if err != nil {
		return dfc.URI{}, a.op.Record(location, err)
	}
	ok, err := dfc.RenameTo(ctx, doc, name)
	if err != nil {
		return dfc.URI{}, a.op.Record(location, err)
	}
	if !ok {
		return dfc.URI{}, a.op.Record(location, ErrOperationFailed)
	}
	return doc.URI(), a.op.Record(location, nil)
}

// Remove deletes the document at location, recursively for directories.
func (a *DFCApp) Remove(ctx context.Context, location string) error {
	doc, err := a.Open(ctx, location)
	if err != nil {
		return a.op.Record(location, err)
	}
	if !doc.Delete(ctx) {
		return a.op.Record(location, ErrOperationFailed)
	}
	return a.op.Record(location, nil)
}

// Copy copies the bytes of the document at src to dst. dst is opened for
// writing directly, so it may be a path that does not exist yet. When src
// has no stream of its own (a tree document) the copy is driven from a raw
// destination instead.
func (a *DFCApp) Copy(ctx context.Context, src, dst string) error {
	source, err := a.Open(ctx, src)
	if err != nil {
		return a.op.Record(src, err)
	}
	dstURI, _, err := a.parseLocation(dst)
	if err != nil {
		return a.op.Record(dst, err)
	}

	ok, err := dfc.CopyTo(ctx, source, dstURI)
	if errors.Is(err, dfc.ErrUnsupported) && dstURI.Scheme() == dfc.SchemeFile {
		ok, err = dfc.CopyFrom(ctx, dfc.FromFile(a.resolver, dstURI.FilePath()), source.URI())
	}
	if err != nil {
		return a.op.Record(src, err)
	}
	if !ok {
		return a.op.Record(src, ErrOperationFailed)
	}
	return a.op.Record(src, nil)
}

func (a *DFCApp) closeProviders() error {
	var firstErr error
	for _, p := range a.providers {
		c, ok := p.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing provider %s: %w", p.Authority(), err)
		}
	}
	a.providers = nil
	return firstErr
}

// Close logs the operation summary and releases providers and the log file.
func (a *DFCApp) Close() error {
	a.logger.Info("operation finished",
		"operation", a.op.Name,
		"target", a.op.Target,
		"status", a.op.Status,
		"duration", time.Since(a.op.Started).Round(time.Millisecond).String())

	err := a.closeProviders()
	if a.logFile != nil {
		a.logFile.Close()
	}
	return err
}
