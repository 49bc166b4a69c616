package dfc

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// RawDocument is a document addressed by a filesystem path. It bypasses
// providers entirely and supports every operation; checks ask the
// filesystem directly rather than trusting captured metadata. Name and
// Extension keep the values captured at construction, even after RenameTo.
type RawDocument struct {
	resolver *ContentResolver
	fs       afero.Fs
	path     string
	meta     metadata
	parent   Document
}

// FromFile returns a document for path whether or not it exists. Relative
// paths are made absolute against the working directory. The mime type is
// looked up from the extension, defaulting to MimeTypeOctetStream, and is
// "" for directories.
func FromFile(r *ContentResolver, path string) *RawDocument {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return newRawDocument(r, filepath.Clean(path))
}

func newRawDocument(r *ContentResolver, path string) *RawDocument {
	meta := metadata{
		name:         filepath.Base(path),
		lastModified: -1,
		flags:        FlagsUnknown,
	}
	if info, err := r.fs.Stat(path); err == nil {
		meta.lastModified = info.ModTime().UnixMilli()
		if !info.IsDir() {
			meta.length = info.Size()
			meta.mimeType = MimeTypeForName(path)
		}
	} else {
		meta.mimeType = MimeTypeForName(path)
	}
	return &RawDocument{resolver: r, fs: r.fs, path: path, meta: meta}
}

// Path returns the filesystem path.
func (d *RawDocument) Path() string        { return d.path }
func (d *RawDocument) URI() URI            { return FileURI(d.path) }
func (d *RawDocument) Name() string        { return d.meta.name }
func (d *RawDocument) Length() int64       { return d.meta.length }
func (d *RawDocument) LastModified() int64 { return d.meta.lastModified }
func (d *RawDocument) MimeType() string    { return d.meta.mimeType }
func (d *RawDocument) Type() string        { return d.meta.mimeType }
func (d *RawDocument) Flags() int          { return d.meta.flags }
func (d *RawDocument) Parent() Document    { return d.parent }

func (d *RawDocument) Extension() string { return extensionOf(d.meta.name) }

func (d *RawDocument) IsDirectory() bool {
	info, err := d.fs.Stat(d.path)
	return err == nil && info.IsDir()
}

func (d *RawDocument) IsFile() bool {
	info, err := d.fs.Stat(d.path)
	return err == nil && info.Mode().IsRegular()
}

// IsVirtual is always false: files always have a byte representation.
func (d *RawDocument) IsVirtual() bool { return false }

func (d *RawDocument) CanRead() bool  { return canAccess(d.fs, d.path, AccessRead) }
func (d *RawDocument) CanWrite() bool { return canAccess(d.fs, d.path, AccessWrite) }

func (d *RawDocument) Exists(context.Context) bool {
	ok, err := afero.Exists(d.fs, d.path)
	return err == nil && ok
}

// Delete removes the document, recursively for directories.
func (d *RawDocument) Delete(context.Context) bool {
	if ok, _ := afero.Exists(d.fs, d.path); !ok {
		return false
	}
	if err := d.fs.RemoveAll(d.path); err != nil {
		d.resolver.logger.Error("deleting file", "op", "delete", "path", d.path, "error", err)
		return false
	}
	return true
}

func (d *RawDocument) ListFiles(ctx context.Context, _ ...string) ([]Document, error) {
	if !d.IsDirectory() {
		return nil, ErrNotDirectory
	}
	entries, err := afero.ReadDir(d.fs, d.path)
	if err != nil {
		d.resolver.logger.Error("reading directory", "op", "list", "path", d.path, "error", err)
		return []Document{}, nil
	}
	docs := make([]Document, 0, len(entries))
	for _, entry := range entries {
		child := newRawDocument(d.resolver, filepath.Join(d.path, entry.Name()))
		child.parent = d
		docs = append(docs, child)
	}
	return docs, nil
}

func (d *RawDocument) Count(context.Context) (int, error) {
	if !d.IsDirectory() {
		return 0, ErrNotDirectory
	}
	f, err := d.fs.Open(d.path)
	if err != nil {
		d.resolver.logger.Error("opening directory", "op", "count", "path", d.path, "error", err)
		return 0, nil
	}
	defer f.Close()
	names, err := f.Readdirnames(-1)
	if err != nil {
		d.resolver.logger.Error("reading directory", "op", "count", "path", d.path, "error", err)
		return 0, nil
	}
	return len(names), nil
}

func (d *RawDocument) FindFile(ctx context.Context, name string) (Document, error) {
	docs, err := d.ListFiles(ctx)
	if err != nil {
		return nil, err
	}
	return findByName(docs, name), nil
}

// CreateFile creates an empty file, appending the extension registered for
// mimeType to name. It returns nil if the file already exists or cannot be
// created.
func (d *RawDocument) CreateFile(_ context.Context, mimeType, name string) Document {
	if ext := ExtensionFromMimeType(mimeType); ext != "" {
		name += "." + ext
	}
	target := filepath.Join(d.path, name)
	f, err := d.fs.OpenFile(target, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		d.resolver.logger.Error("creating file", "op", "create", "path", target, "error", err)
		return nil
	}
	if err := f.Close(); err != nil {
		d.resolver.logger.Error("closing created file", "op", "create", "path", target, "error", err)
		return nil
	}
	return newRawDocument(d.resolver, target)
}

// CreateDirectory creates the directory, succeeding if it already exists.
func (d *RawDocument) CreateDirectory(_ context.Context, name string) Document {
	target := filepath.Join(d.path, name)
	if ok, _ := afero.IsDir(d.fs, target); ok {
		return newRawDocument(d.resolver, target)
	}
	if err := d.fs.Mkdir(target, 0755); err != nil {
		d.resolver.logger.Error("creating directory", "op", "create", "path", target, "error", err)
		return nil
	}
	return newRawDocument(d.resolver, target)
}

// RenameTo renames within the same directory and updates the path on success.
func (d *RawDocument) RenameTo(_ context.Context, name string) bool {
	target := filepath.Join(filepath.Dir(d.path), name)
	if err := d.fs.Rename(d.path, target); err != nil {
		d.resolver.logger.Error("renaming file", "op", "rename", "path", d.path, "error", err)
		return false
	}
	d.path = target
	return true
}

func (d *RawDocument) CopyTo(ctx context.Context, destination URI) bool {
	in, err := d.fs.Open(d.path)
	if err != nil {
		d.resolver.logger.Error("opening file", "op", "copy", "path", d.path, "error", err)
		return false
	}
	defer in.Close()

	out, err := d.resolver.OpenOutputStream(ctx, destination)
	if err != nil {
		d.resolver.logger.Error("opening output stream", "op", "copy", "uri", destination.String(), "error", err)
		return false
	}
	return copyAndClose(d.resolver.logger, out, in, d.URI(), destination)
}

func (d *RawDocument) CopyFrom(ctx context.Context, source URI) bool {
	in, err := d.resolver.OpenInputStream(ctx, source)
	if err != nil {
		d.resolver.logger.Error("opening input stream", "op", "copy", "uri", source.String(), "error", err)
		return false
	}
	defer in.Close()

	out, err := d.fs.OpenFile(d.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		d.resolver.logger.Error("opening file", "op", "copy", "path", d.path, "error", err)
		return false
	}
	return copyAndClose(d.resolver.logger, out, in, source, d.URI())
}

// Compile-time check that RawDocument implements every capability
var (
	_ Lister  = (*RawDocument)(nil)
	_ Creator = (*RawDocument)(nil)
	_ Renamer = (*RawDocument)(nil)
	_ Copier  = (*RawDocument)(nil)
)
