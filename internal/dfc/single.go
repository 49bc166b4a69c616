package dfc

import (
	"context"
	"io"
)

// SingleDocument is a document granted on its own, without its tree. It
// exposes a byte stream but cannot list, create children or be renamed.
type SingleDocument struct {
	providerDocument
}

func newSingleDocument(r *ContentResolver, u URI, meta metadata) *SingleDocument {
	return &SingleDocument{providerDocument: newProviderDocument(r, u, meta)}
}

// FromSingleURI resolves a document URI. It returns nil when uri is not a
// provider document URI, is a tree URI, or the document cannot be found.
func FromSingleURI(ctx context.Context, r *ContentResolver, uri URI) (*SingleDocument, error) {
	if IsTreeURI(uri) || !r.IsDocumentURI(uri) {
		r.logger.Debug("not a single document uri", "uri", uri.String())
		return nil, nil
	}

	doc := newSingleDocument(r, uri, metadata{})
	meta, ok := doc.queries.metadata(ctx, "resolve single", uri)
	if !ok {
		return nil, nil
	}
	doc.meta = meta
	return doc, nil
}

func (d *SingleDocument) CopyTo(ctx context.Context, destination URI) bool {
	return copyStream(ctx, d.resolver, d.uri, destination)
}

func (d *SingleDocument) CopyFrom(ctx context.Context, source URI) bool {
	return copyStream(ctx, d.resolver, source, d.uri)
}

// copyStream copies every byte of src into dst through the resolver. Both
// streams are closed on every path; a failed close of the writer counts as
// a failed copy since providers commit content on close.
func copyStream(ctx context.Context, r *ContentResolver, src, dst URI) bool {
	in, err := r.OpenInputStream(ctx, src)
	if err != nil {
		r.logger.Error("opening input stream", "op", "copy", "uri", src.String(), "error", err)
		return false
	}
	defer in.Close()

	out, err := r.OpenOutputStream(ctx, dst)
	if err != nil {
		r.logger.Error("opening output stream", "op", "copy", "uri", dst.String(), "error", err)
		return false
	}
	return copyAndClose(r.logger, out, in, src, dst)
}

func copyAndClose(logger Logger, out io.WriteCloser, in io.Reader, src, dst URI) bool {
	n, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		logger.Error("copying stream", "op", "copy", "from", src.String(), "to", dst.String(), "error", err)
		return false
	}
	logger.Debug("copied stream", "from", src.String(), "to", dst.String(), "bytes", n)
	return true
}

// Compile-time check that SingleDocument implements Copier
var _ Copier = (*SingleDocument)(nil)
