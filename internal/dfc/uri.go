package dfc

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

const (
	SchemeContent = "content"
	SchemeFile    = "file"

	pathTree     = "tree"
	pathDocument = "document"
	pathChildren = "children"
)

// URI identifies a document. Content URIs carry an authority naming the
// provider and decoded path segments; file URIs carry an absolute path.
// URIs are immutable values.
type URI struct {
	scheme    string
	authority string
	segments  []string
}

// ParseURI parses s into a URI. Segments are percent-decoded.
func ParseURI(s string) (URI, error) {
	u, err := url.Parse(s)
	if err != nil {
		return URI{}, fmt.Errorf("parsing uri %q: %w", s, err)
	}
	if u.Scheme == "" {
		return URI{}, fmt.Errorf("parsing uri %q: missing scheme", s)
	}

	var segments []string
	for _, raw := range strings.Split(u.EscapedPath(), "/") {
		if raw == "" {
			continue
		}
		seg, err := url.PathUnescape(raw)
		if err != nil {
			return URI{}, fmt.Errorf("parsing uri %q: %w", s, err)
		}
		segments = append(segments, seg)
	}

	return URI{scheme: u.Scheme, authority: u.Host, segments: segments}, nil
}

// MustParseURI is like ParseURI but panics on error. Intended for tests and constants.
func MustParseURI(s string) URI {
	u, err := ParseURI(s)
	if err != nil {
		panic(err)
	}
	return u
}

// FileURI returns the file URI for a filesystem path.
func FileURI(path string) URI {
	clean := filepath.ToSlash(filepath.Clean(path))
	var segments []string
	for _, seg := range strings.Split(clean, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	return URI{scheme: SchemeFile, segments: segments}
}

func newContentURI(authority string, segments ...string) URI {
	return URI{scheme: SchemeContent, authority: authority, segments: segments}
}

func (u URI) Scheme() string    { return u.scheme }
func (u URI) Authority() string { return u.authority }
func (u URI) IsZero() bool      { return u.scheme == "" }

// Segments returns a copy of the decoded path segments.
func (u URI) Segments() []string {
	return append([]string(nil), u.segments...)
}

// FilePath returns the filesystem path of a file URI.
func (u URI) FilePath() string {
	return filepath.FromSlash("/" + strings.Join(u.segments, "/"))
}

// Equal reports whether two URIs address the same resource.
func (u URI) Equal(other URI) bool {
	return u.String() == other.String()
}

func (u URI) String() string {
	if u.scheme == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString(u.scheme)
	b.WriteString("://")
	b.WriteString(u.authority)
	for _, seg := range u.segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(seg))
	}
	if len(u.segments) == 0 && u.scheme == SchemeFile {
		b.WriteByte('/')
	}
	return b.String()
}

// BuildDocumentURI returns content://authority/document/<id>.
func BuildDocumentURI(authority, documentID string) URI {
	return newContentURI(authority, pathDocument, documentID)
}

// BuildTreeDocumentURI returns content://authority/tree/<id>, the form handed
// out when a user grants access to a directory tree.
func BuildTreeDocumentURI(authority, documentID string) URI {
	return newContentURI(authority, pathTree, documentID)
}

// BuildDocumentURIUsingTree returns the URI of documentID reached through the
// tree of treeURI, preserving the tree grant.
func BuildDocumentURIUsingTree(treeURI URI, documentID string) URI {
	return newContentURI(treeURI.authority, pathTree, TreeDocumentID(treeURI), pathDocument, documentID)
}

// BuildChildDocumentsURIUsingTree returns the URI used to query the children
// of parentDocumentID within the tree of treeURI.
func BuildChildDocumentsURIUsingTree(treeURI URI, parentDocumentID string) URI {
	return newContentURI(treeURI.authority, pathTree, TreeDocumentID(treeURI), pathDocument, parentDocumentID, pathChildren)
}

// BuildChildDocumentsURI returns content://authority/document/<id>/children.
func BuildChildDocumentsURI(authority, parentDocumentID string) URI {
	return newContentURI(authority, pathDocument, parentDocumentID, pathChildren)
}

// IsTreeURI reports whether u has the tree form: at least two segments, the first being "tree".
func IsTreeURI(u URI) bool {
	return u.scheme == SchemeContent && len(u.segments) >= 2 && u.segments[0] == pathTree
}

// isDocumentPath reports whether u addresses a single document, either
// directly or through a tree.
func isDocumentPath(u URI) bool {
	if u.scheme != SchemeContent {
		return false
	}
	s := u.segments
	switch len(s) {
	case 2:
		return s[0] == pathDocument
	case 4:
		return s[0] == pathTree && s[2] == pathDocument
	}
	return false
}

// isChildrenPath reports whether u is a children query URI.
func isChildrenPath(u URI) bool {
	if u.scheme != SchemeContent {
		return false
	}
	s := u.segments
	switch len(s) {
	case 3:
		return s[0] == pathDocument && s[2] == pathChildren
	case 5:
		return s[0] == pathTree && s[2] == pathDocument && s[4] == pathChildren
	}
	return false
}

// DocumentID extracts the document id of a document or children URI.
func DocumentID(u URI) (string, error) {
	if isDocumentPath(u) {
		return u.segments[len(u.segments)-1], nil
	}
	if isChildrenPath(u) {
		return u.segments[len(u.segments)-2], nil
	}
	return "", fmt.Errorf("%w: %s", ErrNotDocumentURI, u)
}

// TreeDocumentID returns the document id of the tree root, or "" when u is not a tree URI.
func TreeDocumentID(u URI) string {
	if !IsTreeURI(u) {
		return ""
	}
	return u.segments[1]
}
