package dfc

import (
	"errors"
	"fmt"
)

// ErrUnsupported is returned when an operation is not valid for the kind of
// document it was invoked on. It matches errors.ErrUnsupported.
var ErrUnsupported = fmt.Errorf("dfc: %w", errors.ErrUnsupported)

// ErrNotDirectory is returned by listing operations on a document that is not a directory.
var ErrNotDirectory = fmt.Errorf("%w: document is not a directory", ErrUnsupported)

// ErrInvalidTreeURI is returned when tree resolution is requested for a URI
// that is structurally not a tree URI. This is a caller mistake.
var ErrInvalidTreeURI = fmt.Errorf("%w: not a tree uri", ErrUnsupported)

// ErrNotDocumentURI is returned when a URI does not address a provider document.
var ErrNotDocumentURI = errors.New("dfc: not a document uri")

// ErrUnknownAuthority is returned when no provider is registered for a URI's authority.
var ErrUnknownAuthority = errors.New("dfc: unknown authority")

// ErrNotFound is returned by providers when a document id does not exist.
var ErrNotFound = errors.New("dfc: document not found")
