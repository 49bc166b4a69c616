package dfc

// Document columns understood by every provider.
const (
	ColumnDocumentID   = "document_id"
	ColumnDisplayName  = "_display_name"
	ColumnSize         = "_size"
	ColumnLastModified = "last_modified"
	ColumnMimeType     = "mime_type"
	ColumnFlags        = "flags"
	ColumnIcon         = "icon"
)

// MimeTypeDir marks a document as a directory.
const MimeTypeDir = "vnd.android.document/directory"

// MimeTypeOctetStream is used when no better type is known.
const MimeTypeOctetStream = "application/octet-stream"

// Capability flags declared by providers in the flags column.
const (
	FlagSupportsThumbnail      = 1 << 0
	FlagSupportsWrite          = 1 << 1
	FlagSupportsDelete         = 1 << 2
	FlagDirSupportsCreate      = 1 << 3
	FlagDirPrefersGrid         = 1 << 4
	FlagDirPrefersLastModified = 1 << 5
	FlagSupportsRename         = 1 << 6
	FlagSupportsCopy           = 1 << 7
	FlagSupportsMove           = 1 << 8
	FlagVirtualDocument        = 1 << 9
	FlagSupportsRemove         = 1 << 10
)

// FlagsUnknown means flags were never queried. It must not be bit-tested.
const FlagsUnknown = -1

// FullProjection is the default column set for resolution and listing.
var FullProjection = []string{
	ColumnDocumentID,
	ColumnDisplayName,
	ColumnSize,
	ColumnLastModified,
	ColumnMimeType,
	ColumnFlags,
}

var (
	idProjection = []string{ColumnDocumentID}

	// The icon column is the cheapest column for providers to produce,
	// so counting children projects nothing else.
	countProjection = []string{ColumnIcon}
)

// normalizeProjection returns projection with the document id column first
// when the caller left it out. An empty projection means FullProjection.
func normalizeProjection(projection []string) []string {
	if len(projection) == 0 {
		return FullProjection
	}
	for _, col := range projection {
		if col == ColumnDocumentID {
			return projection
		}
	}
	return append([]string{ColumnDocumentID}, projection...)
}
