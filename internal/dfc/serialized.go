package dfc

import "github.com/samber/lo"

// SerializedFile is a flat copy of a document's metadata. It holds no live
// handle and can be encoded and passed across process boundaries.
type SerializedFile struct {
	URI          string `json:"uri"`
	Name         string `json:"name"`
	Length       int64  `json:"length"`
	LastModified int64  `json:"last_modified"`
	MimeType     string `json:"mime_type"`
	Flags        int    `json:"flags"`
}

// Extension is the part of the name after the last dot.
func (f SerializedFile) Extension() string {
	return extensionOf(f.Name)
}

// Serialize copies doc's metadata into a SerializedFile.
func Serialize(doc Document) SerializedFile {
	return SerializedFile{
		URI:          doc.URI().String(),
		Name:         doc.Name(),
		Length:       doc.Length(),
		LastModified: doc.LastModified(),
		MimeType:     doc.MimeType(),
		Flags:        doc.Flags(),
	}
}

// SerializeAll serializes docs in order.
func SerializeAll(docs []Document) []SerializedFile {
	return lo.Map(docs, func(doc Document, _ int) SerializedFile { return Serialize(doc) })
}
