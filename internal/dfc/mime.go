package dfc

import (
	"mime"
	"path/filepath"
	"strings"
)

// extensionTypes mirrors the platform extension table for the types the
// library creates and recognizes most often. Lookups fall back to the
// system table for anything else.
var extensionTypes = map[string]string{
	"apk":  "application/vnd.android.package-archive",
	"avi":  "video/x-msvideo",
	"csv":  "text/comma-separated-values",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"gif":  "image/gif",
	"htm":  "text/html",
	"html": "text/html",
	"jpeg": "image/jpeg",
	"jpg":  "image/jpeg",
	"json": "application/json",
	"mkv":  "video/x-matroska",
	"mp3":  "audio/mpeg",
	"mp4":  "video/mp4",
	"ogg":  "audio/ogg",
	"pdf":  "application/pdf",
	"png":  "image/png",
	"txt":  "text/plain",
	"wav":  "audio/x-wav",
	"webp": "image/webp",
	"xml":  "text/xml",
	"zip":  "application/zip",
}

// preferredExtensions resolves types registered under several extensions.
var preferredExtensions = map[string]string{
	"text/html":  "html",
	"image/jpeg": "jpg",
}

// typeExtensions is the reverse of extensionTypes.
var typeExtensions = func() map[string]string {
	m := make(map[string]string, len(extensionTypes))
	for ext, t := range extensionTypes {
		m[t] = ext
	}
	for t, ext := range preferredExtensions {
		m[t] = ext
	}
	return m
}()

// MimeTypeFromExtension returns the mime type registered for ext (without
// the dot), or "" when unknown.
func MimeTypeFromExtension(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" {
		return ""
	}
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	t := mime.TypeByExtension("." + ext)
	if t == "" {
		return ""
	}
	media, _, err := mime.ParseMediaType(t)
	if err != nil {
		return ""
	}
	return media
}

// ExtensionFromMimeType returns the extension (without the dot) registered
// for mimeType, or "" when unknown.
func ExtensionFromMimeType(mimeType string) string {
	if ext, ok := typeExtensions[mimeType]; ok {
		return ext
	}
	exts, err := mime.ExtensionsByType(mimeType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	return strings.TrimPrefix(exts[0], ".")
}

// MimeTypeForName guesses the mime type of a file from its name, falling
// back to MimeTypeOctetStream.
func MimeTypeForName(name string) string {
	if t := MimeTypeFromExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return MimeTypeOctetStream
}

// extensionOf returns the substring after the last dot of name, or "".
func extensionOf(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return ""
	}
	return name[i+1:]
}
