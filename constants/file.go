package constants

import (
	"mime"
	"path/filepath"
	"strings"
)

// MediaType is the declared type of an uploaded resume document.
type MediaType string

const (
	MediaTypePDF  MediaType = "application/pdf"
	MediaTypeDOCX MediaType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// MediaTypes holds the accepted media types.
var MediaTypes = []MediaType{MediaTypePDF, MediaTypeDOCX}

// AllowedExtensions holds the file extensions accepted for resume ingestion.
var AllowedExtensions = map[string]MediaType{
	"pdf":  MediaTypePDF,
	"docx": MediaTypeDOCX,
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// ExtFor returns the canonical extension for a media type ("" if unsupported).
func ExtFor(mt MediaType) string {
	switch mt {
	case MediaTypePDF:
		return "pdf"
	case MediaTypeDOCX:
		return "docx"
	default:
		return ""
	}
}

// IsSupported reports whether mt is one of the accepted media types.
func (mt MediaType) IsSupported() bool {
	return ExtFor(mt) != ""
}

// ResolveMediaType picks the media type for an upload. A supported declared
// type (parameters stripped) wins; otherwise the filename extension decides.
// The second result is false when neither yields a supported type.
func ResolveMediaType(declared, filename string) (MediaType, bool) {
	if declared != "" {
		if base, _, err := mime.ParseMediaType(declared); err == nil {
			if mt := MediaType(base); mt.IsSupported() {
				return mt, true
			}
		}
	}
	if mt, ok := AllowedExtensions[NormalizeExt(filepath.Ext(filename))]; ok {
		return mt, true
	}
	return MediaType(declared), false
}
