package constants

import (
	"path/filepath"
	"strings"
)

// Format is the coarse file family the extractor dispatches on.
type Format string

const (
	PDF   Format = "PDF"
	DOCX  Format = "DOCX"
	IMAGE Format = "IMAGE"
	TXT   Format = "TXT"
)

// AllowedExtensions holds the default allowed file extensions for submissions.
var AllowedExtensions = []string{".txt", ".docx", ".pdf", ".jpg", ".jpeg", ".png"}

// imageExtensions covers the raster formats the OCR path accepts.
var imageExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"webp": {},
	"bmp":  {},
	"tif":  {},
	"tiff": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps a normalized extension to its format family.
// Returns "" for unrecognized extensions.
func MapExtToFormat(ext string) Format {
	switch ext {
	case "pdf":
		return PDF
	case "docx":
		return DOCX
	case "txt":
		return TXT
	}
	if _, ok := imageExtensions[ext]; ok {
		return IMAGE
	}
	return ""
}

// IsImageExt reports whether the normalized extension is a raster image format.
func IsImageExt(ext string) bool {
	_, ok := imageExtensions[ext]
	return ok
}

// MIME types used on the listing and upload boundaries.
const (
	MIMEPDF  = "application/pdf"
	MIMEDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEXlsx = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ExtFromMIME returns a dotted extension for a declared MIME type, or "".
func ExtFromMIME(mime string) string {
	switch {
	case mime == MIMEPDF:
		return ".pdf"
	case mime == MIMEDocx:
		return ".docx"
	case strings.HasPrefix(mime, "image/jpeg"):
		return ".jpg"
	case strings.HasPrefix(mime, "image/png"):
		return ".png"
	case strings.HasPrefix(mime, "text/plain"):
		return ".txt"
	}
	return ""
}

// NormalizeDownloadFilename appends an extension inferred from the declared
// MIME type when the listed name has none, so extension-based dispatch still
// works for files uploaded without one.
func NormalizeDownloadFilename(name, mime string) string {
	if filepath.Ext(name) != "" {
		return name
	}
	return name + ExtFromMIME(mime)
}
