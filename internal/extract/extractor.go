// Package extract provides plain-text extraction from uploaded document bytes.
package extract

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Supported MIME types.
const (
	MimePDF      = "application/pdf"
	MimePlain    = "text/plain"
	MimeMarkdown = "text/markdown"
	MimeDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeXLSX     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Extractor extracts plain text from document bytes. The same path serves
// uploads and drop-directory ingestion: given raw bytes and a MIME type,
// return extracted text, regardless of how the bytes arrived.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractBytes extracts text from content based on its MIME type.
// Plain text and markdown are decoded as UTF-8 (invalid sequences replaced);
// PDF, DOCX, and XLSX are parsed from their binary formats. Returns an error
// for unsupported types.
func (e *Extractor) ExtractBytes(content []byte, mimeType string) (string, error) {
	switch mimeType {
	case MimePDF:
		return extractPDF(content)
	case MimePlain, MimeMarkdown:
		return extractPlain(content)
	case MimeDOCX:
		return extractDOCX(content)
	case MimeXLSX:
		return extractXLSX(content)
	default:
		return "", fmt.Errorf("unsupported file type: %s", mimeType)
	}
}

// MimeTypeForPath maps a file extension to the MIME type used by ExtractBytes.
// Returns empty for unknown extensions.
func MimeTypeForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return MimePDF
	case ".txt":
		return MimePlain
	case ".md":
		return MimeMarkdown
	case ".docx":
		return MimeDOCX
	case ".xlsx":
		return MimeXLSX
	default:
		return ""
	}
}
