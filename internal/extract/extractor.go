// Package extract turns document files into plain text plus the resource
// type the ingest pipeline should record for them.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/kotae/internal/models"
)

// Extractor extracts text and classifies files by extension.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and returns its text content and resource type.
// Markdown keeps its structure so the pipeline can split on headers; PDF text
// is returned raw and normalized downstream.
func (e *Extractor) Extract(path string) (string, string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("read file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	return e.ExtractBytes(content, ext)
}

// ExtractBytes extracts text from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf").
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, string, error) {
	switch ext {
	case ".pdf":
		text, err := extractPDF(content)
		return text, models.ResourceTypePDF, err
	case ".docx", ".odt", ".rtf":
		text, err := extractDOCX(content)
		return text, models.ResourceTypePlain, err
	case ".md":
		text, err := extractPlain(content)
		return text, models.ResourceTypeMarkdown, err
	default:
		// .txt and anything unrecognized: treat as plain text
		text, err := extractPlain(content)
		return text, models.ResourceTypePlain, err
	}
}
