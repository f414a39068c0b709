// Package ingest reads member-list files into one raw text string for the
// assembler. Each supported format has its own Importer; the Engine picks
// one by file extension.
package ingest

import (
	"context"
	"errors"
)

// ErrUnsupportedFormat is returned when no importer accepts a path.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Document is the text extracted from one input file.
type Document struct {
	Text       string            // line-broken text, LF endings
	SourceFile string            // absolute path, or "-" for stdin
	Format     string            // importer format name: text, markdown, pdf, docx
	Metadata   map[string]string // front matter and similar, may be nil
}

// Importer handles a specific file format.
type Importer interface {
	// Format names the format for logs and stored runs.
	Format() string

	// CanHandle returns true if this importer supports the given file path.
	CanHandle(path string) bool

	// Import reads the file and returns its text.
	Import(ctx context.Context, path string) (*Document, error)
}

// DefaultMaxFileSize is 10MB.
const DefaultMaxFileSize = 10 * 1024 * 1024
