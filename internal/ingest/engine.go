package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Engine dispatches files to the first importer that accepts them.
type Engine struct {
	importers   []Importer
	maxFileSize int64
	logger      *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxFileSize caps the size of accepted files. Zero or less keeps the
// default.
func WithMaxFileSize(n int64) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxFileSize = n
		}
	}
}

// WithLogger sets the engine's logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine returns an engine with the built-in importers. Plain text goes
// last since it also accepts files without an extension.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		importers: []Importer{
			&MarkdownImporter{},
			&PDFImporter{},
			&DocxImporter{},
			&PlainTextImporter{},
		},
		maxFileSize: DefaultMaxFileSize,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ImportFile reads path with the matching importer.
func (e *Engine) ImportFile(ctx context.Context, path string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory: %w", path, ErrUnsupportedFormat)
	}
	if info.Size() > e.maxFileSize {
		return nil, fmt.Errorf("%s is %d bytes, limit is %d", path, info.Size(), e.maxFileSize)
	}

	for _, imp := range e.importers {
		if !imp.CanHandle(path) {
			continue
		}
		doc, err := imp.Import(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("importing %s as %s: %w", path, imp.Format(), err)
		}
		e.logger.Debug("imported file",
			zap.String("path", doc.SourceFile),
			zap.String("format", doc.Format),
			zap.Int("bytes", len(doc.Text)))
		return doc, nil
	}
	return nil, fmt.Errorf("%s: %w", filepath.Ext(path), ErrUnsupportedFormat)
}

// ImportReader reads plain text from r, typically stdin.
func (e *Engine) ImportReader(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(io.LimitReader(r, e.maxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	if int64(len(data)) > e.maxFileSize {
		return nil, fmt.Errorf("input exceeds %d bytes", e.maxFileSize)
	}
	return &Document{Text: normalizeNewlines(string(data)), SourceFile: "-", Format: "text"}, nil
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
