package ingest

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dslipak/pdf"
)

// PDFImporter extracts the text layer of .pdf files. Scanned PDFs without a
// text layer come back empty.
type PDFImporter struct{}

func (p *PDFImporter) Format() string { return "pdf" }

func (p *PDFImporter) CanHandle(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".pdf"
}

// Import returns the plain text of every page in order.
func (p *PDFImporter) Import(ctx context.Context, path string) (*Document, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	r, err := pdf.NewReader(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text, err := r.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("extracting text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(text); err != nil {
		return nil, fmt.Errorf("reading text: %w", err)
	}
	return &Document{Text: normalizeNewlines(buf.String()), SourceFile: absPath, Format: p.Format()}, nil
}
