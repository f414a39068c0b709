package ingest

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv/v2"
)

var (
	// errNoDocumentPart is returned for a zip without word/document.xml.
	errNoDocumentPart = errors.New("word/document.xml not found")
	// errNoContentTypes is returned for a zip without [Content_Types].xml.
	errNoContentTypes = errors.New("[Content_Types].xml not found")
)

// DocxImporter reads the body text of Word .docx files. Every paragraph
// becomes one line and empty paragraphs become blank lines. Tabs and manual
// breaks also start a new line.
type DocxImporter struct{}

func (d *DocxImporter) Format() string { return "docx" }

func (d *DocxImporter) CanHandle(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".docx"
}

func (d *DocxImporter) Import(ctx context.Context, path string) (*Document, error) {
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
	if err := checkDocxParts(f, info.Size()); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text, _, err := docconv.ConvertDocx(f)
	if err != nil {
		return nil, fmt.Errorf("converting docx: %w", err)
	}
	text = strings.Trim(normalizeNewlines(text), "\n")
	return &Document{Text: text, SourceFile: absPath, Format: d.Format()}, nil
}

// checkDocxParts rejects archives that are not Word documents before the
// converter sees them.
func checkDocxParts(f *os.File, size int64) error {
	zr, err := zip.NewReader(f, size)
	if err != nil {
		return fmt.Errorf("opening docx: %w", err)
	}
	var body, types bool
	for _, zf := range zr.File {
		switch zf.Name {
		case "word/document.xml":
			body = true
		case "[Content_Types].xml":
			types = true
		}
	}
	switch {
	case !body:
		return errNoDocumentPart
	case !types:
		return errNoContentTypes
	}
	return nil
}
