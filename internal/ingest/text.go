package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// PlainTextImporter handles .txt, .log, and files without an extension.
type PlainTextImporter struct{}

func (t *PlainTextImporter) Format() string { return "text" }

// CanHandle returns true for plain text extensions.
func (t *PlainTextImporter) CanHandle(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".txt" || ext == ".log" || ext == ""
}

// Import returns the file content with line endings normalized.
func (t *PlainTextImporter) Import(ctx context.Context, path string) (*Document, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &Document{Text: normalizeNewlines(string(data)), SourceFile: absPath, Format: t.Format()}, nil
}

// MarkdownImporter handles .md and .markdown files. Front matter is lifted
// into Metadata; heading hashes, list bullets and emphasis markers are removed
// so that "- **PHONE NO:** 0801..." reads like a plain line.
type MarkdownImporter struct{}

func (m *MarkdownImporter) Format() string { return "markdown" }

// CanHandle returns true for Markdown file extensions.
func (m *MarkdownImporter) CanHandle(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".md" || ext == ".markdown"
}

// Import strips Markdown syntax line by line. Blank lines are kept since
// they separate records.
func (m *MarkdownImporter) Import(ctx context.Context, path string) (*Document, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	meta, body := stripFrontMatter(normalizeNewlines(string(data)))
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		lines[i] = stripMarkdownLine(line)
	}
	return &Document{
		Text:       strings.Join(lines, "\n"),
		SourceFile: absPath,
		Format:     m.Format(),
		Metadata:   meta,
	}, nil
}

var (
	headingRE  = regexp.MustCompile(`^\s{0,3}#{1,6}\s+`)
	bulletRE   = regexp.MustCompile(`^\s*(?:[-*+]|\d+[.)])\s+`)
	emphasisRE = regexp.MustCompile(`(\*\*|__)(.+?)(\*\*|__)`)
	ruleRE     = regexp.MustCompile(`^\s*(?:-{3,}|\*{3,}|_{3,})\s*$`)
)

func stripMarkdownLine(line string) string {
	if ruleRE.MatchString(line) {
		return ""
	}
	line = headingRE.ReplaceAllString(line, "")
	line = bulletRE.ReplaceAllString(line, "")
	line = emphasisRE.ReplaceAllString(line, "$2")
	return strings.TrimRight(line, " \t")
}

// stripFrontMatter removes YAML front matter (--- delimited) from content.
// Scalar values end up in the returned map; nested values are ignored.
func stripFrontMatter(content string) (map[string]string, string) {
	if !strings.HasPrefix(content, "---\n") {
		return nil, content
	}
	rest := content[4:]
	idx := strings.Index(rest, "\n---")
	if idx < 0 {
		return nil, content
	}
	body := strings.TrimPrefix(rest[idx+4:], "\n")

	var raw map[string]any
	if err := yaml.Unmarshal([]byte(rest[:idx]), &raw); err != nil {
		return nil, content
	}
	meta := make(map[string]string, len(raw))
	for k, v := range raw {
		switch v.(type) {
		case map[string]any, []any, nil:
			continue
		}
		meta[k] = strings.TrimSpace(fmt.Sprint(v))
	}
	return meta, body
}
