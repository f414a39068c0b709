package export

import (
	"encoding/json"
	"io"

	"github.com/hurttlocker/coopsort/internal/assemble"
	"github.com/hurttlocker/coopsort/internal/schema"
)

// Document is the JSON shape of one parse.
type Document struct {
	Source      string                `json:"source,omitempty"`
	Columns     []string              `json:"columns"`
	Records     []schema.Record       `json:"records"`
	Diagnostics assemble.Diagnostics  `json:"diagnostics"`
	Assignments []assemble.Assignment `json:"assignments,omitempty"`
}

// NewDocument pairs a parse result with its schema.
func NewDocument(source string, s *schema.Schema, res *assemble.Result) Document {
	records := res.Records
	if records == nil {
		records = []schema.Record{}
	}
	return Document{
		Source:      source,
		Columns:     s.Fields(),
		Records:     records,
		Diagnostics: res.Diagnostics,
		Assignments: res.Assignments,
	}
}

// WriteJSON writes docs as an indented JSON array. Records keep schema
// column order.
func WriteJSON(w io.Writer, docs ...Document) error {
	if docs == nil {
		docs = []Document{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(docs)
}
