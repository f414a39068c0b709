// Package schema defines the fixed output shape of coopsort: the ordered
// canonical columns, the immutable Record emitted by the assembler, and the
// Vocabulary (synonym table and keyword lists) the engine matches against.
package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Canonical field names of the default schema.
const (
	FieldSerial      = "S/N"
	FieldCooperative = "NAME OF COOPERATIVE"
	FieldCEOName     = "CEO NAME"
	FieldPhone       = "PHONE No."
	FieldBankName    = "BANK NAME"
	FieldAccount     = "ACNT. No."
	FieldSex         = "SEX"
)

var (
	// ErrEmptySchema is returned when a schema has no fields at all.
	ErrEmptySchema = errors.New("schema has no fields")
	// ErrDuplicateField is returned when the same column appears twice.
	ErrDuplicateField = errors.New("duplicate schema field")
)

// Schema is an ordered list of canonical field names. The first field is
// always the auto-numbered serial column.
type Schema struct {
	fields []string
	index  map[string]int
}

// DefaultFields returns the default column order.
func DefaultFields() []string {
	return []string{
		FieldSerial,
		FieldCooperative,
		FieldCEOName,
		FieldPhone,
		FieldBankName,
		FieldAccount,
		FieldSex,
	}
}

// Default returns the built-in seven column schema.
func Default() *Schema {
	s, _ := New(DefaultFields()...)
	return s
}

// New builds a schema from field names. Names are trimmed; blank names and
// duplicates (case-insensitive) are rejected.
func New(fields ...string) (*Schema, error) {
	if len(fields) == 0 {
		return nil, ErrEmptySchema
	}
	s := &Schema{
		fields: make([]string, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	seen := make(map[string]bool, len(fields))
	for i, f := range fields {
		name := strings.TrimSpace(f)
		if name == "" {
			return nil, fmt.Errorf("field %d is blank", i+1)
		}
		key := strings.ToUpper(name)
		if seen[key] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateField, name)
		}
		seen[key] = true
		s.index[name] = len(s.fields)
		s.fields = append(s.fields, name)
	}
	return s, nil
}

// WithColumns returns a new schema with extra user-defined columns appended.
func (s *Schema) WithColumns(extra ...string) (*Schema, error) {
	all := append(s.Fields(), extra...)
	return New(all...)
}

// Fields returns a copy of the ordered field names.
func (s *Schema) Fields() []string {
	out := make([]string, len(s.fields))
	copy(out, s.fields)
	return out
}

// Serial returns the serial column name.
func (s *Schema) Serial() string { return s.fields[0] }

// Len returns the number of columns including the serial.
func (s *Schema) Len() int { return len(s.fields) }

// Has reports whether field is a column of this schema.
func (s *Schema) Has(field string) bool {
	_, ok := s.index[field]
	return ok
}

// Position returns the zero-based column index of field, or -1.
func (s *Schema) Position(field string) int {
	if i, ok := s.index[field]; ok {
		return i
	}
	return -1
}

// DataFields returns every field except the serial, in declaration order.
func (s *Schema) DataFields() []string {
	out := make([]string, len(s.fields)-1)
	copy(out, s.fields[1:])
	return out
}
