package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Record is one reconstructed member record. Its key set is exactly the
// schema's field set; unknown values are empty strings. Records are
// immutable: accessors hand out copies.
type Record struct {
	fields []string
	values []string
}

// NewRecord builds a record for schema s. The serial column is set from
// serial; values for fields outside the schema are ignored.
func NewRecord(s *Schema, serial int, values map[string]string) Record {
	r := Record{
		fields: s.Fields(),
		values: make([]string, s.Len()),
	}
	for i, f := range r.fields {
		if i == 0 {
			r.values[i] = strconv.Itoa(serial)
			continue
		}
		r.values[i] = values[f]
	}
	return r
}

// Get returns the value of field, or "" when absent.
func (r Record) Get(field string) string {
	for i, f := range r.fields {
		if f == field {
			return r.values[i]
		}
	}
	return ""
}

// Fields returns the ordered field names.
func (r Record) Fields() []string {
	out := make([]string, len(r.fields))
	copy(out, r.fields)
	return out
}

// Values returns the values in field order.
func (r Record) Values() []string {
	out := make([]string, len(r.values))
	copy(out, r.values)
	return out
}

// Map returns the record as a field → value map.
func (r Record) Map() map[string]string {
	m := make(map[string]string, len(r.fields))
	for i, f := range r.fields {
		m[f] = r.values[i]
	}
	return m
}

// Serial returns the serial number, or 0 if the serial column is not numeric.
func (r Record) Serial() int {
	if len(r.values) == 0 {
		return 0
	}
	n, err := strconv.Atoi(r.values[0])
	if err != nil {
		return 0
	}
	return n
}

// Populated counts non-empty fields, excluding the serial.
func (r Record) Populated() int {
	n := 0
	for i := 1; i < len(r.values); i++ {
		if r.values[i] != "" {
			n++
		}
	}
	return n
}

// MarshalJSON writes the record as a JSON object in schema order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object written by MarshalJSON, keeping key order.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("record: expected object, got %v", tok)
	}
	var fields, values []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("record: expected key, got %v", tok)
		}
		var val string
		if err := dec.Decode(&val); err != nil {
			return fmt.Errorf("record: value for %q: %w", key, err)
		}
		fields = append(fields, key)
		values = append(values, val)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	r.fields, r.values = fields, values
	return nil
}
