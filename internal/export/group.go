// Package export writes assembled records out: a workbook with one sheet per
// cooperative, JSON, or a plain text summary.
package export

import "github.com/hurttlocker/coopsort/internal/schema"

// UnknownGroup names the group of records without a cooperative name.
const UnknownGroup = "Unknown"

// Group is the records sharing one value of the grouping field.
type Group struct {
	Name    string
	Records []schema.Record
}

// GroupBy partitions records by field in first-seen order. Values that fold
// to the same key ("Alpha Co-op", "ALPHA CO-OP") share a group named after
// the first spelling seen. Empty values go to UnknownGroup.
func GroupBy(records []schema.Record, field string) []Group {
	var groups []Group
	index := make(map[string]int)
	for _, r := range records {
		name := r.Get(field)
		key := schema.FoldKey(name)
		if key == "" {
			name, key = UnknownGroup, "\x00unknown"
		}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Name: name})
		}
		groups[i].Records = append(groups[i].Records, r)
	}
	return groups
}

// GroupByCooperative groups on NAME OF COOPERATIVE.
func GroupByCooperative(records []schema.Record) []Group {
	return GroupBy(records, schema.FieldCooperative)
}
