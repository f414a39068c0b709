package export

import (
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/hurttlocker/coopsort/internal/schema"
)

// maxColumnWidth caps auto-sized columns.
const maxColumnWidth = 50

// emptySheet names the only sheet of a workbook with no records.
const emptySheet = "Records"

// Workbook builds a workbook with one sheet per cooperative. Each sheet has
// a bold grey header row with the schema's fields and one row per record.
// The caller closes the returned file.
func Workbook(s *schema.Schema, records []schema.Record) (*excelize.File, error) {
	f := excelize.NewFile()
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"CCCCCC"}, Pattern: 1},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("creating header style: %w", err)
	}

	groups := GroupByCooperative(records)
	if len(groups) == 0 {
		groups = []Group{{Name: emptySheet}}
	}

	defaultSheet := f.GetSheetName(0)
	namer := newSheetNamer()
	for i, g := range groups {
		name := namer.next(g.Name)
		if i == 0 {
			err = f.SetSheetName(defaultSheet, name)
		} else {
			_, err = f.NewSheet(name)
		}
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("creating sheet %q: %w", name, err)
		}
		if err := writeSheet(f, name, header, s, g.Records); err != nil {
			f.Close()
			return nil, fmt.Errorf("writing sheet %q: %w", name, err)
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

func writeSheet(f *excelize.File, sheet string, headerStyle int, s *schema.Schema, records []schema.Record) error {
	fields := s.Fields()
	widths := make([]int, len(fields))

	row := make([]any, len(fields))
	for i, name := range fields {
		row[i] = name
		widths[i] = utf8.RuneCountInString(name)
	}
	if err := f.SetSheetRow(sheet, "A1", &row); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(fields), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}

	for r, rec := range records {
		row := make([]any, len(fields))
		for i, field := range fields {
			v := rec.Get(field)
			row[i] = v
			if i == 0 {
				// The serial is the only numeric cell; phone and account
				// numbers keep their leading zeros as text.
				if n, err := strconv.Atoi(v); err == nil {
					row[i] = n
				}
			}
			if w := utf8.RuneCountInString(v); w > widths[i] {
				widths[i] = w
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, float64(min(w+2, maxColumnWidth))); err != nil {
			return err
		}
	}
	return nil
}

// WriteXLSX writes the workbook for records to w.
func WriteXLSX(w io.Writer, s *schema.Schema, records []schema.Record) error {
	f, err := Workbook(s, records)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
