package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"gopkg.in/yaml.v3"
)

// xlsx sheet names are capped at 31 characters.
const maxSheetName = 31

// Write encodes a view in format f. Structured formats encode v directly;
// tabular formats encode t.
func Write(w io.Writer, f Format, t *Table, v any) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, v)
	case FormatYAML:
		return WriteYAML(w, v)
	case FormatCSV:
		return WriteCSV(w, t)
	case FormatXLSX:
		return WriteXLSX(w, t)
	case FormatTable, "":
		return WriteText(w, t)
	default:
		return eris.Errorf("export: unknown format %q", f)
	}
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "export: encode json")
}

// WriteYAML writes v as YAML.
func WriteYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return eris.Wrap(err, "export: encode yaml")
	}
	return eris.Wrap(enc.Close(), "export: close yaml encoder")
}

// WriteText writes t as an aligned text table. Empty cells print as "-".
func WriteText(out io.Writer, t *Table) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, strings.Join(t.Header, "\t"))

	rule := make([]string, len(t.Header))
	for i, h := range t.Header {
		rule[i] = strings.Repeat("-", len([]rune(h)))
	}
	_, _ = fmt.Fprintln(w, strings.Join(rule, "\t"))

	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, c := range row {
			if c == "" {
				c = "-"
			}
			cells[i] = c
		}
		_, _ = fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	return eris.Wrap(w.Flush(), "export: flush table")
}

// WriteCSV writes t with a header row.
func WriteCSV(out io.Writer, t *Table) error {
	w := csv.NewWriter(out)
	if err := w.Write(t.Header); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return eris.Wrap(err, "export: write csv rows")
	}
	return nil
}

// WriteXLSX writes t as a single-sheet workbook named after the table.
func WriteXLSX(out io.Writer, t *Table) error {
	f := xlsx.NewFile()
	name := t.Title
	if name == "" {
		name = "Sheet1"
	}
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}

	sheet, err := f.AddSheet(name)
	if err != nil {
		return eris.Wrap(err, "export: add xlsx sheet")
	}

	header := sheet.AddRow()
	for _, h := range t.Header {
		cell := header.AddCell()
		cell.SetString(h)
		cell.GetStyle().Font.Bold = true
	}
	for _, row := range t.Rows {
		r := sheet.AddRow()
		for _, c := range row {
			r.AddCell().SetString(c)
		}
	}

	return eris.Wrap(f.Write(out), "export: write xlsx")
}
