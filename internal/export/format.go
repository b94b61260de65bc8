// Package export renders leaderboard views as text tables, JSON, YAML, CSV,
// or XLSX workbooks.
package export

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Format is an output encoding.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatCSV   Format = "csv"
	FormatXLSX  Format = "xlsx"
)

// Formats lists every supported format in flag-help order.
var Formats = []Format{FormatTable, FormatJSON, FormatYAML, FormatCSV, FormatXLSX}

// ParseFormat matches s case-insensitively against the supported formats.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", eris.Errorf("export: unknown format %q (want one of %s)", s, strings.Join(formatNames(), ", "))
}

// Binary reports whether the format must not be written to a terminal.
func (f Format) Binary() bool {
	return f == FormatXLSX
}

func formatNames() []string {
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return names
}
