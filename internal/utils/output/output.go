// Package output renders stored scraps for export.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/law-makers/scavenger/pkg/models"
)

// Format is an export format
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// ParseFormat accepts a format name or a file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown export format %q (want json, csv or markdown)", s)
}

// Write renders scraps to w in format f.
func Write(w io.Writer, f Format, scraps []models.Scrap) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, scraps)
	case FormatCSV:
		return WriteCSV(w, scraps)
	case FormatMarkdown:
		return WriteMarkdown(w, scraps)
	}
	return fmt.Errorf("unknown export format %q", f)
}
