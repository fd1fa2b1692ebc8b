// Package export renders tabular admin reports as CSV or PDF.
package export

import (
	"fmt"
	"strings"
	"time"
)

// Format identifies an export encoding.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// ParseFormat maps a query value to a Format. Empty input defaults to CSV.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "text/csv; charset=utf-8"
}

// FileName builds an attachment name such as "review-queue-20240102.csv".
func FileName(base string, f Format, at time.Time) string {
	return fmt.Sprintf("%s-%s.%s", base, at.Format("20060102"), f)
}

// Column is one table column. Width is a relative weight used by the PDF
// layout; zero means 1.
type Column struct {
	Header string
	Width  float64
}

// Table is the content of one export.
type Table struct {
	Title   string
	Columns []Column
	Rows    [][]string
}

func (t Table) headers() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Header
	}
	return out
}

// Renderer encodes a Table.
type Renderer interface {
	Render(t Table) ([]byte, error)
}

// NewRenderer returns the renderer for f.
func NewRenderer(f Format) Renderer {
	if f == FormatPDF {
		return NewPDFRenderer()
	}
	return NewCSVRenderer()
}
