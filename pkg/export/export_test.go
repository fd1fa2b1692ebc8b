package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() Table {
	return Table{
		Title:   "Review queue",
		Columns: []Column{{Header: "Title", Width: 3}, {Header: "Author"}, {Header: "Status"}},
		Rows: [][]string{
			{"Deep learning, a survey", "alice", "Pending Review"},
			{"Short", "bob"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat(" PDF ")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)
	assert.Equal(t, "application/pdf", f.ContentType())

	_, err = ParseFormat("xlsx")
	assert.Error(t, err)
}

func TestFileName(t *testing.T) {
	at := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "review-queue-20240309.pdf", FileName("review-queue", FormatPDF, at))
}

func TestCSVRenderer(t *testing.T) {
	out, err := NewRenderer(FormatCSV).Render(sampleTable())
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Title", "Author", "Status"}, records[0])
	assert.Equal(t, "Deep learning, a survey", records[1][0])
	assert.Equal(t, []string{"Short", "bob", ""}, records[2])
}

func TestPDFRenderer(t *testing.T) {
	table := sampleTable()
	for i := 0; i < 60; i++ {
		table.Rows = append(table.Rows, []string{strings.Repeat("very long title ", 20), "carol", "Approved"})
	}
	out, err := NewRenderer(FormatPDF).Render(table)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderersRequireColumns(t *testing.T) {
	_, err := NewCSVRenderer().Render(Table{})
	assert.Error(t, err)
	_, err = NewPDFRenderer().Render(Table{})
	assert.Error(t, err)
}

func TestColumnWidthsFillPage(t *testing.T) {
	widths := columnWidths(sampleTable().Columns)
	assert.InDelta(t, pdfPageWidth, widths[0]+widths[1]+widths[2], 0.001)
	assert.InDelta(t, widths[1]*3, widths[0], 0.001)
}
