package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docindex/internal/document"
)

// csvBatchRows is the number of data rows per emitted table section.
const csvBatchRows = 20

// CSVParser handles CSV files. Rows are emitted as markdown pipe tables in
// batches, each under its own heading so batches chunk independently.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*document.SourceDocument, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	var md markdownWriter
	if len(records) > 0 {
		width := 0
		for _, rec := range records {
			width = max(width, len(rec))
		}
		headers := records[0]
		dataRows := records[1:]

		for i := 0; i < len(dataRows); i += csvBatchRows {
			end := min(i+csvBatchRows, len(dataRows))
			// Row numbers are 1-indexed and count the header line.
			md.heading(2, fmt.Sprintf("Rows %d-%d", i+2, end+1))
			md.block(pipeTable(headers, dataRows[i:end], width))
		}
		if len(dataRows) == 0 {
			md.block(pipeTable(headers, nil, width))
		}
	}

	return newDocument(filename, "csv", "", md.String(), 0), nil
}

func pipeTable(headers []string, rows [][]string, width int) string {
	var buf strings.Builder
	writeRow := func(cells []string) {
		buf.WriteString("|")
		for j := range width {
			cell := ""
			if j < len(cells) {
				cell = cells[j]
			}
			buf.WriteString(" " + escapeCell(cell) + " |")
		}
		buf.WriteString("\n")
	}

	writeRow(headers)
	buf.WriteString("|" + strings.Repeat("---|", width) + "\n")
	for _, row := range rows {
		writeRow(row)
	}
	return buf.String()
}

func escapeCell(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
