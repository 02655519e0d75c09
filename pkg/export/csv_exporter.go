package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Table is ordered tabular content for download rendering. Records are
// positional and must line up with Columns; short records are padded so a
// student with missing data still produces a full row.
type Table struct {
	Title   string
	Columns []string
	Records [][]string
}

// CSVExporter renders a Table as CSV bytes. Output starts with a UTF-8 BOM
// because the primary consumer is Excel, which mangles student names with
// non-ASCII characters without it.
type CSVExporter struct{}

func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

func (e *CSVExporter) Render(table Table) ([]byte, error) {
	if len(table.Columns) == 0 {
		return nil, fmt.Errorf("csv requires at least one column")
	}

	buf := &bytes.Buffer{}
	buf.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(buf)
	if err := writer.Write(table.Columns); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, record := range table.Records {
		row := make([]string, len(table.Columns))
		copy(row, record)
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("write csv record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}

	return buf.Bytes(), nil
}
