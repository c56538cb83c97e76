package export

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"time"
)

// RowIterator is the subset of sql.Rows the CSV writer consumes, so result
// sets can be streamed without materializing them.
type RowIterator interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

var _ RowIterator = (*sql.Rows)(nil)

// StreamCSV writes the result set to w as CSV, one header line from the
// column names followed by one line per row. Rows are consumed lazily and
// the iterator is closed when streaming ends. Returns the number of data
// rows written.
func StreamCSV(w io.Writer, rows RowIterator) (int, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return 0, fmt.Errorf("failed to read columns: %w", err)
	}

	writer := csv.NewWriter(w)

	if err := writer.Write(columns); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}

	values := make([]any, len(columns))
	scanTargets := make([]any, len(columns))
	for i := range values {
		scanTargets[i] = &values[i]
	}

	record := make([]string, len(columns))
	written := 0

	for rows.Next() {
		if err := rows.Scan(scanTargets...); err != nil {
			return written, fmt.Errorf("failed to scan row: %w", err)
		}
		for i, value := range values {
			record[i] = formatValue(value)
		}
		if err := writer.Write(record); err != nil {
			return written, fmt.Errorf("failed to write row: %w", err)
		}
		written++
	}
	if err := rows.Err(); err != nil {
		return written, fmt.Errorf("failed to iterate rows: %w", err)
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return written, fmt.Errorf("failed to flush: %w", err)
	}

	return written, nil
}

func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case []byte:
		return string(v)
	case string:
		return v
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case float64:
		return fmt.Sprintf("%g", v)
	default:
		return fmt.Sprint(v)
	}
}
