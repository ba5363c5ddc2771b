package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// RowSource is the cursor surface the runner consumes. *sql.Rows satisfies it.
type RowSource interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// writeCSV streams rows into CSV text: one header row with the requested
// field names, then one record per non-skipped row, values in header order.
// NULLs render as empty fields unless skipNull drops the whole row.
func writeCSV(w io.Writer, fields []string, rows RowSource, skipNull bool) (written, skipped int64, err error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(fields); err != nil {
		return 0, 0, fmt.Errorf("write header: %w", err)
	}

	record := make([]string, len(fields))
	for rows.Next() {
		values, err := scanRow(rows, len(fields))
		if err != nil {
			return written, skipped, err
		}
		if skipNull && hasNull(values) {
			skipped++
			continue
		}
		for i, v := range values {
			record[i] = renderValue(v)
		}
		if err := cw.Write(record); err != nil {
			return written, skipped, fmt.Errorf("write record: %w", err)
		}
		written++
	}
	if err := rows.Err(); err != nil {
		return written, skipped, fmt.Errorf("fetch rows: %w", err)
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return written, skipped, fmt.Errorf("flush csv: %w", err)
	}
	return written, skipped, nil
}

func scanRow(rows RowSource, n int) ([]any, error) {
	values := make([]any, n)
	ptrs := make([]any, n)
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scan row: %w", err)
	}
	return values, nil
}

func hasNull(values []any) bool {
	for _, v := range values {
		if v == nil {
			return true
		}
	}
	return false
}

// renderValue converts a scanned database value to its CSV text form.
// NULL renders as the empty string.
func renderValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case bool:
		return strconv.FormatBool(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}
