package exporter

import (
	"encoding/json"
	"fmt"
	"io"

	writerfile "github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

// writeParquet renders the same rows as writeCSV into a single Parquet file.
// All columns are written as optional UTF8 strings; NULL becomes an absent
// value rather than an empty one.
func writeParquet(w io.Writer, fields []string, rows RowSource, skipNull bool) (written, skipped int64, err error) {
	pfw := writerfile.NewWriterFile(w)
	pw, err := writer.NewJSONWriter(buildParquetSchema(fields), pfw, 4)
	if err != nil {
		return 0, 0, fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for rows.Next() {
		values, scanErr := scanRow(rows, len(fields))
		if scanErr != nil {
			_ = pw.WriteStop()
			return written, skipped, scanErr
		}
		if skipNull && hasNull(values) {
			skipped++
			continue
		}
		row := make(map[string]any, len(fields))
		for i, field := range fields {
			if values[i] == nil {
				continue
			}
			row[field] = renderValue(values[i])
		}
		encoded, marshalErr := json.Marshal(row)
		if marshalErr != nil {
			_ = pw.WriteStop()
			return written, skipped, fmt.Errorf("encode parquet row: %w", marshalErr)
		}
		if writeErr := pw.Write(string(encoded)); writeErr != nil {
			_ = pw.WriteStop()
			return written, skipped, fmt.Errorf("write parquet row: %w", writeErr)
		}
		written++
	}
	if err := rows.Err(); err != nil {
		_ = pw.WriteStop()
		return written, skipped, fmt.Errorf("fetch rows: %w", err)
	}

	if err := pw.WriteStop(); err != nil {
		return written, skipped, fmt.Errorf("finalize parquet: %w", err)
	}
	return written, skipped, nil
}

func buildParquetSchema(fields []string) string {
	defs := make([]map[string]string, 0, len(fields))
	for _, f := range fields {
		defs = append(defs, map[string]string{
			"Tag": fmt.Sprintf("name=%s, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL", f),
		})
	}
	out := map[string]any{
		"Tag":    "name=parquet_go_root, repetitiontype=REQUIRED",
		"Fields": defs,
	}
	b, _ := json.Marshal(out)
	return string(b)
}
