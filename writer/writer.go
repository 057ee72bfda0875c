// Package writer renders export tables to spreadsheet files and handles
// the optional parquet archive and S3 upload of produced artifacts.
package writer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"equityflow/logger"
	"equityflow/models"
)

// writeFileAtomic renders through a temp file in the destination
// directory and renames it into place, so a failed export never leaves a
// truncated file behind.
func writeFileAtomic(path string, render func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".equityflow-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := render(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}

	logger.IncrementFilesWritten()
	logger.GetLogger().LogMetric("writer", "files_written", 1, "counter", logger.Fields{})
	return nil
}

// cellString renders a cell value for text formats. Floats use the
// shortest round-trip representation so repeated exports of the same
// table produce identical bytes.
func cellString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// tableCells resolves a row into column order, failing on any missing
// column so a partial row aborts the export instead of writing blanks.
func tableCells(table *models.ExportTable, row map[string]any) ([]any, error) {
	cells := make([]any, 0, len(table.Columns))
	for _, col := range table.Columns {
		v, ok := row[col.Name]
		if !ok {
			return nil, fmt.Errorf("row missing column %q", col.Name)
		}
		cells = append(cells, v)
	}
	return cells, nil
}
