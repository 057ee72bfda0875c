package writer

import (
	"encoding/csv"
	"fmt"
	"io"

	"equityflow/logger"
	"equityflow/models"
)

// WriteCsv exports the table as a CSV file with a header row. Output is
// deterministic for identical input tables.
func WriteCsv(table *models.ExportTable, path string) error {
	if err := table.Validate(); err != nil {
		return fmt.Errorf("invalid export table: %w", err)
	}

	err := writeFileAtomic(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)

		header := make([]string, 0, len(table.Columns))
		for _, col := range table.Columns {
			header = append(header, col.Name)
		}
		if err := cw.Write(header); err != nil {
			return fmt.Errorf("failed to write csv header: %w", err)
		}

		for i, row := range table.Rows {
			cells, err := tableCells(table, row)
			if err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
			record := make([]string, 0, len(cells))
			for _, cell := range cells {
				record = append(record, cellString(cell))
			}
			if err := cw.Write(record); err != nil {
				return fmt.Errorf("failed to write csv row %d: %w", i, err)
			}
		}

		cw.Flush()
		return cw.Error()
	})
	if err != nil {
		return err
	}

	logger.IncrementRowsExported(len(table.Rows))
	logger.GetLogger().LogMetric("writer", "rows_exported", len(table.Rows), "counter", logger.Fields{"format": "csv"})
	return nil
}
