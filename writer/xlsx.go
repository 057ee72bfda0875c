package writer

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"equityflow/logger"
	"equityflow/models"
)

const (
	sheetBackground = "0A0A23"
	sheetFontColor  = "FFFFFF"
	columnWidth     = 25
)

// WriteXlsx exports the table as a single-sheet spreadsheet. Every cell
// carries the dark theme and the number format declared by its column.
func WriteXlsx(table *models.ExportTable, path string) error {
	if err := table.Validate(); err != nil {
		return fmt.Errorf("invalid export table: %w", err)
	}

	err := writeFileAtomic(path, func(w io.Writer) error {
		f := excelize.NewFile()
		defer f.Close()

		sheet := table.Name
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return fmt.Errorf("failed to name sheet: %w", err)
		}

		styles, err := buildStyles(f)
		if err != nil {
			return err
		}

		lastCol, err := excelize.ColumnNumberToName(len(table.Columns))
		if err != nil {
			return fmt.Errorf("failed to resolve column name: %w", err)
		}
		if err := f.SetColWidth(sheet, "A", lastCol, columnWidth); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}

		for i, col := range table.Columns {
			cell, err := excelize.CoordinatesToCellName(i+1, 1)
			if err != nil {
				return fmt.Errorf("failed to resolve header cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, col.Name); err != nil {
				return fmt.Errorf("failed to write header %q: %w", col.Name, err)
			}
			if err := f.SetCellStyle(sheet, cell, cell, styles[models.FormatString]); err != nil {
				return fmt.Errorf("failed to style header %q: %w", col.Name, err)
			}
		}

		for ri, row := range table.Rows {
			cells, err := tableCells(table, row)
			if err != nil {
				return fmt.Errorf("row %d: %w", ri, err)
			}
			for ci, value := range cells {
				cell, err := excelize.CoordinatesToCellName(ci+1, ri+2)
				if err != nil {
					return fmt.Errorf("failed to resolve cell: %w", err)
				}
				if err := f.SetCellValue(sheet, cell, value); err != nil {
					return fmt.Errorf("failed to write row %d col %d: %w", ri, ci, err)
				}
				style := styles[table.Columns[ci].Format]
				if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
					return fmt.Errorf("failed to style row %d col %d: %w", ri, ci, err)
				}
			}
		}

		if err := f.Write(w); err != nil {
			return fmt.Errorf("failed to write workbook: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.IncrementRowsExported(len(table.Rows))
	logger.GetLogger().LogMetric("writer", "rows_exported", len(table.Rows), "counter", logger.Fields{"format": "xlsx"})
	return nil
}

// buildStyles registers one style per column format, all sharing the
// dark background, white font and thin border.
func buildStyles(f *excelize.File) (map[models.ColumnFormat]int, error) {
	numFormats := map[models.ColumnFormat]string{
		models.FormatString:  "",
		models.FormatDollar:  "$0.00",
		models.FormatPercent: "0.0%",
		models.FormatInteger: "0",
		models.FormatNumber:  "0.00",
	}

	styles := make(map[models.ColumnFormat]int, len(numFormats))
	for format, numFmt := range numFormats {
		style := &excelize.Style{
			Fill: excelize.Fill{
				Type:    "pattern",
				Pattern: 1,
				Color:   []string{sheetBackground},
			},
			Font: &excelize.Font{Color: sheetFontColor},
			Border: []excelize.Border{
				{Type: "left", Color: sheetFontColor, Style: 1},
				{Type: "right", Color: sheetFontColor, Style: 1},
				{Type: "top", Color: sheetFontColor, Style: 1},
				{Type: "bottom", Color: sheetFontColor, Style: 1},
			},
		}
		if numFmt != "" {
			style.CustomNumFmt = &numFmt
		}
		id, err := f.NewStyle(style)
		if err != nil {
			return nil, fmt.Errorf("failed to register style for %s: %w", format, err)
		}
		styles[format] = id
	}
	return styles, nil
}
