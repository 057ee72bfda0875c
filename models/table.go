package models

import (
	"fmt"
	"time"
)

// ColumnFormat selects the spreadsheet number format applied to a column.
type ColumnFormat string

const (
	FormatString  ColumnFormat = "string"
	FormatDollar  ColumnFormat = "dollar"
	FormatPercent ColumnFormat = "percent"
	FormatInteger ColumnFormat = "integer"
	FormatNumber  ColumnFormat = "number"
)

// Column describes a single output column: its header text and format.
type Column struct {
	Name   string
	Format ColumnFormat
}

// RankedRow is one symbol's entry in a ranked screen. Signal is the value
// the ranker ordered by; Fields holds the supporting per-column values
// keyed by column name.
type RankedRow struct {
	Symbol string
	Signal float64
	Fields map[string]any
}

// ExportTable is an ordered set of rows plus a fixed header. Row field
// order follows Columns; a row missing a required column makes the table
// invalid and the export must abort rather than emit blanks.
type ExportTable struct {
	Name      string
	RunID     string
	Columns   []Column
	Rows      []map[string]any
	CreatedAt time.Time
}

// Validate checks that every row carries a value for every column.
func (t *ExportTable) Validate() error {
	if len(t.Columns) == 0 {
		return fmt.Errorf("table %q has no columns", t.Name)
	}
	for i, row := range t.Rows {
		for _, col := range t.Columns {
			if _, ok := row[col.Name]; !ok {
				return fmt.Errorf("table %q row %d missing column %q", t.Name, i, col.Name)
			}
		}
	}
	return nil
}
