package models

import (
	"testing"
)

func TestFetchResultOK(t *testing.T) {
	ok := FetchResult{Symbol: "AAPL", Record: &SymbolRecord{Symbol: "AAPL"}}
	if !ok.OK() {
		t.Fatalf("expected OK result")
	}

	failed := FailedResult("ZZZZ", FailNotFound, "symbol not found")
	if failed.OK() {
		t.Fatalf("expected failure result")
	}
	if failed.Fail.Kind != FailNotFound {
		t.Fatalf("unexpected kind: %s", failed.Fail.Kind)
	}
}

func TestExportTableValidate(t *testing.T) {
	table := &ExportTable{
		Name: "test",
		Columns: []Column{
			{Name: "Ticker", Format: FormatString},
			{Name: "Price", Format: FormatDollar},
		},
		Rows: []map[string]any{
			{"Ticker": "AAPL", "Price": 100.0},
		},
	}
	if err := table.Validate(); err != nil {
		t.Fatalf("expected valid table: %v", err)
	}

	table.Rows = append(table.Rows, map[string]any{"Ticker": "MSFT"})
	if err := table.Validate(); err == nil {
		t.Fatalf("expected error for partial row")
	}
}

func TestExportTableValidateNoColumns(t *testing.T) {
	table := &ExportTable{Name: "empty"}
	if err := table.Validate(); err == nil {
		t.Fatalf("expected error for missing columns")
	}
}
