package processor

import (
	"testing"

	"equityflow/models"
)

func rankedRows(pairs ...any) []models.RankedRow {
	rows := make([]models.RankedRow, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		rows = append(rows, models.RankedRow{
			Symbol: pairs[i].(string),
			Signal: pairs[i+1].(float64),
		})
	}
	return rows
}

func symbolsOf(rows []models.RankedRow) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Symbol)
	}
	return out
}

func assertOrder(t *testing.T, got []models.RankedRow, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, symbolsOf(got))
	}
	for i := range want {
		if got[i].Symbol != want[i] {
			t.Fatalf("expected %v, got %v", want, symbolsOf(got))
		}
	}
}

func TestRankDescending(t *testing.T) {
	rows := rankedRows("MSFT", 2.0, "AAPL", 5.0, "GOOG", 3.0)
	got := Rank(rows, RankOptions{Order: Descending})
	assertOrder(t, got, "AAPL", "GOOG", "MSFT")
}

func TestRankAscending(t *testing.T) {
	rows := rankedRows("MSFT", 2.0, "AAPL", 5.0, "GOOG", 3.0)
	got := Rank(rows, RankOptions{Order: Ascending})
	assertOrder(t, got, "MSFT", "GOOG", "AAPL")
}

func TestRankTieBreakBySymbol(t *testing.T) {
	// Equal signals order alphabetically regardless of input order.
	rows := rankedRows("MSFT", 5.0, "AAPL", 5.0)
	got := Rank(rows, RankOptions{Order: Descending})
	assertOrder(t, got, "AAPL", "MSFT")

	got = Rank(rankedRows("AAPL", 5.0, "MSFT", 5.0), RankOptions{Order: Descending})
	assertOrder(t, got, "AAPL", "MSFT")
}

func TestRankTopN(t *testing.T) {
	rows := rankedRows("A", 1.0, "B", 2.0, "C", 3.0, "D", 4.0)
	got := Rank(rows, RankOptions{Order: Descending, TopN: 2})
	assertOrder(t, got, "D", "C")
}

func TestRankTopNLargerThanInput(t *testing.T) {
	rows := rankedRows("A", 1.0, "B", 2.0)
	got := Rank(rows, RankOptions{Order: Descending, TopN: 50})
	assertOrder(t, got, "B", "A")
}

func TestRankThreshold(t *testing.T) {
	rows := rankedRows("A", 1.0, "B", 20.0, "C", 3.0)
	got := Rank(rows, RankOptions{
		Order:     Descending,
		Threshold: func(s float64) bool { return s > 10.0 },
	})
	assertOrder(t, got, "B")
}

func TestRankThresholdNoneQualify(t *testing.T) {
	rows := rankedRows("A", 1.0, "B", 2.0)
	got := Rank(rows, RankOptions{
		Order:     Descending,
		Threshold: func(s float64) bool { return s > 10.0 },
	})
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %v", symbolsOf(got))
	}
}

func TestRankIsPermutation(t *testing.T) {
	rows := rankedRows("A", 3.0, "B", 1.0, "C", 2.0, "D", 2.0)
	got := Rank(rows, RankOptions{Order: Descending})

	if len(got) != len(rows) {
		t.Fatalf("expected %d rows, got %d", len(rows), len(got))
	}
	seen := make(map[string]int)
	for _, r := range got {
		seen[r.Symbol]++
	}
	for _, r := range rows {
		if seen[r.Symbol] != 1 {
			t.Fatalf("symbol %s appears %d times", r.Symbol, seen[r.Symbol])
		}
	}
}

func TestRankDeterministic(t *testing.T) {
	rows := rankedRows("B", 1.0, "A", 1.0, "D", 2.0, "C", 2.0)
	first := Rank(rows, RankOptions{Order: Descending})
	for i := 0; i < 10; i++ {
		again := Rank(rows, RankOptions{Order: Descending})
		for j := range first {
			if first[j].Symbol != again[j].Symbol {
				t.Fatalf("run %d produced different order: %v vs %v", i, symbolsOf(first), symbolsOf(again))
			}
		}
	}
}

func TestRankDoesNotModifyInput(t *testing.T) {
	rows := rankedRows("B", 1.0, "A", 2.0)
	Rank(rows, RankOptions{Order: Descending})
	if rows[0].Symbol != "B" || rows[1].Symbol != "A" {
		t.Fatalf("input slice was reordered: %v", symbolsOf(rows))
	}
}
