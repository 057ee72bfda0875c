package processor

import (
	"testing"
)

func TestPositionSize(t *testing.T) {
	pos := PositionSize(10000, 2)
	if !pos.Equal(PositionSize(10000, 2)) || pos.InexactFloat64() != 5000 {
		t.Fatalf("expected 5000, got %s", pos)
	}
	if !PositionSize(0, 2).IsZero() {
		t.Fatalf("expected zero position for empty portfolio")
	}
	if !PositionSize(10000, 0).IsZero() {
		t.Fatalf("expected zero position for zero positions")
	}
}

func TestSharesToBuy(t *testing.T) {
	tests := []struct {
		portfolio float64
		positions int
		price     float64
		want      int64
	}{
		{10000, 2, 150.0, 33},  // floor(5000/150)
		{10000, 2, 5000.0, 1},  // exact division
		{10000, 2, 6000.0, 0},  // cannot afford one share
		{10000, 2, 0, 0},       // zero price allocates nothing
		{10000, 2, -10.0, 0},   // negative price allocates nothing
	}
	for _, tt := range tests {
		pos := PositionSize(tt.portfolio, tt.positions)
		if got := SharesToBuy(pos, tt.price); got != tt.want {
			t.Errorf("SharesToBuy(%v/%d, %v) = %d, want %d",
				tt.portfolio, tt.positions, tt.price, got, tt.want)
		}
	}
}
