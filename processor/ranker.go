package processor

import (
	"sort"

	"equityflow/models"
)

// Order selects the ranking direction.
type Order int

const (
	Descending Order = iota
	Ascending
)

// RankOptions control filtering and truncation of a ranked screen. A zero
// TopN and nil Threshold mean no truncation and no filter.
type RankOptions struct {
	Order     Order
	TopN      int
	Threshold func(signal float64) bool
}

// Rank orders rows by signal, ties broken by symbol ascending so repeated
// runs over the same input always produce identical output. The input
// slice is not modified. The optional threshold is applied before
// truncation to TopN.
func Rank(rows []models.RankedRow, opts RankOptions) []models.RankedRow {
	out := make([]models.RankedRow, 0, len(rows))
	for _, row := range rows {
		if opts.Threshold != nil && !opts.Threshold(row.Signal) {
			continue
		}
		out = append(out, row)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Signal != b.Signal {
			if opts.Order == Ascending {
				return a.Signal < b.Signal
			}
			return a.Signal > b.Signal
		}
		return a.Symbol < b.Symbol
	})

	if opts.TopN > 0 && len(out) > opts.TopN {
		out = out[:opts.TopN]
	}
	return out
}
