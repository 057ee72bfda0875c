// Package processor derives ranking signals from fetched symbol records,
// orders and filters them, and assembles export tables for the writers.
package processor

import (
	"errors"
	"fmt"
	"math"

	"equityflow/models"
)

// ErrMissingField marks a record that cannot produce a signal because a
// required raw field is absent or the value is undefined (for example a
// ratio with a zero or negative denominator). Callers exclude the symbol
// instead of substituting a default.
var ErrMissingField = errors.New("missing field")

// Signal derives one scalar from a symbol record.
type Signal func(*models.SymbolRecord) (float64, error)

func deref(field string, v *float64) (float64, error) {
	if v == nil {
		return 0, fmt.Errorf("%s: %w", field, ErrMissingField)
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, fmt.Errorf("%s is not finite: %w", field, ErrMissingField)
	}
	return *v, nil
}

// positiveRatio treats nil, non-finite and non-positive values as missing.
// Valuation ratios are undefined for zero or negative denominators and the
// API reports such cases as negative or null ratios.
func positiveRatio(field string, v *float64) (float64, error) {
	val, err := deref(field, v)
	if err != nil {
		return 0, err
	}
	if val <= 0 {
		return 0, fmt.Errorf("%s is undefined: %w", field, ErrMissingField)
	}
	return val, nil
}

// divide computes num/den with a positive denominator requirement.
func divide(field string, num, den *float64) (float64, error) {
	n, err := deref(field, num)
	if err != nil {
		return 0, err
	}
	d, err := deref(field, den)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s denominator is undefined: %w", field, ErrMissingField)
	}
	return n / d, nil
}

func LatestPrice(rec *models.SymbolRecord) (float64, error) {
	return deref("latestPrice", rec.Quote.LatestPrice)
}

func MarketCap(rec *models.SymbolRecord) (float64, error) {
	return deref("marketCap", rec.Quote.MarketCap)
}

func Year1Return(rec *models.SymbolRecord) (float64, error) {
	return deref("year1ChangePercent", rec.Stats.Year1ChangePercent)
}

func Month6Return(rec *models.SymbolRecord) (float64, error) {
	return deref("month6ChangePercent", rec.Stats.Month6ChangePercent)
}

func Month3Return(rec *models.SymbolRecord) (float64, error) {
	return deref("month3ChangePercent", rec.Stats.Month3ChangePercent)
}

func Month1Return(rec *models.SymbolRecord) (float64, error) {
	return deref("month1ChangePercent", rec.Stats.Month1ChangePercent)
}

func PERatio(rec *models.SymbolRecord) (float64, error) {
	return positiveRatio("peRatio", rec.Quote.PERatio)
}

func PriceToBook(rec *models.SymbolRecord) (float64, error) {
	return positiveRatio("priceToBook", rec.Stats.PriceToBook)
}

func PriceToSales(rec *models.SymbolRecord) (float64, error) {
	return positiveRatio("priceToSales", rec.Stats.PriceToSales)
}

func EVToEBITDA(rec *models.SymbolRecord) (float64, error) {
	return divide("evToEBITDA", rec.Stats.EnterpriseValue, rec.Stats.EBITDA)
}

func EVToGrossProfit(rec *models.SymbolRecord) (float64, error) {
	return divide("evToGrossProfit", rec.Stats.EnterpriseValue, rec.Stats.GrossProfit)
}

// PercentileOf returns the percentage ranking of v within values on a 0..1
// scale. Matching observations average their rankings, so the maximum of a
// set of distinct values scores 1.0.
func PercentileOf(values []float64, v float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	var strict, equal int
	for _, x := range values {
		if x < v {
			strict++
		} else if x == v {
			equal++
		}
	}
	if equal == 0 {
		return float64(strict) / float64(n)
	}
	return float64(2*strict+equal+1) / float64(2*n)
}

// Mean returns the arithmetic mean of values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
