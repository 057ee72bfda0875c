package models

import (
	"time"
)

// FailKind classifies why a symbol could not be carried through the
// pipeline. Failed symbols are dropped from ranking input while the run
// continues with the remaining symbols.
type FailKind string

const (
	FailNotFound     FailKind = "not_found"
	FailRateLimited  FailKind = "rate_limited"
	FailServerError  FailKind = "server_error"
	FailParseError   FailKind = "parse_error"
	FailMissingField FailKind = "missing_field"
)

// Quote holds the fields parsed from the quote endpoint. Optional fields
// are pointers so a missing field is distinguishable from a zero value.
type Quote struct {
	Symbol      string   `json:"symbol"`
	LatestPrice *float64 `json:"latestPrice"`
	PERatio     *float64 `json:"peRatio"`
	MarketCap   *float64 `json:"marketCap"`
}

// AdvancedStats holds the fields parsed from the advanced stats endpoint.
type AdvancedStats struct {
	Year1ChangePercent  *float64 `json:"year1ChangePercent"`
	Month6ChangePercent *float64 `json:"month6ChangePercent"`
	Month3ChangePercent *float64 `json:"month3ChangePercent"`
	Month1ChangePercent *float64 `json:"month1ChangePercent"`
	PriceToBook         *float64 `json:"priceToBook"`
	PriceToSales        *float64 `json:"priceToSales"`
	EnterpriseValue     *float64 `json:"enterpriseValue"`
	EBITDA              *float64 `json:"EBITDA"`
	GrossProfit         *float64 `json:"grossProfit"`
}

// SymbolRecord is the immutable per-symbol snapshot built from a
// successful fetch. It is discarded once the run's output is written.
type SymbolRecord struct {
	Symbol    string
	Quote     Quote
	Stats     AdvancedStats
	FetchedAt time.Time
}

// Failure marks a symbol that could not be fetched or parsed.
type Failure struct {
	Kind    FailKind
	Message string
}

// FetchResult carries exactly one outcome per requested symbol: a record
// or a failure marker, never both and never neither.
type FetchResult struct {
	Symbol string
	Record *SymbolRecord
	Fail   *Failure
}

// OK reports whether the fetch produced a usable record.
func (r FetchResult) OK() bool {
	return r.Record != nil && r.Fail == nil
}

// FailedResult builds a failure marker result for a symbol.
func FailedResult(symbol string, kind FailKind, message string) FetchResult {
	return FetchResult{
		Symbol: symbol,
		Fail:   &Failure{Kind: kind, Message: message},
	}
}
