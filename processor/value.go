package processor

import (
	"equityflow/config"
	"equityflow/logger"
	"equityflow/models"
)

const (
	colPERatio       = "Price-to-Earnings Ratio"
	colPEPercentile  = "PE Percentile"
	colPBRatio       = "Price-to-Book Ratio"
	colPBPercentile  = "PB Percentile"
	colPSRatio       = "Price-to-Sales Ratio"
	colPSPercentile  = "PS Percentile"
	colEVEBITDA      = "EV/EBITDA"
	colEVEBITDAPct   = "EV/EBITDA Percentile"
	colEVGP          = "EV/GP"
	colEVGPPct       = "EV/GP Percentile"
	colRVScore       = "RV Score"
)

// valueMetrics pairs each valuation ratio with its percentile column. All
// ratios rank ascending: cheaper is better.
var valueMetrics = []struct {
	ratioCol      string
	percentileCol string
	signal        Signal
}{
	{colPERatio, colPEPercentile, PERatio},
	{colPBRatio, colPBPercentile, PriceToBook},
	{colPSRatio, colPSPercentile, PriceToSales},
	{colEVEBITDA, colEVEBITDAPct, EVToEBITDA},
	{colEVGP, colEVGPPct, EVToGrossProfit},
}

// Value screens for cheap stocks: either the plain price-to-earnings
// ratio, or the robust value composite averaging percentile scores of
// five valuation ratios.
type Value struct {
	cfg       config.ScreenConfig
	portfolio float64
	log       *logger.Log
}

func NewValue(cfg *config.Config) *Value {
	return &Value{
		cfg:       cfg.Strategy.Value,
		portfolio: cfg.Portfolio.Size,
		log:       logger.GetLogger(),
	}
}

func (s *Value) Name() string { return "Value Strategy" }

func (s *Value) FileBase() string { return "value_strategy" }

func (s *Value) Run(records []*models.SymbolRecord) (*models.ExportTable, error) {
	if s.cfg.Composite {
		return s.runComposite(records)
	}
	return s.runSingleFactor(records)
}

func (s *Value) runSingleFactor(records []*models.SymbolRecord) (*models.ExportTable, error) {
	log := s.log.WithComponent("value")

	rows := make([]models.RankedRow, 0, len(records))
	for _, rec := range records {
		price, err := LatestPrice(rec)
		if err != nil {
			skipMissing(log, rec.Symbol, err)
			continue
		}
		pe, err := PERatio(rec)
		if err != nil {
			skipMissing(log, rec.Symbol, err)
			continue
		}
		rows = append(rows, models.RankedRow{
			Symbol: rec.Symbol,
			Signal: pe,
			Fields: map[string]any{
				ColPrice:   price,
				colPERatio: pe,
			},
		})
	}

	// Cheapest first; the lowest P/E leads the screen.
	ranked := Rank(rows, RankOptions{
		Order:     Ascending,
		TopN:      s.cfg.TopN,
		Threshold: thresholdFunc(s.cfg.Threshold),
	})

	columns := []models.Column{
		{Name: ColTicker, Format: models.FormatString},
		{Name: ColPrice, Format: models.FormatDollar},
		{Name: colPERatio, Format: models.FormatNumber},
		{Name: ColShares, Format: models.FormatInteger},
	}
	return buildTable(s.Name(), columns, ColPrice, ranked, s.portfolio)
}

func (s *Value) runComposite(records []*models.SymbolRecord) (*models.ExportTable, error) {
	log := s.log.WithComponent("value")

	type candidate struct {
		symbol string
		price  float64
		ratios []float64
	}

	candidates := make([]candidate, 0, len(records))
	observations := make([][]float64, len(valueMetrics))

	for _, rec := range records {
		price, err := LatestPrice(rec)
		if err != nil {
			skipMissing(log, rec.Symbol, err)
			continue
		}

		ratios := make([]float64, 0, len(valueMetrics))
		for _, m := range valueMetrics {
			v, err := m.signal(rec)
			if err != nil {
				skipMissing(log, rec.Symbol, err)
				ratios = nil
				break
			}
			ratios = append(ratios, v)
		}
		if ratios == nil {
			continue
		}

		for i, v := range ratios {
			observations[i] = append(observations[i], v)
		}
		candidates = append(candidates, candidate{symbol: rec.Symbol, price: price, ratios: ratios})
	}

	rows := make([]models.RankedRow, 0, len(candidates))
	for _, c := range candidates {
		fields := map[string]any{ColPrice: c.price}
		percentiles := make([]float64, 0, len(valueMetrics))
		for i, m := range valueMetrics {
			p := PercentileOf(observations[i], c.ratios[i])
			percentiles = append(percentiles, p)
			fields[m.ratioCol] = c.ratios[i]
			fields[m.percentileCol] = p
		}
		score := Mean(percentiles)
		fields[colRVScore] = score
		rows = append(rows, models.RankedRow{Symbol: c.symbol, Signal: score, Fields: fields})
	}

	// Low percentiles mark the cheapest stocks, so the composite ranks
	// ascending as well.
	ranked := Rank(rows, RankOptions{
		Order:     Ascending,
		TopN:      s.cfg.TopN,
		Threshold: thresholdFunc(s.cfg.Threshold),
	})

	columns := []models.Column{
		{Name: ColTicker, Format: models.FormatString},
		{Name: ColPrice, Format: models.FormatDollar},
		{Name: ColShares, Format: models.FormatInteger},
	}
	for _, m := range valueMetrics {
		columns = append(columns,
			models.Column{Name: m.ratioCol, Format: models.FormatNumber},
			models.Column{Name: m.percentileCol, Format: models.FormatPercent})
	}
	columns = append(columns, models.Column{Name: colRVScore, Format: models.FormatPercent})

	return buildTable(s.Name(), columns, ColPrice, ranked, s.portfolio)
}
