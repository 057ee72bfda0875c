package processor

import (
	"equityflow/config"
	"equityflow/logger"
	"equityflow/models"
)

const (
	colYear1Return      = "One-Year Price Return"
	colYear1Percentile  = "One-Year Return Percentile"
	colMonth6Return     = "Six-Month Price Return"
	colMonth6Percentile = "Six-Month Return Percentile"
	colMonth3Return     = "Three-Month Price Return"
	colMonth3Percentile = "Three-Month Return Percentile"
	colMonth1Return     = "One-Month Price Return"
	colMonth1Percentile = "One-Month Return Percentile"
	colHQMScore         = "HQM Score"
)

// momentumWindows pairs each lookback return with its percentile column,
// longest window first to match the published column order.
var momentumWindows = []struct {
	returnCol     string
	percentileCol string
	signal        Signal
}{
	{colYear1Return, colYear1Percentile, Year1Return},
	{colMonth6Return, colMonth6Percentile, Month6Return},
	{colMonth3Return, colMonth3Percentile, Month3Return},
	{colMonth1Return, colMonth1Percentile, Month1Return},
}

// Momentum screens for price momentum: either the plain one-year return,
// or the high-quality momentum composite averaging percentile scores of
// the 1m/3m/6m/1y returns.
type Momentum struct {
	cfg       config.ScreenConfig
	portfolio float64
	log       *logger.Log
}

func NewMomentum(cfg *config.Config) *Momentum {
	return &Momentum{
		cfg:       cfg.Strategy.Momentum,
		portfolio: cfg.Portfolio.Size,
		log:       logger.GetLogger(),
	}
}

func (s *Momentum) Name() string { return "Momentum Strategy" }

func (s *Momentum) FileBase() string { return "momentum_strategy" }

func (s *Momentum) Run(records []*models.SymbolRecord) (*models.ExportTable, error) {
	if s.cfg.Composite {
		return s.runComposite(records)
	}
	return s.runSingleFactor(records)
}

func (s *Momentum) runSingleFactor(records []*models.SymbolRecord) (*models.ExportTable, error) {
	log := s.log.WithComponent("momentum")

	rows := make([]models.RankedRow, 0, len(records))
	for _, rec := range records {
		price, err := LatestPrice(rec)
		if err != nil {
			skipMissing(log, rec.Symbol, err)
			continue
		}
		ret, err := Year1Return(rec)
		if err != nil {
			skipMissing(log, rec.Symbol, err)
			continue
		}
		rows = append(rows, models.RankedRow{
			Symbol: rec.Symbol,
			Signal: ret,
			Fields: map[string]any{
				ColPrice:       price,
				colYear1Return: ret,
			},
		})
	}

	ranked := Rank(rows, RankOptions{
		Order:     Descending,
		TopN:      s.cfg.TopN,
		Threshold: thresholdFunc(s.cfg.Threshold),
	})

	columns := []models.Column{
		{Name: ColTicker, Format: models.FormatString},
		{Name: ColPrice, Format: models.FormatDollar},
		{Name: colYear1Return, Format: models.FormatPercent},
		{Name: ColShares, Format: models.FormatInteger},
	}
	return buildTable(s.Name(), columns, ColPrice, ranked, s.portfolio)
}

func (s *Momentum) runComposite(records []*models.SymbolRecord) (*models.ExportTable, error) {
	log := s.log.WithComponent("momentum")

	type candidate struct {
		symbol  string
		price   float64
		returns []float64
	}

	candidates := make([]candidate, 0, len(records))
	observations := make([][]float64, len(momentumWindows))

	for _, rec := range records {
		price, err := LatestPrice(rec)
		if err != nil {
			skipMissing(log, rec.Symbol, err)
			continue
		}

		returns := make([]float64, 0, len(momentumWindows))
		for _, w := range momentumWindows {
			v, err := w.signal(rec)
			if err != nil {
				skipMissing(log, rec.Symbol, err)
				returns = nil
				break
			}
			returns = append(returns, v)
		}
		if returns == nil {
			continue
		}

		for i, v := range returns {
			observations[i] = append(observations[i], v)
		}
		candidates = append(candidates, candidate{symbol: rec.Symbol, price: price, returns: returns})
	}

	rows := make([]models.RankedRow, 0, len(candidates))
	for _, c := range candidates {
		fields := map[string]any{ColPrice: c.price}
		percentiles := make([]float64, 0, len(momentumWindows))
		for i, w := range momentumWindows {
			p := PercentileOf(observations[i], c.returns[i])
			percentiles = append(percentiles, p)
			fields[w.returnCol] = c.returns[i]
			fields[w.percentileCol] = p
		}
		score := Mean(percentiles)
		fields[colHQMScore] = score
		rows = append(rows, models.RankedRow{Symbol: c.symbol, Signal: score, Fields: fields})
	}

	ranked := Rank(rows, RankOptions{
		Order:     Descending,
		TopN:      s.cfg.TopN,
		Threshold: thresholdFunc(s.cfg.Threshold),
	})

	columns := []models.Column{
		{Name: ColTicker, Format: models.FormatString},
		{Name: ColPrice, Format: models.FormatDollar},
		{Name: ColShares, Format: models.FormatInteger},
	}
	for _, w := range momentumWindows {
		columns = append(columns,
			models.Column{Name: w.returnCol, Format: models.FormatPercent},
			models.Column{Name: w.percentileCol, Format: models.FormatPercent})
	}
	columns = append(columns, models.Column{Name: colHQMScore, Format: models.FormatPercent})

	return buildTable(s.Name(), columns, ColPrice, ranked, s.portfolio)
}
