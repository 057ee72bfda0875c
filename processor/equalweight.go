package processor

import (
	"equityflow/config"
	"equityflow/logger"
	"equityflow/models"
)

const (
	colStockPrice = "Stock Price"
	colMarketCap  = "Market Capitalization"
)

// EqualWeight ranks the whole universe by market capitalization and
// spreads the portfolio equally across it.
type EqualWeight struct {
	cfg       config.EqualWeightConfig
	portfolio float64
	log       *logger.Log
}

func NewEqualWeight(cfg *config.Config) *EqualWeight {
	return &EqualWeight{
		cfg:       cfg.Strategy.EqualWeight,
		portfolio: cfg.Portfolio.Size,
		log:       logger.GetLogger(),
	}
}

func (s *EqualWeight) Name() string { return "Recommended Trades" }

func (s *EqualWeight) FileBase() string { return "recommended_trades" }

func (s *EqualWeight) Run(records []*models.SymbolRecord) (*models.ExportTable, error) {
	log := s.log.WithComponent("equal_weight")

	rows := make([]models.RankedRow, 0, len(records))
	for _, rec := range records {
		price, err := LatestPrice(rec)
		if err != nil {
			skipMissing(log, rec.Symbol, err)
			continue
		}
		marketCap, err := MarketCap(rec)
		if err != nil {
			skipMissing(log, rec.Symbol, err)
			continue
		}
		rows = append(rows, models.RankedRow{
			Symbol: rec.Symbol,
			Signal: marketCap,
			Fields: map[string]any{
				colStockPrice: price,
				colMarketCap:  marketCap,
			},
		})
	}

	ranked := Rank(rows, RankOptions{Order: Descending, TopN: s.cfg.TopN})

	columns := []models.Column{
		{Name: ColTicker, Format: models.FormatString},
		{Name: colStockPrice, Format: models.FormatDollar},
		{Name: colMarketCap, Format: models.FormatDollar},
		{Name: ColShares, Format: models.FormatInteger},
	}
	return buildTable(s.Name(), columns, colStockPrice, ranked, s.portfolio)
}
