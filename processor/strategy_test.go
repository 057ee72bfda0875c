package processor

import (
	"testing"

	"equityflow/config"
	"equityflow/models"
)

func record(symbol string, price float64, stats models.AdvancedStats) *models.SymbolRecord {
	return &models.SymbolRecord{
		Symbol: symbol,
		Quote:  models.Quote{Symbol: symbol, LatestPrice: fp(price)},
		Stats:  stats,
	}
}

func strategyConfig() *config.Config {
	return &config.Config{
		Strategy: config.StrategyConfig{
			Momentum: config.ScreenConfig{TopN: 50},
			Value:    config.ScreenConfig{TopN: 50},
		},
		Portfolio: config.PortfolioConfig{Size: 10000},
	}
}

func TestNewStrategy(t *testing.T) {
	cfg := strategyConfig()
	for _, name := range []string{"equal-weight", "momentum", "value"} {
		if _, err := NewStrategy(name, cfg); err != nil {
			t.Errorf("NewStrategy(%q) failed: %v", name, err)
		}
	}
	if _, err := NewStrategy("arbitrage", cfg); err == nil {
		t.Errorf("expected error for unknown strategy")
	}
}

func TestMomentumSingleFactorTieBreak(t *testing.T) {
	cfg := strategyConfig()
	s := NewMomentum(cfg)

	records := []*models.SymbolRecord{
		record("MSFT", 100, models.AdvancedStats{Year1ChangePercent: fp(5.0)}),
		record("AAPL", 100, models.AdvancedStats{Year1ChangePercent: fp(5.0)}),
	}
	table, err := s.Run(records)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(table.Rows))
	}
	if table.Rows[0][ColTicker] != "AAPL" || table.Rows[1][ColTicker] != "MSFT" {
		t.Fatalf("expected alphabetical tie-break [AAPL MSFT], got [%v %v]",
			table.Rows[0][ColTicker], table.Rows[1][ColTicker])
	}
}

func TestMomentumExcludesMissingField(t *testing.T) {
	cfg := strategyConfig()
	s := NewMomentum(cfg)

	records := []*models.SymbolRecord{
		record("AAPL", 100, models.AdvancedStats{Year1ChangePercent: fp(0.4)}),
		record("NODATA", 50, models.AdvancedStats{}),
	}
	table, err := s.Run(records)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(table.Rows) != 1 || table.Rows[0][ColTicker] != "AAPL" {
		t.Fatalf("expected only AAPL, got %v", table.Rows)
	}
}

func TestMomentumThresholdNoneQualify(t *testing.T) {
	cfg := strategyConfig()
	threshold := 10.0
	cfg.Strategy.Momentum.Threshold = &threshold
	s := NewMomentum(cfg)

	records := []*models.SymbolRecord{
		record("AAPL", 100, models.AdvancedStats{Year1ChangePercent: fp(0.4)}),
		record("MSFT", 100, models.AdvancedStats{Year1ChangePercent: fp(0.2)}),
	}
	table, err := s.Run(records)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(table.Rows) != 0 {
		t.Fatalf("expected zero data rows, got %d", len(table.Rows))
	}
	if len(table.Columns) == 0 {
		t.Fatalf("expected header columns even with no rows")
	}
}

func TestMomentumComposite(t *testing.T) {
	cfg := strategyConfig()
	cfg.Strategy.Momentum.Composite = true
	s := NewMomentum(cfg)

	stats := func(y1, m6, m3, m1 float64) models.AdvancedStats {
		return models.AdvancedStats{
			Year1ChangePercent:  fp(y1),
			Month6ChangePercent: fp(m6),
			Month3ChangePercent: fp(m3),
			Month1ChangePercent: fp(m1),
		}
	}

	records := []*models.SymbolRecord{
		record("LOW", 10, stats(0.1, 0.1, 0.1, 0.1)),
		record("MID", 20, stats(0.2, 0.2, 0.2, 0.2)),
		record("HIGH", 30, stats(0.3, 0.3, 0.3, 0.3)),
	}
	table, err := s.Run(records)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(table.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(table.Rows))
	}
	if table.Rows[0][ColTicker] != "HIGH" {
		t.Fatalf("expected HIGH first, got %v", table.Rows[0][ColTicker])
	}
	if score := table.Rows[0][colHQMScore].(float64); score != 1.0 {
		t.Fatalf("expected HQM score 1.0 for the top stock, got %v", score)
	}
	if score := table.Rows[2][colHQMScore].(float64); score >= 0.5 {
		t.Fatalf("expected lowest HQM score below 0.5, got %v", score)
	}
}

func TestValueSingleFactorRanksAscending(t *testing.T) {
	cfg := strategyConfig()
	s := NewValue(cfg)

	records := []*models.SymbolRecord{
		{Symbol: "RICH", Quote: models.Quote{LatestPrice: fp(100), PERatio: fp(40)}},
		{Symbol: "CHEAP", Quote: models.Quote{LatestPrice: fp(100), PERatio: fp(8)}},
		{Symbol: "LOSS", Quote: models.Quote{LatestPrice: fp(100), PERatio: fp(-5)}},
	}
	table, err := s.Run(records)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("expected negative-earnings stock excluded, got %d rows", len(table.Rows))
	}
	if table.Rows[0][ColTicker] != "CHEAP" {
		t.Fatalf("expected CHEAP first, got %v", table.Rows[0][ColTicker])
	}
}

func TestValueComposite(t *testing.T) {
	cfg := strategyConfig()
	cfg.Strategy.Value.Composite = true
	s := NewValue(cfg)

	stats := func(pb, ps, ev, ebitda, gp float64) models.AdvancedStats {
		return models.AdvancedStats{
			PriceToBook:     fp(pb),
			PriceToSales:    fp(ps),
			EnterpriseValue: fp(ev),
			EBITDA:          fp(ebitda),
			GrossProfit:     fp(gp),
		}
	}

	records := []*models.SymbolRecord{
		{Symbol: "CHEAP", Quote: models.Quote{LatestPrice: fp(10), PERatio: fp(5)}, Stats: stats(1, 1, 1000, 500, 500)},
		{Symbol: "RICH", Quote: models.Quote{LatestPrice: fp(10), PERatio: fp(50)}, Stats: stats(10, 10, 10000, 500, 500)},
	}
	table, err := s.Run(records)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(table.Rows))
	}
	// Low composite percentiles mark cheap stocks; they lead the screen.
	if table.Rows[0][ColTicker] != "CHEAP" {
		t.Fatalf("expected CHEAP ranked first, got %v", table.Rows[0][ColTicker])
	}
	cheap := table.Rows[0][colRVScore].(float64)
	rich := table.Rows[1][colRVScore].(float64)
	if cheap >= rich {
		t.Fatalf("expected CHEAP to carry the lower RV score, got %v vs %v", cheap, rich)
	}
}

func TestEqualWeightAllocation(t *testing.T) {
	cfg := strategyConfig()
	s := NewEqualWeight(cfg)

	records := []*models.SymbolRecord{
		record("BIG", 150, models.AdvancedStats{}),
		record("SMALL", 10, models.AdvancedStats{}),
	}
	records[0].Quote.MarketCap = fp(3e12)
	records[1].Quote.MarketCap = fp(1e9)

	table, err := s.Run(records)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if table.Rows[0][ColTicker] != "BIG" {
		t.Fatalf("expected BIG ranked first by market cap, got %v", table.Rows[0][ColTicker])
	}
	// 10000 portfolio over 2 positions: 5000 each.
	if shares := table.Rows[0][ColShares].(int64); shares != 33 {
		t.Fatalf("expected 33 shares of BIG, got %d", shares)
	}
	if shares := table.Rows[1][ColShares].(int64); shares != 500 {
		t.Fatalf("expected 500 shares of SMALL, got %d", shares)
	}
}

func TestBuildTableWithoutPortfolioDropsSharesColumn(t *testing.T) {
	cfg := strategyConfig()
	cfg.Portfolio.Size = 0
	s := NewMomentum(cfg)

	records := []*models.SymbolRecord{
		record("AAPL", 100, models.AdvancedStats{Year1ChangePercent: fp(0.4)}),
	}
	table, err := s.Run(records)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for _, col := range table.Columns {
		if col.Name == ColShares {
			t.Fatalf("expected shares column to be dropped without a portfolio")
		}
	}
	if err := table.Validate(); err != nil {
		t.Fatalf("table should validate: %v", err)
	}
}
