package processor

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"equityflow/config"
	"equityflow/logger"
	"equityflow/models"
)

// Shared column names. The exporters write headers in exactly this form.
const (
	ColTicker = "Ticker"
	ColPrice  = "Price"
	ColShares = "Number of Shares to Buy"
)

// Strategy turns fetched symbol records into a ranked export table.
type Strategy interface {
	Name() string
	FileBase() string
	Run(records []*models.SymbolRecord) (*models.ExportTable, error)
}

// NewStrategy builds the named strategy from configuration. Valid names
// are "equal-weight", "momentum" and "value".
func NewStrategy(name string, cfg *config.Config) (Strategy, error) {
	switch name {
	case "equal-weight":
		return NewEqualWeight(cfg), nil
	case "momentum":
		return NewMomentum(cfg), nil
	case "value":
		return NewValue(cfg), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}

// thresholdFunc converts an optional config threshold into a ranker
// predicate. Nil means no filtering.
func thresholdFunc(threshold *float64) func(float64) bool {
	if threshold == nil {
		return nil
	}
	min := *threshold
	return func(signal float64) bool { return signal > min }
}

// skipMissing records a symbol excluded for a missing or undefined field.
func skipMissing(log *logger.Entry, symbol string, err error) {
	logger.IncrementFetchFailure(string(models.FailMissingField))
	log.WithFields(logger.Fields{"symbol": symbol, "reason": err.Error()}).Debug("symbol excluded from screen")
}

// buildTable assembles the export table from ranked rows. When portfolio
// is positive an equal-weight share allocation fills the shares column;
// otherwise that column is dropped entirely so no row is left blank.
func buildTable(name string, columns []models.Column, priceCol string, ranked []models.RankedRow, portfolio float64) (*models.ExportTable, error) {
	allocate := portfolio > 0 && len(ranked) > 0
	if !allocate {
		kept := make([]models.Column, 0, len(columns))
		for _, col := range columns {
			if col.Name != ColShares {
				kept = append(kept, col)
			}
		}
		columns = kept
	}

	position := PositionSize(portfolio, len(ranked))

	rows := make([]map[string]any, 0, len(ranked))
	for _, r := range ranked {
		row := make(map[string]any, len(r.Fields)+2)
		row[ColTicker] = r.Symbol
		for k, v := range r.Fields {
			row[k] = v
		}
		if allocate {
			price, _ := row[priceCol].(float64)
			row[ColShares] = SharesToBuy(position, price)
		}
		rows = append(rows, row)
	}

	table := &models.ExportTable{
		Name:      name,
		RunID:     uuid.New().String(),
		Columns:   columns,
		Rows:      rows,
		CreatedAt: time.Now().UTC(),
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("assembled table is inconsistent: %w", err)
	}
	return table, nil
}
