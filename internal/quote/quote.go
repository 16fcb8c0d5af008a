// Package quote provides the market data collaborators: daily price history
// per asset and the current quote used to value and fill orders.
package quote

import (
	"context"
	"fmt"

	"github.com/gamma-omg/crypto-sim/internal/config"
	"github.com/gamma-omg/crypto-sim/internal/market"
	"github.com/shopspring/decimal"
)

type HistoryProvider interface {
	Name() string
	History(ctx context.Context, asset string, days int) ([]market.RawPoint, error)
}

func NewHistory(ref config.HistoryReference) (HistoryProvider, error) {
	switch cfg := ref.Provider.(type) {
	case config.CSV:
		return NewCSVHistory(cfg.Data), nil
	case config.Alpaca:
		return NewAlpacaHistory(cfg), nil
	default:
		return nil, fmt.Errorf("unknown history provider: %v", ref.Provider)
	}
}

// Seed fills book with the last known price of each asset from history.
func Seed(ctx context.Context, book *Book, h HistoryProvider, assets []string, days int) error {
	for _, asset := range assets {
		raw, err := h.History(ctx, asset, days)
		if err != nil {
			return fmt.Errorf("failed to seed %s: %w", asset, err)
		}

		series, err := market.Validate(raw, 1)
		if err != nil {
			return fmt.Errorf("failed to seed %s: %w", asset, err)
		}

		last, _ := series.Last()
		book.UpdatePrice(asset, decimal.NewFromFloat(last.Value))
	}

	return nil
}
