package quote

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

var ErrUnknownAsset = errors.New("unknown asset")

// Book keeps the latest known price per asset.
type Book struct {
	prices map[string]decimal.Decimal
	mu     sync.RWMutex
}

func NewBook() *Book {
	return &Book{
		prices: make(map[string]decimal.Decimal),
	}
}

func (b *Book) UpdatePrice(asset string, price decimal.Decimal) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.prices[asset] = price
}

func (b *Book) Quote(_ context.Context, asset string) (price decimal.Decimal, err error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	price, ok := b.prices[asset]
	if !ok {
		err = fmt.Errorf("%w: %s", ErrUnknownAsset, asset)
		return
	}

	return
}

// Prices returns a copy of every known price.
func (b *Book) Prices() map[string]decimal.Decimal {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[string]decimal.Decimal, len(b.prices))
	for k, v := range b.prices {
		out[k] = v
	}

	return out
}
