package quote

import (
	"context"
	"sync"
	"testing"

	"github.com/gamma-omg/crypto-sim/internal/portfolio"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ portfolio.QuoteProvider = (*Book)(nil)
	_ portfolio.QuoteProvider = (*AlpacaHistory)(nil)
)

func TestBook(t *testing.T) {
	b := NewBook()
	ctx := context.Background()

	_, err := b.Quote(ctx, "bitcoin")
	assert.ErrorIs(t, err, ErrUnknownAsset)

	b.UpdatePrice("bitcoin", decimal.NewFromInt(100))
	b.UpdatePrice("bitcoin", decimal.NewFromInt(110))

	p, err := b.Quote(ctx, "bitcoin")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(110).Equal(p))

	prices := b.Prices()
	prices["bitcoin"] = decimal.Zero
	p, _ = b.Quote(ctx, "bitcoin")
	assert.True(t, decimal.NewFromInt(110).Equal(p))
}

func TestBook_concurrent(t *testing.T) {
	b := NewBook()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			b.UpdatePrice("eth", decimal.NewFromInt(int64(i+1)))
		}()
		go func() {
			defer wg.Done()
			_, _ = b.Quote(context.Background(), "eth")
		}()
	}
	wg.Wait()

	p, err := b.Quote(context.Background(), "eth")
	require.NoError(t, err)
	assert.True(t, p.IsPositive())
}
