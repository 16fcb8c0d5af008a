package quote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/gamma-omg/crypto-sim/internal/market"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ cryptoBarsClient = (*marketdata.Client)(nil)

type fakeBarsClient struct {
	bars    map[string][]marketdata.CryptoBar
	err     error
	lastReq marketdata.GetCryptoBarsRequest
	lastSym string
}

func (c *fakeBarsClient) GetCryptoBars(symbol string, req marketdata.GetCryptoBarsRequest) ([]marketdata.CryptoBar, error) {
	c.lastSym = symbol
	c.lastReq = req
	if c.err != nil {
		return nil, c.err
	}

	return c.bars[symbol], nil
}

func (c *fakeBarsClient) GetLatestCryptoBar(symbol string, _ marketdata.GetLatestCryptoBarRequest) (*marketdata.CryptoBar, error) {
	c.lastSym = symbol
	if c.err != nil {
		return nil, c.err
	}

	bars := c.bars[symbol]
	if len(bars) == 0 {
		return nil, nil
	}

	return &bars[len(bars)-1], nil
}

func TestAlpacaHistory_History(t *testing.T) {
	now := time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC)
	c := &fakeBarsClient{bars: map[string][]marketdata.CryptoBar{
		"BTC/USD": {
			{Timestamp: now.AddDate(0, 0, -2).Truncate(24 * time.Hour), Close: 61000.5},
			{Timestamp: now.AddDate(0, 0, -1).Truncate(24 * time.Hour), Close: 62000},
		},
	}}

	a := newAlpacaHistory(c, "")
	a.now = func() time.Time { return now }

	points, err := a.History(context.Background(), "btc", 30)
	require.NoError(t, err)
	assert.Equal(t, "BTC/USD", c.lastSym)
	assert.Equal(t, marketdata.OneDay, c.lastReq.TimeFrame)
	assert.Equal(t, now.AddDate(0, 0, -30), c.lastReq.Start)
	assert.Equal(t, now, c.lastReq.End)

	assert.Equal(t, []market.RawPoint{
		{Time: now.AddDate(0, 0, -2).Truncate(24 * time.Hour).Unix(), Value: 61000.5},
		{Time: now.AddDate(0, 0, -1).Truncate(24 * time.Hour).Unix(), Value: 62000},
	}, points)
}

func TestAlpacaHistory_Quote(t *testing.T) {
	c := &fakeBarsClient{bars: map[string][]marketdata.CryptoBar{
		"ETH/USDT": {{Close: 3000}, {Close: 3100.25}},
	}}
	a := newAlpacaHistory(c, "usdt")

	q, err := a.Quote(context.Background(), "eth")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("3100.25").Equal(q))

	_, err = a.Quote(context.Background(), "sol")
	assert.ErrorIs(t, err, ErrUnknownAsset)
}

func TestAlpacaHistory_errors(t *testing.T) {
	boom := errors.New("rate limited")
	a := newAlpacaHistory(&fakeBarsClient{err: boom}, "USD")

	_, err := a.History(context.Background(), "btc", 10)
	assert.ErrorIs(t, err, boom)

	_, err = a.Quote(context.Background(), "btc")
	assert.ErrorIs(t, err, boom)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.History(ctx, "btc", 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAlpacaHistory_Symbol(t *testing.T) {
	a := newAlpacaHistory(&fakeBarsClient{}, "USD")
	assert.Equal(t, "BTC/USD", a.Symbol("btc"))
	assert.Equal(t, "ETH/BTC", a.Symbol("eth/btc"))
}
