package quote

import (
	"context"
	"errors"
	"testing"

	"github.com/gamma-omg/crypto-sim/internal/config"
	"github.com/gamma-omg/crypto-sim/internal/market"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticHistory struct {
	points map[string][]market.RawPoint
}

func (h staticHistory) Name() string { return "static" }

func (h staticHistory) History(_ context.Context, asset string, _ int) ([]market.RawPoint, error) {
	p, ok := h.points[asset]
	if !ok {
		return nil, errors.New("unknown")
	}
	return p, nil
}

func TestNewHistory(t *testing.T) {
	h, err := NewHistory(config.HistoryReference{Provider: config.CSV{Data: map[string]string{}}})
	require.NoError(t, err)
	assert.Equal(t, "csv", h.Name())

	h, err = NewHistory(config.HistoryReference{Provider: config.Alpaca{ApiKey: "k", Secret: "s"}})
	require.NoError(t, err)
	assert.Equal(t, "alpaca", h.Name())

	_, err = NewHistory(config.HistoryReference{})
	assert.Error(t, err)
}

func TestSeed(t *testing.T) {
	h := staticHistory{points: map[string][]market.RawPoint{
		"bitcoin":  {{Time: 2 * day, Value: 110}, {Time: day, Value: 100}},
		"ethereum": {{Time: day, Value: 10}},
		"broken":   {{Time: day, Value: -1}},
	}}

	book := NewBook()
	require.NoError(t, Seed(context.Background(), book, h, []string{"bitcoin", "ethereum"}, 30))

	prices := book.Prices()
	assert.True(t, decimal.NewFromInt(110).Equal(prices["bitcoin"]))
	assert.True(t, decimal.NewFromInt(10).Equal(prices["ethereum"]))

	err := Seed(context.Background(), book, h, []string{"broken"}, 30)
	assert.ErrorIs(t, err, market.ErrInvalidData)

	err = Seed(context.Background(), book, h, []string{"missing"}, 30)
	assert.Error(t, err)
}
