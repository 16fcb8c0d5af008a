package quote

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/gamma-omg/crypto-sim/internal/config"
	"github.com/gamma-omg/crypto-sim/internal/market"
	"github.com/shopspring/decimal"
)

type cryptoBarsClient interface {
	GetCryptoBars(symbol string, req marketdata.GetCryptoBarsRequest) ([]marketdata.CryptoBar, error)
	GetLatestCryptoBar(symbol string, req marketdata.GetLatestCryptoBarRequest) (*marketdata.CryptoBar, error)
}

// AlpacaHistory serves daily crypto bars and latest prices from the Alpaca
// market data API. Asset ids are mapped to pair symbols such as "BTC/USD".
type AlpacaHistory struct {
	client cryptoBarsClient
	quote  string
	now    func() time.Time
}

func NewAlpacaHistory(cfg config.Alpaca) *AlpacaHistory {
	c := marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    cfg.ApiKey,
		APISecret: cfg.Secret,
		BaseURL:   cfg.BaseUrl,
	})

	return newAlpacaHistory(c, cfg.Quote)
}

func newAlpacaHistory(c cryptoBarsClient, quote string) *AlpacaHistory {
	if quote == "" {
		quote = "USD"
	}

	return &AlpacaHistory{
		client: c,
		quote:  strings.ToUpper(quote),
		now:    time.Now,
	}
}

func (a *AlpacaHistory) Name() string {
	return "alpaca"
}

func (a *AlpacaHistory) Symbol(asset string) string {
	if strings.Contains(asset, "/") {
		return strings.ToUpper(asset)
	}

	return strings.ToUpper(asset) + "/" + a.quote
}

func (a *AlpacaHistory) History(ctx context.Context, asset string, days int) ([]market.RawPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	end := a.now().UTC()
	bars, err := a.client.GetCryptoBars(a.Symbol(asset), marketdata.GetCryptoBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     end.AddDate(0, 0, -days),
		End:       end,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get crypto bars for %s: %w", asset, err)
	}

	points := make([]market.RawPoint, len(bars))
	for i, b := range bars {
		points[i] = market.RawPoint{
			Time:  b.Timestamp.Unix(),
			Value: b.Close,
		}
	}

	return points, nil
}

func (a *AlpacaHistory) Quote(ctx context.Context, asset string) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}

	bar, err := a.client.GetLatestCryptoBar(a.Symbol(asset), marketdata.GetLatestCryptoBarRequest{})
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get latest bar for %s: %w", asset, err)
	}
	if bar == nil {
		return decimal.Zero, fmt.Errorf("%w: no bar for %s", ErrUnknownAsset, asset)
	}

	return decimal.NewFromFloat(bar.Close), nil
}
