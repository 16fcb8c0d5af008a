package indicator

import (
	"testing"

	"github.com/gamma-omg/crypto-sim/internal/config"
	"github.com/gamma-omg/crypto-sim/internal/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinLength(t *testing.T) {
	assert.Equal(t, 34, MinLength(config.DefaultIndicators()))
	assert.Equal(t, 50, MinLength(config.Indicators{
		RSIPeriod: 49,
		MACD:      config.MACD{Fast: 2, Slow: 3, Signal: 2},
		Bollinger: config.Bollinger{Period: 5, StdDev: 2},
	}))
}

func TestCompute(t *testing.T) {
	cfg := config.DefaultIndicators()

	s, err := Compute(macdScenario, cfg)
	require.NoError(t, err)

	rsi, err := RSI(macdScenario, cfg.RSIPeriod)
	require.NoError(t, err)
	bb, err := BollingerBands(macdScenario, cfg.Bollinger.Period, cfg.Bollinger.StdDev)
	require.NoError(t, err)

	assert.Equal(t, rsi[len(rsi)-1], s.RSI)
	assert.InDelta(t, 0.534519, s.MACD.Line, 1e-6)
	assert.InDelta(t, 0.461339, s.MACD.Signal, 1e-6)
	assert.Equal(t, s.MACD.Line-s.MACD.Signal, s.MACD.Histogram)
	assert.Equal(t, bb.Middle[len(bb.Middle)-1], s.Bollinger.Middle)
	assert.GreaterOrEqual(t, s.Bollinger.Upper, s.Bollinger.Middle)
	assert.GreaterOrEqual(t, s.Bollinger.Middle, s.Bollinger.Lower)
	assert.NotZero(t, s.MovingAverages.MA20)
	assert.Zero(t, s.MovingAverages.MA50)
	assert.Zero(t, s.MovingAverages.MA200)
}

func TestCompute_insufficientData(t *testing.T) {
	_, err := Compute(macdScenario[:30], config.DefaultIndicators())
	assert.ErrorIs(t, err, market.ErrInsufficientData)
}
