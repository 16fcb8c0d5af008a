package indicator

import (
	"fmt"
	"testing"

	"github.com/gamma-omg/crypto-sim/internal/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var macdScenario = []float64{
	44, 44.5, 43.5, 46.8244, 47.3158, 47.4862, 47.3279, 46.8693, 46.1718, 45.3234,
	44.4283, 43.5962, 42.9296, 42.513, 42.4031, 42.6232, 43.16, 43.9654, 44.9618, 46.0504,
	47.1225, 48.071, 48.8025, 49.2475, 49.3681, 49.1619, 48.6627, 47.9364, 47.074, 46.1814,
	45.3679, 44.7342, 44.3608, 44.3, 44.5695, 45.1506, 45.9903, 47.0072, 48.1004, 49.1605,
}

func TestMACD(t *testing.T) {
	tbl := []struct {
		prices  []float64
		fast    int
		slow    int
		signal  int
		line    []float64
		sig     []float64
		epsilon float64
	}{
		{
			prices:  []float64{2, 4, 6, 8, 12, 14, 10, 9},
			fast:    2,
			slow:    3,
			signal:  2,
			line:    []float64{1.0, 1.333333, 1.277778, 0.175926, -0.233025},
			sig:     []float64{1.0, 1.222222, 1.259259, 0.537037, 0.023663},
			epsilon: 1e-6,
		},
		{
			prices:  []float64{1, 2, 3, 4, 5, 6},
			fast:    2,
			slow:    3,
			signal:  2,
			line:    []float64{0.5, 0.5, 0.5},
			sig:     []float64{0.5, 0.5, 0.5},
			epsilon: 1e-9,
		},
		{
			prices:  macdScenario,
			fast:    DefaultMACDFast,
			slow:    DefaultMACDSlow,
			signal:  DefaultMACDSignal,
			line:    []float64{0.224716, 0.096643, 0.041556, 0.064907, 0.163583, 0.326235, 0.534519},
			sig:     []float64{1.010568, 0.827783, 0.670538, 0.549412, 0.472246, 0.443044, 0.461339},
			epsilon: 1e-6,
		},
		{
			prices:  macdScenario[:34],
			fast:    DefaultMACDFast,
			slow:    DefaultMACDSlow,
			signal:  DefaultMACDSignal,
			line:    []float64{0.224716},
			sig:     []float64{1.010568},
			epsilon: 1e-6,
		},
	}

	for i, c := range tbl {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			res, err := MACD(c.prices, c.fast, c.slow, c.signal)
			require.NoError(t, err)
			require.Len(t, res.Line, len(c.line))
			require.Len(t, res.Signal, len(c.sig))
			require.Len(t, res.Histogram, len(c.line))

			for j := range c.line {
				assert.InDelta(t, c.line[j], res.Line[j], c.epsilon, "line at %d", j)
				assert.InDelta(t, c.sig[j], res.Signal[j], c.epsilon, "signal at %d", j)
			}
		})
	}
}

func TestMACD_histogramIsLineMinusSignal(t *testing.T) {
	res, err := MACD(macdScenario, DefaultMACDFast, DefaultMACDSlow, DefaultMACDSignal)
	require.NoError(t, err)

	for i := range res.Histogram {
		assert.Equal(t, res.Line[i]-res.Signal[i], res.Histogram[i])
	}
}

func TestMACD_noSignalYet(t *testing.T) {
	tbl := []int{26, 30, 33}

	for i, n := range tbl {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			res, err := MACD(macdScenario[:n], DefaultMACDFast, DefaultMACDSlow, DefaultMACDSignal)
			require.NoError(t, err)
			assert.NotNil(t, res.Line)
			assert.Empty(t, res.Line)
			assert.Empty(t, res.Signal)
			assert.Empty(t, res.Histogram)
		})
	}
}

func TestMACD_errors(t *testing.T) {
	_, err := MACD(macdScenario[:25], 12, 26, 9)
	assert.ErrorIs(t, err, market.ErrInsufficientData)

	_, err = MACD(nil, 12, 26, 9)
	assert.ErrorIs(t, err, market.ErrInsufficientData)

	bad := append([]float64{0}, macdScenario...)
	_, err = MACD(bad, 12, 26, 9)
	assert.ErrorIs(t, err, market.ErrInvalidData)

	_, err = MACD(macdScenario, 26, 12, 9)
	assert.ErrorIs(t, err, ErrInvalidParams)

	_, err = MACD(macdScenario, 12, 26, 0)
	assert.ErrorIs(t, err, ErrInvalidParams)
}
