package portfolio

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func closing(asset, qty, entry, pnl string, side Side) Trade {
	realized := dec(pnl)
	return Trade{
		AssetID:     asset,
		Quantity:    dec(qty),
		EntryPrice:  dec(entry),
		Side:        side,
		Action:      Sell,
		OpenedAt:    t0,
		Timestamp:   t0.Add(24 * time.Hour),
		RealizedPnL: &realized,
	}
}

func TestJSONReport(t *testing.T) {
	r := NewJSONReport(discardLog())
	r.SubmitTrade(Trade{AssetID: "bitcoin", Action: Buy, Quantity: dec("1"), Price: dec("100")})
	r.SubmitTrade(closing("bitcoin", "1", "100", "50", Long))
	r.SubmitTrade(closing("bitcoin", "2", "50", "-10", Long))
	r.SubmitTrade(closing("ethereum", "4", "25", "20", Short))

	var buf bytes.Buffer
	require.NoError(t, r.Write(&buf))

	var out struct {
		TotalGain    string  `json:"total_gain"`
		TotalGainPct float64 `json:"total_gain_pct"`
		Assets       map[string]struct {
			Spend decimal.Decimal `json:"spend"`
			Gain  decimal.Decimal `json:"gain"`
			Deals int             `json:"deals"`
		} `json:"assets"`
		Deals map[string][]struct {
			Side    Side    `json:"side"`
			Spend   string  `json:"spend"`
			Gain    string  `json:"gain"`
			GainPct float64 `json:"gain_pct"`
		} `json:"deals"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))

	assert.Equal(t, "60", out.TotalGain)
	assert.InDelta(t, 0.2, out.TotalGainPct, 1e-9)

	require.Len(t, out.Deals["bitcoin"], 2)
	assert.Equal(t, "100", out.Deals["bitcoin"][0].Spend)
	assert.InDelta(t, 0.5, out.Deals["bitcoin"][0].GainPct, 1e-9)
	assert.InDelta(t, -0.1, out.Deals["bitcoin"][1].GainPct, 1e-9)
	assert.Equal(t, Short, out.Deals["ethereum"][0].Side)

	assert.Equal(t, 2, out.Assets["bitcoin"].Deals)
	assert.True(t, dec("200").Equal(out.Assets["bitcoin"].Spend))
	assert.True(t, dec("40").Equal(out.Assets["bitcoin"].Gain))
}

func TestJSONReport_empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONReport(discardLog()).Write(&buf))
	assert.JSONEq(t, `{"total_gain":"0","total_gain_pct":0}`, buf.String())
}

func TestJSONReport_WriteToFile(t *testing.T) {
	r := NewJSONReport(discardLog())
	r.SubmitTrade(closing("bitcoin", "1", "100", "5", Long))

	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, r.WriteToFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"total_gain": "5"`)

	assert.Error(t, r.WriteToFile(filepath.Join(t.TempDir(), "missing", "report.json")))
}
