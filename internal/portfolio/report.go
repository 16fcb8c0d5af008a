package portfolio

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// JSONReport collects closed trades and renders them as a P&L report.
type JSONReport struct {
	log    *slog.Logger
	report jsonReport
	spent  decimal.Decimal
	gained decimal.Decimal
	mu     sync.Mutex
}

type jsonReport struct {
	TotalGain    string                `json:"total_gain"`
	TotalGainPct float64               `json:"total_gain_pct"`
	Assets       map[string]assetTotal `json:"assets,omitempty"`
	Deals        map[string][]jsonDeal `json:"deals,omitempty"`
}

type assetTotal struct {
	Spend decimal.Decimal `json:"spend"`
	Gain  decimal.Decimal `json:"gain"`
	Deals int             `json:"deals"`
}

type jsonDeal struct {
	Side     Side      `json:"side"`
	BuyTime  time.Time `json:"buy_time,omitzero"`
	SellTime time.Time `json:"sell_time,omitzero"`
	Quantity string    `json:"quantity"`
	Spend    string    `json:"spend"`
	Gain     string    `json:"gain"`
	GainPct  float64   `json:"gain_pct"`
}

func NewJSONReport(log *slog.Logger) *JSONReport {
	return &JSONReport{
		log: log,
		report: jsonReport{
			Assets: map[string]assetTotal{},
			Deals:  map[string][]jsonDeal{},
		},
	}
}

// SubmitTrade records a closing trade. Trades without realized P&L are ignored.
func (r *JSONReport) SubmitTrade(t Trade) {
	if t.RealizedPnL == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	spend := t.Quantity.Mul(t.EntryPrice)
	gain := *t.RealizedPnL

	pct := 0.0
	if !spend.IsZero() {
		pct, _ = gain.Div(spend).Float64()
	}

	r.report.Deals[t.AssetID] = append(r.report.Deals[t.AssetID], jsonDeal{
		Side:     t.Side,
		BuyTime:  t.OpenedAt,
		SellTime: t.Timestamp,
		Quantity: t.Quantity.String(),
		Spend:    spend.String(),
		Gain:     gain.String(),
		GainPct:  pct,
	})

	total := r.report.Assets[t.AssetID]
	total.Spend = total.Spend.Add(spend)
	total.Gain = total.Gain.Add(gain)
	total.Deals++
	r.report.Assets[t.AssetID] = total

	r.spent = r.spent.Add(spend)
	r.gained = r.gained.Add(gain)

	r.log.Info("deal closed",
		slog.String("asset", t.AssetID),
		slog.String("side", string(t.Side)),
		slog.Float64("gain_pct", pct),
		slog.Time("buy_time", t.OpenedAt),
		slog.Time("sell_time", t.Timestamp))
}

func (r *JSONReport) Write(w io.Writer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.report.TotalGain = r.gained.String()
	r.report.TotalGainPct = 0
	if !r.spent.IsZero() {
		r.report.TotalGainPct, _ = r.gained.Div(r.spent).Float64()
	}

	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	if err := e.Encode(r.report); err != nil {
		return fmt.Errorf("failed to write trading report: %w", err)
	}

	return nil
}

func (r *JSONReport) WriteToFile(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	return r.Write(f)
}
