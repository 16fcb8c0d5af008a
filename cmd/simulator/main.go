package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gamma-omg/crypto-sim/internal/config"
	"github.com/gamma-omg/crypto-sim/internal/market"
	"github.com/gamma-omg/crypto-sim/internal/metrics"
	"github.com/gamma-omg/crypto-sim/internal/portfolio"
	"github.com/gamma-omg/crypto-sim/internal/quote"
	"github.com/gamma-omg/crypto-sim/internal/risk"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

type summary struct {
	Balance     decimal.Decimal      `json:"balance"`
	RealizedPnL decimal.Decimal      `json:"realized_pnl"`
	Valuation   *portfolio.Valuation `json:"valuation,omitempty"`
	Positions   []portfolio.Position `json:"positions"`
	History     []portfolio.Trade    `json:"history"`
	Exits       []exitAlert          `json:"exits,omitempty"`
	Rejected    int                  `json:"rejected"`
}

type exitAlert struct {
	PositionID string         `json:"position_id"`
	Asset      string         `json:"asset"`
	Side       portfolio.Side `json:"side"`
	Price      float64        `json:"price"`
	StopLoss   bool           `json:"stop_loss"`
	TakeProfit bool           `json:"take_profit"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	_ = godotenv.Load()

	cfg, err := config.ReadFromFile(os.Getenv("CONFIG"))
	if err != nil {
		log.Fatal(err)
	}
	cfg.ApplyEnv(os.Getenv)

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	if cfg.MetricsAddr != "" {
		metrics.Serve(ctx, cfg.MetricsAddr, reg, logger)
	}

	history, err := quote.NewHistory(cfg.HistoryRef)
	if err != nil {
		log.Fatal(err)
	}

	quotes, err := quoteSource(ctx, history, cfg)
	if err != nil {
		log.Fatal(err)
	}

	// scripted orders may pin their execution time
	var at time.Time
	clock := func() time.Time {
		if !at.IsZero() {
			return at
		}
		return time.Now()
	}

	report := portfolio.NewJSONReport(logger)
	sim := portfolio.NewSimulator(logger, decimal.NewFromFloat(cfg.Portfolio.InitialBalance), quotes,
		portfolio.WithReport(report),
		portfolio.WithMetrics(m),
		portfolio.WithClock(clock))

	rejected := 0
	for i, o := range cfg.Orders {
		at = o.Time
		if err := replay(ctx, sim, o); err != nil {
			rejected++
			logger.Warn("order skipped", slog.Int("step", i), slog.Any("err", err))
		}
	}

	p := sim.Snapshot()
	s := summary{
		Balance:     p.Balance(),
		RealizedPnL: p.RealizedPnL(),
		Positions:   p.Positions(),
		History:     p.History(),
		Rejected:    rejected,
	}

	v, err := sim.Valuation(ctx)
	if err != nil {
		logger.Error("failed to value portfolio", slog.Any("err", err))
	} else {
		s.Valuation = &v
	}

	tol, err := risk.ParseTolerance(cfg.Risk.Tolerance)
	if err != nil {
		log.Fatal(err)
	}

	s.Exits, err = checkExits(ctx, history, quotes, tol, cfg.Days, s.Positions)
	if err != nil {
		logger.Error("failed to check exit levels", slog.Any("err", err))
	}

	e := json.NewEncoder(os.Stdout)
	e.SetIndent("", "  ")
	if err := e.Encode(s); err != nil {
		log.Fatal(err)
	}

	if cfg.Portfolio.Report != "" {
		if err := report.WriteToFile(cfg.Portfolio.Report); err != nil {
			log.Fatal(err)
		}
	}
}

// quoteSource prefers live quotes when the history provider can serve them;
// otherwise quotes are the last known price of each configured asset.
func quoteSource(ctx context.Context, history quote.HistoryProvider, cfg *config.Config) (portfolio.QuoteProvider, error) {
	if live, ok := history.(portfolio.QuoteProvider); ok {
		return live, nil
	}

	book := quote.NewBook()
	if err := quote.Seed(ctx, book, history, cfg.Assets, cfg.Days); err != nil {
		return nil, err
	}

	return book, nil
}

// checkExits reports open positions whose price crossed the stop-loss or
// take-profit level derived from their entry price.
func checkExits(ctx context.Context, history quote.HistoryProvider, quotes portfolio.QuoteProvider, tol risk.Tolerance, days int, positions []portfolio.Position) ([]exitAlert, error) {
	var alerts []exitAlert
	vols := map[string]float64{}

	for _, pos := range positions {
		vol, ok := vols[pos.AssetID]
		if !ok {
			raw, err := history.History(ctx, pos.AssetID, days)
			if err != nil {
				return alerts, err
			}

			series, err := market.Validate(raw, 2)
			if err != nil {
				return alerts, fmt.Errorf("%s: %w", pos.AssetID, err)
			}

			if vol, err = risk.VolatilityScore(series); err != nil {
				return alerts, fmt.Errorf("%s: %w", pos.AssetID, err)
			}
			vols[pos.AssetID] = vol
		}

		q, err := quotes.Quote(ctx, pos.AssetID)
		if err != nil {
			return alerts, err
		}

		entry, _ := pos.EntryPrice.Float64()
		price, _ := q.Float64()

		params, err := risk.Compute(entry, tol, vol)
		if err != nil {
			return alerts, fmt.Errorf("%s: %w", pos.AssetID, err)
		}

		sl, tp := params.Triggered(entry, price, pos.Side == portfolio.Short)
		if sl || tp {
			alerts = append(alerts, exitAlert{
				PositionID: pos.ID,
				Asset:      pos.AssetID,
				Side:       pos.Side,
				Price:      price,
				StopLoss:   sl,
				TakeProfit: tp,
			})
		}
	}

	return alerts, nil
}

func replay(ctx context.Context, sim *portfolio.Simulator, o config.Order) error {
	switch o.Action {
	case "reset":
		sim.Reset()
		return nil
	case "undo":
		_, err := sim.Undo()
		return err
	}

	req, err := request(o)
	if err != nil {
		return err
	}

	_, err = sim.Submit(ctx, req)
	return err
}

func request(o config.Order) (r portfolio.Request, err error) {
	r.AssetID = o.Asset

	if r.Action, err = portfolio.ParseAction(o.Action); err != nil {
		return
	}
	if r.Side, err = portfolio.ParseSide(o.Side); err != nil {
		return
	}

	if r.Quantity, err = decimal.NewFromString(o.Quantity); err != nil {
		err = errors.Join(portfolio.ErrInvalidOrder, fmt.Errorf("quantity %q: %w", o.Quantity, err))
		return
	}

	if o.Limit != "" {
		if r.Limit, err = decimal.NewFromString(o.Limit); err != nil {
			err = errors.Join(portfolio.ErrInvalidOrder, fmt.Errorf("limit %q: %w", o.Limit, err))
			return
		}
	}

	return
}
