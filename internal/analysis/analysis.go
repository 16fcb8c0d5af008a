// Package analysis runs the indicator and risk pipeline over the price
// history of a set of assets.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/gamma-omg/crypto-sim/internal/config"
	"github.com/gamma-omg/crypto-sim/internal/indicator"
	"github.com/gamma-omg/crypto-sim/internal/market"
	"github.com/gamma-omg/crypto-sim/internal/metrics"
	"github.com/gamma-omg/crypto-sim/internal/risk"
	"golang.org/x/sync/errgroup"
)

type historySource interface {
	Name() string
	History(ctx context.Context, asset string, days int) ([]market.RawPoint, error)
}

type Result struct {
	Asset           string             `json:"asset"`
	Time            int64              `json:"time"`
	Price           float64            `json:"price"`
	Points          int                `json:"points"`
	Indicators      indicator.Snapshot `json:"indicators"`
	Volatility      float64            `json:"volatility_score"`
	VolatilityLevel risk.Level         `json:"volatility_level"`
	Tolerance       risk.Tolerance     `json:"tolerance"`
	Risk            risk.Params        `json:"risk"`
	RecommendedRisk float64            `json:"recommended_risk"`
	Chart           string             `json:"chart,omitempty"`
	Dump            string             `json:"dump,omitempty"`
}

type Analyzer struct {
	log       *slog.Logger
	cfg       config.Config
	tolerance risk.Tolerance
	history   historySource
	metrics   *metrics.Metrics
}

func NewAnalyzer(log *slog.Logger, cfg config.Config, history historySource, m *metrics.Metrics) (*Analyzer, error) {
	tol, err := risk.ParseTolerance(cfg.Risk.Tolerance)
	if err != nil {
		return nil, fmt.Errorf("failed to create analyzer: %w", err)
	}

	return &Analyzer{
		log:       log,
		cfg:       cfg,
		tolerance: tol,
		history:   history,
		metrics:   m,
	}, nil
}

// Run analyzes every asset concurrently. Results keep the order of assets;
// failed assets are left out and their errors joined.
func (a *Analyzer) Run(ctx context.Context, assets []string) ([]Result, error) {
	results := make([]Result, len(assets))
	errs := make([]error, len(assets))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i, asset := range assets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			res, err := a.Analyze(ctx, asset)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", asset, err)
				return nil
			}

			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Result, 0, len(assets))
	for i, r := range results {
		if errs[i] == nil {
			out = append(out, r)
		}
	}

	return out, errors.Join(errs...)
}

func (a *Analyzer) Analyze(ctx context.Context, asset string) (res Result, err error) {
	log := a.log.With(slog.String("asset", asset))
	defer func() {
		a.record(asset, err)
		if err != nil {
			log.Error("analysis failed", slog.Any("err", err))
		}
	}()

	raw, err := a.history.History(ctx, asset, a.cfg.Days)
	if err != nil {
		err = fmt.Errorf("failed to fetch price history: %w", err)
		return
	}
	if a.metrics != nil {
		a.metrics.HistoryFetches.WithLabelValues(a.history.Name()).Inc()
	}

	series, err := market.Validate(raw, indicator.MinLength(a.cfg.Indicators))
	if err != nil {
		err = fmt.Errorf("failed to validate price history: %w", err)
		return
	}

	prices := series.Values()
	start := time.Now()
	ind, err := indicator.ComputeSeries(prices, a.cfg.Indicators)
	if err != nil {
		return
	}
	if a.metrics != nil {
		a.metrics.IndicatorDur.Observe(time.Since(start).Seconds())
	}

	vol, err := risk.VolatilityScore(series)
	if err != nil {
		return
	}

	last, _ := series.Last()
	params, err := risk.Compute(last.Value, a.tolerance, vol)
	if err != nil {
		err = fmt.Errorf("failed to compute risk parameters: %w", err)
		return
	}

	capital := a.cfg.Risk.Capital
	if capital == 0 {
		capital = a.cfg.Portfolio.InitialBalance
	}
	recommended, err := risk.RecommendedRisk(capital, a.tolerance)
	if err != nil {
		return
	}

	res = Result{
		Asset:           asset,
		Time:            last.Time,
		Price:           last.Value,
		Points:          len(series),
		Indicators:      ind.Last(prices),
		Volatility:      vol,
		VolatilityLevel: risk.Classify(vol),
		Tolerance:       a.tolerance,
		Risk:            params,
		RecommendedRisk: recommended,
	}

	if dir := a.cfg.Output.PlotDir; dir != "" {
		res.Chart, err = a.plot(dir, asset, series, ind)
		if err != nil {
			return
		}
	}

	if dir := a.cfg.Output.DumpDir; dir != "" {
		res.Dump, err = a.dump(dir, asset, series, ind)
		if err != nil {
			return
		}
	}

	log.Info("asset analyzed",
		slog.Time("as_of", last.Timestamp()),
		slog.Float64("price", res.Price),
		slog.Float64("rsi", res.Indicators.RSI),
		slog.Float64("macd_histogram", res.Indicators.MACD.Histogram),
		slog.Float64("volatility", vol),
		slog.Float64("stop_loss", params.StopLossPrice),
		slog.Float64("take_profit", params.TakeProfitPrice))

	return
}

func (a *Analyzer) plot(dir, asset string, series market.Series, ind indicator.Series) (string, error) {
	chart, err := indicator.NewIndicatorChart(strings.ToUpper(asset), series, ind)
	if err != nil {
		return "", fmt.Errorf("failed to build chart: %w", err)
	}

	path := filepath.Join(dir, fileName(asset)+".png")
	if err := chart.Save(path); err != nil {
		return "", fmt.Errorf("failed to save chart: %w", err)
	}

	return path, nil
}

func (a *Analyzer) dump(dir, asset string, series market.Series, ind indicator.Series) (path string, err error) {
	path = filepath.Join(dir, fileName(asset)+".csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create series dump: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if err = newCsvSeriesDump(f).Dump(series, ind); err != nil {
		return "", err
	}

	return path, nil
}

func (a *Analyzer) record(asset string, err error) {
	if a.metrics == nil {
		return
	}

	result := "ok"
	switch {
	case errors.Is(err, market.ErrInsufficientData):
		result = "insufficient_data"
	case errors.Is(err, market.ErrInvalidData):
		result = "invalid_data"
	case err != nil:
		result = "error"
	}

	a.metrics.AnalysesTotal.WithLabelValues(asset, result).Inc()
}

func fileName(asset string) string {
	return strings.NewReplacer("/", "_", " ", "_").Replace(strings.ToLower(asset))
}
