package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gamma-omg/crypto-sim/internal/analysis"
	"github.com/gamma-omg/crypto-sim/internal/config"
	"github.com/gamma-omg/crypto-sim/internal/metrics"
	"github.com/gamma-omg/crypto-sim/internal/quote"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

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

	a, err := analysis.NewAnalyzer(logger, *cfg, history, m)
	if err != nil {
		log.Fatal(err)
	}

	results, err := a.Run(ctx, cfg.Assets)
	if err != nil {
		logger.Error("some assets were not analyzed", slog.Any("err", err))
	}

	e := json.NewEncoder(os.Stdout)
	e.SetIndent("", "  ")
	if err := e.Encode(results); err != nil {
		log.Fatal(err)
	}

	if len(results) == 0 && len(cfg.Assets) > 0 {
		os.Exit(1)
	}
}
