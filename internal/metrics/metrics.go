package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors shared by the analyzer and the simulator.
type Metrics struct {
	OrdersTotal    *prometheus.CounterVec // labels: action, side
	RejectedTotal  *prometheus.CounterVec // labels: reason
	AnalysesTotal  *prometheus.CounterVec // labels: asset, result
	IndicatorDur   prometheus.Histogram
	Balance        prometheus.Gauge
	OpenPositions  prometheus.Gauge
	RealizedPnL    prometheus.Gauge
	HistoryFetches *prometheus.CounterVec // labels: provider
}

// New registers all collectors on reg. A nil reg uses a private registry,
// which keeps repeated construction in tests from colliding.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		OrdersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sim_orders_total",
			Help: "Orders filled by the portfolio simulator",
		}, []string{"action", "side"}),
		RejectedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sim_orders_rejected_total",
			Help: "Orders rejected by the portfolio simulator",
		}, []string{"reason"}),
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "analysis_runs_total",
			Help: "Asset analyses by outcome",
		}, []string{"asset", "result"}),
		IndicatorDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "analysis_indicator_compute_seconds",
			Help:    "Time spent computing the indicator series of one asset",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		Balance: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sim_balance",
			Help: "Current virtual cash balance",
		}),
		OpenPositions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sim_open_positions",
			Help: "Number of open positions",
		}),
		RealizedPnL: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sim_realized_pnl",
			Help: "Realized profit and loss since the last reset",
		}),
		HistoryFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quote_history_fetches_total",
			Help: "Price history requests by provider",
		}, []string{"provider"}),
	}

	reg.MustRegister(
		m.OrdersTotal,
		m.RejectedTotal,
		m.AnalysesTotal,
		m.IndicatorDur,
		m.Balance,
		m.OpenPositions,
		m.RealizedPnL,
		m.HistoryFetches,
	)

	return m
}

// Serve exposes g on addr/metrics until ctx is done.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer, log *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server stopped", slog.String("addr", addr), slog.Any("err", err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	return srv
}
