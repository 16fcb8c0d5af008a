package portfolio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gamma-omg/crypto-sim/internal/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const undoDepth = 64

type QuoteProvider interface {
	Quote(ctx context.Context, assetID string) (decimal.Decimal, error)
}

type TradeRecorder interface {
	SubmitTrade(t Trade)
}

// Request is an order as entered by a user. A zero Limit makes it a market
// order executed at the current quote; otherwise it executes at Limit.
type Request struct {
	Action   Action
	AssetID  string
	Quantity decimal.Decimal
	Side     Side
	Limit    decimal.Decimal
}

// Simulator owns the portfolio of a session and serializes every change to it.
type Simulator struct {
	log     *slog.Logger
	quotes  QuoteProvider
	report  TradeRecorder
	metrics *metrics.Metrics
	now     func() time.Time
	newID   func() string

	mu      sync.Mutex
	current Portfolio
	undo    []Portfolio
}

type Option func(*Simulator)

func WithReport(r TradeRecorder) Option {
	return func(s *Simulator) { s.report = r }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Simulator) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Simulator) { s.now = now }
}

func WithIDs(newID func() string) Option {
	return func(s *Simulator) { s.newID = newID }
}

func NewSimulator(log *slog.Logger, initialBalance decimal.Decimal, quotes QuoteProvider, opts ...Option) *Simulator {
	s := &Simulator{
		log:     log,
		quotes:  quotes,
		now:     time.Now,
		newID:   uuid.NewString,
		current: New(initialBalance),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.observe(s.current)
	return s
}

func (s *Simulator) Snapshot() Portfolio {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.current
}

func (s *Simulator) Submit(ctx context.Context, r Request) (Portfolio, error) {
	price := r.Limit
	if price.IsZero() {
		q, err := s.quote(ctx, r.AssetID)
		if err != nil {
			s.rejected(r, err)
			return s.Snapshot(), err
		}
		price = q
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	o := Order{
		ID:       s.newID(),
		Action:   r.Action,
		AssetID:  r.AssetID,
		Quantity: r.Quantity,
		Price:    price,
		Side:     r.Side,
		Time:     s.now(),
	}

	next, err := s.current.SubmitOrder(o)
	if err != nil {
		s.rejected(r, err)
		return s.current, fmt.Errorf("failed to %s %s %s: %w", r.Action, r.Quantity, r.AssetID, err)
	}

	s.push(s.current)
	s.current = next

	s.log.Info("order filled",
		slog.String("id", o.ID),
		slog.String("action", string(o.Action)),
		slog.String("asset", o.AssetID),
		slog.String("side", string(o.Side)),
		slog.String("quantity", o.Quantity.String()),
		slog.String("price", o.Price.String()),
		slog.String("balance", next.Balance().String()))

	if s.metrics != nil {
		s.metrics.OrdersTotal.WithLabelValues(string(o.Action), string(o.Side)).Inc()
	}
	s.observe(next)

	if o.Action == Sell && s.report != nil {
		for _, t := range next.history {
			if !isFill(t, o.ID) {
				break
			}
			s.report.SubmitTrade(t)
		}
	}

	return next, nil
}

// Valuation marks the current portfolio to the latest quote of every asset held.
func (s *Simulator) Valuation(ctx context.Context) (Valuation, error) {
	p := s.Snapshot()

	prices := map[string]decimal.Decimal{}
	for _, pos := range p.positions {
		if _, ok := prices[pos.AssetID]; ok {
			continue
		}

		q, err := s.quote(ctx, pos.AssetID)
		if err != nil {
			return Valuation{}, err
		}
		prices[pos.AssetID] = q
	}

	return p.Valuation(prices)
}

// quote asks the provider for the current price. A simulator built without a
// provider only accepts limit orders.
func (s *Simulator) quote(ctx context.Context, asset string) (decimal.Decimal, error) {
	if s.quotes == nil {
		return decimal.Zero, fmt.Errorf("%w: %s: no quote provider", ErrMissingQuote, asset)
	}

	q, err := s.quotes.Quote(ctx, asset)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %w", ErrMissingQuote, asset, err)
	}

	return q, nil
}

func (s *Simulator) Reset() Portfolio {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.push(s.current)
	s.current = s.current.Reset()
	s.observe(s.current)

	s.log.Info("portfolio reset", slog.String("balance", s.current.Balance().String()))
	return s.current
}

// Undo restores the snapshot preceding the last filled order or reset.
// Trades already published to the report stay there.
func (s *Simulator) Undo() (Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.undo) == 0 {
		return s.current, ErrNothingToUndo
	}

	s.current = s.undo[len(s.undo)-1]
	s.undo = slices.Delete(s.undo, len(s.undo)-1, len(s.undo))
	s.observe(s.current)

	s.log.Info("portfolio change undone", slog.String("balance", s.current.Balance().String()))
	return s.current, nil
}

func (s *Simulator) push(p Portfolio) {
	if len(s.undo) == undoDepth {
		s.undo = slices.Delete(s.undo, 0, 1)
	}
	s.undo = append(s.undo, p)
}

func (s *Simulator) rejected(r Request, err error) {
	s.log.Warn("order rejected",
		slog.String("action", string(r.Action)),
		slog.String("asset", r.AssetID),
		slog.String("side", string(r.Side)),
		slog.String("quantity", r.Quantity.String()),
		slog.Any("err", err))

	if s.metrics != nil {
		s.metrics.RejectedTotal.WithLabelValues(rejectReason(err)).Inc()
	}
}

func (s *Simulator) observe(p Portfolio) {
	if s.metrics == nil {
		return
	}

	balance, _ := p.Balance().Float64()
	realized, _ := p.RealizedPnL().Float64()
	s.metrics.Balance.Set(balance)
	s.metrics.RealizedPnL.Set(realized)
	s.metrics.OpenPositions.Set(float64(len(p.positions)))
}

func isFill(t Trade, orderID string) bool {
	return strings.HasPrefix(t.ID, orderID+"-")
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrInsufficientPosition):
		return "insufficient_position"
	case errors.Is(err, ErrInvalidOrder):
		return "invalid_order"
	case errors.Is(err, ErrMissingQuote):
		return "missing_quote"
	default:
		return "other"
	}
}
