// Package portfolio implements a virtual trading account. A Portfolio is an
// immutable snapshot; SubmitOrder and Reset return the next snapshot and leave
// the receiver untouched.
package portfolio

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

var DefaultInitialBalance = decimal.NewFromInt(10000)

type Portfolio struct {
	initial   decimal.Decimal
	balance   decimal.Decimal
	positions []Position
	history   []Trade
}

func New(initialBalance decimal.Decimal) Portfolio {
	return Portfolio{
		initial: initialBalance,
		balance: initialBalance,
	}
}

func (p Portfolio) Balance() decimal.Decimal {
	return p.balance
}

func (p Portfolio) InitialBalance() decimal.Decimal {
	return p.initial
}

// Positions returns the open positions, oldest first.
func (p Portfolio) Positions() []Position {
	return slices.Clone(p.positions)
}

// History returns the trade log, newest first.
func (p Portfolio) History() []Trade {
	return slices.Clone(p.history)
}

func (p Portfolio) Reset() Portfolio {
	return New(p.initial)
}

func (p Portfolio) SubmitOrder(o Order) (Portfolio, error) {
	if err := o.validate(); err != nil {
		return p, err
	}

	switch o.Action {
	case Buy:
		return p.buy(o)
	default:
		return p.sell(o)
	}
}

func (p Portfolio) buy(o Order) (Portfolio, error) {
	funds := o.Quantity.Mul(o.Price)
	if funds.GreaterThan(p.balance) {
		return p, fmt.Errorf("%w: need %s, have %s", ErrInsufficientFunds, funds, p.balance)
	}

	pos := Position{
		ID:         o.ID,
		AssetID:    o.AssetID,
		Quantity:   o.Quantity,
		EntryPrice: o.Price,
		OpenedAt:   o.Time,
		Side:       o.Side,
		State:      Open,
	}

	trade := Trade{
		ID:         o.ID,
		PositionID: o.ID,
		AssetID:    o.AssetID,
		Quantity:   o.Quantity,
		Price:      o.Price,
		Timestamp:  o.Time,
		Action:     Buy,
		Side:       o.Side,
		EntryPrice: o.Price,
		OpenedAt:   o.Time,
		State:      Open,
	}

	return Portfolio{
		initial:   p.initial,
		balance:   p.balance.Sub(funds),
		positions: append(slices.Clone(p.positions), pos),
		history:   append([]Trade{trade}, p.history...),
	}, nil
}

// sell closes positions of the order's asset and side oldest first. The whole
// order is planned against copies before anything is published, so a
// rejected sell yields the receiver unchanged.
func (p Portfolio) sell(o Order) (Portfolio, error) {
	remaining := o.Quantity
	credit := decimal.Zero
	positions := make([]Position, 0, len(p.positions))
	var trades []Trade

	for _, pos := range p.positions {
		if !remaining.IsPositive() || pos.AssetID != o.AssetID || pos.Side != o.Side {
			positions = append(positions, pos)
			continue
		}

		consumed := decimal.Min(pos.Quantity, remaining)
		remaining = remaining.Sub(consumed)

		cost := consumed.Mul(pos.EntryPrice)
		realized := pnl(pos.Side, consumed, pos.EntryPrice, o.Price)
		credit = credit.Add(cost).Add(realized)

		state := Closed
		if consumed.LessThan(pos.Quantity) {
			state = PartiallyClosed
		}

		trades = append(trades, Trade{
			ID:          fmt.Sprintf("%s-%d", o.ID, len(trades)),
			PositionID:  pos.ID,
			AssetID:     o.AssetID,
			Quantity:    consumed,
			Price:       o.Price,
			Timestamp:   o.Time,
			Action:      Sell,
			Side:        pos.Side,
			EntryPrice:  pos.EntryPrice,
			OpenedAt:    pos.OpenedAt,
			RealizedPnL: &realized,
			State:       state,
		})

		if state == PartiallyClosed {
			pos.Quantity = pos.Quantity.Sub(consumed)
			pos.State = state
			positions = append(positions, pos)
		}
	}

	if remaining.IsPositive() {
		held := o.Quantity.Sub(remaining)
		return p, fmt.Errorf("%w: %s %s held %s, requested %s", ErrInsufficientPosition, o.AssetID, o.Side, held, o.Quantity)
	}

	balance := p.balance.Add(credit)
	if balance.IsNegative() {
		return p, fmt.Errorf("%w: closing %s %s needs %s more", ErrInsufficientFunds, o.AssetID, o.Side, balance.Neg())
	}

	history := make([]Trade, 0, len(trades)+len(p.history))
	history = append(history, trades...)
	history = append(history, p.history...)

	return Portfolio{
		initial:   p.initial,
		balance:   balance,
		positions: positions,
		history:   history,
	}, nil
}

// Valuation marks every open position to prices. Every asset held must have
// a price.
func (p Portfolio) Valuation(prices map[string]decimal.Decimal) (Valuation, error) {
	v := Valuation{
		Balance: p.balance,
		Assets:  map[string]AssetValuation{},
	}

	for _, pos := range p.positions {
		price, ok := prices[pos.AssetID]
		if !ok {
			return Valuation{}, fmt.Errorf("%w: %s", ErrMissingQuote, pos.AssetID)
		}

		value := pos.Quantity.Mul(price)
		unrealized := pos.UnrealizedPnL(price)

		a := v.Assets[pos.AssetID]
		a.Quantity = a.Quantity.Add(pos.Quantity)
		a.Value = a.Value.Add(value)
		a.UnrealizedPnL = a.UnrealizedPnL.Add(unrealized)
		v.Assets[pos.AssetID] = a

		v.PositionValue = v.PositionValue.Add(value)
		v.UnrealizedPnL = v.UnrealizedPnL.Add(unrealized)
	}

	return v, nil
}

// OpenPositionValue is the market value of all open positions in asset.
func (p Portfolio) OpenPositionValue(asset string, price decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, pos := range p.positions {
		if pos.AssetID == asset {
			total = total.Add(pos.Quantity.Mul(price))
		}
	}

	return total
}

func (p Portfolio) UnrealizedPnL(asset string, price decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, pos := range p.positions {
		if pos.AssetID == asset {
			total = total.Add(pos.UnrealizedPnL(price))
		}
	}

	return total
}

// MaxBuy is the largest quantity affordable at price, floored to 2 decimals.
func (p Portfolio) MaxBuy(price decimal.Decimal) decimal.Decimal {
	if !price.IsPositive() {
		return decimal.Zero
	}

	return p.balance.Div(price).RoundFloor(2)
}

func (p Portfolio) MaxSell(asset string, side Side) decimal.Decimal {
	total := decimal.Zero
	for _, pos := range p.positions {
		if pos.AssetID == asset && pos.Side == side {
			total = total.Add(pos.Quantity)
		}
	}

	return total
}

func (p Portfolio) RealizedPnL() decimal.Decimal {
	total := decimal.Zero
	for _, t := range p.history {
		if t.RealizedPnL != nil {
			total = total.Add(*t.RealizedPnL)
		}
	}

	return total
}
