package portfolio

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientPosition = errors.New("insufficient position")
	ErrInvalidOrder         = errors.New("invalid order")
	ErrMissingQuote         = errors.New("missing quote")
	ErrNothingToUndo        = errors.New("nothing to undo")
)

type Action string

const (
	Buy  Action = "buy"
	Sell Action = "sell"
)

type Side string

const (
	Long  Side = "long"
	Short Side = "short"
)

type State string

const (
	Open            State = "OPEN"
	PartiallyClosed State = "PARTIALLY_CLOSED"
	Closed          State = "CLOSED"
)

func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case Buy, Sell:
		return a, nil
	default:
		return "", fmt.Errorf("%w: unknown action %q", ErrInvalidOrder, s)
	}
}

// ParseSide treats an empty side as long.
func ParseSide(s string) (Side, error) {
	switch sd := Side(strings.ToLower(strings.TrimSpace(s))); sd {
	case "":
		return Long, nil
	case Long, Short:
		return sd, nil
	default:
		return "", fmt.Errorf("%w: unknown side %q", ErrInvalidOrder, s)
	}
}

type Position struct {
	ID         string          `json:"id"`
	AssetID    string          `json:"asset_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	EntryPrice decimal.Decimal `json:"entry_price"`
	OpenedAt   time.Time       `json:"opened_at"`
	Side       Side            `json:"side"`
	State      State           `json:"state"`
}

func (p Position) CostBasis() decimal.Decimal {
	return p.Quantity.Mul(p.EntryPrice)
}

// UnrealizedPnL marks the position to price.
func (p Position) UnrealizedPnL(price decimal.Decimal) decimal.Decimal {
	return pnl(p.Side, p.Quantity, p.EntryPrice, price)
}

type Trade struct {
	ID          string           `json:"id"`
	PositionID  string           `json:"position_id"`
	AssetID     string           `json:"asset_id"`
	Quantity    decimal.Decimal  `json:"quantity"`
	Price       decimal.Decimal  `json:"price"`
	Timestamp   time.Time        `json:"timestamp"`
	Action      Action           `json:"action"`
	Side        Side             `json:"side"`
	EntryPrice  decimal.Decimal  `json:"entry_price"`
	OpenedAt    time.Time        `json:"opened_at"`
	RealizedPnL *decimal.Decimal `json:"realized_pnl,omitempty"`

	// State of the position once the trade is applied.
	State State `json:"state"`
}

type Order struct {
	ID       string
	Action   Action
	AssetID  string
	Quantity decimal.Decimal
	Price    decimal.Decimal
	Side     Side
	Time     time.Time
}

func (o Order) validate() error {
	if o.AssetID == "" {
		return fmt.Errorf("%w: empty asset", ErrInvalidOrder)
	}
	if o.Action != Buy && o.Action != Sell {
		return fmt.Errorf("%w: unknown action %q", ErrInvalidOrder, o.Action)
	}
	if o.Side != Long && o.Side != Short {
		return fmt.Errorf("%w: unknown side %q", ErrInvalidOrder, o.Side)
	}
	if !o.Quantity.IsPositive() {
		return fmt.Errorf("%w: quantity must be positive, got %s", ErrInvalidOrder, o.Quantity)
	}
	if !o.Price.IsPositive() {
		return fmt.Errorf("%w: price must be positive, got %s", ErrInvalidOrder, o.Price)
	}

	return nil
}

type AssetValuation struct {
	Quantity      decimal.Decimal `json:"quantity"`
	Value         decimal.Decimal `json:"value"`
	UnrealizedPnL decimal.Decimal `json:"unrealized_pnl"`
}

type Valuation struct {
	Balance       decimal.Decimal           `json:"balance"`
	PositionValue decimal.Decimal           `json:"position_value"`
	UnrealizedPnL decimal.Decimal           `json:"unrealized_pnl"`
	Assets        map[string]AssetValuation `json:"assets"`
}

func pnl(side Side, qty, entry, price decimal.Decimal) decimal.Decimal {
	cost := qty.Mul(entry)
	value := qty.Mul(price)
	if side == Short {
		return cost.Sub(value)
	}

	return value.Sub(cost)
}
