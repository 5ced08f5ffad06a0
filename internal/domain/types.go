package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

type OrderSide string

const (
	SideBuy  OrderSide = "BUY"
	SideSell OrderSide = "SELL"
)

type OrderType string

const (
	TypeMarket OrderType = "MARKET"
	TypeLimit  OrderType = "LIMIT"
)

type OrderStatus string

const (
	StatusFilled OrderStatus = "FILLED"
	StatusNew    OrderStatus = "NEW"
)

type LogLevel string

const (
	LevelInfo  LogLevel = "INFO"
	LevelWarn  LogLevel = "WARN"
	LevelError LogLevel = "ERROR"
)

// Rank orders levels by severity. Unknown levels rank below INFO.
func (l LogLevel) Rank() int {
	switch l {
	case LevelInfo:
		return 1
	case LevelWarn:
		return 2
	case LevelError:
		return 3
	default:
		return 0
	}
}

// RawValue holds a caller-supplied number exactly as it was written. It
// decodes from a JSON string, a JSON number or null (empty).
type RawValue string

func (v *RawValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if isNull(data) {
		*v = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = RawValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("raw value must be a string or number: %w", err)
	}
	*v = RawValue(n.String())
	return nil
}

func (v RawValue) IsZero() bool { return v == "" }

// RawOrderRequest is an order exactly as the caller built it. Nothing in it
// has been checked. A field whose JSON type can never be valid (an object for
// quantity, a number for symbol) is left empty and named in Mistyped, so the
// validator can report it against that field.
type RawOrderRequest struct {
	Symbol    string   `json:"symbol"`
	Side      string   `json:"side"`
	OrderType string   `json:"type"`
	Quantity  RawValue `json:"quantity"`
	Price     RawValue `json:"price,omitempty"`
	Mistyped  []string `json:"-"`
}

// UnmarshalJSON accepts any JSON object. Only a body that is not an object
// is an error.
func (r *RawOrderRequest) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("order must be a JSON object: %w", err)
	}
	if fields == nil {
		return errors.New("order must be a JSON object")
	}

	*r = RawOrderRequest{}
	text := func(key string, dst *string) {
		raw, ok := fields[key]
		if !ok || isNull(raw) {
			return
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			r.Mistyped = append(r.Mistyped, key)
		}
	}
	amount := func(key string, dst *RawValue) {
		raw, ok := fields[key]
		if !ok {
			return
		}
		if err := dst.UnmarshalJSON(raw); err != nil {
			r.Mistyped = append(r.Mistyped, key)
		}
	}

	text("symbol", &r.Symbol)
	text("side", &r.Side)
	text("type", &r.OrderType)
	amount("quantity", &r.Quantity)
	amount("price", &r.Price)
	return nil
}

// IsMistyped reports whether field was sent with an unusable JSON type.
func (r RawOrderRequest) IsMistyped(field string) bool {
	return slices.Contains(r.Mistyped, field)
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

type ExecutionResult struct {
	OrderID     int64       `json:"orderId"`
	Symbol      string      `json:"symbol"`
	Side        OrderSide   `json:"side"`
	OrderType   OrderType   `json:"type"`
	Status      OrderStatus `json:"status"`
	OrigQty     string      `json:"origQty"`
	ExecutedQty string      `json:"executedQty"`
	AvgPrice    string      `json:"avgPrice"`
}

type LogEntry struct {
	Seq       uint64    `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`
}

type PriceTick struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Timestamp time.Time       `json:"timestamp"`
}
