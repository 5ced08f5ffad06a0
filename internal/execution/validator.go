package execution

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/yourorg/testnet-trader/internal/domain"
)

const (
	FieldSymbol    = "symbol"
	FieldSide      = "side"
	FieldOrderType = "type"
	FieldQuantity  = "quantity"
	FieldPrice     = "price"

	maxSymbolLen = 20
)

var (
	maxQuantity = decimal.NewFromInt(999_999)
	maxPrice    = decimal.NewFromInt(999_999_999)
)

// ValidationErrors maps a request field to the first rule it broke.
type ValidationErrors map[string]string

func (e ValidationErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e[f])
	}
	return strings.Join(parts, "; ")
}

// ValidatedOrder is an order that passed every rule in Validate. The zero
// value is not a valid order.
type ValidatedOrder struct {
	symbol    string
	side      domain.OrderSide
	orderType domain.OrderType
	quantity  decimal.Decimal
	price     decimal.Decimal
	hasPrice  bool
	valid     bool
}

func (o ValidatedOrder) Symbol() string              { return o.symbol }
func (o ValidatedOrder) Side() domain.OrderSide      { return o.side }
func (o ValidatedOrder) OrderType() domain.OrderType { return o.orderType }
func (o ValidatedOrder) Quantity() decimal.Decimal   { return o.quantity }

// Price is only set for LIMIT orders.
func (o ValidatedOrder) Price() (decimal.Decimal, bool) { return o.price, o.hasPrice }

// Validate checks every field of req and either returns the typed order or
// the full set of field errors, never both.
func Validate(req domain.RawOrderRequest) (ValidatedOrder, ValidationErrors) {
	errs := ValidationErrors{}

	switch {
	case req.IsMistyped(FieldSymbol):
		errs[FieldSymbol] = "Symbol must be text"
	default:
		if msg := CheckSymbol(req.Symbol); msg != "" {
			errs[FieldSymbol] = msg
		}
	}

	side := domain.OrderSide(req.Side)
	switch side {
	case domain.SideBuy, domain.SideSell:
	default:
		errs[FieldSide] = "Side must be BUY or SELL"
	}

	orderType := domain.OrderType(req.OrderType)
	switch orderType {
	case domain.TypeMarket, domain.TypeLimit:
	default:
		errs[FieldOrderType] = "Order type must be MARKET or LIMIT"
	}

	var qty decimal.Decimal
	var msg string
	if req.IsMistyped(FieldQuantity) {
		msg = "Quantity must be a number"
	} else {
		qty, msg = parseAmount(req.Quantity, "Quantity", maxQuantity)
	}
	if msg != "" {
		errs[FieldQuantity] = msg
	}

	var price decimal.Decimal
	hasPrice := false
	if orderType != domain.TypeMarket {
		switch {
		case req.IsMistyped(FieldPrice):
			errs[FieldPrice] = "Price must be a number"
		case req.Price.IsZero() && orderType == domain.TypeLimit:
			errs[FieldPrice] = "Price is required for LIMIT orders"
		case !req.Price.IsZero():
			price, msg = parseAmount(req.Price, "Price", maxPrice)
			if msg != "" {
				errs[FieldPrice] = msg
			}
			hasPrice = msg == ""
		}
	}

	if len(errs) > 0 {
		return ValidatedOrder{}, errs
	}
	return ValidatedOrder{
		symbol:    req.Symbol,
		side:      side,
		orderType: orderType,
		quantity:  qty,
		price:     price,
		hasPrice:  hasPrice,
		valid:     true,
	}, nil
}

// CheckSymbol returns the reason s is not a valid symbol, or "" if it is.
func CheckSymbol(s string) string {
	if s == "" {
		return "Symbol is required"
	}
	if len(s) > maxSymbolLen {
		return "Symbol must be at most 20 characters"
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return "Use uppercase letters only"
		}
	}
	return ""
}

// parseAmount returns a non-empty message when raw is missing, not a finite
// number, not positive, or above max.
func parseAmount(raw domain.RawValue, label string, max decimal.Decimal) (decimal.Decimal, string) {
	s := strings.TrimSpace(string(raw))
	if s == "" {
		return decimal.Zero, label + " is required"
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, label + " must be a number"
	}
	if !d.IsPositive() {
		return decimal.Zero, label + " must be positive"
	}
	if d.GreaterThan(max) {
		return decimal.Zero, label + " must be at most " + max.String()
	}
	return d, ""
}
