package execution

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yourorg/testnet-trader/internal/domain"
)

const (
	minOrderID = 100_000_000
	maxOrderID = 999_999_999

	slippageLow  = 0.998
	slippageHigh = 1.002
)

var (
	// ErrNoReferencePrice means a MARKET order could not be priced.
	ErrNoReferencePrice = errors.New("no reference price available")
	// ErrUnvalidatedOrder means the order did not come from Validate.
	ErrUnvalidatedOrder = errors.New("order was not produced by Validate")
)

// PriceSource is the pricing context for MARKET fills. LastPrice returns
// ErrNoReferencePrice when the symbol has no quote.
//
//go:generate mockgen -source simulator.go -destination=mock/price_source_mock.go -package=mock
type PriceSource interface {
	LastPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// SlippageFunc returns the multiplier applied to the reference price of a
// MARKET fill.
type SlippageFunc func() float64

type Simulator struct {
	prices   PriceSource
	mu       sync.Mutex
	rng      *rand.Rand
	slippage SlippageFunc
}

type SimulatorOption func(*Simulator)

// WithRand replaces the random source used for order ids and slippage.
func WithRand(r *rand.Rand) SimulatorOption {
	return func(s *Simulator) { s.rng = r }
}

// WithSeed makes order ids and slippage reproducible.
func WithSeed(seed uint64) SimulatorOption {
	return WithRand(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// WithSlippage overrides the slippage draw.
func WithSlippage(fn SlippageFunc) SimulatorOption {
	return func(s *Simulator) { s.slippage = fn }
}

func NewSimulator(prices PriceSource, opts ...SimulatorOption) *Simulator {
	s := &Simulator{prices: prices}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		seed := uint64(time.Now().UnixNano())
		s.rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return s
}

// Execute produces the venue's answer for an accepted order. It fails for an
// order Validate did not build and for a MARKET order without a reference
// price.
func (s *Simulator) Execute(ctx context.Context, order ValidatedOrder) (*domain.ExecutionResult, error) {
	if !order.valid {
		return nil, ErrUnvalidatedOrder
	}
	result := &domain.ExecutionResult{
		Symbol:    order.Symbol(),
		Side:      order.Side(),
		OrderType: order.OrderType(),
		OrigQty:   order.Quantity().String(),
	}

	switch order.OrderType() {
	case domain.TypeMarket:
		ref, err := s.prices.LastPrice(ctx, order.Symbol())
		if err != nil {
			return nil, fmt.Errorf("price %s: %w", order.Symbol(), err)
		}
		if !ref.IsPositive() {
			return nil, fmt.Errorf("price %s: %w", order.Symbol(), ErrNoReferencePrice)
		}
		result.Status = domain.StatusFilled
		result.ExecutedQty = result.OrigQty
		result.AvgPrice = ref.Mul(decimal.NewFromFloat(s.drawSlippage())).StringFixed(2)
	default:
		result.Status = domain.StatusNew
		result.ExecutedQty = "0.00"
		result.AvgPrice = "0.00"
	}

	result.OrderID = s.drawOrderID()
	return result, nil
}

func (s *Simulator) drawOrderID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return minOrderID + s.rng.Int64N(maxOrderID-minOrderID+1)
}

func (s *Simulator) drawSlippage() float64 {
	if s.slippage != nil {
		return s.slippage()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return slippageLow + s.rng.Float64()*(slippageHigh-slippageLow)
}
