package execution

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourorg/testnet-trader/internal/domain"
)

type staticPrices map[string]string

func (p staticPrices) LastPrice(_ context.Context, symbol string) (decimal.Decimal, error) {
	s, ok := p[symbol]
	if !ok {
		return decimal.Zero, ErrNoReferencePrice
	}
	return decimal.RequireFromString(s), nil
}

func mustValidate(t *testing.T, req domain.RawOrderRequest) ValidatedOrder {
	t.Helper()
	order, errs := Validate(req)
	require.Nil(t, errs)
	return order
}

func TestSimulator_MarketFill(t *testing.T) {
	prices := staticPrices{"BTCUSDT": "43250.00"}
	order := mustValidate(t, domain.RawOrderRequest{Symbol: "BTCUSDT", Side: "BUY", OrderType: "MARKET", Quantity: "0.01"})

	testCases := []struct {
		name     string
		slippage float64
		want     string
	}{
		{name: "no slippage", slippage: 1.0, want: "43250.00"},
		{name: "low edge", slippage: 0.998, want: "43163.50"},
		{name: "high edge", slippage: 1.002, want: "43336.50"},
		{name: "rounds to cents", slippage: 1.0000123, want: "43250.53"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sim := NewSimulator(prices, WithSeed(1), WithSlippage(func() float64 { return tc.slippage }))
			res, err := sim.Execute(context.Background(), order)
			require.NoError(t, err)
			assert.Equal(t, domain.StatusFilled, res.Status)
			assert.Equal(t, "BTCUSDT", res.Symbol)
			assert.Equal(t, domain.SideBuy, res.Side)
			assert.Equal(t, domain.TypeMarket, res.OrderType)
			assert.Equal(t, "0.01", res.OrigQty)
			assert.Equal(t, "0.01", res.ExecutedQty)
			assert.Equal(t, tc.want, res.AvgPrice)
		})
	}
}

func TestSimulator_MarketFillWithinBand(t *testing.T) {
	sim := NewSimulator(staticPrices{"BTCUSDT": "43250.00"}, WithSeed(42))
	order := mustValidate(t, domain.RawOrderRequest{Symbol: "BTCUSDT", Side: "BUY", OrderType: "MARKET", Quantity: "0.01"})

	low := decimal.RequireFromString("43163.50")
	high := decimal.RequireFromString("43336.50")
	for i := 0; i < 500; i++ {
		res, err := sim.Execute(context.Background(), order)
		require.NoError(t, err)
		px := decimal.RequireFromString(res.AvgPrice)
		assert.True(t, px.GreaterThanOrEqual(low) && px.LessThanOrEqual(high), "avg price %s out of band", res.AvgPrice)
		assert.Regexp(t, `^\d+\.\d{2}$`, res.AvgPrice)
	}
}

func TestSimulator_LimitRests(t *testing.T) {
	sim := NewSimulator(staticPrices{}, WithSeed(7))
	order := mustValidate(t, domain.RawOrderRequest{Symbol: "ETHUSDT", Side: "SELL", OrderType: "LIMIT", Quantity: "0.5", Price: "2650.00"})

	res, err := sim.Execute(context.Background(), order)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNew, res.Status)
	assert.Equal(t, "0.5", res.OrigQty)
	assert.Equal(t, "0.00", res.ExecutedQty)
	assert.Equal(t, "0.00", res.AvgPrice)
	assert.Equal(t, domain.SideSell, res.Side)
	assert.Equal(t, domain.TypeLimit, res.OrderType)
}

func TestSimulator_MissingReferencePrice(t *testing.T) {
	sim := NewSimulator(staticPrices{}, WithSeed(7))
	order := mustValidate(t, domain.RawOrderRequest{Symbol: "DOGEUSDT", Side: "BUY", OrderType: "MARKET", Quantity: "100"})

	res, err := sim.Execute(context.Background(), order)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrNoReferencePrice)
}

func TestSimulator_NonPositiveReferencePrice(t *testing.T) {
	sim := NewSimulator(staticPrices{"BTCUSDT": "0"}, WithSeed(7))
	order := mustValidate(t, domain.RawOrderRequest{Symbol: "BTCUSDT", Side: "BUY", OrderType: "MARKET", Quantity: "1"})

	_, err := sim.Execute(context.Background(), order)
	assert.ErrorIs(t, err, ErrNoReferencePrice)
}

func TestSimulator_OrderIDRange(t *testing.T) {
	sim := NewSimulator(staticPrices{}, WithSeed(99))
	order := mustValidate(t, domain.RawOrderRequest{Symbol: "ETHUSDT", Side: "BUY", OrderType: "LIMIT", Quantity: "1", Price: "1"})

	for i := 0; i < 2000; i++ {
		res, err := sim.Execute(context.Background(), order)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.OrderID, int64(100_000_000))
		assert.LessOrEqual(t, res.OrderID, int64(999_999_999))
	}
}

func TestSimulator_SeedIsReproducible(t *testing.T) {
	order := mustValidate(t, domain.RawOrderRequest{Symbol: "BTCUSDT", Side: "SELL", OrderType: "MARKET", Quantity: "2"})
	prices := staticPrices{"BTCUSDT": "43250.00"}

	a := NewSimulator(prices, WithSeed(2024))
	b := NewSimulator(prices, WithSeed(2024))
	for i := 0; i < 10; i++ {
		ra, err := a.Execute(context.Background(), order)
		require.NoError(t, err)
		rb, err := b.Execute(context.Background(), order)
		require.NoError(t, err)
		assert.Equal(t, ra, rb)
	}
}

func TestSimulator_ZeroOrderRejected(t *testing.T) {
	sim := NewSimulator(staticPrices{}, WithSeed(7))

	res, err := sim.Execute(context.Background(), ValidatedOrder{})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrUnvalidatedOrder)
}
