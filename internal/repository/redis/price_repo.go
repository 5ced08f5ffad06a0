package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/yourorg/testnet-trader/internal/domain"
	"github.com/yourorg/testnet-trader/internal/execution"
)

const lastPriceTTL = 60 * time.Second

type PriceRepo struct {
	client *redis.Client
}

func NewPriceRepo(client *redis.Client) *PriceRepo {
	return &PriceRepo{client: client}
}

func lastPriceKey(symbol string) string { return "last_price:" + symbol }
func priceChannel(symbol string) string { return "prices." + symbol }

func (r *PriceRepo) Publish(ctx context.Context, tick domain.PriceTick) error {
	data, err := json.Marshal(tick)
	if err != nil {
		return err
	}
	pipe := r.client.Pipeline()
	pipe.Publish(ctx, priceChannel(tick.Symbol), data)
	pipe.Set(ctx, lastPriceKey(tick.Symbol), data, lastPriceTTL)
	_, err = pipe.Exec(ctx)
	return err
}

// Set stores an operator-supplied quote. It does not expire.
func (r *PriceRepo) Set(ctx context.Context, symbol string, price decimal.Decimal) error {
	data, err := json.Marshal(domain.PriceTick{Symbol: symbol, Price: price, Timestamp: time.Now().UTC()})
	if err != nil {
		return err
	}
	return r.client.Set(ctx, lastPriceKey(symbol), data, 0).Err()
}

func (r *PriceRepo) GetLastPrice(ctx context.Context, symbol string) (*domain.PriceTick, error) {
	val, err := r.client.Get(ctx, lastPriceKey(symbol)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get last price: %w", err)
	}
	var tick domain.PriceTick
	if err := json.Unmarshal([]byte(val), &tick); err != nil {
		return nil, err
	}
	return &tick, nil
}

// LastPrice is the pricing context view of GetLastPrice. An expired or
// missing key is ErrNoReferencePrice.
func (r *PriceRepo) LastPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	tick, err := r.GetLastPrice(ctx, symbol)
	if err != nil {
		return decimal.Zero, err
	}
	if tick == nil || !tick.Price.IsPositive() {
		return decimal.Zero, execution.ErrNoReferencePrice
	}
	return tick.Price, nil
}
