package pricing

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yourorg/testnet-trader/internal/domain"
	"github.com/yourorg/testnet-trader/internal/execution"
	"gopkg.in/yaml.v3"
)

// QuoteBook keeps the last known price per symbol in memory.
type QuoteBook struct {
	mu     sync.RWMutex
	quotes map[string]domain.PriceTick
}

func NewQuoteBook() *QuoteBook {
	return &QuoteBook{quotes: make(map[string]domain.PriceTick)}
}

func (b *QuoteBook) Set(_ context.Context, symbol string, price decimal.Decimal) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.quotes[symbol] = domain.PriceTick{Symbol: symbol, Price: price, Timestamp: time.Now().UTC()}
	return nil
}

// Publish records a tick from a market data feed.
func (b *QuoteBook) Publish(_ context.Context, tick domain.PriceTick) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.quotes[tick.Symbol] = tick
	return nil
}

func (b *QuoteBook) LastPrice(_ context.Context, symbol string) (decimal.Decimal, error) {
	b.mu.RLock()
	tick, ok := b.quotes[symbol]
	b.mu.RUnlock()
	if !ok || !tick.Price.IsPositive() {
		return decimal.Zero, execution.ErrNoReferencePrice
	}
	return tick.Price, nil
}

type quotesFile struct {
	Quotes map[string]string `yaml:"quotes"`
}

// LoadQuotes seeds b from a YAML file of the form
//
//	quotes:
//	  BTCUSDT: "43250.00"
func (b *QuoteBook) LoadQuotes(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read quotes file: %w", err)
	}
	var f quotesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse quotes file: %w", err)
	}
	for sym, raw := range f.Quotes {
		px, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("quote %s: %w", sym, err)
		}
		if !px.IsPositive() {
			return fmt.Errorf("quote %s: price must be positive", sym)
		}
		b.Set(context.Background(), sym, px)
	}
	return nil
}
