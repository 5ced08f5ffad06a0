package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/yourorg/testnet-trader/internal/domain"
	"github.com/yourorg/testnet-trader/internal/eventlog"
	"github.com/yourorg/testnet-trader/internal/execution"
	"github.com/yourorg/testnet-trader/internal/pricing"
)

// placeorder runs one order through an in-process pipeline and prints the
// response and the log line it produced.
func main() {
	symbol := flag.String("symbol", "BTCUSDT", "instrument symbol")
	side := flag.String("side", "BUY", "BUY or SELL")
	orderType := flag.String("type", "MARKET", "MARKET or LIMIT")
	qty := flag.String("qty", "0.01", "order quantity")
	price := flag.String("price", "", "limit price (LIMIT only)")
	ref := flag.String("ref", "", "reference price for the symbol")
	quotesFile := flag.String("quotes", "", "YAML quotes file")
	seed := flag.Uint64("seed", 0, "random seed for order id and slippage (0 = time based)")
	flag.Parse()

	book := pricing.NewQuoteBook()
	if *quotesFile != "" {
		if err := book.LoadQuotes(*quotesFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	if *ref != "" {
		px, err := decimal.NewFromString(*ref)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid -ref: %v\n", err)
			os.Exit(1)
		}
		book.Set(context.Background(), *symbol, px)
	}

	var opts []execution.SimulatorOption
	if *seed != 0 {
		opts = append(opts, execution.WithSeed(*seed))
	}
	stream := eventlog.NewStream()
	svc := execution.NewOrderService(execution.NewSimulator(book, opts...), stream, nil)

	result, err := svc.Submit(context.Background(), domain.RawOrderRequest{
		Symbol:    *symbol,
		Side:      *side,
		OrderType: *orderType,
		Quantity:  domain.RawValue(*qty),
		Price:     domain.RawValue(*price),
	})

	for _, e := range stream.Entries("", 0) {
		fmt.Fprintf(os.Stderr, "%s [%s] %s\n", e.Timestamp.Format("15:04:05"), e.Level, e.Message)
	}

	var verrs execution.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		out, _ := json.MarshalIndent(map[string]any{"errors": verrs}, "", "  ")
		fmt.Println(string(out))
		os.Exit(2)
	case err != nil:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))
}
