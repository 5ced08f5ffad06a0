package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/yourorg/testnet-trader/internal/domain"
)

// TickPublisher receives reference prices from the feed.
type TickPublisher interface {
	Publish(ctx context.Context, tick domain.PriceTick) error
}

// MarkPriceFeed streams futures mark prices into a TickPublisher.
type MarkPriceFeed struct {
	baseURL   string
	symbols   []string
	publisher TickPublisher
	logger    *slog.Logger
}

func NewMarkPriceFeed(baseURL string, symbols []string, publisher TickPublisher, logger *slog.Logger) *MarkPriceFeed {
	return &MarkPriceFeed{
		baseURL:   baseURL,
		symbols:   symbols,
		publisher: publisher,
		logger:    logger,
	}
}

// Run keeps the stream connected until ctx is done, reconnecting with
// exponential backoff.
func (f *MarkPriceFeed) Run(ctx context.Context) {
	backoff := time.Second
	maxBackoff := 60 * time.Second
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		err := f.connect(ctx)
		if err == nil {
			backoff = time.Second
			continue
		}
		f.logger.Error("mark price stream disconnected", "err", err, "retrying_in", backoff)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// streamURL builds the combined-stream URL, e.g.
// wss://host/stream?streams=btcusdt@markPrice/ethusdt@markPrice
func (f *MarkPriceFeed) streamURL() (string, error) {
	u, err := url.Parse(f.baseURL)
	if err != nil {
		return "", err
	}
	streams := make([]string, 0, len(f.symbols))
	for _, s := range f.symbols {
		streams = append(streams, strings.ToLower(s)+"@markPrice")
	}
	u.RawQuery = "streams=" + strings.Join(streams, "/")
	return u.String(), nil
}

type combinedMsg struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

type markPriceEvent struct {
	Event     string `json:"e"`
	EventTime int64  `json:"E"`
	Symbol    string `json:"s"`
	MarkPrice string `json:"p"`
}

// decodeTick turns one combined-stream frame into a tick. ok is false for
// frames that are not mark price updates.
func decodeTick(data []byte) (tick domain.PriceTick, ok bool, err error) {
	var msg combinedMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return tick, false, err
	}
	if len(msg.Data) == 0 {
		return tick, false, nil
	}
	var ev markPriceEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		return tick, false, err
	}
	if ev.Event != "markPriceUpdate" {
		return tick, false, nil
	}
	px, err := decimal.NewFromString(ev.MarkPrice)
	if err != nil {
		return tick, false, fmt.Errorf("mark price %q: %w", ev.MarkPrice, err)
	}
	return domain.PriceTick{
		Symbol:    ev.Symbol,
		Price:     px,
		Timestamp: time.UnixMilli(ev.EventTime).UTC(),
	}, true, nil
}

func (f *MarkPriceFeed) connect(ctx context.Context) error {
	streamURL, err := f.streamURL()
	if err != nil {
		return err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, streamURL, nil)
	if err != nil {
		return err
	}
	defer func() {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}()

	f.logger.Info("mark price stream connected", "symbols", f.symbols)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		tick, ok, err := decodeTick(data)
		if err != nil {
			f.logger.Warn("skipping malformed mark price frame", "err", err)
			continue
		}
		if !ok {
			continue
		}
		if err := f.publisher.Publish(ctx, tick); err != nil {
			f.logger.Error("failed to publish price tick", "symbol", tick.Symbol, "err", err)
		}
	}
}
