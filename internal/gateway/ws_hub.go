package gateway

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/yourorg/testnet-trader/internal/domain"
)

type subscription struct {
	client *Client
	level  domain.LogLevel
}

// Backlog returns retained entries with Seq greater than seq.
type Backlog func(seq uint64) []domain.LogEntry

// Hub fans log entries out to websocket clients. A client with no level
// subscriptions receives every entry.
type Hub struct {
	clients map[*Client]map[domain.LogLevel]bool
	backlog Backlog

	register    chan *Client
	unregister  chan *Client
	subscribe   chan subscription
	unsubscribe chan subscription

	logger *slog.Logger
}

// NewHub builds a hub. backlog may be nil, in which case ?since= is ignored.
func NewHub(logger *slog.Logger, backlog Backlog) *Hub {
	return &Hub{
		clients:     make(map[*Client]map[domain.LogLevel]bool),
		backlog:     backlog,
		register:    make(chan *Client, 64),
		unregister:  make(chan *Client, 64),
		subscribe:   make(chan subscription, 64),
		unsubscribe: make(chan subscription, 64),
		logger:      logger,
	}
}

// Run owns the client set until ctx is done or entries is closed.
func (h *Hub) Run(ctx context.Context, entries <-chan domain.LogEntry) {
	defer h.closeAll()
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.clients[client] = make(map[domain.LogLevel]bool)
			if client.replay {
				h.replay(client)
			}
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		case sub := <-h.subscribe:
			if levels, ok := h.clients[sub.client]; ok {
				levels[sub.level] = true
			}
		case sub := <-h.unsubscribe:
			if levels, ok := h.clients[sub.client]; ok {
				delete(levels, sub.level)
			}
		case entry, ok := <-entries:
			if !ok {
				return
			}
			data, err := json.Marshal(entry)
			if err != nil {
				h.logger.Error("encode log entry", "seq", entry.Seq, "err", err)
				continue
			}
			h.fanOut(entry, data)
		}
	}
}

// replay queues the backlog after client.cursor, stopping when the send
// buffer is full. Live entries at or below the cursor are then skipped.
func (h *Hub) replay(client *Client) {
	if h.backlog == nil {
		return
	}
	for _, entry := range h.backlog(client.cursor) {
		data, err := json.Marshal(entry)
		if err != nil {
			h.logger.Error("encode log entry", "seq", entry.Seq, "err", err)
			continue
		}
		select {
		case client.send <- data:
			client.cursor = entry.Seq
		default:
			h.logger.Warn("log tail backlog truncated", "cursor", client.cursor)
			return
		}
	}
}

func (h *Hub) fanOut(entry domain.LogEntry, data []byte) {
	for client, levels := range h.clients {
		if entry.Seq <= client.cursor {
			continue
		}
		if len(levels) > 0 && !levels[entry.Level] {
			continue
		}
		select {
		case client.send <- data:
		default:
		}
	}
}

func (h *Hub) closeAll() {
	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
	}
}
