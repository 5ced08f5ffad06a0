package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yourorg/testnet-trader/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 512
	sendBuffer     = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client is one live log tail. cursor and replay are owned by the hub
// goroutine once the client is registered.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	logger *slog.Logger

	cursor uint64
	replay bool
}

// levelFilter is the client->server control frame:
// {"action":"subscribe","levels":["WARN","ERROR"]}.
type levelFilter struct {
	Action string            `json:"action"`
	Levels []domain.LogLevel `json:"levels"`
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("log tail closed", "err", err)
			}
			return
		}
		var f levelFilter
		if err := json.Unmarshal(data, &f); err != nil {
			c.logger.Debug("ignoring malformed control frame", "err", err)
			continue
		}
		for _, l := range f.Levels {
			if l.Rank() == 0 {
				c.logger.Debug("ignoring unknown level", "level", l)
				continue
			}
			switch f.Action {
			case "subscribe":
				c.hub.subscribe <- subscription{client: c, level: l}
			case "unsubscribe":
				c.hub.unsubscribe <- subscription{client: c, level: l}
			}
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWS upgrades to a live log tail. With ?since=<seq> the client first
// receives the retained entries after seq, then live ones, with no
// duplicates.
func ServeWS(hub *Hub, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client := &Client{hub: hub, send: make(chan []byte, sendBuffer), logger: logger}
		if raw := r.URL.Query().Get("since"); raw != "" {
			seq, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				writeError(w, http.StatusBadRequest, "since must be a sequence number")
				return
			}
			client.cursor, client.replay = seq, true
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("ws upgrade failed", "err", err)
			return
		}
		client.conn = conn
		hub.register <- client
		go client.writePump()
		go client.readPump()
	}
}
