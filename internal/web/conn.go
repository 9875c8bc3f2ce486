package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// writeTimeout bounds a single WebSocket write. A kiosk whose browser has
// wedged must not block the chat pipeline.
const writeTimeout = 5 * time.Second

// wsConn wraps a WebSocket connection with a write mutex so that the chat
// sink, the avatar and the read loop can all emit events concurrently.
type wsConn struct {
	conn *websocket.Conn
	log  *slog.Logger

	mu sync.Mutex
}

func newWSConn(conn *websocket.Conn, log *slog.Logger) *wsConn {
	return &wsConn{conn: conn, log: log}
}

// send marshals evt and writes it as a text frame. Write failures are logged
// and swallowed: the read loop notices the dead connection and tears the
// session down, so callers have nothing useful to do with the error.
func (c *wsConn) send(evt Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		c.log.Error("marshal event", "type", evt.Type, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.Write(ctx, websocket.MessageText, data); err != nil {
		c.log.Debug("write event", "type", evt.Type, "error", err)
	}
}
