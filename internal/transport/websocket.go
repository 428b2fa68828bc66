package transport

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/muurk/mezzobridge/internal/logging"
	"go.uber.org/zap"
)

// wsConn presents a WebSocket as a byte stream. Each incoming message is
// read in full before the next one is started; each Write is sent as one
// binary message.
type wsConn struct {
	conn *websocket.Conn
	r    io.Reader
	wmu  sync.Mutex
}

// DialWebSocket connects to a serial tunnel at url.
func DialWebSocket(ctx context.Context, url string) (io.ReadWriteCloser, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}
	logging.Info("WebSocket tunnel connected", zap.String("url", url))
	return &wsConn{conn: conn}, nil
}

func (c *wsConn) Read(p []byte) (int, error) {
	for {
		if c.r == nil {
			mt, r, err := c.conn.NextReader()
			if err != nil {
				return 0, err
			}
			if mt != websocket.BinaryMessage && mt != websocket.TextMessage {
				continue
			}
			c.r = r
		}

		n, err := c.r.Read(p)
		if err == io.EOF {
			c.r = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (c *wsConn) Write(p []byte) (int, error) {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if err := c.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *wsConn) Close() error {
	c.wmu.Lock()
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.wmu.Unlock()
	return c.conn.Close()
}
