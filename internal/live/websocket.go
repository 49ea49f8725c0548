package live

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// WSTransport opens the server's WebSocket endpoint.
type WSTransport struct {
	baseURL string
	dialer  *websocket.Dialer
	logger  *slog.Logger
}

// NewWSTransport creates a WebSocket transport against the given API base
// URL. An http(s) scheme is rewritten to ws(s).
func NewWSTransport(baseURL string, logger *slog.Logger) *WSTransport {
	if logger == nil {
		logger = slog.Default()
	}
	base := strings.TrimRight(baseURL, "/")
	base = strings.Replace(base, "http://", "ws://", 1)
	base = strings.Replace(base, "https://", "wss://", 1)
	return &WSTransport{
		baseURL: base,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Open implements Transport.
func (t *WSTransport) Open(ctx context.Context, outletID string) (Conn, error) {
	target := fmt.Sprintf("%s/api/orders/ws?outletId=%s", t.baseURL, url.QueryEscape(outletID))
	conn, resp, err := t.dialer.DialContext(ctx, target, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotImplemented {
			return nil, ErrUnsupported
		}
		return nil, err
	}
	return newWSConn(conn, t.logger), nil
}

// keepalivePeriod is how often the client pings the server. Pongs (and the
// server's own pings) count as traffic for staleness.
const keepalivePeriod = 30 * time.Second

type wsConn struct {
	conn     *websocket.Conn
	messages chan []byte
	errs     chan error
	done     chan struct{}
	ended    atomic.Bool
	lastRead atomic.Int64
	once     sync.Once
}

func newWSConn(conn *websocket.Conn, logger *slog.Logger) *wsConn {
	c := &wsConn{
		conn:     conn,
		messages: make(chan []byte, 16),
		errs:     make(chan error, 1),
		done:     make(chan struct{}),
	}
	c.lastRead.Store(time.Now().UnixNano())
	conn.SetPingHandler(func(data string) error {
		c.lastRead.Store(time.Now().UnixNano())
		return conn.WriteControl(
			websocket.PongMessage,
			[]byte(data),
			time.Now().Add(time.Second),
		)
	})
	conn.SetPongHandler(func(string) error {
		c.lastRead.Store(time.Now().UnixNano())
		return nil
	})
	go c.readLoop(logger)
	go c.keepaliveLoop(logger)
	return c
}

func (c *wsConn) Messages() <-chan []byte { return c.messages }
func (c *wsConn) Errors() <-chan error    { return c.errs }

// Closed reports a finished connection, or one with no frames, pings, or
// pongs for longer than the staleness window.
func (c *wsConn) Closed() bool {
	if c.ended.Load() {
		return true
	}
	return time.Since(time.Unix(0, c.lastRead.Load())) > staleAfter
}

func (c *wsConn) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		err = c.conn.Close()
	})
	return err
}

func (c *wsConn) keepaliveLoop(logger *slog.Logger) {
	ticker := time.NewTicker(keepalivePeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(time.Second)
			if err := c.conn.WriteControl(websocket.PingMessage, []byte("keepalive"), deadline); err != nil {
				logger.Debug("keepalive ping failed", "error", err)
			}
		}
	}
}

func (c *wsConn) readLoop(logger *slog.Logger) {
	defer close(c.messages)
	defer c.ended.Store(true)

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Debug("websocket read failed", "error", err)
					select {
					case c.errs <- err:
					default:
					}
				}
			}
			return
		}
		c.lastRead.Store(time.Now().UnixNano())
		select {
		case c.messages <- payload:
		case <-c.done:
			return
		}
	}
}
