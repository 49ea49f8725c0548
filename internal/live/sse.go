package live

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// SSETransport opens the server's event-stream endpoint.
type SSETransport struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewSSETransport creates an SSE transport against the given API base URL,
// e.g. "http://localhost:3000".
func NewSSETransport(baseURL string, logger *slog.Logger) *SSETransport {
	if logger == nil {
		logger = slog.Default()
	}
	return &SSETransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		// No client timeout: the stream is long-lived. Opening is bounded
		// by the Watcher's probe timeout.
		client: &http.Client{},
		logger: logger,
	}
}

// Open implements Transport. ctx bounds the open only; the returned Conn
// lives until Close.
func (t *SSETransport) Open(ctx context.Context, outletID string) (Conn, error) {
	connCtx, connCancel := context.WithCancel(context.Background())

	target := fmt.Sprintf("%s/api/orders/stream?outletId=%s", t.baseURL, url.QueryEscape(outletID))
	req, err := http.NewRequestWithContext(connCtx, http.MethodGet, target, nil)
	if err != nil {
		connCancel()
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	type result struct {
		resp *http.Response
		err  error
	}
	resCh := make(chan result, 1)
	go func() {
		resp, err := t.client.Do(req)
		resCh <- result{resp, err}
	}()

	var resp *http.Response
	select {
	case <-ctx.Done():
		connCancel()
		go func() {
			if r := <-resCh; r.resp != nil {
				r.resp.Body.Close()
			}
		}()
		return nil, ctx.Err()
	case r := <-resCh:
		if r.err != nil {
			connCancel()
			return nil, r.err
		}
		resp = r.resp
	}

	switch {
	case resp.StatusCode == http.StatusNotImplemented:
		resp.Body.Close()
		connCancel()
		return nil, ErrUnsupported
	case resp.StatusCode != http.StatusOK:
		resp.Body.Close()
		connCancel()
		return nil, fmt.Errorf("stream request failed with status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		resp.Body.Close()
		connCancel()
		return nil, fmt.Errorf("unexpected stream content type %q", ct)
	}

	return newSSEConn(resp.Body, connCancel, t.logger), nil
}

type sseConn struct {
	body     io.ReadCloser
	cancel   context.CancelFunc
	messages chan []byte
	errs     chan error
	done     chan struct{}
	ended    atomic.Bool
	lastRead atomic.Int64
	once     sync.Once
}

func newSSEConn(body io.ReadCloser, cancel context.CancelFunc, logger *slog.Logger) *sseConn {
	c := &sseConn{
		body:     body,
		cancel:   cancel,
		messages: make(chan []byte, 16),
		errs:     make(chan error, 1),
		done:     make(chan struct{}),
	}
	c.lastRead.Store(time.Now().UnixNano())
	go c.readLoop(logger)
	return c
}

func (c *sseConn) Messages() <-chan []byte { return c.messages }
func (c *sseConn) Errors() <-chan error    { return c.errs }

// Closed reports a finished stream, or one that has gone quiet past the
// server's heartbeat cadence while its read still blocks.
func (c *sseConn) Closed() bool {
	if c.ended.Load() {
		return true
	}
	return time.Since(time.Unix(0, c.lastRead.Load())) > staleAfter
}

func (c *sseConn) Close() error {
	c.once.Do(func() {
		close(c.done)
		c.cancel()
		c.body.Close()
	})
	return nil
}

// readLoop parses the event-stream framing: data lines accumulate until a
// blank line terminates the event. Comment lines (heartbeats) and field
// names other than data are skipped.
func (c *sseConn) readLoop(logger *slog.Logger) {
	defer close(c.messages)
	defer c.ended.Store(true)

	scanner := bufio.NewScanner(c.body)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	var data bytes.Buffer
	for scanner.Scan() {
		c.lastRead.Store(time.Now().UnixNano())
		line := scanner.Text()
		switch {
		case line == "":
			if data.Len() == 0 {
				continue
			}
			payload := make([]byte, data.Len())
			copy(payload, data.Bytes())
			data.Reset()
			select {
			case c.messages <- payload:
			case <-c.done:
				return
			}
		case strings.HasPrefix(line, ":"):
			// heartbeat
		case strings.HasPrefix(line, "data:"):
			chunk := strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " ")
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(chunk)
		}
	}

	if err := scanner.Err(); err != nil {
		select {
		case <-c.done:
			// closed locally, the read error is expected
		default:
			logger.Debug("event stream read failed", "error", err)
			select {
			case c.errs <- err:
			default:
			}
		}
	}
}
