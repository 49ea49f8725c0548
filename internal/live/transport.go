package live

import (
	"context"
	"errors"
	"time"
)

// ErrUnsupported is returned by Transport.Open when the server answers that
// push delivery is not offered. The Watcher treats it as permanent and
// falls back to polling without burning reconnect attempts.
var ErrUnsupported = errors.New("push transport not supported by server")

// Transport opens a push connection for one outlet's update stream.
type Transport interface {
	// Open blocks until the stream is established or ctx is cancelled.
	Open(ctx context.Context, outletID string) (Conn, error)
}

// Conn is an established push connection. Messages carries raw event
// payloads; the Watcher owns parsing so that malformed frames can be
// dropped without tearing the connection down.
type Conn interface {
	// Messages is closed when the connection ends.
	Messages() <-chan []byte

	// Errors reports the terminal connection error, if any.
	Errors() <-chan error

	// Closed reports whether the underlying connection has ended or gone
	// silent for longer than staleAfter. The Watcher's liveness check uses
	// this to catch half-closes the read side never sees.
	Closed() bool

	Close() error
}

// staleAfter bounds silence on an open push connection. The server
// heartbeats every few seconds over both transports, so a conn with no
// traffic for this long is half-closed even if its socket never errors.
const staleAfter = 90 * time.Second
