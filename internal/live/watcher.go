package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/seatserve/seatserve/internal/config"
	"github.com/seatserve/seatserve/internal/model"
)

// State is the Watcher's connection state.
type State int

const (
	StateDisconnected State = iota
	StateProbing
	StateConnecting
	StateConnected
	StateReconnecting
	StatePolling
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateProbing:
		return "probing"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StatePolling:
		return "polling"
	default:
		return "unknown"
	}
}

// Callbacks are invoked from the Watcher's event goroutine, in order. They
// must not call back into the Watcher.
type Callbacks struct {
	// OnConnect fires when updates become live, whether over push or by
	// settling into polling.
	OnConnect func()

	// OnDisconnect fires when an established push connection is lost.
	OnDisconnect func()

	OnNewOrder      func(model.Order)
	OnOrderUpdate   func(model.Order)
	OnOrderComplete func(model.Order)
	OnError         func(error)
}

// OrderFetcher is the polling-side dependency, satisfied by api.Client.
type OrderFetcher interface {
	GetOrder(ctx context.Context, orderID, sessionID string) (*model.Order, error)
}

// Config holds the Watcher's timing knobs.
type Config struct {
	// ProbeTimeout bounds every push open attempt. The first open doubles
	// as the capability probe.
	ProbeTimeout time.Duration

	// Reconnect backoff: delay = base * 2^attempt, capped at max.
	ReconnectBaseDelay   time.Duration
	ReconnectMaxDelay    time.Duration
	MaxReconnectAttempts int

	// ReconnectGrace is the pause after ForceReconnect before the next
	// open attempt.
	ReconnectGrace time.Duration

	PollInterval     time.Duration
	LivenessInterval time.Duration
}

// DefaultConfig returns the production timing defaults.
func DefaultConfig() Config {
	return Config{
		ProbeTimeout:         config.DefaultProbeTimeout,
		ReconnectBaseDelay:   config.DefaultReconnectBaseDelay,
		ReconnectMaxDelay:    config.DefaultReconnectMaxDelay,
		MaxReconnectAttempts: config.DefaultMaxReconnectAttempts,
		ReconnectGrace:       defaultReconnectGrace,
		PollInterval:         config.DefaultPollInterval,
		LivenessInterval:     config.DefaultLivenessInterval,
	}
}

// ConfigFrom builds a watcher Config from the loaded application config.
func ConfigFrom(wc config.WatcherConfig) Config {
	cfg := DefaultConfig()
	if wc.ProbeTimeout > 0 {
		cfg.ProbeTimeout = wc.ProbeTimeout
	}
	if wc.ReconnectBaseDelay > 0 {
		cfg.ReconnectBaseDelay = wc.ReconnectBaseDelay
	}
	if wc.ReconnectMaxDelay > 0 {
		cfg.ReconnectMaxDelay = wc.ReconnectMaxDelay
	}
	if wc.MaxReconnectAttempts > 0 {
		cfg.MaxReconnectAttempts = wc.MaxReconnectAttempts
	}
	if wc.PollInterval > 0 {
		cfg.PollInterval = wc.PollInterval
	}
	if wc.LivenessInterval > 0 {
		cfg.LivenessInterval = wc.LivenessInterval
	}
	return cfg
}

const (
	defaultReconnectGrace = time.Second
	pollRequestTimeout    = 10 * time.Second
)

// Watcher manages one outlet's live order updates.
type Watcher struct {
	cfg       Config
	transport Transport
	fetcher   OrderFetcher
	cb        Callbacks
	logger    *slog.Logger
	clock     Clock

	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	forceCh chan struct{}

	// cbMu serializes callback dispatch against Stop so that no callback
	// fires after Stop returns.
	cbMu   sync.Mutex
	closed bool

	mu              sync.RWMutex
	started         bool
	outletID        string
	state           State
	capKnown        bool
	pushUnsupported bool
	attempts        int
	lastEvent       *model.UpdateEvent
	activeOrderID   string
	activeSessionID string
	seenOrderID     string
	seenUpdatedAt   time.Time
}

// New creates a Watcher. fetcher may be nil when polling fallback is not
// wanted; the Watcher then goes Disconnected instead of polling.
func New(cfg Config, transport Transport, fetcher OrderFetcher, cb Callbacks, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = def.ProbeTimeout
	}
	if cfg.ReconnectBaseDelay <= 0 {
		cfg.ReconnectBaseDelay = def.ReconnectBaseDelay
	}
	if cfg.ReconnectMaxDelay <= 0 {
		cfg.ReconnectMaxDelay = def.ReconnectMaxDelay
	}
	if cfg.MaxReconnectAttempts <= 0 {
		cfg.MaxReconnectAttempts = def.MaxReconnectAttempts
	}
	if cfg.ReconnectGrace <= 0 {
		cfg.ReconnectGrace = def.ReconnectGrace
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.LivenessInterval <= 0 {
		cfg.LivenessInterval = def.LivenessInterval
	}
	return &Watcher{
		cfg:       cfg,
		transport: transport,
		fetcher:   fetcher,
		cb:        cb,
		logger:    logger,
		clock:     realClock{},
		done:      make(chan struct{}),
		forceCh:   make(chan struct{}, 1),
		state:     StateDisconnected,
	}
}

// Start begins watching the outlet's updates. It is idempotent and returns
// immediately; connection progress is reported through the callbacks.
func (w *Watcher) Start(outletID string) {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	w.started = true
	w.outletID = outletID
	w.ctx, w.cancel = ctx, cancel
	w.mu.Unlock()

	// The closed check must come after cancel is in place, or a concurrent
	// Stop could find nothing to cancel and the run goroutine would outlive
	// it.
	w.cbMu.Lock()
	closed := w.closed
	w.cbMu.Unlock()
	if closed {
		cancel()
		return
	}

	go w.run()
}

// Stop tears the Watcher down. After Stop returns no callback will fire,
// including from timers or responses already in flight. The Watcher cannot
// be restarted; create a new one instead.
func (w *Watcher) Stop() {
	w.cbMu.Lock()
	w.closed = true
	w.cbMu.Unlock()

	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
	}
	w.state = StateDisconnected
	w.mu.Unlock()
}

// ForceReconnect discards the current connection, resets the retry budget
// and the capability verdict, and re-probes push after a short grace
// period.
func (w *Watcher) ForceReconnect() {
	w.cbMu.Lock()
	closed := w.closed
	w.cbMu.Unlock()

	w.mu.Lock()
	if closed || !w.started {
		w.mu.Unlock()
		return
	}
	w.pushUnsupported = false
	w.capKnown = false
	w.attempts = 0
	w.state = StateReconnecting
	w.mu.Unlock()

	select {
	case w.forceCh <- struct{}{}:
	default:
	}
}

// SetActiveOrder names the order the polling fallback tracks, with the
// session that owns it.
func (w *Watcher) SetActiveOrder(orderID, sessionID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.activeOrderID = orderID
	w.activeSessionID = sessionID
	if orderID != w.seenOrderID {
		w.seenOrderID = ""
		w.seenUpdatedAt = time.Time{}
	}
}

// State returns the current connection state.
func (w *Watcher) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// IsConnected reports whether updates are live. Polling counts.
func (w *Watcher) IsConnected() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state == StateConnected || w.state == StatePolling
}

// LastEvent returns the most recently dispatched event, or nil.
func (w *Watcher) LastEvent() *model.UpdateEvent {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastEvent
}

// ReconnectAttempts returns the retries consumed since the last successful
// connection.
func (w *Watcher) ReconnectAttempts() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.attempts
}

// MaxReconnectAttempts returns the configured retry budget.
func (w *Watcher) MaxReconnectAttempts() int {
	return w.cfg.MaxReconnectAttempts
}

type sessionOutcome int

const (
	sessionStopped sessionOutcome = iota
	sessionForced
	sessionUnsupported
	sessionFailed
)

func (w *Watcher) run() {
	defer close(w.done)
	for {
		if w.ctx.Err() != nil {
			return
		}

		w.mu.RLock()
		unsupported := w.pushUnsupported
		attempts := w.attempts
		w.mu.RUnlock()

		if unsupported || attempts >= w.cfg.MaxReconnectAttempts {
			if !unsupported {
				w.logger.Warn("reconnect budget spent, falling back to polling",
					"attempts", attempts)
			}
			if w.fetcher == nil {
				w.setState(StateDisconnected)
				return
			}
			switch w.pollLoop() {
			case sessionStopped:
				return
			case sessionForced:
				if !w.grace() {
					return
				}
			}
			continue
		}

		switch w.pushSession() {
		case sessionStopped:
			return
		case sessionForced:
			if !w.grace() {
				return
			}
		case sessionUnsupported:
			w.mu.Lock()
			w.pushUnsupported = true
			w.capKnown = true
			w.mu.Unlock()
			w.logger.Info("server does not offer push updates, using polling")
		case sessionFailed:
			w.mu.Lock()
			delay := backoffDelay(w.cfg, w.attempts)
			w.attempts++
			attempt := w.attempts
			w.state = StateReconnecting
			w.mu.Unlock()
			w.logger.Info("reconnecting",
				"attempt", attempt,
				"max_attempts", w.cfg.MaxReconnectAttempts,
				"delay", delay,
			)
			select {
			case <-w.ctx.Done():
				return
			case <-w.forceCh:
				if !w.grace() {
					return
				}
			case <-w.clock.After(delay):
			}
		}
	}
}

// pushSession runs one push attempt from open through connection loss.
func (w *Watcher) pushSession() sessionOutcome {
	w.mu.Lock()
	outlet := w.outletID
	if w.capKnown {
		w.state = StateConnecting
	} else {
		w.state = StateProbing
	}
	w.mu.Unlock()

	openCtx, cancel := context.WithCancel(w.ctx)
	defer cancel()

	type openResult struct {
		conn Conn
		err  error
	}
	resCh := make(chan openResult, 1)
	go func() {
		conn, err := w.transport.Open(openCtx, outlet)
		resCh <- openResult{conn, err}
	}()
	abandon := func() {
		cancel()
		go func() {
			if r := <-resCh; r.conn != nil {
				r.conn.Close()
			}
		}()
	}

	var conn Conn
	select {
	case <-w.ctx.Done():
		abandon()
		return sessionStopped
	case <-w.forceCh:
		abandon()
		return sessionForced
	case <-w.clock.After(w.cfg.ProbeTimeout):
		abandon()
		err := fmt.Errorf("push open timed out after %s", w.cfg.ProbeTimeout)
		w.logger.Warn("push open timed out", "timeout", w.cfg.ProbeTimeout)
		w.reportError(err)
		return sessionFailed
	case r := <-resCh:
		if r.err != nil {
			if errors.Is(r.err, ErrUnsupported) {
				return sessionUnsupported
			}
			w.logger.Warn("push open failed", "error", r.err)
			w.reportError(r.err)
			return sessionFailed
		}
		conn = r.conn
	}
	defer conn.Close()

	w.mu.Lock()
	w.capKnown = true
	w.attempts = 0
	w.state = StateConnected
	w.mu.Unlock()
	w.logger.Info("push connected", "outlet_id", outlet)
	w.dispatchConnect()

	for {
		select {
		case <-w.ctx.Done():
			return sessionStopped
		case <-w.forceCh:
			return sessionForced
		case <-w.clock.After(w.cfg.LivenessInterval):
			if conn.Closed() {
				w.logger.Warn("push connection went stale")
				w.reportError(errors.New("push connection closed without notice"))
				w.dispatchDisconnect()
				return sessionFailed
			}
		case payload, ok := <-conn.Messages():
			if !ok {
				w.logger.Info("push connection closed")
				w.dispatchDisconnect()
				return sessionFailed
			}
			w.handlePayload(payload)
		case err := <-conn.Errors():
			if err != nil {
				w.logger.Warn("push connection error", "error", err)
				w.reportError(err)
			}
			w.dispatchDisconnect()
			return sessionFailed
		}
	}
}

// pollLoop fetches the active order on a fixed interval. It returns only
// when stopped or force-reconnected.
func (w *Watcher) pollLoop() sessionOutcome {
	w.setState(StatePolling)
	w.logger.Info("polling for updates", "interval", w.cfg.PollInterval)
	w.dispatchConnect()

	for {
		select {
		case <-w.ctx.Done():
			return sessionStopped
		case <-w.forceCh:
			return sessionForced
		case <-w.clock.After(w.cfg.PollInterval):
			w.pollOnce()
		}
	}
}

func (w *Watcher) pollOnce() {
	w.mu.RLock()
	orderID, sessionID := w.activeOrderID, w.activeSessionID
	w.mu.RUnlock()
	if orderID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(w.ctx, pollRequestTimeout)
	order, err := w.fetcher.GetOrder(ctx, orderID, sessionID)
	cancel()
	if err != nil {
		w.logger.Warn("order poll failed", "order_id", orderID, "error", err)
		w.reportError(err)
		return
	}

	// The first sighting of an order only records a baseline; a callback
	// fires when updatedAt moves afterwards.
	w.mu.Lock()
	baseline := w.seenOrderID != order.OrderID
	changed := !baseline && !order.UpdatedAt.Equal(w.seenUpdatedAt)
	w.seenOrderID = order.OrderID
	w.seenUpdatedAt = order.UpdatedAt
	w.mu.Unlock()
	if !changed {
		return
	}

	w.dispatchEvent(model.OrderEvent(model.EventOrderUpdated, order, w.clock.Now()))
}

func (w *Watcher) handlePayload(payload []byte) {
	var ev model.UpdateEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		w.logger.Warn("dropping malformed update", "error", err)
		return
	}
	if !ev.Type.Valid() {
		w.logger.Warn("dropping update with unknown type", "type", string(ev.Type))
		return
	}
	switch ev.Type {
	case model.EventNewOrder, model.EventOrderUpdated, model.EventOrderCompleted:
		if ev.Order == nil {
			w.logger.Warn("dropping order event without order", "type", string(ev.Type))
			return
		}
	}
	w.dispatchEvent(ev)
}

func (w *Watcher) dispatchEvent(ev model.UpdateEvent) {
	w.mu.Lock()
	w.lastEvent = &ev
	if ev.Order != nil {
		w.activeOrderID = ev.Order.OrderID
		if ev.Order.SessionID != "" {
			w.activeSessionID = ev.Order.SessionID
		}
		w.seenOrderID = ev.Order.OrderID
		w.seenUpdatedAt = ev.Order.UpdatedAt
	}
	w.mu.Unlock()

	w.cbMu.Lock()
	defer w.cbMu.Unlock()
	if w.closed {
		return
	}
	switch ev.Type {
	case model.EventNewOrder:
		if w.cb.OnNewOrder != nil {
			w.cb.OnNewOrder(*ev.Order)
		}
	case model.EventOrderUpdated:
		if w.cb.OnOrderUpdate != nil {
			w.cb.OnOrderUpdate(*ev.Order)
		}
	case model.EventOrderCompleted:
		if w.cb.OnOrderComplete != nil {
			w.cb.OnOrderComplete(*ev.Order)
		}
	case model.EventError:
		msg := ev.Error
		if msg == "" {
			msg = ev.Message
		}
		if w.cb.OnError != nil {
			w.cb.OnError(errors.New(msg))
		}
	}
}

func (w *Watcher) dispatchConnect() {
	w.cbMu.Lock()
	defer w.cbMu.Unlock()
	if w.closed {
		return
	}
	if w.cb.OnConnect != nil {
		w.cb.OnConnect()
	}
}

func (w *Watcher) dispatchDisconnect() {
	w.cbMu.Lock()
	defer w.cbMu.Unlock()
	if w.closed {
		return
	}
	if w.cb.OnDisconnect != nil {
		w.cb.OnDisconnect()
	}
}

func (w *Watcher) reportError(err error) {
	w.cbMu.Lock()
	defer w.cbMu.Unlock()
	if w.closed {
		return
	}
	if w.cb.OnError != nil {
		w.cb.OnError(err)
	}
}

func (w *Watcher) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

// grace waits out the post-ForceReconnect pause. It returns false when the
// Watcher was stopped while waiting.
func (w *Watcher) grace() bool {
	select {
	case <-w.ctx.Done():
		return false
	case <-w.clock.After(w.cfg.ReconnectGrace):
		return true
	}
}

func backoffDelay(cfg Config, attempt int) time.Duration {
	if attempt > 30 {
		return cfg.ReconnectMaxDelay
	}
	d := cfg.ReconnectBaseDelay * (1 << attempt)
	if d > cfg.ReconnectMaxDelay || d <= 0 {
		d = cfg.ReconnectMaxDelay
	}
	return d
}
