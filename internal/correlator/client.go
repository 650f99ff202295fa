package correlator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/HendryAvila/ableton-mcp/internal/dispatch"
	"github.com/HendryAvila/ableton-mcp/internal/osc"
	"github.com/HendryAvila/ableton-mcp/internal/pending"
	"github.com/HendryAvila/ableton-mcp/internal/transport"
)

// Transport is the fire-and-forget medium underneath a Client.
// *transport.UDP satisfies it.
type Transport interface {
	// Emit sends one message. Failures are the transport's to log.
	Emit(address string, args ...any)
	// Receive blocks, handing every inbound message to handler, and
	// returns once the transport is closed.
	Receive(handler func(osc.Message)) error
	// Close stops Receive and releases the endpoints. Idempotent.
	Close() error
}

// Config holds the correlation settings.
type Config struct {
	Host        string
	SendPort    int
	ReceivePort int

	// ReplyPattern routes inbound messages into the pending store.
	ReplyPattern string
	// ReplyTimeout applies when SendAndWait is called with timeout <= 0.
	ReplyTimeout time.Duration
	// ShutdownTimeout bounds how long Close waits for the listener.
	ShutdownTimeout time.Duration
}

// DefaultConfig matches the AbletonOSC remote script defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "127.0.0.1",
		SendPort:        11000,
		ReceivePort:     11001,
		ReplyPattern:    "/live/*",
		ReplyTimeout:    2 * time.Second,
		ShutdownTimeout: time.Second,
	}
}

// Option customizes a Client.
type Option func(*Client)

// WithObserver reports every SendAndWait outcome to o.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

type waiter struct {
	token   uuid.UUID
	address string
	ch      chan []any
}

// Client correlates replies with requests over a Transport.
type Client struct {
	cfg       Config
	logger    *zap.Logger
	transport Transport
	table     *dispatch.Table
	store     *pending.Store
	observer  Observer

	mu      sync.Mutex
	waiters map[uuid.UUID]*waiter
	queues  map[string][]uuid.UUID

	closed       atomic.Bool
	closeOnce    sync.Once
	closeErr     error
	listenerDone chan struct{}
}

// Open binds a UDP transport for cfg and starts a Client on it.
// A bind failure is returned as a *transport.TransportError.
func Open(cfg Config, logger *zap.Logger, opts ...Option) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	t, err := transport.Open(cfg.Host, cfg.SendPort, cfg.ReceivePort, logger)
	if err != nil {
		return nil, err
	}
	c, err := New(t, cfg, logger, opts...)
	if err != nil {
		_ = t.Close()
		return nil, err
	}
	return c, nil
}

// New starts a Client on an already-open transport. The listener
// goroutine is running when New returns.
func New(t Transport, cfg Config, logger *zap.Logger, opts ...Option) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultConfig()
	if cfg.ReplyPattern == "" {
		cfg.ReplyPattern = def.ReplyPattern
	}
	if cfg.ReplyTimeout <= 0 {
		cfg.ReplyTimeout = def.ReplyTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = def.ShutdownTimeout
	}

	c := &Client{
		cfg:          cfg,
		logger:       logger.Named("correlator"),
		transport:    t,
		table:        dispatch.NewTable(),
		store:        pending.New(),
		waiters:      make(map[uuid.UUID]*waiter),
		queues:       make(map[string][]uuid.UUID),
		listenerDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.table.Register(cfg.ReplyPattern, c.storeReply); err != nil {
		return nil, fmt.Errorf("registering reply pattern: %w", err)
	}

	go c.listen()
	return c, nil
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// Send emits a message that expects no reply.
func (c *Client) Send(address string, args ...any) {
	if c.closed.Load() {
		c.logger.Debug("send on closed client dropped", zap.String("address", address))
		return
	}
	c.transport.Emit(address, args...)
}

// SendAndWait emits request and waits for the next message on reply.
// A timeout <= 0 uses the configured ReplyTimeout. It returns (nil, false)
// on timeout, on ctx cancellation, or when the Client is closed.
func (c *Client) SendAndWait(ctx context.Context, request, reply string, timeout time.Duration, args ...any) ([]any, bool) {
	if timeout <= 0 {
		timeout = c.cfg.ReplyTimeout
	}
	start := time.Now()
	ex := Exchange{
		Request: request,
		Reply:   reply,
		Args:    append([]any(nil), args...),
		At:      start,
	}

	c.store.Clear(reply)
	w := c.addWaiter(reply)
	if w == nil {
		ex.Outcome = OutcomeClosed
		c.observe(ex)
		return nil, false
	}
	ex.Token = w.token

	c.transport.Emit(request, args...)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var res []any
	var ok bool
	select {
	case res, ok = <-w.ch:
		if !ok {
			ex.Outcome = OutcomeClosed
		}
	case <-timer.C:
		ex.Outcome = OutcomeTimeout
	case <-ctx.Done():
		ex.Outcome = OutcomeCancelled
	}

	if !ok && ex.Outcome != OutcomeClosed {
		// The reply may have landed between the deadline and now.
		res, ok = c.removeWaiter(w)
		if !ok && c.closed.Load() {
			ex.Outcome = OutcomeClosed
		}
	}

	ex.Latency = time.Since(start)
	if ok {
		// The reply is delivered; its slot is consumed with it.
		c.store.TakeIfPresent(reply)
		ex.Outcome = OutcomeReplied
		ex.ReplyArgs = res
		c.observe(ex)
		return res, true
	}

	if ex.Outcome == OutcomeTimeout {
		c.logger.Warn("timeout waiting for reply",
			zap.String("request", request),
			zap.String("reply", reply),
			zap.Duration("timeout", timeout),
		)
	}
	c.observe(ex)
	return nil, false
}

// Subscribe registers handler for every inbound message matching pattern,
// alongside the reply pattern. A panicking handler is logged and skipped.
func (c *Client) Subscribe(pattern string, handler dispatch.Handler) error {
	if handler == nil {
		return c.table.Register(pattern, nil)
	}
	return c.table.Register(pattern, c.guard(pattern, handler))
}

// Latest returns the last value stored for address without consuming it.
// Replies handed to a SendAndWait caller are consumed, so this mostly
// sees streamed addresses such as the beat.
func (c *Client) Latest(address string) ([]any, bool) {
	return c.store.Peek(address)
}

// Pending returns how many SendAndWait calls are currently waiting.
func (c *Client) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

// Closed reports whether Close has been called.
func (c *Client) Closed() bool {
	return c.closed.Load()
}

// Close stops the listener, waits for it (bounded by ShutdownTimeout),
// releases every waiter and drops the stored replies. Safe to call more
// than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.closeErr = c.transport.Close()

		select {
		case <-c.listenerDone:
		case <-time.After(c.cfg.ShutdownTimeout):
			c.logger.Warn("listener did not stop in time",
				zap.Duration("shutdown_timeout", c.cfg.ShutdownTimeout))
		}

		c.releaseWaiters()
		c.store.Reset()
		c.logger.Info("correlator closed")
	})
	return c.closeErr
}

// ─── Listener ───────────────────────────────────────────────────────────────

func (c *Client) listen() {
	defer close(c.listenerDone)
	c.logger.Debug("listener started")
	if err := c.transport.Receive(c.route); err != nil && !c.closed.Load() {
		c.logger.Error("listener stopped", zap.Error(err))
	}
	c.logger.Debug("listener stopped")
}

func (c *Client) route(msg osc.Message) {
	if c.closed.Load() {
		return
	}
	if c.table.Route(msg) == 0 {
		c.logger.Debug("unrouted message", zap.String("address", msg.Address))
	}
}

// storeReply is the default handler for the reply pattern.
func (c *Client) storeReply(msg osc.Message) {
	c.store.Put(msg.Address, msg.Args)
	c.resolve(msg.Address, msg.Args)
}

func (c *Client) guard(pattern string, h dispatch.Handler) dispatch.Handler {
	return func(msg osc.Message) {
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("subscriber panicked",
					zap.String("pattern", pattern),
					zap.String("address", msg.Address),
					zap.Any("panic", r),
				)
			}
		}()
		h(msg)
	}
}

// ─── Waiters ────────────────────────────────────────────────────────────────

func (c *Client) addWaiter(address string) *waiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed.Load() {
		return nil
	}
	w := &waiter{token: uuid.New(), address: address, ch: make(chan []any, 1)}
	c.waiters[w.token] = w
	c.queues[address] = append(c.queues[address], w.token)
	return w
}

// resolve hands args to the oldest waiter on address, if any.
func (c *Client) resolve(address string, args []any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	q := c.queues[address]
	if len(q) == 0 {
		return false
	}
	token := q[0]
	c.dropToken(address, 0)
	w := c.waiters[token]
	delete(c.waiters, token)
	w.ch <- append([]any(nil), args...)
	return true
}

// removeWaiter unregisters w. If w was resolved or released in the
// meantime, the outcome is read from its channel without blocking.
func (c *Client) removeWaiter(w *waiter) ([]any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.waiters[w.token]; ok {
		delete(c.waiters, w.token)
		for i, tok := range c.queues[w.address] {
			if tok == w.token {
				c.dropToken(w.address, i)
				break
			}
		}
		return nil, false
	}
	res, ok := <-w.ch
	return res, ok
}

// dropToken removes queues[address][i]. Caller holds mu.
func (c *Client) dropToken(address string, i int) {
	q := c.queues[address]
	q = append(q[:i], q[i+1:]...)
	if len(q) == 0 {
		delete(c.queues, address)
		return
	}
	c.queues[address] = q
}

func (c *Client) releaseWaiters() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for tok, w := range c.waiters {
		close(w.ch)
		delete(c.waiters, tok)
	}
	c.queues = make(map[string][]uuid.UUID)
}

func (c *Client) observe(ex Exchange) {
	if c.observer == nil {
		return
	}
	c.observer.Observe(ex)
}
