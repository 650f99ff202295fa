// Package live speaks the AbletonOSC address vocabulary on top of a
// request/reply correlator.
//
// Commands that Live never acknowledges are sent fire-and-forget. Getters
// go through SendAndWait and report a missing answer as ErrNoReply.
// Track, clip and device getters echo their indices ahead of the value;
// those are checked and stripped before the value is parsed.
package live

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/HendryAvila/ableton-mcp/internal/dispatch"
)

var (
	// ErrNoReply means Live did not answer within the reply timeout.
	ErrNoReply = errors.New("live: no reply")
	// ErrUnexpectedReply means Live answered with a shape we cannot parse.
	ErrUnexpectedReply = errors.New("live: unexpected reply")
	// ErrOutOfRange means an argument was rejected before anything was sent.
	ErrOutOfRange = errors.New("live: value out of range")
)

// Correlator is the part of correlator.Client a Session needs.
type Correlator interface {
	Send(address string, args ...any)
	SendAndWait(ctx context.Context, request, reply string, timeout time.Duration, args ...any) ([]any, bool)
	Subscribe(pattern string, handler dispatch.Handler) error
}

// Options tune a Session.
type Options struct {
	// Timeout bounds each query. Zero uses the correlator default.
	Timeout time.Duration
	// NoteBatchSize is the number of notes per /live/clip/add/notes datagram.
	NoteBatchSize int
	// SendRate caps bulk writes, in datagrams per second. Zero disables pacing.
	SendRate float64
	// SettleDelay is the pause between polls while waiting for Live to
	// apply a structural change such as a new track.
	SettleDelay time.Duration
}

// DefaultOptions returns the settings used by the server.
func DefaultOptions() Options {
	return Options{
		Timeout:       2 * time.Second,
		NoteBatchSize: 32,
		SendRate:      200,
		SettleDelay:   50 * time.Millisecond,
	}
}

// Session drives one Live set.
type Session struct {
	c       Correlator
	logger  *zap.Logger
	opts    Options
	limiter *rate.Limiter
}

// NewSession wraps c. Zero-valued options fall back to DefaultOptions,
// except SendRate where zero means unpaced.
func NewSession(c Correlator, logger *zap.Logger, opts Options) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultOptions()
	if opts.NoteBatchSize <= 0 {
		opts.NoteBatchSize = def.NoteBatchSize
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = def.SettleDelay
	}

	s := &Session{c: c, logger: logger.Named("live"), opts: opts}
	if opts.SendRate > 0 {
		// The limiter counts datagrams, so no burst beyond one.
		s.limiter = rate.NewLimiter(rate.Limit(opts.SendRate), 1)
	}
	return s
}

// Options returns the effective options.
func (s *Session) Options() Options {
	return s.opts
}

// Send emits a raw message. Used by the CLI's send command.
func (s *Session) Send(address string, args ...any) {
	s.c.Send(address, args...)
}

// Query sends request and returns the raw reply arguments on reply.
func (s *Session) Query(ctx context.Context, request, reply string, args ...any) ([]any, error) {
	res, ok := s.c.SendAndWait(ctx, request, reply, s.opts.Timeout, args...)
	if !ok {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", ErrNoReply, reply)
	}
	return res, nil
}

func (s *Session) query(ctx context.Context, address string, args ...any) ([]any, error) {
	return s.Query(ctx, address, address, args...)
}

// queryIndexed sends args and expects them echoed as the first len(args)
// reply values. The remainder is returned.
func (s *Session) queryIndexed(ctx context.Context, address string, args ...int) ([]any, error) {
	wire := make([]any, len(args))
	for i, a := range args {
		wire[i] = a
	}
	res, err := s.query(ctx, address, wire...)
	if err != nil {
		return nil, err
	}
	if len(res) < len(args) {
		return nil, fmt.Errorf("%w: %s: %d values", ErrUnexpectedReply, address, len(res))
	}
	for i, want := range args {
		got, ok := intArg(res, i)
		if !ok || got != want {
			return nil, fmt.Errorf("%w: %s: index %d is %v, want %d", ErrUnexpectedReply, address, i, res[i], want)
		}
	}
	return res[len(args):], nil
}

// paced waits for the send limiter, if any.
func (s *Session) paced(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Wait(ctx)
}

func checkRange(name string, v, lo, hi float64) error {
	if v < lo || v > hi {
		return fmt.Errorf("%w: %s %g not in [%g, %g]", ErrOutOfRange, name, v, lo, hi)
	}
	return nil
}

func checkIndex(name string, i int) error {
	if i < 0 {
		return fmt.Errorf("%w: %s %d is negative", ErrOutOfRange, name, i)
	}
	return nil
}
