// Package dispatch routes decoded inbound OSC messages to registered
// handlers.
//
// A pattern is either an exact address ("/live/song/get/beat") or a
// prefix followed by a single trailing wildcard segment ("/live/*"), which
// matches every address that starts with "/live/". Exact patterns take no
// priority over wildcards: every matching handler fires, in registration
// order, for every message.
package dispatch

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/HendryAvila/ableton-mcp/internal/osc"
)

// ErrInvalidPattern is returned by Register for malformed patterns.
var ErrInvalidPattern = errors.New("dispatch: invalid pattern")

// Handler receives every message whose address matches its pattern.
type Handler func(msg osc.Message)

type subscription struct {
	pattern string
	prefix  string // non-empty for wildcard patterns, includes the trailing "/"
	handler Handler
}

func (s subscription) matches(address string) bool {
	if s.prefix != "" {
		return strings.HasPrefix(address, s.prefix)
	}
	return s.pattern == address
}

// Table is safe for concurrent Register and Route.
type Table struct {
	mu   sync.RWMutex
	subs []subscription
}

// NewTable creates an empty dispatch table.
func NewTable() *Table {
	return &Table{}
}

// Register adds a handler for pattern. There is no de-registration.
func (t *Table) Register(pattern string, h Handler) error {
	if h == nil {
		return fmt.Errorf("%w: nil handler for %q", ErrInvalidPattern, pattern)
	}
	sub, err := compile(pattern)
	if err != nil {
		return err
	}
	sub.handler = h

	t.mu.Lock()
	t.subs = append(t.subs, sub)
	t.mu.Unlock()
	return nil
}

// Route invokes every handler matching msg.Address in registration order
// and returns how many fired. Handlers run outside the table lock, so a
// handler may itself call Register.
func (t *Table) Route(msg osc.Message) int {
	t.mu.RLock()
	matched := make([]Handler, 0, 2)
	for _, s := range t.subs {
		if s.matches(msg.Address) {
			matched = append(matched, s.handler)
		}
	}
	t.mu.RUnlock()

	for _, h := range matched {
		h(msg)
	}
	return len(matched)
}

// Len returns the number of registered subscriptions.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.subs)
}

// Match reports whether address is matched by pattern. Invalid patterns
// match nothing.
func Match(pattern, address string) bool {
	sub, err := compile(pattern)
	if err != nil {
		return false
	}
	return sub.matches(address)
}

// ValidatePattern returns ErrInvalidPattern (wrapped) if pattern cannot
// be registered.
func ValidatePattern(pattern string) error {
	_, err := compile(pattern)
	return err
}

func compile(pattern string) (subscription, error) {
	if !strings.HasPrefix(pattern, "/") {
		return subscription{}, fmt.Errorf("%w: %q must start with '/'", ErrInvalidPattern, pattern)
	}
	star := strings.IndexByte(pattern, '*')
	if star < 0 {
		return subscription{pattern: pattern}, nil
	}
	if star != len(pattern)-1 || !strings.HasSuffix(pattern, "/*") {
		return subscription{}, fmt.Errorf("%w: %q: '*' is only allowed as the final segment", ErrInvalidPattern, pattern)
	}
	return subscription{pattern: pattern, prefix: strings.TrimSuffix(pattern, "*")}, nil
}
