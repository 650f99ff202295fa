// Package osc implements the subset of the OSC 1.0 wire format spoken by
// AbletonOSC: one address plus an ordered list of typed arguments per
// datagram, with bundles accepted (and flattened) on the receive side.
//
// Arguments are plain Go values. On encode the accepted types are int,
// int32, int64, float32, float64, string, bool and []byte. Booleans go on
// the wire as int32 0/1 and float64 as single-precision "f", because that
// is what the Live remote script reads.
package osc

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformed is returned (wrapped) for any datagram that cannot be decoded.
var ErrMalformed = errors.New("osc: malformed packet")

// Message is a single OSC message.
type Message struct {
	Address string
	Args    []any
}

// NewMessage builds a Message. The args slice is copied.
func NewMessage(address string, args ...any) Message {
	return Message{Address: address, Args: append([]any(nil), args...)}
}

// String renders the message for logs: "/live/song/get/tempo 120".
func (m Message) String() string {
	if len(m.Args) == 0 {
		return m.Address
	}
	parts := make([]string, 0, len(m.Args)+1)
	parts = append(parts, m.Address)
	for _, a := range m.Args {
		if s, ok := a.(string); ok {
			parts = append(parts, fmt.Sprintf("%q", s))
			continue
		}
		parts = append(parts, fmt.Sprintf("%v", a))
	}
	return strings.Join(parts, " ")
}

// ValidAddress reports whether addr is usable as an OSC address.
func ValidAddress(addr string) bool {
	if !strings.HasPrefix(addr, "/") {
		return false
	}
	return !strings.ContainsAny(addr, " #,\x00")
}
