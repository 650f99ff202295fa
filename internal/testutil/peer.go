// Package testutil provides shared test doubles for the ableton-mcp
// project. Import it from _test.go files only.
package testutil

import (
	"sync"
	"time"

	"github.com/HendryAvila/ableton-mcp/internal/osc"
)

// Responder computes the messages a peer sends back for one request.
type Responder func(args []any) []osc.Message

// FakePeer is an in-memory Transport standing in for the Live remote
// script. Emitted messages are recorded; if a responder is registered
// for the address, its replies are delivered to the receive loop.
type FakePeer struct {
	mu         sync.Mutex
	responders map[string]Responder
	sent       []osc.Message
	latency    time.Duration

	inbox     chan osc.Message
	closed    chan struct{}
	closeOnce sync.Once
	closes    int
}

// NewFakePeer creates a peer that answers nothing until told to.
func NewFakePeer() *FakePeer {
	return &FakePeer{
		responders: make(map[string]Responder),
		inbox:      make(chan osc.Message, 1024),
		closed:     make(chan struct{}),
	}
}

// SetLatency delays every scripted reply by d.
func (p *FakePeer) SetLatency(d time.Duration) {
	p.mu.Lock()
	p.latency = d
	p.mu.Unlock()
}

// Respond registers r for requests on address, replacing any previous one.
func (p *FakePeer) Respond(address string, r Responder) {
	p.mu.Lock()
	p.responders[address] = r
	p.mu.Unlock()
}

// Echo answers requests on address with a single reply on the same
// address carrying fn(args).
func (p *FakePeer) Echo(address string, fn func(args []any) []any) {
	p.Respond(address, func(args []any) []osc.Message {
		return []osc.Message{osc.NewMessage(address, fn(args)...)}
	})
}

// Silence removes the responder for address.
func (p *FakePeer) Silence(address string) {
	p.mu.Lock()
	delete(p.responders, address)
	p.mu.Unlock()
}

// Emit records the message and schedules any scripted replies.
func (p *FakePeer) Emit(address string, args ...any) {
	msg := osc.NewMessage(address, args...)

	p.mu.Lock()
	p.sent = append(p.sent, msg)
	r := p.responders[address]
	latency := p.latency
	p.mu.Unlock()

	if r == nil {
		return
	}
	replies := r(msg.Args)
	if latency <= 0 {
		for _, m := range replies {
			p.Inject(m)
		}
		return
	}
	time.AfterFunc(latency, func() {
		for _, m := range replies {
			p.Inject(m)
		}
	})
}

// Inject delivers an unsolicited message to the receive loop.
func (p *FakePeer) Inject(msg osc.Message) {
	select {
	case <-p.closed:
	case p.inbox <- msg:
	}
}

// Receive runs until Close.
func (p *FakePeer) Receive(handler func(osc.Message)) error {
	for {
		select {
		case <-p.closed:
			return nil
		case m := <-p.inbox:
			handler(m)
		}
	}
}

// Close stops Receive. Safe to call more than once.
func (p *FakePeer) Close() error {
	p.mu.Lock()
	p.closes++
	p.mu.Unlock()
	p.closeOnce.Do(func() { close(p.closed) })
	return nil
}

// CloseCalls reports how many times Close was called.
func (p *FakePeer) CloseCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closes
}

// Sent returns a copy of every emitted message, in order.
func (p *FakePeer) Sent() []osc.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]osc.Message(nil), p.sent...)
}

// SentTo returns the emitted messages addressed to address.
func (p *FakePeer) SentTo(address string) []osc.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []osc.Message
	for _, m := range p.sent {
		if m.Address == address {
			out = append(out, m)
		}
	}
	return out
}

// Reset forgets recorded messages.
func (p *FakePeer) Reset() {
	p.mu.Lock()
	p.sent = nil
	p.mu.Unlock()
}
