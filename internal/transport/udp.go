// Package transport moves OSC messages over UDP.
//
// It is fire-and-forget in both directions: Emit writes one datagram and
// never waits for an answer, and Receive hands every decodable inbound
// datagram to a callback. Correlating the two is the correlator's job.
package transport

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/HendryAvila/ableton-mcp/internal/osc"
)

// maxDatagram is the largest UDP payload we will read.
const maxDatagram = 65535

// TransportError reports a failure to set up an endpoint.
type TransportError struct {
	Op   string // "listen" or "resolve"
	Addr string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UDP is an OSC transport with one inbound and one outbound socket.
type UDP struct {
	logger *zap.Logger
	in     *net.UDPConn
	out    *net.UDPConn
	target *net.UDPAddr

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Open binds host:receivePort for inbound datagrams and prepares an
// outbound socket aimed at host:sendPort. If the inbound port is already
// bound, a *TransportError is returned and nothing is left open.
func Open(host string, sendPort, receivePort int, logger *zap.Logger) (*UDP, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	sendAddr := net.JoinHostPort(host, strconv.Itoa(sendPort))
	target, err := net.ResolveUDPAddr("udp", sendAddr)
	if err != nil {
		return nil, &TransportError{Op: "resolve", Addr: sendAddr, Err: err}
	}

	recvAddr := net.JoinHostPort(host, strconv.Itoa(receivePort))
	local, err := net.ResolveUDPAddr("udp", recvAddr)
	if err != nil {
		return nil, &TransportError{Op: "resolve", Addr: recvAddr, Err: err}
	}

	in, err := net.ListenUDP("udp", local)
	if err != nil {
		return nil, &TransportError{Op: "listen", Addr: recvAddr, Err: err}
	}

	// Unconnected, so ICMP port-unreachable from a peer that is not
	// running yet does not poison later writes.
	out, err := net.ListenUDP("udp", nil)
	if err != nil {
		_ = in.Close()
		return nil, &TransportError{Op: "listen", Addr: "outbound", Err: err}
	}

	u := &UDP{
		logger: logger.Named("transport"),
		in:     in,
		out:    out,
		target: target,
	}
	u.logger.Info("OSC transport open",
		zap.String("listen", in.LocalAddr().String()),
		zap.String("target", target.String()),
	)
	return u, nil
}

// Emit encodes and sends one datagram. Failures are logged and dropped.
func (u *UDP) Emit(address string, args ...any) {
	if u.closed.Load() {
		u.logger.Debug("emit after close dropped", zap.String("address", address))
		return
	}

	msg := osc.NewMessage(address, args...)
	data, err := osc.Encode(msg)
	if err != nil {
		u.logger.Error("encode failed", zap.String("address", address), zap.Error(err))
		return
	}
	if _, err := u.out.WriteToUDP(data, u.target); err != nil {
		u.logger.Error("send failed", zap.String("address", address), zap.Error(err))
		return
	}
	u.logger.Debug("sent", zap.Stringer("msg", msg))
}

// Receive reads datagrams until the transport is closed, handing each
// decoded message to handler. Malformed datagrams are logged and skipped.
// It returns nil once Close has been called.
func (u *UDP) Receive(handler func(osc.Message)) error {
	buf := make([]byte, maxDatagram)
	for {
		n, from, err := u.in.ReadFromUDP(buf)
		if err != nil {
			if u.closed.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			u.logger.Warn("read failed", zap.Error(err))
			continue
		}

		msgs, err := osc.Decode(buf[:n])
		if err != nil {
			u.logger.Warn("dropping malformed datagram",
				zap.Stringer("from", from),
				zap.Int("bytes", n),
				zap.Error(err),
			)
			continue
		}
		for _, m := range msgs {
			u.logger.Debug("received", zap.Stringer("msg", m))
			handler(m)
		}
	}
}

// LocalAddr is the bound inbound address.
func (u *UDP) LocalAddr() net.Addr {
	return u.in.LocalAddr()
}

// Target is the outbound destination.
func (u *UDP) Target() net.Addr {
	return u.target
}

// Close releases both sockets. Safe to call more than once.
func (u *UDP) Close() error {
	u.closeOnce.Do(func() {
		u.closed.Store(true)
		errIn := u.in.Close()
		errOut := u.out.Close()
		u.closeErr = errors.Join(errIn, errOut)
		u.logger.Info("OSC transport closed")
	})
	return u.closeErr
}
