package osc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

const bundleTag = "#bundle"

// maxBundleDepth bounds recursion on nested bundles.
const maxBundleDepth = 8

// Decode parses one datagram. A plain message yields a single element;
// a bundle yields its messages in order, nested bundles flattened.
func Decode(data []byte) ([]Message, error) {
	return decodePacket(data, 0)
}

func decodePacket(data []byte, depth int) ([]Message, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty packet", ErrMalformed)
	}
	if data[0] == '#' {
		return decodeBundle(data, depth)
	}
	m, err := decodeMessage(data)
	if err != nil {
		return nil, err
	}
	return []Message{m}, nil
}

func decodeBundle(data []byte, depth int) ([]Message, error) {
	if depth >= maxBundleDepth {
		return nil, fmt.Errorf("%w: bundles nested too deep", ErrMalformed)
	}
	r := &reader{data: data}
	tag, err := r.string()
	if err != nil {
		return nil, err
	}
	if tag != bundleTag {
		return nil, fmt.Errorf("%w: unexpected bundle tag %q", ErrMalformed, tag)
	}
	// Time tag is ignored: AbletonOSC never schedules.
	if _, err := r.take(8); err != nil {
		return nil, err
	}

	var out []Message
	for r.remaining() > 0 {
		size, err := r.int32()
		if err != nil {
			return nil, err
		}
		if size < 0 {
			return nil, fmt.Errorf("%w: negative bundle element size", ErrMalformed)
		}
		elem, err := r.take(int(size))
		if err != nil {
			return nil, err
		}
		msgs, err := decodePacket(elem, depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, msgs...)
	}
	return out, nil
}

func decodeMessage(data []byte) (Message, error) {
	r := &reader{data: data}
	addr, err := r.string()
	if err != nil {
		return Message{}, err
	}
	if !ValidAddress(addr) {
		return Message{}, fmt.Errorf("%w: invalid address %q", ErrMalformed, addr)
	}

	// A message without a type tag string is legal in OSC 1.0 and
	// carries no arguments.
	if r.remaining() == 0 {
		return Message{Address: addr}, nil
	}

	tags, err := r.string()
	if err != nil {
		return Message{}, err
	}
	if len(tags) == 0 || tags[0] != ',' {
		return Message{}, fmt.Errorf("%w: missing type tag string", ErrMalformed)
	}

	args := make([]any, 0, len(tags)-1)
	for _, tag := range []byte(tags[1:]) {
		arg, err := r.arg(tag)
		if err != nil {
			return Message{}, fmt.Errorf("%s: %w", addr, err)
		}
		args = append(args, arg)
	}
	return Message{Address: addr, Args: args}, nil
}

type reader struct {
	data []byte
	off  int
}

func (r *reader) remaining() int { return len(r.data) - r.off }

func (r *reader) take(n int) ([]byte, error) {
	if n < 0 || r.remaining() < n {
		return nil, fmt.Errorf("%w: truncated at offset %d", ErrMalformed, r.off)
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) int32() (int32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

func (r *reader) string() (string, error) {
	rest := r.data[r.off:]
	end := bytes.IndexByte(rest, 0)
	if end < 0 {
		return "", fmt.Errorf("%w: unterminated string at offset %d", ErrMalformed, r.off)
	}
	s := string(rest[:end])
	n := end + 1
	for n%4 != 0 {
		n++
	}
	if _, err := r.take(n); err != nil {
		return "", err
	}
	return s, nil
}

func (r *reader) arg(tag byte) (any, error) {
	switch tag {
	case 'i':
		return r.int32()
	case 'h':
		b, err := r.take(8)
		if err != nil {
			return nil, err
		}
		return int64(binary.BigEndian.Uint64(b)), nil
	case 'f':
		b, err := r.take(4)
		if err != nil {
			return nil, err
		}
		return math.Float32frombits(binary.BigEndian.Uint32(b)), nil
	case 'd':
		b, err := r.take(8)
		if err != nil {
			return nil, err
		}
		return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
	case 's', 'S':
		return r.string()
	case 'b':
		size, err := r.int32()
		if err != nil {
			return nil, err
		}
		b, err := r.take(int(size))
		if err != nil {
			return nil, err
		}
		n := int(size)
		for n%4 != 0 {
			n++
		}
		if _, err := r.take(n - int(size)); err != nil {
			return nil, err
		}
		return append([]byte(nil), b...), nil
	case 'T':
		return true, nil
	case 'F':
		return false, nil
	case 'N', 'I':
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: unsupported type tag %q", ErrMalformed, tag)
	}
}
