package osc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Encode serializes a message into one OSC datagram.
func Encode(m Message) ([]byte, error) {
	if !ValidAddress(m.Address) {
		return nil, fmt.Errorf("osc: invalid address %q", m.Address)
	}

	tags := make([]byte, 0, len(m.Args)+1)
	tags = append(tags, ',')

	var payload bytes.Buffer
	for i, arg := range m.Args {
		tag, err := encodeArg(&payload, arg)
		if err != nil {
			return nil, fmt.Errorf("osc: %s arg %d: %w", m.Address, i, err)
		}
		tags = append(tags, tag)
	}

	var buf bytes.Buffer
	buf.Grow(len(m.Address) + len(tags) + payload.Len() + 8)
	writeString(&buf, m.Address)
	writeString(&buf, string(tags))
	buf.Write(payload.Bytes())
	return buf.Bytes(), nil
}

func encodeArg(buf *bytes.Buffer, arg any) (byte, error) {
	switch v := arg.(type) {
	case int32:
		writeInt32(buf, v)
		return 'i', nil
	case int:
		return encodeInt64(buf, int64(v)), nil
	case int64:
		return encodeInt64(buf, v), nil
	case float32:
		writeUint32(buf, math.Float32bits(v))
		return 'f', nil
	case float64:
		writeUint32(buf, math.Float32bits(float32(v)))
		return 'f', nil
	case string:
		writeString(buf, v)
		return 's', nil
	case bool:
		if v {
			writeInt32(buf, 1)
		} else {
			writeInt32(buf, 0)
		}
		return 'i', nil
	case []byte:
		writeInt32(buf, int32(len(v)))
		buf.Write(v)
		pad(buf, len(v))
		return 'b', nil
	case nil:
		return 0, fmt.Errorf("nil argument")
	default:
		return 0, fmt.Errorf("unsupported argument type %T", arg)
	}
}

func encodeInt64(buf *bytes.Buffer, v int64) byte {
	if v >= math.MinInt32 && v <= math.MaxInt32 {
		writeInt32(buf, int32(v))
		return 'i'
	}
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	buf.Write(b[:])
	return 'h'
}

func writeInt32(buf *bytes.Buffer, v int32) {
	writeUint32(buf, uint32(v))
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

// writeString writes s NUL-terminated and padded to a 4-byte boundary.
func writeString(buf *bytes.Buffer, s string) {
	buf.WriteString(s)
	buf.WriteByte(0)
	pad(buf, len(s)+1)
}

func pad(buf *bytes.Buffer, n int) {
	for n%4 != 0 {
		buf.WriteByte(0)
		n++
	}
}
