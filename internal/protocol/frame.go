package protocol

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
)

// MaxFrameBytes is the largest payload a frame may declare. A length above
// this is a protocol violation: the connection must be closed.
const MaxFrameBytes = 50_000_000

// ErrFrameTooLarge is returned by Conn.ReadMessage when a peer declares a
// frame length above MaxFrameBytes.
var ErrFrameTooLarge = errors.New("protocol: frame exceeds maximum size")

// Conn wraps a net.Conn with length-prefixed message framing. Reads and
// writes are safe to call from different goroutines (one reader, one
// writer) but not safe for concurrent writers without external
// serialization — callers needing multiple writers should serialize
// through a single dispatch goroutine, which is how peerlink.Manager uses it.
type Conn struct {
	raw net.Conn
}

// NewConn wraps an established connection for framed message exchange.
func NewConn(raw net.Conn) *Conn {
	return &Conn{raw: raw}
}

// Raw returns the underlying net.Conn, e.g. for setting deadlines.
func (c *Conn) Raw() net.Conn { return c.raw }

// Close closes the underlying connection.
func (c *Conn) Close() error { return c.raw.Close() }

// WriteMessage encodes msg as JSON and writes it as one length-prefixed
// frame. A single call never interleaves with another call's bytes because
// the length header and payload are written from one buffer.
func (c *Conn) WriteMessage(msg *Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("protocol: encode message: %w", err)
	}
	if len(payload) > MaxFrameBytes {
		return ErrFrameTooLarge
	}

	buf := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(buf[:4], uint32(len(payload)))
	copy(buf[4:], payload)

	_, err = c.raw.Write(buf)
	if err != nil {
		return fmt.Errorf("protocol: write frame: %w", err)
	}
	return nil
}

// ReadMessage reads one length-prefixed frame and decodes it. A clean EOF
// exactly at the length-prefix boundary is returned as io.EOF so callers
// can distinguish a graceful close from a mid-frame transport error.
func (c *Conn) ReadMessage() (*Message, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(c.raw, lenBuf[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("protocol: read frame length: %w", err)
	}

	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > MaxFrameBytes {
		return nil, ErrFrameTooLarge
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(c.raw, payload); err != nil {
		return nil, fmt.Errorf("protocol: read frame payload: %w", err)
	}

	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, fmt.Errorf("protocol: decode message: %w", err)
	}
	return &msg, nil
}
