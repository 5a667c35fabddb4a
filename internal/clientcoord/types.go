package clientcoord

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// Assignment names the server currently responsible for a task.
type Assignment struct {
	ServerID uint32
	Address  string
}

// NewRequestID generates a request ID for a caller that doesn't supply its
// own, derived from a random UUID's leading 8 bytes.
func NewRequestID() uint64 {
	id := uuid.New()
	return binary.BigEndian.Uint64(id[:8])
}
