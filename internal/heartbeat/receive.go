package heartbeat

import (
	"time"

	"github.com/dreamware/taskmesh/internal/protocol"
	"github.com/dreamware/taskmesh/internal/server"
)

// Apply records an inbound heartbeat against shared's peer tables, using
// the local receive time rather than the timestamp carried in the message.
func Apply(shared *server.Shared, msg *protocol.HeartbeatMsg) {
	shared.TouchPeer(msg.FromID, msg.Load, time.Now())
}
