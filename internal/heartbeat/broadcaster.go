package heartbeat

import (
	"sync"
	"time"

	"github.com/dreamware/taskmesh/internal/peerlink"
	"github.com/dreamware/taskmesh/internal/protocol"
	"github.com/dreamware/taskmesh/internal/server"
	"github.com/rs/zerolog"
)

// Broadcaster ticks every heartbeat interval and broadcasts this server's
// current load sample to every configured peer.
type Broadcaster struct {
	shared *server.Shared
	link   *peerlink.Manager
	log    zerolog.Logger

	stopOnce sync.Once
	stop     chan struct{}
}

// NewBroadcaster constructs a Broadcaster. Run must be called to start it.
func NewBroadcaster(shared *server.Shared, link *peerlink.Manager, log zerolog.Logger) *Broadcaster {
	return &Broadcaster{shared: shared, link: link, log: log, stop: make(chan struct{})}
}

// Run ticks at the configured heartbeat interval until Stop is called.
func (b *Broadcaster) Run() {
	ticker := time.NewTicker(b.shared.Timing.HeartbeatInterval())
	defer ticker.Stop()

	for {
		select {
		case <-b.stop:
			return
		case <-ticker.C:
			b.tick()
		}
	}
}

// Stop halts the tick loop. Safe to call more than once.
func (b *Broadcaster) Stop() {
	b.stopOnce.Do(func() { close(b.stop) })
}

func (b *Broadcaster) tick() {
	load, err := b.shared.Sensor.Priority()
	if err != nil {
		b.log.Warn().Err(err).Msg("heartbeat: load sample failed, reporting worst case")
		load = 100
	}

	b.link.Broadcast(&protocol.Message{
		Type: protocol.TypeHeartbeat,
		Heartbeat: &protocol.HeartbeatMsg{
			FromID:    b.shared.NodeID,
			Timestamp: uint64(time.Now().Unix()),
			Load:      load,
		},
	})
}
