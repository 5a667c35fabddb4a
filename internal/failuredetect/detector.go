package failuredetect

import (
	"sync"
	"time"

	"github.com/dreamware/taskmesh/internal/server"
	"github.com/rs/zerolog"
)

// nowFunc is a seam for tests to control the clock.
var nowFunc = time.Now

// Detector periodically scans Shared's peer tables and declares a peer
// failed once it has been silent for longer than the configured failure
// timeout.
type Detector struct {
	shared *server.Shared
	log    zerolog.Logger

	onPeerLost func(id uint32)
	onLeaderLost func()

	stopOnce sync.Once
	stop     chan struct{}
}

// New constructs a Detector. onPeerLost is invoked once per declared
// failure (wired to history.Replica.PurgeServer by the caller); onLeaderLost
// is invoked only when the lost peer was believed to be leader (wired to
// election.Engine.LeaderLost).
func New(shared *server.Shared, log zerolog.Logger, onPeerLost func(id uint32), onLeaderLost func()) *Detector {
	return &Detector{
		shared:       shared,
		log:          log,
		onPeerLost:   onPeerLost,
		onLeaderLost: onLeaderLost,
		stop:         make(chan struct{}),
	}
}

// Run starts the periodic scan loop. Blocks until Stop is called; run it
// in its own goroutine.
func (d *Detector) Run() {
	interval := d.shared.Timing.MonitorInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stop:
			return
		case <-ticker.C:
			d.scan()
		}
	}
}

// Stop halts the scan loop. Safe to call more than once.
func (d *Detector) Stop() {
	d.stopOnce.Do(func() { close(d.stop) })
}

func (d *Detector) scan() {
	timeout := d.shared.Timing.FailureTimeout()
	now := nowFunc()

	for _, peerID := range d.shared.StalePeers(now, timeout) {
		d.declareFailed(peerID)
	}
}

// declareFailed runs the full failure-declaration sequence: forget the
// peer's state, notify history, and clear leadership if the lost peer was
// believed to be leader.
func (d *Detector) declareFailed(peerID uint32) {
	d.shared.ForgetPeer(peerID)

	d.log.Warn().Uint32("peer_id", peerID).Msg("failuredetect: peer declared failed")

	if d.onPeerLost != nil {
		d.onPeerLost(peerID)
	}

	if leader, ok := d.shared.Leader(); ok && leader == peerID {
		d.shared.SetLeader(nil)
		if d.onLeaderLost != nil {
			d.onLeaderLost()
		}
	}
}
