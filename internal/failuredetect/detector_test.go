package failuredetect

import (
	"testing"
	"time"

	"github.com/dreamware/taskmesh/internal/config"
	"github.com/dreamware/taskmesh/internal/loadsensor"
	"github.com/dreamware/taskmesh/internal/server"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestShared(t *testing.T, nodeID uint32, peers map[uint32]string) *server.Shared {
	t.Helper()
	timing := config.Defaults()
	timing.MonitorIntervalSecs = 0.01
	timing.FailureTimeoutSecs = 0.03
	return server.New(nodeID, peers, timing, loadsensor.New(), zerolog.Nop())
}

func TestDetectorPurgesStalePeer(t *testing.T) {
	shared := newTestShared(t, 1, map[uint32]string{2: "127.0.0.1:0"})
	shared.TouchPeer(2, 0.1, time.Now().Add(-time.Hour))

	var lostID uint32
	lost := make(chan struct{}, 1)

	d := New(shared, zerolog.Nop(), func(id uint32) {
		lostID = id
		lost <- struct{}{}
	}, nil)
	go d.Run()
	t.Cleanup(d.Stop)

	select {
	case <-lost:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for peer to be declared lost")
	}

	assert.EqualValues(t, 2, lostID)
	assert.Empty(t, shared.StalePeers(time.Now(), shared.Timing.FailureTimeout()))
}

func TestDetectorClearsLeaderWhenLeaderLost(t *testing.T) {
	shared := newTestShared(t, 1, map[uint32]string{2: "127.0.0.1:0"})
	leaderID := uint32(2)
	shared.SetLeader(&leaderID)
	shared.TouchPeer(2, 0.1, time.Now().Add(-time.Hour))

	leaderLost := make(chan struct{}, 1)
	d := New(shared, zerolog.Nop(), func(uint32) {}, func() {
		leaderLost <- struct{}{}
	})
	go d.Run()
	t.Cleanup(d.Stop)

	select {
	case <-leaderLost:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for leader-lost callback")
	}

	_, ok := shared.Leader()
	assert.False(t, ok, "leader belief must be cleared once the leader is declared failed")
}

func TestDetectorIgnoresLiveNonLeaderPeer(t *testing.T) {
	shared := newTestShared(t, 1, map[uint32]string{2: "127.0.0.1:0"})
	shared.TouchPeer(2, 0.1, time.Now())

	called := false
	d := New(shared, zerolog.Nop(), func(uint32) { called = true }, nil)
	d.scan()

	require.False(t, called, "a peer seen moments ago must not be declared failed")
}
