package server

import (
	"testing"
	"time"

	"github.com/dreamware/taskmesh/internal/config"
	"github.com/dreamware/taskmesh/internal/loadsensor"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestShared(t *testing.T) *Shared {
	t.Helper()
	return New(1, map[uint32]string{2: "peer2:9000", 3: "peer3:9000"}, config.Defaults(), loadsensor.New(), zerolog.Nop())
}

func TestLeaderRoundTrip(t *testing.T) {
	s := newTestShared(t)

	_, ok := s.Leader()
	assert.False(t, ok)

	self := uint32(1)
	s.SetLeader(&self)
	id, ok := s.Leader()
	require.True(t, ok)
	assert.EqualValues(t, 1, id)
	assert.True(t, s.IsSelfLeader())

	s.SetLeader(nil)
	_, ok = s.Leader()
	assert.False(t, ok)
}

func TestElectionFlagRoundTrip(t *testing.T) {
	s := newTestShared(t)
	assert.False(t, s.ElectionFlag())
	s.SetElectionFlag(true)
	assert.True(t, s.ElectionFlag())
}

func TestLivePeersExcludesStaleAndUnheardFrom(t *testing.T) {
	s := newTestShared(t)
	now := time.Now()

	s.TouchPeer(2, 10, now)
	// peer 3 never touched

	live := s.LivePeers(now, s.Timing.FailureTimeout())
	assert.Len(t, live, 1)
	_, ok := live[2]
	assert.True(t, ok)
}

func TestStalePeersAndForget(t *testing.T) {
	s := newTestShared(t)
	s.TouchPeer(2, 10, time.Now().Add(-time.Hour))

	stale := s.StalePeers(time.Now(), s.Timing.FailureTimeout())
	require.Len(t, stale, 1)
	assert.EqualValues(t, 2, stale[0])

	s.ForgetPeer(2)
	assert.Empty(t, s.StalePeers(time.Now(), s.Timing.FailureTimeout()))
	assert.Empty(t, s.LivePeers(time.Now(), s.Timing.FailureTimeout()))
}

func TestPeerAddressAndIDs(t *testing.T) {
	s := newTestShared(t)
	assert.Equal(t, "peer2:9000", s.PeerAddress(2))
	assert.Equal(t, "", s.PeerAddress(99))
	assert.ElementsMatch(t, []uint32{2, 3}, s.PeerIDs())
}
