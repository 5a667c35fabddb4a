package server

import (
	"sync"
	"time"

	"github.com/dreamware/taskmesh/internal/config"
	"github.com/dreamware/taskmesh/internal/history"
	"github.com/dreamware/taskmesh/internal/loadsensor"
	"github.com/rs/zerolog"
)

// PeerState is a snapshot of one peer's liveness and reported load, held in
// Shared's peer tables.
type PeerState struct {
	LastSeen time.Time
	LastLoad float64
}

// Shared is the cyclic-ownership handle: leader state, election flag,
// peer tables, and task history, each guarded by its own lock so that no
// single global mutex serializes unrelated readers.
type Shared struct {
	Sensor  *loadsensor.Sensor
	History *history.Replica
	Log     zerolog.Logger

	peerAddrs map[uint32]string // static, from configuration; never mutated after construction

	leaderMu sync.RWMutex
	leader   *uint32 // nil == LeaderState::None

	electionMu   sync.RWMutex
	electionFlag bool

	peersMu sync.RWMutex
	peers   map[uint32]*PeerState

	NodeID  uint32
	Address string
	Timing  config.TimingConfig
}

// New constructs a Shared handle for a server with the given identity,
// static peer address book, and timing configuration.
func New(nodeID uint32, peerAddrs map[uint32]string, timing config.TimingConfig, sensor *loadsensor.Sensor, log zerolog.Logger) *Shared {
	peers := make(map[uint32]*PeerState, len(peerAddrs))
	for id := range peerAddrs {
		peers[id] = &PeerState{}
	}
	return &Shared{
		NodeID:    nodeID,
		peerAddrs: peerAddrs,
		Timing:    timing,
		Sensor:    sensor,
		History:   history.New(),
		Log:       log,
		peers:     peers,
	}
}

// SetAddress records this server's own listen address, used to answer
// AssignRequest when the coordinator assigns the task to itself.
func (s *Shared) SetAddress(addr string) {
	s.Address = addr
}

// PeerAddress returns the configured address for a peer node ID, or the
// empty string if no such peer is configured.
func (s *Shared) PeerAddress(id uint32) string {
	return s.peerAddrs[id]
}

// PeerIDs returns the configured peer node IDs (excluding self).
func (s *Shared) PeerIDs() []uint32 {
	ids := make([]uint32, 0, len(s.peerAddrs))
	for id := range s.peerAddrs {
		ids = append(ids, id)
	}
	return ids
}

// Leader returns the server's current belief about the leader, and whether
// a leader is currently known at all.
func (s *Shared) Leader() (uint32, bool) {
	s.leaderMu.RLock()
	defer s.leaderMu.RUnlock()
	if s.leader == nil {
		return 0, false
	}
	return *s.leader, true
}

// SetLeader records a new leader belief. Passing nil clears it
// (LeaderState::None).
func (s *Shared) SetLeader(id *uint32) {
	s.leaderMu.Lock()
	defer s.leaderMu.Unlock()
	s.leader = id
}

// IsSelfLeader reports whether this server currently believes itself to be
// the coordinator.
func (s *Shared) IsSelfLeader() bool {
	id, ok := s.Leader()
	return ok && id == s.NodeID
}

// SetElectionFlag sets or clears whether an Alive response has been
// received yet during the in-flight election.
func (s *Shared) SetElectionFlag(v bool) {
	s.electionMu.Lock()
	defer s.electionMu.Unlock()
	s.electionFlag = v
}

// ElectionFlag reads the current election flag.
func (s *Shared) ElectionFlag() bool {
	s.electionMu.RLock()
	defer s.electionMu.RUnlock()
	return s.electionFlag
}

// TouchPeer records a fresh heartbeat from peer id, using the local receive
// time rather than any timestamp carried in the message — clocks across
// nodes are not assumed synchronized.
func (s *Shared) TouchPeer(id uint32, load float64, now time.Time) {
	s.peersMu.Lock()
	defer s.peersMu.Unlock()
	ps, ok := s.peers[id]
	if !ok {
		ps = &PeerState{}
		s.peers[id] = ps
	}
	ps.LastSeen = now
	ps.LastLoad = load
}

// LivePeers returns a snapshot of every peer whose last-seen time is within
// failureTimeout of now — the candidate set the assignment service and
// failure detector both read.
func (s *Shared) LivePeers(now time.Time, failureTimeout time.Duration) map[uint32]PeerState {
	s.peersMu.RLock()
	defer s.peersMu.RUnlock()

	out := make(map[uint32]PeerState, len(s.peers))
	for id, ps := range s.peers {
		if ps.LastSeen.IsZero() {
			continue // never heard from this peer yet
		}
		if now.Sub(ps.LastSeen) <= failureTimeout {
			out[id] = *ps
		}
	}
	return out
}

// StalePeers returns the IDs of every peer whose last-seen time is older
// than failureTimeout relative to now — the failure-declaration
// candidates. A peer never heard from is not considered stale — it may
// simply not have connected yet.
func (s *Shared) StalePeers(now time.Time, failureTimeout time.Duration) []uint32 {
	s.peersMu.RLock()
	defer s.peersMu.RUnlock()

	var stale []uint32
	for id, ps := range s.peers {
		if ps.LastSeen.IsZero() {
			continue
		}
		if now.Sub(ps.LastSeen) > failureTimeout {
			stale = append(stale, id)
		}
	}
	return stale
}

// ForgetPeer removes a peer from the live-load and last-seen tables as
// part of declaring it failed.
func (s *Shared) ForgetPeer(id uint32) {
	s.peersMu.Lock()
	defer s.peersMu.Unlock()
	delete(s.peers, id)
}
