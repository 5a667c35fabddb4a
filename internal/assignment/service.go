package assignment

import (
	"time"

	"github.com/dreamware/taskmesh/internal/history"
	"github.com/dreamware/taskmesh/internal/peerlink"
	"github.com/dreamware/taskmesh/internal/protocol"
	"github.com/dreamware/taskmesh/internal/server"
	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"
)

// candidate is one assignable server: its ID, address, and most recently
// reported load.
type candidate struct {
	id      uint32
	address string
	load    float64
}

// Service answers AssignRequest messages. Only the current leader's
// Service does anything; on every other server HandleAssignRequest is a
// silent no-op.
type Service struct {
	shared *server.Shared
	link   *peerlink.Manager
	log    zerolog.Logger
}

// New constructs an assignment Service.
func New(shared *server.Shared, link *peerlink.Manager, log zerolog.Logger) *Service {
	return &Service{shared: shared, link: link, log: log}
}

// HandleAssignRequest implements the assignment protocol: ignore unless
// this server is leader, pick the least-loaded live candidate (ties favor
// self), record the assignment, replicate it, and reply to the requester.
func (s *Service) HandleAssignRequest(msg *protocol.AssignRequestMsg, reply func(*protocol.Message) error) {
	if !s.shared.IsSelfLeader() {
		return
	}

	chosen := s.pickCandidate()

	key := history.Key{ClientID: msg.ClientID, RequestID: msg.RequestID}
	now := time.Now()
	s.shared.History.Add(key, chosen.id, now)

	s.link.Broadcast(&protocol.Message{
		Type: protocol.TypeHistoryAdd,
		HistoryAdd: &protocol.HistoryAddMsg{
			ClientID:         msg.ClientID,
			RequestID:        msg.RequestID,
			AssignedServerID: chosen.id,
			Timestamp:        uint64(now.Unix()),
		},
	})

	s.log.Info().
		Str("client_id", msg.ClientID).
		Uint64("request_id", msg.RequestID).
		Uint32("assigned_server_id", chosen.id).
		Msg("assignment: task assigned")

	if reply != nil {
		_ = reply(&protocol.Message{
			Type: protocol.TypeAssignResponse,
			AssignResponse: &protocol.AssignResponseMsg{
				RequestID:             msg.RequestID,
				AssignedServerID:      chosen.id,
				AssignedServerAddress: chosen.address,
			},
		})
	}
}

// pickCandidate selects the least-loaded candidate among self and every
// currently-live peer. Ties are broken in favor of self, then by lowest
// node ID, so the choice is deterministic across replicas applying the
// same inputs.
func (s *Service) pickCandidate() candidate {
	selfLoad, err := s.shared.Sensor.Priority()
	if err != nil {
		selfLoad = 100
	}

	candidates := []candidate{{id: s.shared.NodeID, address: s.shared.Address, load: selfLoad}}

	live := s.shared.LivePeers(time.Now(), s.shared.Timing.FailureTimeout())
	for id, ps := range live {
		candidates = append(candidates, candidate{id: id, address: s.shared.PeerAddress(id), load: ps.LastLoad})
	}

	slices.SortFunc(candidates, func(a, b candidate) int {
		if a.load != b.load {
			if a.load < b.load {
				return -1
			}
			return 1
		}
		if a.id == s.shared.NodeID {
			return -1
		}
		if b.id == s.shared.NodeID {
			return 1
		}
		if a.id < b.id {
			return -1
		}
		return 1
	})

	return candidates[0]
}
