package assignment

import (
	"github.com/dreamware/taskmesh/internal/history"
	"github.com/dreamware/taskmesh/internal/protocol"
)

// HandleTaskStatusQuery answers a client's reassignment poll from local
// history. Any server can answer this, not just the leader: history is
// replicated to every live peer via HistoryAdd/HistoryRemove broadcasts.
// A request with no known history entry (already completed, or never
// assigned here) gets no reply — the client tries the next server or
// polls again.
func (s *Service) HandleTaskStatusQuery(msg *protocol.TaskStatusQueryMsg, reply func(*protocol.Message) error) {
	key := history.Key{ClientID: msg.ClientID, RequestID: msg.RequestID}
	entry, ok := s.shared.History.Lookup(key)
	if !ok || reply == nil {
		return
	}

	address := s.shared.Address
	if entry.AssignedServer != s.shared.NodeID {
		address = s.shared.PeerAddress(entry.AssignedServer)
	}

	_ = reply(&protocol.Message{
		Type: protocol.TypeTaskStatusResponse,
		TaskStatusResponse: &protocol.TaskStatusResponseMsg{
			RequestID:             msg.RequestID,
			AssignedServerID:      entry.AssignedServer,
			AssignedServerAddress: address,
		},
	})
}
