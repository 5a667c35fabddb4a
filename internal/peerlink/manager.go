package peerlink

import (
	"net"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dreamware/taskmesh/internal/protocol"
	"github.com/rs/zerolog"
)

// sendQueueDepth is the bounded per-peer outbound queue depth.
const sendQueueDepth = 100

// reconnectInterval is the bounded retry interval between dial attempts.
const reconnectInterval = 2 * time.Second

// writeDeadline bounds a single frame write so a peer that accepted the
// TCP connection but stopped reading cannot wedge the writer goroutine
// forever; a timed-out write tears the link down like any other write error.
const writeDeadline = 5 * time.Second

// DispatchFunc handles one peer message, read either off an outbound link
// or off an inbound connection a peer dialed. fromID is the configured peer
// ID for outbound links and 0 for inbound connections. reply, when
// non-nil, sends a message back on the same connection the inbound message
// arrived on. Client requests are not dispatched here; they go to
// InboundHandlers.
type DispatchFunc func(fromID uint32, msg *protocol.Message, reply func(*protocol.Message) error)

// link is the per-peer outbound connection state: a send queue and the
// currently-connected frame channel, if any. The queue is drained only by
// this link's own writer goroutine (see Manager.runWriter) — Send and
// Broadcast never touch the network themselves, so a slow or wedged peer
// only ever stalls its own writer, never the caller.
type link struct {
	conn  *protocol.Conn // nil when disconnected
	mu    sync.Mutex
	queue []*protocol.Message // bounded; oldest dropped on overflow

	wake chan struct{} // capacity 1; signals the writer goroutine there is new work
}

// Manager owns one outbound supervisor per configured peer and accepts
// inbound connections on a listener. On a server it is the component that
// dials peers and accepts connections; clients dial servers themselves.
type Manager struct {
	dispatch DispatchFunc
	links    map[uint32]*link
	log      zerolog.Logger

	linksMu sync.RWMutex
}

// New returns a Manager with no peers yet configured. Call AddPeer for
// each configured peer; each peer's supervisor starts at once.
func New(log zerolog.Logger) *Manager {
	return &Manager{
		links: make(map[uint32]*link),
		log:   log,
	}
}

// SetDispatch installs the callback invoked for every peer message,
// whether it arrived on an outbound link's read side or an inbound
// connection. While no callback is installed, such messages are dropped on
// outbound links and close an inbound connection.
func (m *Manager) SetDispatch(fn DispatchFunc) {
	m.dispatch = fn
}

// AddPeer registers a peer and starts its connect-retry supervisor and
// writer goroutines immediately.
func (m *Manager) AddPeer(id uint32, addr string) {
	l := &link{wake: make(chan struct{}, 1)}
	m.linksMu.Lock()
	m.links[id] = l
	m.linksMu.Unlock()

	go m.superviseOutbound(id, addr, l)
	go m.runWriter(id, l)
}

// superviseOutbound connects, registers the link, runs the read-dispatch
// loop, and on any error tears the link down and retries after a bounded
// interval, forever.
func (m *Manager) superviseOutbound(peerID uint32, addr string, l *link) {
	b := backoff.NewConstantBackOff(reconnectInterval)
	for {
		conn, err := net.DialTimeout("tcp", addr, reconnectInterval)
		if err != nil {
			m.log.Debug().Uint32("peer_id", peerID).Str("addr", addr).Err(err).Msg("peerlink: dial failed, retrying")
			time.Sleep(b.NextBackOff())
			continue
		}

		fc := protocol.NewConn(conn)
		l.mu.Lock()
		l.conn = fc
		l.mu.Unlock()

		m.log.Info().Uint32("peer_id", peerID).Str("addr", addr).Msg("peerlink: connected")

		// Wake the writer so anything queued while disconnected flushes now.
		select {
		case l.wake <- struct{}{}:
		default:
		}

		m.readLoop(peerID, fc)

		l.mu.Lock()
		l.conn = nil
		l.mu.Unlock()

		m.log.Warn().Uint32("peer_id", peerID).Msg("peerlink: link torn down, will retry")
		time.Sleep(b.NextBackOff())
	}
}

// runWriter is the only goroutine that ever writes to l's connection. It
// wakes whenever Send/Broadcast enqueue a message or a reconnect installs a
// fresh conn, and drains the queue until it is empty or the connection
// errors out (in which case it stops and waits for the next reconnect's
// wake, leaving the remaining queue for the next connected attempt).
// Lives for the lifetime of the peer, same as superviseOutbound.
func (m *Manager) runWriter(peerID uint32, l *link) {
	for range l.wake {
		for {
			l.mu.Lock()
			if l.conn == nil || len(l.queue) == 0 {
				l.mu.Unlock()
				break
			}
			msg := l.queue[0]
			conn := l.conn
			l.mu.Unlock()

			_ = conn.Raw().SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := conn.WriteMessage(msg); err != nil {
				m.log.Warn().Uint32("peer_id", peerID).Err(err).Msg("peerlink: write failed, will retry on reconnect")
				break
			}

			l.mu.Lock()
			if len(l.queue) > 0 && l.queue[0] == msg {
				l.queue = l.queue[1:]
			}
			l.mu.Unlock()
		}
	}
}

// readLoop decodes frames off conn and hands each one to the dispatch
// callback until the connection errors or closes. Used only for outbound
// peer links, which carry a continuous stream of election/heartbeat/
// history messages rather than one request/reply round.
func (m *Manager) readLoop(peerID uint32, conn *protocol.Conn) {
	for {
		msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if m.dispatch != nil {
			m.dispatch(peerID, msg, func(reply *protocol.Message) error {
				return conn.WriteMessage(reply)
			})
		}
	}
}

// Send enqueues msg for delivery to a single peer and returns immediately;
// it never touches the network itself. A dedicated writer goroutine per
// peer (runWriter) drains the queue, so a connected-but-slow peer stalls
// only its own writer, never the caller. Queue depth is bounded at
// sendQueueDepth with the oldest pending message dropped on overflow,
// whether the peer is currently connected or not.
func (m *Manager) Send(peerID uint32, msg *protocol.Message) {
	m.linksMu.RLock()
	l, ok := m.links[peerID]
	m.linksMu.RUnlock()
	if !ok {
		return
	}

	l.mu.Lock()
	l.queue = append(l.queue, msg)
	if len(l.queue) > sendQueueDepth {
		dropped := len(l.queue) - sendQueueDepth
		m.log.Warn().Uint32("peer_id", peerID).Int("dropped", dropped).Msg("peerlink: send queue overflow, dropping oldest")
		l.queue = l.queue[dropped:]
	}
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Broadcast enqueues msg for delivery to every configured peer, connected
// or not — the attempt is enqueued regardless.
func (m *Manager) Broadcast(msg *protocol.Message) {
	m.linksMu.RLock()
	ids := make([]uint32, 0, len(m.links))
	for id := range m.links {
		ids = append(ids, id)
	}
	m.linksMu.RUnlock()

	for _, id := range ids {
		m.Send(id, msg)
	}
}

// InboundHandlers demultiplexes client connections accepted on a server's
// listen address by the type of their first message. Every client
// operation is a single request/reply round over its own short-lived
// connection, except TaskRequest, which hands the whole connection to
// OnTaskRequest so it can also await the TaskAck before closing.
//
// Peer-to-peer traffic never reaches these handlers: every peer dials this
// server's listener for its own outbound link, and the messages it sends
// there go to the Manager's dispatch callback instead.
type InboundHandlers struct {
	OnLeaderQuery     func() *protocol.Message
	OnAssignRequest   func(msg *protocol.AssignRequestMsg, reply func(*protocol.Message) error)
	OnTaskStatusQuery func(msg *protocol.TaskStatusQueryMsg, reply func(*protocol.Message) error)
	OnTaskRequest     func(conn *protocol.Conn, msg *protocol.TaskRequestMsg)
}

// Serve accepts inbound connections on ln until it is closed, handing each
// one to handlers based on its first message's type.
func (m *Manager) Serve(ln net.Listener, handlers InboundHandlers) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			m.log.Warn().Err(err).Msg("peerlink: accept failed")
			return
		}
		go m.handleInbound(conn, handlers)
	}
}

// handleInbound reads and dispatches messages off one inbound connection.
// A LeaderQuery is answered inline and the connection is kept open for
// further messages, since a client may poll for the leader repeatedly over
// one connection. Peer messages (election, heartbeat and history traffic)
// are handed to the dispatch callback and the connection likewise stays
// open, since a peer's outbound link carries a continuous stream. Every
// other message type is a single request/reply round (or, for
// TaskRequest, request/response/ack) after which the connection is closed.
func (m *Manager) handleInbound(raw net.Conn, handlers InboundHandlers) {
	defer raw.Close()
	fc := protocol.NewConn(raw)

	for {
		msg, err := fc.ReadMessage()
		if err != nil {
			return
		}

		switch msg.Type {
		case protocol.TypeLeaderQuery:
			if handlers.OnLeaderQuery != nil {
				if err := fc.WriteMessage(handlers.OnLeaderQuery()); err != nil {
					return
				}
			}
			continue
		case protocol.TypeAssignRequest:
			if handlers.OnAssignRequest != nil && msg.AssignRequest != nil {
				handlers.OnAssignRequest(msg.AssignRequest, fc.WriteMessage)
			}
		case protocol.TypeTaskStatusQuery:
			if handlers.OnTaskStatusQuery != nil && msg.TaskStatusQuery != nil {
				handlers.OnTaskStatusQuery(msg.TaskStatusQuery, fc.WriteMessage)
			}
		case protocol.TypeTaskRequest:
			if handlers.OnTaskRequest != nil && msg.TaskRequest != nil {
				handlers.OnTaskRequest(fc, msg.TaskRequest)
			}
		case protocol.TypeElection, protocol.TypeAlive, protocol.TypeCoordinator,
			protocol.TypeHeartbeat, protocol.TypeHistoryAdd, protocol.TypeHistoryRemove:
			if m.dispatch == nil {
				m.log.Warn().Str("type", string(msg.Type)).Msg("peerlink: no dispatch installed for peer message")
				return
			}
			m.dispatch(0, msg, fc.WriteMessage)
			continue
		default:
			m.log.Warn().Str("type", string(msg.Type)).Msg("peerlink: unexpected inbound message type")
		}
		return
	}
}
