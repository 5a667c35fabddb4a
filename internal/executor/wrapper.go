package executor

import (
	"time"

	"github.com/dreamware/taskmesh/internal/history"
	"github.com/dreamware/taskmesh/internal/peerlink"
	"github.com/dreamware/taskmesh/internal/protocol"
	"github.com/dreamware/taskmesh/internal/server"
	"github.com/dreamware/taskmesh/internal/transform"
	"github.com/rs/zerolog"
)

// defaultAckTimeout bounds how long Run waits for a TaskAck before giving
// up on retiring the history entry via acknowledgement; a later failure
// detection / client retry still cleans it up.
const defaultAckTimeout = 10 * time.Second

// Wrapper executes task requests using a transform.Func, tracking the
// active-task counter for the whole lifetime of one call.
type Wrapper struct {
	shared    *server.Shared
	link      *peerlink.Manager
	transform transform.Func
	log       zerolog.Logger

	ackTimeout time.Duration
}

// New constructs a Wrapper around the given transform implementation.
func New(shared *server.Shared, link *peerlink.Manager, fn transform.Func, log zerolog.Logger) *Wrapper {
	return &Wrapper{shared: shared, link: link, transform: fn, log: log, ackTimeout: defaultAckTimeout}
}

// Run executes one task request: transforms the payload, writes the
// response on conn, then waits up to the ack timeout for a matching
// TaskAck so the history entry can be retired. The active-task counter is
// held for the whole call and decremented unconditionally on every exit
// path.
func (w *Wrapper) Run(conn *protocol.Conn, req *protocol.TaskRequestMsg) {
	w.shared.Sensor.IncrementActiveTasks()
	defer w.shared.Sensor.DecrementActiveTasks()

	resp := w.transformPayload(req)

	if err := conn.WriteMessage(&protocol.Message{Type: protocol.TypeTaskResponse, TaskResponse: resp}); err != nil {
		w.log.Warn().Err(err).Uint64("request_id", req.RequestID).Msg("executor: writing task response failed")
		return
	}

	w.awaitAck(conn, req)
}

func (w *Wrapper) transformPayload(req *protocol.TaskRequestMsg) *protocol.TaskResponseMsg {
	result, err := w.transform(req.PayloadBytes, req.ParameterText)
	if err != nil {
		w.log.Warn().Err(err).Uint64("request_id", req.RequestID).Msg("executor: transform failed")
		return &protocol.TaskResponseMsg{RequestID: req.RequestID, OK: false, ErrorMessage: err.Error()}
	}
	return &protocol.TaskResponseMsg{RequestID: req.RequestID, OK: true, ResultBytes: result}
}

// awaitAck reads the next frame off conn, expecting a TaskAck for this
// request within the ack timeout. On receipt it removes the local history
// entry and broadcasts HistoryRemove so every replica retires the
// assignment together. A missing or
// mismatched ack is logged and left for the client's own retry / the
// failure detector to eventually clean up.
func (w *Wrapper) awaitAck(conn *protocol.Conn, req *protocol.TaskRequestMsg) {
	_ = conn.Raw().SetReadDeadline(time.Now().Add(w.ackTimeout))
	defer conn.Raw().SetReadDeadline(time.Time{})

	msg, err := conn.ReadMessage()
	if err != nil {
		w.log.Debug().Err(err).Uint64("request_id", req.RequestID).Msg("executor: no ack received in time")
		return
	}
	if msg.Type != protocol.TypeTaskAck || msg.TaskAck == nil || msg.TaskAck.RequestID != req.RequestID {
		w.log.Debug().Uint64("request_id", req.RequestID).Msg("executor: unexpected message while awaiting ack")
		return
	}

	w.shared.History.Remove(history.Key{ClientID: msg.TaskAck.ClientID, RequestID: req.RequestID})
	w.link.Broadcast(&protocol.Message{
		Type:          protocol.TypeHistoryRemove,
		HistoryRemove: &protocol.HistoryRemoveMsg{ClientID: msg.TaskAck.ClientID, RequestID: req.RequestID},
	})
}
