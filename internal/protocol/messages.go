package protocol

// MessageType discriminates the variant carried by a Message envelope.
type MessageType string

const (
	TypeElection            MessageType = "election"
	TypeAlive               MessageType = "alive"
	TypeCoordinator         MessageType = "coordinator"
	TypeHeartbeat           MessageType = "heartbeat"
	TypeLeaderQuery         MessageType = "leader_query"
	TypeLeaderResponse      MessageType = "leader_response"
	TypeAssignRequest       MessageType = "assign_request"
	TypeAssignResponse      MessageType = "assign_response"
	TypeTaskRequest         MessageType = "task_request"
	TypeTaskResponse        MessageType = "task_response"
	TypeTaskAck             MessageType = "task_ack"
	TypeTaskStatusQuery     MessageType = "task_status_query"
	TypeTaskStatusResponse  MessageType = "task_status_response"
	TypeHistoryAdd          MessageType = "history_add"
	TypeHistoryRemove       MessageType = "history_remove"
)

// Message is the tagged-union envelope carried by every frame. Exactly one
// of the variant fields is populated, matching Type.
type Message struct {
	Election           *ElectionMsg           `json:"election,omitempty"`
	Alive              *AliveMsg              `json:"alive,omitempty"`
	Coordinator        *CoordinatorMsg        `json:"coordinator,omitempty"`
	Heartbeat          *HeartbeatMsg          `json:"heartbeat,omitempty"`
	LeaderQuery        *LeaderQueryMsg        `json:"leader_query,omitempty"`
	LeaderResponse     *LeaderResponseMsg     `json:"leader_response,omitempty"`
	AssignRequest      *AssignRequestMsg      `json:"assign_request,omitempty"`
	AssignResponse     *AssignResponseMsg     `json:"assign_response,omitempty"`
	TaskRequest        *TaskRequestMsg        `json:"task_request,omitempty"`
	TaskResponse       *TaskResponseMsg       `json:"task_response,omitempty"`
	TaskAck            *TaskAckMsg            `json:"task_ack,omitempty"`
	TaskStatusQuery    *TaskStatusQueryMsg    `json:"task_status_query,omitempty"`
	TaskStatusResponse *TaskStatusResponseMsg `json:"task_status_response,omitempty"`
	HistoryAdd         *HistoryAddMsg         `json:"history_add,omitempty"`
	HistoryRemove      *HistoryRemoveMsg      `json:"history_remove,omitempty"`
	Type               MessageType            `json:"type"`
}

// ElectionMsg is a Bully election bid carrying the sender's priority score.
type ElectionMsg struct {
	FromID   uint32  `json:"from_id"`
	Priority float64 `json:"priority"`
}

// AliveMsg tells the election bid's sender "I am strictly better, defer to me."
type AliveMsg struct {
	FromID uint32 `json:"from_id"`
}

// CoordinatorMsg announces a new leader cluster-wide.
type CoordinatorMsg struct {
	LeaderID uint32 `json:"leader_id"`
}

// HeartbeatMsg carries liveness and current load. Timestamp is for
// observability only: receivers record their own local receive time.
type HeartbeatMsg struct {
	FromID    uint32  `json:"from_id"`
	Timestamp uint64  `json:"timestamp"`
	Load      float64 `json:"load"`
}

// LeaderQueryMsg asks a server who it currently believes is leader.
type LeaderQueryMsg struct{}

// LeaderResponseMsg answers a LeaderQueryMsg.
type LeaderResponseMsg struct {
	LeaderID uint32 `json:"leader_id"`
}

// AssignRequestMsg is broadcast by a client to every known server; only the
// current coordinator is expected to answer it.
type AssignRequestMsg struct {
	ClientID  string `json:"client_id"`
	RequestID uint64 `json:"request_id"`
}

// AssignResponseMsg is the coordinator's answer to an AssignRequestMsg.
type AssignResponseMsg struct {
	AssignedServerAddress string `json:"assigned_server_address"`
	RequestID             uint64 `json:"request_id"`
	AssignedServerID      uint32 `json:"assigned_server_id"`
}

// TaskRequestMsg carries the actual work to the assigned server.
type TaskRequestMsg struct {
	ClientID         string `json:"client_id"`
	PayloadName      string `json:"payload_name"`
	ParameterText    string `json:"parameter_text"`
	PayloadBytes     []byte `json:"payload_bytes"`
	RequestID        uint64 `json:"request_id"`
	AssignedByLeader uint32 `json:"assigned_by_leader"`
}

// TaskResponseMsg carries the result of a task back to the client.
type TaskResponseMsg struct {
	ErrorMessage string `json:"error_message,omitempty"`
	ResultBytes  []byte `json:"result_bytes"`
	RequestID    uint64 `json:"request_id"`
	OK           bool   `json:"ok"`
}

// TaskAckMsg confirms receipt of a TaskResponseMsg, allowing the server to
// retire the history entry for this request.
type TaskAckMsg struct {
	ClientID  string `json:"client_id"`
	RequestID uint64 `json:"request_id"`
}

// TaskStatusQueryMsg is broadcast by a client during reassignment polling.
type TaskStatusQueryMsg struct {
	ClientID  string `json:"client_id"`
	RequestID uint64 `json:"request_id"`
}

// TaskStatusResponseMsg answers a TaskStatusQueryMsg from history.
type TaskStatusResponseMsg struct {
	AssignedServerAddress string `json:"assigned_server_address"`
	RequestID             uint64 `json:"request_id"`
	AssignedServerID      uint32 `json:"assigned_server_id"`
}

// HistoryAddMsg replicates a new assignment to every peer.
type HistoryAddMsg struct {
	ClientID         string `json:"client_id"`
	RequestID        uint64 `json:"request_id"`
	AssignedServerID uint32 `json:"assigned_server_id"`
	Timestamp        uint64 `json:"timestamp"`
}

// HistoryRemoveMsg replicates the retirement of a completed assignment.
type HistoryRemoveMsg struct {
	ClientID  string `json:"client_id"`
	RequestID uint64 `json:"request_id"`
}
