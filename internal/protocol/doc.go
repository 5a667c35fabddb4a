// Package protocol defines the wire message set exchanged between servers
// and between clients and servers in a taskmesh cluster, along with the
// length-prefixed framing used to carry them over a raw TCP connection.
//
// # Overview
//
// Every connection in taskmesh — server-to-server or client-to-server —
// carries a sequence of framed messages. Each frame is a 4-byte big-endian
// length prefix followed by that many bytes of JSON-encoded payload. The
// payload is always a Message envelope: a Type discriminator plus exactly
// one populated variant field, keeping every message on the wire
// self-describing regardless of which handler ends up reading it.
//
// # Message catalogue
//
//	Election            server -> server           Bully election bid
//	Alive               server -> server           "you win, I defer"
//	Coordinator          server -> server broadcast  leadership announcement
//	Heartbeat            server -> server           liveness + load
//	LeaderQuery          client -> server           "who leads?"
//	LeaderResponse        server -> client           cached leader hint
//	AssignRequest        client -> server broadcast  "assign me a worker"
//	AssignResponse        server -> client           assignment result
//	TaskRequest           client -> server           the actual work
//	TaskResponse          server -> client           the result
//	TaskAck               client -> server           "got it, you can forget it"
//	TaskStatusQuery        client -> server broadcast  "who has my task now?"
//	TaskStatusResponse      server -> client           history lookup result
//	HistoryAdd            server -> server broadcast  replicate an assignment
//	HistoryRemove          server -> server broadcast  replicate a completion
//
// # Framing invariants
//
//   - Length > MaxFrameBytes is a protocol violation: the connection is closed.
//   - A zero-byte read exactly at a length boundary is a clean close, not an error.
//   - Partial reads are transparently accumulated (io.ReadFull semantics).
//   - Messages within one connection are delivered FIFO; messages across
//     different connections have no ordering relationship with each other.
package protocol
