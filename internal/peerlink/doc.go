// Package peerlink maintains one outbound connection per configured peer
// (with retry) and accepts inbound connections from peers and clients.
//
// For each configured peer, a supervisor goroutine dials, and on success
// hands the connection to that peer's bounded send queue (drained by a
// per-peer writer goroutine) and runs a read-dispatch loop; on any read
// or write error it tears the link down and retries after a
// bounded backoff, forever. Retry uses github.com/cenkalti/backoff/v4
// configured as a constant 2s backoff: a bounded, non-growing interval is
// enough here since reliability does not depend on this retry succeeding
// quickly.
//
// Delivery is best-effort: a send-queue overflow drops the oldest pending
// message rather than blocking, because reliability in this system comes
// from the higher-level protocols repeating themselves (heartbeats repeat,
// elections restart on timeout, history entries are purged on peer loss),
// not from this transport layer retransmitting.
package peerlink
