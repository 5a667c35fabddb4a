// Package server defines the shared per-node state handle: the election
// engine, failure detector, heartbeat broadcaster, assignment service, and
// task executor all need to read and mutate the same leader state, peer
// tables, and task history, but none of them owns any of the others.
//
// Shared is that handle. It is constructed once in cmd/server/main.go and
// passed by pointer to each of those subsystems' constructors — not as a
// shared mutable collection guarded ad hoc at each call site, but as one
// struct whose fields are each protected by their own reader-writer lock
// discipline. Subsystems that send to peers also receive the
// *peerlink.Manager, which does not itself hold a Shared.
package server
