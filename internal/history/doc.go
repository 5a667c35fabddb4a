// Package history implements the replicated task-assignment history: a
// map from (client_id, request_id) to the server currently assigned to
// that request, kept eventually consistent across every live server by
// the broadcast of HistoryAdd/HistoryRemove events.
//
// The replica itself is local-only storage — propagation to peers happens
// one layer up, in internal/peerlink's broadcast path. This package only
// guarantees that local mutations are idempotent and safe under concurrent
// access, which is what makes eventual consistency hold despite messages
// from different connections arriving in no particular relative order.
//
// The shape — an RWMutex-guarded map with a copy-out read API so callers
// can never mutate internal state through a returned pointer — keeps
// reads and writes cheap even as the entry count grows, without exposing
// any internal pointer a caller could mutate behind the lock's back.
package history
