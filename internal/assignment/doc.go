// Package assignment implements the coordinator-side task assignment
// protocol: pick the least-loaded live candidate (self included), record
// the choice in the task history, replicate it to every peer, and answer
// the requesting client.
//
// Only the current leader acts on an AssignRequest; every other server
// silently ignores it, since a client broadcasts its request to every
// known address without knowing in advance who the leader is.
package assignment
