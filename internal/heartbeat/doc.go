// Package heartbeat runs the periodic liveness broadcast every server sends
// to every configured peer, and applies inbound heartbeats to a server's
// peer tables.
//
// Each tick carries the sender's current load sample, piggybacking the
// information the assignment service needs onto the same message that
// keeps the failure detector's last-seen clock fresh, rather than running
// a second gossip channel for load alone.
package heartbeat
