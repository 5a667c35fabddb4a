// Package failuredetect implements a heartbeat-based failure detector:
// every monitor interval, scan per-peer last-seen timestamps and declare a
// peer failed once it has missed failure_timeout_secs worth of heartbeats
// (suggested three, at the suggested 1s/3s defaults).
//
// Declaring a peer failed purges it from the live-load and last-seen
// tables, tells the history replica to purge entries pointing at it, and —
// if the lost peer was believed to be leader — clears LeaderState and
// tells the election engine to start a new election. A later heartbeat
// from the same peer silently re-populates its entry; no handshake is
// required to rejoin.
//
// The detector is a ticker loop scanning a node table and invoking a
// callback on threshold breach, using passive expiry of heartbeat
// timestamps the peer link manager already updates rather than an active
// health probe.
package failuredetect
