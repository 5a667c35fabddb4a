// Package election implements a modified Bully leader-election state
// machine: leadership is decided by lowest priority score, not by node
// identity, with startup jitter and a 100ms re-election stagger keeping
// live-lock negligible under tied priorities.
//
// The state machine shape is the classic one — it reacts to Election,
// Alive and Coordinator messages and to its own election timeout, and a
// node that hears no Alive before that timeout becomes leader and
// broadcasts Coordinator — but comparisons are driven off priority score
// instead of node ID, and messages are carried as structured
// protocol.Message variants rather than bare strings. Heartbeats and
// failure detection live in internal/heartbeat and internal/failuredetect;
// the engine only receives leader-lost notifications from the latter.
package election
