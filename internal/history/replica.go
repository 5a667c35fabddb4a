package history

import (
	"sync"
	"time"
)

// Key identifies one outstanding (or recently completed) task assignment.
type Key struct {
	ClientID  string
	RequestID uint64
}

// Entry is the value half of a history record: which server was assigned
// the task, and when the assignment was recorded.
type Entry struct {
	AddedAt        time.Time
	AssignedServer uint32
}

// Replica is the per-server, eventually-consistent view of task
// assignments. All three mutating operations are idempotent:
//   - Add overwrites any existing entry for the same key (last-writer-wins).
//   - Remove is a no-op if the key is already absent.
//   - PurgeServer deletes every entry whose value names the given server,
//     and is a no-op if none do.
type Replica struct {
	entries map[Key]Entry
	mu      sync.RWMutex
}

// New returns an empty history replica.
func New() *Replica {
	return &Replica{entries: make(map[Key]Entry)}
}

// Add inserts or overwrites the entry for key. Called both by the
// assignment service (on the coordinator that made the assignment) and by
// every peer applying the resulting HistoryAdd broadcast.
func (r *Replica) Add(key Key, assignedServer uint32, addedAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = Entry{AssignedServer: assignedServer, AddedAt: addedAt}
}

// Remove deletes the entry for key, if present. Idempotent: a duplicate
// HistoryRemove (e.g. from a TaskAck delivered twice) is a no-op the
// second time.
func (r *Replica) Remove(key Key) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, key)
}

// PurgeServer deletes every entry currently assigned to server. Called by
// the failure detector when server is declared failed.
func (r *Replica) PurgeServer(server uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, entry := range r.entries {
		if entry.AssignedServer == server {
			delete(r.entries, key)
		}
	}
}

// Lookup returns the entry for key and whether it was present.
func (r *Replica) Lookup(key Key) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[key]
	return entry, ok
}

// Len returns the number of entries currently tracked. Mainly useful for
// tests and diagnostics.
func (r *Replica) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
