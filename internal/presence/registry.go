// Package presence tracks which live connections are subscribed to which
// threads. State is process-local and dies with the process; clients are
// expected to rejoin after a restart.
package presence

import "sync"

// Registry is a concurrent thread-to-connections index with a reverse index
// so a dropped connection purges all of its memberships in one call.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[int64]map[string]struct{}
	joined map[string]map[int64]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms:  map[int64]map[string]struct{}{},
		joined: map[string]map[int64]struct{}{},
	}
}

// Join subscribes a connection to a thread. Joining twice is a no-op.
func (r *Registry) Join(connID string, threadID int64) {
	if connID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rooms[threadID] == nil {
		r.rooms[threadID] = map[string]struct{}{}
	}
	r.rooms[threadID][connID] = struct{}{}
	if r.joined[connID] == nil {
		r.joined[connID] = map[int64]struct{}{}
	}
	r.joined[connID][threadID] = struct{}{}
}

// Leave removes one membership. Leaving a thread never joined is a no-op.
func (r *Registry) Leave(connID string, threadID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(connID, threadID)
}

// Drop removes every membership held by the connection.
func (r *Registry) Drop(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for threadID := range r.joined[connID] {
		r.leaveLocked(connID, threadID)
	}
}

func (r *Registry) leaveLocked(connID string, threadID int64) {
	if members, ok := r.rooms[threadID]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.rooms, threadID)
		}
	}
	if threads, ok := r.joined[connID]; ok {
		delete(threads, threadID)
		if len(threads) == 0 {
			delete(r.joined, connID)
		}
	}
}

// MembersOf returns the ids of every connection subscribed to the thread.
func (r *Registry) MembersOf(threadID int64) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members := make([]string, 0, len(r.rooms[threadID]))
	for connID := range r.rooms[threadID] {
		members = append(members, connID)
	}
	return members
}

// ThreadsOf returns the ids of every thread the connection is joined to.
func (r *Registry) ThreadsOf(connID string) []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	threads := make([]int64, 0, len(r.joined[connID]))
	for threadID := range r.joined[connID] {
		threads = append(threads, threadID)
	}
	return threads
}
