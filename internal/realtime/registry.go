package realtime

import (
	"sort"
	"sync"
)

// Conn is the handle the registry keeps for a reachable participant.
type Conn interface {
	// Send queues a frame and reports whether it was accepted.
	Send(f Frame) bool
	IsOpen() bool
}

// Registry maps participant ids to their current connection. A participant
// holds at most one entry; registering again replaces it.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Conn
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]Conn)}
}

// Register stores conn for id and returns the connection it replaced, if any.
// The replaced connection is left open.
func (r *Registry) Register(id string, conn Conn) Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.conns[id]
	r.conns[id] = conn
	return prev
}

// Unregister removes id. Removing an absent id is a no-op.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, id)
}

// UnregisterConn removes id only while it still maps to conn, so closing a
// replaced connection leaves the newer one registered.
func (r *Registry) UnregisterConn(id string, conn Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.conns[id]; ok && current == conn {
		delete(r.conns, id)
		return true
	}
	return false
}

func (r *Registry) Lookup(id string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[id]
	return conn, ok
}

// Online lists the registered participant ids in sorted order.
func (r *Registry) Online() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// IsOnline reports whether id has an open registered connection.
func (r *Registry) IsOnline(id string) bool {
	conn, ok := r.Lookup(id)
	return ok && conn.IsOpen()
}

// Notify pushes a notification frame to id if it is connected.
func (r *Registry) Notify(id string, data interface{}) bool {
	conn, ok := r.Lookup(id)
	if !ok || !conn.IsOpen() {
		return false
	}
	return conn.Send(DataFrame(FrameNotification, data))
}
