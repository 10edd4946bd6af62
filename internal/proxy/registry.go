package proxy

import "sync"

// ConnectionInfo describes one in-flight connection for access logging.
// Peer is the client's endpoint text; it is presentation only, since a
// client may reuse a source port across reconnects.
type ConnectionInfo struct {
	Peer     string
	Domain   string
	Method   string
	Started  string
	BytesIn  uint64
	BytesOut uint64
}

// Registry is the table of in-flight connections. Entries are keyed by a
// monotonic connection ID handed out on Add; every access is one lookup
// under a single mutex.
type Registry struct {
	mu    sync.Mutex
	next  uint64
	conns map[uint64]*ConnectionInfo
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[uint64]*ConnectionInfo)}
}

// Add inserts info and returns its connection ID.
func (r *Registry) Add(info *ConnectionInfo) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	id := r.next
	r.conns[id] = info
	return id
}

// AddBytes credits transferred bytes to the entry, if it still exists.
func (r *Registry) AddBytes(id uint64, in, out uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if info, ok := r.conns[id]; ok {
		info.BytesIn += in
		info.BytesOut += out
	}
}

// Remove deletes the entry and returns a copy of its final state. The
// second return is false when the ID was never registered or was already
// removed, which guarantees at most one access log line per connection.
func (r *Registry) Remove(id uint64) (ConnectionInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.conns[id]
	if !ok {
		return ConnectionInfo{}, false
	}
	delete(r.conns, id)
	return *info, true
}

// Len returns the number of in-flight connections.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}
