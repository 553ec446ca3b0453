package game

import "sync"

// Registry tracks live sessions and the connection-to-session index used to
// route inbound events.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	byConn   map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		byConn:   make(map[string]*Session),
	}
}

// Add registers a session and indexes its participants' connections.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[s.ID()] = s
	for _, p := range s.Participants() {
		r.byConn[p.Conn.ID()] = s
	}
}

// LookupByConn resolves the session a connection belongs to.
func (r *Registry) LookupByConn(connID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byConn[connID]
	return s, ok
}

// Destroy removes a session and its connection index entries. Destroying a
// session twice, or one that was never added, is a no-op.
func (r *Registry) Destroy(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	delete(r.sessions, sessionID)
	for _, p := range s.Participants() {
		delete(r.byConn, p.Conn.ID())
	}
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
