package sockbridge

import "sync"

// registry is the process-wide table of live sessions owned by one Handler.
// It is always passed in explicitly, never reached through package state.
type registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func newRegistry() *registry {
	return &registry{sessions: make(map[string]*Session)}
}

// getOrCreate atomically looks up id, constructing the session through
// create on first use. Two racing requests for the same id always observe
// the same *Session.
func (r *registry) getOrCreate(id string, create func() *Session) (sess *Session, isNew bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sess, ok := r.sessions[id]; ok {
		return sess, false
	}
	sess = create()
	r.sessions[id] = sess
	return sess, true
}

func (r *registry) get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (r *registry) remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// snapshot returns the current sessions with their ids. The reaper iterates
// over the copy so per-session work happens outside the registry lock.
func (r *registry) snapshot() map[string]*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]*Session, len(r.sessions))
	for id, sess := range r.sessions {
		out[id] = sess
	}
	return out
}
