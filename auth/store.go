package auth

import "sync"

// Store holds the process-wide sessions, one per service. Nothing is
// persisted; exiting the process drops all token material.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Establish replaces any existing session for service with a fresh,
// disconnected one for resourceURL and returns it.
func (st *Store) Establish(service, resourceURL string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	session := &Session{
		ResourceURL: resourceURL,
		Resource:    ResourceFromURL(resourceURL),
	}
	st.sessions[service] = session
	return session
}

// Get returns the session for service, if one exists.
func (st *Store) Get(service string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	session, ok := st.sessions[service]
	return session, ok
}

// Clear disconnects service, discarding its token material immediately.
// Clearing a service without a session is a no-op.
func (st *Store) Clear(service string) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if session, ok := st.sessions[service]; ok {
		session.Connected = false
		session.Token = nil
	}
	delete(st.sessions, service)
}
