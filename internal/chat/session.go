package chat

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Session binds one live connection to an authenticated username and, once
// joined, to a room. A username may own several concurrent sessions
// (multi-device); each connection owns exactly one session.
type Session struct {
	ID       string
	Username string

	// room is guarded by the registry; read it through Registry.RoomOf.
	room string
}

// Registry owns the session table. Sessions are created on successful
// authentication and removed exactly once on disconnect.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// Open resolves the credential and registers a new session for it. An
// unresolvable token yields ErrInvalidCredential and no registration.
func (r *Registry) Open(ctx context.Context, resolver CredentialResolver, token string) (*Session, error) {
	if token == "" {
		return nil, ErrInvalidCredential
	}
	username, err := resolver.ResolveToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	session := &Session{
		ID:       uuid.NewString(),
		Username: username,
	}

	r.mu.Lock()
	r.sessions[session.ID] = session
	r.mu.Unlock()

	return session, nil
}

// Bind associates the session with a room, replacing any previous binding.
func (r *Registry) Bind(session *Session, room string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[session.ID]; !ok {
		return ErrSessionClosed
	}
	session.room = room
	return nil
}

// RoomOf returns the session's current room, or "" if it never joined one
// or has been closed.
func (r *Registry) RoomOf(session *Session) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.sessions[session.ID]; !ok {
		return ""
	}
	return session.room
}

// Get looks up a session by its connection handle.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	return session, ok
}

// Close removes the session. Closing twice is a no-op.
func (r *Registry) Close(session *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, session.ID)
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}
