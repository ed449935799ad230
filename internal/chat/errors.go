package chat

import "errors"

var (
	// ErrInvalidCredential means the handshake token did not resolve to a
	// user. The connection must be refused with no session created.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrSessionClosed means an operation referenced a session that was
	// already removed from the registry.
	ErrSessionClosed = errors.New("session closed")
)
