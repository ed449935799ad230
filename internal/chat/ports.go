package chat

import (
	"context"

	"chat-service/internal/models"
)

// MessageStore persists messages and assigns their canonical id and
// timestamp. A nil return error guarantees the returned record is durable.
type MessageStore interface {
	SaveMessage(ctx context.Context, room, username, content string) (*models.Message, error)
}

// Indexer receives persisted messages for search indexing. Implementations
// must not block; failures are theirs to log and swallow.
type Indexer interface {
	Enqueue(room string, msg *models.Message)
}

// CredentialResolver maps a bearer token to a username.
type CredentialResolver interface {
	ResolveToken(ctx context.Context, token string) (string, error)
}

// RoomAuthorizer decides whether a user may join a room. The decision is
// made at the transport boundary; the core itself enforces no policy.
type RoomAuthorizer interface {
	CanJoin(ctx context.Context, username, room string) (bool, error)
}

// AllowAllAuthorizer admits every join request.
type AllowAllAuthorizer struct{}

func (AllowAllAuthorizer) CanJoin(ctx context.Context, username, room string) (bool, error) {
	return true, nil
}
