package database

import (
	"context"

	"chat-service/internal/models"
)

type UserRepository interface {
	CreateUser(ctx context.Context, username, hashedPassword string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

type RoomRepository interface {
	CreateRoom(ctx context.Context, name string) (*models.Room, error)
	GetRoomByName(ctx context.Context, name string) (*models.Room, error)
	ListRooms(ctx context.Context) ([]*models.Room, error)
}

type MessageRepository interface {
	SaveMessage(ctx context.Context, room, username, content string) (*models.Message, error)
	ListMessages(ctx context.Context, room string, skip, limit int) ([]*models.Message, error)
}

type Database interface {
	UserRepository
	RoomRepository
	MessageRepository
	Close() error
}
