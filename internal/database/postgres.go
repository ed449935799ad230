package database

import (
	"context"
	"errors"
	"fmt"

	"chat-service/internal/models"
	"chat-service/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

type PostgresDB struct {
	pool *pgxpool.Pool
}

func NewPostgresDB(databaseURL string) (*PostgresDB, error) {
	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &PostgresDB{pool: pool}
	if err := db.initSchema(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("Connected to database successfully")
	return db, nil
}

func (db *PostgresDB) initSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			hashed_password TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS rooms (
			id SERIAL PRIMARY KEY,
			name TEXT UNIQUE NOT NULL
		);
		CREATE TABLE IF NOT EXISTS messages (
			id BIGSERIAL PRIMARY KEY,
			room TEXT NOT NULL,
			username TEXT NOT NULL,
			content TEXT NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_messages_room ON messages (room);`

	_, err := db.pool.Exec(ctx, schema)
	return err
}

func (db *PostgresDB) Close() error {
	db.pool.Close()
	return nil
}

// User Repository Implementation
func (db *PostgresDB) CreateUser(ctx context.Context, username, hashedPassword string) (*models.User, error) {
	query := `
		INSERT INTO users (username, hashed_password)
		VALUES ($1, $2)
		RETURNING id`

	user := &models.User{Username: username, HashedPassword: hashedPassword}
	err := db.pool.QueryRow(ctx, query, username, hashedPassword).Scan(&user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

func (db *PostgresDB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT id, username, hashed_password FROM users WHERE username = $1`

	user := &models.User{}
	err := db.pool.QueryRow(ctx, query, username).Scan(
		&user.ID, &user.Username, &user.HashedPassword,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

// Room Repository Implementation
func (db *PostgresDB) CreateRoom(ctx context.Context, name string) (*models.Room, error) {
	query := `INSERT INTO rooms (name) VALUES ($1) RETURNING id, name`

	room := &models.Room{}
	err := db.pool.QueryRow(ctx, query, name).Scan(&room.ID, &room.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	return room, nil
}

func (db *PostgresDB) GetRoomByName(ctx context.Context, name string) (*models.Room, error) {
	query := `SELECT id, name FROM rooms WHERE name = $1`

	room := &models.Room{}
	err := db.pool.QueryRow(ctx, query, name).Scan(&room.ID, &room.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return room, nil
}

func (db *PostgresDB) ListRooms(ctx context.Context) ([]*models.Room, error) {
	query := `SELECT id, name FROM rooms ORDER BY name`

	rows, err := db.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []*models.Room
	for rows.Next() {
		room := &models.Room{}
		if err := rows.Scan(&room.ID, &room.Name); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}

	return rooms, rows.Err()
}

// Message Repository Implementation
func (db *PostgresDB) SaveMessage(ctx context.Context, room, username, content string) (*models.Message, error) {
	query := `
		INSERT INTO messages (room, username, content)
		VALUES ($1, $2, $3)
		RETURNING id, timestamp`

	msg := &models.Message{Room: room, Username: username, Content: content}
	err := db.pool.QueryRow(ctx, query, room, username, content).Scan(&msg.ID, &msg.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	return msg, nil
}

func (db *PostgresDB) ListMessages(ctx context.Context, room string, skip, limit int) ([]*models.Message, error) {
	query := `
		SELECT id, room, username, content, timestamp
		FROM messages
		WHERE room = $1
		ORDER BY id
		OFFSET $2 LIMIT $3`

	rows, err := db.pool.Query(ctx, query, room, skip, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		msg := &models.Message{}
		if err := rows.Scan(&msg.ID, &msg.Room, &msg.Username, &msg.Content, &msg.Timestamp); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}
