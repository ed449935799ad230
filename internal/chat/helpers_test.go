package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"chat-service/internal/models"

	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	users map[string]string
}

func (f *fakeResolver) ResolveToken(ctx context.Context, token string) (string, error) {
	if username, ok := f.users[token]; ok {
		return username, nil
	}
	return "", errors.New("bad token")
}

type fakeStore struct {
	mu       sync.Mutex
	nextID   int64
	saved    []*models.Message
	attempts int
	failNext bool
}

func (s *fakeStore) SaveMessage(ctx context.Context, room, username, content string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempts++
	if s.failNext {
		s.failNext = false
		return nil, errors.New("store down")
	}

	s.nextID++
	msg := &models.Message{
		ID:        s.nextID,
		Room:      room,
		Username:  username,
		Content:   content,
		Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	s.saved = append(s.saved, msg)
	return msg, nil
}

func (s *fakeStore) setFailNext() {
	s.mu.Lock()
	s.failNext = true
	s.mu.Unlock()
}

func (s *fakeStore) savedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

func (s *fakeStore) attemptCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

type fakeIndexer struct {
	mu      sync.Mutex
	entries []*models.Message
}

func (f *fakeIndexer) Enqueue(room string, msg *models.Message) {
	f.mu.Lock()
	f.entries = append(f.entries, msg)
	f.mu.Unlock()
}

func (f *fakeIndexer) indexed() []*models.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*models.Message(nil), f.entries...)
}

var testTokens = map[string]string{
	"bob-token":      "bob",
	"carol-token":    "carol",
	"alice-token":    "alice",
	"laggard-token":  "laggard",
	"observer-token": "observer",
}

func newTestManager(t *testing.T) (*Manager, *fakeStore, *fakeIndexer) {
	t.Helper()

	store := &fakeStore{}
	index := &fakeIndexer{}
	m := NewManager(&fakeResolver{users: testTokens}, store, index)
	t.Cleanup(m.Shutdown)
	return m, store, index
}

// connect opens a session for token and wraps it in a client without a real
// websocket connection, so tests read broadcasts straight off the send queue.
func connect(t *testing.T, m *Manager, token string) *Client {
	t.Helper()

	session, err := m.Open(context.Background(), token)
	require.NoError(t, err)
	return NewClient(m, nil, session, AllowAllAuthorizer{})
}

// recvEvent pops the next outbound frame for the client, failing the test
// if none arrives in time.
func recvEvent(t *testing.T, c *Client) models.Event {
	t.Helper()

	select {
	case frame := <-c.send:
		var ev models.Event
		require.NoError(t, json.Unmarshal(frame, &ev))
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for event for %s", c.session.Username)
		return models.Event{}
	}
}

// presence asserts the event is a room_users snapshot and returns its set.
func presence(t *testing.T, ev models.Event) []string {
	t.Helper()

	require.Equal(t, models.EventRoomUsers, ev.Event)
	var usernames []string
	require.NoError(t, json.Unmarshal(ev.Data, &usernames))
	return usernames
}

// message asserts the event is a receive_message broadcast and returns it.
func message(t *testing.T, ev models.Event) models.ReceiveMessagePayload {
	t.Helper()

	require.Equal(t, models.EventReceiveMessage, ev.Event)
	var payload models.ReceiveMessagePayload
	require.NoError(t, json.Unmarshal(ev.Data, &payload))
	return payload
}

// sendEvent builds an inbound envelope the way a websocket client would.
func sendEvent(t *testing.T, name string, payload interface{}) models.Event {
	t.Helper()

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return models.Event{Event: name, Data: data}
}

// noEvent asserts that no frame arrives for the client within the window.
func noEvent(t *testing.T, c *Client, window time.Duration) {
	t.Helper()

	select {
	case frame := <-c.send:
		t.Fatalf("unexpected frame for %s: %s", c.session.Username, frame)
	case <-time.After(window):
	}
}
