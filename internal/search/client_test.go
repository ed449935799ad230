package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"chat-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMessage() *models.Message {
	return &models.Message{
		ID:        42,
		Room:      "general",
		Username:  "bob",
		Content:   "hi",
		Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestIndexDocumentShape(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/index", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	require.NoError(t, client.Index(context.Background(), "general", testMessage()))

	assert.Equal(t, "general", got["chat_id"])
	msg, ok := got["message"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(42), msg["id"])
	assert.Equal(t, "hi", msg["text"])
	assert.Equal(t, "bob", msg["username"])
	assert.Equal(t, "2024-01-02T03:04:05Z", msg["timestamp"])
}

func TestIndexReportsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	assert.Error(t, client.Index(context.Background(), "general", testMessage()))
}

func TestSearchDecodesDocuments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		require.Equal(t, "general", r.URL.Query().Get("chat_id"))
		require.Equal(t, "hi", r.URL.Query().Get("q"))
		json.NewEncoder(w).Encode([]Document{
			{ChatID: "general", ID: 42, Text: "hi", Username: "bob"},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	docs, err := client.Search(context.Background(), "general", "hi")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, int64(42), docs[0].ID)
	assert.Equal(t, "bob", docs[0].Username)
}

func TestIndexerSwallowsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	idx := NewIndexer(NewClient(srv.URL), 8)
	defer idx.Stop()

	// Failures are logged, never surfaced; a later job still runs.
	idx.Enqueue("general", testMessage())
	idx.Enqueue("general", testMessage())
}

func TestIndexerEnqueueNeverBlocks(t *testing.T) {
	release := make(chan struct{})
	firstCall := make(chan struct{})
	var once sync.Once
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() { close(firstCall) })
		<-release
	}))
	defer srv.Close()
	defer close(release)

	idx := NewIndexer(NewClient(srv.URL), 1)
	defer idx.Stop()

	idx.Enqueue("general", testMessage())
	<-firstCall // worker is now stuck in the slow request

	done := make(chan struct{})
	go func() {
		// Queue capacity is 1: the second fills it, the third must drop
		// immediately instead of blocking the caller.
		idx.Enqueue("general", testMessage())
		idx.Enqueue("general", testMessage())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}
}
