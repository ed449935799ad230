package chat

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"chat-service/internal/models"
	"chat-service/pkg/logger"
)

// Manager owns the session registry and the per-room hubs. It is the single
// entry point the transport layer talks to: open a session, join rooms,
// dispatch events, disconnect.
type Manager struct {
	registry *Registry
	resolver CredentialResolver
	store    MessageStore
	index    Indexer

	mu   sync.Mutex
	hubs map[string]*Hub

	done chan struct{}
}

func NewManager(resolver CredentialResolver, store MessageStore, index Indexer) *Manager {
	m := &Manager{
		registry: NewRegistry(),
		resolver: resolver,
		store:    store,
		index:    index,
		hubs:     make(map[string]*Hub),
		done:     make(chan struct{}),
	}
	go m.pruneLoop()
	return m
}

// Registry exposes the session table, mainly for tests and diagnostics.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Open authenticates a credential and registers a session for it. No
// session is created when the credential does not resolve.
func (m *Manager) Open(ctx context.Context, token string) (*Session, error) {
	return m.registry.Open(ctx, m.resolver, token)
}

// Join binds the client's session to room and enters the room's hub. A
// client already in another room leaves it first; rejoining the current
// room re-broadcasts presence without changing membership.
func (m *Manager) Join(c *Client, room string) error {
	if old := m.registry.RoomOf(c.session); old != "" && old != room {
		if h := m.lookupHub(old); h != nil {
			h.remove(c)
		}
	}

	if err := m.registry.Bind(c.session, room); err != nil {
		return err
	}

	// A pruned hub refuses admission; grab a fresh one and retry.
	for {
		if m.hubFor(room).add(c) {
			return nil
		}
	}
}

// Dispatch routes an inbound event to the right room's hub. Message events
// from a session with no bound room are discarded silently. Typing events
// are routed by the room named in their payload.
func (m *Manager) Dispatch(c *Client, ev models.Event) {
	switch ev.Event {
	case models.EventSendMessage:
		room := m.registry.RoomOf(c.session)
		if room == "" {
			return
		}
		if h := m.lookupHub(room); h != nil {
			h.dispatch(inboundEvent{sender: c, name: ev.Event, data: ev.Data})
		}

	case models.EventTyping, models.EventStopTyping:
		var payload models.TypingPayload
		if err := json.Unmarshal(ev.Data, &payload); err != nil || payload.Room == "" {
			return
		}
		if h := m.lookupHub(payload.Room); h != nil {
			h.dispatch(inboundEvent{sender: c, name: ev.Event, data: ev.Data})
		}
	}
}

// Disconnect removes the client from its room (if any) and closes its
// session. Safe to call more than once.
func (m *Manager) Disconnect(c *Client) {
	if room := m.registry.RoomOf(c.session); room != "" {
		if h := m.lookupHub(room); h != nil {
			h.remove(c)
		}
	}
	m.registry.Close(c.session)
}

// Shutdown stops the prune loop and force-closes every hub.
func (m *Manager) Shutdown() {
	close(m.done)

	m.mu.Lock()
	defer m.mu.Unlock()
	for room, h := range m.hubs {
		h.forceClose()
		delete(m.hubs, room)
	}
}

func (m *Manager) hubFor(room string) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.hubs[room]
	if !ok {
		h = newHub(room, m.store, m.index)
		m.hubs[room] = h
		go h.run()
	}
	return h
}

func (m *Manager) lookupHub(room string) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.hubs[room]
}

// pruneLoop garbage-collects hubs for rooms with no remaining clients.
// Empty rooms carry no further obligations.
func (m *Manager) pruneLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.mu.Lock()
			for room, h := range m.hubs {
				if h.tryClose() {
					delete(m.hubs, room)
					logger.Debug("Pruned empty room %s", room)
				}
			}
			m.mu.Unlock()
		}
	}
}
