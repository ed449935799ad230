package chat

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"chat-service/internal/models"
	"chat-service/pkg/logger"
)

const persistTimeout = 5 * time.Second

// inboundEvent is one parsed frame routed to a room's hub.
type inboundEvent struct {
	sender *Client
	name   string
	data   json.RawMessage
}

// Hub serializes all membership mutations and message fan-out for a single
// room on one goroutine. Different rooms never contend with each other.
type Hub struct {
	room  string
	store MessageStore
	index Indexer

	register   chan *Client
	unregister chan *Client
	inbound    chan inboundEvent
	shutdown   chan struct{}

	// Owned by the run goroutine.
	clients map[*Client]struct{}
	// Live session count per username; the presence set is the key set.
	members map[string]int

	// mu guards size and closed, which gate admission against pruning.
	mu     sync.Mutex
	size   int
	closed bool
}

func newHub(room string, store MessageStore, index Indexer) *Hub {
	return &Hub{
		room:       room,
		store:      store,
		index:      index,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inboundEvent),
		shutdown:   make(chan struct{}),
		clients:    make(map[*Client]struct{}),
		members:    make(map[string]int),
	}
}

// add admits a client to the hub. It returns false if the hub was already
// closed, in which case the caller should obtain a fresh hub and retry.
func (h *Hub) add(c *Client) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	h.size++
	h.mu.Unlock()

	h.register <- c
	return true
}

// remove hands the client to the hub for removal. Safe to call for clients
// the hub already dropped, and for hubs that have shut down.
func (h *Hub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.shutdown:
	}
}

// dispatch routes one inbound event into the hub's serialized loop.
func (h *Hub) dispatch(ev inboundEvent) {
	select {
	case h.inbound <- ev:
	case <-h.shutdown:
	}
}

// tryClose shuts the hub down if it has no clients. Returns whether the
// hub was closed by this call.
func (h *Hub) tryClose() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed || h.size > 0 {
		return false
	}
	h.closed = true
	close(h.shutdown)
	return true
}

// forceClose shuts the hub down regardless of remaining clients. Used on
// server shutdown.
func (h *Hub) forceClose() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	close(h.shutdown)
}

func (h *Hub) decSize() {
	h.mu.Lock()
	h.size--
	h.mu.Unlock()
}

func (h *Hub) run() {
	for {
		select {
		case <-h.shutdown:
			for c := range h.clients {
				c.closeSend()
				delete(h.clients, c)
			}
			return

		case c := <-h.register:
			if _, ok := h.clients[c]; ok {
				// Rejoining the same room: membership is unchanged but a
				// presence snapshot still goes out.
				h.decSize()
			} else {
				h.clients[c] = struct{}{}
				h.members[c.session.Username]++
			}
			h.broadcastPresence()
			logger.Debug("User %s joined room %s", c.session.Username, h.room)

		case c := <-h.unregister:
			if _, ok := h.clients[c]; !ok {
				continue
			}
			h.dropClient(c)
			h.broadcastPresence()
			logger.Debug("User %s left room %s", c.session.Username, h.room)

		case ev := <-h.inbound:
			switch ev.name {
			case models.EventSendMessage:
				h.handleMessage(ev)
			case models.EventTyping, models.EventStopTyping:
				h.forward(ev)
			}
		}
	}
}

// dropClient removes a client from the hub's tables. The username leaves
// the presence set only when its last session in this room is gone.
func (h *Hub) dropClient(c *Client) {
	delete(h.clients, c)
	h.decSize()

	username := c.session.Username
	if h.members[username]--; h.members[username] <= 0 {
		delete(h.members, username)
	}
}

// handleMessage runs the persist → broadcast → index pipeline for one send
// event. Persistence failure drops the event: no broadcast, no index entry.
func (h *Hub) handleMessage(ev inboundEvent) {
	var payload models.SendMessagePayload
	if err := json.Unmarshal(ev.data, &payload); err != nil {
		logger.Error("Malformed send_message payload from %s: %v", ev.sender.session.Username, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	msg, err := h.store.SaveMessage(ctx, h.room, ev.sender.session.Username, payload.Text)
	cancel()
	if err != nil {
		logger.Error("Error saving message in room %s: %v", h.room, err)
		return
	}

	frame, err := models.MessageEvent(msg)
	if err != nil {
		logger.Error("Error marshaling message %d: %v", msg.ID, err)
		return
	}
	h.broadcastAll(frame)

	if h.index != nil {
		h.index.Enqueue(h.room, msg)
	}
}

// forward fans a typing / stop_typing payload out verbatim. No state kept.
func (h *Hub) forward(ev inboundEvent) {
	frame, err := json.Marshal(models.Event{Event: ev.name, Data: ev.data})
	if err != nil {
		logger.Error("Error marshaling %s event: %v", ev.name, err)
		return
	}
	h.broadcastAll(frame)
}

// broadcastAll delivers a frame to every client without blocking on any of
// them. A client whose outbound queue is full is dropped from the room.
func (h *Hub) broadcastAll(frame []byte) {
	var dropped []*Client
	for c := range h.clients {
		select {
		case c.send <- frame:
		default:
			dropped = append(dropped, c)
		}
	}

	if len(dropped) == 0 {
		return
	}
	for _, c := range dropped {
		h.dropClient(c)
		// Closing the connection (not the send channel) lets the client's
		// pumps tear the session down through the usual disconnect path.
		c.closeConn()
		logger.Error("Disconnecting slow client %s in room %s", c.session.Username, h.room)
	}
	h.broadcastPresence()
}

func (h *Hub) broadcastPresence() {
	usernames := make([]string, 0, len(h.members))
	for username := range h.members {
		usernames = append(usernames, username)
	}

	frame, err := models.RoomUsersEvent(usernames)
	if err != nil {
		logger.Error("Error marshaling presence update: %v", err)
		return
	}
	h.broadcastAll(frame)
}
