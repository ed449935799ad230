package chat

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"chat-service/internal/models"
	"chat-service/pkg/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	sendBufferSize = 256
)

// Client pumps frames between one websocket connection and the room hubs.
// The authorizer gates in-band join_room events the same way the handshake
// gates the initial room; the core itself enforces no policy.
type Client struct {
	manager    *Manager
	conn       *websocket.Conn
	send       chan []byte
	session    *Session
	authorizer RoomAuthorizer

	closeOnce sync.Once
}

func NewClient(manager *Manager, conn *websocket.Conn, session *Session, authorizer RoomAuthorizer) *Client {
	return &Client{
		manager:    manager,
		conn:       conn,
		send:       make(chan []byte, sendBufferSize),
		session:    session,
		authorizer: authorizer,
	}
}

// Session returns the session bound to this connection.
func (c *Client) Session() *Session {
	return c.session
}

func (c *Client) closeConn() {
	if c.conn != nil {
		c.conn.Close()
	}
}

// closeSend shuts the outbound queue at most once. A client can sit in two
// hubs' membership maps for the instant of a room switch, so shutdown drains
// from both must not race a double close.
func (c *Client) closeSend() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

func (c *Client) canJoin(room string) bool {
	if c.authorizer == nil {
		return true
	}
	ok, err := c.authorizer.CanJoin(context.Background(), c.session.Username, room)
	if err != nil {
		logger.Error("Error authorizing %s for room %s: %v", c.session.Username, room, err)
		return false
	}
	return ok
}

// ReadPump consumes inbound frames in arrival order and dispatches them.
// It runs until the transport reports a disconnect, then tears the session
// down. Teardown runs on abrupt closes too.
func (c *Client) ReadPump() {
	defer func() {
		c.manager.Disconnect(c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("WebSocket error for %s: %v", c.session.Username, err)
			}
			break
		}

		var ev models.Event
		if err := json.Unmarshal(frame, &ev); err != nil {
			logger.Debug("Dropping malformed frame from %s: %v", c.session.Username, err)
			continue
		}

		switch ev.Event {
		case models.EventJoinRoom:
			var payload models.JoinRoomPayload
			if err := json.Unmarshal(ev.Data, &payload); err != nil || payload.Room == "" {
				continue
			}
			if !c.canJoin(payload.Room) {
				logger.Info("User %s denied access to room %s", c.session.Username, payload.Room)
				continue
			}
			if err := c.manager.Join(c, payload.Room); err != nil {
				logger.Error("Error joining room %s: %v", payload.Room, err)
			}
		case models.EventSendMessage, models.EventTyping, models.EventStopTyping:
			c.manager.Dispatch(c, ev)
		}
	}
}

// WritePump drains the outbound queue to the connection and keeps it alive
// with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				logger.Error("Write error for %s: %v", c.session.Username, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
