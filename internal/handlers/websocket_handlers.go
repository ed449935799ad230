package handlers

import (
	"net/http"

	"chat-service/internal/chat"
	"chat-service/pkg/logger"

	"github.com/gorilla/websocket"
)

type WebSocketHandlers struct {
	manager    *chat.Manager
	authorizer chat.RoomAuthorizer
	upgrader   websocket.Upgrader
}

func NewWebSocketHandlers(manager *chat.Manager, authorizer chat.RoomAuthorizer) *WebSocketHandlers {
	return &WebSocketHandlers{
		manager:    manager,
		authorizer: authorizer,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // Configure for production
		},
	}
}

// HandleWebSocket is the realtime connect handshake: credential and an
// optional initial room arrive as query parameters. An invalid credential
// refuses the connection before any session or membership state exists.
func (h *WebSocketHandlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	room := r.URL.Query().Get("room")

	session, err := h.manager.Open(r.Context(), token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	// Room access is an external policy decision, made here at the
	// transport boundary before the core's join runs.
	if room != "" {
		allowed, err := h.authorizer.CanJoin(r.Context(), session.Username, room)
		if err != nil {
			h.manager.Registry().Close(session)
			http.Error(w, "error checking room access", http.StatusInternalServerError)
			return
		}
		if !allowed {
			h.manager.Registry().Close(session)
			http.Error(w, "not allowed in this room", http.StatusForbidden)
			return
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Upgrade error: %v", err)
		h.manager.Registry().Close(session)
		return
	}

	client := chat.NewClient(h.manager, conn, session, h.authorizer)
	if room != "" {
		if err := h.manager.Join(client, room); err != nil {
			logger.Error("Error joining room %s: %v", room, err)
		}
	}

	go client.WritePump()
	go client.ReadPump()
}
