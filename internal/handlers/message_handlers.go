package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"chat-service/internal/auth"
	"chat-service/internal/database"
	"chat-service/pkg/logger"
)

const defaultMessageLimit = 100

type MessageHandlers struct {
	authService *auth.Service
	messages    database.MessageRepository
}

func NewMessageHandlers(authService *auth.Service, messages database.MessageRepository) *MessageHandlers {
	return &MessageHandlers{
		authService: authService,
		messages:    messages,
	}
}

// ListMessages is the read path of the message store: GET /messages?room=&skip=&limit=.
func (h *MessageHandlers) ListMessages(w http.ResponseWriter, r *http.Request) {
	if requireUser(w, r, h.authService) == "" {
		return
	}

	room := r.URL.Query().Get("room")
	if room == "" {
		http.Error(w, "room parameter is required", http.StatusBadRequest)
		return
	}
	skip := queryInt(r, "skip", 0)
	limit := queryInt(r, "limit", defaultMessageLimit)

	messages, err := h.messages.ListMessages(r.Context(), room, skip, limit)
	if err != nil {
		logger.Error("Error listing messages for room %s: %v", room, err)
		http.Error(w, "error listing messages", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(messages)
}

func queryInt(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return defaultValue
	}
	return n
}
