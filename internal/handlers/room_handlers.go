package handlers

import (
	"encoding/json"
	"net/http"

	"chat-service/internal/auth"
	"chat-service/internal/database"
	"chat-service/internal/models"
	"chat-service/pkg/logger"
)

type RoomHandlers struct {
	authService *auth.Service
	users       database.UserRepository
	rooms       database.RoomRepository
}

func NewRoomHandlers(authService *auth.Service, users database.UserRepository, rooms database.RoomRepository) *RoomHandlers {
	return &RoomHandlers{
		authService: authService,
		users:       users,
		rooms:       rooms,
	}
}

func (h *RoomHandlers) CreateRoom(w http.ResponseWriter, r *http.Request) {
	if requireUser(w, r, h.authService) == "" {
		return
	}

	var req models.CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "room name is required", http.StatusBadRequest)
		return
	}

	room, err := h.rooms.CreateRoom(r.Context(), req.Name)
	if err != nil {
		logger.Error("Error creating room %s: %v", req.Name, err)
		http.Error(w, "room already exists", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(room)
}

// ListRooms returns the rooms visible to the caller. Private 1:1 rooms are
// listed only for their two participants; group room visibility is left to
// the external membership collaborator, so all group rooms are returned.
func (h *RoomHandlers) ListRooms(w http.ResponseWriter, r *http.Request) {
	username := requireUser(w, r, h.authService)
	if username == "" {
		return
	}

	user, err := h.users.GetUserByUsername(r.Context(), username)
	if err != nil {
		http.Error(w, "user not found", http.StatusUnauthorized)
		return
	}

	rooms, err := h.rooms.ListRooms(r.Context())
	if err != nil {
		logger.Error("Error listing rooms: %v", err)
		http.Error(w, "error listing rooms", http.StatusInternalServerError)
		return
	}

	visible := make([]*models.Room, 0, len(rooms))
	for _, room := range rooms {
		if models.IsPrivateRoom(room.Name) {
			a, b, ok := models.PrivateRoomParticipants(room.Name)
			if ok && (user.ID == a || user.ID == b) {
				visible = append(visible, room)
			}
			continue
		}
		visible = append(visible, room)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(visible)
}
