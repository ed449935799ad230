package handlers

import (
	"encoding/json"
	"net/http"

	"chat-service/internal/auth"
	"chat-service/internal/search"
	"chat-service/pkg/logger"
)

type SearchHandlers struct {
	authService  *auth.Service
	searchClient *search.Client
}

func NewSearchHandlers(authService *auth.Service, searchClient *search.Client) *SearchHandlers {
	return &SearchHandlers{
		authService:  authService,
		searchClient: searchClient,
	}
}

// SearchMessages proxies GET /search?room=&q= to the search collaborator.
func (h *SearchHandlers) SearchMessages(w http.ResponseWriter, r *http.Request) {
	if requireUser(w, r, h.authService) == "" {
		return
	}

	if h.searchClient == nil {
		http.Error(w, "search is not configured", http.StatusServiceUnavailable)
		return
	}

	room := r.URL.Query().Get("room")
	q := r.URL.Query().Get("q")
	if room == "" || q == "" {
		http.Error(w, "room and q parameters are required", http.StatusBadRequest)
		return
	}

	docs, err := h.searchClient.Search(r.Context(), room, q)
	if err != nil {
		logger.Error("Search error for room %s: %v", room, err)
		http.Error(w, "search failed", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(docs)
}
