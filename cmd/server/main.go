package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"chat-service/internal/auth"
	"chat-service/internal/chat"
	"chat-service/internal/config"
	"chat-service/internal/database"
	"chat-service/internal/handlers"
	"chat-service/internal/search"
	"chat-service/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database. An unreachable store aborts startup.
	db, err := database.NewPostgresDB(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize services
	authService := auth.NewService(db, cfg)

	// Search indexing is optional; without SEARCH_URL messages are simply
	// not indexed.
	var searchClient *search.Client
	var indexer *search.Indexer
	var indexPort chat.Indexer
	if cfg.Search.URL != "" {
		searchClient = search.NewClient(cfg.Search.URL)
		indexer = search.NewIndexer(searchClient, cfg.Search.QueueSize)
		indexPort = indexer
		logger.Info("Search indexing enabled via %s", cfg.Search.URL)
	} else {
		logger.Info("SEARCH_URL not set, search indexing disabled")
	}

	// Initialize the realtime core
	manager := chat.NewManager(authService, db, indexPort)

	// Initialize handlers
	authHandlers := handlers.NewAuthHandlers(authService)
	messageHandlers := handlers.NewMessageHandlers(authService, db)
	roomHandlers := handlers.NewRoomHandlers(authService, db, db)
	searchHandlers := handlers.NewSearchHandlers(authService, searchClient)
	wsHandlers := handlers.NewWebSocketHandlers(manager, chat.AllowAllAuthorizer{})

	// Setup routes
	mux := http.NewServeMux()
	setupRoutes(mux, authHandlers, messageHandlers, roomHandlers, searchHandlers, wsHandlers)

	// Create server
	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      corsMiddleware(mux),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	logger.Info("Server started on http://localhost%s", cfg.Server.Port)
	logger.Info("WebSocket endpoint: ws://localhost%s/ws", cfg.Server.Port)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Server shutting down...")

	manager.Shutdown()
	if indexer != nil {
		indexer.Stop()
	}
	server.Close()
}

func setupRoutes(
	mux *http.ServeMux,
	authHandlers *handlers.AuthHandlers,
	messageHandlers *handlers.MessageHandlers,
	roomHandlers *handlers.RoomHandlers,
	searchHandlers *handlers.SearchHandlers,
	wsHandlers *handlers.WebSocketHandlers,
) {
	// Auth routes
	mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		authHandlers.Register(w, r)
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		authHandlers.Login(w, r)
	})

	// Message history
	mux.HandleFunc("/messages", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		messageHandlers.ListMessages(w, r)
	})

	// Room routes
	mux.HandleFunc("/rooms", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			roomHandlers.ListRooms(w, r)
		case http.MethodPost:
			roomHandlers.CreateRoom(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Search proxy
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		searchHandlers.SearchMessages(w, r)
	})

	// WebSocket route
	mux.HandleFunc("/ws", wsHandlers.HandleWebSocket)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
