package handlers

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"skillForgeAPI/middleware"
	"skillForgeAPI/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Auth happens via the Clerk middleware, not the Origin header.
		return true
	},
}

type ChatHandler struct {
	relay       *services.ChatRelay
	userService *services.UserService
}

func NewChatHandler(relay *services.ChatRelay, userService *services.UserService) *ChatHandler {
	return &ChatHandler{
		relay:       relay,
		userService: userService,
	}
}

// ServeChat upgrades the connection and hands it to the relay.
func (h *ChatHandler) ServeChat(w http.ResponseWriter, r *http.Request) {
	clerkID, ok := middleware.GetClerkID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	userID, err := h.userService.ResolveUserID(r.Context(), clerkID)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "User not found")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	h.relay.Join(conn, userID.String())
}
