package ws

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"werewolves/internal/app"
	"werewolves/internal/command"
)

const maxNameLength = 32

// Handler handles WebSocket connections
type Handler struct {
	hub        *app.GameHub
	dispatcher *command.Dispatcher
	upgrader   websocket.Upgrader
	logger     *slog.Logger
}

// NewHandler creates a new WebSocket handler. Cross-origin upgrades are
// accepted only when allowAnyOrigin is set.
func NewHandler(hub *app.GameHub, logger *slog.Logger, allowAnyOrigin bool) *Handler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	if allowAnyOrigin {
		upgrader.CheckOrigin = func(r *http.Request) bool { return true }
	}

	return &Handler{
		hub:        hub,
		dispatcher: command.NewDispatcher(hub, logger),
		upgrader:   upgrader,
		logger:     logger,
	}
}

// ServeHTTP handles WebSocket upgrade requests
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" || len(name) > maxNameLength {
		http.Error(w, "name is required (max 32 characters)", http.StatusBadRequest)
		return
	}

	// Reuse the handle to resume a seat after a reconnect
	handle := r.URL.Query().Get("handle")
	isReconnect := handle != ""
	if isReconnect {
		if _, err := uuid.Parse(handle); err != nil {
			http.Error(w, "invalid handle", http.StatusBadRequest)
			return
		}
	} else {
		handle = uuid.New().String()
	}

	// Upgrade connection to WebSocket
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := NewClient(conn, h.hub, h.dispatcher, handle, name, h.logger)

	if session, ok := h.hub.CurrentGame(handle); ok {
		session.RegisterClient(handle, client)
	}

	h.logger.Info("websocket connected",
		"handle", handle,
		"isReconnect", isReconnect,
	)

	client.sendConnected()
	client.Run()
}
