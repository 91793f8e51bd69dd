package app

import (
	"log/slog"
	"sync"
	"time"

	"werewolves/internal/domain"
)

// ClientConnection represents a connected client
type ClientConnection interface {
	Deliver(event domain.Event) error
	GetHandle() string
	Close() error
}

// GameSession wraps a game with concurrency control and client management
type GameSession struct {
	game      *domain.Game
	mu        sync.Mutex
	clients   map[string]ClientConnection // handle -> client
	clientsMu sync.RWMutex
	logger    *slog.Logger

	// Event channel for delivery
	events chan domain.Event
	done   chan struct{}
	once   sync.Once
}

// NewGameSession creates a new game session
func NewGameSession(game *domain.Game, logger *slog.Logger) *GameSession {
	session := &GameSession{
		game:    game,
		clients: make(map[string]ClientConnection),
		logger:  logger.With("roomCode", game.ID),
		events:  make(chan domain.Event, 1024),
		done:    make(chan struct{}),
	}

	go session.eventLoop()

	return session
}

// GetRoomCode returns the room code
func (s *GameSession) GetRoomCode() string {
	return s.game.ID
}

// GetCreatedAt returns when the game was created
func (s *GameSession) GetCreatedAt() time.Time {
	return s.game.CreatedAt
}

// CheckKey reports whether key is the room's join password
func (s *GameSession) CheckKey(key string) bool {
	return s.game.Key == key
}

// GetPlayerCount returns the number of players
func (s *GameSession) GetPlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.PlayerCount()
}

// GetPhase returns the current game phase
func (s *GameSession) GetPhase() domain.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.Phase
}

// GetPlayerInfoList returns the roster without roles
func (s *GameSession) GetPlayerInfoList() []domain.PlayerInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.GetPlayerInfoList()
}

// RegisterClient registers a client connection for a handle
func (s *GameSession) RegisterClient(handle string, client ClientConnection) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[handle] = client
}

// UnregisterClient removes a client connection
func (s *GameSession) UnregisterClient(handle string) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	delete(s.clients, handle)
}

// DetachClient unregisters client unless its handle has since been taken over by a newer connection
func (s *GameSession) DetachClient(client ClientConnection) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	if s.clients[client.GetHandle()] == client {
		delete(s.clients, client.GetHandle())
	}
}

// AddPlayer seats a player and delivers the join messages
func (s *GameSession) AddPlayer(handle, name string) ([]domain.Event, error) {
	return s.apply("add player", handle, func() ([]domain.Event, error) {
		return s.game.AddPlayer(handle, name)
	})
}

// Ready marks a player ready, possibly starting the round
func (s *GameSession) Ready(handle string) ([]domain.Event, error) {
	return s.apply("ready", handle, func() ([]domain.Event, error) {
		return s.game.Ready(handle)
	})
}

// Configure changes the werewolf count and special roles
func (s *GameSession) Configure(handle string, werewolves int, specials []domain.Role) ([]domain.Event, error) {
	return s.apply("configure", handle, func() ([]domain.Event, error) {
		return s.game.Configure(handle, werewolves, specials)
	})
}

// Vote casts a vote against another seat
func (s *GameSession) Vote(handle string, targetID int) ([]domain.Event, error) {
	return s.apply("vote", handle, func() ([]domain.Event, error) {
		return s.game.Vote(handle, targetID)
	})
}

// RemovePlayer frees a seat
func (s *GameSession) RemovePlayer(handle string) ([]domain.Event, error) {
	return s.apply("leave", handle, func() ([]domain.Event, error) {
		return s.game.Leave(handle)
	})
}

// KillPlayer marks a player dead
func (s *GameSession) KillPlayer(id int) ([]domain.Event, error) {
	return s.apply("kill player", "", func() ([]domain.Event, error) {
		return s.game.KillPlayer(id)
	})
}

// apply runs one game operation under the room lock and queues its output in order
func (s *GameSession) apply(op, handle string, fn func() ([]domain.Event, error)) ([]domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := fn()
	if err != nil {
		s.logger.Debug("operation rejected", "op", op, "handle", handle, "error", err)
		return nil, err
	}

	s.logger.Debug("operation applied", "op", op, "handle", handle, "events", len(events), "phase", s.game.Phase)
	for _, event := range events {
		s.queueEvent(event)
	}

	return events, nil
}

// queueEvent adds an event to the delivery queue
func (s *GameSession) queueEvent(event domain.Event) {
	select {
	case s.events <- event:
	default:
		s.logger.Warn("event queue full, dropping event", "recipient", event.Recipient)
	}
}

// eventLoop delivers queued events to clients
func (s *GameSession) eventLoop() {
	for {
		select {
		case <-s.done:
			return
		case event := <-s.events:
			s.deliver(event)
		}
	}
}

// deliver sends an event to its recipient, if connected
func (s *GameSession) deliver(event domain.Event) {
	s.clientsMu.RLock()
	client, ok := s.clients[event.Recipient]
	s.clientsMu.RUnlock()

	if !ok {
		s.logger.Debug("recipient not connected", "handle", event.Recipient)
		return
	}
	if err := client.Deliver(event); err != nil {
		s.logger.Debug("failed to send to client", "handle", event.Recipient, "error", err)
	}
}

// Close shuts down the session
func (s *GameSession) Close() {
	s.once.Do(func() {
		close(s.done)
	})
}
