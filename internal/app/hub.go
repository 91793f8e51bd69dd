package app

import (
	"context"
	"crypto/rand"
	"log/slog"
	"strings"
	"sync"
	"time"

	"werewolves/internal/domain"
)

const (
	// DefaultRoomCodeLength is the default length for room codes
	DefaultRoomCodeLength = 4

	// DefaultRoomCodeAttempts bounds the collision retries when creating a game
	DefaultRoomCodeAttempts = 100

	// DefaultStaleGameTimeout is how long before an empty game is cleaned up
	DefaultStaleGameTimeout = 2 * time.Hour

	recordTimeout = 5 * time.Second
)

// RoomCodeChars are characters used for room codes (no ambiguous chars)
const RoomCodeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// RoundRecorder stores concluded rounds
type RoundRecorder interface {
	RecordRound(ctx context.Context, summary domain.RoundSummary) error
}

// HubOption configures a GameHub
type HubOption func(*GameHub)

// WithRoomCodeLength sets the room code length
func WithRoomCodeLength(n int) HubOption {
	return func(h *GameHub) {
		if n > 0 {
			h.roomCodeLength = n
		}
	}
}

// WithRoomCodeAttempts sets how many codes are drawn before giving up
func WithRoomCodeAttempts(n int) HubOption {
	return func(h *GameHub) {
		if n > 0 {
			h.codeAttempts = n
		}
	}
}

// WithStaleGameTimeout sets how long an empty game is kept
func WithStaleGameTimeout(d time.Duration) HubOption {
	return func(h *GameHub) {
		if d > 0 {
			h.staleTimeout = d
		}
	}
}

// WithRoundRecorder archives every concluded round
func WithRoundRecorder(r RoundRecorder) HubOption {
	return func(h *GameHub) {
		h.recorder = r
	}
}

// GameHub is the registry of active games and of the seat each handle holds
type GameHub struct {
	sessions       map[string]*GameSession
	seats          map[string]*GameSession // handle -> active game
	mu             sync.RWMutex
	roomCodeLength int
	codeAttempts   int
	staleTimeout   time.Duration
	generateCode   func() string
	recorder       RoundRecorder
	logger         *slog.Logger
	done           chan struct{}
	closeOnce      sync.Once
}

// NewGameHub creates a new game hub
func NewGameHub(logger *slog.Logger, opts ...HubOption) *GameHub {
	hub := &GameHub{
		sessions:       make(map[string]*GameSession),
		seats:          make(map[string]*GameSession),
		roomCodeLength: DefaultRoomCodeLength,
		codeAttempts:   DefaultRoomCodeAttempts,
		staleTimeout:   DefaultStaleGameTimeout,
		logger:         logger,
		done:           make(chan struct{}),
	}
	hub.generateCode = hub.generateRoomCode

	for _, opt := range opts {
		opt(hub)
	}

	// Start cleanup goroutine
	go hub.cleanupLoop()

	return hub
}

// CreateGame creates a new game protected by password
func (h *GameHub) CreateGame(password string) (*GameSession, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.createGame(password)
}

func (h *GameHub) createGame(password string) (*GameSession, error) {
	roomCode := ""
	for attempts := 0; attempts < h.codeAttempts; attempts++ {
		code := h.generateCode()
		if _, exists := h.sessions[code]; !exists {
			roomCode = code
			break
		}
	}
	if roomCode == "" {
		h.logger.Warn("room codes exhausted", "attempts", h.codeAttempts, "games", len(h.sessions))
		return nil, domain.ErrRegistryFull
	}

	var opts []domain.Option
	if h.recorder != nil {
		opts = append(opts, domain.WithRoundObserver(h.recordRound))
	}

	game := domain.NewGame(roomCode, NormalizePassword(password), opts...)
	session := NewGameSession(game, h.logger)
	h.sessions[roomCode] = session

	h.logger.Info("game created", "roomCode", roomCode)

	return session, nil
}

// GetSession returns a game session by room code
func (h *GameHub) GetSession(roomCode string) (*GameSession, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	session, ok := h.sessions[normalizeRoomCode(roomCode)]
	if !ok {
		return nil, domain.ErrLookupFailed
	}

	return session, nil
}

// Lookup returns the game only if both the room code and password match
func (h *GameHub) Lookup(roomCode, password string) (*GameSession, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.lookup(roomCode, password)
}

func (h *GameHub) lookup(roomCode, password string) (*GameSession, error) {
	session, ok := h.sessions[normalizeRoomCode(roomCode)]
	if !ok || !session.CheckKey(NormalizePassword(password)) {
		return nil, domain.ErrLookupFailed
	}
	return session, nil
}

// Associate records that handle is seated in session
func (h *GameHub) Associate(handle string, session *GameSession) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seats[handle] = session
}

// Dissociate forgets the handle's active game
func (h *GameHub) Dissociate(handle string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.seats, handle)
}

// CurrentGame returns the game the handle is seated in
func (h *GameHub) CurrentGame(handle string) (*GameSession, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	session, ok := h.seats[handle]
	return session, ok
}

// Join seats handle in the game identified by roomCode and password. A non-nil
// client is registered before the join messages are queued.
func (h *GameHub) Join(handle, name, roomCode, password string, client ClientConnection) (*GameSession, []domain.Event, error) {
	session, err := h.reserveSeat(handle, func() (*GameSession, error) {
		return h.lookup(roomCode, password)
	})
	if err != nil {
		return nil, nil, err
	}

	events, err := h.seat(session, handle, name, client)
	if err != nil {
		return nil, nil, err
	}

	h.logger.Info("player joined", "roomCode", session.GetRoomCode(), "handle", handle)

	return session, events, nil
}

// Host creates a game and seats handle in it. A handle that is already seated
// gets ErrAlreadySeated and no game is created.
func (h *GameHub) Host(handle, name, password string, client ClientConnection) (*GameSession, []domain.Event, error) {
	session, err := h.reserveSeat(handle, func() (*GameSession, error) {
		return h.createGame(password)
	})
	if err != nil {
		return nil, nil, err
	}

	events, err := h.seat(session, handle, name, client)
	if err != nil {
		h.removeGame(session)
		return nil, nil, err
	}

	h.logger.Info("player joined", "roomCode", session.GetRoomCode(), "handle", handle)

	return session, events, nil
}

// Leave frees the handle's seat in its current game
func (h *GameHub) Leave(handle string) ([]domain.Event, error) {
	h.mu.Lock()
	session, ok := h.seats[handle]
	delete(h.seats, handle)
	h.mu.Unlock()

	if !ok {
		return nil, domain.ErrNotSeated
	}

	events, err := session.RemovePlayer(handle)
	if err != nil {
		// the seat is still being taken by a join in flight
		h.restoreSeat(handle, session)
		return nil, err
	}
	session.UnregisterClient(handle)

	h.logger.Info("player left", "roomCode", session.GetRoomCode(), "handle", handle)

	return events, nil
}

// reserveSeat maps handle to the session pick returns. Only the registry maps
// are touched under the registry lock; room operations run after it is released.
func (h *GameHub) reserveSeat(handle string, pick func() (*GameSession, error)) (*GameSession, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, seated := h.seats[handle]; seated {
		return nil, domain.ErrAlreadySeated
	}
	session, err := pick()
	if err != nil {
		return nil, err
	}
	h.seats[handle] = session
	return session, nil
}

// seat adds the player to a reserved session, undoing the reservation on failure
func (h *GameHub) seat(session *GameSession, handle, name string, client ClientConnection) ([]domain.Event, error) {
	if client != nil {
		session.RegisterClient(handle, client)
	}
	events, err := session.AddPlayer(handle, name)
	if err != nil {
		if client != nil {
			session.DetachClient(client)
		}
		h.releaseSeat(handle, session)
		return nil, err
	}
	return events, nil
}

func (h *GameHub) releaseSeat(handle string, session *GameSession) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.seats[handle] == session {
		delete(h.seats, handle)
	}
}

func (h *GameHub) restoreSeat(handle string, session *GameSession) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.seats[handle]; !ok {
		h.seats[handle] = session
	}
}

// removeGame drops a session nobody has been seated in
func (h *GameHub) removeGame(session *GameSession) {
	h.mu.Lock()
	defer h.mu.Unlock()

	roomCode := session.GetRoomCode()
	if h.sessions[roomCode] != session {
		return
	}
	delete(h.sessions, roomCode)
	session.Close()
	h.logger.Info("game removed", "roomCode", roomCode)
}

// GetSessionCount returns the number of active sessions
func (h *GameHub) GetSessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// GetTotalPlayerCount returns the number of seated handles across all sessions
func (h *GameHub) GetTotalPlayerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.seats)
}

// Close shuts down the hub and all sessions
func (h *GameHub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
	})

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, session := range h.sessions {
		session.Close()
	}
	h.sessions = make(map[string]*GameSession)
	h.seats = make(map[string]*GameSession)
}

// recordRound runs under the room lock of the concluding game
func (h *GameHub) recordRound(summary domain.RoundSummary) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	if err := h.recorder.RecordRound(ctx, summary); err != nil {
		h.logger.Error("failed to record round", "roomCode", summary.GameID, "round", summary.Round, "error", err)
	}
}

// generateRoomCode generates a random room code
func (h *GameHub) generateRoomCode() string {
	b := make([]byte, h.roomCodeLength)
	rand.Read(b)

	code := make([]byte, h.roomCodeLength)
	for i := range code {
		code[i] = RoomCodeChars[int(b[i])%len(RoomCodeChars)]
	}

	return string(code)
}

// NormalizePassword collapses whitespace runs to single spaces, the form a
// password takes after a chat command splits its arguments.
func NormalizePassword(password string) string {
	return strings.Join(strings.Fields(password), " ")
}

func normalizeRoomCode(roomCode string) string {
	return strings.ToUpper(strings.TrimSpace(roomCode))
}

// cleanupLoop periodically cleans up stale games
func (h *GameHub) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			h.cleanupStaleGames(time.Now())
		}
	}
}

// cleanupStaleGames removes games that have been empty for too long
func (h *GameHub) cleanupStaleGames(now time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// a reserved seat may not have reached the room yet
	seated := make(map[*GameSession]bool, len(h.seats))
	for _, session := range h.seats {
		seated[session] = true
	}

	for roomCode, session := range h.sessions {
		if seated[session] || now.Sub(session.GetCreatedAt()) <= h.staleTimeout {
			continue
		}
		if session.GetPlayerCount() == 0 {
			session.Close()
			delete(h.sessions, roomCode)
			h.logger.Info("stale game cleaned up", "roomCode", roomCode)
		}
	}
}
