package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"werewolves/internal/app"
	"werewolves/internal/domain"
)

const maxPasswordLength = 128

// Response is a standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo contains error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CreateRoomRequest is the body of a room creation request
type CreateRoomRequest struct {
	Password string `json:"password"`
}

// CreateRoomResponse is the response for room creation
type CreateRoomResponse struct {
	RoomCode    string `json:"roomCode"`
	JoinCommand string `json:"joinCommand"`
}

// GetRoomResponse is the response for getting room info
type GetRoomResponse struct {
	RoomCode    string `json:"roomCode"`
	PlayerCount int    `json:"playerCount"`
	Phase       string `json:"phase"`
}

// ListRoundsResponse is the response for the round history
type ListRoundsResponse struct {
	RoomCode string                `json:"roomCode"`
	Rounds   []domain.RoundSummary `json:"rounds"`
}

// HealthResponse is the response for health check
type HealthResponse struct {
	Status string `json:"status"`
}

// StatsResponse is the response for stats endpoint
type StatsResponse struct {
	ActiveGames  int `json:"activeGames"`
	TotalPlayers int `json:"totalPlayers"`
}

// handleCreateRoom handles POST /api/rooms
func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 4096)).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return
	}
	password := app.NormalizePassword(req.Password)
	if password == "" || len(password) > maxPasswordLength {
		s.sendError(w, http.StatusBadRequest, "INVALID_PASSWORD", "A password of at most 128 characters is required")
		return
	}

	session, err := s.hub.CreateGame(password)
	if err != nil {
		if errors.Is(err, domain.ErrRegistryFull) {
			s.sendError(w, http.StatusServiceUnavailable, "REGISTRY_FULL", "No room code available, try again later")
		} else {
			s.sendError(w, http.StatusInternalServerError, "CREATION_FAILED", "Failed to create room")
		}
		return
	}

	s.sendSuccess(w, &CreateRoomResponse{
		RoomCode:    session.GetRoomCode(),
		JoinCommand: "/join " + session.GetRoomCode() + " " + password,
	})
}

// handleGetRoom handles GET /api/rooms/{roomCode}
func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	session, err := s.hub.GetSession(r.PathValue("roomCode"))
	if err != nil {
		s.sendError(w, http.StatusNotFound, "ROOM_NOT_FOUND", "Room not found")
		return
	}

	s.sendSuccess(w, &GetRoomResponse{
		RoomCode:    session.GetRoomCode(),
		PlayerCount: session.GetPlayerCount(),
		Phase:       string(session.GetPhase()),
	})
}

// handleListRounds handles GET /api/rooms/{roomCode}/rounds?password=...
func (s *Server) handleListRounds(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.sendError(w, http.StatusNotFound, "ARCHIVE_DISABLED", "Round history is not recorded")
		return
	}

	session, err := s.hub.Lookup(r.PathValue("roomCode"), r.URL.Query().Get("password"))
	if err != nil {
		s.sendError(w, http.StatusNotFound, "ROOM_NOT_FOUND", "Room not found")
		return
	}

	rounds, err := s.history.ListRounds(r.Context(), session.GetRoomCode())
	if err != nil {
		s.logger.Error("failed to list rounds", "roomCode", session.GetRoomCode(), "error", err)
		s.sendError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		return
	}

	s.sendSuccess(w, &ListRoundsResponse{
		RoomCode: session.GetRoomCode(),
		Rounds:   rounds,
	})
}

// handleHealth handles GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendSuccess(w, &HealthResponse{
		Status: "ok",
	})
}

// handleStats handles GET /api/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.sendSuccess(w, &StatsResponse{
		ActiveGames:  s.hub.GetSessionCount(),
		TotalPlayers: s.hub.GetTotalPlayerCount(),
	})
}

// sendSuccess sends a successful JSON response
func (s *Server) sendSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(&Response{
		Success: true,
		Data:    data,
	})
}

// sendError sends an error JSON response
func (s *Server) sendError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(&Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	})
}
