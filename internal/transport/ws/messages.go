package ws

import "time"

// MessageType represents the type of WebSocket message
type MessageType string

// Client → Server message types
const (
	MsgCommand MessageType = "command"
	MsgPing    MessageType = "ping"
)

// Server → Client message types
const (
	MsgConnected MessageType = "connected"
	MsgMessage   MessageType = "message"
	MsgReply     MessageType = "reply"
	MsgError     MessageType = "error"
	MsgPong      MessageType = "pong"
)

// ClientMessage represents a message from client to server
type ClientMessage struct {
	Type    MessageType    `json:"type"`
	Payload CommandPayload `json:"payload"`
}

// ServerMessage represents a message from server to client
type ServerMessage struct {
	Type      MessageType `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// NewServerMessage creates a new server message with current timestamp
func NewServerMessage(msgType MessageType, payload interface{}) *ServerMessage {
	return &ServerMessage{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// Client message payloads

// CommandPayload carries one line of chat input, e.g. "/join ABCD secret"
type CommandPayload struct {
	Text string `json:"text"`
}

// Server message payloads

// ConnectedPayload is the payload for connected message
type ConnectedPayload struct {
	Handle   string `json:"handle"`
	Name     string `json:"name"`
	RoomCode string `json:"roomCode,omitempty"`
}

// TextPayload is the payload for message and reply messages
type TextPayload struct {
	Text    string   `json:"text"`
	Choices []string `json:"choices,omitempty"`
}

// ErrorPayload is the payload for error message
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrCodeInvalidMessage = "INVALID_MESSAGE"
	ErrCodeUnknownCommand = "UNKNOWN_COMMAND"
	ErrCodeUsage          = "USAGE"
	ErrCodeNotSeated      = "NOT_SEATED"
	ErrCodeAlreadySeated  = "ALREADY_SEATED"
	ErrCodeInvalidAction  = "INVALID_ACTION"
	ErrCodeGameNotFound   = "GAME_NOT_FOUND"
	ErrCodeRegistryFull   = "REGISTRY_FULL"
	ErrCodeInvalidTarget  = "INVALID_TARGET"
	ErrCodeInvalidConfig  = "INVALID_CONFIG"
	ErrCodeInternalError  = "INTERNAL_ERROR"
)
