package ws

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/Anchal0410/peer-connect/internal/apperr"
)

// Heartbeater extends a user's presence while their socket is alive.
type Heartbeater interface {
	Heartbeat(ctx context.Context, userID string)
}

// ConversationReader marks a conversation read for a participant.
type ConversationReader interface {
	MarkRead(ctx context.Context, userID, convID string) error
}

// MessageContext provides all dependencies needed for message processing
type MessageContext struct {
	Ctx      context.Context
	UserID   string
	Client   *Client
	Hub      *Hub
	Presence Heartbeater
	Chat     ConversationReader
}

// Message interface for all inbound WebSocket message types
type Message interface {
	GetType() string
	Process(ctx *MessageContext) error
}

// SerializedMessage is the wire format wrapper
type SerializedMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ErrorResponse is sent when message processing fails
type ErrorResponse struct {
	Type    string `json:"type"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// SendProcessError reports a failed Process call with the error's
// application code; internal causes stay on the server.
func SendProcessError(client *Client, err error) error {
	code := strings.ToLower(string(apperr.CodeOf(err)))
	return SendError(client, code, apperr.Message(err), "")
}

// SendError sends an error response to the client
func SendError(client *Client, code, message, details string) error {
	return client.WriteJSON(ErrorResponse{
		Type:    "error",
		Error:   message,
		Code:    code,
		Details: details,
	})
}
