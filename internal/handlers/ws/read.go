package ws

import (
	"strings"

	"github.com/Anchal0410/peer-connect/internal/apperr"
)

// MessageMarkRead marks a conversation read, like PUT .../read.
type MessageMarkRead struct {
	ConversationID string `json:"conversation_id"`
}

func (msg *MessageMarkRead) GetType() string {
	return "read"
}

func (msg *MessageMarkRead) Process(ctx *MessageContext) error {
	id := strings.TrimSpace(msg.ConversationID)
	if id == "" {
		return apperr.InvalidArg("conversation_id is required")
	}
	if ctx.Chat == nil {
		return apperr.Unavailable("Chat is not available on this connection")
	}
	if err := ctx.Chat.MarkRead(ctx.Ctx, ctx.UserID, id); err != nil {
		return err
	}
	return ctx.Client.WriteJSON(Envelope{Type: "read", Data: map[string]string{"conversation_id": id}})
}
