package models

import (
	"time"
)

type Message struct {
	ID             string    `json:"id" bson:"_id"`
	ConversationID string    `json:"conversation_id" bson:"conversation_id"`
	SenderID       string    `json:"sender_id" bson:"sender_id"`
	Content        string    `json:"content" bson:"content"`
	ReadBy         []string  `json:"read_by" bson:"read_by"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
}

// NewMessage builds a message already read by its sender.
func NewMessage(id, conversationID, senderID, content string, now time.Time) *Message {
	return &Message{
		ID:             id,
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		ReadBy:         []string{senderID},
		CreatedAt:      now,
	}
}

func (m *Message) IsReadBy(userID string) bool {
	for _, id := range m.ReadBy {
		if id == userID {
			return true
		}
	}
	return false
}

// MarkReadBy appends userID to the reader set. Returns false if already present.
func (m *Message) MarkReadBy(userID string) bool {
	if m.IsReadBy(userID) {
		return false
	}
	m.ReadBy = append(m.ReadBy, userID)
	return true
}

func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	cp := *m
	cp.ReadBy = append([]string(nil), m.ReadBy...)
	return &cp
}

type MessageResponse struct {
	ID             string       `json:"id"`
	ConversationID string       `json:"conversation_id"`
	SenderID       string       `json:"sender_id"`
	Sender         *UserSummary `json:"sender,omitempty"`
	Content        string       `json:"content"`
	ReadBy         []string     `json:"read_by"`
	CreatedAt      time.Time    `json:"created_at"`
}

func (m *Message) ToResponse(sender *User) MessageResponse {
	resp := MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Content:        m.Content,
		ReadBy:         append([]string{}, m.ReadBy...),
		CreatedAt:      m.CreatedAt,
	}
	if sender != nil {
		s := sender.ToSummary()
		resp.Sender = &s
	}
	return resp
}
