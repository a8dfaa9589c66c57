package models

import (
	"sort"
	"strings"
	"time"
)

// PairKey is the order-independent identity of a 1:1 conversation.
func PairKey(userA, userB string) string {
	ids := []string{userA, userB}
	sort.Strings(ids)
	return strings.Join(ids, ":")
}

type Conversation struct {
	ID            string         `json:"id" bson:"_id"`
	Participants  []string       `json:"participants" bson:"participants"`
	PairKey       string         `json:"-" bson:"pair_key"`
	LastMessage   string         `json:"last_message" bson:"last_message"`
	LastMessageAt time.Time      `json:"last_message_at" bson:"last_message_at"`
	Unread        map[string]int `json:"-" bson:"unread"`
	Revision      int64          `json:"-" bson:"revision"`
	CreatedAt     time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" bson:"updated_at"`
}

func NewConversation(id, userA, userB string, now time.Time) *Conversation {
	return &Conversation{
		ID:            id,
		Participants:  []string{userA, userB},
		PairKey:       PairKey(userA, userB),
		LastMessageAt: now,
		Unread:        map[string]int{userA: 0, userB: 0},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func (c *Conversation) HasParticipant(userID string) bool {
	for _, id := range c.Participants {
		if id == userID {
			return true
		}
	}
	return false
}

// Peer returns the other participant, or "" if userID is not a participant.
func (c *Conversation) Peer(userID string) string {
	if !c.HasParticipant(userID) {
		return ""
	}
	for _, id := range c.Participants {
		if id != userID {
			return id
		}
	}
	return ""
}

// RecordSend updates the preview and bumps every counter except the sender's.
func (c *Conversation) RecordSend(senderID, content string, now time.Time) {
	c.LastMessage = content
	c.LastMessageAt = now
	c.UpdatedAt = now
	if c.Unread == nil {
		c.Unread = make(map[string]int, len(c.Participants))
	}
	for _, id := range c.Participants {
		if id == senderID {
			continue
		}
		c.Unread[id]++
	}
}

// MarkRead zeroes the reader's counter. Non-participants are ignored.
func (c *Conversation) MarkRead(readerID string) {
	if !c.HasParticipant(readerID) {
		return
	}
	if c.Unread == nil {
		c.Unread = make(map[string]int, len(c.Participants))
	}
	c.Unread[readerID] = 0
}

func (c *Conversation) UnreadFor(userID string) int {
	if c.Unread == nil {
		return 0
	}
	return c.Unread[userID]
}

func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Participants = append([]string(nil), c.Participants...)
	cp.Unread = make(map[string]int, len(c.Unread))
	for k, v := range c.Unread {
		cp.Unread[k] = v
	}
	return &cp
}

type ConversationResponse struct {
	ID            string       `json:"id" msgpack:"id"`
	Participant   *UserSummary `json:"participant" msgpack:"participant"`
	LastMessage   string       `json:"last_message" msgpack:"last_message"`
	LastMessageAt time.Time    `json:"last_message_at" msgpack:"last_message_at"`
	UnreadCount   int          `json:"unread_count" msgpack:"unread_count"`
	CreatedAt     time.Time    `json:"created_at" msgpack:"created_at"`
}

// ToResponse renders the conversation from viewerID's side.
func (c *Conversation) ToResponse(viewerID string, peer *User) ConversationResponse {
	resp := ConversationResponse{
		ID:            c.ID,
		LastMessage:   c.LastMessage,
		LastMessageAt: c.LastMessageAt,
		UnreadCount:   c.UnreadFor(viewerID),
		CreatedAt:     c.CreatedAt,
	}
	if peer != nil {
		s := peer.ToSummary()
		resp.Participant = &s
	}
	return resp
}
