package handlers

import (
	"strings"

	"github.com/Anchal0410/peer-connect/internal/apperr"
	"github.com/Anchal0410/peer-connect/internal/httpx"
	"github.com/Anchal0410/peer-connect/internal/repository"
	"github.com/Anchal0410/peer-connect/internal/service"
	"github.com/gofiber/fiber/v2"
)

type ChatHandler struct {
	chatService *service.ChatService
}

func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func (h *ChatHandler) GetConversations(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}

	convs, err := h.chatService.ListConversations(c.UserContext(), userID)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return list(c, convs, len(convs))
}

type createConversationRequest struct {
	UserID string `json:"user_id"`
}

// CreateConversation returns the conversation with user_id, creating it on
// first contact (201) and returning the existing one otherwise (200).
func (h *ChatHandler) CreateConversation(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}

	var input createConversationRequest
	if err := parseBody(c, &input); err != nil {
		return httpx.FromError(c, err)
	}

	conv, created, err := h.chatService.GetOrCreate(c.UserContext(), userID, input.UserID)
	if err != nil {
		return httpx.FromError(c, err)
	}
	if created {
		return httpx.Created(c, conv)
	}
	return httpx.OK(c, conv)
}

func (h *ChatHandler) GetConversation(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}

	conv, err := h.chatService.Get(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, conv)
}

// GetMessages returns one page of history and marks the conversation read.
// next_before and next_before_id point at the previous page and are absent
// at the start. A bare before pages on the timestamp alone.
func (h *ChatHandler) GetMessages(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	at, err := queryTime(c, "before")
	if err != nil {
		return httpx.FromError(c, err)
	}
	var before *repository.MessageCursor
	if at != nil {
		before = &repository.MessageCursor{CreatedAt: *at, ID: strings.TrimSpace(c.Query("before_id"))}
	} else if c.Query("before_id") != "" {
		return httpx.FromError(c, apperr.InvalidArg("before_id requires before"))
	}

	page, err := h.chatService.GetMessages(c.UserContext(), userID, c.Params("id"), before, c.QueryInt("limit", 0))
	if err != nil {
		return httpx.FromError(c, err)
	}
	extra := fiber.Map{"count": len(page.Messages)}
	if page.NextBefore != nil {
		extra["next_before"] = page.NextBefore.CreatedAt
		extra["next_before_id"] = page.NextBefore.ID
	}
	return httpx.Success(c, fiber.StatusOK, page.Messages, extra)
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}

	var input sendMessageRequest
	if err := parseBody(c, &input); err != nil {
		return httpx.FromError(c, err)
	}

	msg, err := h.chatService.Send(c.UserContext(), userID, c.Params("id"), input.Content)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.Created(c, msg)
}

func (h *ChatHandler) GetUnreadCount(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	n, err := h.chatService.UnreadCount(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, fiber.Map{"conversation_id": c.Params("id"), "unread_count": n})
}

func (h *ChatHandler) MarkRead(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	if err := h.chatService.MarkRead(c.UserContext(), userID, c.Params("id")); err != nil {
		return httpx.FromError(c, err)
	}
	return message(c, "Conversation marked as read", nil)
}
