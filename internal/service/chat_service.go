package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Anchal0410/peer-connect/internal/apperr"
	"github.com/Anchal0410/peer-connect/internal/cache"
	"github.com/Anchal0410/peer-connect/internal/config"
	"github.com/Anchal0410/peer-connect/internal/models"
	"github.com/Anchal0410/peer-connect/internal/repository"
	"github.com/Anchal0410/peer-connect/internal/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultMessagePageSize = 50
	maxMessagePageSize     = 100
)

var errConversationNotFound = apperr.NotFound("Conversation not found or you are not a participant")

// Notifier pushes a new message to a connected recipient. Delivery is best
// effort and must not block the sender for long.
type Notifier interface {
	NotifyMessage(recipientID string, msg models.MessageResponse)
}

type ChatService struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	users         repository.UserRepository
	cache         *cache.ConversationCache
	notifier      Notifier
	limits        config.LimitsConfig
	now           Clock
	log           *zap.Logger
}

func NewChatService(store *repository.Store, cc *cache.ConversationCache, notifier Notifier, limits config.LimitsConfig, now Clock, log *zap.Logger) *ChatService {
	return &ChatService{
		conversations: store.Conversations,
		messages:      store.Messages,
		users:         store.Users,
		cache:         cc,
		notifier:      notifier,
		limits:        withDefaultLimits(limits),
		now:           clockOrSystem(now),
		log:           log.Named("chat"),
	}
}

// MessagePage is one chronological page. NextBefore is the cursor for the
// next older page and is nil when this page reached the start.
type MessagePage struct {
	Messages   []models.MessageResponse
	NextBefore *repository.MessageCursor
}

// ListConversations returns the caller's conversations, most recent activity first.
func (s *ChatService) ListConversations(ctx context.Context, userID string) ([]models.ConversationResponse, error) {
	if cached, ok := s.cache.GetList(ctx, userID); ok {
		return cached, nil
	}

	convs, err := s.conversations.ListForUser(ctx, userID)
	if err != nil {
		return nil, storeFailure(s.log, "conversations.ListForUser", err)
	}

	peerIDs := make([]string, 0, len(convs))
	for i := range convs {
		if peer := convs[i].Peer(userID); peer != "" {
			peerIDs = append(peerIDs, peer)
		}
	}
	peers, err := s.userMap(ctx, peerIDs)
	if err != nil {
		return nil, err
	}

	out := make([]models.ConversationResponse, 0, len(convs))
	for i := range convs {
		out = append(out, convs[i].ToResponse(userID, peers[convs[i].Peer(userID)]))
	}
	if err := s.cache.SetList(ctx, userID, out); err != nil {
		s.log.Warn("conversation list cache write failed", zap.String("user_id", userID), zap.Error(err))
	}
	return out, nil
}

// GetOrCreate returns the conversation between the caller and peerID,
// creating it on first contact. created reports whether it was new.
func (s *ChatService) GetOrCreate(ctx context.Context, userID, peerID string) (resp *models.ConversationResponse, created bool, err error) {
	peerID = strings.TrimSpace(peerID)
	if peerID == "" {
		return nil, false, apperr.InvalidArg("User ID is required")
	}
	if peerID == userID {
		return nil, false, apperr.InvalidArg("Cannot start a conversation with yourself")
	}

	peer, err := s.users.FindByID(ctx, peerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, false, errUserNotFound
		}
		return nil, false, storeFailure(s.log, "users.FindByID", err)
	}

	conv, err := s.conversations.FindByPair(ctx, userID, peerID)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		conv = models.NewConversation(uuid.NewString(), userID, peerID, s.now())
		err = s.conversations.Create(ctx, conv)
		switch {
		case err == nil:
			created = true
			s.invalidateLists(ctx, userID, peerID)
		case errors.Is(err, repository.ErrDuplicate):
			// Lost a race with the peer creating the same pair.
			conv, err = s.conversations.FindByPair(ctx, userID, peerID)
			if err != nil {
				return nil, false, storeFailure(s.log, "conversations.FindByPair", err)
			}
		default:
			return nil, false, storeFailure(s.log, "conversations.Create", err)
		}
	default:
		return nil, false, storeFailure(s.log, "conversations.FindByPair", err)
	}

	r := conv.ToResponse(userID, peer)
	return &r, created, nil
}

// Get returns one conversation as seen by the caller, including their unread count.
func (s *ChatService) Get(ctx context.Context, userID, convID string) (*models.ConversationResponse, error) {
	conv, err := s.loadForParticipant(ctx, userID, convID)
	if err != nil {
		return nil, err
	}
	peers, err := s.userMap(ctx, []string{conv.Peer(userID)})
	if err != nil {
		return nil, err
	}
	r := conv.ToResponse(userID, peers[conv.Peer(userID)])
	return &r, nil
}

// GetMessages returns a chronological page of messages older than before
// (when set) and marks the whole conversation read for the caller.
func (s *ChatService) GetMessages(ctx context.Context, userID, convID string, before *repository.MessageCursor, limit int) (*MessagePage, error) {
	if _, err := s.loadForParticipant(ctx, userID, convID); err != nil {
		return nil, err
	}
	limit = validation.ClampLimit(limit, defaultMessagePageSize, maxMessagePageSize)

	page, err := s.messages.ListPage(ctx, convID, before, limit)
	if err != nil {
		return nil, storeFailure(s.log, "messages.ListPage", err)
	}

	if err := s.markRead(ctx, userID, convID); err != nil {
		return nil, err
	}

	// Storage order is newest first.
	for i, j := 0, len(page)-1; i < j; i, j = i+1, j-1 {
		page[i], page[j] = page[j], page[i]
	}

	senderIDs := make([]string, 0, 2)
	for i := range page {
		if page[i].SenderID != userID {
			page[i].MarkReadBy(userID)
		}
		senderIDs = append(senderIDs, page[i].SenderID)
	}
	senders, err := s.userMap(ctx, senderIDs)
	if err != nil {
		return nil, err
	}

	out := &MessagePage{Messages: make([]models.MessageResponse, 0, len(page))}
	for i := range page {
		out.Messages = append(out.Messages, page[i].ToResponse(senders[page[i].SenderID]))
	}
	if len(page) == limit {
		out.NextBefore = &repository.MessageCursor{CreatedAt: page[0].CreatedAt, ID: page[0].ID}
	}
	return out, nil
}

// Send stores a message, updates the conversation preview and counters and
// notifies the recipient.
func (s *ChatService) Send(ctx context.Context, userID, convID, content string) (*models.MessageResponse, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.InvalidArg("Message content is required")
	}
	if utf8.RuneCountInString(content) > s.limits.MaxMessageLength {
		return nil, apperr.InvalidArg(fmt.Sprintf("Message must be at most %d characters", s.limits.MaxMessageLength))
	}

	conv, err := s.loadForParticipant(ctx, userID, convID)
	if err != nil {
		return nil, err
	}

	// Version 7 ids grow monotonically within the process, so they order
	// messages that share a millisecond.
	id, err := uuid.NewV7()
	if err != nil {
		return nil, apperr.Internal("Internal server error", err)
	}
	msg := models.NewMessage(id.String(), convID, userID, content, s.now())
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, storeFailure(s.log, "messages.Create", err)
	}

	err = s.updateConversation(ctx, userID, convID, func(c *models.Conversation) bool {
		c.RecordSend(userID, content, msg.CreatedAt)
		return true
	})
	if err != nil {
		s.log.Error("message stored but conversation not updated",
			zap.String("conversation_id", convID), zap.String("message_id", msg.ID), zap.Error(err))
		return nil, err
	}

	peerID := conv.Peer(userID)
	s.invalidateLists(ctx, userID, peerID)

	sender, err := s.users.FindByID(ctx, userID)
	if err != nil {
		s.log.Warn("sender lookup failed, pushing message without sender",
			zap.String("user_id", userID), zap.String("message_id", msg.ID), zap.Error(err))
		sender = nil
	}
	resp := msg.ToResponse(sender)
	if s.notifier != nil && peerID != "" {
		s.notifier.NotifyMessage(peerID, resp)
	}
	return &resp, nil
}

// MarkRead marks every message the caller has not read as read and zeroes
// their counter.
func (s *ChatService) MarkRead(ctx context.Context, userID, convID string) error {
	if _, err := s.loadForParticipant(ctx, userID, convID); err != nil {
		return err
	}
	return s.markRead(ctx, userID, convID)
}

// UnreadCount returns the caller's counter for one conversation.
func (s *ChatService) UnreadCount(ctx context.Context, userID, convID string) (int, error) {
	conv, err := s.loadForParticipant(ctx, userID, convID)
	if err != nil {
		return 0, err
	}
	return conv.UnreadFor(userID), nil
}

func (s *ChatService) markRead(ctx context.Context, userID, convID string) error {
	if _, err := s.messages.MarkReadBy(ctx, convID, userID); err != nil {
		return storeFailure(s.log, "messages.MarkReadBy", err)
	}
	err := s.updateConversation(ctx, userID, convID, func(c *models.Conversation) bool {
		if c.UnreadFor(userID) == 0 {
			return false
		}
		c.MarkRead(userID)
		return true
	})
	if err != nil {
		return err
	}
	s.invalidateLists(ctx, userID)
	return nil
}

// updateConversation reloads the conversation and saves mutate's result under
// a revision check, retrying on conflict. mutate returns false when there is
// nothing to save.
func (s *ChatService) updateConversation(ctx context.Context, userID, convID string, mutate func(c *models.Conversation) bool) error {
	return retryOnConflict(func() error {
		conv, err := s.loadForParticipant(ctx, userID, convID)
		if err != nil {
			return err
		}
		if !mutate(conv) {
			return nil
		}
		if err := s.conversations.Save(ctx, conv); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return err
			}
			if errors.Is(err, repository.ErrNotFound) {
				return errConversationNotFound
			}
			return storeFailure(s.log, "conversations.Save", err)
		}
		return nil
	})
}

// loadForParticipant hides whether a conversation exists from non-participants.
func (s *ChatService) loadForParticipant(ctx context.Context, userID, convID string) (*models.Conversation, error) {
	conv, err := s.conversations.FindByID(ctx, convID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errConversationNotFound
		}
		return nil, storeFailure(s.log, "conversations.FindByID", err)
	}
	if !conv.HasParticipant(userID) {
		return nil, errConversationNotFound
	}
	return conv, nil
}

func (s *ChatService) userMap(ctx context.Context, ids []string) (map[string]*models.User, error) {
	out := make(map[string]*models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, storeFailure(s.log, "users.FindByIDs", err)
	}
	for i := range users {
		out[users[i].ID] = &users[i]
	}
	return out, nil
}

func (s *ChatService) invalidateLists(ctx context.Context, userIDs ...string) {
	if err := s.cache.Invalidate(ctx, userIDs...); err != nil {
		s.log.Warn("conversation list cache invalidation failed", zap.Strings("user_ids", userIDs), zap.Error(err))
	}
}
