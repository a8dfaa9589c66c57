package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Anchal0410/peer-connect/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	// ErrConflict is returned by Save when the stored revision moved since load.
	ErrConflict = errors.New("revision conflict")
)

// UserSearch filters Search. Empty fields are ignored.
type UserSearch struct {
	Query     string
	College   string
	Interests []string
	ExcludeID string
	Limit     int
}

// ActivityFilter filters List. Limit 0 means no limit; Page is 1-based.
type ActivityFilter struct {
	Categories           []models.ActivityCategory
	ActiveOnly           bool
	ParticipantID        string
	ExcludeParticipantID string
	Page                 int
	Limit                int
}

// UserRepository defines the contract for user storage
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.User, error)
	Update(ctx context.Context, user *models.User) error
	SetPresence(ctx context.Context, id string, online bool, at time.Time) error
	ListOnline(ctx context.Context, excludeID string, limit int) ([]models.User, error)
	Search(ctx context.Context, filter UserSearch) ([]models.User, error)
	// ListRecentlyActive returns online users not in excludeIDs, most recently active first.
	ListRecentlyActive(ctx context.Context, excludeIDs []string, limit int) ([]models.User, error)
}

// ActivityRepository defines the contract for activity storage.
// Save is a compare-and-swap on Revision; on success Revision is incremented.
type ActivityRepository interface {
	Create(ctx context.Context, activity *models.Activity) error
	FindByID(ctx context.Context, id string) (*models.Activity, error)
	List(ctx context.Context, filter ActivityFilter) ([]models.Activity, int64, error)
	Save(ctx context.Context, activity *models.Activity) error
	Delete(ctx context.Context, id string) error
}

// ConversationRepository defines the contract for conversation storage.
// Create returns ErrDuplicate when the pair already has a conversation.
type ConversationRepository interface {
	Create(ctx context.Context, conv *models.Conversation) error
	FindByID(ctx context.Context, id string) (*models.Conversation, error)
	FindByPair(ctx context.Context, userA, userB string) (*models.Conversation, error)
	ListForUser(ctx context.Context, userID string) ([]models.Conversation, error)
	Save(ctx context.Context, conv *models.Conversation) error
}

// MessageCursor marks a position in a conversation's history. Messages are
// ordered by (CreatedAt, ID); an empty ID compares on CreatedAt alone.
type MessageCursor struct {
	CreatedAt time.Time
	ID        string
}

// MessageRepository defines the contract for message storage
type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	// ListPage returns up to limit messages ordered strictly before before
	// (when set), newest first.
	ListPage(ctx context.Context, conversationID string, before *MessageCursor, limit int) ([]models.Message, error)
	// MarkReadBy adds readerID to every message in the conversation it did not
	// send and has not read. Returns the number of messages changed.
	MarkReadBy(ctx context.Context, conversationID, readerID string) (int64, error)
	CountUnread(ctx context.Context, conversationID, readerID string) (int64, error)
}

// Store bundles the repositories of one backend.
type Store struct {
	Users         UserRepository
	Activities    ActivityRepository
	Conversations ConversationRepository
	Messages      MessageRepository
	closer        func(ctx context.Context) error
}

func NewStore(users UserRepository, activities ActivityRepository, conversations ConversationRepository, messages MessageRepository, closer func(ctx context.Context) error) *Store {
	return &Store{
		Users:         users,
		Activities:    activities,
		Conversations: conversations,
		Messages:      messages,
		closer:        closer,
	}
}

func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.closer == nil {
		return nil
	}
	return s.closer(ctx)
}
