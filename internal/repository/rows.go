package repository

import (
	"sort"
	"time"

	"github.com/Anchal0410/peer-connect/internal/models"
)

// Relational rows. Lists from the document model live in child tables.

type userRow struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)"`
	Name         string    `gorm:"type:varchar(120);not null"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	College      string    `gorm:"type:varchar(200);index"`
	Bio          string    `gorm:"type:varchar(250)"`
	Avatar       string    `gorm:"type:varchar(512)"`
	AvatarKey    string    `gorm:"type:varchar(255)"`
	IsOnline     bool      `gorm:"not null;default:false;index"`
	LastActive   time.Time `gorm:"index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Interests []userInterestRow `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (userRow) TableName() string { return "users" }

type userInterestRow struct {
	UserID   string `gorm:"primaryKey;type:varchar(36)"`
	Interest string `gorm:"primaryKey;type:varchar(100);index"`
	Position int    `gorm:"not null;default:0"`
}

func (userInterestRow) TableName() string { return "user_interests" }

type activityRow struct {
	ID              string     `gorm:"primaryKey;type:varchar(36)"`
	Name            string     `gorm:"type:varchar(200);not null"`
	Description     string     `gorm:"type:text"`
	Category        string     `gorm:"type:varchar(32);index;not null"`
	Location        string     `gorm:"type:varchar(255)"`
	Image           string     `gorm:"type:varchar(512)"`
	MaxParticipants int        `gorm:"not null;default:0"`
	CreatorID       string     `gorm:"type:varchar(36);index;not null"`
	StartTime       *time.Time
	EndTime         *time.Time
	IsActive        bool      `gorm:"not null;index"`
	Revision        int64     `gorm:"not null;default:0"`
	CreatedAt       time.Time `gorm:"index"`
	UpdatedAt       time.Time

	Participants []activityParticipantRow `gorm:"foreignKey:ActivityID;constraint:OnDelete:CASCADE"`
}

func (activityRow) TableName() string { return "activities" }

type activityParticipantRow struct {
	ActivityID string `gorm:"primaryKey;type:varchar(36)"`
	UserID     string `gorm:"primaryKey;type:varchar(36);index"`
	Position   int    `gorm:"not null;default:0"`
}

func (activityParticipantRow) TableName() string { return "activity_participants" }

type conversationRow struct {
	ID            string    `gorm:"primaryKey;type:varchar(36)"`
	PairKey       string    `gorm:"type:varchar(80);uniqueIndex;not null"`
	LastMessage   string    `gorm:"type:text"`
	LastMessageAt time.Time `gorm:"index"`
	Revision      int64     `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Members []conversationMemberRow `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE"`
}

func (conversationRow) TableName() string { return "conversations" }

type conversationMemberRow struct {
	ConversationID string `gorm:"primaryKey;type:varchar(36)"`
	UserID         string `gorm:"primaryKey;type:varchar(36);index"`
	UnreadCount    int    `gorm:"not null;default:0"`
	Position       int    `gorm:"not null;default:0"`
}

func (conversationMemberRow) TableName() string { return "conversation_members" }

type messageRow struct {
	ID             string    `gorm:"primaryKey;type:varchar(36)"`
	ConversationID string    `gorm:"type:varchar(36);not null;index:idx_messages_conversation_created,priority:1"`
	SenderID       string    `gorm:"type:varchar(36);not null;index"`
	Content        string    `gorm:"type:text;not null"`
	CreatedAt      time.Time `gorm:"index:idx_messages_conversation_created,priority:2"`

	Reads []messageReadRow `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE"`
}

func (messageRow) TableName() string { return "messages" }

type messageReadRow struct {
	MessageID string    `gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `gorm:"primaryKey;type:varchar(36);index"`
	ReadAt    time.Time `gorm:"not null"`
}

func (messageReadRow) TableName() string { return "message_reads" }

func newUserRow(u *models.User) userRow {
	row := userRow{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		College:      u.College,
		Bio:          u.Bio,
		Avatar:       u.Avatar,
		AvatarKey:    u.AvatarKey,
		IsOnline:     u.IsOnline,
		LastActive:   u.LastActive,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	row.Interests = interestRows(u.ID, u.Interests)
	return row
}

func interestRows(userID string, interests []string) []userInterestRow {
	out := make([]userInterestRow, 0, len(interests))
	seen := make(map[string]bool, len(interests))
	for i, interest := range interests {
		if seen[interest] {
			continue
		}
		seen[interest] = true
		out = append(out, userInterestRow{UserID: userID, Interest: interest, Position: i})
	}
	return out
}

func (r *userRow) toModel() models.User {
	sort.SliceStable(r.Interests, func(i, j int) bool { return r.Interests[i].Position < r.Interests[j].Position })
	interests := make([]string, 0, len(r.Interests))
	for _, in := range r.Interests {
		interests = append(interests, in.Interest)
	}
	return models.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		College:      r.College,
		Bio:          r.Bio,
		Avatar:       r.Avatar,
		AvatarKey:    r.AvatarKey,
		Interests:    interests,
		IsOnline:     r.IsOnline,
		LastActive:   r.LastActive,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func newActivityRow(a *models.Activity) activityRow {
	return activityRow{
		ID:              a.ID,
		Name:            a.Name,
		Description:     a.Description,
		Category:        string(a.Category),
		Location:        a.Location,
		Image:           a.Image,
		MaxParticipants: a.MaxParticipants,
		CreatorID:       a.CreatorID,
		StartTime:       a.StartTime,
		EndTime:         a.EndTime,
		IsActive:        a.IsActive,
		Revision:        a.Revision,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
		Participants:    participantRows(a.ID, a.Participants),
	}
}

func participantRows(activityID string, ids []string) []activityParticipantRow {
	out := make([]activityParticipantRow, 0, len(ids))
	for i, id := range ids {
		out = append(out, activityParticipantRow{ActivityID: activityID, UserID: id, Position: i})
	}
	return out
}

func (r *activityRow) toModel() models.Activity {
	sort.SliceStable(r.Participants, func(i, j int) bool { return r.Participants[i].Position < r.Participants[j].Position })
	participants := make([]string, 0, len(r.Participants))
	for _, p := range r.Participants {
		participants = append(participants, p.UserID)
	}
	return models.Activity{
		ID:              r.ID,
		Name:            r.Name,
		Description:     r.Description,
		Category:        models.ActivityCategory(r.Category),
		Location:        r.Location,
		Image:           r.Image,
		MaxParticipants: r.MaxParticipants,
		CreatorID:       r.CreatorID,
		Participants:    participants,
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
		IsActive:        r.IsActive,
		Revision:        r.Revision,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func newConversationRow(c *models.Conversation) conversationRow {
	row := conversationRow{
		ID:            c.ID,
		PairKey:       c.PairKey,
		LastMessage:   c.LastMessage,
		LastMessageAt: c.LastMessageAt,
		Revision:      c.Revision,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
	for i, id := range c.Participants {
		row.Members = append(row.Members, conversationMemberRow{
			ConversationID: c.ID,
			UserID:         id,
			UnreadCount:    c.UnreadFor(id),
			Position:       i,
		})
	}
	return row
}

func (r *conversationRow) toModel() models.Conversation {
	sort.SliceStable(r.Members, func(i, j int) bool { return r.Members[i].Position < r.Members[j].Position })
	c := models.Conversation{
		ID:            r.ID,
		PairKey:       r.PairKey,
		LastMessage:   r.LastMessage,
		LastMessageAt: r.LastMessageAt,
		Unread:        make(map[string]int, len(r.Members)),
		Revision:      r.Revision,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	for _, m := range r.Members {
		c.Participants = append(c.Participants, m.UserID)
		c.Unread[m.UserID] = m.UnreadCount
	}
	return c
}

func newMessageRow(m *models.Message) messageRow {
	row := messageRow{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
	}
	for _, id := range m.ReadBy {
		row.Reads = append(row.Reads, messageReadRow{MessageID: m.ID, UserID: id, ReadAt: m.CreatedAt})
	}
	return row
}

func (r *messageRow) toModel() models.Message {
	sort.SliceStable(r.Reads, func(i, j int) bool { return r.Reads[i].ReadAt.Before(r.Reads[j].ReadAt) })
	readBy := make([]string, 0, len(r.Reads))
	for _, rd := range r.Reads {
		readBy = append(readBy, rd.UserID)
	}
	return models.Message{
		ID:             r.ID,
		ConversationID: r.ConversationID,
		SenderID:       r.SenderID,
		Content:        r.Content,
		ReadBy:         readBy,
		CreatedAt:      r.CreatedAt,
	}
}
