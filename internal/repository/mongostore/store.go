// Package mongostore backs the repository contracts with MongoDB.
package mongostore

import (
	"context"
	"time"

	"github.com/Anchal0410/peer-connect/internal/models"
	"github.com/Anchal0410/peer-connect/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection         = "users"
	activitiesCollection    = "activities"
	conversationsCollection = "conversations"
	messagesCollection      = "messages"
)

// EnsureIndexes creates the unique and lookup indexes the repositories rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "is_online", Value: 1}, {Key: "last_active", Value: -1}}},
		},
		activitiesCollection: {
			{Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "participants", Value: 1}}},
		},
		conversationsCollection: {
			{Keys: bson.D{{Key: "pair_key", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "participants", Value: 1}, {Key: "last_message_at", Value: -1}}},
		},
		messagesCollection: {
			{Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
	}
	for name, specs := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, specs); err != nil {
			return translate(err, "CreateIndexes."+name)
		}
	}
	return nil
}

// NewStore wires the four repositories onto db. Close disconnects the client.
func NewStore(db *mongo.Database) *repository.Store {
	return repository.NewStore(
		&userRepo{users: NewCollection[models.User](db, usersCollection)},
		&activityRepo{activities: NewCollection[models.Activity](db, activitiesCollection)},
		&conversationRepo{conversations: NewCollection[models.Conversation](db, conversationsCollection)},
		&messageRepo{messages: NewCollection[models.Message](db, messagesCollection)},
		func(ctx context.Context) error { return db.Client().Disconnect(ctx) },
	)
}

func now() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }

type userRepo struct {
	users *Collection[models.User]
}

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	if user.Interests == nil {
		user.Interests = []string{}
	}
	return r.users.Insert(ctx, user)
}

func (r *userRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.users.FindByID(ctx, id)
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.users.FindOne(ctx, bson.M{"email": email})
}

func (r *userRepo) FindByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	return r.users.FindAll(ctx, NewFilter().In("_id", ids).Build())
}

func (r *userRepo) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = now()
	interests := user.Interests
	if interests == nil {
		interests = []string{}
	}
	matched, err := r.users.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": bson.M{
		"name":       user.Name,
		"email":      user.Email,
		"college":    user.College,
		"bio":        user.Bio,
		"avatar":     user.Avatar,
		"avatar_key": user.AvatarKey,
		"interests":  interests,
		"updated_at": user.UpdatedAt,
	}})
	if err != nil {
		return err
	}
	if !matched {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepo) SetPresence(ctx context.Context, id string, online bool, at time.Time) error {
	matched, err := r.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"is_online":   online,
		"last_active": at,
	}})
	if err != nil {
		return err
	}
	if !matched {
		return repository.ErrNotFound
	}
	return nil
}

func recentFirst(limit int) *options.FindOptions {
	opts := options.Find().SetSort(bson.D{{Key: "last_active", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return opts
}

func (r *userRepo) ListOnline(ctx context.Context, excludeID string, limit int) ([]models.User, error) {
	f := NewFilter().Eq("is_online", true)
	if excludeID != "" {
		f.Ne("_id", excludeID)
	}
	return r.users.FindAll(ctx, f.Build(), recentFirst(limit))
}

func (r *userRepo) Search(ctx context.Context, filter repository.UserSearch) ([]models.User, error) {
	f := NewFilter()
	if filter.ExcludeID != "" {
		f.Ne("_id", filter.ExcludeID)
	}
	if filter.Query != "" {
		f.Or(
			NewFilter().Contains("name", filter.Query).Build(),
			NewFilter().Contains("email", filter.Query).Build(),
		)
	}
	if filter.College != "" {
		f.Contains("college", filter.College)
	}
	if len(filter.Interests) > 0 {
		f.In("interests", filter.Interests)
	}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	return r.users.FindAll(ctx, f.Build(), opts)
}

func (r *userRepo) ListRecentlyActive(ctx context.Context, excludeIDs []string, limit int) ([]models.User, error) {
	f := NewFilter().Eq("is_online", true)
	if len(excludeIDs) > 0 {
		f.NotIn("_id", excludeIDs)
	}
	return r.users.FindAll(ctx, f.Build(), recentFirst(limit))
}

type activityRepo struct {
	activities *Collection[models.Activity]
}

func (r *activityRepo) Create(ctx context.Context, activity *models.Activity) error {
	if activity.Participants == nil {
		activity.Participants = []string{}
	}
	return r.activities.Insert(ctx, activity)
}

func (r *activityRepo) FindByID(ctx context.Context, id string) (*models.Activity, error) {
	return r.activities.FindByID(ctx, id)
}

func (r *activityRepo) List(ctx context.Context, filter repository.ActivityFilter) ([]models.Activity, int64, error) {
	f := NewFilter()
	if filter.ActiveOnly {
		f.Eq("is_active", true)
	}
	if len(filter.Categories) > 0 {
		f.In("category", filter.Categories)
	}
	if filter.ParticipantID != "" {
		f.Eq("participants", filter.ParticipantID)
	}
	if filter.ExcludeParticipantID != "" {
		f.Ne("participants", filter.ExcludeParticipantID)
	}
	query := f.Build()

	total, err := r.activities.Count(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	if filter.Limit > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		opts.SetSkip(int64((page - 1) * filter.Limit)).SetLimit(int64(filter.Limit))
	}
	list, err := r.activities.FindAll(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *activityRepo) Save(ctx context.Context, activity *models.Activity) error {
	updatedAt := now()
	participants := activity.Participants
	if participants == nil {
		participants = []string{}
	}
	err := r.activities.casUpdate(ctx, activity.ID, activity.Revision, bson.M{
		"name":             activity.Name,
		"description":      activity.Description,
		"category":         activity.Category,
		"location":         activity.Location,
		"image":            activity.Image,
		"max_participants": activity.MaxParticipants,
		"participants":     participants,
		"start_time":       activity.StartTime,
		"end_time":         activity.EndTime,
		"is_active":        activity.IsActive,
		"updated_at":       updatedAt,
	})
	if err != nil {
		return err
	}
	activity.Revision++
	activity.UpdatedAt = updatedAt
	return nil
}

func (r *activityRepo) Delete(ctx context.Context, id string) error {
	deleted, err := r.activities.DeleteByID(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return repository.ErrNotFound
	}
	return nil
}

type conversationRepo struct {
	conversations *Collection[models.Conversation]
}

func (r *conversationRepo) Create(ctx context.Context, conv *models.Conversation) error {
	return r.conversations.Insert(ctx, conv)
}

func (r *conversationRepo) FindByID(ctx context.Context, id string) (*models.Conversation, error) {
	return r.conversations.FindByID(ctx, id)
}

func (r *conversationRepo) FindByPair(ctx context.Context, userA, userB string) (*models.Conversation, error) {
	return r.conversations.FindOne(ctx, bson.M{"pair_key": models.PairKey(userA, userB)})
}

func (r *conversationRepo) ListForUser(ctx context.Context, userID string) ([]models.Conversation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "last_message_at", Value: -1}})
	return r.conversations.FindAll(ctx, bson.M{"participants": userID}, opts)
}

func (r *conversationRepo) Save(ctx context.Context, conv *models.Conversation) error {
	updatedAt := now()
	err := r.conversations.casUpdate(ctx, conv.ID, conv.Revision, bson.M{
		"last_message":    conv.LastMessage,
		"last_message_at": conv.LastMessageAt,
		"unread":          conv.Unread,
		"updated_at":      updatedAt,
	})
	if err != nil {
		return err
	}
	conv.Revision++
	conv.UpdatedAt = updatedAt
	return nil
}

type messageRepo struct {
	messages *Collection[models.Message]
}

func (r *messageRepo) Create(ctx context.Context, msg *models.Message) error {
	return r.messages.Insert(ctx, msg)
}

func (r *messageRepo) ListPage(ctx context.Context, conversationID string, before *repository.MessageCursor, limit int) ([]models.Message, error) {
	f := NewFilter().Eq("conversation_id", conversationID)
	switch {
	case before == nil:
	case before.ID == "":
		f.Lt("created_at", before.CreatedAt)
	default:
		f.Or(
			bson.M{"created_at": bson.M{"$lt": before.CreatedAt}},
			bson.M{"created_at": before.CreatedAt, "_id": bson.M{"$lt": before.ID}},
		)
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return r.messages.FindAll(ctx, f.Build(), opts)
}

func unreadBy(conversationID, readerID string) bson.M {
	return NewFilter().
		Eq("conversation_id", conversationID).
		Ne("sender_id", readerID).
		Ne("read_by", readerID).
		Build()
}

func (r *messageRepo) MarkReadBy(ctx context.Context, conversationID, readerID string) (int64, error) {
	return r.messages.UpdateMany(ctx, unreadBy(conversationID, readerID), bson.M{
		"$addToSet": bson.M{"read_by": readerID},
	})
}

func (r *messageRepo) CountUnread(ctx context.Context, conversationID, readerID string) (int64, error) {
	return r.messages.Count(ctx, unreadBy(conversationID, readerID))
}
