package repository

import (
	"context"
	"time"

	"github.com/Anchal0410/peer-connect/internal/models"
	"gorm.io/gorm"
)

type gormConversationRepository struct {
	db *gorm.DB
}

func newGormConversationRepository(db *gorm.DB) *gormConversationRepository {
	return &gormConversationRepository{db: db}
}

func preloadMembers(db *gorm.DB) *gorm.DB {
	return db.Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("position") })
}

func (r *gormConversationRepository) Create(ctx context.Context, conv *models.Conversation) error {
	row := newConversationRow(conv)
	return translate(r.db.WithContext(ctx).Create(&row).Error, "conversationRepo.Create")
}

func (r *gormConversationRepository) find(ctx context.Context, op string, query string, arg string) (*models.Conversation, error) {
	var row conversationRow
	if err := preloadMembers(r.db.WithContext(ctx)).Where(query, arg).First(&row).Error; err != nil {
		return nil, translate(err, op)
	}
	conv := row.toModel()
	return &conv, nil
}

func (r *gormConversationRepository) FindByID(ctx context.Context, id string) (*models.Conversation, error) {
	return r.find(ctx, "conversationRepo.FindByID", "id = ?", id)
}

func (r *gormConversationRepository) FindByPair(ctx context.Context, userA, userB string) (*models.Conversation, error) {
	return r.find(ctx, "conversationRepo.FindByPair", "pair_key = ?", models.PairKey(userA, userB))
}

func (r *gormConversationRepository) ListForUser(ctx context.Context, userID string) ([]models.Conversation, error) {
	db := r.db.WithContext(ctx)
	var rows []conversationRow
	err := preloadMembers(db).
		Where("id IN (?)", db.Model(&conversationMemberRow{}).Select("conversation_id").Where("user_id = ?", userID)).
		Order("last_message_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, translate(err, "conversationRepo.ListForUser")
	}

	convs := make([]models.Conversation, 0, len(rows))
	for i := range rows {
		convs = append(convs, rows[i].toModel())
	}
	return convs, nil
}

func (r *gormConversationRepository) Save(ctx context.Context, conv *models.Conversation) error {
	now := time.Now().UTC()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&conversationRow{}).
			Where("id = ? AND revision = ?", conv.ID, conv.Revision).
			Updates(map[string]interface{}{
				"last_message":    conv.LastMessage,
				"last_message_at": conv.LastMessageAt,
				"revision":        conv.Revision + 1,
				"updated_at":      now,
			})
		if res.Error != nil {
			return translate(res.Error, "conversationRepo.Save")
		}
		if res.RowsAffected == 0 {
			if err := checkAffected(tx, res, &conversationRow{}, conv.ID); err != nil {
				return err
			}
			return ErrConflict
		}

		for _, userID := range conv.Participants {
			err := tx.Model(&conversationMemberRow{}).
				Where("conversation_id = ? AND user_id = ?", conv.ID, userID).
				Update("unread_count", conv.UnreadFor(userID)).Error
			if err != nil {
				return translate(err, "conversationRepo.Save.Members")
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	conv.Revision++
	conv.UpdatedAt = now
	return nil
}
