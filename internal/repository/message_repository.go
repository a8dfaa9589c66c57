package repository

import (
	"context"
	"time"

	"github.com/Anchal0410/peer-connect/internal/models"
	"gorm.io/gorm"
)

type gormMessageRepository struct {
	db *gorm.DB
}

func newGormMessageRepository(db *gorm.DB) *gormMessageRepository {
	return &gormMessageRepository{db: db}
}

func (r *gormMessageRepository) Create(ctx context.Context, msg *models.Message) error {
	row := newMessageRow(msg)
	return translate(r.db.WithContext(ctx).Create(&row).Error, "messageRepo.Create")
}

func (r *gormMessageRepository) ListPage(ctx context.Context, conversationID string, before *MessageCursor, limit int) ([]models.Message, error) {
	q := r.db.WithContext(ctx).
		Preload("Reads").
		Where("conversation_id = ?", conversationID)
	if before != nil {
		at := before.CreatedAt.UTC()
		if before.ID == "" {
			q = q.Where("created_at < ?", at)
		} else {
			q = q.Where("created_at < ? OR (created_at = ? AND id < ?)", at, at, before.ID)
		}
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []messageRow
	if err := q.Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, translate(err, "messageRepo.ListPage")
	}

	messages := make([]models.Message, 0, len(rows))
	for i := range rows {
		messages = append(messages, rows[i].toModel())
	}
	return messages, nil
}

func (r *gormMessageRepository) MarkReadBy(ctx context.Context, conversationID, readerID string) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
INSERT INTO message_reads (message_id, user_id, read_at)
SELECT m.id, ?, ?
FROM messages m
WHERE m.conversation_id = ?
  AND m.sender_id <> ?
  AND NOT EXISTS (
	SELECT 1 FROM message_reads r WHERE r.message_id = m.id AND r.user_id = ?
  )`,
		readerID, time.Now().UTC(), conversationID, readerID, readerID,
	)
	if res.Error != nil {
		return 0, translate(res.Error, "messageRepo.MarkReadBy")
	}
	return res.RowsAffected, nil
}

func (r *gormMessageRepository) CountUnread(ctx context.Context, conversationID, readerID string) (int64, error) {
	db := r.db.WithContext(ctx)
	var count int64
	err := db.Model(&messageRow{}).
		Where("conversation_id = ? AND sender_id <> ?", conversationID, readerID).
		Where("NOT EXISTS (?)", db.Model(&messageReadRow{}).Select("1").
			Where("message_reads.message_id = messages.id AND message_reads.user_id = ?", readerID)).
		Count(&count).Error
	if err != nil {
		return 0, translate(err, "messageRepo.CountUnread")
	}
	return count, nil
}
