package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/Anchal0410/peer-connect/internal/models"
	"github.com/vmihailenco/msgpack/v5"
)

const ConversationListTTL = 2 * time.Minute

func conversationListKey(userID string) string {
	return fmt.Sprintf("convlist:%s", userID)
}

// ConversationCache stores each user's rendered conversation list.
// A nil ConversationCache misses on every read.
type ConversationCache struct {
	redis *RedisCache
}

func NewConversationCache(redis *RedisCache) *ConversationCache {
	return &ConversationCache{redis: redis}
}

func (cc *ConversationCache) GetList(ctx context.Context, userID string) ([]models.ConversationResponse, bool) {
	if cc == nil || cc.redis == nil {
		return nil, false
	}
	data, err := cc.redis.Get(ctx, conversationListKey(userID))
	if err != nil || data == nil {
		return nil, false
	}

	var list []models.ConversationResponse
	if err := msgpack.Unmarshal(data, &list); err != nil {
		return nil, false
	}
	return list, true
}

func (cc *ConversationCache) SetList(ctx context.Context, userID string, list []models.ConversationResponse) error {
	if cc == nil || cc.redis == nil {
		return nil
	}
	data, err := msgpack.Marshal(list)
	if err != nil {
		return err
	}
	return cc.redis.Set(ctx, conversationListKey(userID), data, ConversationListTTL)
}

// Invalidate drops the cached list of every given user.
func (cc *ConversationCache) Invalidate(ctx context.Context, userIDs ...string) error {
	if cc == nil || cc.redis == nil || len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, conversationListKey(id))
	}
	return cc.redis.Delete(ctx, keys...)
}
