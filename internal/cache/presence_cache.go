package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	OnlineUsersTTL = 90 * time.Second // matches the websocket pong timeout

	onlineSetKey = "online:users"
)

func onlineKey(userID string) string {
	return fmt.Sprintf("online:%s", userID)
}

// PresenceCache mirrors who holds a live socket. A nil PresenceCache is a no-op.
type PresenceCache struct {
	redis *RedisCache
}

func NewPresenceCache(redis *RedisCache) *PresenceCache {
	return &PresenceCache{redis: redis}
}

// SetOnline adds the user to the online set and arms a TTL key that expires
// unless refreshed by a heartbeat.
func (pc *PresenceCache) SetOnline(ctx context.Context, userID string) error {
	if pc == nil || pc.redis == nil {
		return nil
	}
	if err := pc.redis.SetAdd(ctx, onlineSetKey, userID); err != nil {
		return err
	}
	return pc.redis.Set(ctx, onlineKey(userID), []byte("1"), OnlineUsersTTL)
}

func (pc *PresenceCache) SetOffline(ctx context.Context, userID string) error {
	if pc == nil || pc.redis == nil {
		return nil
	}
	if err := pc.redis.SetRemove(ctx, onlineSetKey, userID); err != nil {
		return err
	}
	return pc.redis.Delete(ctx, onlineKey(userID))
}

// Refresh extends the TTL for an online user
func (pc *PresenceCache) Refresh(ctx context.Context, userID string) error {
	if pc == nil || pc.redis == nil {
		return nil
	}
	return pc.redis.Set(ctx, onlineKey(userID), []byte("1"), OnlineUsersTTL)
}

// IsOnline reports the cached state. known is false when the cache cannot answer.
func (pc *PresenceCache) IsOnline(ctx context.Context, userID string) (online bool, known bool) {
	if pc == nil || pc.redis == nil {
		return false, false
	}
	return pc.redis.Exists(ctx, onlineKey(userID)), true
}

// OnlineIDs returns members of the online set whose TTL key is still live.
// Stale members are pruned.
func (pc *PresenceCache) OnlineIDs(ctx context.Context) ([]string, error) {
	if pc == nil || pc.redis == nil {
		return nil, nil
	}
	members, err := pc.redis.SetMembers(ctx, onlineSetKey)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(members))
	for _, id := range members {
		if pc.redis.Exists(ctx, onlineKey(id)) {
			ids = append(ids, id)
			continue
		}
		_ = pc.redis.SetRemove(ctx, onlineSetKey, id)
	}
	return ids, nil
}
