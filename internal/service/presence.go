package service

import (
	"context"
	"errors"
	"time"

	"github.com/Anchal0410/peer-connect/internal/cache"
	"github.com/Anchal0410/peer-connect/internal/repository"
	"go.uber.org/zap"
)

// PresenceStatus is one entry of a bulk status lookup.
type PresenceStatus struct {
	IsOnline   bool      `json:"is_online"`
	LastActive time.Time `json:"last_active"`
}

// PresenceTracker keeps the stored online flag and the Redis mirror in step.
// The store is authoritative; cache errors are logged and ignored.
type PresenceTracker struct {
	users repository.UserRepository
	cache *cache.PresenceCache
	now   Clock
	log   *zap.Logger
}

func NewPresenceTracker(users repository.UserRepository, pc *cache.PresenceCache, now Clock, log *zap.Logger) *PresenceTracker {
	return &PresenceTracker{users: users, cache: pc, now: clockOrSystem(now), log: log.Named("presence")}
}

func (p *PresenceTracker) MarkOnline(ctx context.Context, userID string) error {
	return p.set(ctx, userID, true)
}

func (p *PresenceTracker) MarkOffline(ctx context.Context, userID string) error {
	return p.set(ctx, userID, false)
}

func (p *PresenceTracker) set(ctx context.Context, userID string, online bool) error {
	if err := p.users.SetPresence(ctx, userID, online, p.now()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errUserNotFound
		}
		return storeFailure(p.log, "SetPresence", err)
	}

	var err error
	if online {
		err = p.cache.SetOnline(ctx, userID)
	} else {
		err = p.cache.SetOffline(ctx, userID)
	}
	if err != nil {
		p.log.Warn("presence cache update failed", zap.String("user_id", userID), zap.Error(err))
	}
	return nil
}

// Heartbeat extends the cached online TTL of a connected user.
func (p *PresenceTracker) Heartbeat(ctx context.Context, userID string) {
	if err := p.cache.Refresh(ctx, userID); err != nil {
		p.log.Debug("presence refresh failed", zap.String("user_id", userID), zap.Error(err))
	}
}

// Status returns the presence of every known id in ids. Unknown ids are omitted.
// When the cache answers, its view of "online" wins over the stored flag.
func (p *PresenceTracker) Status(ctx context.Context, ids []string) (map[string]PresenceStatus, error) {
	users, err := p.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, storeFailure(p.log, "FindByIDs", err)
	}
	out := make(map[string]PresenceStatus, len(users))
	for _, u := range users {
		st := PresenceStatus{IsOnline: u.IsOnline, LastActive: u.LastActive}
		if online, known := p.cache.IsOnline(ctx, u.ID); known {
			st.IsOnline = online
		}
		out[u.ID] = st
	}
	return out, nil
}
