package cache

import (
	"context"
	"testing"
	"time"

	"github.com/Anchal0410/peer-connect/internal/config"
	"github.com/Anchal0410/peer-connect/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func TestNilCachesAreNoops(t *testing.T) {
	ctx := context.Background()

	var pc *PresenceCache
	assert.NoError(t, pc.SetOnline(ctx, "u"))
	assert.NoError(t, pc.SetOffline(ctx, "u"))
	assert.NoError(t, pc.Refresh(ctx, "u"))
	_, known := pc.IsOnline(ctx, "u")
	assert.False(t, known)
	ids, err := pc.OnlineIDs(ctx)
	assert.NoError(t, err)
	assert.Nil(t, ids)

	var cc *ConversationCache
	_, ok := cc.GetList(ctx, "u")
	assert.False(t, ok)
	assert.NoError(t, cc.SetList(ctx, "u", nil))
	assert.NoError(t, cc.Invalidate(ctx, "u", "v"))
}

func setupRedis(t *testing.T) *RedisCache {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	rc := NewRedisCache(config.RedisConfig{Addr: endpoint})
	t.Cleanup(func() { _ = rc.Close() })
	require.NoError(t, rc.Ping(ctx))
	return rc
}

func TestRedisBackedCaches(t *testing.T) {
	rc := setupRedis(t)
	ctx := context.Background()

	t.Run("presence", func(t *testing.T) {
		pc := NewPresenceCache(rc)
		require.NoError(t, pc.SetOnline(ctx, "alice"))
		require.NoError(t, pc.SetOnline(ctx, "bob"))

		online, known := pc.IsOnline(ctx, "alice")
		assert.True(t, known)
		assert.True(t, online)

		require.NoError(t, pc.SetOffline(ctx, "alice"))
		ids, err := pc.OnlineIDs(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"bob"}, ids)

		// A member whose TTL key vanished is pruned on read.
		require.NoError(t, rc.Delete(ctx, onlineKey("bob")))
		ids, err = pc.OnlineIDs(ctx)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("conversation list", func(t *testing.T) {
		cc := NewConversationCache(rc)
		at := time.Now().UTC().Truncate(time.Millisecond)
		list := []models.ConversationResponse{{
			ID:            "c1",
			Participant:   &models.UserSummary{ID: "bob", Name: "Bob"},
			LastMessage:   "hi",
			LastMessageAt: at,
			UnreadCount:   2,
		}}
		require.NoError(t, cc.SetList(ctx, "alice", list))

		got, ok := cc.GetList(ctx, "alice")
		require.True(t, ok)
		require.Len(t, got, 1)
		assert.Equal(t, "bob", got[0].Participant.ID)
		assert.Equal(t, 2, got[0].UnreadCount)
		assert.True(t, at.Equal(got[0].LastMessageAt))

		require.NoError(t, cc.Invalidate(ctx, "alice", "bob"))
		_, ok = cc.GetList(ctx, "alice")
		assert.False(t, ok)
	})
}
