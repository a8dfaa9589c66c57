package mongostore

import (
	"context"
	"testing"
	"time"

	"github.com/Anchal0410/peer-connect/internal/models"
	"github.com/Anchal0410/peer-connect/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

func setupMongo(t *testing.T) *repository.Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := OpenConnection(ctx, uri, "peer_connect_test")
	require.NoError(t, err)
	require.NoError(t, EnsureIndexes(ctx, db))

	store := NewStore(db)
	t.Cleanup(func() { _ = store.Close(ctx) })
	return store
}

func TestMongoStore(t *testing.T) {
	store := setupMongo(t)
	ctx := context.Background()
	at := time.Now().UTC().Truncate(time.Millisecond)

	t.Run("users", func(t *testing.T) {
		u := &models.User{ID: uuid.NewString(), Name: "Alice", Email: "alice@uni.edu", College: "MIT", CreatedAt: at}
		require.NoError(t, store.Users.Create(ctx, u))
		assert.ErrorIs(t, store.Users.Create(ctx, &models.User{ID: uuid.NewString(), Email: "alice@uni.edu"}), repository.ErrDuplicate)

		require.NoError(t, store.Users.SetPresence(ctx, u.ID, true, at))
		online, err := store.Users.ListOnline(ctx, "", 10)
		require.NoError(t, err)
		require.Len(t, online, 1)
		assert.Equal(t, u.ID, online[0].ID)

		found, err := store.Users.Search(ctx, repository.UserSearch{Query: "ALI"})
		require.NoError(t, err)
		assert.Len(t, found, 1)

		_, err = store.Users.FindByID(ctx, "missing")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("activity revision", func(t *testing.T) {
		a := &models.Activity{ID: uuid.NewString(), Name: "Chess Club", Category: models.CategoryGaming,
			CreatorID: "c", Participants: []string{"c"}, MaxParticipants: 2, IsActive: true, CreatedAt: at}
		require.NoError(t, store.Activities.Create(ctx, a))

		first, err := store.Activities.FindByID(ctx, a.ID)
		require.NoError(t, err)
		stale, err := store.Activities.FindByID(ctx, a.ID)
		require.NoError(t, err)

		require.NoError(t, first.AddParticipant("u"))
		require.NoError(t, store.Activities.Save(ctx, first))
		require.NoError(t, stale.AddParticipant("v"))
		assert.ErrorIs(t, store.Activities.Save(ctx, stale), repository.ErrConflict)

		mine, total, err := store.Activities.List(ctx, repository.ActivityFilter{ParticipantID: "u", ActiveOnly: true})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, a.ID, mine[0].ID)

		_, total, err = store.Activities.List(ctx, repository.ActivityFilter{ExcludeParticipantID: "u"})
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("conversation and messages", func(t *testing.T) {
		conv := models.NewConversation(uuid.NewString(), "a", "b", at)
		require.NoError(t, store.Conversations.Create(ctx, conv))
		assert.ErrorIs(t, store.Conversations.Create(ctx, models.NewConversation(uuid.NewString(), "b", "a", at)), repository.ErrDuplicate)

		for i := 0; i < 3; i++ {
			msg := models.NewMessage(uuid.NewString(), conv.ID, "a", "hi", at.Add(time.Duration(i)*time.Millisecond))
			require.NoError(t, store.Messages.Create(ctx, msg))
		}

		page, err := store.Messages.ListPage(ctx, conv.ID, nil, 2)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.True(t, page[0].CreatedAt.After(page[1].CreatedAt))

		tiedAt := at.Add(time.Second)
		tiedConv := uuid.NewString()
		var sent []string
		for i := 0; i < 3; i++ {
			id, err := uuid.NewV7()
			require.NoError(t, err)
			msg := models.NewMessage(id.String(), tiedConv, "a", "tied", tiedAt)
			require.NoError(t, store.Messages.Create(ctx, msg))
			sent = append([]string{msg.ID}, sent...)
		}
		first, err := store.Messages.ListPage(ctx, tiedConv, nil, 2)
		require.NoError(t, err)
		require.Len(t, first, 2)
		cursor := &repository.MessageCursor{CreatedAt: first[1].CreatedAt, ID: first[1].ID}
		rest, err := store.Messages.ListPage(ctx, tiedConv, cursor, 1)
		require.NoError(t, err)
		require.Len(t, rest, 1)
		assert.Equal(t, sent, []string{first[0].ID, first[1].ID, rest[0].ID})

		changed, err := store.Messages.MarkReadBy(ctx, conv.ID, "b")
		require.NoError(t, err)
		assert.Equal(t, int64(3), changed)

		unread, err := store.Messages.CountUnread(ctx, conv.ID, "b")
		require.NoError(t, err)
		assert.Zero(t, unread)

		conv.RecordSend("a", "hi", at)
		require.NoError(t, store.Conversations.Save(ctx, conv))
		got, err := store.Conversations.FindByPair(ctx, "b", "a")
		require.NoError(t, err)
		assert.Equal(t, 1, got.UnreadFor("b"))
	})
}

func TestFilterMergesRepeatedFields(t *testing.T) {
	got := NewFilter().Eq("participants", "u").Ne("participants", "v").Build()
	assert.Equal(t, "u", got["participants"])
	require.Contains(t, got, "$and")
}
