package service

import (
	"context"
	"strings"
	"testing"

	"github.com/Anchal0410/peer-connect/internal/apperr"
	"github.com/Anchal0410/peer-connect/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userIDs(users []models.User) []string {
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	user := f.CreateTestUser("Kiran", "kiran@example.edu", "IIT Bombay")

	name := "  Kiran S  "
	bio := "Weekend hiker"
	interests := []string{"Hiking", "Hiking ", "  ", "Photography"}
	updated, err := f.users.UpdateProfile(ctx, user.ID, UpdateProfileInput{Name: &name, Bio: &bio, Interests: &interests})
	require.NoError(t, err)
	assert.Equal(t, "Kiran S", updated.Name)
	assert.Equal(t, "IIT Bombay", updated.College)
	assert.Equal(t, []string{"Hiking", "Photography"}, updated.Interests)

	t.Run("sad path - bio too long", func(t *testing.T) {
		long := strings.Repeat("b", 251)
		_, err := f.users.UpdateProfile(ctx, user.ID, UpdateProfileInput{Bio: &long})
		requireCode(t, err, apperr.CodeInvalidArgument)
	})

	t.Run("sad path - blank college", func(t *testing.T) {
		blank := " "
		_, err := f.users.UpdateProfile(ctx, user.ID, UpdateProfileInput{College: &blank})
		requireCode(t, err, apperr.CodeInvalidArgument)
	})

	t.Run("sad path - unknown user", func(t *testing.T) {
		_, err := f.users.GetByID(ctx, "missing")
		requireCode(t, err, apperr.CodeNotFound)
	})
}

func TestListOnlineAndSearch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	me := f.CreateTestUser("Zara", "zara@example.edu", "IIT Delhi", "chess")
	anil := f.CreateTestUser("Anil", "anil@example.edu", "IIT Delhi", "chess", "cricket")
	bina := f.CreateTestUser("Bina", "bina@example.edu", "NIT Warangal", "music")

	require.NoError(t, f.presence.MarkOnline(ctx, me.ID))
	require.NoError(t, f.presence.MarkOnline(ctx, anil.ID))

	online, err := f.users.ListOnline(ctx, me.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{anil.ID}, userIDs(online))

	tests := []struct {
		name string
		in   SearchInput
		want []string
	}{
		{"by name", SearchInput{Query: "bin"}, []string{bina.ID}},
		{"by email", SearchInput{Query: "ANIL@"}, []string{anil.ID}},
		{"by college", SearchInput{College: "iit"}, []string{anil.ID}},
		{"by interest", SearchInput{Interests: []string{"music", "cricket"}}, []string{anil.ID, bina.ID}},
		{"caller excluded", SearchInput{Query: "zara"}, []string{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := f.users.Search(ctx, me.ID, tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, userIDs(got))
		})
	}
}

func TestSuggestions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	me := f.CreateTestUser("Me", "me@example.edu", "IIT Delhi")
	bob := f.CreateTestUser("Bob", "bob@example.edu", "IIT Delhi")
	carol := f.CreateTestUser("Carol", "carol@example.edu", "IIT Delhi")
	f.CreateTestUser("Dave", "dave@example.edu", "IIT Delhi")

	f.CreateTestActivity(me.ID, "Football", models.CategorySports, 0)
	f.CreateTestActivity(bob.ID, "Tennis", models.CategorySports, 0)
	f.CreateTestActivity(bob.ID, "Quiz night", models.CategoryStudy, 0)
	require.NoError(t, f.presence.MarkOnline(ctx, carol.ID))

	got, err := f.users.Suggestions(ctx, me.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{bob.ID, carol.ID}, userIDs(got))

	t.Run("limit caps the result", func(t *testing.T) {
		got, err := f.users.Suggestions(ctx, me.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, []string{bob.ID}, userIDs(got))
	})

	t.Run("no activities falls back to online users", func(t *testing.T) {
		got, err := f.users.Suggestions(ctx, carol.ID, 0)
		require.NoError(t, err)
		assert.Empty(t, got)

		require.NoError(t, f.presence.MarkOnline(ctx, bob.ID))
		got, err = f.users.Suggestions(ctx, carol.ID, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{bob.ID}, userIDs(got))
	})
}

func TestStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	a := f.CreateTestUser("A", "a@example.edu", "X")
	b := f.CreateTestUser("B", "b@example.edu", "X")
	require.NoError(t, f.presence.MarkOnline(ctx, a.ID))

	got, err := f.users.Status(ctx, []string{a.ID, b.ID, "unknown"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[a.ID].IsOnline)
	assert.False(t, got[b.ID].IsOnline)

	t.Run("sad path - empty ids", func(t *testing.T) {
		_, err := f.users.Status(ctx, nil)
		requireCode(t, err, apperr.CodeInvalidArgument)
		assert.Equal(t, "User IDs must be a non-empty array", apperr.Message(err))
	})

	t.Run("sad path - too many ids", func(t *testing.T) {
		_, err := f.users.Status(ctx, make([]string, 101))
		requireCode(t, err, apperr.CodeInvalidArgument)
	})
}
