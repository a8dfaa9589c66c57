package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Anchal0410/peer-connect/internal/apperr"
	"github.com/Anchal0410/peer-connect/internal/config"
	"github.com/Anchal0410/peer-connect/internal/testutil"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRegister() RegisterInput {
	return RegisterInput{
		Name:      "Asha Rao",
		Email:     "Asha@Example.edu",
		Password:  "secret123",
		College:   "IIT Delhi",
		Bio:       "Chess and chai",
		Interests: []string{"chess", "chess", "football"},
	}
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path - creates an online user and a token", func(t *testing.T) {
		f := newFixture(t, nil)

		resp, err := f.auth.Register(ctx, validRegister())
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "asha@example.edu", resp.User.Email)
		assert.Equal(t, []string{"chess", "football"}, resp.User.Interests)
		assert.True(t, resp.User.IsOnline)

		id, err := f.tokens.Verify(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, resp.User.ID, id)

		stored, err := f.Store.Users.FindByID(ctx, id)
		require.NoError(t, err)
		assert.NotEqual(t, "secret123", stored.PasswordHash)
		assert.True(t, stored.IsOnline)
	})

	t.Run("sad path - duplicate email", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.auth.Register(ctx, validRegister())
		require.NoError(t, err)

		in := validRegister()
		in.Email = "  ASHA@example.edu "
		_, err = f.auth.Register(ctx, in)
		requireCode(t, err, apperr.CodeAlreadyExists)
		assert.Equal(t, "User already exists", apperr.Message(err))
	})

	invalid := []struct {
		name    string
		mutate  func(in *RegisterInput)
		message string
	}{
		{"missing name", func(in *RegisterInput) { in.Name = "   " }, "Name is required"},
		{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }, "Please include a valid email"},
		{"display-name email", func(in *RegisterInput) { in.Email = "Asha <asha@example.edu>" }, "Please include a valid email"},
		{"short password", func(in *RegisterInput) { in.Password = "12345" }, "Password must be at least 6 characters"},
		{"missing college", func(in *RegisterInput) { in.College = "" }, "College name is required"},
		{"long bio", func(in *RegisterInput) { in.Bio = strings.Repeat("x", 251) }, "Bio must be at most 250 characters"},
	}
	for _, tc := range invalid {
		t.Run("sad path - "+tc.name, func(t *testing.T) {
			f := newFixture(t, nil)
			in := validRegister()
			tc.mutate(&in)

			_, err := f.auth.Register(ctx, in)
			requireCode(t, err, apperr.CodeInvalidArgument)
			assert.Equal(t, tc.message, apperr.Message(err))
		})
	}
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	user := f.CreateTestUser("Ravi", "ravi@example.edu", "NIT Trichy")

	t.Run("happy path - marks user online", func(t *testing.T) {
		resp, err := f.auth.Login(ctx, LoginInput{Email: "RAVI@example.edu", Password: testutil.DefaultPassword})
		require.NoError(t, err)
		assert.Equal(t, user.ID, resp.User.ID)
		assert.True(t, resp.User.IsOnline)

		stored, err := f.Store.Users.FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, stored.IsOnline)
	})

	t.Run("sad path - wrong password and unknown email look the same", func(t *testing.T) {
		_, errWrong := f.auth.Login(ctx, LoginInput{Email: "ravi@example.edu", Password: "nope-nope"})
		_, errUnknown := f.auth.Login(ctx, LoginInput{Email: "ghost@example.edu", Password: testutil.DefaultPassword})

		requireCode(t, errWrong, apperr.CodeUnauthenticated)
		requireCode(t, errUnknown, apperr.CodeUnauthenticated)
		assert.Equal(t, apperr.Message(errWrong), apperr.Message(errUnknown))
		assert.Equal(t, "Invalid credentials", apperr.Message(errWrong))
	})

	t.Run("sad path - missing password", func(t *testing.T) {
		_, err := f.auth.Login(ctx, LoginInput{Email: "ravi@example.edu"})
		requireCode(t, err, apperr.CodeInvalidArgument)
	})
}

func TestAuthenticateAndLogout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	user := f.CreateTestUser("Meera", "meera@example.edu", "BITS Pilani")

	token, err := f.tokens.Issue(user.ID)
	require.NoError(t, err)

	got, err := f.auth.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	t.Run("sad path - garbage token", func(t *testing.T) {
		_, err := f.auth.Authenticate(ctx, "not.a.token")
		requireCode(t, err, apperr.CodeUnauthenticated)
		assert.Equal(t, "Not authorized to access this route", apperr.Message(err))
	})

	t.Run("sad path - valid token for a missing user", func(t *testing.T) {
		orphan, err := f.tokens.Issue("00000000-0000-0000-0000-000000000000")
		require.NoError(t, err)
		_, err = f.auth.Authenticate(ctx, orphan)
		requireCode(t, err, apperr.CodeUnauthenticated)
	})

	require.NoError(t, f.presence.MarkOnline(ctx, user.ID))
	require.NoError(t, f.auth.Logout(ctx, user.ID))
	stored, err := f.Store.Users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsOnline)
}

func TestTokenManager(t *testing.T) {
	tm := NewTokenManager(config.JWTConfig{Secret: "first-secret", TTL: time.Hour})

	token, err := tm.Issue("user-1")
	require.NoError(t, err)
	id, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id)

	t.Run("sad path - other secret", func(t *testing.T) {
		other := NewTokenManager(config.JWTConfig{Secret: "second-secret", TTL: time.Hour})
		_, err := other.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("sad path - expired", func(t *testing.T) {
		old := NewTokenManager(config.JWTConfig{Secret: "first-secret", TTL: time.Minute})
		old.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		expired, err := old.Issue("user-1")
		require.NoError(t, err)
		_, err = tm.Verify(expired)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("sad path - unsigned token", func(t *testing.T) {
		claims := Claims{UserID: "user-1", RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = tm.Verify(unsigned)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("default ttl", func(t *testing.T) {
		assert.Equal(t, 7*24*time.Hour, NewTokenManager(config.JWTConfig{Secret: "s"}).ttl)
	})
}
