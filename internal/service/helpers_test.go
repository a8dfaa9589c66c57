package service

import (
	"testing"
	"time"

	"github.com/Anchal0410/peer-connect/internal/apperr"
	"github.com/Anchal0410/peer-connect/internal/config"
	"github.com/Anchal0410/peer-connect/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	*testutil.TestHelper
	tokens     *TokenManager
	presence   *PresenceTracker
	auth       *AuthService
	users      *UserService
	activities *ActivityService
	chat       *ChatService
}

func newFixture(t *testing.T, notifier Notifier) *fixture {
	t.Helper()
	h := testutil.NewTestHelper(t)
	log := zap.NewNop()
	clock := Clock(h.Clock.Now)
	limits := config.LimitsConfig{PasswordMinLength: 6, MaxMessageLength: 20}

	tokens := NewTokenManager(config.JWTConfig{Secret: "test-secret-key-for-testing-only", TTL: time.Hour})
	presence := NewPresenceTracker(h.Store.Users, nil, clock, log)
	return &fixture{
		TestHelper: h,
		tokens:     tokens,
		presence:   presence,
		auth:       NewAuthService(h.Store.Users, tokens, presence, limits, clock, log),
		users:      NewUserService(h.Store.Users, h.Store.Activities, presence, log),
		activities: NewActivityService(h.Store.Activities, h.Store.Users, clock, log),
		chat:       NewChatService(h.Store, nil, notifier, limits, clock, log),
	}
}

func requireCode(t *testing.T, err error, code apperr.Code) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, apperr.CodeOf(err), "error: %v", err)
}
