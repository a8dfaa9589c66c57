package testutil

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Anchal0410/peer-connect/internal/models"
	"github.com/Anchal0410/peer-connect/internal/repository"
	"github.com/Anchal0410/peer-connect/internal/repository/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// DefaultPassword is the plain-text password of every seeded user.
const DefaultPassword = "password123"

// TestHelper seeds an in-memory store for service and handler tests.
type TestHelper struct {
	t     *testing.T
	Store *repository.Store
	Clock *Clock
}

func NewTestHelper(t *testing.T) *TestHelper {
	t.Helper()
	return &TestHelper{
		t:     t,
		Store: memory.NewStore().Repositories(),
		Clock: NewClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)),
	}
}

// CreateTestUser stores an offline user with DefaultPassword.
func (h *TestHelper) CreateTestUser(name, email, college string, interests ...string) *models.User {
	h.t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	require.NoError(h.t, err)

	now := h.Clock.Now()
	user := &models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		College:      college,
		Interests:    interests,
		LastActive:   now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(h.t, h.Store.Users.Create(context.Background(), user))
	return user
}

// CreateTestActivity stores an active activity with the creator on the roster.
func (h *TestHelper) CreateTestActivity(creatorID, name string, category models.ActivityCategory, max int) *models.Activity {
	h.t.Helper()
	now := h.Clock.Now()
	a := &models.Activity{
		ID:              uuid.NewString(),
		Name:            name,
		Description:     name + " meetup",
		Category:        category,
		MaxParticipants: max,
		CreatorID:       creatorID,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	a.EnsureCreatorParticipant()
	require.NoError(h.t, h.Store.Activities.Create(context.Background(), a))
	return a
}

// SetupTestEnv sets up required environment variables for testing
func (h *TestHelper) SetupTestEnv() {
	os.Setenv("JWT_SECRET", "test-secret-key-for-testing-only")
	os.Setenv("STORE_DRIVER", "memory")
	h.t.Cleanup(h.TeardownTestEnv)
}

// TeardownTestEnv cleans up environment variables after testing
func (h *TestHelper) TeardownTestEnv() {
	os.Unsetenv("JWT_SECRET")
	os.Unsetenv("STORE_DRIVER")
}

// Clock is a manually advanced clock. Every call to Now moves it forward one
// millisecond so consecutive records get distinct, ordered timestamps.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start.UTC().Truncate(time.Millisecond)}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
