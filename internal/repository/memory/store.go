// Package memory is an in-process store. State lives as long as the Store value.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Anchal0410/peer-connect/internal/models"
	"github.com/Anchal0410/peer-connect/internal/repository"
)

type Store struct {
	mu            sync.RWMutex
	users         map[string]*models.User
	emails        map[string]string
	activities    map[string]*models.Activity
	conversations map[string]*models.Conversation
	pairs         map[string]string
	messages      map[string][]*models.Message
}

func NewStore() *Store {
	return &Store{
		users:         make(map[string]*models.User),
		emails:        make(map[string]string),
		activities:    make(map[string]*models.Activity),
		conversations: make(map[string]*models.Conversation),
		pairs:         make(map[string]string),
		messages:      make(map[string][]*models.Message),
	}
}

// Repositories exposes the store through the repository contracts.
func (s *Store) Repositories() *repository.Store {
	return repository.NewStore(
		(*userRepo)(s),
		(*activityRepo)(s),
		(*conversationRepo)(s),
		(*messageRepo)(s),
		nil,
	)
}

type userRepo Store

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; ok {
		return repository.ErrDuplicate
	}
	if _, ok := r.emails[user.Email]; ok {
		return repository.ErrDuplicate
	}
	r.users[user.ID] = user.Clone()
	r.emails[user.Email] = user.ID
	return nil
}

func (r *userRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u.Clone(), nil
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.emails[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.users[id].Clone(), nil
}

func (r *userRepo) FindByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.User, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if u, ok := r.users[id]; ok {
			out = append(out, *u.Clone())
		}
	}
	return out, nil
}

func (r *userRepo) Update(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if existing.Email != user.Email {
		if _, taken := r.emails[user.Email]; taken {
			return repository.ErrDuplicate
		}
		delete(r.emails, existing.Email)
		r.emails[user.Email] = user.ID
	}
	user.UpdatedAt = time.Now().UTC()
	r.users[user.ID] = user.Clone()
	return nil
}

func (r *userRepo) SetPresence(ctx context.Context, id string, online bool, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsOnline = online
	u.LastActive = at
	return nil
}

// selectUsers returns matching users, most recently active first.
func (r *userRepo) selectUsers(limit int, keep func(u *models.User) bool) []models.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.User, 0)
	for _, u := range r.users {
		if keep(u) {
			out = append(out, *u.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastActive.After(out[j].LastActive) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r *userRepo) ListOnline(ctx context.Context, excludeID string, limit int) ([]models.User, error) {
	return r.selectUsers(limit, func(u *models.User) bool {
		return u.IsOnline && u.ID != excludeID
	}), nil
}

func (r *userRepo) Search(ctx context.Context, filter repository.UserSearch) ([]models.User, error) {
	query := strings.ToLower(strings.TrimSpace(filter.Query))
	college := strings.ToLower(strings.TrimSpace(filter.College))
	users := r.selectUsers(0, func(u *models.User) bool {
		if u.ID == filter.ExcludeID {
			return false
		}
		if query != "" && !strings.Contains(strings.ToLower(u.Name), query) && !strings.Contains(strings.ToLower(u.Email), query) {
			return false
		}
		if college != "" && !strings.Contains(strings.ToLower(u.College), college) {
			return false
		}
		if len(filter.Interests) > 0 && !anyOf(u.Interests, filter.Interests) {
			return false
		}
		return true
	})
	sort.SliceStable(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	if filter.Limit > 0 && len(users) > filter.Limit {
		users = users[:filter.Limit]
	}
	return users, nil
}

func (r *userRepo) ListRecentlyActive(ctx context.Context, excludeIDs []string, limit int) ([]models.User, error) {
	excluded := make(map[string]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = true
	}
	return r.selectUsers(limit, func(u *models.User) bool {
		return u.IsOnline && !excluded[u.ID]
	}), nil
}

func anyOf(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

type activityRepo Store

func (r *activityRepo) Create(ctx context.Context, activity *models.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.activities[activity.ID]; ok {
		return repository.ErrDuplicate
	}
	r.activities[activity.ID] = activity.Clone()
	return nil
}

func (r *activityRepo) FindByID(ctx context.Context, id string) (*models.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.activities[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return a.Clone(), nil
}

func (r *activityRepo) List(ctx context.Context, filter repository.ActivityFilter) ([]models.Activity, int64, error) {
	r.mu.RLock()
	matched := make([]models.Activity, 0)
	for _, a := range r.activities {
		if filter.ActiveOnly && !a.IsActive {
			continue
		}
		if len(filter.Categories) > 0 && !hasCategory(filter.Categories, a.Category) {
			continue
		}
		if filter.ParticipantID != "" && !a.HasParticipant(filter.ParticipantID) {
			continue
		}
		if filter.ExcludeParticipantID != "" && a.HasParticipant(filter.ExcludeParticipantID) {
			continue
		}
		matched = append(matched, *a.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	total := int64(len(matched))

	if filter.Limit > 0 {
		start := 0
		if filter.Page > 1 {
			start = (filter.Page - 1) * filter.Limit
		}
		if start >= len(matched) {
			return []models.Activity{}, total, nil
		}
		end := start + filter.Limit
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[start:end]
	}
	return matched, total, nil
}

func hasCategory(cats []models.ActivityCategory, c models.ActivityCategory) bool {
	for _, cat := range cats {
		if cat == c {
			return true
		}
	}
	return false
}

func (r *activityRepo) Save(ctx context.Context, activity *models.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.activities[activity.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Revision != activity.Revision {
		return repository.ErrConflict
	}
	activity.Revision++
	activity.UpdatedAt = time.Now().UTC()
	r.activities[activity.ID] = activity.Clone()
	return nil
}

func (r *activityRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.activities[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.activities, id)
	return nil
}

type conversationRepo Store

func (r *conversationRepo) Create(ctx context.Context, conv *models.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pairs[conv.PairKey]; ok {
		return repository.ErrDuplicate
	}
	if _, ok := r.conversations[conv.ID]; ok {
		return repository.ErrDuplicate
	}
	r.conversations[conv.ID] = conv.Clone()
	r.pairs[conv.PairKey] = conv.ID
	return nil
}

func (r *conversationRepo) FindByID(ctx context.Context, id string) (*models.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conversations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return c.Clone(), nil
}

func (r *conversationRepo) FindByPair(ctx context.Context, userA, userB string) (*models.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.pairs[models.PairKey(userA, userB)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.conversations[id].Clone(), nil
}

func (r *conversationRepo) ListForUser(ctx context.Context, userID string) ([]models.Conversation, error) {
	r.mu.RLock()
	out := make([]models.Conversation, 0)
	for _, c := range r.conversations {
		if c.HasParticipant(userID) {
			out = append(out, *c.Clone())
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].LastMessageAt.After(out[j].LastMessageAt) })
	return out, nil
}

func (r *conversationRepo) Save(ctx context.Context, conv *models.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.conversations[conv.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Revision != conv.Revision {
		return repository.ErrConflict
	}
	conv.Revision++
	conv.UpdatedAt = time.Now().UTC()
	r.conversations[conv.ID] = conv.Clone()
	return nil
}

type messageRepo Store

func (r *messageRepo) Create(ctx context.Context, msg *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[msg.ConversationID] = append(r.messages[msg.ConversationID], msg.Clone())
	return nil
}

func (r *messageRepo) ListPage(ctx context.Context, conversationID string, before *repository.MessageCursor, limit int) ([]models.Message, error) {
	r.mu.RLock()
	all := r.messages[conversationID]
	out := make([]models.Message, 0, len(all))
	for _, m := range all {
		if before != nil && !olderThan(m, before) {
			continue
		}
		out = append(out, *m.Clone())
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func olderThan(m *models.Message, c *repository.MessageCursor) bool {
	if c.ID == "" || !m.CreatedAt.Equal(c.CreatedAt) {
		return m.CreatedAt.Before(c.CreatedAt)
	}
	return m.ID < c.ID
}

func (r *messageRepo) MarkReadBy(ctx context.Context, conversationID, readerID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var changed int64
	for _, m := range r.messages[conversationID] {
		if m.SenderID == readerID {
			continue
		}
		if m.MarkReadBy(readerID) {
			changed++
		}
	}
	return changed, nil
}

func (r *messageRepo) CountUnread(ctx context.Context, conversationID, readerID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, m := range r.messages[conversationID] {
		if m.SenderID != readerID && !m.IsReadBy(readerID) {
			n++
		}
	}
	return n, nil
}
