package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Anchal0410/peer-connect/internal/apperr"
	"github.com/Anchal0410/peer-connect/internal/models"
	"github.com/Anchal0410/peer-connect/internal/repository"
	"github.com/Anchal0410/peer-connect/internal/validation"
	"go.uber.org/zap"
)

const (
	defaultOnlineLimit     = 20
	defaultSearchLimit     = 20
	defaultSuggestionLimit = 10
	maxUserListLimit       = 100
)

type UserService struct {
	users      repository.UserRepository
	activities repository.ActivityRepository
	presence   *PresenceTracker
	log        *zap.Logger
}

func NewUserService(users repository.UserRepository, activities repository.ActivityRepository, presence *PresenceTracker, log *zap.Logger) *UserService {
	return &UserService{users: users, activities: activities, presence: presence, log: log.Named("users")}
}

// UpdateProfileInput carries optional fields; nil leaves the field untouched.
type UpdateProfileInput struct {
	Name      *string   `json:"name"`
	College   *string   `json:"college"`
	Bio       *string   `json:"bio"`
	Interests *[]string `json:"interests"`
	Avatar    *string   `json:"avatar"`
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*models.User, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := validation.TrimAndLimit(*in.Name, validation.MaxNameLength)
		if name == "" {
			return nil, apperr.InvalidArg("Name is required")
		}
		user.Name = name
	}
	if in.College != nil {
		college := strings.TrimSpace(*in.College)
		if college == "" {
			return nil, apperr.InvalidArg("College name is required")
		}
		user.College = college
	}
	if in.Bio != nil {
		bio := strings.TrimSpace(*in.Bio)
		if !validation.ValidateBio(bio) {
			return nil, apperr.InvalidArg("Bio must be at most 250 characters")
		}
		user.Bio = bio
	}
	if in.Interests != nil {
		user.Interests = validation.NormalizeInterests(*in.Interests)
	}
	if in.Avatar != nil {
		user.Avatar = strings.TrimSpace(*in.Avatar)
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errUserNotFound
		}
		return nil, storeFailure(s.log, "users.Update", err)
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errUserNotFound
		}
		return nil, storeFailure(s.log, "users.FindByID", err)
	}
	return user, nil
}

// ListOnline returns online users other than the caller.
func (s *UserService) ListOnline(ctx context.Context, callerID string, limit int) ([]models.User, error) {
	users, err := s.users.ListOnline(ctx, callerID, validation.ClampLimit(limit, defaultOnlineLimit, maxUserListLimit))
	if err != nil {
		return nil, storeFailure(s.log, "users.ListOnline", err)
	}
	return users, nil
}

type SearchInput struct {
	Query     string
	College   string
	Interests []string
	Limit     int
}

func (s *UserService) Search(ctx context.Context, callerID string, in SearchInput) ([]models.User, error) {
	users, err := s.users.Search(ctx, repository.UserSearch{
		Query:     strings.TrimSpace(in.Query),
		College:   strings.TrimSpace(in.College),
		Interests: in.Interests,
		ExcludeID: callerID,
		Limit:     validation.ClampLimit(in.Limit, defaultSearchLimit, maxUserListLimit),
	})
	if err != nil {
		return nil, storeFailure(s.log, "users.Search", err)
	}
	return users, nil
}

// Suggestions proposes people who join the same kinds of activities as the
// caller, topped up with recently active online users.
func (s *UserService) Suggestions(ctx context.Context, callerID string, limit int) ([]models.User, error) {
	limit = validation.ClampLimit(limit, defaultSuggestionLimit, maxUserListLimit)

	mine, _, err := s.activities.List(ctx, repository.ActivityFilter{ParticipantID: callerID})
	if err != nil {
		return nil, storeFailure(s.log, "activities.List", err)
	}

	categories := make([]models.ActivityCategory, 0)
	seenCategory := make(map[models.ActivityCategory]bool)
	for _, a := range mine {
		if !seenCategory[a.Category] {
			seenCategory[a.Category] = true
			categories = append(categories, a.Category)
		}
	}

	suggested := make([]models.User, 0, limit)
	if len(categories) > 0 {
		similar, _, err := s.activities.List(ctx, repository.ActivityFilter{
			Categories:           categories,
			ExcludeParticipantID: callerID,
		})
		if err != nil {
			return nil, storeFailure(s.log, "activities.List", err)
		}

		ids := make([]string, 0)
		seen := map[string]bool{callerID: true}
		for _, a := range similar {
			for _, p := range a.Participants {
				if !seen[p] {
					seen[p] = true
					ids = append(ids, p)
				}
			}
		}
		if len(ids) > limit {
			ids = ids[:limit]
		}
		if len(ids) > 0 {
			found, err := s.users.FindByIDs(ctx, ids)
			if err != nil {
				return nil, storeFailure(s.log, "users.FindByIDs", err)
			}
			suggested = append(suggested, found...)
		}
	}

	if len(suggested) < limit {
		exclude := make([]string, 0, len(suggested)+1)
		exclude = append(exclude, callerID)
		for _, u := range suggested {
			exclude = append(exclude, u.ID)
		}
		more, err := s.users.ListRecentlyActive(ctx, exclude, limit-len(suggested))
		if err != nil {
			return nil, storeFailure(s.log, "users.ListRecentlyActive", err)
		}
		suggested = append(suggested, more...)
	}
	return suggested, nil
}

// Status is the bulk presence lookup used by chat clients.
func (s *UserService) Status(ctx context.Context, ids []string) (map[string]PresenceStatus, error) {
	if len(ids) == 0 {
		return nil, apperr.InvalidArg("User IDs must be a non-empty array")
	}
	if len(ids) > maxUserListLimit {
		return nil, apperr.InvalidArg("Too many user IDs")
	}
	return s.presence.Status(ctx, ids)
}
