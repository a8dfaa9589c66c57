package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Anchal0410/peer-connect/internal/apperr"
	"github.com/Anchal0410/peer-connect/internal/models"
	"github.com/Anchal0410/peer-connect/internal/repository"
	"github.com/Anchal0410/peer-connect/internal/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultActivityPageSize = 20
	maxActivityPageSize     = 100
)

var (
	errActivityNotFound = apperr.NotFound("Activity not found")
	errActivityInactive = apperr.FailedPrecondition("This activity is no longer active")
	errCreatorLeave     = apperr.FailedPrecondition("Activity creator cannot leave. You can delete or deactivate the activity instead.")
)

type ActivityService struct {
	activities repository.ActivityRepository
	users      repository.UserRepository
	now        Clock
	log        *zap.Logger
}

func NewActivityService(activities repository.ActivityRepository, users repository.UserRepository, now Clock, log *zap.Logger) *ActivityService {
	return &ActivityService{activities: activities, users: users, now: clockOrSystem(now), log: log.Named("activities")}
}

type CreateActivityInput struct {
	Name            string                  `json:"name"`
	Description     string                  `json:"description"`
	Category        models.ActivityCategory `json:"category"`
	Location        string                  `json:"location"`
	Image           string                  `json:"image"`
	MaxParticipants int                     `json:"max_participants"`
	StartTime       *time.Time              `json:"start_time"`
	EndTime         *time.Time              `json:"end_time"`
}

// UpdateActivityInput carries optional fields; nil leaves the field untouched.
type UpdateActivityInput struct {
	Name            *string                  `json:"name"`
	Description     *string                  `json:"description"`
	Category        *models.ActivityCategory `json:"category"`
	Location        *string                  `json:"location"`
	Image           *string                  `json:"image"`
	MaxParticipants *int                     `json:"max_participants"`
	StartTime       *time.Time               `json:"start_time"`
	EndTime         *time.Time               `json:"end_time"`
	IsActive        *bool                    `json:"is_active"`
}

type ActivityPage struct {
	Activities []models.ActivityResponse
	Total      int64
	Page       int
	Pages      int
}

func validWindow(start, end *time.Time) bool {
	return start == nil || end == nil || !end.Before(*start)
}

func (s *ActivityService) Create(ctx context.Context, creatorID string, in CreateActivityInput) (*models.ActivityResponse, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	switch {
	case in.Name == "":
		return nil, apperr.InvalidArg("Name is required")
	case in.Description == "":
		return nil, apperr.InvalidArg("Description is required")
	case !in.Category.Valid():
		return nil, apperr.InvalidArg("Category is required")
	case in.MaxParticipants < 0:
		return nil, apperr.InvalidArg("Max participants cannot be negative")
	case !validWindow(in.StartTime, in.EndTime):
		return nil, apperr.InvalidArg("End time must not be before start time")
	}

	now := s.now()
	activity := &models.Activity{
		ID:              uuid.NewString(),
		Name:            in.Name,
		Description:     in.Description,
		Category:        in.Category,
		Location:        strings.TrimSpace(in.Location),
		Image:           strings.TrimSpace(in.Image),
		MaxParticipants: in.MaxParticipants,
		CreatorID:       creatorID,
		StartTime:       in.StartTime,
		EndTime:         in.EndTime,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	activity.EnsureCreatorParticipant()

	if err := s.activities.Create(ctx, activity); err != nil {
		return nil, storeFailure(s.log, "activities.Create", err)
	}
	s.log.Info("activity created", zap.String("activity_id", activity.ID), zap.String("creator_id", creatorID))
	return s.render(ctx, activity)
}

func (s *ActivityService) load(ctx context.Context, id string) (*models.Activity, error) {
	activity, err := s.activities.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errActivityNotFound
		}
		return nil, storeFailure(s.log, "activities.FindByID", err)
	}
	return activity, nil
}

func (s *ActivityService) Get(ctx context.Context, id string) (*models.ActivityResponse, error) {
	activity, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, activity)
}

// List returns active activities, newest first, optionally of one category.
func (s *ActivityService) List(ctx context.Context, category string, page, limit int) (*ActivityPage, error) {
	limit = validation.ClampLimit(limit, defaultActivityPageSize, maxActivityPageSize)
	if page < 1 {
		page = 1
	}
	filter := repository.ActivityFilter{ActiveOnly: true, Page: page, Limit: limit}
	if category = strings.TrimSpace(category); category != "" {
		c := models.ActivityCategory(category)
		if !c.Valid() {
			return nil, apperr.InvalidArg("Invalid category")
		}
		filter.Categories = []models.ActivityCategory{c}
	}

	list, total, err := s.activities.List(ctx, filter)
	if err != nil {
		return nil, storeFailure(s.log, "activities.List", err)
	}
	rendered, err := s.renderAll(ctx, list)
	if err != nil {
		return nil, err
	}
	return &ActivityPage{
		Activities: rendered,
		Total:      total,
		Page:       page,
		Pages:      int((total + int64(limit) - 1) / int64(limit)),
	}, nil
}

// ForUser returns the active activities userID participates in, newest first.
func (s *ActivityService) ForUser(ctx context.Context, userID string) ([]models.ActivityResponse, error) {
	list, _, err := s.activities.List(ctx, repository.ActivityFilter{ActiveOnly: true, ParticipantID: userID})
	if err != nil {
		return nil, storeFailure(s.log, "activities.List", err)
	}
	return s.renderAll(ctx, list)
}

// Update applies a creator-only edit. Lowering the cap below the current
// roster size is rejected.
func (s *ActivityService) Update(ctx context.Context, callerID, id string, in UpdateActivityInput) (*models.ActivityResponse, error) {
	var saved *models.Activity
	err := retryOnConflict(func() error {
		activity, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		if activity.CreatorID != callerID {
			return apperr.Forbidden("Not authorized to update this activity")
		}
		if err := applyActivityUpdate(activity, in); err != nil {
			return err
		}
		if err := s.activities.Save(ctx, activity); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return errActivityNotFound
			}
			if errors.Is(err, repository.ErrConflict) {
				return err
			}
			return storeFailure(s.log, "activities.Save", err)
		}
		saved = activity
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.render(ctx, saved)
}

func applyActivityUpdate(a *models.Activity, in UpdateActivityInput) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return apperr.InvalidArg("Name is required")
		}
		a.Name = name
	}
	if in.Description != nil {
		desc := strings.TrimSpace(*in.Description)
		if desc == "" {
			return apperr.InvalidArg("Description is required")
		}
		a.Description = desc
	}
	if in.Category != nil {
		if !in.Category.Valid() {
			return apperr.InvalidArg("Invalid category")
		}
		a.Category = *in.Category
	}
	if in.Location != nil {
		a.Location = strings.TrimSpace(*in.Location)
	}
	if in.Image != nil {
		a.Image = strings.TrimSpace(*in.Image)
	}
	if in.MaxParticipants != nil {
		max := *in.MaxParticipants
		if max < 0 {
			return apperr.InvalidArg("Max participants cannot be negative")
		}
		if max > 0 && max < len(a.Participants) {
			return apperr.FailedPrecondition("Max participants cannot be lower than the current number of participants")
		}
		a.MaxParticipants = max
	}
	if in.StartTime != nil {
		a.StartTime = in.StartTime
	}
	if in.EndTime != nil {
		a.EndTime = in.EndTime
	}
	if !validWindow(a.StartTime, a.EndTime) {
		return apperr.InvalidArg("End time must not be before start time")
	}
	if in.IsActive != nil {
		a.IsActive = *in.IsActive
	}
	return nil
}

func (s *ActivityService) Delete(ctx context.Context, callerID, id string) error {
	activity, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if activity.CreatorID != callerID {
		return apperr.Forbidden("Not authorized to delete this activity")
	}
	if err := s.activities.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errActivityNotFound
		}
		return storeFailure(s.log, "activities.Delete", err)
	}
	s.log.Info("activity deleted", zap.String("activity_id", id))
	return nil
}

// Join adds the caller to the roster of an active activity.
func (s *ActivityService) Join(ctx context.Context, userID, id string) (*models.ActivityResponse, error) {
	return s.mutateRoster(ctx, id, func(a *models.Activity) error {
		if !a.IsActive {
			return errActivityInactive
		}
		if err := a.AddParticipant(userID); err != nil {
			return apperr.FailedPrecondition(err.Error())
		}
		return nil
	})
}

// Leave removes the caller from the roster. The creator cannot leave.
func (s *ActivityService) Leave(ctx context.Context, userID, id string) (*models.ActivityResponse, error) {
	return s.mutateRoster(ctx, id, func(a *models.Activity) error {
		if a.CreatorID == userID {
			return errCreatorLeave
		}
		if err := a.RemoveParticipant(userID); err != nil {
			return apperr.FailedPrecondition(err.Error())
		}
		return nil
	})
}

// mutateRoster reloads, mutates and saves with a revision check, retrying on conflict.
func (s *ActivityService) mutateRoster(ctx context.Context, id string, mutate func(a *models.Activity) error) (*models.ActivityResponse, error) {
	var saved *models.Activity
	err := retryOnConflict(func() error {
		activity, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		if err := mutate(activity); err != nil {
			return err
		}
		if err := s.activities.Save(ctx, activity); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return errActivityNotFound
			}
			if errors.Is(err, repository.ErrConflict) {
				s.log.Debug("roster save conflict, retrying", zap.String("activity_id", id))
				return err
			}
			return storeFailure(s.log, "activities.Save", err)
		}
		saved = activity
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.render(ctx, saved)
}

// OnlineParticipants returns the participants of an activity that are online.
func (s *ActivityService) OnlineParticipants(ctx context.Context, id string) ([]models.User, error) {
	activity, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	users, err := s.users.FindByIDs(ctx, activity.Participants)
	if err != nil {
		return nil, storeFailure(s.log, "users.FindByIDs", err)
	}
	online := make([]models.User, 0, len(users))
	for _, u := range users {
		if u.IsOnline {
			online = append(online, u)
		}
	}
	return online, nil
}

func (s *ActivityService) render(ctx context.Context, a *models.Activity) (*models.ActivityResponse, error) {
	out, err := s.renderAll(ctx, []models.Activity{*a})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// renderAll expands creators and participants with one user lookup.
func (s *ActivityService) renderAll(ctx context.Context, list []models.Activity) ([]models.ActivityResponse, error) {
	ids := make([]string, 0)
	seen := make(map[string]bool)
	for _, a := range list {
		for _, id := range append([]string{a.CreatorID}, a.Participants...) {
			if id != "" && !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	byID := make(map[string]*models.User, len(ids))
	if len(ids) > 0 {
		users, err := s.users.FindByIDs(ctx, ids)
		if err != nil {
			return nil, storeFailure(s.log, "users.FindByIDs", err)
		}
		for i := range users {
			byID[users[i].ID] = &users[i]
		}
	}

	out := make([]models.ActivityResponse, 0, len(list))
	for i := range list {
		out = append(out, list[i].ToResponse(byID))
	}
	return out, nil
}
