package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/Anchal0410/peer-connect/internal/apperr"
	"github.com/Anchal0410/peer-connect/internal/models"
	"github.com/Anchal0410/peer-connect/internal/repository"
	"github.com/Anchal0410/peer-connect/internal/storage"
	"go.uber.org/zap"
)

var errStorageNotConfigured = apperr.Unavailable("Avatar storage is not configured")

// AvatarService stores normalised avatar images and keeps the user record
// pointing at the current one. A nil store disables uploads.
type AvatarService struct {
	users   repository.UserRepository
	store   storage.ObjectStore
	baseURL string
	log     *zap.Logger
}

func NewAvatarService(users repository.UserRepository, store storage.ObjectStore, publicAPIBaseURL string, log *zap.Logger) *AvatarService {
	return &AvatarService{
		users:   users,
		store:   store,
		baseURL: strings.TrimRight(strings.TrimSpace(publicAPIBaseURL), "/"),
		log:     log.Named("avatars"),
	}
}

func (s *AvatarService) Enabled() bool { return s != nil && s.store != nil }

// URLFor returns the public URL that streams key through the media route.
func (s *AvatarService) URLFor(key string) string {
	return s.baseURL + "/api/media/" + key
}

func (s *AvatarService) Upload(ctx context.Context, userID string, file io.Reader) (*models.User, error) {
	if !s.Enabled() {
		return nil, errStorageNotConfigured
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errUserNotFound
		}
		return nil, storeFailure(s.log, "users.FindByID", err)
	}

	avatar, err := storage.ProcessAvatar(file, storage.DefaultAvatarOptions())
	switch {
	case errors.Is(err, storage.ErrTooLarge):
		return nil, apperr.InvalidArg("Avatar file is too large")
	case errors.Is(err, storage.ErrUnsupported):
		return nil, apperr.InvalidArg("Avatar must be a JPEG, PNG or WebP image")
	case errors.Is(err, storage.ErrInvalidImage):
		return nil, apperr.InvalidArg("Avatar image could not be decoded")
	case err != nil:
		return nil, apperr.Internal("Internal server error", err)
	}

	key := storage.NewAvatarKey(userID)
	if _, err := s.store.Put(ctx, key, bytes.NewReader(avatar.Data), avatar.Size(), avatar.ContentType); err != nil {
		return nil, storeFailure(s.log, "objects.Put", err)
	}

	oldKey := strings.TrimSpace(user.AvatarKey)
	user.Avatar = s.URLFor(key)
	user.AvatarKey = key
	if err := s.users.Update(ctx, user); err != nil {
		s.deleteBestEffort(ctx, key)
		return nil, storeFailure(s.log, "users.Update", err)
	}
	if oldKey != "" && oldKey != key {
		s.deleteBestEffort(ctx, oldKey)
	}
	return user, nil
}

func (s *AvatarService) Delete(ctx context.Context, userID string) (*models.User, error) {
	if !s.Enabled() {
		return nil, errStorageNotConfigured
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errUserNotFound
		}
		return nil, storeFailure(s.log, "users.FindByID", err)
	}

	oldKey := strings.TrimSpace(user.AvatarKey)
	user.Avatar = ""
	user.AvatarKey = ""
	if err := s.users.Update(ctx, user); err != nil {
		return nil, storeFailure(s.log, "users.Update", err)
	}
	if oldKey != "" {
		s.deleteBestEffort(ctx, oldKey)
	}
	return user, nil
}

// Open streams a stored avatar. The caller closes the reader.
func (s *AvatarService) Open(ctx context.Context, rawKey string) (io.ReadCloser, storage.ObjectInfo, error) {
	if !s.Enabled() {
		return nil, storage.ObjectInfo{}, errStorageNotConfigured
	}
	key, err := storage.CleanAvatarKey(rawKey)
	if err != nil {
		return nil, storage.ObjectInfo{}, apperr.InvalidArg("Invalid avatar key")
	}
	body, info, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectMissing) {
			return nil, storage.ObjectInfo{}, apperr.NotFound("Avatar not found")
		}
		return nil, storage.ObjectInfo{}, storeFailure(s.log, "objects.Get", err)
	}
	return body, info, nil
}

func (s *AvatarService) deleteBestEffort(ctx context.Context, key string) {
	if err := s.store.Delete(ctx, key); err != nil {
		s.log.Warn("avatar object delete failed", zap.String("key", key), zap.Error(err))
	}
}
