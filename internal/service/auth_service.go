package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Anchal0410/peer-connect/internal/apperr"
	"github.com/Anchal0410/peer-connect/internal/config"
	"github.com/Anchal0410/peer-connect/internal/models"
	"github.com/Anchal0410/peer-connect/internal/repository"
	"github.com/Anchal0410/peer-connect/internal/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	errUserNotFound       = apperr.NotFound("User not found")
	errInvalidCredentials = apperr.Unauthorized("Invalid credentials")
)

type AuthService struct {
	users    repository.UserRepository
	tokens   *TokenManager
	presence *PresenceTracker
	limits   config.LimitsConfig
	now      Clock
	log      *zap.Logger
}

func NewAuthService(users repository.UserRepository, tokens *TokenManager, presence *PresenceTracker, limits config.LimitsConfig, now Clock, log *zap.Logger) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		presence: presence,
		limits:   withDefaultLimits(limits),
		now:      clockOrSystem(now),
		log:      log.Named("auth"),
	}
}

type RegisterInput struct {
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	College   string   `json:"college"`
	Bio       string   `json:"bio"`
	Interests []string `json:"interests"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string              `json:"token"`
	User  models.UserResponse `json:"user"`
}

func (s *AuthService) validateRegister(in *RegisterInput) error {
	in.Name = validation.TrimAndLimit(in.Name, validation.MaxNameLength)
	in.Email = validation.NormalizeEmail(in.Email)
	in.College = strings.TrimSpace(in.College)
	in.Bio = strings.TrimSpace(in.Bio)

	switch {
	case in.Name == "":
		return apperr.InvalidArg("Name is required")
	case !validation.ValidateEmail(in.Email):
		return apperr.InvalidArg("Please include a valid email")
	case !validation.ValidatePassword(in.Password, s.limits.PasswordMinLength):
		return apperr.InvalidArg(fmt.Sprintf("Password must be at least %d characters", s.limits.PasswordMinLength))
	case in.College == "":
		return apperr.InvalidArg("College name is required")
	case !validation.ValidateBio(in.Bio):
		return apperr.InvalidArg("Bio must be at most 250 characters")
	}
	return nil
}

// Register creates the account and returns a token for it.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResponse, error) {
	if err := s.validateRegister(&in); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.InvalidArg("Password cannot be used")
	}

	now := s.now()
	user := &models.User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		College:      in.College,
		Bio:          in.Bio,
		Interests:    validation.NormalizeInterests(in.Interests),
		IsOnline:     true,
		LastActive:   now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.AlreadyExists("User already exists")
		}
		return nil, storeFailure(s.log, "users.Create", err)
	}
	if err := s.presence.MarkOnline(ctx, user.ID); err != nil {
		s.log.Warn("mark online after register failed", zap.String("user_id", user.ID), zap.Error(err))
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, apperr.Internal("Internal server error", err)
	}
	s.log.Info("user registered", zap.String("user_id", user.ID))
	return &AuthResponse{Token: token, User: user.ToResponse()}, nil
}

// Login verifies credentials and marks the user online.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResponse, error) {
	email := validation.NormalizeEmail(in.Email)
	if !validation.ValidateEmail(email) {
		return nil, apperr.InvalidArg("Please include a valid email")
	}
	if in.Password == "" {
		return nil, apperr.InvalidArg("Password is required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, storeFailure(s.log, "users.FindByEmail", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, errInvalidCredentials
	}

	if err := s.presence.MarkOnline(ctx, user.ID); err != nil {
		return nil, err
	}
	user.IsOnline = true
	user.LastActive = s.now()

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, apperr.Internal("Internal server error", err)
	}
	return &AuthResponse{Token: token, User: user.ToResponse()}, nil
}

// Authenticate resolves a bearer token to an existing user. Any failure,
// including a deleted user, is the same unauthenticated error.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return nil, apperr.Unauthorized("Not authorized to access this route")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Unauthorized("Not authorized to access this route")
		}
		return nil, storeFailure(s.log, "users.FindByID", err)
	}
	return user, nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errUserNotFound
		}
		return nil, storeFailure(s.log, "users.FindByID", err)
	}
	return user, nil
}

func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.presence.MarkOffline(ctx, userID)
}
