package service

import (
	"errors"
	"time"

	"github.com/Anchal0410/peer-connect/internal/apperr"
	"github.com/Anchal0410/peer-connect/internal/config"
	"github.com/Anchal0410/peer-connect/internal/repository"
	"go.uber.org/zap"
)

// maxSaveAttempts bounds the reload-and-reapply loop around revision-checked saves.
const maxSaveAttempts = 3

// Clock returns the current time. Services stamp records with it.
type Clock func() time.Time

// SystemClock is UTC wall time at millisecond precision, the finest every store keeps.
func SystemClock() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func clockOrSystem(c Clock) Clock {
	if c == nil {
		return SystemClock
	}
	return c
}

func withDefaultLimits(l config.LimitsConfig) config.LimitsConfig {
	if l.PasswordMinLength < 6 {
		l.PasswordMinLength = 6
	}
	if l.MaxMessageLength < 1 {
		l.MaxMessageLength = 4000
	}
	return l
}

var errConcurrentUpdate = apperr.Conflict("The resource was modified concurrently, please retry")

// retryOnConflict runs attempt until it returns something other than
// repository.ErrConflict, at most maxSaveAttempts times.
func retryOnConflict(attempt func() error) error {
	var err error
	for i := 0; i < maxSaveAttempts; i++ {
		err = attempt()
		if !errors.Is(err, repository.ErrConflict) {
			return err
		}
	}
	return errConcurrentUpdate
}

// storeFailure logs an unexpected storage error and hides it behind a generic
// internal error. AppErrors pass through untouched.
func storeFailure(log *zap.Logger, op string, err error) error {
	var appErr *apperr.AppError
	if errors.As(err, &appErr) {
		return err
	}
	log.Error("storage failure", zap.String("op", op), zap.Error(err))
	return apperr.Internal("Internal server error", err)
}
