package tickethub_errors

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrValidation         = errors.New("validation error")
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrVersionConflict    = errors.New("version conflict")
	ErrRemoteCall         = errors.New("remote call failed")
	ErrCompensationFailed = errors.New("compensation failed")
	ErrUnknownStrategy    = errors.New("unknown resolution strategy")
	ErrRateLimited        = errors.New("rate limited")
	ErrServiceUnavailable = errors.New("service unavailable")
)

// NowPtr returns a pointer to current time
func NowPtr() *time.Time {
	now := time.Now()
	return &now
}
