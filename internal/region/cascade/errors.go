package cascade

import "errors"

var (
	// ErrInvalidLevel is returned for a level outside the four known tiers.
	ErrInvalidLevel = errors.New("invalid region level")

	// ErrUnknownCode is returned when a code is not in the level's ready
	// option list.
	ErrUnknownCode = errors.New("code not in option list")

	// ErrLevelDisabled is returned when selecting into a level whose list is
	// not ready.
	ErrLevelDisabled = errors.New("level is disabled")

	// ErrNothingToRetry is returned by Retry when the level has no retryable
	// failure.
	ErrNothingToRetry = errors.New("nothing to retry")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("controller closed")
)
