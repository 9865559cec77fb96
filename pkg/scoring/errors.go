package scoring

import (
	"errors"
	"fmt"
)

var (
	// ChallengeNotFoundError is returned, when no challenge exists for
	// the submitted slug.
	ChallengeNotFoundError = errors.New("challenge not found")
	// ChallengeNotPublishedError is returned, when the challenge exists
	// but is not open for submissions.
	ChallengeNotPublishedError = errors.New("challenge is not published")
	// FlagNotConfiguredError is returned, when the challenge has no flag
	// digest configured yet.
	FlagNotConfiguredError = errors.New("challenge flag is not set")
	// InvalidSubmissionError is returned for an empty submitted value.
	// The attempt is still charged against the rate limit and logged.
	InvalidSubmissionError = errors.New("submitted flag is invalid")
	// ConfigurationError is returned, when the award configuration is
	// invalid: a negative bonus, an unknown bonus mode, or a computed
	// award that is not positive.
	ConfigurationError = errors.New("challenge award configuration is invalid")
	// FlagAlreadySetError is returned, when the flag of a challenge is
	// set a second time. Digests are set at most once.
	FlagAlreadySetError = errors.New("challenge flag is already set")
	// AlreadyPublishedError is returned, when a published challenge is
	// published again.
	AlreadyPublishedError = errors.New("challenge is already published")
	// TrackNotFoundError is returned, when no track exists for the given
	// identifier.
	TrackNotFoundError = errors.New("track not found")
	// SlugTakenError is returned, when a track or challenge slug is
	// already in use.
	SlugTakenError = errors.New("slug is already in use")
	// InvalidChallengeError is returned, when challenge content fails
	// validation.
	InvalidChallengeError = errors.New("challenge content is invalid")
)

// RateLimitedError denies a submission attempt because of an exhausted
// attempt budget or an active lockout. The consumed counter state has been
// committed regardless.
type RateLimitedError struct {
	// RetryAfterSeconds hints after how many seconds a retry may be
	// admitted. It is at least 1.
	RetryAfterSeconds int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %d seconds", e.RetryAfterSeconds)
}
