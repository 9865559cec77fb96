package db

import "time"

// Track is a group of challenges that share a theme. Leaderboards can be
// scoped to a single track.
type Track struct {
	// ID is the unique identifier of the track.
	ID string
	// Slug is the unique, URL-safe name of the track.
	Slug string
	// Title is the display name of the track.
	Title string
	// CreatedAt is the time at which the track was created.
	CreatedAt time.Time
}

// Challenge is a single security challenge that participants can solve by
// submitting its secret flag.
type Challenge struct {
	// ID is the unique identifier of the challenge.
	ID string
	// TrackID is the id of the track this challenge belongs to.
	TrackID string
	// Slug is the unique, URL-safe name under which the challenge is
	// addressed by submissions.
	Slug string
	// Title is the display name of the challenge.
	Title string
	// Description explains the challenge to participants.
	Description string
	// Points is the positive base award for solving this challenge.
	Points int
	// FlagHash is the salted one-way digest of the secret flag. It is
	// empty until the flag has been configured, and set at most once.
	FlagHash string
	// Published gates both visibility and submission. Unpublished
	// challenges reject all submissions.
	Published bool
	// CreatedAt is the time at which the challenge was created.
	CreatedAt time.Time
	// UpdatedAt is the time of the last change to the challenge.
	UpdatedAt time.Time
}

// Participant is a registered contestant.
type Participant struct {
	// ID is the unique identifier of the participant.
	ID string
	// Name is the unique display name used to log in.
	Name string
	// PasswordHash is the one-way digest of the participant`s password.
	PasswordHash string
	// Active marks whether the participant may log in and appears on
	// leaderboards.
	Active bool
	// CreatedAt is the time at which the participant registered.
	CreatedAt time.Time
}

// Attempt is one entry of the append-only submission log. An entry is
// written for every submission, correct or not, unless the call was
// short-circuited by an active rate-limit lock. Entries are never mutated
// or deleted.
type Attempt struct {
	// ID is the unique identifier of the log entry.
	ID string
	// ParticipantID is the id of the submitting participant.
	ParticipantID string
	// ChallengeID is the id of the challenge submitted against.
	ChallengeID string
	// SubmittedValue is the raw value as submitted, before any
	// normalization.
	SubmittedValue string
	// Correct records whether the value matched the configured flag.
	Correct bool
	// CreatedAt is the time at which the attempt was logged.
	CreatedAt time.Time
}

// Reward records points awarded for a solved challenge. At most one reward
// exists per (participant, challenge) pair, and at most one reward per
// challenge carries FirstSolver across all participants. Rewards are
// created exactly once and never updated.
type Reward struct {
	// ID is the unique identifier of the reward.
	ID string
	// ParticipantID is the id of the awarded participant.
	ParticipantID string
	// ChallengeID is the id of the solved challenge.
	ChallengeID string
	// PointsAwarded is the positive number of points granted.
	PointsAwarded int
	// FirstSolver marks the single reward of the participant whose
	// correct submission was recorded first for the challenge.
	FirstSolver bool
	// CreatedAt is the time at which the reward was recorded.
	CreatedAt time.Time
}

// RateLimitState is the per (participant, challenge) submission counter.
// A row is created lazily on the first submission of a pair and mutated
// only under the exclusive access of a submission transaction.
type RateLimitState struct {
	// ParticipantID is the id of the submitting participant.
	ParticipantID string
	// ChallengeID is the id of the challenge submitted against.
	ChallengeID string
	// WindowStartedAt is the start of the current counting window.
	WindowStartedAt time.Time
	// AttemptCount is the number of attempts within the current window.
	// It resets to 1 whenever a new window starts.
	AttemptCount int
	// ViolationCount is the lifetime number of rate limit violations.
	// It only ever increases.
	ViolationCount int
	// LockUntil is the end of the active lockout, or nil, when no
	// lockout is in place. Once set, it is never retroactively
	// shortened.
	LockUntil *time.Time
	// LastAttemptAt is the time of the most recent counted attempt.
	LastAttemptAt time.Time
	// LastBlockedAt is the time of the most recent denied attempt, or
	// nil, when no attempt has been denied yet.
	LastBlockedAt *time.Time
}

// RewardSummary is one ranked row of a leaderboard projection. It is
// derived from the recorded rewards at query time and owns no state.
type RewardSummary struct {
	// ParticipantID is the id of the ranked participant.
	ParticipantID string
	// TotalPoints is the sum of all points awarded to the participant
	// within the requested scope.
	TotalPoints int
	// FirstSolveAt is the time of the earliest reward of the participant
	// within the requested scope.
	FirstSolveAt time.Time
	// Rank is the position assigned by ordering on total points
	// descending, first solve time ascending and participant id
	// ascending.
	Rank int
}
