package db

import (
	"context"
	"errors"
)

// Ordering specified in which order a list shall be sorted.
type Ordering uint

const (
	OrderingAsc  Ordering = 0
	OrderingDesc          = 1
)

// DB is an interface to store and query challenges, submission attempts and
// awarded solves as well as to manage related data.
type DB interface {

	// Observer is returning a db.Observer for this db.DB instance.
	Observer() *Observer

	// Begin opens a new read-write transaction. All state consumed or
	// produced by a single flag submission must go through one such
	// transaction.
	Begin(ctx context.Context) (Tx, error)

	// GetTrackBySlug gets the track with the given slug, or nil, if no
	// such track exists.
	GetTrackBySlug(ctx context.Context, slug string) (*Track, error)

	// GetChallengeBySlug gets the challenge with the given slug, or nil,
	// if no such challenge exists.
	GetChallengeBySlug(ctx context.Context, slug string) (*Challenge, error)

	// GetChallengeByID gets the challenge with the given id, or nil, if no
	// such challenge exists.
	GetChallengeByID(ctx context.Context, id string) (*Challenge, error)

	// GetParticipantByName gets the participant with the given unique
	// name, or nil, if no such participant exists.
	GetParticipantByName(ctx context.Context, name string) (*Participant, error)

	// GetParticipantByID gets the participant with the given id, or nil,
	// if no such participant exists.
	GetParticipantByID(ctx context.Context, id string) (*Participant, error)

	// ListPublishedChallengesByTrack gets all published challenges that
	// belong to the track with the given id.
	ListPublishedChallengesByTrack(ctx context.Context, trackID string) ([]Challenge, error)

	// ListRewardsForChallenge gets all rewards recorded for the challenge
	// with the given id, ordered by creation time.
	ListRewardsForChallenge(ctx context.Context, challengeID string) ([]Reward, error)

	// CountAttempts counts the logged submission attempts of the given
	// participant for the given challenge.
	CountAttempts(ctx context.Context, participantID, challengeID string) (int, error)

	// ListRecentAttempts gets the most recently logged submission
	// attempts across all participants and challenges.
	ListRecentAttempts(ctx context.Context, limit uint) ([]Attempt, error)

	// AggregateRewards sums the recorded rewards per active participant
	// and returns the ranked standings. If trackID is empty, rewards of
	// all challenges are considered; otherwise only rewards of challenges
	// belonging to the given track.
	AggregateRewards(ctx context.Context, trackID string, limit, offset uint) ([]RewardSummary, error)

	// CreateTrack writes the given track.
	CreateTrack(ctx context.Context, track *Track) error

	// CreateChallenge writes the given challenge.
	CreateChallenge(ctx context.Context, challenge *Challenge) error

	// CreateParticipant writes the given participant.
	CreateParticipant(ctx context.Context, participant *Participant) error

	// SetChallengeFlagHash stores the flag digest for the challenge with
	// the given id.
	SetChallengeFlagHash(ctx context.Context, challengeID, flagHash string) error

	// SetChallengePublished flips the publish gate of the challenge with
	// the given id.
	SetChallengePublished(ctx context.Context, challengeID string, published bool) error

	// Close closes this database and all connections.
	Close() error
}

// Tx is a single read-write transaction against the store. The submission
// pipeline performs all of its stateful steps through one Tx so that either
// everything commits or everything rolls back, except for the deliberate
// commit of consumed rate-limit state on a rejected call.
type Tx interface {

	// GetRateLimitState gets the rate limit row for the given pair, or
	// nil, if no attempt has been made yet. The row stays owned by this
	// transaction until commit or rollback.
	GetRateLimitState(ctx context.Context, participantID, challengeID string) (*RateLimitState, error)

	// InsertRateLimitState writes the initial rate limit row for a pair
	// inside a savepoint. DuplicateError is returned, when a concurrent
	// transaction created the row first.
	InsertRateLimitState(ctx context.Context, state *RateLimitState) error

	// UpdateRateLimitState persists the mutated rate limit row.
	UpdateRateLimitState(ctx context.Context, state *RateLimitState) error

	// InsertAttempt appends the given attempt to the submission log.
	InsertAttempt(ctx context.Context, attempt *Attempt) error

	// HasFirstSolverReward reports whether a first-solver reward has
	// already been recorded for the given challenge.
	HasFirstSolverReward(ctx context.Context, challengeID string) (bool, error)

	// InsertReward writes the given reward inside a savepoint.
	// DuplicateError is returned, when the participant already holds a
	// reward for the challenge, or when another first-solver reward
	// exists for the challenge. The enclosing transaction stays usable.
	InsertReward(ctx context.Context, reward *Reward) error

	// Commit commits all work of this transaction.
	Commit() error

	// Rollback discards all work of this transaction.
	Rollback() error
}

var (
	// ReadError is returned, when querying the database failed for some reason.
	ReadError = errors.New("read from the database failed")
	// WriteError is returned, when writing to the database failed for some reason.
	WriteError = errors.New("write to the database failed")
	// DuplicateError is returned, when an insert conflicts with a
	// uniqueness constraint of an existing row.
	DuplicateError = errors.New("write conflicts with an existing row")
)
