// Package ratelimit decides whether a (participant, challenge) submission
// attempt is admitted, and mutates the per-pair counter state accordingly.
// All state lives in the store; concurrent attempts for the same pair
// serialize through the submission transaction, so exactly one of two
// racers observes the state that trips a lock and the other observes the
// resulting lock.
package ratelimit

import (
	"context"
	"math"
	"time"

	"github.com/ctfops-io/scoring-api/pkg/db"
	log "github.com/sirupsen/logrus"
)

// Config are the tuning knobs of the limiter.
type Config struct {
	// Enabled toggles rate limiting globally. A disabled limiter admits
	// every attempt without touching state.
	Enabled bool
	// MaxAttempts is the number of attempts admitted per window. The
	// maximum is exclusive: an attempt count equal to it is still
	// admitted, the attempt exceeding it is denied.
	MaxAttempts int
	// WindowSeconds is the length of the counting window.
	WindowSeconds int
	// LockSeconds is the base lockout length. The effective lockout is
	// LockSeconds * 2^violations, capped at MaxBackoffSeconds.
	LockSeconds int
	// MaxBackoffSeconds caps a single lockout.
	MaxBackoffSeconds int
}

// Decision is the outcome of a single admission check.
type Decision struct {
	// Allowed reports whether the attempt was admitted.
	Allowed bool
	// RetryAfterSeconds is the hint after which a denied attempt may be
	// retried. It is zero for admitted attempts and at least 1 for
	// denied ones.
	RetryAfterSeconds int
}

// Limiter implements the sliding-window admission check with exponential
// lockouts over the rate limit rows of the store.
type Limiter struct {
	cfg Config
	obv *db.Observer
}

// NewLimiter creates a limiter with the given configuration. The observer
// receives fire-and-forget violation events and may be nil.
func NewLimiter(cfg Config, obv *db.Observer) *Limiter {
	return &Limiter{cfg: cfg, obv: obv}
}

// CheckAndConsume decides admit/deny for one attempt of the given pair at
// the given time and persists the mutated counter state through the given
// transaction. The caller owns the transaction; denied attempts are meant
// to be committed anyway, so a rejected submission cannot refund the
// consumed attempt slot.
func (l *Limiter) CheckAndConsume(ctx context.Context, tx db.Tx, participantID, challengeID string,
	now time.Time) (Decision, error) {
	if !l.cfg.Enabled {
		return Decision{Allowed: true}, nil
	}
	now = now.UTC()
	state, created, err := l.getOrCreateState(ctx, tx, participantID, challengeID, now)
	if err != nil {
		return Decision{}, err
	}
	if created {
		// Creating the row is itself the first attempt.
		return Decision{Allowed: true}, nil
	}

	if state.LockUntil != nil && state.LockUntil.After(now) {
		state.LastBlockedAt = &now
		if err := tx.UpdateRateLimitState(ctx, state); err != nil {
			return Decision{}, err
		}
		retryAfter := retryAfterSeconds(*state.LockUntil, now)
		return Decision{Allowed: false, RetryAfterSeconds: retryAfter}, nil
	}

	if now.Sub(state.WindowStartedAt) >= time.Duration(l.cfg.WindowSeconds)*time.Second {
		state.WindowStartedAt = now
		state.AttemptCount = 1
		state.LockUntil = nil
	} else {
		state.AttemptCount++
	}
	state.LastAttemptAt = now

	if state.AttemptCount > l.cfg.MaxAttempts {
		state.ViolationCount++
		lockSeconds := l.lockSeconds(state.ViolationCount)
		lockUntil := now.Add(time.Duration(lockSeconds) * time.Second)
		state.LockUntil = &lockUntil
		state.LastBlockedAt = &now
		if err := tx.UpdateRateLimitState(ctx, state); err != nil {
			return Decision{}, err
		}
		log.WithFields(log.Fields{
			"participant": participantID,
			"challenge":   challengeID,
			"attempts":    state.AttemptCount,
			"violations":  state.ViolationCount,
			"lockSeconds": lockSeconds,
		}).Warn("submission rate limit violated")
		if l.obv != nil {
			l.obv.Pub(db.ObserverMessage{
				Code: db.ObserveRateLimitViolation,
				Fields: map[string]interface{}{
					"participantID": participantID,
					"challengeID":   challengeID,
					"violations":    state.ViolationCount,
					"lockSeconds":   lockSeconds,
				},
			})
		}
		return Decision{Allowed: false, RetryAfterSeconds: lockSeconds}, nil
	}

	if err := tx.UpdateRateLimitState(ctx, state); err != nil {
		return Decision{}, err
	}
	return Decision{Allowed: true}, nil
}

// getOrCreateState loads the row of the pair, lazily creating it on the
// first attempt. A concurrent creation race resolves through the store`s
// duplicate-key detection followed by a re-read.
func (l *Limiter) getOrCreateState(ctx context.Context, tx db.Tx, participantID, challengeID string,
	now time.Time) (*db.RateLimitState, bool, error) {
	state, err := tx.GetRateLimitState(ctx, participantID, challengeID)
	if err != nil {
		return nil, false, err
	}
	if state != nil {
		return state, false, nil
	}
	initial := &db.RateLimitState{
		ParticipantID:   participantID,
		ChallengeID:     challengeID,
		WindowStartedAt: now,
		AttemptCount:    1,
		ViolationCount:  0,
		LastAttemptAt:   now,
	}
	err = tx.InsertRateLimitState(ctx, initial)
	if err == nil {
		return initial, true, nil
	}
	if err != db.DuplicateError {
		return nil, false, err
	}
	state, err = tx.GetRateLimitState(ctx, participantID, challengeID)
	if err != nil {
		return nil, false, err
	}
	if state == nil {
		log.Errorf("the rate limit state of (%s,%s) vanished after an insert race", participantID, challengeID)
		return nil, false, db.ReadError
	}
	return state, false, nil
}

// lockSeconds computes the lockout length for the given lifetime violation
// count. The base doubles with every violation, so the first violation
// already doubles it, and never shrinks across window resets.
func (l *Limiter) lockSeconds(violationCount int) int {
	limit := l.cfg.MaxBackoffSeconds
	if violationCount > 30 {
		return limit
	}
	lock := l.cfg.LockSeconds << uint(violationCount)
	if lock > limit || lock <= 0 {
		return limit
	}
	return lock
}

func retryAfterSeconds(lockUntil, now time.Time) int {
	seconds := int(math.Ceil(lockUntil.Sub(now).Seconds()))
	if seconds < 1 {
		return 1
	}
	return seconds
}
