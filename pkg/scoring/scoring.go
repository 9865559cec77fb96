// Package scoring contains the submission entry point of the service. It
// sequences challenge lookup, rate limiting, flag verification, attempt
// logging and race-safe reward recording on top of a single store
// transaction.
package scoring

import (
	"context"
	"strings"
	"time"

	"github.com/ctfops-io/scoring-api/pkg/config"
	"github.com/ctfops-io/scoring-api/pkg/db"
	"github.com/ctfops-io/scoring-api/pkg/flaghash"
	"github.com/ctfops-io/scoring-api/pkg/ratelimit"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// AwardConfig controls the first-solver bonus.
type AwardConfig struct {
	FirstSolverBonusEnabled bool
	BonusMode               config.BonusMode
	BonusValue              int
}

// Result is the outcome of a completed submission.
type Result struct {
	// Correct reports whether the submitted value matched the flag.
	Correct bool
	// PointsAwarded is the number of points granted by this call. A
	// repeated correct submission yields zero points and is still a
	// fully successful call.
	PointsAwarded int
	// FirstSolver reports whether this call claimed the first-solver
	// bonus of the challenge.
	FirstSolver bool
}

// Orchestrator is the sole writer of attempt and reward records.
type Orchestrator struct {
	db      db.DB
	limiter *ratelimit.Limiter
	cfg     AwardConfig
}

// NewOrchestrator wires the orchestrator with its collaborators.
func NewOrchestrator(database db.DB, limiter *ratelimit.Limiter, cfg AwardConfig) *Orchestrator {
	return &Orchestrator{db: database, limiter: limiter, cfg: cfg}
}

// Submit verifies the submitted value against the challenge addressed by
// the given slug and awards points exactly once per participant. Repeat
// correct submissions succeed with zero points. Rate-limited and empty
// submissions fail while still committing their consumed counter state, so
// an aborted call cannot refund the attempt slot.
func (o *Orchestrator) Submit(ctx context.Context, participantID, challengeSlug,
	submittedValue string) (*Result, error) {
	challenge, err := o.db.GetChallengeBySlug(ctx, strings.TrimSpace(challengeSlug))
	if err != nil {
		return nil, err
	}
	if challenge == nil {
		return nil, ChallengeNotFoundError
	}
	if !challenge.Published {
		return nil, ChallengeNotPublishedError
	}
	if challenge.FlagHash == "" {
		return nil, FlagNotConfiguredError
	}

	now := time.Now().UTC()
	tx, err := o.db.Begin(ctx)
	if err != nil {
		return nil, err
	}

	decision, err := o.limiter.CheckAndConsume(ctx, tx, participantID, challenge.ID, now)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if !decision.Allowed {
		// The consumed counter state is committed on purpose, even
		// though the call fails. No attempt or reward is written for a
		// rate-limited call.
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		retryAfter := decision.RetryAfterSeconds
		if retryAfter < 1 {
			retryAfter = 1
		}
		o.publishOutcome(participantID, challenge, "rate_limited", 0, false)
		return nil, &RateLimitedError{RetryAfterSeconds: retryAfter}
	}

	normalized := strings.TrimSpace(submittedValue)
	if normalized == "" {
		err = tx.InsertAttempt(ctx, o.newAttempt(participantID, challenge.ID, submittedValue, false, now))
		if err != nil {
			_ = tx.Rollback()
			return nil, err
		}
		// A charged failure: the attempt counts and is logged, but the
		// call reports an error.
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		o.publishOutcome(participantID, challenge, "invalid_submission", 0, false)
		return nil, InvalidSubmissionError
	}

	correct := flaghash.Verify(normalized, challenge.FlagHash)
	err = tx.InsertAttempt(ctx, o.newAttempt(participantID, challenge.ID, submittedValue, correct, now))
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	if !correct {
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		o.publishOutcome(participantID, challenge, "incorrect", 0, false)
		return &Result{Correct: false}, nil
	}

	result, err := o.recordReward(ctx, tx, participantID, challenge, now)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	outcome := "correct"
	if result.PointsAwarded == 0 {
		outcome = "already_solved"
	}
	o.publishOutcome(participantID, challenge, outcome, result.PointsAwarded, result.FirstSolver)
	if result.FirstSolver {
		log.WithFields(log.Fields{
			"participant": participantID,
			"challenge":   challenge.Slug,
			"points":      result.PointsAwarded,
		}).Info("first solver bonus awarded")
	}
	return result, nil
}

// recordReward writes the reward for a correct submission. The first-solver
// claim and the fallback insert each run in their own savepoint, so a lost
// race surfaces as a duplicate-key failure of that insert alone and the
// enclosing transaction, including the already logged attempt, survives.
// The uniqueness constraints of the store are the single source of truth
// for who won; there is no check-to-write race window.
func (o *Orchestrator) recordReward(ctx context.Context, tx db.Tx, participantID string,
	challenge *db.Challenge, now time.Time) (*Result, error) {
	base := challenge.Points
	if base <= 0 {
		return nil, ConfigurationError
	}
	bonus, err := o.firstSolverBonus(base)
	if err != nil {
		return nil, err
	}

	if o.cfg.FirstSolverBonusEnabled {
		taken, err := tx.HasFirstSolverReward(ctx, challenge.ID)
		if err != nil {
			return nil, err
		}
		if !taken {
			award := base + bonus
			if award <= 0 {
				return nil, ConfigurationError
			}
			err = tx.InsertReward(ctx, o.newReward(participantID, challenge.ID, award, true, now))
			if err == nil {
				return &Result{Correct: true, PointsAwarded: award, FirstSolver: true}, nil
			}
			if err != db.DuplicateError {
				return nil, err
			}
			// Either this participant already holds a reward, or a
			// concurrent racer claimed the first solve. Fall through
			// to the plain reward.
		}
	}

	err = tx.InsertReward(ctx, o.newReward(participantID, challenge.ID, base, false, now))
	if err == nil {
		return &Result{Correct: true, PointsAwarded: base}, nil
	}
	if err == db.DuplicateError {
		// A repeat correct submission. Normal, zero-yield, successful.
		return &Result{Correct: true}, nil
	}
	return nil, err
}

// firstSolverBonus computes the bonus for the given base points or fails
// with ConfigurationError for an invalid award configuration.
func (o *Orchestrator) firstSolverBonus(base int) (int, error) {
	if !o.cfg.FirstSolverBonusEnabled {
		return 0, nil
	}
	if o.cfg.BonusValue < 0 {
		return 0, ConfigurationError
	}
	switch o.cfg.BonusMode {
	case config.BonusModeFixed:
		return o.cfg.BonusValue, nil
	case config.BonusModePercent:
		return base * o.cfg.BonusValue / 100, nil
	}
	return 0, ConfigurationError
}

func (o *Orchestrator) newAttempt(participantID, challengeID, submittedValue string, correct bool,
	now time.Time) *db.Attempt {
	return &db.Attempt{
		ID:             uuid.NewString(),
		ParticipantID:  participantID,
		ChallengeID:    challengeID,
		SubmittedValue: submittedValue,
		Correct:        correct,
		CreatedAt:      now,
	}
}

func (o *Orchestrator) newReward(participantID, challengeID string, points int, firstSolver bool,
	now time.Time) *db.Reward {
	return &db.Reward{
		ID:            uuid.NewString(),
		ParticipantID: participantID,
		ChallengeID:   challengeID,
		PointsAwarded: points,
		FirstSolver:   firstSolver,
		CreatedAt:     now,
	}
}

// publishOutcome emits a fire-and-forget audit event. Publishing never
// affects the result or failure semantics of a submission.
func (o *Orchestrator) publishOutcome(participantID string, challenge *db.Challenge, outcome string,
	points int, firstSolver bool) {
	code := db.ObserveSubmissionOutcome
	if firstSolver {
		code = db.ObserveFirstSolverAwarded
	} else if points > 0 {
		code = db.ObserveRewardGranted
	}
	o.db.Observer().Pub(db.ObserverMessage{
		Code: db.ObserverCode(code),
		Fields: map[string]interface{}{
			"participantID": participantID,
			"challengeID":   challenge.ID,
			"challenge":     challenge.Slug,
			"outcome":       outcome,
			"points":        points,
			"firstSolver":   firstSolver,
		},
	})
}
