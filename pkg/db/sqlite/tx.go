package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ctfops-io/scoring-api/pkg/db"
	log "github.com/sirupsen/logrus"
)

// sqliteTx is a db.Tx backed by a single sqlite transaction. Inserts that
// may legitimately collide with a uniqueness constraint run inside a
// savepoint, so a rejected insert rolls back on its own while the enclosing
// transaction stays open and can still commit other work.
type sqliteTx struct {
	tx         *sql.Tx
	savepoints int
}

func (l *SQLiteDB) Begin(ctx context.Context) (db.Tx, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		log.Errorf("couldn't start a transaction: %s", err.Error())
		return nil, db.WriteError
	}
	return &sqliteTx{tx: tx}, nil
}

func (t *sqliteTx) Commit() error {
	err := t.tx.Commit()
	if err != nil {
		log.Errorf("committing the transaction failed: %s", err.Error())
		return db.WriteError
	}
	return nil
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// withSavepoint runs the given function inside a named savepoint. If the
// function fails, only the savepoint is rolled back and the original error
// is returned.
func (t *sqliteTx) withSavepoint(ctx context.Context, fn func() error) error {
	t.savepoints++
	name := fmt.Sprintf("sp_%d", t.savepoints)
	_, err := t.tx.ExecContext(ctx, "SAVEPOINT "+name)
	if err != nil {
		log.Errorf("creating savepoint %s failed: %s", name, err.Error())
		return db.WriteError
	}
	err = fn()
	if err != nil {
		_, rbErr := t.tx.ExecContext(ctx, "ROLLBACK TO "+name+"; RELEASE "+name)
		if rbErr != nil {
			log.Errorf("rolling back savepoint %s failed: %s", name, rbErr.Error())
			return db.WriteError
		}
		return err
	}
	_, err = t.tx.ExecContext(ctx, "RELEASE "+name)
	if err != nil {
		log.Errorf("releasing savepoint %s failed: %s", name, err.Error())
		return db.WriteError
	}
	return nil
}

func (t *sqliteTx) GetRateLimitState(ctx context.Context, participantID, challengeID string) (*db.RateLimitState, error) {
	rows, err := t.tx.QueryContext(ctx, `
SELECT participantID, challengeID, windowStartedAt, attemptCount, violationCount, lockUntil, lastAttemptAt, lastBlockedAt
FROM RateLimitState
WHERE participantID = ? and challengeID = ?;
`, participantID, challengeID)
	if err != nil {
		log.Errorf("querying the rate limit state of (%s,%s) failed: %s", participantID, challengeID, err.Error())
		return nil, db.ReadError
	}
	defer rows.Close()
	var state *db.RateLimitState
	if rows.Next() {
		state = &db.RateLimitState{}
		var lockUntil, lastBlockedAt sql.NullTime
		err = rows.Scan(&state.ParticipantID, &state.ChallengeID, &state.WindowStartedAt, &state.AttemptCount,
			&state.ViolationCount, &lockUntil, &state.LastAttemptAt, &lastBlockedAt)
		if err != nil {
			log.Errorf("scanning the rate limit state of (%s,%s) failed: %s", participantID, challengeID,
				err.Error())
			return nil, db.ReadError
		}
		if lockUntil.Valid {
			value := lockUntil.Time
			state.LockUntil = &value
		}
		if lastBlockedAt.Valid {
			value := lastBlockedAt.Time
			state.LastBlockedAt = &value
		}
	}
	return state, nil
}

func (t *sqliteTx) InsertRateLimitState(ctx context.Context, state *db.RateLimitState) error {
	err := t.withSavepoint(ctx, func() error {
		_, err := t.tx.ExecContext(ctx, `
INSERT INTO RateLimitState (participantID, challengeID, windowStartedAt, attemptCount, violationCount, lockUntil,
	lastAttemptAt, lastBlockedAt)
VALUES (?, ?, ?, ?, ?, ?, ?, ?);
`, state.ParticipantID, state.ChallengeID, state.WindowStartedAt, state.AttemptCount, state.ViolationCount,
			nullableTime(state.LockUntil), state.LastAttemptAt, nullableTime(state.LastBlockedAt))
		if err != nil {
			if isDuplicate(err) {
				return db.DuplicateError
			}
			log.Errorf("inserting the rate limit state of (%s,%s) failed: %s", state.ParticipantID,
				state.ChallengeID, err.Error())
			return db.WriteError
		}
		return nil
	})
	return err
}

func (t *sqliteTx) UpdateRateLimitState(ctx context.Context, state *db.RateLimitState) error {
	_, err := t.tx.ExecContext(ctx, `
UPDATE RateLimitState
SET windowStartedAt = ?, attemptCount = ?, violationCount = ?, lockUntil = ?, lastAttemptAt = ?, lastBlockedAt = ?
WHERE participantID = ? and challengeID = ?;
`, state.WindowStartedAt, state.AttemptCount, state.ViolationCount, nullableTime(state.LockUntil),
		state.LastAttemptAt, nullableTime(state.LastBlockedAt), state.ParticipantID, state.ChallengeID)
	if err != nil {
		log.Errorf("updating the rate limit state of (%s,%s) failed: %s", state.ParticipantID, state.ChallengeID,
			err.Error())
		return db.WriteError
	}
	return nil
}

func (t *sqliteTx) InsertAttempt(ctx context.Context, attempt *db.Attempt) error {
	_, err := t.tx.ExecContext(ctx, `
INSERT INTO Attempt (id, participantID, challengeID, submittedValue, isCorrect, createdAt) VALUES (?, ?, ?, ?, ?, ?);
`, attempt.ID, attempt.ParticipantID, attempt.ChallengeID, attempt.SubmittedValue, attempt.Correct,
		attempt.CreatedAt)
	if err != nil {
		log.Errorf("inserting an attempt of (%s,%s) failed: %s", attempt.ParticipantID, attempt.ChallengeID,
			err.Error())
		return db.WriteError
	}
	return nil
}

func (t *sqliteTx) HasFirstSolverReward(ctx context.Context, challengeID string) (bool, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT 1 FROM Reward WHERE challengeID = ? and firstSolver = 1 LIMIT 1;`, challengeID)
	if err != nil {
		log.Errorf("querying the first solver reward of challenge '%s' failed: %s", challengeID, err.Error())
		return false, db.ReadError
	}
	defer rows.Close()
	return rows.Next(), nil
}

func (t *sqliteTx) InsertReward(ctx context.Context, reward *db.Reward) error {
	err := t.withSavepoint(ctx, func() error {
		_, err := t.tx.ExecContext(ctx, `
INSERT INTO Reward (id, participantID, challengeID, pointsAwarded, firstSolver, createdAt) VALUES (?, ?, ?, ?, ?, ?);
`, reward.ID, reward.ParticipantID, reward.ChallengeID, reward.PointsAwarded, reward.FirstSolver,
			reward.CreatedAt)
		if err != nil {
			if isDuplicate(err) {
				return db.DuplicateError
			}
			log.Errorf("inserting a reward of (%s,%s) failed: %s", reward.ParticipantID, reward.ChallengeID,
				err.Error())
			return db.WriteError
		}
		return nil
	})
	return err
}

// nullableTime maps an optional timestamp onto the driver`s null handling.
func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
