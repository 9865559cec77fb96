package sqlite

import (
	"context"
	"database/sql"
)

func createTables(sqlDB *sql.DB) error {
	ctx := context.Background()
	tx, err := sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	creators := []func(*sql.Tx, context.Context) error{
		createTrackTable,
		createChallengeTable,
		createParticipantTable,
		createAttemptTable,
		createRewardTable,
		createRateLimitStateTable,
	}
	for _, create := range creators {
		err = create(tx, ctx)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func createTrackTable(tx *sql.Tx, ctx context.Context) error {
	sqlStmt := `
CREATE TABLE Track (
	id VARCHAR(36) NOT NULL PRIMARY KEY,
	slug VARCHAR(100) NOT NULL UNIQUE,
	title VARCHAR(200) NOT NULL,
	createdAt Date NOT NULL
);
`
	_, err := tx.ExecContext(ctx, sqlStmt)
	return err
}

func createChallengeTable(tx *sql.Tx, ctx context.Context) error {
	sqlStmt := `
CREATE TABLE Challenge (
	id VARCHAR(36) NOT NULL PRIMARY KEY,
	trackID VARCHAR(36) NOT NULL,
	slug VARCHAR(100) NOT NULL UNIQUE,
	title VARCHAR(200) NOT NULL,
	description TEXT NOT NULL,
	points INTEGER NOT NULL CHECK (points > 0),
	flagHash VARCHAR(128),
	published INTEGER NOT NULL DEFAULT 0,
	createdAt Date NOT NULL,
	updatedAt Date NOT NULL,
	FOREIGN KEY (trackID) REFERENCES Track(id) ON DELETE CASCADE
);
`
	_, err := tx.ExecContext(ctx, sqlStmt)
	return err
}

func createParticipantTable(tx *sql.Tx, ctx context.Context) error {
	sqlStmt := `
CREATE TABLE Participant (
	id VARCHAR(36) NOT NULL PRIMARY KEY,
	name VARCHAR(100) NOT NULL UNIQUE,
	passwordHash VARCHAR(128) NOT NULL,
	isActive INTEGER NOT NULL DEFAULT 1,
	createdAt Date NOT NULL
);
`
	_, err := tx.ExecContext(ctx, sqlStmt)
	return err
}

func createAttemptTable(tx *sql.Tx, ctx context.Context) error {
	sqlStmt := `
CREATE TABLE Attempt (
	id VARCHAR(36) NOT NULL PRIMARY KEY,
	participantID VARCHAR(36) NOT NULL,
	challengeID VARCHAR(36) NOT NULL,
	submittedValue VARCHAR(512) NOT NULL,
	isCorrect INTEGER NOT NULL,
	createdAt Date NOT NULL,
	FOREIGN KEY (participantID) REFERENCES Participant(id) ON DELETE CASCADE,
	FOREIGN KEY (challengeID) REFERENCES Challenge(id) ON DELETE CASCADE
);
CREATE INDEX idx_attempt_pair ON Attempt(participantID, challengeID);
`
	_, err := tx.ExecContext(ctx, sqlStmt)
	return err
}

// createRewardTable creates the reward table together with the two
// uniqueness constraints the scoring pipeline relies on: one reward per
// (participant, challenge) pair, and a partial index allowing only a single
// first-solver reward per challenge across all participants.
func createRewardTable(tx *sql.Tx, ctx context.Context) error {
	sqlStmt := `
CREATE TABLE Reward (
	id VARCHAR(36) NOT NULL PRIMARY KEY,
	participantID VARCHAR(36) NOT NULL,
	challengeID VARCHAR(36) NOT NULL,
	pointsAwarded INTEGER NOT NULL CHECK (pointsAwarded > 0),
	firstSolver INTEGER NOT NULL DEFAULT 0,
	createdAt Date NOT NULL,
	UNIQUE (participantID, challengeID),
	FOREIGN KEY (participantID) REFERENCES Participant(id) ON DELETE CASCADE,
	FOREIGN KEY (challengeID) REFERENCES Challenge(id) ON DELETE CASCADE
);
CREATE UNIQUE INDEX ux_reward_first_solver ON Reward(challengeID) WHERE firstSolver = 1;
CREATE INDEX idx_reward_challenge_created ON Reward(challengeID, createdAt);
CREATE INDEX idx_reward_participant_created ON Reward(participantID, createdAt);
`
	_, err := tx.ExecContext(ctx, sqlStmt)
	return err
}

func createRateLimitStateTable(tx *sql.Tx, ctx context.Context) error {
	sqlStmt := `
CREATE TABLE RateLimitState (
	participantID VARCHAR(36) NOT NULL,
	challengeID VARCHAR(36) NOT NULL,
	windowStartedAt Date NOT NULL,
	attemptCount INTEGER NOT NULL CHECK (attemptCount >= 0),
	violationCount INTEGER NOT NULL DEFAULT 0 CHECK (violationCount >= 0),
	lockUntil Date,
	lastAttemptAt Date NOT NULL,
	lastBlockedAt Date,
	PRIMARY KEY (participantID, challengeID),
	FOREIGN KEY (participantID) REFERENCES Participant(id) ON DELETE CASCADE,
	FOREIGN KEY (challengeID) REFERENCES Challenge(id) ON DELETE CASCADE
);
CREATE INDEX idx_ratelimit_lock_until ON RateLimitState(lockUntil);
`
	_, err := tx.ExecContext(ctx, sqlStmt)
	return err
}
