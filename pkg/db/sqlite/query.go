package sqlite

import (
	"context"
	"database/sql"

	"github.com/ctfops-io/scoring-api/pkg/db"
	log "github.com/sirupsen/logrus"
)

// queryAndScanChallenges queries for challenges with the specified query and
// scans the result set. If the scanning has been successful, then an array
// of challenges is returned. Otherwise, an error will be returned, if the
// querying or the scanning fails.
func (l *SQLiteDB) queryAndScanChallenges(ctx context.Context, query string,
	args ...interface{}) ([]db.Challenge, error) {
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	challenges := make([]db.Challenge, 0)
	for rows.Next() {
		challenge := db.Challenge{}
		var flagHash sql.NullString
		err = rows.Scan(&challenge.ID, &challenge.TrackID, &challenge.Slug, &challenge.Title,
			&challenge.Description, &challenge.Points, &flagHash, &challenge.Published,
			&challenge.CreatedAt, &challenge.UpdatedAt)
		if err != nil {
			return nil, err
		}
		challenge.FlagHash = flagHash.String
		challenges = append(challenges, challenge)
	}
	return challenges, nil
}

const challengeColumns = `id, trackID, slug, title, description, points, flagHash, published, createdAt, updatedAt`

func (l *SQLiteDB) getChallenge(ctx context.Context, query string, arg interface{}) (*db.Challenge, error) {
	challenges, err := l.queryAndScanChallenges(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	if len(challenges) == 0 {
		return nil, nil
	}
	return &challenges[0], nil
}

func (l *SQLiteDB) GetChallengeBySlug(ctx context.Context, slug string) (*db.Challenge, error) {
	challenge, err := l.getChallenge(ctx,
		`SELECT `+challengeColumns+` FROM Challenge WHERE slug = ?;`, slug)
	if err != nil {
		log.Errorf("querying the challenge with slug '%s' failed: %s", slug, err.Error())
		return nil, db.ReadError
	}
	return challenge, nil
}

func (l *SQLiteDB) GetChallengeByID(ctx context.Context, id string) (*db.Challenge, error) {
	challenge, err := l.getChallenge(ctx,
		`SELECT `+challengeColumns+` FROM Challenge WHERE id = ?;`, id)
	if err != nil {
		log.Errorf("querying the challenge with id '%s' failed: %s", id, err.Error())
		return nil, db.ReadError
	}
	return challenge, nil
}

func (l *SQLiteDB) ListPublishedChallengesByTrack(ctx context.Context, trackID string) ([]db.Challenge, error) {
	challenges, err := l.queryAndScanChallenges(ctx,
		`SELECT `+challengeColumns+` FROM Challenge WHERE trackID = ? and published = 1 ORDER BY createdAt ASC;`,
		trackID)
	if err != nil {
		log.Errorf("querying the published challenges of track '%s' failed: %s", trackID, err.Error())
		return nil, db.ReadError
	}
	return challenges, nil
}

func (l *SQLiteDB) GetTrackBySlug(ctx context.Context, slug string) (*db.Track, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT id, slug, title, createdAt FROM Track WHERE slug = ?;`, slug)
	if err != nil {
		log.Errorf("querying the track with slug '%s' failed: %s", slug, err.Error())
		return nil, db.ReadError
	}
	defer rows.Close()
	var track *db.Track
	if rows.Next() {
		track = &db.Track{}
		err = rows.Scan(&track.ID, &track.Slug, &track.Title, &track.CreatedAt)
		if err != nil {
			log.Errorf("scanning the track with slug '%s' failed: %s", slug, err.Error())
			return nil, db.ReadError
		}
	}
	return track, nil
}

// queryAndScanParticipants queries for participants with the specified query
// and scans the result set.
func (l *SQLiteDB) queryAndScanParticipants(ctx context.Context, query string,
	args ...interface{}) ([]db.Participant, error) {
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	participants := make([]db.Participant, 0)
	for rows.Next() {
		participant := db.Participant{}
		err = rows.Scan(&participant.ID, &participant.Name, &participant.PasswordHash, &participant.Active,
			&participant.CreatedAt)
		if err != nil {
			return nil, err
		}
		participants = append(participants, participant)
	}
	return participants, nil
}

func (l *SQLiteDB) getParticipant(ctx context.Context, query string, arg interface{}) (*db.Participant, error) {
	participants, err := l.queryAndScanParticipants(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	if len(participants) == 0 {
		return nil, nil
	}
	return &participants[0], nil
}

func (l *SQLiteDB) GetParticipantByName(ctx context.Context, name string) (*db.Participant, error) {
	participant, err := l.getParticipant(ctx,
		`SELECT id, name, passwordHash, isActive, createdAt FROM Participant WHERE name = ?;`, name)
	if err != nil {
		log.Errorf("querying the participant with name '%s' failed: %s", name, err.Error())
		return nil, db.ReadError
	}
	return participant, nil
}

func (l *SQLiteDB) GetParticipantByID(ctx context.Context, id string) (*db.Participant, error) {
	participant, err := l.getParticipant(ctx,
		`SELECT id, name, passwordHash, isActive, createdAt FROM Participant WHERE id = ?;`, id)
	if err != nil {
		log.Errorf("querying the participant with id '%s' failed: %s", id, err.Error())
		return nil, db.ReadError
	}
	return participant, nil
}

func (l *SQLiteDB) ListRewardsForChallenge(ctx context.Context, challengeID string) ([]db.Reward, error) {
	rows, err := l.db.QueryContext(ctx, `
SELECT id, participantID, challengeID, pointsAwarded, firstSolver, createdAt FROM Reward
WHERE challengeID = ?
ORDER BY createdAt ASC;
`, challengeID)
	if err != nil {
		log.Errorf("querying the rewards of challenge '%s' failed: %s", challengeID, err.Error())
		return nil, db.ReadError
	}
	defer rows.Close()
	rewards := make([]db.Reward, 0)
	for rows.Next() {
		reward := db.Reward{}
		err = rows.Scan(&reward.ID, &reward.ParticipantID, &reward.ChallengeID, &reward.PointsAwarded,
			&reward.FirstSolver, &reward.CreatedAt)
		if err != nil {
			log.Errorf("scanning the rewards of challenge '%s' failed: %s", challengeID, err.Error())
			return nil, db.ReadError
		}
		rewards = append(rewards, reward)
	}
	return rewards, nil
}

func (l *SQLiteDB) CountAttempts(ctx context.Context, participantID, challengeID string) (int, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM Attempt WHERE participantID = ? and challengeID = ?;`, participantID, challengeID)
	var count int
	err := row.Scan(&count)
	if err != nil {
		log.Errorf("counting the attempts of (%s,%s) failed: %s", participantID, challengeID, err.Error())
		return 0, db.ReadError
	}
	return count, nil
}

func (l *SQLiteDB) ListRecentAttempts(ctx context.Context, limit uint) ([]db.Attempt, error) {
	rows, err := l.db.QueryContext(ctx, `
SELECT id, participantID, challengeID, submittedValue, isCorrect, createdAt FROM Attempt
ORDER BY createdAt DESC
LIMIT ?;
`, limit)
	if err != nil {
		log.Errorf("querying the recent attempts failed: %s", err.Error())
		return nil, db.ReadError
	}
	defer rows.Close()
	attempts := make([]db.Attempt, 0)
	for rows.Next() {
		attempt := db.Attempt{}
		err = rows.Scan(&attempt.ID, &attempt.ParticipantID, &attempt.ChallengeID, &attempt.SubmittedValue,
			&attempt.Correct, &attempt.CreatedAt)
		if err != nil {
			log.Errorf("scanning the recent attempts failed: %s", err.Error())
			return nil, db.ReadError
		}
		attempts = append(attempts, attempt)
	}
	return attempts, nil
}

// AggregateRewards derives the ranked standings from the recorded rewards.
// The ranking happens inside the store with a window function over the
// per-participant sums, ordered by total points descending, first solve
// time ascending and participant id ascending, which is a fully
// deterministic total order.
func (l *SQLiteDB) AggregateRewards(ctx context.Context, trackID string, limit, offset uint) ([]db.RewardSummary, error) {
	query := `
SELECT participantID, totalPoints, firstSolveAt,
	RANK() OVER (ORDER BY totalPoints DESC, firstSolveAt ASC, participantID ASC) AS position
FROM (
	SELECT r.participantID AS participantID, SUM(r.pointsAwarded) AS totalPoints, MIN(r.createdAt) AS firstSolveAt
	FROM Reward r
	JOIN Participant p ON p.id = r.participantID
	WHERE p.isActive = 1
	GROUP BY r.participantID
)
ORDER BY totalPoints DESC, firstSolveAt ASC, participantID ASC
LIMIT ? OFFSET ?;
`
	args := []interface{}{limit, offset}
	if trackID != "" {
		query = `
SELECT participantID, totalPoints, firstSolveAt,
	RANK() OVER (ORDER BY totalPoints DESC, firstSolveAt ASC, participantID ASC) AS position
FROM (
	SELECT r.participantID AS participantID, SUM(r.pointsAwarded) AS totalPoints, MIN(r.createdAt) AS firstSolveAt
	FROM Reward r
	JOIN Participant p ON p.id = r.participantID
	JOIN Challenge c ON c.id = r.challengeID
	WHERE p.isActive = 1 and c.trackID = ?
	GROUP BY r.participantID
)
ORDER BY totalPoints DESC, firstSolveAt ASC, participantID ASC
LIMIT ? OFFSET ?;
`
		args = []interface{}{trackID, limit, offset}
	}
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Errorf("querying the reward standings failed: %s", err.Error())
		return nil, db.ReadError
	}
	defer rows.Close()
	summaries := make([]db.RewardSummary, 0)
	for rows.Next() {
		summary := db.RewardSummary{}
		var firstSolveAt string
		err = rows.Scan(&summary.ParticipantID, &summary.TotalPoints, &firstSolveAt, &summary.Rank)
		if err != nil {
			log.Errorf("scanning the reward standings failed: %s", err.Error())
			return nil, db.ReadError
		}
		summary.FirstSolveAt, err = parseTimestamp(firstSolveAt)
		if err != nil {
			log.Errorf("scanning the reward standings failed: %s", err.Error())
			return nil, db.ReadError
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}
