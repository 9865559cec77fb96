package sqlite

import (
	"context"

	"github.com/ctfops-io/scoring-api/pkg/db"
	log "github.com/sirupsen/logrus"
)

func (l *SQLiteDB) CreateTrack(ctx context.Context, track *db.Track) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		log.Errorf("couldn't start a transaction to write the track '%s': %s", track.Slug, err.Error())
		return db.WriteError
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO Track (id, slug, title, createdAt) VALUES (?, ?, ?, ?);
`, track.ID, track.Slug, track.Title, track.CreatedAt)
	if err != nil {
		_ = tx.Rollback()
		if isDuplicate(err) {
			return db.DuplicateError
		}
		log.Errorf("inserting the track '%s' failed: %s", track.Slug, err.Error())
		return db.WriteError
	}
	err = tx.Commit()
	if err != nil {
		return db.WriteError
	}
	return nil
}

func (l *SQLiteDB) CreateChallenge(ctx context.Context, challenge *db.Challenge) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		log.Errorf("couldn't start a transaction to write the challenge '%s': %s", challenge.Slug, err.Error())
		return db.WriteError
	}
	var flagHash interface{}
	if challenge.FlagHash != "" {
		flagHash = challenge.FlagHash
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO Challenge (id, trackID, slug, title, description, points, flagHash, published, createdAt, updatedAt)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`, challenge.ID, challenge.TrackID, challenge.Slug, challenge.Title, challenge.Description, challenge.Points,
		flagHash, challenge.Published, challenge.CreatedAt, challenge.UpdatedAt)
	if err != nil {
		_ = tx.Rollback()
		if isDuplicate(err) {
			return db.DuplicateError
		}
		log.Errorf("inserting the challenge '%s' failed: %s", challenge.Slug, err.Error())
		return db.WriteError
	}
	err = tx.Commit()
	if err != nil {
		return db.WriteError
	}
	return nil
}

func (l *SQLiteDB) CreateParticipant(ctx context.Context, participant *db.Participant) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		log.Errorf("couldn't start a transaction to write the participant '%s': %s", participant.Name,
			err.Error())
		return db.WriteError
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO Participant (id, name, passwordHash, isActive, createdAt) VALUES (?, ?, ?, ?, ?);
`, participant.ID, participant.Name, participant.PasswordHash, participant.Active, participant.CreatedAt)
	if err != nil {
		_ = tx.Rollback()
		if isDuplicate(err) {
			return db.DuplicateError
		}
		log.Errorf("inserting the participant '%s' failed: %s", participant.Name, err.Error())
		return db.WriteError
	}
	err = tx.Commit()
	if err != nil {
		return db.WriteError
	}
	return nil
}

func (l *SQLiteDB) SetChallengeFlagHash(ctx context.Context, challengeID, flagHash string) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		log.Errorf("couldn't start a transaction to set the flag of challenge '%s': %s", challengeID,
			err.Error())
		return db.WriteError
	}
	_, err = tx.ExecContext(ctx, `
UPDATE Challenge SET flagHash = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?;
`, flagHash, challengeID)
	if err != nil {
		_ = tx.Rollback()
		log.Errorf("setting the flag of challenge '%s' failed: %s", challengeID, err.Error())
		return db.WriteError
	}
	err = tx.Commit()
	if err != nil {
		return db.WriteError
	}
	return nil
}

func (l *SQLiteDB) SetChallengePublished(ctx context.Context, challengeID string, published bool) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		log.Errorf("couldn't start a transaction to publish challenge '%s': %s", challengeID, err.Error())
		return db.WriteError
	}
	_, err = tx.ExecContext(ctx, `
UPDATE Challenge SET published = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?;
`, published, challengeID)
	if err != nil {
		_ = tx.Rollback()
		log.Errorf("setting published=%v of challenge '%s' failed: %s", published, challengeID, err.Error())
		return db.WriteError
	}
	err = tx.Commit()
	if err != nil {
		return db.WriteError
	}
	return nil
}
