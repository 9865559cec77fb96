package scoring

import (
	"context"
	"strings"
	"time"

	"github.com/ctfops-io/scoring-api/pkg/db"
	"github.com/ctfops-io/scoring-api/pkg/flaghash"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const maxSlugLength = 100

// Catalog manages the challenge content: tracks, challenges, their flags
// and the publish gate. It is the administrative counterpart of the
// Orchestrator and never touches attempts or rewards.
type Catalog struct {
	db db.DB
}

// NewCatalog creates a catalog over the given store.
func NewCatalog(database db.DB) *Catalog {
	return &Catalog{db: database}
}

// CreateTrack writes a new track with the given slug and title.
func (c *Catalog) CreateTrack(ctx context.Context, slug, title string) (*db.Track, error) {
	normalizedSlug, err := normalizeSlug(slug)
	if err != nil {
		return nil, err
	}
	normalizedTitle := strings.TrimSpace(title)
	if normalizedTitle == "" {
		return nil, InvalidChallengeError
	}
	track := &db.Track{
		ID:        uuid.NewString(),
		Slug:      normalizedSlug,
		Title:     normalizedTitle,
		CreatedAt: time.Now().UTC(),
	}
	err = c.db.CreateTrack(ctx, track)
	if err == db.DuplicateError {
		return nil, SlugTakenError
	}
	if err != nil {
		return nil, err
	}
	return track, nil
}

// CreateChallenge writes a new, unpublished challenge without a flag.
func (c *Catalog) CreateChallenge(ctx context.Context, trackSlug, slug, title, description string,
	points int) (*db.Challenge, error) {
	track, err := c.db.GetTrackBySlug(ctx, strings.TrimSpace(trackSlug))
	if err != nil {
		return nil, err
	}
	if track == nil {
		return nil, TrackNotFoundError
	}
	normalizedSlug, err := normalizeSlug(slug)
	if err != nil {
		return nil, err
	}
	normalizedTitle := strings.TrimSpace(title)
	normalizedDescription := strings.TrimSpace(description)
	if normalizedTitle == "" || normalizedDescription == "" || points <= 0 {
		return nil, InvalidChallengeError
	}
	now := time.Now().UTC()
	challenge := &db.Challenge{
		ID:          uuid.NewString(),
		TrackID:     track.ID,
		Slug:        normalizedSlug,
		Title:       normalizedTitle,
		Description: normalizedDescription,
		Points:      points,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = c.db.CreateChallenge(ctx, challenge)
	if err == db.DuplicateError {
		return nil, SlugTakenError
	}
	if err != nil {
		return nil, err
	}
	return challenge, nil
}

// SetFlag hashes the given plaintext flag and stores the digest for the
// challenge. The digest is set at most once.
func (c *Catalog) SetFlag(ctx context.Context, challengeID, plaintextFlag string) error {
	challenge, err := c.db.GetChallengeByID(ctx, challengeID)
	if err != nil {
		return err
	}
	if challenge == nil {
		return ChallengeNotFoundError
	}
	if challenge.FlagHash != "" {
		return FlagAlreadySetError
	}
	normalized := strings.TrimSpace(plaintextFlag)
	if normalized == "" {
		return InvalidSubmissionError
	}
	digest, err := flaghash.Hash(normalized)
	if err != nil {
		log.Errorf("hashing the flag of challenge '%s' failed: %s", challenge.Slug, err.Error())
		return err
	}
	return c.db.SetChallengeFlagHash(ctx, challenge.ID, digest)
}

// Publish opens the challenge for submissions. A challenge without a
// configured flag cannot be published.
func (c *Catalog) Publish(ctx context.Context, challengeID string) (*db.Challenge, error) {
	challenge, err := c.db.GetChallengeByID(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if challenge == nil {
		return nil, ChallengeNotFoundError
	}
	if challenge.Published {
		return nil, AlreadyPublishedError
	}
	if challenge.FlagHash == "" {
		return nil, FlagNotConfiguredError
	}
	err = c.db.SetChallengePublished(ctx, challenge.ID, true)
	if err != nil {
		return nil, err
	}
	challenge.Published = true
	return challenge, nil
}

// Unpublish closes the challenge for submissions.
func (c *Catalog) Unpublish(ctx context.Context, challengeID string) error {
	challenge, err := c.db.GetChallengeByID(ctx, challengeID)
	if err != nil {
		return err
	}
	if challenge == nil {
		return ChallengeNotFoundError
	}
	return c.db.SetChallengePublished(ctx, challenge.ID, false)
}

// normalizeSlug validates and normalizes a track or challenge slug. Slugs
// are lowercase, trimmed and at most 100 characters.
func normalizeSlug(slug string) (string, error) {
	normalized := strings.TrimSpace(slug)
	if normalized == "" || len(normalized) > maxSlugLength {
		return "", InvalidChallengeError
	}
	if normalized != strings.ToLower(normalized) {
		return "", InvalidChallengeError
	}
	return normalized, nil
}
