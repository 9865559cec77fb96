package scoring_test

import (
	"context"
	"strings"
	"testing"

	"github.com/ctfops-io/scoring-api/pkg/flaghash"
	"github.com/ctfops-io/scoring-api/pkg/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTrackAndChallenge(t *testing.T) {
	database := newTestDB(t)
	catalog := scoring.NewCatalog(database)
	ctx := context.Background()

	track, err := catalog.CreateTrack(ctx, " web ", " Web Security ")
	require.NoError(t, err)
	assert.Equal(t, "web", track.Slug)
	assert.Equal(t, "Web Security", track.Title)

	challenge, err := catalog.CreateChallenge(ctx, "web", "idor-1", "IDOR", "Find the object.", 250)
	require.NoError(t, err)
	assert.Equal(t, track.ID, challenge.TrackID)
	assert.Equal(t, 250, challenge.Points)
	assert.False(t, challenge.Published, "new challenges start unpublished")
	assert.Empty(t, challenge.FlagHash, "new challenges start without a flag")

	loaded, err := database.GetChallengeBySlug(ctx, "idor-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, challenge.ID, loaded.ID)
}

func TestCreateTrackRejectsInvalidInput(t *testing.T) {
	database := newTestDB(t)
	catalog := scoring.NewCatalog(database)
	ctx := context.Background()

	_, err := catalog.CreateTrack(ctx, "", "Web")
	assert.ErrorIs(t, err, scoring.InvalidChallengeError)
	_, err = catalog.CreateTrack(ctx, "Web", "Web")
	assert.ErrorIs(t, err, scoring.InvalidChallengeError, "slugs must be lowercase")
	_, err = catalog.CreateTrack(ctx, strings.Repeat("a", 101), "Web")
	assert.ErrorIs(t, err, scoring.InvalidChallengeError)
	_, err = catalog.CreateTrack(ctx, "web", "   ")
	assert.ErrorIs(t, err, scoring.InvalidChallengeError)
}

func TestCreateTrackRejectsTakenSlug(t *testing.T) {
	database := newTestDB(t)
	catalog := scoring.NewCatalog(database)
	ctx := context.Background()

	_, err := catalog.CreateTrack(ctx, "web", "Web")
	require.NoError(t, err)
	_, err = catalog.CreateTrack(ctx, "web", "Also Web")
	assert.ErrorIs(t, err, scoring.SlugTakenError)
}

func TestCreateChallengeValidation(t *testing.T) {
	database := newTestDB(t)
	catalog := scoring.NewCatalog(database)
	ctx := context.Background()

	_, err := catalog.CreateChallenge(ctx, "missing", "c-1", "C", "D", 100)
	assert.ErrorIs(t, err, scoring.TrackNotFoundError)

	_, trackErr := catalog.CreateTrack(ctx, "web", "Web")
	require.NoError(t, trackErr)

	_, err = catalog.CreateChallenge(ctx, "web", "c-1", "C", "D", 0)
	assert.ErrorIs(t, err, scoring.InvalidChallengeError, "points must be positive")
	_, err = catalog.CreateChallenge(ctx, "web", "c-1", "", "D", 100)
	assert.ErrorIs(t, err, scoring.InvalidChallengeError)

	_, err = catalog.CreateChallenge(ctx, "web", "c-1", "C", "D", 100)
	require.NoError(t, err)
	_, err = catalog.CreateChallenge(ctx, "web", "c-1", "Other", "D", 100)
	assert.ErrorIs(t, err, scoring.SlugTakenError)
}

func TestSetFlagStoresDigestOnce(t *testing.T) {
	database := newTestDB(t)
	catalog := scoring.NewCatalog(database)
	ctx := context.Background()

	_, err := catalog.CreateTrack(ctx, "web", "Web")
	require.NoError(t, err)
	challenge, err := catalog.CreateChallenge(ctx, "web", "c-1", "C", "D", 100)
	require.NoError(t, err)

	require.NoError(t, catalog.SetFlag(ctx, challenge.ID, "FLAG{once}"))

	loaded, err := database.GetChallengeByID(ctx, challenge.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "FLAG{once}", loaded.FlagHash, "the plaintext is never stored")
	assert.True(t, flaghash.Verify("FLAG{once}", loaded.FlagHash))

	assert.ErrorIs(t, catalog.SetFlag(ctx, challenge.ID, "FLAG{again}"),
		scoring.FlagAlreadySetError)
	assert.ErrorIs(t, catalog.SetFlag(ctx, "no-such-id", "FLAG{x}"),
		scoring.ChallengeNotFoundError)
}

func TestSetFlagRejectsBlankValue(t *testing.T) {
	database := newTestDB(t)
	catalog := scoring.NewCatalog(database)
	ctx := context.Background()

	_, err := catalog.CreateTrack(ctx, "web", "Web")
	require.NoError(t, err)
	challenge, err := catalog.CreateChallenge(ctx, "web", "c-1", "C", "D", 100)
	require.NoError(t, err)

	assert.ErrorIs(t, catalog.SetFlag(ctx, challenge.ID, "   "), scoring.InvalidSubmissionError)
}

func TestPublishRequiresFlag(t *testing.T) {
	database := newTestDB(t)
	catalog := scoring.NewCatalog(database)
	ctx := context.Background()

	_, err := catalog.CreateTrack(ctx, "web", "Web")
	require.NoError(t, err)
	challenge, err := catalog.CreateChallenge(ctx, "web", "c-1", "C", "D", 100)
	require.NoError(t, err)

	_, err = catalog.Publish(ctx, challenge.ID)
	assert.ErrorIs(t, err, scoring.FlagNotConfiguredError)

	require.NoError(t, catalog.SetFlag(ctx, challenge.ID, "FLAG{gate}"))
	published, err := catalog.Publish(ctx, challenge.ID)
	require.NoError(t, err)
	assert.True(t, published.Published)

	_, err = catalog.Publish(ctx, challenge.ID)
	assert.ErrorIs(t, err, scoring.AlreadyPublishedError)

	require.NoError(t, catalog.Unpublish(ctx, challenge.ID))
	loaded, err := database.GetChallengeByID(ctx, challenge.ID)
	require.NoError(t, err)
	assert.False(t, loaded.Published)
}
