package scoring_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ctfops-io/scoring-api/pkg/config"
	"github.com/ctfops-io/scoring-api/pkg/db"
	"github.com/ctfops-io/scoring-api/pkg/db/sqlite"
	"github.com/ctfops-io/scoring-api/pkg/ratelimit"
	"github.com/ctfops-io/scoring-api/pkg/scoring"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var relaxedLimits = ratelimit.Config{
	Enabled: true, MaxAttempts: 100, WindowSeconds: 60, LockSeconds: 5, MaxBackoffSeconds: 3600,
}

var percentBonus = scoring.AwardConfig{
	FirstSolverBonusEnabled: true,
	BonusMode:               config.BonusModePercent,
	BonusValue:              20,
}

func newTestDB(t *testing.T) db.DB {
	t.Helper()
	database, err := sqlite.NewSQLiteDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = database.Close()
	})
	return database
}

func newOrchestrator(t *testing.T, database db.DB, limits ratelimit.Config,
	award scoring.AwardConfig) *scoring.Orchestrator {
	t.Helper()
	return scoring.NewOrchestrator(database, ratelimit.NewLimiter(limits, database.Observer()), award)
}

// seedChallenge creates a track and a published challenge whose flag is
// the given plaintext.
func seedChallenge(t *testing.T, database db.DB, slug, flag string, points int) *db.Challenge {
	t.Helper()
	ctx := context.Background()
	catalog := scoring.NewCatalog(database)
	track, err := catalog.CreateTrack(ctx, "web-"+slug, "Web")
	require.NoError(t, err)
	challenge, err := catalog.CreateChallenge(ctx, track.Slug, slug, "Challenge", "Solve it.", points)
	require.NoError(t, err)
	require.NoError(t, catalog.SetFlag(ctx, challenge.ID, flag))
	published, err := catalog.Publish(ctx, challenge.ID)
	require.NoError(t, err)
	return published
}

func seedParticipant(t *testing.T, database db.DB, name string) *db.Participant {
	t.Helper()
	participant := &db.Participant{
		ID:           uuid.NewString(),
		Name:         name,
		PasswordHash: "irrelevant",
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, database.CreateParticipant(context.Background(), participant))
	return participant
}

func countAttempts(t *testing.T, database db.DB, participantID, challengeID string) int {
	t.Helper()
	count, err := database.CountAttempts(context.Background(), participantID, challengeID)
	require.NoError(t, err)
	return count
}

func TestFirstSolverReceivesPercentBonus(t *testing.T) {
	database := newTestDB(t)
	orchestrator := newOrchestrator(t, database, relaxedLimits, percentBonus)
	challenge := seedChallenge(t, database, "xss-1", "FLAG{reflected}", 100)
	alice := seedParticipant(t, database, "alice")
	bob := seedParticipant(t, database, "bob")
	ctx := context.Background()

	first, err := orchestrator.Submit(ctx, alice.ID, challenge.Slug, "FLAG{reflected}")
	require.NoError(t, err)
	assert.True(t, first.Correct)
	assert.Equal(t, 120, first.PointsAwarded)
	assert.True(t, first.FirstSolver)

	second, err := orchestrator.Submit(ctx, bob.ID, challenge.Slug, "FLAG{reflected}")
	require.NoError(t, err)
	assert.True(t, second.Correct)
	assert.Equal(t, 100, second.PointsAwarded)
	assert.False(t, second.FirstSolver)
}

func TestFixedBonusMode(t *testing.T) {
	database := newTestDB(t)
	orchestrator := newOrchestrator(t, database, relaxedLimits, scoring.AwardConfig{
		FirstSolverBonusEnabled: true,
		BonusMode:               config.BonusModeFixed,
		BonusValue:              50,
	})
	challenge := seedChallenge(t, database, "xss-2", "FLAG{stored}", 100)
	alice := seedParticipant(t, database, "alice")

	result, err := orchestrator.Submit(context.Background(), alice.ID, challenge.Slug, "FLAG{stored}")
	require.NoError(t, err)
	assert.Equal(t, 150, result.PointsAwarded)
	assert.True(t, result.FirstSolver)
}

func TestDisabledBonusAwardsBasePoints(t *testing.T) {
	database := newTestDB(t)
	orchestrator := newOrchestrator(t, database, relaxedLimits, scoring.AwardConfig{})
	challenge := seedChallenge(t, database, "xss-3", "FLAG{dom}", 100)
	alice := seedParticipant(t, database, "alice")

	result, err := orchestrator.Submit(context.Background(), alice.ID, challenge.Slug, "FLAG{dom}")
	require.NoError(t, err)
	assert.Equal(t, 100, result.PointsAwarded)
	assert.False(t, result.FirstSolver)

	rewards, err := database.ListRewardsForChallenge(context.Background(), challenge.ID)
	require.NoError(t, err)
	require.Len(t, rewards, 1)
	assert.False(t, rewards[0].FirstSolver)
}

func TestRepeatCorrectSubmissionYieldsNoPoints(t *testing.T) {
	database := newTestDB(t)
	orchestrator := newOrchestrator(t, database, relaxedLimits, percentBonus)
	challenge := seedChallenge(t, database, "crypto-1", "FLAG{rot13}", 100)
	alice := seedParticipant(t, database, "alice")
	ctx := context.Background()

	first, err := orchestrator.Submit(ctx, alice.ID, challenge.Slug, "FLAG{rot13}")
	require.NoError(t, err)
	require.Equal(t, 120, first.PointsAwarded)

	repeat, err := orchestrator.Submit(ctx, alice.ID, challenge.Slug, "FLAG{rot13}")
	require.NoError(t, err)
	assert.True(t, repeat.Correct)
	assert.Zero(t, repeat.PointsAwarded)
	assert.False(t, repeat.FirstSolver)

	rewards, err := database.ListRewardsForChallenge(ctx, challenge.ID)
	require.NoError(t, err)
	assert.Len(t, rewards, 1, "a repeat solve never writes a second reward")
	assert.Equal(t, 2, countAttempts(t, database, alice.ID, challenge.ID),
		"both submissions are logged")
}

func TestIncorrectSubmission(t *testing.T) {
	database := newTestDB(t)
	orchestrator := newOrchestrator(t, database, relaxedLimits, percentBonus)
	challenge := seedChallenge(t, database, "crypto-2", "FLAG{xor}", 100)
	alice := seedParticipant(t, database, "alice")
	ctx := context.Background()

	result, err := orchestrator.Submit(ctx, alice.ID, challenge.Slug, "FLAG{nope}")
	require.NoError(t, err)
	assert.False(t, result.Correct)
	assert.Zero(t, result.PointsAwarded)
	assert.False(t, result.FirstSolver)

	rewards, err := database.ListRewardsForChallenge(ctx, challenge.ID)
	require.NoError(t, err)
	assert.Empty(t, rewards)
	assert.Equal(t, 1, countAttempts(t, database, alice.ID, challenge.ID))
}

func TestSubmittedValueIsTrimmedBeforeComparison(t *testing.T) {
	database := newTestDB(t)
	orchestrator := newOrchestrator(t, database, relaxedLimits, percentBonus)
	challenge := seedChallenge(t, database, "crypto-3", "FLAG{padding}", 100)
	alice := seedParticipant(t, database, "alice")

	result, err := orchestrator.Submit(context.Background(), alice.ID, challenge.Slug, "  FLAG{padding}\n")
	require.NoError(t, err)
	assert.True(t, result.Correct)
}

func TestEmptySubmissionIsChargedAndLogged(t *testing.T) {
	database := newTestDB(t)
	orchestrator := newOrchestrator(t, database, relaxedLimits, percentBonus)
	challenge := seedChallenge(t, database, "crypto-4", "FLAG{empty}", 100)
	alice := seedParticipant(t, database, "alice")
	ctx := context.Background()

	_, err := orchestrator.Submit(ctx, alice.ID, challenge.Slug, "   ")
	assert.ErrorIs(t, err, scoring.InvalidSubmissionError)

	// The failure still consumed an attempt slot and logged an incorrect
	// attempt.
	assert.Equal(t, 1, countAttempts(t, database, alice.ID, challenge.ID))
	rewards, err := database.ListRewardsForChallenge(ctx, challenge.ID)
	require.NoError(t, err)
	assert.Empty(t, rewards)
}

func TestSubmissionAgainstMissingChallenge(t *testing.T) {
	database := newTestDB(t)
	orchestrator := newOrchestrator(t, database, relaxedLimits, percentBonus)
	alice := seedParticipant(t, database, "alice")

	_, err := orchestrator.Submit(context.Background(), alice.ID, "no-such-challenge", "FLAG{x}")
	assert.ErrorIs(t, err, scoring.ChallengeNotFoundError)
}

func TestSubmissionAgainstUnpublishedChallenge(t *testing.T) {
	database := newTestDB(t)
	orchestrator := newOrchestrator(t, database, relaxedLimits, percentBonus)
	challenge := seedChallenge(t, database, "forensics-1", "FLAG{pcap}", 100)
	alice := seedParticipant(t, database, "alice")
	ctx := context.Background()

	catalog := scoring.NewCatalog(database)
	require.NoError(t, catalog.Unpublish(ctx, challenge.ID))

	_, err := orchestrator.Submit(ctx, alice.ID, challenge.Slug, "FLAG{pcap}")
	assert.ErrorIs(t, err, scoring.ChallengeNotPublishedError)
	assert.Zero(t, countAttempts(t, database, alice.ID, challenge.ID),
		"a rejected lookup consumes no attempt")
}

func TestSubmissionAgainstChallengeWithoutFlag(t *testing.T) {
	database := newTestDB(t)
	orchestrator := newOrchestrator(t, database, relaxedLimits, percentBonus)
	alice := seedParticipant(t, database, "alice")
	ctx := context.Background()

	catalog := scoring.NewCatalog(database)
	track, err := catalog.CreateTrack(ctx, "pwn", "Pwn")
	require.NoError(t, err)
	challenge, err := catalog.CreateChallenge(ctx, track.Slug, "pwn-1", "Pwn 1", "Smash it.", 100)
	require.NoError(t, err)
	// Force the gate open without a flag, which publishing itself forbids.
	require.NoError(t, database.SetChallengePublished(ctx, challenge.ID, true))

	_, err = orchestrator.Submit(ctx, alice.ID, challenge.Slug, "FLAG{x}")
	assert.ErrorIs(t, err, scoring.FlagNotConfiguredError)
	assert.Zero(t, countAttempts(t, database, alice.ID, challenge.ID))
}

func TestRateLimitedSubmissionWritesNoRecords(t *testing.T) {
	database := newTestDB(t)
	orchestrator := newOrchestrator(t, database, ratelimit.Config{
		Enabled: true, MaxAttempts: 1, WindowSeconds: 60, LockSeconds: 5, MaxBackoffSeconds: 3600,
	}, percentBonus)
	challenge := seedChallenge(t, database, "web-1", "FLAG{idor}", 100)
	alice := seedParticipant(t, database, "alice")
	ctx := context.Background()

	_, err := orchestrator.Submit(ctx, alice.ID, challenge.Slug, "FLAG{wrong}")
	require.NoError(t, err)

	_, err = orchestrator.Submit(ctx, alice.ID, challenge.Slug, "FLAG{idor}")
	var limited *scoring.RateLimitedError
	require.ErrorAs(t, err, &limited)
	assert.GreaterOrEqual(t, limited.RetryAfterSeconds, 1)

	// The denied call left no trace besides the counter state.
	assert.Equal(t, 1, countAttempts(t, database, alice.ID, challenge.ID))
	rewards, err := database.ListRewardsForChallenge(ctx, challenge.ID)
	require.NoError(t, err)
	assert.Empty(t, rewards)
}

func TestInvalidAwardConfigurationRollsBackEverything(t *testing.T) {
	database := newTestDB(t)
	orchestrator := newOrchestrator(t, database, relaxedLimits, scoring.AwardConfig{
		FirstSolverBonusEnabled: true,
		BonusMode:               "double",
		BonusValue:              20,
	})
	challenge := seedChallenge(t, database, "web-2", "FLAG{ssrf}", 100)
	alice := seedParticipant(t, database, "alice")
	ctx := context.Background()

	_, err := orchestrator.Submit(ctx, alice.ID, challenge.Slug, "FLAG{ssrf}")
	assert.ErrorIs(t, err, scoring.ConfigurationError)

	// Nothing of the failed call survives, not even the logged attempt.
	assert.Zero(t, countAttempts(t, database, alice.ID, challenge.ID))
	rewards, err := database.ListRewardsForChallenge(ctx, challenge.ID)
	require.NoError(t, err)
	assert.Empty(t, rewards)
}

func TestConcurrentFirstSolverRace(t *testing.T) {
	database := newTestDB(t)
	orchestrator := newOrchestrator(t, database, relaxedLimits, percentBonus)
	challenge := seedChallenge(t, database, "race-1", "FLAG{tocttou}", 100)
	ctx := context.Background()

	const racers = 6
	participants := make([]*db.Participant, racers)
	for i := range participants {
		participants[i] = seedParticipant(t, database, fmt.Sprintf("racer-%d", i))
	}

	results := make([]*scoring.Result, racers)
	errs := make([]error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = orchestrator.Submit(ctx, participants[i].ID, challenge.Slug,
				"FLAG{tocttou}")
		}(i)
	}
	wg.Wait()

	firstSolvers := 0
	for i := 0; i < racers; i++ {
		require.NoError(t, errs[i])
		require.True(t, results[i].Correct)
		if results[i].FirstSolver {
			firstSolvers++
			assert.Equal(t, 120, results[i].PointsAwarded)
		} else {
			assert.Equal(t, 100, results[i].PointsAwarded)
		}
	}
	assert.Equal(t, 1, firstSolvers, "exactly one racer claims the bonus")

	rewards, err := database.ListRewardsForChallenge(ctx, challenge.ID)
	require.NoError(t, err)
	require.Len(t, rewards, racers)
	recorded := 0
	for _, reward := range rewards {
		if reward.FirstSolver {
			recorded++
		}
	}
	assert.Equal(t, 1, recorded)
}
