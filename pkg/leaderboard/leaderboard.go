// Package leaderboard is the independent read path of the scoring service.
// It summarizes recorded rewards into ranked standings and never writes.
package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ctfops-io/scoring-api/pkg/db"
)

// MaxLimit is the largest page size a ranking query may request.
const MaxLimit = 500

var (
	// ValidationError is returned, when limit or offset are out of
	// bounds. Validation happens before any query executes.
	ValidationError = errors.New("invalid leaderboard pagination")
	// TrackNotFoundError is returned, when the requested track scope
	// does not exist.
	TrackNotFoundError = errors.New("track not found")
)

// Entry is one ranked row of a leaderboard.
type Entry = db.RewardSummary

// Aggregator produces ranked standings from the recorded rewards. It owns
// no state; every call derives an ephemeral projection at query time.
type Aggregator struct {
	db db.DB
}

// NewAggregator creates an aggregator over the given store.
func NewAggregator(database db.DB) *Aggregator {
	return &Aggregator{db: database}
}

// Global ranks all active participants across every challenge.
func (a *Aggregator) Global(ctx context.Context, limit, offset int) ([]Entry, error) {
	if err := validatePagination(limit, offset); err != nil {
		return nil, err
	}
	return a.db.AggregateRewards(ctx, "", uint(limit), uint(offset))
}

// ForTrack ranks all active participants across the challenges of the
// track with the given slug.
func (a *Aggregator) ForTrack(ctx context.Context, trackSlug string, limit, offset int) ([]Entry, error) {
	if err := validatePagination(limit, offset); err != nil {
		return nil, err
	}
	track, err := a.db.GetTrackBySlug(ctx, strings.TrimSpace(trackSlug))
	if err != nil {
		return nil, err
	}
	if track == nil {
		return nil, TrackNotFoundError
	}
	return a.db.AggregateRewards(ctx, track.ID, uint(limit), uint(offset))
}

func validatePagination(limit, offset int) error {
	if limit <= 0 {
		return fmt.Errorf("%w: limit must be greater than zero, but was %d", ValidationError, limit)
	}
	if limit > MaxLimit {
		return fmt.Errorf("%w: limit must not exceed %d, but was %d", ValidationError, MaxLimit, limit)
	}
	if offset < 0 {
		return fmt.Errorf("%w: offset must not be negative, but was %d", ValidationError, offset)
	}
	return nil
}
