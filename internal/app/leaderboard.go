package app

import (
	"context"
	"errors"
	"time"

	"weekly-challenge/internal/domain"
)

// LeaderboardService keeps the per-challenge best-score table.
type LeaderboardService struct {
	store LeaderboardStore
	locks Locker
	now   func() time.Time
}

func NewLeaderboardService(store LeaderboardStore, locks Locker, now func() time.Time) *LeaderboardService {
	if locks == nil {
		locks = NewKeyedMutex()
	}
	if now == nil {
		now = time.Now
	}
	return &LeaderboardService{store: store, locks: locks, now: now}
}

// RecordResult folds one completed attempt's score into the user's row.
func (s *LeaderboardService) RecordResult(ctx context.Context, challengeID, userID string, score int) (domain.LeaderboardEntry, error) {
	unlock, err := s.locks.Lock(ctx, "leaderboard:"+attemptKey(userID, challengeID))
	if err != nil {
		return domain.LeaderboardEntry{}, err
	}
	defer unlock()

	now := s.now()
	entry, err := s.store.Get(ctx, challengeID, userID)
	switch {
	case errors.Is(err, domain.ErrEntryNotFound):
		entry = domain.NewLeaderboardEntry(challengeID, userID, score, now)
	case err != nil:
		return domain.LeaderboardEntry{}, err
	default:
		entry = entry.Record(score, now)
	}

	if err := s.store.Put(ctx, entry); err != nil {
		return domain.LeaderboardEntry{}, err
	}
	return entry, nil
}

// Standings returns the ranked table; limit <= 0 means all rows.
func (s *LeaderboardService) Standings(ctx context.Context, challengeID string, limit int) (domain.Standings, error) {
	entries, err := s.store.List(ctx, challengeID)
	if err != nil {
		return domain.Standings{}, err
	}
	ranked := domain.RankEntries(entries)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return domain.Standings{
		ChallengeID: challengeID,
		Entries:     ranked,
		UpdatedAt:   s.now(),
	}, nil
}
