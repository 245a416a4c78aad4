package app

import (
	"context"
	"time"

	"weekly-challenge/internal/domain"
)

// ChallengeRepository loads challenge content (from cache/backing store).
type ChallengeRepository interface {
	GetChallenge(ctx context.Context, challengeID string) (domain.Challenge, error)
}

// AttemptStore persists attempts. Update is a compare-and-swap on Version and
// returns domain.ErrVersionConflict when the stored version differs.
type AttemptStore interface {
	Latest(ctx context.Context, userID, challengeID string) (domain.Attempt, error)
	Create(ctx context.Context, attempt domain.Attempt) error
	Update(ctx context.Context, attempt domain.Attempt, expectedVersion int64) error
	CountByUser(ctx context.Context, userID string) (int, error)
}

// LeaderboardStore persists one best-score row per (challenge, user).
type LeaderboardStore interface {
	Get(ctx context.Context, challengeID, userID string) (domain.LeaderboardEntry, error)
	Put(ctx context.Context, entry domain.LeaderboardEntry) error
	List(ctx context.Context, challengeID string) ([]domain.LeaderboardEntry, error)
}

// RewardLedger grants experience points.
type RewardLedger interface {
	GrantExperience(ctx context.Context, userID string, amount int, reason string) error
}

// AchievementTracker records achievement progress; idempotency is the tracker's concern.
type AchievementTracker interface {
	RecordProgress(ctx context.Context, userID, achievementKey string, delta int) error
}

// Locker serialises work on one key; unlock must be called exactly once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// Schedule resolves which challenge is active at a point in time.
type Schedule interface {
	ActiveChallenge(ctx context.Context, at time.Time) (string, error)
}

// CompletionEvent describes an attempt that just became terminal.
type CompletionEvent struct {
	Attempt      domain.Attempt
	Experience   int
	Achievements []string
	Entry        *domain.LeaderboardEntry
}

// CompletionSink observes completed attempts. Implementations must not block.
type CompletionSink interface {
	AttemptCompleted(ctx context.Context, event CompletionEvent)
}

func attemptKey(userID, challengeID string) string {
	return challengeID + ":" + userID
}
