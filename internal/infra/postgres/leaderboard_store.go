package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"weekly-challenge/internal/domain"

	"github.com/uptrace/bun"
)

type leaderboardRow struct {
	bun.BaseModel `bun:"table:leaderboard_entries,alias:le"`

	ChallengeID   string    `bun:"challenge_id,pk"`
	UserID        string    `bun:"user_id,pk"`
	BestScore     int       `bun:"best_score,notnull"`
	AttemptsCount int       `bun:"attempts_count,notnull"`
	BestScoreAt   time.Time `bun:"best_score_at,notnull"`
	UpdatedAt     time.Time `bun:"updated_at,notnull"`
}

func (r leaderboardRow) entry() domain.LeaderboardEntry {
	return domain.LeaderboardEntry{
		ChallengeID:   r.ChallengeID,
		UserID:        r.UserID,
		BestScore:     r.BestScore,
		AttemptsCount: r.AttemptsCount,
		BestScoreAt:   r.BestScoreAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// LeaderboardStore keeps one row per (challenge, user) in leaderboard_entries.
type LeaderboardStore struct {
	db *bun.DB
}

func NewLeaderboardStore(db *bun.DB) *LeaderboardStore {
	return &LeaderboardStore{db: db}
}

func (s *LeaderboardStore) Get(ctx context.Context, challengeID, userID string) (domain.LeaderboardEntry, error) {
	var row leaderboardRow
	err := s.db.NewSelect().
		Model(&row).
		Where("challenge_id = ?", challengeID).
		Where("user_id = ?", userID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.LeaderboardEntry{}, domain.ErrEntryNotFound
	}
	if err != nil {
		return domain.LeaderboardEntry{}, fmt.Errorf("get leaderboard entry: %w", err)
	}
	return row.entry(), nil
}

func (s *LeaderboardStore) Put(ctx context.Context, e domain.LeaderboardEntry) error {
	row := leaderboardRow{
		ChallengeID:   e.ChallengeID,
		UserID:        e.UserID,
		BestScore:     e.BestScore,
		AttemptsCount: e.AttemptsCount,
		BestScoreAt:   e.BestScoreAt,
		UpdatedAt:     e.UpdatedAt,
	}
	if _, err := s.putQuery(&row).Exec(ctx); err != nil {
		return fmt.Errorf("put leaderboard entry: %w", err)
	}
	return nil
}

func (s *LeaderboardStore) List(ctx context.Context, challengeID string) ([]domain.LeaderboardEntry, error) {
	var rows []leaderboardRow
	if err := s.listQuery(&rows, challengeID).Scan(ctx); err != nil {
		return nil, fmt.Errorf("list leaderboard: %w", err)
	}
	out := make([]domain.LeaderboardEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.entry())
	}
	return out, nil
}

func (s *LeaderboardStore) putQuery(row *leaderboardRow) *bun.InsertQuery {
	return s.db.NewInsert().
		Model(row).
		On("CONFLICT (challenge_id, user_id) DO UPDATE").
		Set("best_score = EXCLUDED.best_score").
		Set("attempts_count = EXCLUDED.attempts_count").
		Set("best_score_at = EXCLUDED.best_score_at").
		Set("updated_at = EXCLUDED.updated_at")
}

// listQuery orders by best score, then earliest to reach it, then user id.
func (s *LeaderboardStore) listQuery(rows *[]leaderboardRow, challengeID string) *bun.SelectQuery {
	return s.db.NewSelect().
		Model(rows).
		Where("challenge_id = ?", challengeID).
		OrderExpr("best_score DESC, best_score_at ASC, user_id ASC")
}
