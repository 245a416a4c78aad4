package postgres

import (
	"context"
	"errors"
	"fmt"

	"weekly-challenge/internal/domain"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const uniqueViolation = "23505"

const attemptColumns = `id, user_id, challenge_id, score, lives_remaining, current_question_index,
	answers, completed, completed_at, next_attempt_at, started_at, updated_at, version`

// AttemptStore persists attempts in Postgres. Update is guarded by the version column.
type AttemptStore struct {
	pool *pgxpool.Pool
}

func NewAttemptStore(pool *pgxpool.Pool) *AttemptStore {
	return &AttemptStore{pool: pool}
}

func (s *AttemptStore) Latest(ctx context.Context, userID, challengeID string) (domain.Attempt, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+attemptColumns+` FROM attempts
		WHERE user_id=$1 AND challenge_id=$2
		ORDER BY started_at DESC LIMIT 1`, userID, challengeID)
	attempt, err := scanAttempt(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("latest attempt: %w", err)
	}
	return attempt, nil
}

// Create relies on attempts_one_open_idx to refuse a second unfinished attempt.
func (s *AttemptStore) Create(ctx context.Context, a domain.Attempt) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO attempts (`+attemptColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		a.ID, a.UserID, a.ChallengeID, a.Score, a.LivesRemaining, a.CurrentQuestionIndex,
		answers(a), a.Completed, a.CompletedAt, a.NextAttemptAt, a.StartedAt, a.UpdatedAt, a.Version)
	return createError(err)
}

// createError maps a hit on attempts_one_open_idx to a conflict.
func createError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrVersionConflict
	}
	if err != nil {
		return fmt.Errorf("create attempt: %w", err)
	}
	return nil
}

func (s *AttemptStore) Update(ctx context.Context, a domain.Attempt, expectedVersion int64) error {
	tag, err := s.pool.Exec(ctx, `UPDATE attempts SET
			score=$3, lives_remaining=$4, current_question_index=$5, answers=$6,
			completed=$7, completed_at=$8, next_attempt_at=$9, updated_at=$10, version=$11
		WHERE id=$1 AND version=$2`,
		a.ID, expectedVersion, a.Score, a.LivesRemaining, a.CurrentQuestionIndex, answers(a),
		a.Completed, a.CompletedAt, a.NextAttemptAt, a.UpdatedAt, a.Version)
	if err != nil {
		return fmt.Errorf("update attempt: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM attempts WHERE id=$1)`, a.ID).Scan(&exists); err != nil {
		return fmt.Errorf("update attempt: %w", err)
	}
	return missedUpdate(exists)
}

// missedUpdate explains an update that matched no row: either the attempt is
// gone or its version moved on.
func missedUpdate(exists bool) error {
	if !exists {
		return domain.ErrAttemptNotFound
	}
	return domain.ErrVersionConflict
}

func (s *AttemptStore) CountByUser(ctx context.Context, userID string) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM attempts WHERE user_id=$1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return n, nil
}

func scanAttempt(row pgx.Row) (domain.Attempt, error) {
	var (
		a       domain.Attempt
		answers []int32
	)
	err := row.Scan(&a.ID, &a.UserID, &a.ChallengeID, &a.Score, &a.LivesRemaining, &a.CurrentQuestionIndex,
		&answers, &a.Completed, &a.CompletedAt, &a.NextAttemptAt, &a.StartedAt, &a.UpdatedAt, &a.Version)
	if err != nil {
		return domain.Attempt{}, err
	}
	a.Answers = make([]int, len(answers))
	for i, v := range answers {
		a.Answers[i] = int(v)
	}
	return a, nil
}

func answers(a domain.Attempt) []int32 {
	out := make([]int32, len(a.Answers))
	for i, v := range a.Answers {
		out[i] = int32(v)
	}
	return out
}
