package postgres

import (
	"context"
	"errors"
	"fmt"

	"weekly-challenge/internal/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ChallengeLoader reads a challenge and its questions from Postgres.
type ChallengeLoader struct {
	pool *pgxpool.Pool
}

func NewChallengeLoader(pool *pgxpool.Pool) *ChallengeLoader {
	return &ChallengeLoader{pool: pool}
}

func (l *ChallengeLoader) LoadChallenge(ctx context.Context, challengeID string) (domain.Challenge, error) {
	challenge := domain.Challenge{ID: challengeID}
	err := l.pool.QueryRow(ctx, `SELECT title, week_start FROM challenges WHERE id=$1`, challengeID).
		Scan(&challenge.Title, &challenge.WeekStart)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Challenge{}, domain.ErrChallengeNotFound
	}
	if err != nil {
		return domain.Challenge{}, fmt.Errorf("load challenge: %w", err)
	}

	rows, err := l.pool.Query(ctx, `
		SELECT idx, prompt, options, correct_option, explanation, category, difficulty
		FROM questions WHERE challenge_id=$1 ORDER BY idx`, challengeID)
	if err != nil {
		return domain.Challenge{}, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			q          domain.Question
			difficulty string
		)
		if err := rows.Scan(&q.Index, &q.Prompt, &q.Options, &q.CorrectOption, &q.Explanation, &q.Category, &difficulty); err != nil {
			return domain.Challenge{}, fmt.Errorf("scan question: %w", err)
		}
		q.Difficulty = domain.Difficulty(difficulty)
		challenge.Questions = append(challenge.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return domain.Challenge{}, fmt.Errorf("load questions: %w", err)
	}
	return challenge, nil
}
