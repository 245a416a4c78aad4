package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"weekly-challenge/internal/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Schedule finds the challenge whose week_start is the Monday of the given instant.
type Schedule struct {
	pool *pgxpool.Pool
}

func NewSchedule(pool *pgxpool.Pool) *Schedule {
	return &Schedule{pool: pool}
}

func (s *Schedule) ActiveChallenge(ctx context.Context, at time.Time) (string, error) {
	var id string
	err := s.pool.QueryRow(ctx, `SELECT id FROM challenges WHERE week_start=$1::date`, weekParam(at)).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrNoActiveChallenge
	}
	if err != nil {
		return "", fmt.Errorf("active challenge: %w", err)
	}
	return id, nil
}

func weekParam(at time.Time) string {
	return domain.WeekStart(at.UTC()).Format("2006-01-02")
}
