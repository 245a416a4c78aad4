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

type challengeRow struct {
	bun.BaseModel `bun:"table:challenges,alias:c"`

	ID        string    `bun:"id,pk"`
	Title     string    `bun:"title,notnull"`
	WeekStart time.Time `bun:"week_start,type:date,notnull"`
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions,alias:q"`

	ChallengeID   string   `bun:"challenge_id,pk"`
	Index         int      `bun:"idx,pk"`
	Prompt        string   `bun:"prompt,notnull"`
	Options       []string `bun:"options,array"`
	CorrectOption int      `bun:"correct_option"`
	Explanation   string   `bun:"explanation"`
	Category      string   `bun:"category"`
	Difficulty    string   `bun:"difficulty,notnull"`
}

// Seeder writes validated challenges. A re-seed replaces the question set only
// while nobody has started the challenge.
type Seeder struct {
	db *bun.DB
}

func NewSeeder(db *bun.DB) *Seeder {
	return &Seeder{db: db}
}

func (s *Seeder) SeedChallenge(ctx context.Context, ch domain.Challenge) error {
	if err := ch.Validate(); err != nil {
		return err
	}
	challenge := challengeRow{
		ID:        ch.ID,
		Title:     ch.Title,
		WeekStart: domain.WeekStart(ch.WeekStart.UTC()),
	}
	questions := make([]questionRow, 0, len(ch.Questions))
	for _, q := range ch.Questions {
		questions = append(questions, questionRow{
			ChallengeID:   ch.ID,
			Index:         q.Index,
			Prompt:        q.Prompt,
			Options:       q.Options,
			CorrectOption: q.CorrectOption,
			Explanation:   q.Explanation,
			Category:      q.Category,
			Difficulty:    string(q.Difficulty),
		})
	}

	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if err := ensureUnplayed(ctx, tx, ch.ID); err != nil {
			return err
		}
		if _, err := tx.NewInsert().
			Model(&challenge).
			On("CONFLICT (id) DO UPDATE").
			Set("title = EXCLUDED.title").
			Set("week_start = EXCLUDED.week_start").
			Exec(ctx); err != nil {
			return fmt.Errorf("upsert challenge: %w", err)
		}
		if _, err := tx.NewDelete().
			Model((*questionRow)(nil)).
			Where("challenge_id = ?", ch.ID).
			Exec(ctx); err != nil {
			return fmt.Errorf("clear questions: %w", err)
		}
		if _, err := tx.NewInsert().Model(&questions).Exec(ctx); err != nil {
			return fmt.Errorf("insert questions: %w", err)
		}
		return nil
	})
}

// ensureUnplayed locks an existing challenge row and refuses when attempts
// reference it. The row lock blocks attempt inserts, whose foreign key check
// needs a share lock on the same row, until the seed commits.
func ensureUnplayed(ctx context.Context, tx bun.Tx, challengeID string) error {
	var id string
	err := tx.NewSelect().
		Model((*challengeRow)(nil)).
		Column("id").
		Where("id = ?", challengeID).
		For("UPDATE").
		Scan(ctx, &id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("lock challenge: %w", err)
	}
	played, err := tx.NewSelect().
		Table("attempts").
		Where("challenge_id = ?", challengeID).
		Exists(ctx)
	if err != nil {
		return fmt.Errorf("check attempts: %w", err)
	}
	if played {
		return fmt.Errorf("seed %s: %w", challengeID, domain.ErrChallengePublished)
	}
	return nil
}
