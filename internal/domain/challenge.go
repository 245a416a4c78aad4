package domain

import (
	"fmt"
	"time"

	"github.com/jinzhu/now"
)

var weekConfig = &now.Config{WeekStartDay: time.Monday}

// WeekStart returns midnight of the Monday starting t's week, in t's location.
func WeekStart(t time.Time) time.Time {
	return weekConfig.With(t).BeginningOfWeek()
}

// Validate checks the challenge carries exactly the playable question set.
func (c Challenge) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: missing id", ErrIncompleteQuestionSet)
	}
	if len(c.Questions) != QuestionsPerChallenge {
		return fmt.Errorf("%w: %s has %d questions", ErrIncompleteQuestionSet, c.ID, len(c.Questions))
	}
	for i, q := range c.Questions {
		if q.Index != i {
			return fmt.Errorf("%w: %s question %d has index %d", ErrIncompleteQuestionSet, c.ID, i, q.Index)
		}
		if q.Prompt == "" {
			return fmt.Errorf("%w: %s question %d has no prompt", ErrIncompleteQuestionSet, c.ID, i)
		}
		if len(q.Options) != OptionsPerQuestion {
			return fmt.Errorf("%w: %s question %d has %d options", ErrIncompleteQuestionSet, c.ID, i, len(q.Options))
		}
		if q.CorrectOption < 0 || q.CorrectOption >= OptionsPerQuestion {
			return fmt.Errorf("%w: %s question %d correct option %d", ErrIncompleteQuestionSet, c.ID, i, q.CorrectOption)
		}
		if !q.Difficulty.Valid() {
			return fmt.Errorf("%w: %s question %d difficulty %q", ErrIncompleteQuestionSet, c.ID, i, q.Difficulty)
		}
	}
	return nil
}
