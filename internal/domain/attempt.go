package domain

import (
	"fmt"
	"time"
)

// Attempt is one user's run through a challenge's question set.
// CurrentQuestionIndex is both the next question to render and the number answered so far.
type Attempt struct {
	ID                   string     `json:"id"`
	UserID               string     `json:"userId"`
	ChallengeID          string     `json:"challengeId"`
	Score                int        `json:"score"`
	LivesRemaining       int        `json:"livesRemaining"`
	CurrentQuestionIndex int        `json:"currentQuestionIndex"`
	Answers              []int      `json:"answers"`
	Completed            bool       `json:"completed"`
	CompletedAt          *time.Time `json:"completedAt,omitempty"`
	NextAttemptAt        *time.Time `json:"nextAttemptAt,omitempty"`
	StartedAt            time.Time  `json:"startedAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
	Version              int64      `json:"version"`
}

// NewAttempt returns a fresh attempt with full lives at question 0.
func NewAttempt(id, userID, challengeID string, now time.Time) Attempt {
	return Attempt{
		ID:             id,
		UserID:         userID,
		ChallengeID:    challengeID,
		LivesRemaining: MaxLives,
		Answers:        []int{},
		StartedAt:      now,
		UpdatedAt:      now,
		Version:        1,
	}
}

// Clone returns a deep copy so callers can mutate without aliasing stored state.
func (a Attempt) Clone() Attempt {
	out := a
	out.Answers = make([]int, len(a.Answers))
	copy(out.Answers, a.Answers)
	if a.CompletedAt != nil {
		t := *a.CompletedAt
		out.CompletedAt = &t
	}
	if a.NextAttemptAt != nil {
		t := *a.NextAttemptAt
		out.NextAttemptAt = &t
	}
	return out
}

// ExhaustedLives reports whether the attempt ended by running out of lives before the last question.
func (a Attempt) ExhaustedLives() bool {
	return a.Completed && a.LivesRemaining == 0 && a.CurrentQuestionIndex < QuestionsPerChallenge
}

// ProgressPercent is the share of the question set already answered.
func (a Attempt) ProgressPercent() int {
	return a.CurrentQuestionIndex * 100 / QuestionsPerChallenge
}

// Answer applies one answer and returns the resulting attempt; the receiver is left untouched.
// cooldown is the wait stamped into NextAttemptAt when lives run out before the last question.
func (a Attempt) Answer(q Question, sub AnswerSubmission, now time.Time, cooldown time.Duration) (Attempt, AnswerFeedback, error) {
	if a.Completed {
		return a, AnswerFeedback{}, ErrAttemptCompleted
	}
	if sub.QuestionIndex != a.CurrentQuestionIndex || q.Index != a.CurrentQuestionIndex {
		return a, AnswerFeedback{}, ErrQuestionOutOfOrder
	}
	if sub.ChosenOptionIndex < 0 || sub.ChosenOptionIndex >= len(q.Options) {
		return a, AnswerFeedback{}, ErrInvalidOption
	}

	next := a.Clone()
	correct := sub.ChosenOptionIndex == q.CorrectOption
	if correct {
		next.Score++
	} else if next.LivesRemaining > 0 {
		next.LivesRemaining--
	}
	next.Answers = append(next.Answers, sub.ChosenOptionIndex)
	next.CurrentQuestionIndex++
	next.UpdatedAt = now
	next.Version++

	if next.CurrentQuestionIndex == QuestionsPerChallenge || next.LivesRemaining == 0 {
		completedAt := now
		next.Completed = true
		next.CompletedAt = &completedAt
		if next.LivesRemaining == 0 && next.CurrentQuestionIndex < QuestionsPerChallenge {
			retryAt := now.Add(cooldown)
			next.NextAttemptAt = &retryAt
		}
	}

	return next, AnswerFeedback{
		QuestionIndex:      q.Index,
		ChosenOptionIndex:  sub.ChosenOptionIndex,
		IsCorrect:          correct,
		CorrectOptionIndex: q.CorrectOption,
		Explanation:        q.Explanation,
	}, nil
}

// CheckInvariants validates a stored attempt before it is trusted.
func (a Attempt) CheckInvariants() error {
	switch {
	case a.Score < 0 || a.Score > a.CurrentQuestionIndex:
		return fmt.Errorf("attempt %s: score %d out of range for %d answers", a.ID, a.Score, a.CurrentQuestionIndex)
	case a.LivesRemaining < 0 || a.LivesRemaining > MaxLives:
		return fmt.Errorf("attempt %s: lives %d out of range", a.ID, a.LivesRemaining)
	case a.CurrentQuestionIndex < 0 || a.CurrentQuestionIndex > QuestionsPerChallenge:
		return fmt.Errorf("attempt %s: question index %d out of range", a.ID, a.CurrentQuestionIndex)
	case len(a.Answers) != a.CurrentQuestionIndex:
		return fmt.Errorf("attempt %s: %d answers recorded for index %d", a.ID, len(a.Answers), a.CurrentQuestionIndex)
	}
	terminal := a.CurrentQuestionIndex == QuestionsPerChallenge || a.LivesRemaining == 0
	if a.Completed != terminal {
		return fmt.Errorf("attempt %s: completed=%v at index %d with %d lives", a.ID, a.Completed, a.CurrentQuestionIndex, a.LivesRemaining)
	}
	if (a.NextAttemptAt != nil) != a.ExhaustedLives() {
		return fmt.Errorf("attempt %s: retry time does not match completion cause", a.ID)
	}
	return nil
}
