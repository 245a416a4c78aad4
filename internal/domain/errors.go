package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrChallengeNotFound indicates the challenge content could not be loaded.
	ErrChallengeNotFound = errors.New("challenge not found")
	// ErrNoActiveChallenge is returned when no challenge is scheduled for the current week.
	ErrNoActiveChallenge = errors.New("no active challenge")
	// ErrIncompleteQuestionSet indicates a challenge that does not carry a valid 50-question set.
	ErrIncompleteQuestionSet = errors.New("challenge question set is incomplete")
	// ErrAttemptNotFound is returned when the user has no attempt for the challenge.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrAttemptCompleted is returned when answering an attempt that already ended.
	ErrAttemptCompleted = errors.New("attempt already completed")
	// ErrQuestionOutOfOrder indicates an answer for a question other than the current one.
	ErrQuestionOutOfOrder = errors.New("question index does not match attempt")
	// ErrVersionConflict indicates the attempt changed since the caller last read it.
	ErrVersionConflict = errors.New("attempt was modified concurrently")
	// ErrInvalidOption indicates a chosen option index outside the question's options.
	ErrInvalidOption = errors.New("option index out of range")
	// ErrCooldownActive is returned when a new attempt is requested before the retry time.
	ErrCooldownActive = errors.New("retry cooldown active")
	// ErrChallengePublished is returned when replacing questions of a challenge that has been played.
	ErrChallengePublished = errors.New("challenge already has attempts; its questions are frozen")
	// ErrEntryNotFound is returned when a user has no leaderboard row for a challenge.
	ErrEntryNotFound = errors.New("leaderboard entry not found")
)

// CooldownError carries the earliest time a new attempt may begin.
type CooldownError struct {
	NextAttemptAt time.Time
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s until %s", ErrCooldownActive, e.NextAttemptAt.Format(time.RFC3339))
}

func (e *CooldownError) Is(target error) bool {
	return target == ErrCooldownActive
}

// EligibilityError wraps store failures hit while deciding eligibility.
// It must never be interpreted as "eligible".
type EligibilityError struct {
	Err error
}

func (e *EligibilityError) Error() string {
	return "cannot determine eligibility: " + e.Err.Error()
}

func (e *EligibilityError) Unwrap() error {
	return e.Err
}
