package app

import (
	"context"
	"errors"
	"time"

	"weekly-challenge/internal/domain"
)

// EligibilityGate decides whether a user may start, must resume, or has to wait.
type EligibilityGate struct {
	attempts AttemptStore
	now      func() time.Time
}

func NewEligibilityGate(attempts AttemptStore, now func() time.Time) *EligibilityGate {
	if now == nil {
		now = time.Now
	}
	return &EligibilityGate{attempts: attempts, now: now}
}

// Check looks at the most recent attempt for (user, challenge).
// Store failures come back as *domain.EligibilityError, never as eligible.
func (g *EligibilityGate) Check(ctx context.Context, userID, challengeID string) (domain.Eligibility, error) {
	latest, err := g.attempts.Latest(ctx, userID, challengeID)
	if errors.Is(err, domain.ErrAttemptNotFound) {
		return domain.Eligibility{CanAttempt: true, Status: domain.EligibilityFresh}, nil
	}
	if err != nil {
		return domain.Eligibility{}, &domain.EligibilityError{Err: err}
	}
	return decide(latest, g.now()), nil
}

func decide(latest domain.Attempt, now time.Time) domain.Eligibility {
	if !latest.Completed {
		resume := latest.Clone()
		return domain.Eligibility{CanAttempt: true, Status: domain.EligibilityResume, Attempt: &resume}
	}
	// A run that reached question 50 never blocks; a lives-exhausted run blocks until its retry time.
	if latest.ExhaustedLives() && latest.NextAttemptAt != nil && now.Before(*latest.NextAttemptAt) {
		retryAt := *latest.NextAttemptAt
		return domain.Eligibility{CanAttempt: false, Status: domain.EligibilityCooldown, NextAttemptAt: &retryAt}
	}
	return domain.Eligibility{CanAttempt: true, Status: domain.EligibilityFresh}
}
