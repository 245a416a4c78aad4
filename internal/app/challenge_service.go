package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"weekly-challenge/internal/domain"

	"github.com/google/uuid"
)

// Step is what the presentation layer renders after every call.
type Step struct {
	Attempt         domain.Attempt         `json:"attempt"`
	Question        *domain.QuestionView   `json:"question,omitempty"`
	RemainingLives  int                    `json:"remainingLives"`
	Score           int                    `json:"score"`
	ProgressPercent int                    `json:"progressPercent"`
	Feedback        *domain.AnswerFeedback `json:"resultFeedback,omitempty"`
	Completion      *CompletionSummary     `json:"completion,omitempty"`
}

func newStep(challenge domain.Challenge, attempt domain.Attempt) Step {
	step := Step{
		Attempt:         attempt,
		RemainingLives:  attempt.LivesRemaining,
		Score:           attempt.Score,
		ProgressPercent: attempt.ProgressPercent(),
	}
	if !attempt.Completed {
		if q, ok := challenge.Question(attempt.CurrentQuestionIndex); ok {
			view := q.View()
			step.Question = &view
		}
	}
	return step
}

// ChallengeService contains the weekly challenge use cases.
type ChallengeService struct {
	challenges   ChallengeRepository
	attempts     AttemptStore
	completion   *CompletionHandler
	achievements AchievementTracker
	gate         *EligibilityGate
	locks        Locker
	now          func() time.Time
	newID        func() string
	cooldown     time.Duration
}

// Option customises a ChallengeService.
type Option func(*ChallengeService)

// WithClock is used for deterministic timestamps in tests.
func WithClock(now func() time.Time) Option {
	return func(s *ChallengeService) { s.now = now }
}

// WithCooldown overrides the retry wait after lives run out.
func WithCooldown(d time.Duration) Option {
	return func(s *ChallengeService) {
		if d > 0 {
			s.cooldown = d
		}
	}
}

// WithLocker adds a shared lock behind the in-process one so several
// service instances serialise on the same attempt.
func WithLocker(l Locker) Option {
	return func(s *ChallengeService) { s.locks = chainLocker{NewKeyedMutex(), l} }
}

// WithIDGenerator replaces the attempt id source.
func WithIDGenerator(newID func() string) Option {
	return func(s *ChallengeService) { s.newID = newID }
}

func NewChallengeService(challenges ChallengeRepository, attempts AttemptStore, completion *CompletionHandler, achievements AchievementTracker, opts ...Option) *ChallengeService {
	s := &ChallengeService{
		challenges:   challenges,
		attempts:     attempts,
		completion:   completion,
		achievements: achievements,
		locks:        NewKeyedMutex(),
		now:          time.Now,
		newID:        uuid.NewString,
		cooldown:     domain.RetryCooldown,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.gate = NewEligibilityGate(attempts, s.now)
	return s
}

// Eligibility reports whether the user may start, should resume, or must wait.
func (s *ChallengeService) Eligibility(ctx context.Context, userID, challengeID string) (domain.Eligibility, error) {
	return s.gate.Check(ctx, userID, challengeID)
}

// Start resumes the in-progress attempt or creates a fresh one.
func (s *ChallengeService) Start(ctx context.Context, userID, challengeID string) (Step, error) {
	// Users cannot start unknown or malformed challenges.
	challenge, err := s.challenges.GetChallenge(ctx, challengeID)
	if err != nil {
		return Step{}, err
	}

	unlock, err := s.locks.Lock(ctx, attemptKey(userID, challengeID))
	if err != nil {
		return Step{}, err
	}
	defer unlock()

	eligibility, err := s.gate.Check(ctx, userID, challengeID)
	if err != nil {
		return Step{}, err
	}
	switch eligibility.Status {
	case domain.EligibilityResume:
		return newStep(challenge, *eligibility.Attempt), nil
	case domain.EligibilityCooldown:
		return Step{}, &domain.CooldownError{NextAttemptAt: *eligibility.NextAttemptAt}
	}

	previous, err := s.attempts.CountByUser(ctx, userID)
	if err != nil {
		log.Printf("count attempts for user %s: %v", userID, err)
		previous = -1
	}

	attempt := domain.NewAttempt(s.newID(), userID, challengeID, s.now())
	if err := s.attempts.Create(ctx, attempt); err != nil {
		return Step{}, fmt.Errorf("create attempt: %w", err)
	}

	if previous == 0 && s.achievements != nil {
		if err := s.achievements.RecordProgress(ctx, userID, domain.AchievementFirstAttempt, 1); err != nil {
			log.Printf("record first attempt achievement for %s: %v", userID, err)
		}
	}
	return newStep(challenge, attempt), nil
}

// Current returns the step for the user's latest attempt, e.g. after a page reload.
func (s *ChallengeService) Current(ctx context.Context, userID, challengeID string) (Step, error) {
	challenge, err := s.challenges.GetChallenge(ctx, challengeID)
	if err != nil {
		return Step{}, err
	}
	attempt, err := s.attempts.Latest(ctx, userID, challengeID)
	if err != nil {
		return Step{}, err
	}
	return newStep(challenge, attempt), nil
}

// SubmitAnswer scores one answer. The new attempt state is persisted before it
// is returned; on any error the stored attempt is unchanged and the caller
// should re-present the same question.
func (s *ChallengeService) SubmitAnswer(ctx context.Context, userID, challengeID string, sub domain.AnswerSubmission) (Step, error) {
	challenge, err := s.challenges.GetChallenge(ctx, challengeID)
	if err != nil {
		return Step{}, err
	}

	unlock, err := s.locks.Lock(ctx, attemptKey(userID, challengeID))
	if err != nil {
		return Step{}, err
	}
	defer unlock()

	current, err := s.attempts.Latest(ctx, userID, challengeID)
	if err != nil {
		return Step{}, err
	}
	if err := current.CheckInvariants(); err != nil {
		return Step{}, fmt.Errorf("stored attempt: %w", err)
	}
	if sub.Version != 0 && sub.Version != current.Version {
		return Step{}, domain.ErrVersionConflict
	}

	question, ok := challenge.Question(sub.QuestionIndex)
	if !ok {
		if current.Completed {
			return Step{}, domain.ErrAttemptCompleted
		}
		return Step{}, domain.ErrQuestionOutOfOrder
	}

	next, feedback, err := current.Answer(question, sub, s.now(), s.cooldown)
	if err != nil {
		return Step{}, err
	}
	if err := s.attempts.Update(ctx, next, current.Version); err != nil {
		if errors.Is(err, domain.ErrVersionConflict) {
			return Step{}, err
		}
		return Step{}, fmt.Errorf("persist answer: %w", err)
	}

	step := newStep(challenge, next)
	step.Feedback = &feedback
	if next.Completed && s.completion != nil {
		// Only the submit that persisted the terminal transition gets here.
		summary := s.completion.Handle(context.WithoutCancel(ctx), next)
		step.Completion = &summary
	}
	return step, nil
}

// WarmActiveChallenge resolves the challenge active at `at` and loads it through the repository.
func WarmActiveChallenge(ctx context.Context, schedule Schedule, challenges ChallengeRepository, at time.Time) (string, error) {
	challengeID, err := schedule.ActiveChallenge(ctx, at)
	if err != nil {
		return "", err
	}
	if _, err := challenges.GetChallenge(ctx, challengeID); err != nil {
		return challengeID, err
	}
	return challengeID, nil
}
