package memory

import (
	"context"
	"sync"

	"weekly-challenge/internal/domain"
)

// AttemptStore is an in-memory implementation of app.AttemptStore.
// It keeps every attempt per (user, challenge) in creation order.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts map[string][]domain.Attempt
	perUser  map[string]int
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		attempts: make(map[string][]domain.Attempt),
		perUser:  make(map[string]int),
	}
}

func (s *AttemptStore) Latest(_ context.Context, userID, challengeID string) (domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.attempts[key(userID, challengeID)]
	if len(history) == 0 {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	return history[len(history)-1].Clone(), nil
}

// Create refuses a second in-progress attempt for the same (user, challenge).
func (s *AttemptStore) Create(_ context.Context, attempt domain.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(attempt.UserID, attempt.ChallengeID)
	history := s.attempts[k]
	if n := len(history); n > 0 && !history[n-1].Completed {
		return domain.ErrVersionConflict
	}
	s.attempts[k] = append(history, attempt.Clone())
	s.perUser[attempt.UserID]++
	return nil
}

func (s *AttemptStore) Update(_ context.Context, attempt domain.Attempt, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := s.attempts[key(attempt.UserID, attempt.ChallengeID)]
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].ID != attempt.ID {
			continue
		}
		if history[i].Version != expectedVersion {
			return domain.ErrVersionConflict
		}
		history[i] = attempt.Clone()
		return nil
	}
	return domain.ErrAttemptNotFound
}

func (s *AttemptStore) CountByUser(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.perUser[userID], nil
}

// History returns every attempt for (user, challenge), oldest first.
func (s *AttemptStore) History(userID, challengeID string) []domain.Attempt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.attempts[key(userID, challengeID)]
	out := make([]domain.Attempt, len(history))
	for i, a := range history {
		out[i] = a.Clone()
	}
	return out
}

func key(userID, challengeID string) string {
	return challengeID + ":" + userID
}
