package memory

import (
	"context"
	"sync"

	"weekly-challenge/internal/domain"
)

// LeaderboardStore is an in-memory implementation of app.LeaderboardStore.
type LeaderboardStore struct {
	mu      sync.RWMutex
	entries map[string]map[string]domain.LeaderboardEntry
}

func NewLeaderboardStore() *LeaderboardStore {
	return &LeaderboardStore{entries: make(map[string]map[string]domain.LeaderboardEntry)}
}

func (s *LeaderboardStore) Get(_ context.Context, challengeID, userID string) (domain.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[challengeID][userID]
	if !ok {
		return domain.LeaderboardEntry{}, domain.ErrEntryNotFound
	}
	return entry, nil
}

func (s *LeaderboardStore) Put(_ context.Context, entry domain.LeaderboardEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	board, ok := s.entries[entry.ChallengeID]
	if !ok {
		board = make(map[string]domain.LeaderboardEntry)
		s.entries[entry.ChallengeID] = board
	}
	board[entry.UserID] = entry
	return nil
}

func (s *LeaderboardStore) List(_ context.Context, challengeID string) ([]domain.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	board := s.entries[challengeID]
	out := make([]domain.LeaderboardEntry, 0, len(board))
	for _, entry := range board {
		out = append(out, entry)
	}
	return out, nil
}
