package app

import (
	"context"
	"log"
	"sync"

	"weekly-challenge/internal/domain"
)

// StandingsHub fans leaderboard snapshots out to live subscribers.
// It is a CompletionSink: every completed attempt publishes fresh standings.
type StandingsHub struct {
	board *LeaderboardService
	limit int

	mu          sync.Mutex
	subscribers map[string]map[chan domain.Standings]struct{}
}

func NewStandingsHub(board *LeaderboardService, limit int) *StandingsHub {
	return &StandingsHub{
		board:       board,
		limit:       limit,
		subscribers: make(map[string]map[chan domain.Standings]struct{}),
	}
}

// Subscribe returns a channel that receives standings updates for a challenge.
// The caller must invoke the returned cancel function to avoid leaks.
func (h *StandingsHub) Subscribe(ctx context.Context, challengeID string) (<-chan domain.Standings, func(), error) {
	initial, err := h.board.Standings(ctx, challengeID, h.limit)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan domain.Standings, 8)
	ch <- initial

	h.mu.Lock()
	subs, ok := h.subscribers[challengeID]
	if !ok {
		subs = make(map[chan domain.Standings]struct{})
		h.subscribers[challengeID] = subs
	}
	subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		subs := h.subscribers[challengeID]
		if _, ok := subs[ch]; ok {
			delete(subs, ch)
			close(ch)
		}
		if len(subs) == 0 {
			delete(h.subscribers, challengeID)
		}
	}
	return ch, cancel, nil
}

func (h *StandingsHub) AttemptCompleted(ctx context.Context, event CompletionEvent) {
	if err := h.Publish(ctx, event.Attempt.ChallengeID); err != nil {
		log.Printf("publish standings for %s: %v", event.Attempt.ChallengeID, err)
	}
}

// Publish reads current standings and broadcasts them to the challenge's subscribers.
func (h *StandingsHub) Publish(ctx context.Context, challengeID string) error {
	h.mu.Lock()
	_, watched := h.subscribers[challengeID]
	h.mu.Unlock()
	if !watched {
		return nil
	}

	standings, err := h.board.Standings(ctx, challengeID, h.limit)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers[challengeID] {
		select {
		case ch <- standings:
		default:
			// slow subscriber: drop its oldest snapshot
			select {
			case <-ch:
			default:
			}
			ch <- standings
		}
	}
	return nil
}

// LogSink logs every completion.
type LogSink struct{}

func (LogSink) AttemptCompleted(_ context.Context, event CompletionEvent) {
	a := event.Attempt
	log.Printf("attempt %s completed: user=%s challenge=%s score=%d lives=%d xp=%d achievements=%v",
		a.ID, a.UserID, a.ChallengeID, a.Score, a.LivesRemaining, event.Experience, event.Achievements)
}
