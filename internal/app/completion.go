package app

import (
	"context"
	"fmt"
	"log"

	"weekly-challenge/internal/domain"
)

// CompletionSummary is what the player sees once an attempt ends.
type CompletionSummary struct {
	Experience   int                      `json:"experience"`
	Achievements []string                 `json:"achievements,omitempty"`
	Leaderboard  *domain.LeaderboardEntry `json:"leaderboard,omitempty"`
}

// CompletionHandler runs the side effects of a finished attempt.
// Each effect is best effort: a failure is logged and the others still run.
type CompletionHandler struct {
	rewards      RewardLedger
	achievements AchievementTracker
	board        *LeaderboardService
	sinks        []CompletionSink
}

func NewCompletionHandler(rewards RewardLedger, achievements AchievementTracker, board *LeaderboardService, sinks ...CompletionSink) *CompletionHandler {
	return &CompletionHandler{
		rewards:      rewards,
		achievements: achievements,
		board:        board,
		sinks:        sinks,
	}
}

// Handle must be called once, by whoever persisted the completed transition.
func (h *CompletionHandler) Handle(ctx context.Context, attempt domain.Attempt) CompletionSummary {
	summary := CompletionSummary{
		Experience:   domain.ExperienceFor(attempt.Score),
		Achievements: domain.CompletionAchievements(attempt.Score),
	}

	if summary.Experience > 0 && h.rewards != nil {
		reason := fmt.Sprintf("weekly challenge %s attempt %s", attempt.ChallengeID, attempt.ID)
		if err := h.rewards.GrantExperience(ctx, attempt.UserID, summary.Experience, reason); err != nil {
			log.Printf("grant xp for attempt %s: %v", attempt.ID, err)
		}
	}

	if h.achievements != nil {
		for _, key := range summary.Achievements {
			if err := h.achievements.RecordProgress(ctx, attempt.UserID, key, 1); err != nil {
				log.Printf("record achievement %s for attempt %s: %v", key, attempt.ID, err)
			}
		}
	}

	if h.board != nil {
		entry, err := h.board.RecordResult(ctx, attempt.ChallengeID, attempt.UserID, attempt.Score)
		if err != nil {
			log.Printf("record leaderboard for attempt %s: %v", attempt.ID, err)
		} else {
			summary.Leaderboard = &entry
		}
	}

	event := CompletionEvent{
		Attempt:      attempt,
		Experience:   summary.Experience,
		Achievements: summary.Achievements,
		Entry:        summary.Leaderboard,
	}
	for _, sink := range h.sinks {
		sink.AttemptCompleted(ctx, event)
	}
	return summary
}
