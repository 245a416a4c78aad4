package domain

import (
	"sort"
	"time"
)

// LeaderboardEntry is one user's best result on a challenge.
type LeaderboardEntry struct {
	ChallengeID   string    `json:"challengeId"`
	UserID        string    `json:"userId"`
	BestScore     int       `json:"bestScore"`
	AttemptsCount int       `json:"attemptsCount"`
	BestScoreAt   time.Time `json:"bestScoreAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// NewLeaderboardEntry creates the row for a user's first completed attempt.
func NewLeaderboardEntry(challengeID, userID string, score int, at time.Time) LeaderboardEntry {
	return LeaderboardEntry{
		ChallengeID:   challengeID,
		UserID:        userID,
		BestScore:     score,
		AttemptsCount: 1,
		BestScoreAt:   at,
		UpdatedAt:     at,
	}
}

// Record folds one more completed attempt into the entry.
// BestScore and BestScoreAt only move on a strictly higher score.
func (e LeaderboardEntry) Record(score int, at time.Time) LeaderboardEntry {
	if score > e.BestScore {
		e.BestScore = score
		e.BestScoreAt = at
	}
	e.AttemptsCount++
	e.UpdatedAt = at
	return e
}

// RankedEntry is a leaderboard row with its display position.
type RankedEntry struct {
	Rank          int       `json:"rank"`
	UserID        string    `json:"userId"`
	BestScore     int       `json:"bestScore"`
	AttemptsCount int       `json:"attemptsCount"`
	BestScoreAt   time.Time `json:"bestScoreAt"`
}

// Standings captures the ordered leaderboard for a challenge.
type Standings struct {
	ChallengeID string        `json:"challengeId"`
	Entries     []RankedEntry `json:"entries"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// RankEntries orders by best score, then by who reached it first, then by user id.
func RankEntries(entries []LeaderboardEntry) []RankedEntry {
	sorted := make([]LeaderboardEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].BestScore != sorted[j].BestScore {
			return sorted[i].BestScore > sorted[j].BestScore
		}
		if !sorted[i].BestScoreAt.Equal(sorted[j].BestScoreAt) {
			return sorted[i].BestScoreAt.Before(sorted[j].BestScoreAt)
		}
		return sorted[i].UserID < sorted[j].UserID
	})

	ranked := make([]RankedEntry, len(sorted))
	for i, e := range sorted {
		ranked[i] = RankedEntry{
			Rank:          i + 1,
			UserID:        e.UserID,
			BestScore:     e.BestScore,
			AttemptsCount: e.AttemptsCount,
			BestScoreAt:   e.BestScoreAt,
		}
	}
	return ranked
}

// Achievement keys reported to the achievement tracker.
const (
	AchievementPerfectScore = "weekly_challenge_perfect_score"
	AchievementHighScorer   = "weekly_challenge_high_scorer"
	AchievementFirstAttempt = "weekly_challenge_first_attempt"
)

// ExperienceFor is the reward for a completed attempt, independent of pass or fail.
func ExperienceFor(score int) int {
	return score * XPPerPoint
}

// CompletionAchievements lists the score-based achievements earned on completion.
func CompletionAchievements(score int) []string {
	switch {
	case score >= QuestionsPerChallenge:
		return []string{AchievementPerfectScore}
	case score >= HighScoreThreshold:
		return []string{AchievementHighScorer}
	}
	return nil
}
