package domain

import (
	"testing"
	"time"
)

func TestLeaderboardEntryRecord(t *testing.T) {
	t0 := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	e := NewLeaderboardEntry("week-1", "u1", 30, t0)

	e = e.Record(45, t0.Add(time.Hour))
	if e.BestScore != 45 || e.AttemptsCount != 2 || !e.BestScoreAt.Equal(t0.Add(time.Hour)) {
		t.Fatalf("unexpected entry after improvement: %+v", e)
	}

	e = e.Record(45, t0.Add(2*time.Hour))
	if e.BestScore != 45 || e.AttemptsCount != 3 || !e.BestScoreAt.Equal(t0.Add(time.Hour)) {
		t.Fatalf("tie must not move bestScoreAt: %+v", e)
	}

	e = e.Record(10, t0.Add(3*time.Hour))
	if e.BestScore != 45 || e.AttemptsCount != 4 {
		t.Fatalf("lower score must not lower best: %+v", e)
	}
}

func TestRankEntriesTieBreak(t *testing.T) {
	t0 := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	entries := []LeaderboardEntry{
		{UserID: "carol", BestScore: 40, BestScoreAt: t0.Add(time.Hour)},
		{UserID: "bob", BestScore: 40, BestScoreAt: t0},
		{UserID: "alice", BestScore: 12, BestScoreAt: t0},
		{UserID: "dave", BestScore: 48, BestScoreAt: t0.Add(5 * time.Hour)},
		{UserID: "abe", BestScore: 40, BestScoreAt: t0},
	}

	ranked := RankEntries(entries)
	want := []string{"dave", "abe", "bob", "carol", "alice"}
	for i, id := range want {
		if ranked[i].UserID != id || ranked[i].Rank != i+1 {
			t.Fatalf("position %d: expected %s, got %+v", i, id, ranked[i])
		}
	}
	if entries[0].UserID != "carol" {
		t.Fatalf("input slice reordered")
	}
}

func TestCompletionRewards(t *testing.T) {
	tests := []struct {
		score int
		xp    int
		want  string
	}{
		{50, 250, AchievementPerfectScore},
		{49, 245, AchievementHighScorer},
		{40, 200, AchievementHighScorer},
		{39, 195, ""},
		{0, 0, ""},
	}
	for _, tt := range tests {
		if got := ExperienceFor(tt.score); got != tt.xp {
			t.Fatalf("score %d: expected xp %d, got %d", tt.score, tt.xp, got)
		}
		got := CompletionAchievements(tt.score)
		if tt.want == "" && len(got) != 0 {
			t.Fatalf("score %d: expected no achievements, got %v", tt.score, got)
		}
		if tt.want != "" && (len(got) != 1 || got[0] != tt.want) {
			t.Fatalf("score %d: expected %s, got %v", tt.score, tt.want, got)
		}
	}
}
