package app_test

import (
	"context"
	"testing"
	"time"

	"weekly-challenge/internal/app"
	"weekly-challenge/internal/domain"
	"weekly-challenge/internal/infra/memory"
)

func TestBestScoreNeverDecreases(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	for _, score := range []int{30, 45, 20} {
		if _, err := f.playScore(ctx, "u1", score); err != nil {
			t.Fatalf("play %d: %v", score, err)
		}
		f.advance(7 * time.Hour)
	}

	standings, err := f.board.Standings(ctx, "week-43", 0)
	if err != nil {
		t.Fatalf("standings: %v", err)
	}
	if len(standings.Entries) != 1 {
		t.Fatalf("expected one row, got %+v", standings.Entries)
	}
	e := standings.Entries[0]
	if e.BestScore != 45 || e.AttemptsCount != 3 || !e.BestScoreAt.Equal(start.Add(7*time.Hour)) {
		t.Fatalf("unexpected entry %+v", e)
	}
}

func TestStandingsTieBreak(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 20, 8, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	board := app.NewLeaderboardService(memory.NewLeaderboardStore(), nil, clock)

	record := func(user string, score int) {
		t.Helper()
		if _, err := board.RecordResult(ctx, "week-43", user, score); err != nil {
			t.Fatalf("record %s: %v", user, err)
		}
	}
	record("zoe", 40)
	now = now.Add(time.Minute)
	record("amy", 40)
	record("bob", 40)
	record("cat", 12)

	standings, err := board.Standings(ctx, "week-43", 3)
	if err != nil {
		t.Fatalf("standings: %v", err)
	}
	want := []string{"zoe", "amy", "bob"}
	if len(standings.Entries) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(standings.Entries))
	}
	for i, user := range want {
		if standings.Entries[i].UserID != user || standings.Entries[i].Rank != i+1 {
			t.Fatalf("row %d: expected %s, got %+v", i, user, standings.Entries[i])
		}
	}
}

func TestHubPublishesOnCompletion(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	updates, cancel, err := f.hub.Subscribe(ctx, "week-43")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	initial := <-updates
	if len(initial.Entries) != 0 {
		t.Fatalf("expected empty initial standings, got %+v", initial)
	}

	if _, err := f.playScore(ctx, "u1", 12); err != nil {
		t.Fatalf("play: %v", err)
	}

	select {
	case update := <-updates:
		if len(update.Entries) != 1 || update.Entries[0].UserID != "u1" || update.Entries[0].BestScore != 12 {
			t.Fatalf("unexpected update %+v", update)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected standings update")
	}
}

func TestEligibilityDecisions(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 21, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	finished := domain.NewAttempt("a1", "u1", "week-43", now.Add(-time.Hour))
	finished.CurrentQuestionIndex = 50
	finished.Score = 44
	finished.Completed = true

	exhaustedPast := domain.NewAttempt("a2", "u2", "week-43", now.Add(-7*time.Hour))
	exhaustedPast.LivesRemaining = 0
	exhaustedPast.Completed = true
	exhaustedPast.NextAttemptAt = &past

	exhaustedFuture := domain.NewAttempt("a3", "u3", "week-43", now.Add(-time.Hour))
	exhaustedFuture.LivesRemaining = 0
	exhaustedFuture.Completed = true
	exhaustedFuture.NextAttemptAt = &future

	inProgress := domain.NewAttempt("a4", "u4", "week-43", now.Add(-time.Hour))
	inProgress.CurrentQuestionIndex = 7

	store := memory.NewAttemptStore()
	for _, a := range []domain.Attempt{finished, exhaustedPast, exhaustedFuture, inProgress} {
		if err := store.Create(ctx, a); err != nil {
			t.Fatalf("create %s: %v", a.ID, err)
		}
	}
	gate := app.NewEligibilityGate(store, func() time.Time { return now })

	cases := []struct {
		user   string
		status domain.EligibilityStatus
		can    bool
	}{
		{"nobody", domain.EligibilityFresh, true},
		{"u1", domain.EligibilityFresh, true},
		{"u2", domain.EligibilityFresh, true},
		{"u3", domain.EligibilityCooldown, false},
		{"u4", domain.EligibilityResume, true},
	}
	for _, tc := range cases {
		got, err := gate.Check(ctx, tc.user, "week-43")
		if err != nil {
			t.Fatalf("%s: %v", tc.user, err)
		}
		if got.Status != tc.status || got.CanAttempt != tc.can {
			t.Fatalf("%s: expected %s/%v, got %+v", tc.user, tc.status, tc.can, got)
		}
	}

	resume, _ := gate.Check(ctx, "u4", "week-43")
	if resume.Attempt == nil || resume.Attempt.CurrentQuestionIndex != 7 {
		t.Fatalf("resume must carry the attempt, got %+v", resume)
	}
	cooldown, _ := gate.Check(ctx, "u3", "week-43")
	if cooldown.NextAttemptAt == nil || !cooldown.NextAttemptAt.Equal(future) {
		t.Fatalf("cooldown must carry the retry time, got %+v", cooldown)
	}
}

func TestKeyedMutexHonoursContext(t *testing.T) {
	locks := app.NewKeyedMutex()
	unlock, err := locks.Lock(context.Background(), "k")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := locks.Lock(ctx, "k"); err == nil {
		t.Fatalf("expected second lock to time out")
	}

	unlock()
	unlock()
	again, err := locks.Lock(context.Background(), "k")
	if err != nil {
		t.Fatalf("relock: %v", err)
	}
	again()
}
