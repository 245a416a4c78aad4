package app_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"weekly-challenge/internal/app"
	"weekly-challenge/internal/domain"
	"weekly-challenge/internal/infra/memory"
)

var start = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

// fixture wires the use cases over the in-memory stores with a movable clock.
type fixture struct {
	mu       sync.Mutex
	now      time.Time
	attempts *flakyAttempts
	board    *app.LeaderboardService
	rewards  *memory.Rewards
	hub      *app.StandingsHub
	service  *app.ChallengeService
	ids      int
}

func newFixture(sinks ...app.CompletionSink) *fixture {
	f := &fixture{now: start, rewards: memory.NewRewards()}
	f.attempts = &flakyAttempts{AttemptStore: memory.NewAttemptStore()}

	challenges := memory.NewChallengeRepository(memory.NewStaticChallengeLoader(map[string]domain.Challenge{
		"week-43": testChallenge("week-43"),
	}), time.Minute)
	f.board = app.NewLeaderboardService(memory.NewLeaderboardStore(), nil, f.clock)
	f.hub = app.NewStandingsHub(f.board, 10)
	completion := app.NewCompletionHandler(f.rewards, f.rewards, f.board, append([]app.CompletionSink{f.hub}, sinks...)...)
	f.service = app.NewChallengeService(challenges, f.attempts, completion, f.rewards,
		app.WithClock(f.clock),
		app.WithIDGenerator(f.nextID),
	)
	return f
}

func (f *fixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func (f *fixture) nextID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids++
	return "attempt-" + strconv.Itoa(f.ids)
}

// answer submits the correct or a wrong option for the attempt's current question.
func (f *fixture) answer(ctx context.Context, userID string, index int, correct bool) (app.Step, error) {
	option := index % domain.OptionsPerQuestion
	if !correct {
		option = (option + 1) % domain.OptionsPerQuestion
	}
	return f.service.SubmitAnswer(ctx, userID, "week-43", domain.AnswerSubmission{
		QuestionIndex:     index,
		ChosenOptionIndex: option,
	})
}

// play starts an attempt and answers until it completes, missing the listed indices.
func (f *fixture) play(ctx context.Context, userID string, misses map[int]bool) (app.Step, error) {
	step, err := f.service.Start(ctx, userID, "week-43")
	if err != nil {
		return app.Step{}, err
	}
	for !step.Attempt.Completed {
		i := step.Attempt.CurrentQuestionIndex
		step, err = f.answer(ctx, userID, i, !misses[i])
		if err != nil {
			return app.Step{}, err
		}
	}
	return step, nil
}

// playScore completes an attempt with the given score by answering the first
// `score` questions correctly and then missing three in a row.
func (f *fixture) playScore(ctx context.Context, userID string, score int) (app.Step, error) {
	misses := map[int]bool{}
	for i := score; i < score+domain.MaxLives && i < domain.QuestionsPerChallenge; i++ {
		misses[i] = true
	}
	return f.play(ctx, userID, misses)
}

var errStoreDown = errors.New("store unavailable")

// flakyAttempts fails selected calls on demand.
type flakyAttempts struct {
	app.AttemptStore

	mu         sync.Mutex
	failLatest bool
	failUpdate bool
}

func (s *flakyAttempts) set(latest, update bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failLatest, s.failUpdate = latest, update
}

func (s *flakyAttempts) Latest(ctx context.Context, userID, challengeID string) (domain.Attempt, error) {
	s.mu.Lock()
	fail := s.failLatest
	s.mu.Unlock()
	if fail {
		return domain.Attempt{}, errStoreDown
	}
	return s.AttemptStore.Latest(ctx, userID, challengeID)
}

func (s *flakyAttempts) Update(ctx context.Context, attempt domain.Attempt, expectedVersion int64) error {
	s.mu.Lock()
	fail := s.failUpdate
	s.mu.Unlock()
	if fail {
		return errStoreDown
	}
	return s.AttemptStore.Update(ctx, attempt, expectedVersion)
}

func testChallenge(id string) domain.Challenge {
	questions := make([]domain.Question, domain.QuestionsPerChallenge)
	for i := range questions {
		questions[i] = domain.Question{
			Index:         i,
			Prompt:        "Choose the right article",
			Options:       []string{"a", "an", "the", "no article"},
			CorrectOption: i % domain.OptionsPerQuestion,
			Explanation:   "articles depend on the following sound",
			Category:      "grammar",
			Difficulty:    domain.DifficultyEasy,
		}
	}
	return domain.Challenge{ID: id, Title: "Articles", WeekStart: start, Questions: questions}
}

// failingRewards rejects every call.
type failingRewards struct{}

func (failingRewards) GrantExperience(context.Context, string, int, string) error { return errStoreDown }

func (failingRewards) RecordProgress(context.Context, string, string, int) error { return errStoreDown }

// recordingSink captures completion events.
type recordingSink struct {
	mu     sync.Mutex
	events []app.CompletionEvent
}

func (s *recordingSink) AttemptCompleted(_ context.Context, event app.CompletionEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}
