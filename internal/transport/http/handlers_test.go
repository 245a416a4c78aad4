package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"weekly-challenge/internal/app"
	"weekly-challenge/internal/domain"
	"weekly-challenge/internal/infra/memory"

	"github.com/golang-jwt/jwt/v4"
)

type testStack struct {
	server  *httptest.Server
	rewards *memory.Rewards
	now     *time.Time
}

func newTestStack(t *testing.T, jwtSecret string) *testStack {
	t.Helper()
	current := time.Date(2026, 10, 20, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return current }

	challenge := sampleChallenge()
	challenges := memory.NewChallengeRepository(memory.NewStaticChallengeLoader(map[string]domain.Challenge{
		challenge.ID: challenge,
	}), time.Minute)
	attempts := memory.NewAttemptStore()
	rewards := memory.NewRewards()
	board := app.NewLeaderboardService(memory.NewLeaderboardStore(), nil, clock)
	hub := app.NewStandingsHub(board, 10)
	completion := app.NewCompletionHandler(rewards, rewards, board, hub)
	service := app.NewChallengeService(challenges, attempts, completion, rewards, app.WithClock(clock))

	api := NewHandler(service, board, memory.NewSchedule(challenge))
	api.now = clock
	router := NewRouter(api, NewWSHandler(service, hub), RouterConfig{JWTSecret: jwtSecret})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &testStack{server: server, rewards: rewards, now: &current}
}

func (s *testStack) do(t *testing.T, method, path, userID string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, err := http.NewRequest(method, s.server.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestRESTPlayThroughToLeaderboard(t *testing.T) {
	stack := newTestStack(t, "")

	resp, active := stack.do(t, http.MethodGet, "/challenges/active", "u1", nil)
	if resp.StatusCode != http.StatusOK || active["challengeId"] != "week-43" {
		t.Fatalf("active challenge: status %d body %v", resp.StatusCode, active)
	}

	resp, eligibility := stack.do(t, http.MethodGet, "/challenges/week-43/eligibility", "u1", nil)
	if resp.StatusCode != http.StatusOK || eligibility["status"] != "fresh" || eligibility["canAttempt"] != true {
		t.Fatalf("eligibility: status %d body %v", resp.StatusCode, eligibility)
	}

	resp, step := stack.do(t, http.MethodPost, "/challenges/week-43/attempts", "u1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start: status %d body %v", resp.StatusCode, step)
	}
	question := step["question"].(map[string]interface{})
	if _, leaked := question["correctOption"]; leaked {
		t.Fatalf("question view must not expose the answer: %v", question)
	}

	for i := 0; i < domain.QuestionsPerChallenge; i++ {
		resp, step = stack.do(t, http.MethodPost, "/challenges/week-43/answers", "u1", domain.AnswerSubmission{
			QuestionIndex:     i,
			ChosenOptionIndex: i % domain.OptionsPerQuestion,
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("answer %d: status %d body %v", i, resp.StatusCode, step)
		}
	}
	attempt := step["attempt"].(map[string]interface{})
	if attempt["completed"] != true || attempt["score"] != float64(50) {
		t.Fatalf("expected perfect completion, got %v", attempt)
	}
	if stack.rewards.Experience("u1") != 250 {
		t.Fatalf("expected 250 xp, got %d", stack.rewards.Experience("u1"))
	}

	resp, standings := stack.do(t, http.MethodGet, "/challenges/week-43/leaderboard?limit=5", "u2", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("leaderboard: status %d", resp.StatusCode)
	}
	entries := standings["entries"].([]interface{})
	if len(entries) != 1 || entries[0].(map[string]interface{})["userId"] != "u1" {
		t.Fatalf("unexpected standings %v", standings)
	}
}

func TestRESTErrorMapping(t *testing.T) {
	stack := newTestStack(t, "")

	if resp, _ := stack.do(t, http.MethodGet, "/challenges/week-43/eligibility", "", nil); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", resp.StatusCode)
	}
	if resp, _ := stack.do(t, http.MethodPost, "/challenges/nope/attempts", "u1", nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown challenge, got %d", resp.StatusCode)
	}
	if resp, _ := stack.do(t, http.MethodGet, "/challenges/week-43/attempts/current", "u1", nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 without attempt, got %d", resp.StatusCode)
	}

	stack.do(t, http.MethodPost, "/challenges/week-43/attempts", "u1", nil)
	if resp, _ := stack.do(t, http.MethodPost, "/challenges/week-43/answers", "u1", domain.AnswerSubmission{QuestionIndex: 3}); resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for out-of-order answer, got %d", resp.StatusCode)
	}
	if resp, _ := stack.do(t, http.MethodPost, "/challenges/week-43/answers", "u1", domain.AnswerSubmission{QuestionIndex: 0, ChosenOptionIndex: 9}); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid option, got %d", resp.StatusCode)
	}
	if resp, _ := stack.do(t, http.MethodPost, "/challenges/week-43/answers", "u1", domain.AnswerSubmission{QuestionIndex: 0, Version: 7}); resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for stale version, got %d", resp.StatusCode)
	}

	// Three misses end the attempt with a cooldown.
	for i := 0; i < domain.MaxLives; i++ {
		stack.do(t, http.MethodPost, "/challenges/week-43/answers", "u1", domain.AnswerSubmission{
			QuestionIndex:     i,
			ChosenOptionIndex: (i + 1) % domain.OptionsPerQuestion,
		})
	}
	resp, body := stack.do(t, http.MethodPost, "/challenges/week-43/attempts", "u1", nil)
	if resp.StatusCode != http.StatusTooManyRequests || body["nextAttemptAt"] == nil {
		t.Fatalf("expected 429 with nextAttemptAt, got %d %v", resp.StatusCode, body)
	}
	if resp, _ := stack.do(t, http.MethodGet, "/challenges/week-43/leaderboard?limit=x", "u1", nil); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", resp.StatusCode)
	}
}

func TestRESTRejectsIncompleteAnswer(t *testing.T) {
	stack := newTestStack(t, "")
	stack.do(t, http.MethodPost, "/challenges/week-43/attempts", "u1", nil)
	stack.do(t, http.MethodPost, "/challenges/week-43/answers", "u1", map[string]int{"questionIndex": 0, "chosenOptionIndex": 0})

	cases := []struct {
		name string
		body interface{}
	}{
		{"missing option", map[string]int{"questionIndex": 1}},
		{"missing question", map[string]int{"chosenOptionIndex": 1}},
		{"empty object", map[string]int{}},
		{"null option", map[string]interface{}{"questionIndex": 1, "chosenOptionIndex": nil}},
	}
	for _, tc := range cases {
		resp, body := stack.do(t, http.MethodPost, "/challenges/week-43/answers", "u1", tc.body)
		if resp.StatusCode != http.StatusBadRequest || body["error"] != errMalformedAnswer.Error() {
			t.Fatalf("%s: expected 400, got %d %v", tc.name, resp.StatusCode, body)
		}
	}

	_, current := stack.do(t, http.MethodGet, "/challenges/week-43/attempts/current", "u1", nil)
	attempt := current["attempt"].(map[string]interface{})
	if attempt["currentQuestionIndex"] != float64(1) || attempt["livesRemaining"] != float64(domain.MaxLives) || attempt["score"] != float64(1) {
		t.Fatalf("rejected answers must not touch the attempt, got %v", attempt)
	}
}

func TestIdentityWithJWT(t *testing.T) {
	stack := newTestStack(t, "s3cret")

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u9",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("s3cret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	req, _ := http.NewRequest(http.MethodPost, stack.server.URL+"/challenges/week-43/attempts", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	var step map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&step)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || step["attempt"].(map[string]interface{})["userId"] != "u9" {
		t.Fatalf("expected attempt for u9, got %d %v", resp.StatusCode, step)
	}

	// The dev header is ignored once a secret is configured.
	if resp, _ := stack.do(t, http.MethodPost, "/challenges/week-43/attempts", "u1", nil); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for header identity, got %d", resp.StatusCode)
	}

	forged, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u9"}).SignedString([]byte("other"))
	req, _ = http.NewRequest(http.MethodGet, stack.server.URL+"/challenges/week-43/eligibility", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("eligibility: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for forged token, got %d", resp.StatusCode)
	}
}

func sampleChallenge() domain.Challenge {
	questions := make([]domain.Question, domain.QuestionsPerChallenge)
	for i := range questions {
		questions[i] = domain.Question{
			Index:         i,
			Prompt:        "Which word completes the sentence?",
			Options:       []string{"go", "goes", "going", "gone"},
			CorrectOption: i % domain.OptionsPerQuestion,
			Explanation:   "subject-verb agreement",
			Category:      "grammar",
			Difficulty:    domain.DifficultyHard,
		}
	}
	return domain.Challenge{
		ID:        "week-43",
		Title:     "Verb forms",
		WeekStart: time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
		Questions: questions,
	}
}
