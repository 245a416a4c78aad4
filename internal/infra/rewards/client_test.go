package rewards

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func TestClientPostsGrantAndProgress(t *testing.T) {
	var (
		mu       sync.Mutex
		paths    []string
		bodies   []map[string]interface{}
		authSeen string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		paths = append(paths, r.URL.Path)
		bodies = append(bodies, body)
		authSeen = r.Header.Get("Authorization")
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret", time.Second)
	if err := client.GrantExperience(context.Background(), "u1", 250, "weekly_challenge_completion"); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if err := client.RecordProgress(context.Background(), "u1", "weekly_challenge_perfect_score", 1); err != nil {
		t.Fatalf("progress: %v", err)
	}

	if len(paths) != 2 || paths[0] != "/functions/grant-experience" || paths[1] != "/functions/record-achievement-progress" {
		t.Fatalf("unexpected paths %v", paths)
	}
	if bodies[0]["amount"] != float64(250) || bodies[0]["userId"] != "u1" {
		t.Fatalf("unexpected grant body %v", bodies[0])
	}
	if bodies[1]["achievementKey"] != "weekly_challenge_perfect_score" || bodies[1]["progressDelta"] != float64(1) {
		t.Fatalf("unexpected progress body %v", bodies[1])
	}
	if authSeen != "Bearer secret" {
		t.Fatalf("expected bearer token, got %q", authSeen)
	}
}

func TestClientReportsServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "ledger down", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", time.Second)
	if err := client.GrantExperience(context.Background(), "u1", 10, "weekly_challenge_completion"); err == nil {
		t.Fatalf("expected error for 502")
	}
}
