package memory

import (
	"context"
	"sync"
)

// Grant is one experience grant recorded by Rewards.
type Grant struct {
	UserID string
	Amount int
	Reason string
}

// Rewards records experience grants and achievement progress in memory.
// It stands in for the external reward ledger and achievement tracker in dev mode.
type Rewards struct {
	mu       sync.Mutex
	grants   []Grant
	progress map[string]map[string]int
}

func NewRewards() *Rewards {
	return &Rewards{progress: make(map[string]map[string]int)}
}

func (r *Rewards) GrantExperience(_ context.Context, userID string, amount int, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.grants = append(r.grants, Grant{UserID: userID, Amount: amount, Reason: reason})
	return nil
}

func (r *Rewards) RecordProgress(_ context.Context, userID, achievementKey string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.progress[userID]
	if !ok {
		user = make(map[string]int)
		r.progress[userID] = user
	}
	user[achievementKey] += delta
	return nil
}

// Experience sums the experience granted to a user.
func (r *Rewards) Experience(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, g := range r.grants {
		if g.UserID == userID {
			total += g.Amount
		}
	}
	return total
}

// Progress returns the recorded progress of one achievement.
func (r *Rewards) Progress(userID, achievementKey string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.progress[userID][achievementKey]
}
