package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"weekly-challenge/internal/domain"
	"weekly-challenge/internal/infra/memory"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// ChallengeRepository caches validated challenges in Redis and falls back to a loader on cache miss.
// Each challenge is stored as one JSON document: SET challenge:{id} {json} EX ttl
type ChallengeRepository struct {
	client *redis.Client
	loader memory.ChallengeLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewChallengeRepository(client *redis.Client, loader memory.ChallengeLoader, ttl time.Duration) *ChallengeRepository {
	return &ChallengeRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *ChallengeRepository) GetChallenge(ctx context.Context, challengeID string) (domain.Challenge, error) {
	if challenge, ok := r.cached(ctx, challengeID); ok {
		return challenge, nil
	}

	result, err, _ := r.sf.Do(challengeID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if challenge, ok := r.cached(ctx, challengeID); ok {
			return challenge, nil
		}

		challenge, err := r.loader.LoadChallenge(ctx, challengeID)
		if err != nil {
			return domain.Challenge{}, err
		}
		if err := challenge.Validate(); err != nil {
			return domain.Challenge{}, err
		}

		payload, err := json.Marshal(challenge)
		if err != nil {
			return domain.Challenge{}, err
		}
		// A failed cache write only costs a reload.
		_ = r.client.Set(ctx, r.key(challengeID), payload, r.ttlWithJitter()).Err()
		return challenge, nil
	})
	if err != nil {
		return domain.Challenge{}, err
	}
	return result.(domain.Challenge), nil
}

// Invalidate drops the cached copy so the next read goes to the loader.
func (r *ChallengeRepository) Invalidate(ctx context.Context, challengeID string) error {
	return r.client.Del(ctx, r.key(challengeID)).Err()
}

func (r *ChallengeRepository) cached(ctx context.Context, challengeID string) (domain.Challenge, bool) {
	raw, err := r.client.Get(ctx, r.key(challengeID)).Bytes()
	if err != nil {
		return domain.Challenge{}, false
	}
	var challenge domain.Challenge
	if err := json.Unmarshal(raw, &challenge); err != nil {
		return domain.Challenge{}, false
	}
	return challenge, true
}

func (r *ChallengeRepository) key(challengeID string) string {
	return "challenge:" + challengeID
}

func (r *ChallengeRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

func isNil(err error) bool {
	return errors.Is(err, redis.Nil)
}
