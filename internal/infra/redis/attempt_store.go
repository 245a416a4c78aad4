package redis

import (
	"context"
	"encoding/json"
	"errors"

	"weekly-challenge/internal/domain"

	"github.com/redis/go-redis/v9"
)

// AttemptStore keeps the latest attempt per (challenge, user) as JSON and
// archives finished ones in a list:
//
//	attempt:{challengeID}:{userID}          latest attempt
//	attempt:{challengeID}:{userID}:history  earlier attempts, oldest first
//	attempts:user:{userID}:count            attempts ever created
//
// Writes run under WATCH so concurrent instances cannot overwrite each other.
type AttemptStore struct {
	client *redis.Client
}

func NewAttemptStore(client *redis.Client) *AttemptStore {
	return &AttemptStore{client: client}
}

func (s *AttemptStore) Latest(ctx context.Context, userID, challengeID string) (domain.Attempt, error) {
	raw, err := s.client.Get(ctx, s.key(userID, challengeID)).Bytes()
	if isNil(err) {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, err
	}
	return decodeAttempt(raw)
}

func (s *AttemptStore) Create(ctx context.Context, attempt domain.Attempt) error {
	key := s.key(attempt.UserID, attempt.ChallengeID)
	payload, err := json.Marshal(attempt)
	if err != nil {
		return err
	}

	txf := func(tx *redis.Tx) error {
		previous, err := tx.Get(ctx, key).Bytes()
		if err != nil && !isNil(err) {
			return err
		}
		if err == nil {
			current, err := decodeAttempt(previous)
			if err != nil {
				return err
			}
			if !current.Completed {
				return domain.ErrVersionConflict
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if len(previous) > 0 {
				pipe.RPush(ctx, key+":history", previous)
			}
			pipe.Set(ctx, key, payload, 0)
			pipe.Incr(ctx, s.countKey(attempt.UserID))
			return nil
		})
		return err
	}
	return s.watch(ctx, txf, key)
}

func (s *AttemptStore) Update(ctx context.Context, attempt domain.Attempt, expectedVersion int64) error {
	key := s.key(attempt.UserID, attempt.ChallengeID)
	payload, err := json.Marshal(attempt)
	if err != nil {
		return err
	}

	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if isNil(err) {
			return domain.ErrAttemptNotFound
		}
		if err != nil {
			return err
		}
		current, err := decodeAttempt(raw)
		if err != nil {
			return err
		}
		if current.ID != attempt.ID || current.Version != expectedVersion {
			return domain.ErrVersionConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		return err
	}
	return s.watch(ctx, txf, key)
}

func (s *AttemptStore) CountByUser(ctx context.Context, userID string) (int, error) {
	n, err := s.client.Get(ctx, s.countKey(userID)).Int()
	if isNil(err) {
		return 0, nil
	}
	return n, err
}

// History returns archived attempts followed by the latest one.
func (s *AttemptStore) History(ctx context.Context, userID, challengeID string) ([]domain.Attempt, error) {
	key := s.key(userID, challengeID)
	raws, err := s.client.LRange(ctx, key+":history", 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Attempt, 0, len(raws)+1)
	for _, raw := range raws {
		attempt, err := decodeAttempt([]byte(raw))
		if err != nil {
			return nil, err
		}
		out = append(out, attempt)
	}
	latest, err := s.Latest(ctx, userID, challengeID)
	if errors.Is(err, domain.ErrAttemptNotFound) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	return append(out, latest), nil
}

// watch maps a lost optimistic transaction to a version conflict.
func (s *AttemptStore) watch(ctx context.Context, txf func(*redis.Tx) error, key string) error {
	err := s.client.Watch(ctx, txf, key)
	if errors.Is(err, redis.TxFailedErr) {
		return domain.ErrVersionConflict
	}
	return err
}

func (s *AttemptStore) key(userID, challengeID string) string {
	return "attempt:" + challengeID + ":" + userID
}

func (s *AttemptStore) countKey(userID string) string {
	return "attempts:user:" + userID + ":count"
}

func decodeAttempt(raw []byte) (domain.Attempt, error) {
	var attempt domain.Attempt
	if err := json.Unmarshal(raw, &attempt); err != nil {
		return domain.Attempt{}, err
	}
	if attempt.Answers == nil {
		attempt.Answers = []int{}
	}
	return attempt, nil
}
